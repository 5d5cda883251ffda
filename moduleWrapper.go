package main

import "strings"

// WrapModule embeds a transformed body in a function that supplies fresh
// module and exports bindings and evaluates to module.exports.
func WrapModule(body string) string {
	var b strings.Builder
	b.Grow(len(body) + 128)
	b.WriteString("(function() {\n")
	b.WriteString("  const module = { exports: {} };\n")
	b.WriteString("  const exports = module.exports;\n")
	b.WriteString("\n")
	b.WriteString(body)
	if !strings.HasSuffix(body, "\n") {
		b.WriteString("\n")
	}
	b.WriteString("\n")
	b.WriteString("  return module.exports;\n")
	b.WriteString("})()\n")
	return b.String()
}
