package main

import (
	"fmt"
	"strings"
)

type ModuleMode uint8

const (
	ModeFullConversion ModuleMode = iota // imports and exports become CommonJS
	ModeStripOnly                        // imports only; export lines are left for a later pass
)

const exportsMarker = "// Module exports"

// ExportRecord is a name exposed on module.exports by the generated trailer.
type ExportRecord struct {
	Name  string `json:"name" yaml:"name"`   // property on module.exports
	Local string `json:"local" yaml:"local"` // binding it is read from
}

// binding is one entry of an import or export clause.
type binding struct {
	Name   string // original name ("default" for default imports, "*" for namespace)
	Alias  string // local alias if "as" used, empty otherwise
	IsType bool   // true if inline "type" keyword precedes this identifier

	isDefaultImport bool // `x` in `import x from`, as opposed to `{ default as x }`
}

func (b binding) local() string {
	if b.Alias != "" {
		return b.Alias
	}
	return b.Name
}

// parseBraceList parses `{ A, B as C, type D }` starting at the '{'.
func parseBraceList(code string, i int) (bindings []binding, next int, ok bool) {
	n := len(code)
	i++ // skip '{'
	for i < n {
		i = skipSpaces(code, i)
		if i >= n {
			return nil, i, false
		}
		if code[i] == '}' {
			return bindings, i + 1, true
		}

		isType := false
		if hasWordAt(code, i, "type") {
			// `type` is a modifier only when another name follows it
			j := skipSpaces(code, i+len("type"))
			if j < n && (isByteIdentifierChar(code[j]) || code[j] == '"' || code[j] == '\'') && !hasWordAt(code, j, "as") {
				isType = true
				i = j
			}
		}

		var name string
		if code[i] == '"' || code[i] == '\'' {
			name, i, ok = parseStringLiteral(code, i)
			if !ok {
				return nil, i, false
			}
		} else {
			name, i = parseIdentifier(code, i)
			if name == "" {
				return nil, i, false
			}
		}

		i = skipSpaces(code, i)
		alias := ""
		if hasWordAt(code, i, "as") {
			i = skipSpaces(code, i+len("as"))
			alias, i = parseIdentifier(code, i)
			if alias == "" {
				return nil, i, false
			}
			i = skipSpaces(code, i)
		}
		bindings = append(bindings, binding{Name: name, Alias: alias, IsType: isType})

		if i < n && code[i] == ',' {
			i++
		}
	}
	return nil, i, false
}

// parseImportBindings parses the clause between `import` and `from`:
// `Default`, `* as Ns`, `{ ... }`, or `Default, { ... }` / `Default, * as Ns`.
func parseImportBindings(code string, i int) (bindings []binding, next int, ok bool) {
	i = skipSpaces(code, i)
	if i >= len(code) {
		return nil, i, false
	}

	parseNamespace := func(i int) (binding, int, bool) {
		i = skipSpaces(code, i+1) // skip '*'
		if !hasWordAt(code, i, "as") {
			return binding{}, i, false
		}
		alias, next := parseIdentifier(code, skipSpaces(code, i+len("as")))
		return binding{Name: "*", Alias: alias}, next, alias != ""
	}

	switch {
	case code[i] == '*':
		b, next, ok := parseNamespace(i)
		if !ok {
			return nil, next, false
		}
		return []binding{b}, next, true
	case code[i] == '{':
		return parseBraceList(code, i)
	}

	name, i := parseIdentifier(code, i)
	if name == "" {
		return nil, i, false
	}
	bindings = append(bindings, binding{Name: "default", Alias: name, isDefaultImport: true})

	i = skipSpaces(code, i)
	if i >= len(code) || code[i] != ',' {
		return bindings, i, true
	}
	i = skipSpaces(code, i+1)
	if i < len(code) && code[i] == '*' {
		b, next, ok := parseNamespace(i)
		if !ok {
			return nil, next, false
		}
		return append(bindings, b), next, true
	}
	if i < len(code) && code[i] == '{' {
		named, next, ok := parseBraceList(code, i)
		if !ok {
			return nil, next, false
		}
		return append(bindings, named...), next, true
	}
	return nil, i, false
}

// parseFromClause parses `from '<path>'` at i and returns the module path.
func parseFromClause(code string, i int) (string, bool) {
	i = skipSpaces(code, i)
	if !hasWordAt(code, i, "from") {
		return "", false
	}
	path, _, ok := parseStringLiteral(code, skipSpaces(code, i+len("from")))
	return path, ok
}

func requireCall(path string) string {
	return fmt.Sprintf("require('%s')", strings.ReplaceAll(path, "'", "\\'"))
}

func destructure(bindings []binding) string {
	parts := make([]string, 0, len(bindings))
	for _, b := range bindings {
		if b.Alias != "" && b.Alias != b.Name {
			parts = append(parts, b.Name+": "+b.Alias)
		} else {
			parts = append(parts, b.Name)
		}
	}
	return "{ " + strings.Join(parts, ", ") + " }"
}

// convertImport rewrites a trimmed import statement. An empty result with ok
// means the statement only imported types and is dropped.
func convertImport(stmt string) (converted string, path string, ok bool) {
	i := skipSpaces(stmt, len("import"))

	if i < len(stmt) && (stmt[i] == '\'' || stmt[i] == '"') {
		path, _, ok := parseStringLiteral(stmt, i)
		if !ok {
			return "", "", false
		}
		return requireCall(path) + ";", path, true
	}

	bindings, next, ok := parseImportBindings(stmt, i)
	if !ok {
		return "", "", false
	}
	path, ok = parseFromClause(stmt, next)
	if !ok {
		return "", "", false
	}

	var defaultName, namespace string
	var named []binding
	typeOnly := len(bindings) > 0
	for _, b := range bindings {
		if b.IsType {
			continue
		}
		typeOnly = false
		switch {
		case b.isDefaultImport:
			defaultName = b.Alias
		case b.Name == "*":
			namespace = b.Alias
		default:
			named = append(named, b)
		}
	}
	if typeOnly {
		return "", path, true
	}

	req := requireCall(path)
	switch {
	case defaultName != "":
		out := fmt.Sprintf("const %s = %s;", defaultName, req)
		if namespace != "" {
			out += fmt.Sprintf(" const %s = %s;", namespace, defaultName)
		}
		if len(named) > 0 {
			out += fmt.Sprintf(" const %s = %s;", destructure(named), defaultName)
		}
		return out, path, true
	case namespace != "":
		return fmt.Sprintf("const %s = %s;", namespace, req), path, true
	case len(named) > 0:
		return fmt.Sprintf("const %s = %s;", destructure(named), req), path, true
	}
	return req + ";", path, true
}

// declarationName returns the name declared by `const|let|var|function|class`
// at i, accepting `async function` and generator stars.
func declarationName(code string, i int) string {
	for _, kw := range []string{"const", "let", "var", "class"} {
		if hasWordAt(code, i, kw) {
			name, _ := parseIdentifier(code, skipSpaces(code, i+len(kw)))
			return name
		}
	}
	if hasWordAt(code, i, "async") {
		i = skipSpaces(code, i+len("async"))
	}
	if hasWordAt(code, i, "function") {
		j := skipSpaces(code, i+len("function"))
		if j < len(code) && code[j] == '*' {
			j = skipSpaces(code, j+1)
		}
		name, _ := parseIdentifier(code, j)
		return name
	}
	return ""
}

// defaultExport turns the expression of `export default` into an assignment.
func defaultExport(expr string) string {
	expr = strings.TrimSpace(expr)
	if strings.HasSuffix(expr, ";") {
		return "module.exports = " + expr
	}
	switch expr[len(expr)-1] {
	case '{', '(', '[', ',':
		return "module.exports = " + expr
	}
	return "module.exports = " + expr + ";"
}

// moduleRewriter converts import and export statements line by line. It
// lives for one transform pass.
type moduleRewriter struct {
	mode    ModuleMode
	report  *Report
	exports []ExportRecord
}

func newModuleRewriter(mode ModuleMode, report *Report) *moduleRewriter {
	return &moduleRewriter{mode: mode, report: report}
}

func (r *moduleRewriter) comment(indent, stmt string) string {
	r.report.CommentedLines = append(r.report.CommentedLines, stmt)
	return indent + "// " + stmt
}

func (r *moduleRewriter) record(name, local string) {
	r.exports = append(r.exports, ExportRecord{Name: name, Local: local})
}

// joinClause merges a `{` clause spread over several lines into one statement.
func joinClause(lines []string, i int) (string, int) {
	stmt := strings.TrimSpace(lines[i])
	open := strings.Index(stmt, "{")
	if open < 0 || strings.Contains(stmt[open:], "}") {
		return stmt, i + 1
	}
	parts := []string{stmt}
	j := i + 1
	for ; j < len(lines); j++ {
		part := strings.TrimSpace(lines[j])
		if k := strings.Index(part, "//"); k >= 0 {
			part = strings.TrimSpace(part[:k])
		}
		if part == "" {
			continue
		}
		parts = append(parts, part)
		if strings.Contains(part, "}") {
			return strings.Join(parts, " "), j + 1
		}
	}
	return stmt, i + 1
}

func leadingIndent(line string) string {
	return line[:len(line)-len(strings.TrimLeft(line, " \t"))]
}

// isExportClause matches `export {` and `export type {`, the only export forms
// whose braces are joined across lines.
func isExportClause(trimmed string) bool {
	i := skipSpaces(trimmed, len("export"))
	if hasWordAt(trimmed, i, "type") {
		i = skipSpaces(trimmed, i+len("type"))
	}
	return byteAt(trimmed, i) == '{'
}

// isStaticImport excludes `import(...)` and `import.meta`.
func isStaticImport(trimmed string) bool {
	if !hasWordAt(trimmed, 0, "import") {
		return false
	}
	next := byteAt(trimmed, skipSpaces(trimmed, len("import")))
	return next != '(' && next != '.' && next != 0
}

// isTypeOnlyImport matches `import type ...`, but not a default import named type.
func isTypeOnlyImport(stmt string) bool {
	i := skipSpaces(stmt, len("import"))
	if !hasWordAt(stmt, i, "type") {
		return false
	}
	return !hasWordAt(stmt, skipSpaces(stmt, i+len("type")), "from")
}

func (r *moduleRewriter) rewrite(lines []string) []string {
	out := make([]string, 0, len(lines)+4)
	for i := 0; i < len(lines); {
		line := lines[i]
		trimmed := strings.TrimSpace(line)
		indent := leadingIndent(line)

		switch {
		case isStaticImport(trimmed):
			stmt, next := joinClause(lines, i)
			i = next
			if isTypeOnlyImport(stmt) {
				r.report.DroppedLines++
				continue
			}
			converted, path, ok := convertImport(stmt)
			switch {
			case !ok:
				out = append(out, r.comment(indent, stmt))
			case converted == "":
				r.report.DroppedLines++
			default:
				r.report.Requires = append(r.report.Requires, path)
				out = append(out, indent+converted)
			}
		case r.mode == ModeFullConversion && hasWordAt(trimmed, 0, "export"):
			stmt, next := trimmed, i+1
			if isExportClause(trimmed) {
				stmt, next = joinClause(lines, i)
			}
			i = next
			out = append(out, r.rewriteExport(indent, stmt)...)
		default:
			out = append(out, line)
			i++
		}
	}
	return r.appendTrailer(out)
}

func (r *moduleRewriter) rewriteExport(indent, stmt string) []string {
	j := skipSpaces(stmt, len("export"))
	if j >= len(stmt) {
		return []string{r.comment(indent, stmt)}
	}

	if hasWordAt(stmt, j, "default") {
		expr := strings.TrimSpace(stmt[j+len("default"):])
		if expr == "" || expr == ";" {
			return []string{r.comment(indent, stmt)}
		}
		return []string{indent + defaultExport(expr)}
	}

	if hasWordAt(stmt, j, "type") && byteAt(stmt, skipSpaces(stmt, j+len("type"))) == '{' {
		r.report.DroppedLines++
		return nil
	}

	if name := declarationName(stmt, j); name != "" {
		r.record(name, name)
		return []string{indent + stmt[j:]}
	}

	switch stmt[j] {
	case '{':
		bindings, next, ok := parseBraceList(stmt, j)
		if !ok {
			return []string{r.comment(indent, stmt)}
		}
		if path, isReexport := parseFromClause(stmt, next); isReexport {
			r.report.Requires = append(r.report.Requires, path)
			var assigns []string
			for _, b := range bindings {
				if b.IsType {
					continue
				}
				source := requireCall(path)
				if b.Name != "default" {
					source += "." + b.Name
				}
				assigns = append(assigns, fmt.Sprintf("module.exports.%s = %s;", b.local(), source))
			}
			if len(assigns) == 0 {
				r.report.DroppedLines++
				return nil
			}
			return []string{indent + strings.Join(assigns, " ")}
		}
		for _, b := range bindings {
			if !b.IsType {
				r.record(b.local(), b.Name)
			}
		}
		return []string{r.comment(indent, stmt)}
	case '*':
		k := skipSpaces(stmt, j+1)
		alias := ""
		if hasWordAt(stmt, k, "as") {
			alias, k = parseIdentifier(stmt, skipSpaces(stmt, k+len("as")))
		}
		path, ok := parseFromClause(stmt, k)
		if !ok {
			return []string{r.comment(indent, stmt)}
		}
		r.report.Requires = append(r.report.Requires, path)
		if alias != "" {
			return []string{indent + fmt.Sprintf("module.exports.%s = %s;", alias, requireCall(path))}
		}
		return []string{indent + fmt.Sprintf("Object.assign(module.exports, %s);", requireCall(path))}
	}

	return []string{r.comment(indent, stmt)}
}

// appendTrailer adds one module.exports assignment per record, keeping a
// trailing empty line of the input last.
func (r *moduleRewriter) appendTrailer(out []string) []string {
	r.report.Exports = append(r.report.Exports, r.exports...)
	if len(r.exports) == 0 {
		return out
	}
	trailingNewline := len(out) > 0 && out[len(out)-1] == ""
	if trailingNewline {
		out = out[:len(out)-1]
	}
	out = append(out, "", exportsMarker)
	for _, e := range r.exports {
		out = append(out, fmt.Sprintf("module.exports.%s = %s;", e.Name, e.Local))
	}
	if trailingNewline {
		out = append(out, "")
	}
	return out
}
