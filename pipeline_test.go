package main

import (
	"strings"
	"sync"
	"testing"

	"gotest.tools/v3/assert"
)

func TestKindFromFilename(t *testing.T) {
	tests := []struct {
		filename string
		want     FileKind
	}{
		{"a.ts", KindTypedDialect},
		{"a.tsx", KindTypedDialect},
		{"src/a.mts", KindTypedDialect},
		{"A.CTS", KindTypedDialect},
		{"a.js", KindPlainModule},
		{"a.jsx", KindPlainModule},
		{"a.mjs", KindPlainModule},
		{"a.cjs", KindPlainModule},
		{"types.d.ts", KindOpaque},
		{"a.json", KindOpaque},
		{"Makefile", KindOpaque},
	}
	for _, tt := range tests {
		t.Run(tt.filename, func(t *testing.T) {
			assert.Equal(t, KindFromFilename(tt.filename), tt.want)
		})
	}
}

func TestTransformTypedDeclarationsAreRemoved(t *testing.T) {
	transformer := NewTransformer(Options{})

	out := transformer.Transform("interface Foo { a: number; }\nconst x = 1;", KindTypedDialect)
	assert.Assert(t, !strings.Contains(out, "interface"))
	assert.Equal(t, out, "const x = 1;")

	out = transformer.Transform("enum Color {\n  Red,\n  Blue\n}\nconst c = 1;", KindTypedDialect)
	assert.Assert(t, !strings.Contains(out, "enum"))
	assert.Assert(t, !strings.Contains(out, "Red,"))
	assert.Equal(t, out, "const c = 1;")
}

func TestTransformTypedAnnotations(t *testing.T) {
	transformer := NewTransformer(Options{})

	out := transformer.Transform("function f(a: number, b: string): number { return a; }", KindTypedDialect)
	assert.Equal(t, out, "function f(a, b) { return a; }")

	out = transformer.Transform("const x: Foo<Bar> = y as Foo<Bar>;", KindTypedDialect)
	assert.Equal(t, out, "const x = y;")
}

func TestTransformPlainModuleRoundTrip(t *testing.T) {
	transformer := NewTransformer(Options{})
	out := transformer.Transform("export const A = 1;\nexport function f() {}\nexport default 42;", KindPlainModule)

	for _, want := range []string{"A = 1;", "function f() {}", "module.exports = 42;", "module.exports.A = A;", "module.exports.f = f;"} {
		assert.Assert(t, strings.Contains(out, want), "missing %q in:\n%s", want, out)
	}
}

func TestTransformImports(t *testing.T) {
	transformer := NewTransformer(Options{})
	tests := map[string]string{
		"import { a, b } from './m';": "const { a, b } = require('./m');",
		"import x from './m';":        "const x = require('./m');",
		"import './side-effect';":     "require('./side-effect');",
	}
	for source, want := range tests {
		for _, kind := range []FileKind{KindTypedDialect, KindPlainModule} {
			assert.Equal(t, transformer.Transform(source, kind), want, "kind %s", kind)
		}
	}
}

func TestTransformPlainInputIsUnchanged(t *testing.T) {
	transformer := NewTransformer(Options{})
	source := "const a = 1;\nfunction b() { return a ? a : 0; }\nconsole.log(b());\n"
	assert.Equal(t, transformer.Transform(source, KindTypedDialect), source)
	assert.Equal(t, transformer.Transform(source, KindPlainModule), source)
}

func TestTransformOpaqueIsUnchanged(t *testing.T) {
	transformer := NewTransformer(Options{})
	source := "export const a: number = 1;\r\n"
	assert.Equal(t, transformer.Transform(source, KindOpaque), "export const a: number = 1;\n")
}

func TestTransformNormalizesLineEndings(t *testing.T) {
	transformer := NewTransformer(Options{})
	out := transformer.Transform("const a: number = 1;\r\nexport { a };\r\n", KindTypedDialect)
	assert.Equal(t, out, "const a = 1;\n// export { a };\n\n// Module exports\nmodule.exports.a = a;\n")
}

func TestTransformDeferExports(t *testing.T) {
	transformer := NewTransformer(Options{DeferExports: true})
	out := transformer.Transform("import { a } from './a';\nexport const b: number = a;", KindTypedDialect)
	assert.Equal(t, out, "const { a } = require('./a');\nexport const b = a;")

	// plain modules are always fully converted
	out = transformer.Transform("export const b = 1;", KindPlainModule)
	assert.Equal(t, out, "const b = 1;\n\n// Module exports\nmodule.exports.b = b;")
}

func TestTransformWithReport(t *testing.T) {
	source := strings.Join([]string{
		"import { a } from './a';",
		"import x = require('y');",
		"interface I {",
		"  v: number;",
		"}",
		"export const b = a;",
	}, "\n")

	result := NewTransformer(Options{}).TransformWithReport(source, KindTypedDialect)

	assert.Equal(t, result.Code, strings.Join([]string{
		"const { a } = require('./a');",
		"// import x = require('y');",
		"const b = a;",
		"",
		"// Module exports",
		"module.exports.b = b;",
	}, "\n"))
	assert.Equal(t, result.Report.Kind, KindTypedDialect)
	assert.Equal(t, result.Report.DroppedLines, 3)
	assert.DeepEqual(t, result.Report.Exports, []ExportRecord{{Name: "b", Local: "b"}})
	assert.DeepEqual(t, result.Report.Requires, []string{"./a"})
	assert.DeepEqual(t, result.Report.CommentedLines, []string{"import x = require('y');"})
}

func TestTransformAlwaysReturns(t *testing.T) {
	inputs := []string{
		"",
		"\n\n",
		"interface A {",
		"const s = 'unterminated",
		"const t = `unterminated",
		"/* unterminated",
		"import {",
		"export {",
		"export",
		"export default",
		"((((",
		"}}}}",
		")))):",
		":::",
		"a ? : b",
		"type",
		"type X =",
		"enum",
		"declare",
		"x!",
		"<<>>(",
		"function f(a: ",
	}
	transformer := NewTransformer(Options{})
	for _, input := range inputs {
		for _, kind := range []FileKind{KindTypedDialect, KindPlainModule} {
			result := transformer.TransformWithReport(input, kind)
			assert.Equal(t, result.Report.Recovered, "", "input %q kind %s", input, kind)
		}
	}
}

func TestTransformIsSafeForConcurrentUse(t *testing.T) {
	source := strings.Join([]string{
		"import { readFile } from 'fs';",
		"interface Options { verbose: boolean; }",
		"export class Loader<T> {",
		"  private cache: Map<string, T> = new Map<string, T>();",
		"  load(path: string, opts?: Options): T | undefined {",
		"    return this.cache.get(path) as T;",
		"  }",
		"}",
		"export default new Loader<string>();",
	}, "\n")

	transformer := NewTransformer(Options{})
	want := transformer.Transform(source, KindTypedDialect)

	var wg sync.WaitGroup
	results := make([]string, 32)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i] = transformer.Transform(source, KindTypedDialect)
		}(i)
	}
	wg.Wait()

	for _, got := range results {
		assert.Equal(t, got, want)
	}
}
