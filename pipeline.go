package main

import (
	"fmt"
	"path/filepath"
	"strings"
)

// FileKind selects which passes run over a source document.
type FileKind uint8

const (
	KindOpaque       FileKind = iota // passed through unchanged
	KindTypedDialect                 // type declarations and annotations, plus module syntax
	KindPlainModule                  // module syntax only
)

var kindNames = map[FileKind]string{
	KindOpaque:       "opaque",
	KindTypedDialect: "typed",
	KindPlainModule:  "plain",
}

func (k FileKind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("FileKind(%d)", uint8(k))
}

func (k FileKind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

func KindFromFilename(filename string) FileKind {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".ts", ".tsx", ".mts", ".cts":
		if strings.HasSuffix(strings.ToLower(filename), ".d.ts") {
			return KindOpaque
		}
		return KindTypedDialect
	case ".js", ".jsx", ".mjs", ".cjs":
		return KindPlainModule
	}
	return KindOpaque
}

type Options struct {
	// DeferExports leaves export lines of typed files in place for a later
	// module pass; only imports are rewritten.
	DeferExports bool
}

// Report describes what one transform pass did to its input.
type Report struct {
	Kind           FileKind       `json:"kind" yaml:"kind"`
	Exports        []ExportRecord `json:"exports" yaml:"exports"`
	Requires       []string       `json:"requires" yaml:"requires"`
	DroppedLines   int            `json:"droppedLines" yaml:"droppedLines"`
	CommentedLines []string       `json:"commentedLines" yaml:"commentedLines"`
	Recovered      string         `json:"recovered,omitempty" yaml:"recovered,omitempty"`
}

type Result struct {
	Code   string
	Report Report
}

// Transformer converts typed and module-syntax sources into CommonJS. A
// Transformer holds only read-only state and may be shared between goroutines.
type Transformer struct {
	opts     Options
	patterns *typePatterns
}

func NewTransformer(opts Options) *Transformer {
	return &Transformer{opts: opts, patterns: newTypePatterns()}
}

func (t *Transformer) Transform(source string, kind FileKind) string {
	return t.TransformWithReport(source, kind).Code
}

func normalizeLineEndings(source string) string {
	if !strings.Contains(source, "\r") {
		return source
	}
	source = strings.ReplaceAll(source, "\r\n", "\n")
	return strings.ReplaceAll(source, "\r", "\n")
}

func (t *Transformer) TransformWithReport(source string, kind FileKind) (result Result) {
	source = normalizeLineEndings(source)
	result.Report.Kind = kind

	defer func() {
		if r := recover(); r != nil {
			logger.Warnw("transform pass aborted, returning input", "kind", kind, "panic", r)
			result = Result{Code: source, Report: Report{Kind: kind, Recovered: fmt.Sprint(r)}}
		}
	}()

	if kind != KindTypedDialect && kind != KindPlainModule {
		result.Code = source
		return result
	}

	lines := strings.Split(source, "\n")
	report := &result.Report
	mode := ModeFullConversion

	if kind == KindTypedDialect {
		lines = elideTypeDeclarations(lines, report)
		stripper := newTypeStripper(t.patterns)
		for i, line := range lines {
			lines[i] = stripper.stripLine(line)
		}
		if t.opts.DeferExports {
			mode = ModeStripOnly
		}
	}

	lines = newModuleRewriter(mode, report).rewrite(lines)
	result.Code = strings.Join(lines, "\n")
	return result
}
