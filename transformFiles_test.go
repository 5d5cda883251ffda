package main

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"gotest.tools/v3/assert"
)

func writeFiles(t *testing.T, root string, files map[string]string) {
	t.Helper()
	for name, content := range files {
		path := filepath.Join(root, filepath.FromSlash(name))
		assert.NilError(t, os.MkdirAll(filepath.Dir(path), 0755))
		assert.NilError(t, os.WriteFile(path, []byte(content), 0644))
	}
}

func TestGetFiles(t *testing.T) {
	root := t.TempDir()
	writeFiles(t, root, map[string]string{
		"a.ts":                  "",
		"types.d.ts":            "",
		"notes.md":              "",
		"sub/b.js":              "",
		"sub/.gitignore":        "generated/\n# comment\nskip.ts\n",
		"sub/generated/c.ts":    "",
		"sub/skip.ts":           "",
		"node_modules/pkg/i.js": "",
		"excluded/d.ts":         "",
	})

	exclude := mustGlobMatchers(t, []string{"excluded/**"}, root)
	files := GetFiles(root, []string{}, exclude)

	assert.DeepEqual(t, files, []string{
		NormalizePathForInternal(filepath.Join(root, "a.ts")),
		NormalizePathForInternal(filepath.Join(root, "sub", "b.js")),
	})
}

func TestTransformFilesWritesOutDir(t *testing.T) {
	root := t.TempDir()
	writeFiles(t, root, map[string]string{
		"src/a.ts":     "export const a: number = 1;\n",
		"src/sub/b.js": "import { a } from '../a';\nexport default a;\n",
	})
	srcDir := filepath.Join(root, "src")
	outDir := filepath.Join(root, "dist")

	files := GetFiles(srcDir, []string{}, nil)
	results, errCount := TransformFiles(context.Background(), NewTransformer(Options{}), files, TransformFilesOptions{
		Root:   srcDir,
		OutDir: outDir,
	})

	assert.Equal(t, errCount, 0)
	assert.Equal(t, len(results), 2)
	assert.Equal(t, results[0].OutputPath, filepath.Join(outDir, "a.js"))
	assert.Equal(t, results[1].OutputPath, filepath.Join(outDir, "sub", "b.js"))

	content, err := os.ReadFile(filepath.Join(outDir, "a.js"))
	assert.NilError(t, err)
	assert.Equal(t, string(content), "const a = 1;\n\n// Module exports\nmodule.exports.a = a;\n")

	content, err = os.ReadFile(filepath.Join(outDir, "sub", "b.js"))
	assert.NilError(t, err)
	assert.Equal(t, string(content), "const { a } = require('../a');\nmodule.exports = a;\n")
}

func TestTransformFilesInMemory(t *testing.T) {
	root := t.TempDir()
	writeFiles(t, root, map[string]string{
		"ok.js":  "export const x = 1;",
		"bad.js": "const = ;",
	})
	files := []string{
		filepath.Join(root, "ok.js"),
		filepath.Join(root, "missing.js"),
		filepath.Join(root, "bad.js"),
	}

	results, errCount := TransformFiles(context.Background(), NewTransformer(Options{}), files, TransformFilesOptions{
		Root:   root,
		Wrap:   true,
		Verify: true,
	})

	assert.Equal(t, errCount, 1)
	assert.Equal(t, len(results), 3)

	// sorted by path
	bad, missing, ok := results[0], results[1], results[2]
	assert.Assert(t, len(bad.Problems) > 0)
	assert.Assert(t, bad.Failed())
	assert.ErrorContains(t, missing.Err, "failed to read")
	assert.Assert(t, !ok.Failed())
	assert.Equal(t, ok.OutputPath, "")
	assert.Equal(t, ok.Code, WrapModule("const x = 1;\n\n// Module exports\nmodule.exports.x = x;"))

	_, err := os.Stat(filepath.Join(root, "ok.js.js"))
	assert.Assert(t, os.IsNotExist(err))
}

func TestTransformFilesStopsWhenCancelled(t *testing.T) {
	root := t.TempDir()
	writeFiles(t, root, map[string]string{"a.js": "export const a = 1;"})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	results, errCount := TransformFiles(ctx, NewTransformer(Options{}), []string{filepath.Join(root, "a.js")}, TransformFilesOptions{Root: root})
	assert.Equal(t, errCount, 0)
	assert.Equal(t, len(results), 0)
}

func TestOutputPath(t *testing.T) {
	got, err := OutputPath("/p/src", "/p/dist", "/p/src/a/b.ts")
	assert.NilError(t, err)
	assert.Equal(t, got, filepath.FromSlash("/p/dist/a/b.js"))
}

func TestTransformFilesRejectsSharedOutputPath(t *testing.T) {
	root := t.TempDir()
	writeFiles(t, root, map[string]string{
		"a.ts": "export const a: number = 1;\n",
		"a.js": "export const a = 2;\n",
	})
	outDir := filepath.Join(root, "dist")
	files := []string{filepath.Join(root, "a.ts"), filepath.Join(root, "a.js")}

	results, errCount := TransformFiles(context.Background(), NewTransformer(Options{}), files, TransformFilesOptions{
		Root:   root,
		OutDir: outDir,
	})

	assert.Equal(t, errCount, 1)
	assert.Equal(t, len(results), 2)

	// sorted by path
	js, ts := results[0], results[1]
	assert.ErrorContains(t, js.Err, "is already written by "+files[0])
	assert.Equal(t, js.OutputPath, "")
	assert.NilError(t, ts.Err)
	assert.Equal(t, ts.OutputPath, filepath.Join(outDir, "a.js"))

	content, err := os.ReadFile(filepath.Join(outDir, "a.js"))
	assert.NilError(t, err)
	assert.Equal(t, string(content), "const a = 1;\n\n// Module exports\nmodule.exports.a = a;\n")
}
