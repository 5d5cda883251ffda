package main

import (
	"os"
	"path/filepath"
	"runtime"
	"strings"
)

// NormalizePathForInternal converts an OS path to forward slashes so globs
// match the same way on every platform.
// - "C:\\project\\src\\file.ts" -> "C:/project/src/file.ts"
func NormalizePathForInternal(p string) string {
	if runtime.GOOS != "windows" || p == "" {
		return p
	}
	s := filepath.ToSlash(filepath.Clean(p))
	if len(s) > 1 && strings.HasSuffix(s, "/") {
		s = strings.TrimRight(s, "/")
	}
	return s
}

func NormalizeGlobPattern(pattern string) string {
	if runtime.GOOS != "windows" || pattern == "" {
		return pattern
	}
	return strings.ReplaceAll(pattern, "\\", "/")
}

// ResolveAbsoluteCwd resolves cwd against the process working directory.
func ResolveAbsoluteCwd(cwd string) string {
	if filepath.IsAbs(cwd) {
		return filepath.Clean(cwd)
	}
	workDir, _ := os.Getwd()
	return filepath.Join(workDir, cwd)
}

// OutputPath maps a source file under root to its .js counterpart under outDir.
// - root "/p/src", outDir "/p/dist", "/p/src/a/b.ts" -> "/p/dist/a/b.js"
func OutputPath(root string, outDir string, file string) (string, error) {
	rel, err := filepath.Rel(root, filepath.FromSlash(file))
	if err != nil {
		return "", err
	}
	rel = strings.TrimSuffix(rel, filepath.Ext(rel)) + ".js"
	return filepath.Join(outDir, rel), nil
}

// DisplayPath shortens path relative to cwd for console output.
func DisplayPath(cwd string, path string) string {
	if rel, err := filepath.Rel(cwd, path); err == nil && !strings.HasPrefix(rel, "..") {
		return filepath.ToSlash(rel)
	}
	return path
}
