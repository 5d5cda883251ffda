package main

import (
	"os"
	"path/filepath"
	"strings"
)

func hasSourceExtension(name string) bool {
	if strings.HasSuffix(name, ".d.ts") {
		return false
	}
	return KindFromFilename(name) != KindOpaque
}

// parseGitIgnore turns .gitignore content into matchers rooted at dirPath.
// Negations and patterns the glob library rejects are skipped.
func parseGitIgnore(fileContent string, dirPath string) []GlobMatcher {
	patterns := []string{}
	for _, line := range strings.Split(fileContent, "\n") {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" || strings.HasPrefix(trimmed, "#") || strings.HasPrefix(trimmed, "!") {
			continue
		}
		patterns = append(patterns, strings.TrimPrefix(trimmed, "/"))
	}

	matchers := make([]GlobMatcher, 0, len(patterns))
	for _, pattern := range patterns {
		compiled, err := CreateGlobMatchers([]string{pattern}, dirPath)
		if err != nil {
			logger.Debugw("skipping .gitignore entry", "dir", dirPath, "pattern", pattern, "error", err)
			continue
		}
		matchers = append(matchers, compiled...)
	}
	return matchers
}

// FindAndProcessGitIgnoreFilesUpToRepoRoot collects .gitignore matchers from
// dirPath and its parents, stopping at the directory holding .git.
func FindAndProcessGitIgnoreFilesUpToRepoRoot(dirPath string) []GlobMatcher {
	matchers := []GlobMatcher{}
	dir := filepath.Clean(dirPath)
	for {
		if content, err := os.ReadFile(filepath.Join(dir, ".gitignore")); err == nil {
			matchers = append(matchers, parseGitIgnore(string(content), dir)...)
		}
		if info, err := os.Stat(filepath.Join(dir, ".git")); err == nil && info.IsDir() {
			return matchers
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return matchers
		}
		dir = parent
	}
}

// GetFiles walks directory collecting transformable sources, skipping
// anything matched by parentGlobMatchers or by nested .gitignore files.
func GetFiles(directory string, existingFiles []string, parentGlobMatchers []GlobMatcher) []string {
	entries, err := os.ReadDir(directory)
	if err != nil {
		logger.Debugw("cannot read directory", "dir", directory, "error", err)
		return existingFiles
	}

	for _, entry := range entries {
		entryName := entry.Name()
		entryFilePath := filepath.Join(directory, entryName)

		if entry.IsDir() {
			if entryName == "node_modules" || entryName == ".git" || MatchesAnyGlobMatcher(entryFilePath, parentGlobMatchers) {
				continue
			}
			// the cwd .gitignore is already part of parentGlobMatchers
			matchers := parentGlobMatchers
			if content, err := os.ReadFile(filepath.Join(entryFilePath, ".gitignore")); err == nil {
				if nested := parseGitIgnore(string(content), entryFilePath); len(nested) > 0 {
					matchers = append(append([]GlobMatcher{}, parentGlobMatchers...), nested...)
				}
			}
			existingFiles = GetFiles(entryFilePath, existingFiles, matchers)
			continue
		}

		if hasSourceExtension(entryName) && !MatchesAnyGlobMatcher(entryFilePath, parentGlobMatchers) {
			existingFiles = append(existingFiles, NormalizePathForInternal(entryFilePath))
		}
	}

	return existingFiles
}
