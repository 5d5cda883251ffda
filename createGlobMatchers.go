package main

import (
	"fmt"
	"strings"

	"github.com/gobwas/glob"
)

type GlobMatcher struct {
	globPattern glob.Glob
	pattern     string
	patternRoot string
	// bareName patterns (no '/' or '*') match any file or directory with that name, like .gitignore
	bareName bool
}

// CreateGlobMatchers compiles patterns relative to patternsRoot. Invalid
// patterns are reported as an error naming the pattern.
func CreateGlobMatchers(patterns []string, patternsRoot string) ([]GlobMatcher, error) {
	matchers := make([]GlobMatcher, 0, len(patterns))
	root := NormalizePathForInternal(patternsRoot)
	if root != "" && !strings.HasSuffix(root, "/") {
		root = root + "/"
	}

	for _, pattern := range patterns {
		bareName := !strings.Contains(pattern, "/") && !strings.Contains(pattern, "*")

		if strings.HasSuffix(pattern, "/") && !strings.Contains(pattern, "*") {
			// trailing '/' selects the whole directory
			pattern = "**" + pattern + "**"
		}
		pattern = NormalizeGlobPattern(pattern)

		compiled, err := glob.Compile(pattern)
		if err != nil {
			return nil, fmt.Errorf("invalid glob pattern '%s': %w", pattern, err)
		}
		matchers = append(matchers, GlobMatcher{globPattern: compiled, pattern: pattern, patternRoot: root, bareName: bareName})

		// gobwas/glob does not let `**/` match zero directories, so `**/*.ts`
		// would skip files directly under the root
		if rest, ok := strings.CutPrefix(pattern, "**/"); ok {
			matchers = append(matchers, GlobMatcher{globPattern: glob.MustCompile(rest), pattern: rest, patternRoot: root})
		}
	}
	return matchers, nil
}

// DirectoryMatcher matches every path below dir.
func DirectoryMatcher(dir string) GlobMatcher {
	root := strings.TrimSuffix(NormalizePathForInternal(dir), "/") + "/"
	return GlobMatcher{globPattern: glob.MustCompile("**"), pattern: "**", patternRoot: root}
}

func (m GlobMatcher) Match(filePath string) bool {
	relative, ok := strings.CutPrefix(NormalizePathForInternal(filePath), m.patternRoot)
	if !ok {
		return false
	}
	if m.globPattern.Match(relative) {
		return true
	}
	if !m.bareName {
		return false
	}
	return relative == m.pattern ||
		strings.HasSuffix(relative, "/"+m.pattern) ||
		strings.HasPrefix(relative, m.pattern+"/") ||
		strings.Contains(relative, "/"+m.pattern+"/")
}

func MatchesAnyGlobMatcher(filePath string, matchers []GlobMatcher) bool {
	for _, matcher := range matchers {
		if matcher.Match(filePath) {
			logger.Debugw("path matched glob", "path", filePath, "pattern", matcher.pattern)
			return true
		}
	}
	return false
}

// FilterIncluded keeps files matching at least one include matcher. No
// matchers keeps everything.
func FilterIncluded(files []string, include []GlobMatcher) []string {
	if len(include) == 0 {
		return files
	}
	kept := make([]string, 0, len(files))
	for _, file := range files {
		if MatchesAnyGlobMatcher(file, include) {
			kept = append(kept, file)
		}
	}
	return kept
}
