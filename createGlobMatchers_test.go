package main

import (
	"testing"

	"gotest.tools/v3/assert"
)

func mustGlobMatchers(t *testing.T, patterns []string, root string) []GlobMatcher {
	t.Helper()
	matchers, err := CreateGlobMatchers(patterns, root)
	assert.NilError(t, err)
	return matchers
}

func TestGlobMatching(t *testing.T) {
	root := "/fs/root/"
	tests := []struct {
		name     string
		pattern  string
		filePath string
		want     bool
	}{
		{"directory with trailing slash in root dir", ".next/", "/fs/root/.next/static/file.js", true},
		{"directory without slash in root dir", ".next", "/fs/root/.next/static/file.js", true},
		{"directory without slash in sub dir", ".next", "/fs/root/sub/sub2/.next/static/file.js", true},
		{"directory with trailing slash in sub dir", ".next/", "/fs/root/sub/sub2/.next/static/file.js", true},
		{"file name in root dir", "file.js", "/fs/root/file.js", true},
		{"file name in sub dir", "file.js", "/fs/root/sub/sub2/file.js", true},
		{"file name prefix does not match", "file.js", "/fs/root/myfile.js", false},
		{"double star matches root file", "**/*.test.ts", "/fs/root/a.test.ts", true},
		{"double star matches nested file", "**/*.test.ts", "/fs/root/a/b/c.test.ts", true},
		{"double star does not match other files", "**/*.test.ts", "/fs/root/a/b/c.ts", false},
		{"anchored pattern", "src/*.ts", "/fs/root/src/a.ts", true},
		{"anchored pattern in other dir", "src/*.ts", "/fs/root/lib/a.ts", false},
		{"path outside root", "**/*.ts", "/elsewhere/a.ts", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			matchers := mustGlobMatchers(t, []string{tt.pattern}, root)
			assert.Equal(t, MatchesAnyGlobMatcher(tt.filePath, matchers), tt.want,
				"pattern %q path %q", tt.pattern, tt.filePath)
		})
	}
}

func TestCreateGlobMatchersRejectsInvalidPattern(t *testing.T) {
	_, err := CreateGlobMatchers([]string{"src/[a"}, "/fs/root")
	assert.ErrorContains(t, err, "invalid glob pattern")
}

func TestDirectoryMatcher(t *testing.T) {
	matcher := DirectoryMatcher("/fs/root/dist")
	assert.Assert(t, matcher.Match("/fs/root/dist/a.js"))
	assert.Assert(t, matcher.Match("/fs/root/dist/sub/b.js"))
	assert.Assert(t, !matcher.Match("/fs/root/distribution/a.js"))
	assert.Assert(t, !matcher.Match("/fs/root/src/a.ts"))
}

func TestFilterIncluded(t *testing.T) {
	files := []string{"/fs/root/src/a.ts", "/fs/root/src/b.js", "/fs/root/test/c.ts"}

	assert.DeepEqual(t, FilterIncluded(files, nil), files)

	include := mustGlobMatchers(t, []string{"src/**"}, "/fs/root")
	assert.DeepEqual(t, FilterIncluded(files, include), []string{"/fs/root/src/a.ts", "/fs/root/src/b.js"})
}
