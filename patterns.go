// Asset path patterns: which workspace files count as test assets for
// filtered status reporting.
package worksync

import (
	"path/filepath"
	"strings"
)

// DefaultAssetPatterns selects the files the authoring workspace owns:
// Gherkin feature files anywhere in the tree, step definitions under any
// steps/ directory, and generated runner configuration.
var DefaultAssetPatterns = []string{
	"**/*.feature",
	"**/steps/**",
	"**/runner.config.*",
}

// matchesAnyPattern reports whether path matches at least one pattern.
func matchesAnyPattern(path string, patterns []string) bool {
	for _, pattern := range patterns {
		if matchAssetPattern(path, pattern) {
			return true
		}
	}
	return false
}

// matchAssetPattern matches a slash-separated path against a glob pattern.
// Single-star segments match within one path segment (filepath.Match
// semantics); a "**" segment matches zero or more whole segments.
func matchAssetPattern(path, pattern string) bool {
	return matchSegments(
		splitPath(path),
		splitPath(pattern),
	)
}

func splitPath(p string) []string {
	p = strings.Trim(p, "/")
	if p == "" {
		return nil
	}
	return strings.Split(p, "/")
}

func matchSegments(path, pattern []string) bool {
	// A trailing "**" swallows the rest of the path, including nothing.
	if len(pattern) == 0 {
		return len(path) == 0
	}

	if pattern[0] == "**" {
		if matchSegments(path, pattern[1:]) {
			return true
		}
		if len(path) == 0 {
			return false
		}
		return matchSegments(path[1:], pattern)
	}

	if len(path) == 0 {
		return false
	}

	matched, err := filepath.Match(pattern[0], path[0])
	if err != nil || !matched {
		return false
	}

	return matchSegments(path[1:], pattern[1:])
}
