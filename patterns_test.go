package worksync

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMatchAssetPattern(t *testing.T) {
	tests := []struct {
		name    string
		path    string
		pattern string
		want    bool
	}{
		{name: "feature at root", path: "login.feature", pattern: "**/*.feature", want: true},
		{name: "feature nested", path: "suites/auth/login.feature", pattern: "**/*.feature", want: true},
		{name: "wrong extension", path: "suites/auth/login.txt", pattern: "**/*.feature", want: false},
		{name: "steps dir at root", path: "steps/common.go", pattern: "**/steps/**", want: true},
		{name: "steps dir nested", path: "suites/auth/steps/login.go", pattern: "**/steps/**", want: true},
		{name: "steps as filename", path: "suites/steps", pattern: "**/steps/**", want: true},
		{name: "steps substring is not a segment", path: "suites/mysteps/x.go", pattern: "**/steps/**", want: false},
		{name: "runner config json", path: "runner.config.json", pattern: "**/runner.config.*", want: true},
		{name: "runner config nested", path: "suites/runner.config.yaml", pattern: "**/runner.config.*", want: true},
		{name: "single star stays in segment", path: "a/b/c.feature", pattern: "*.feature", want: false},
		{name: "leading slash tolerated", path: "/suites/login.feature", pattern: "**/*.feature", want: true},
		{name: "empty path", path: "", pattern: "**/*.feature", want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, matchAssetPattern(tt.path, tt.pattern))
		})
	}
}

func TestMatchesAnyPattern(t *testing.T) {
	assert.True(t, matchesAnyPattern("suites/auth/login.feature", DefaultAssetPatterns))
	assert.True(t, matchesAnyPattern("suites/steps/login.go", DefaultAssetPatterns))
	assert.True(t, matchesAnyPattern("runner.config.json", DefaultAssetPatterns))
	assert.False(t, matchesAnyPattern("readme.md", DefaultAssetPatterns))
	assert.False(t, matchesAnyPattern("src/main.go", DefaultAssetPatterns))
	assert.False(t, matchesAnyPattern("anything", nil))
}
