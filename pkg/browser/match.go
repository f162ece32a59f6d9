package browser

import (
	"fmt"

	"github.com/gobwas/glob"
)

// URLMatcher recognises the course page by URL.
type URLMatcher struct {
	patterns []glob.Glob
	sources  []string
}

// NewURLMatcher compiles attach patterns. A pattern's * matches any run of
// characters including slashes.
func NewURLMatcher(patterns []string) (*URLMatcher, error) {
	m := &URLMatcher{}
	for _, pattern := range patterns {
		g, err := glob.Compile(pattern)
		if err != nil {
			return nil, fmt.Errorf("invalid attach pattern '%s': %w", pattern, err)
		}
		m.patterns = append(m.patterns, g)
		m.sources = append(m.sources, pattern)
	}
	return m, nil
}

// Match reports whether url matches any pattern.
func (m *URLMatcher) Match(url string) bool {
	for _, pattern := range m.patterns {
		if pattern.Match(url) {
			return true
		}
	}
	return false
}

// Patterns returns the source patterns.
func (m *URLMatcher) Patterns() []string {
	return append([]string(nil), m.sources...)
}
