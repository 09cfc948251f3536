package internal

import (
	"bufio"
	"bytes"
	"strings"

	"github.com/go-git/go-git/v5/plumbing/format/gitignore"
)

// IgnoreFilename lists gitignore-style patterns, read from the head
// revision, for paths excluded from search.
const IgnoreFilename DocumentPath = ".wikiignore"

type IgnoreMatcher struct {
	patterns []gitignore.Pattern
}

func NewIgnoreMatcher(lines []string) *IgnoreMatcher {
	m := &IgnoreMatcher{}
	for _, line := range lines {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		m.patterns = append(m.patterns, gitignore.ParsePattern(line, nil))
	}
	return m
}

// Match reports whether p or any of its parent directories is excluded.
// Later patterns take precedence, so a negated pattern can re-include.
func (m *IgnoreMatcher) Match(p DocumentPath) bool {
	if len(m.patterns) == 0 {
		return false
	}

	parts := strings.Split(p.String(), "/")
	for i := 1; i <= len(parts); i++ {
		if m.match(parts[:i], i < len(parts)) {
			return true
		}
	}
	return false
}

func (m *IgnoreMatcher) match(parts []string, isDir bool) bool {
	for i := len(m.patterns) - 1; i >= 0; i-- {
		switch m.patterns[i].Match(parts, isDir) {
		case gitignore.Exclude:
			return true
		case gitignore.Include:
			return false
		}
	}
	return false
}

func ParseIgnorePatterns(content []byte) []string {
	var lines []string
	scanner := bufio.NewScanner(bytes.NewReader(content))
	for scanner.Scan() {
		lines = append(lines, scanner.Text())
	}
	return lines
}
