package internal

import (
	"testing"
)

func TestIgnoreMatcherEmpty(t *testing.T) {
	m := NewIgnoreMatcher(nil)

	if m.Match("anything/goes.md") {
		t.Error("empty ignore should not match anything")
	}
}

func TestIgnoreMatcherExactPattern(t *testing.T) {
	m := NewIgnoreMatcher([]string{"secret.md"})

	if !m.Match("secret.md") {
		t.Error("expected 'secret.md' to be ignored")
	}
	if !m.Match("nested/secret.md") {
		t.Error("expected 'nested/secret.md' to be ignored")
	}
	if m.Match("public.md") {
		t.Error("expected 'public.md' to not be ignored")
	}
}

func TestIgnoreMatcherGlobPattern(t *testing.T) {
	m := NewIgnoreMatcher([]string{"*.tmp"})

	if !m.Match("scratch.tmp") {
		t.Error("expected 'scratch.tmp' to be ignored")
	}
	if m.Match("notes.md") {
		t.Error("expected 'notes.md' to not be ignored")
	}
}

func TestIgnoreMatcherDirectoryPattern(t *testing.T) {
	m := NewIgnoreMatcher([]string{"drafts/"})

	if !m.Match("drafts/plan.md") {
		t.Error("expected files under 'drafts/' to be ignored")
	}
	if m.Match("drafts.md") {
		t.Error("expected 'drafts.md' to not be ignored")
	}
}

func TestIgnoreMatcherNegation(t *testing.T) {
	m := NewIgnoreMatcher([]string{"*.txt", "!keep.txt"})

	if !m.Match("drop.txt") {
		t.Error("expected 'drop.txt' to be ignored")
	}
	if m.Match("keep.txt") {
		t.Error("expected 'keep.txt' to be re-included")
	}
}

func TestParseIgnorePatternsSkipsComments(t *testing.T) {
	lines := ParseIgnorePatterns([]byte("# assets\n\nimages/\n*.png\n"))
	m := NewIgnoreMatcher(lines)

	if !m.Match("images/logo.svg") {
		t.Error("expected 'images/logo.svg' to be ignored")
	}
	if !m.Match("diagram.png") {
		t.Error("expected 'diagram.png' to be ignored")
	}
	if m.Match("index.md") {
		t.Error("expected 'index.md' to not be ignored")
	}
}
