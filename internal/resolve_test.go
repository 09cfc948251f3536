package internal

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestResolve(t *testing.T) {
	tests := []struct {
		name     string
		path     string
		query    string
		wantPath DocumentPath
		want     PageIntent
		term     string
	}{
		{"root", "/", "", "index.md", IntentView, ""},
		{"empty", "", "", "index.md", IntentView, ""},
		{"document", "/notes/plan.md", "", "notes/plan.md", IntentView, ""},
		{"edit", "/notes/plan.md", "edit", "notes/plan.md", IntentEdit, ""},
		{"create", "/missing.md", "create", "missing.md", IntentCreate, ""},
		{"raw", "/a.md", "raw", "a.md", IntentRaw, ""},
		{"stylesheet", "/", "stylesheet", "index.md", IntentStylesheet, ""},
		{"search", "/", "search=todo", "index.md", IntentSearch, "todo"},
		{"search escaped", "/", "search=hello+world%21", "index.md", IntentSearch, "hello world!"},
		{"empty search", "/", "search=", "index.md", IntentSearch, ""},
		{"directory", "/notes/", "", "notes/index.md", IntentView, ""},
		{"stylesheet beats raw", "/a.md", "raw&stylesheet", "a.md", IntentStylesheet, ""},
		{"raw beats edit", "/a.md", "edit&raw", "a.md", IntentRaw, ""},
		{"edit beats search", "/a.md", "search=x&edit", "a.md", IntentEdit, ""},
		{"search beats create", "/a.md", "create&search=x", "a.md", IntentSearch, "x"},
		{"unknown query", "/a.md", "foo=bar", "a.md", IntentView, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, intent, params, err := Resolve(tt.path, tt.query, "index.md")
			if err != nil {
				t.Fatalf("resolve: %v", err)
			}
			assert.Equal(t, tt.wantPath, p)
			assert.Equal(t, tt.want, intent)
			assert.Equal(t, tt.term, params.Term)
		})
	}
}

func TestResolveRejectsInvalidPaths(t *testing.T) {
	for _, raw := range []string{
		"/../etc/passwd",
		"/notes/../../secret",
		"/a//b.md",
		"/./a.md",
		"/.git/config",
		"/docs/.GIT/HEAD",
		"//abs.md",
		"/back\\slash.md",
	} {
		t.Run(raw, func(t *testing.T) {
			_, _, _, err := Resolve(raw, "edit", "index.md")
			if !errors.Is(err, ErrInvalidPath) {
				t.Errorf("expected ErrInvalidPath, got %v", err)
			}
		})
	}
}

func TestNewDocumentPath(t *testing.T) {
	p, err := NewDocumentPath("Notes/Plan.MD")
	if err != nil {
		t.Fatalf("new path: %v", err)
	}
	assert.Equal(t, ".md", p.Ext())

	_, err = NewDocumentPath("")
	assert.ErrorIs(t, err, ErrInvalidPath)
}

func TestPageIntentString(t *testing.T) {
	assert.Equal(t, "view", IntentView.String())
	assert.Equal(t, "notfound", IntentNotFound.String())
	assert.Equal(t, "unknown", PageIntent(42).String())
}
