package internal

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRenderer(t *testing.T, opts ...RendererOption) *Renderer {
	t.Helper()
	r, err := NewRenderer(opts...)
	require.NoError(t, err, "new renderer")
	return r
}

func TestSubstitute(t *testing.T) {
	out := Substitute([]byte("<h1>@TITLE@</h1>@CONTENT@ @UNKNOWN@"), RenderContext{
		KeyTitle:   "Wiki",
		KeyContent: "<p>@TITLE@</p>",
	})

	assert.Equal(t, "<h1>Wiki</h1><p>@TITLE@</p> @UNKNOWN@", string(out))
}

func TestRenderView(t *testing.T) {
	r := newTestRenderer(t, WithSiteTitle("Team"))

	out, err := r.Render(Page{
		Intent:  IntentView,
		Path:    "notes/plan.md",
		Content: "<p>hello</p>",
		Meta:    PageMeta{MetaTitle: "Plan"},
	})
	require.NoError(t, err)

	doc := parseFragment(t, string(out))
	assert.Equal(t, "Plan - Team", doc.Find("title").Text())
	assert.Equal(t, "Plan", doc.Find("h1.title").Text())
	assert.Equal(t, "/notes/plan.md?edit", doc.Find("a.edit").AttrOr("href", ""))
	assert.Equal(t, "hello", doc.Find("main p").Text())
	assert.Equal(t, "/?stylesheet", doc.Find("link[rel=stylesheet]").AttrOr("href", ""))
	assert.Equal(t, 0, doc.Find("style").Length())
	assert.NotContains(t, string(out), "@")
}

func TestRenderEditEscapesSource(t *testing.T) {
	r := newTestRenderer(t)

	out, err := r.Render(Page{
		Intent:  IntentEdit,
		Path:    "index.md",
		Content: "<script>x</script> & more",
	})
	require.NoError(t, err)

	doc := parseFragment(t, string(out))
	assert.Equal(t, "<script>x</script> & more", doc.Find("textarea").Text())
	assert.Equal(t, "/index.md", doc.Find("form.edit").AttrOr("action", ""))
	assert.Equal(t, DefaultTitle, doc.Find("h1.title").Text())
}

func TestRenderNotFoundLinksCreate(t *testing.T) {
	r := newTestRenderer(t)

	out, err := r.Render(Page{Intent: IntentNotFound, Path: "missing page.md"})
	require.NoError(t, err)

	doc := parseFragment(t, string(out))
	assert.Equal(t, "/missing%20page.md?create", doc.Find("a.edit").AttrOr("href", ""))
	assert.Contains(t, doc.Find("main").Text(), NotFoundMessage)
}

func TestRenderReadOnlyHidesEdit(t *testing.T) {
	r := newTestRenderer(t, WithStylesheets([]DocumentPath{"css/site.css"}))

	out, err := r.Render(Page{Intent: IntentView, Path: "index.md", ReadOnly: true})
	require.NoError(t, err)

	doc := parseFragment(t, string(out))
	assert.Contains(t, doc.Find("style").Text(), ".edit { display:none; }")
	assert.Equal(t, "/css/site.css", doc.Find("link[rel=stylesheet]").AttrOr("href", ""))
}

func TestRenderRejectsTemplatelessIntents(t *testing.T) {
	r := newTestRenderer(t)

	for _, intent := range []PageIntent{IntentRaw, IntentStylesheet, PageIntent(99)} {
		_, err := r.Render(Page{Intent: intent, Path: "index.md"})
		assert.Error(t, err, intent.String())
	}
}

func TestRenderIsDeterministic(t *testing.T) {
	r := newTestRenderer(t)
	page := Page{Intent: IntentEdit, Path: "index.md", Content: "# same"}

	first, err := r.Render(page)
	require.NoError(t, err)
	second, err := r.Render(page)
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

func TestSearchContent(t *testing.T) {
	out := SearchContent("todo", []SearchResult{
		{Filename: "a.md", LineNumber: 2, MatchedLine: "todo: <b>x</b>"},
		{Filename: "dir/b.md", LineNumber: 1, MatchedLine: "TODO: y"},
	})

	doc := parseFragment(t, out)
	links := doc.Find(".search-result a")
	require.Equal(t, 2, links.Length())
	assert.Equal(t, "/a.md", links.First().AttrOr("href", ""))
	assert.Equal(t, "/dir/b.md", links.Last().AttrOr("href", ""))
	assert.Equal(t, "todo: <b>x</b>", doc.Find(".search-result .line").First().Text())

	assert.Contains(t, SearchContent("nothing", nil), "No results for: nothing")
}

func TestRendererDataDirOverrideAndReload(t *testing.T) {
	dir := t.TempDir()
	viewPath := filepath.Join(dir, "view.html")
	if err := os.WriteFile(viewPath, []byte("v1 @CONTENT@"), 0644); err != nil {
		t.Fatalf("write template: %v", err)
	}

	r := newTestRenderer(t, WithDataDir(dir))

	out, err := r.Render(Page{Intent: IntentView, Path: "index.md", Content: "body"})
	require.NoError(t, err)
	assert.Equal(t, "v1 body", string(out))

	// templates missing from the data dir fall back to the defaults
	out, err = r.Render(Page{Intent: IntentEdit, Path: "index.md"})
	require.NoError(t, err)
	assert.Contains(t, string(out), "<textarea")

	if err := os.WriteFile(viewPath, []byte("v2 @CONTENT@"), 0644); err != nil {
		t.Fatalf("write template: %v", err)
	}
	require.NoError(t, r.Reload())

	out, err = r.Render(Page{Intent: IntentView, Path: "index.md", Content: "body"})
	require.NoError(t, err)
	assert.Equal(t, "v2 body", string(out))
}

func TestRendererStylesheetIncludesHighlighting(t *testing.T) {
	r := newTestRenderer(t, WithHighlightCSS(NewMarkdownConverter()))

	css := string(r.Stylesheet())
	assert.True(t, strings.HasPrefix(css, "body {"))
	assert.Contains(t, css, ".chroma")
}
