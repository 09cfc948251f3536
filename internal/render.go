package internal

import (
	"bytes"
	"embed"
	"errors"
	"fmt"
	"html"
	"io"
	"io/fs"
	"net/url"
	"os"
	"path"
	"sort"
	"strconv"
	"strings"
	"sync/atomic"

	"go.uber.org/zap"
)

//go:embed templates/*.html templates/stylesheet.css
var defaultTemplates embed.FS

// Placeholder keys, substituted as @KEY@.
const (
	KeyTitle       = "TITLE"
	KeyPageTitle   = "PAGE_TITLE"
	KeyContent     = "CONTENT"
	KeyEditLink    = "EDIT_LINK"
	KeySaveLink    = "SAVE_LINK"
	KeyStylesheets = "STYLESHEETS"
)

const (
	StylesheetFile   = "stylesheet.css"
	NotFoundMessage  = "This page does not exist"
	readOnlyStyleTag = "<style>.edit { display:none; }</style>"
)

var templateNames = []string{"view", "edit", "search", "notfound"}

// RenderContext maps placeholder keys to their replacement text.
type RenderContext map[string]string

// Substitute replaces every @KEY@ token of ctx in tmpl in a single pass.
// Unknown tokens are left as they are.
func Substitute(tmpl []byte, ctx RenderContext) []byte {
	keys := make([]string, 0, len(ctx))
	for k := range ctx {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	pairs := make([]string, 0, len(keys)*2)
	for _, k := range keys {
		pairs = append(pairs, "@"+k+"@", ctx[k])
	}
	return []byte(strings.NewReplacer(pairs...).Replace(string(tmpl)))
}

// Page is everything the renderer needs for one response.
type Page struct {
	Intent PageIntent
	Path   DocumentPath
	// Content is an HTML fragment, except for edit and create where it is
	// the document source and gets escaped.
	Content  string
	Meta     PageMeta
	ReadOnly bool
}

type templateSet struct {
	pages      map[string][]byte
	stylesheet []byte
}

// Renderer composes pages from static chrome templates. Templates come
// from the data directory when present there, otherwise from the
// embedded defaults.
type Renderer struct {
	set atomic.Pointer[templateSet]

	dataDir     string
	siteTitle   string
	stylesheets []DocumentPath
	highlight   func(io.Writer) error
	logger      *zap.Logger
}

type RendererOption func(*Renderer)

func WithDataDir(dir string) RendererOption {
	return func(r *Renderer) {
		r.dataDir = dir
	}
}

func WithSiteTitle(title string) RendererOption {
	return func(r *Renderer) {
		r.siteTitle = title
	}
}

// WithStylesheets links repository documents instead of the built-in
// stylesheet.
func WithStylesheets(paths []DocumentPath) RendererOption {
	return func(r *Renderer) {
		r.stylesheets = paths
	}
}

// WithHighlightCSS appends the code highlighting classes of c to the
// built-in stylesheet.
func WithHighlightCSS(c *MarkdownConverter) RendererOption {
	return func(r *Renderer) {
		r.highlight = c.HighlightCSS
	}
}

func WithRendererLogger(l *zap.Logger) RendererOption {
	return func(r *Renderer) {
		r.logger = l
	}
}

func NewRenderer(opts ...RendererOption) (*Renderer, error) {
	r := &Renderer{
		siteTitle: DefaultTitle,
		logger:    zap.NewNop(),
	}
	for _, opt := range opts {
		opt(r)
	}

	if err := r.Reload(); err != nil {
		return nil, err
	}
	return r, nil
}

func (r *Renderer) DataDir() string {
	return r.dataDir
}

// Reload reads all templates again and swaps them in at once. On error
// the current set stays in use.
func (r *Renderer) Reload() error {
	set, err := r.load()
	if err != nil {
		return err
	}
	r.set.Store(set)
	r.logger.Debug("templates loaded", zap.String("data_dir", r.dataDir))
	return nil
}

func (r *Renderer) load() (*templateSet, error) {
	set := &templateSet{pages: make(map[string][]byte, len(templateNames))}
	for _, name := range templateNames {
		data, err := r.readAsset(name + ".html")
		if err != nil {
			return nil, fmt.Errorf("load template %s: %w", name, err)
		}
		set.pages[name] = data
	}

	css, err := r.readAsset(StylesheetFile)
	if err != nil {
		return nil, fmt.Errorf("load stylesheet: %w", err)
	}
	if r.highlight != nil {
		buf := bytes.NewBuffer(css)
		buf.WriteString("\n")
		if err := r.highlight(buf); err != nil {
			return nil, fmt.Errorf("write highlight css: %w", err)
		}
		css = buf.Bytes()
	}
	set.stylesheet = css
	return set, nil
}

func (r *Renderer) readAsset(name string) ([]byte, error) {
	if r.dataDir != "" {
		data, err := fs.ReadFile(os.DirFS(r.dataDir), name)
		if err == nil {
			return data, nil
		}
		if !errors.Is(err, fs.ErrNotExist) {
			return nil, err
		}
	}
	return fs.ReadFile(defaultTemplates, path.Join("templates", name))
}

// Stylesheet returns the built-in stylesheet served for ?stylesheet.
func (r *Renderer) Stylesheet() []byte {
	return r.set.Load().stylesheet
}

// Render selects the template for the page intent and fills it in.
func (r *Renderer) Render(page Page) ([]byte, error) {
	name, err := templateName(page.Intent)
	if err != nil {
		return nil, err
	}
	tmpl := r.set.Load().pages[name]

	return Substitute(tmpl, r.renderContext(page)), nil
}

func templateName(intent PageIntent) (string, error) {
	switch intent {
	case IntentView:
		return "view", nil
	case IntentEdit, IntentCreate:
		return "edit", nil
	case IntentSearch:
		return "search", nil
	case IntentNotFound:
		return "notfound", nil
	case IntentRaw, IntentStylesheet:
		return "", fmt.Errorf("intent %s is served without a template", intent)
	default:
		return "", fmt.Errorf("unknown intent %d", intent)
	}
}

func (r *Renderer) renderContext(page Page) RenderContext {
	site := html.EscapeString(r.siteTitle)
	title, pageTitle := site, site
	if t := page.Meta.Title(); t != "" {
		title = html.EscapeString(t)
		pageTitle = title + " - " + site
	}

	link := documentLink(page.Path)
	editLink := link + "?" + QueryEdit
	if page.Intent == IntentNotFound {
		editLink = link + "?" + QueryCreate
	}

	content := page.Content
	switch page.Intent {
	case IntentEdit, IntentCreate:
		content = html.EscapeString(content)
	case IntentNotFound:
		if content == "" {
			content = NotFoundMessage
		}
	}

	return RenderContext{
		KeyTitle:       title,
		KeyPageTitle:   pageTitle,
		KeyContent:     content,
		KeyEditLink:    html.EscapeString(editLink),
		KeySaveLink:    html.EscapeString(link),
		KeyStylesheets: r.stylesheetLinks(page.ReadOnly),
	}
}

func (r *Renderer) stylesheetLinks(readOnly bool) string {
	var b strings.Builder
	if readOnly {
		b.WriteString(readOnlyStyleTag)
	}

	hrefs := []string{"/?" + QueryStylesheet}
	if len(r.stylesheets) > 0 {
		hrefs = hrefs[:0]
		for _, p := range r.stylesheets {
			hrefs = append(hrefs, documentLink(p))
		}
	}
	for _, href := range hrefs {
		fmt.Fprintf(&b, `<link rel="stylesheet" type="text/css" href="%s" />`, html.EscapeString(href))
	}
	return b.String()
}

// documentLink is the escaped absolute URL path of p.
func documentLink(p DocumentPath) string {
	return (&url.URL{Path: "/" + p.String()}).EscapedPath()
}

// SearchContent renders search results as an HTML fragment, one link and
// matched line per result.
func SearchContent(term string, results []SearchResult) string {
	var b strings.Builder
	if len(results) == 0 {
		fmt.Fprintf(&b, "<p>No results for: %s</p>\n", html.EscapeString(term))
		return b.String()
	}

	fmt.Fprintf(&b, "<p>Search results for: %s</p>\n", html.EscapeString(term))
	for _, res := range results {
		link := html.EscapeString(documentLink(res.Filename))
		name := html.EscapeString(res.Filename.String())
		b.WriteString(`<div class="search-result">`)
		fmt.Fprintf(&b, `<a href="%s">%s</a>:<span class="lineno">%s</span>`, link, name, strconv.Itoa(res.LineNumber))
		fmt.Fprintf(&b, `<div class="line">%s</div>`, html.EscapeString(res.MatchedLine))
		b.WriteString("</div>\n")
	}
	return b.String()
}
