package internal

import (
	"bytes"
	"fmt"
	"html"
	"io"

	"github.com/alecthomas/chroma/v2"
	chromahtml "github.com/alecthomas/chroma/v2/formatters/html"
	"github.com/alecthomas/chroma/v2/lexers"
	"github.com/alecthomas/chroma/v2/styles"
	"github.com/microcosm-cc/bluemonday"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/renderer"
	gmhtml "github.com/yuin/goldmark/renderer/html"
	"github.com/yuin/goldmark/util"
)

const DefaultHighlightStyle = "github"

// MarkdownConverter turns markdown source into an HTML fragment. Fenced
// code blocks are highlighted with CSS classes, see HighlightCSS.
type MarkdownConverter struct {
	md        goldmark.Markdown
	sanitizer *bluemonday.Policy
	code      *codeBlockRenderer
}

type MarkdownOption func(*markdownOptions)

type markdownOptions struct {
	allowRawHTML bool
	style        string
}

// WithRawHTML passes inline HTML through, sanitized by a UGC policy.
func WithRawHTML(allow bool) MarkdownOption {
	return func(o *markdownOptions) {
		o.allowRawHTML = allow
	}
}

func WithHighlightStyle(name string) MarkdownOption {
	return func(o *markdownOptions) {
		o.style = name
	}
}

func NewMarkdownConverter(opts ...MarkdownOption) *MarkdownConverter {
	o := markdownOptions{style: DefaultHighlightStyle}
	for _, opt := range opts {
		opt(&o)
	}

	code := newCodeBlockRenderer(o.style)
	rendererOpts := []renderer.Option{
		renderer.WithNodeRenderers(util.Prioritized(code, 200)),
	}

	c := &MarkdownConverter{code: code}
	if o.allowRawHTML {
		rendererOpts = append(rendererOpts, gmhtml.WithUnsafe())

		policy := bluemonday.UGCPolicy()
		policy.AllowAttrs("class").Globally()
		c.sanitizer = policy
	}

	c.md = goldmark.New(
		goldmark.WithExtensions(extension.GFM),
		goldmark.WithParserOptions(parser.WithAutoHeadingID()),
		goldmark.WithRendererOptions(rendererOpts...),
	)
	return c
}

// Convert strips leading metadata and renders the remaining body.
func (c *MarkdownConverter) Convert(src []byte) (string, PageMeta, error) {
	meta, body := ParseFrontmatter(src)

	var buf bytes.Buffer
	if err := c.md.Convert(body, &buf); err != nil {
		return "", nil, fmt.Errorf("convert markdown: %w", err)
	}

	out := buf.Bytes()
	if c.sanitizer != nil {
		out = c.sanitizer.SanitizeBytes(out)
	}
	return string(out), meta, nil
}

// HighlightCSS writes the class definitions used by highlighted code.
func (c *MarkdownConverter) HighlightCSS(w io.Writer) error {
	return c.code.formatter.WriteCSS(w, c.code.style)
}

type codeBlockRenderer struct {
	formatter *chromahtml.Formatter
	style     *chroma.Style
}

func newCodeBlockRenderer(styleName string) *codeBlockRenderer {
	return &codeBlockRenderer{
		formatter: chromahtml.New(chromahtml.WithClasses(true)),
		style:     styles.Get(styleName),
	}
}

func (r *codeBlockRenderer) RegisterFuncs(reg renderer.NodeRendererFuncRegisterer) {
	reg.Register(ast.KindFencedCodeBlock, r.renderFencedCodeBlock)
}

func (r *codeBlockRenderer) renderFencedCodeBlock(w util.BufWriter, source []byte, node ast.Node, entering bool) (ast.WalkStatus, error) {
	if !entering {
		return ast.WalkContinue, nil
	}
	n := node.(*ast.FencedCodeBlock)

	var code bytes.Buffer
	lines := n.Lines()
	for i := 0; i < lines.Len(); i++ {
		seg := lines.At(i)
		code.Write(seg.Value(source))
	}

	var lexer chroma.Lexer
	if lang := n.Language(source); lang != nil {
		lexer = lexers.Get(string(lang))
	}
	if lexer == nil {
		lexer = lexers.Fallback
	}

	iterator, err := chroma.Coalesce(lexer).Tokenise(nil, code.String())
	if err == nil {
		err = r.formatter.Format(w, r.style, iterator)
	}
	if err != nil {
		_, _ = w.WriteString("<pre><code>")
		_, _ = w.WriteString(html.EscapeString(code.String()))
		_, _ = w.WriteString("</code></pre>\n")
	}
	return ast.WalkSkipChildren, nil
}
