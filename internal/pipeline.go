package internal

import (
	"context"
	"errors"
	"fmt"
	"mime"
	"strings"

	"go.uber.org/zap"
)

const (
	MediaTypeMarkdown = "text/markdown; charset=utf-8"
	MediaTypeText     = "text/plain; charset=utf-8"
	MediaTypeCSS      = "text/css; charset=utf-8"
	MediaTypeHTML     = "text/html; charset=utf-8"
)

var markdownExts = map[string]bool{
	"":          true,
	".md":       true,
	".markdown": true,
	".mkd":      true,
	".mdown":    true,
}

// DocumentReader reads committed document bytes.
type DocumentReader interface {
	ReadAtHead(ctx context.Context, p DocumentPath) ([]byte, error)
}

// Document is the fetched content of one page.
type Document struct {
	Path       DocumentPath
	MediaType  string
	Raw        []byte
	IsMarkdown bool

	// HTML and Meta are set for markdown documents fetched for viewing.
	HTML string
	Meta PageMeta
}

// IsText reports whether the document can be shown in an edit form.
func (d *Document) IsText() bool {
	return d.IsMarkdown || isTextMediaType(d.MediaType)
}

type ContentPipeline struct {
	reader    DocumentReader
	converter *MarkdownConverter
	logger    *zap.Logger
}

func NewContentPipeline(reader DocumentReader, converter *MarkdownConverter, logger *zap.Logger) *ContentPipeline {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ContentPipeline{reader: reader, converter: converter, logger: logger}
}

// Fetch loads p for the given intent. Read failures of any kind are
// reported as ErrNotFound so callers can degrade to the not-found page.
// NotFound, Create, Search and Stylesheet intents read nothing.
func (c *ContentPipeline) Fetch(ctx context.Context, p DocumentPath, intent PageIntent) (*Document, error) {
	mediaType, isMarkdown := ClassifyMediaType(p)
	doc := &Document{Path: p, MediaType: mediaType, IsMarkdown: isMarkdown}

	switch intent {
	case IntentNotFound, IntentCreate, IntentSearch, IntentStylesheet:
		return doc, nil
	case IntentView, IntentEdit, IntentRaw:
	default:
		return nil, fmt.Errorf("fetch %s: unknown intent %d", p, intent)
	}

	raw, err := c.reader.ReadAtHead(ctx, p)
	if err != nil {
		if !errors.Is(err, ErrNotFound) {
			c.logger.Debug("read degraded to not found", zap.String("path", p.String()), zap.Error(err))
			err = fmt.Errorf("%w: %v", ErrNotFound, err)
		}
		return nil, fmt.Errorf("fetch %s: %w", p, err)
	}
	doc.Raw = raw

	switch {
	case intent == IntentRaw:
		if doc.IsText() {
			doc.MediaType = MediaTypeText
		}
		doc.IsMarkdown = false
	case intent == IntentView && isMarkdown:
		html, meta, err := c.converter.Convert(raw)
		if err != nil {
			c.logger.Debug("render degraded to not found", zap.String("path", p.String()), zap.Error(err))
			return nil, fmt.Errorf("fetch %s: %w: %v", p, ErrNotFound, err)
		}
		doc.HTML = html
		doc.Meta = meta
	}
	return doc, nil
}

// ClassifyMediaType maps the extension of p to a media type. Markdown
// extensions and unknown extensions are treated as markdown.
func ClassifyMediaType(p DocumentPath) (string, bool) {
	ext := p.Ext()
	if markdownExts[ext] {
		return MediaTypeMarkdown, true
	}
	mediaType := mime.TypeByExtension(ext)
	if mediaType == "" || strings.HasPrefix(mediaType, "text/markdown") {
		return MediaTypeMarkdown, true
	}
	return mediaType, false
}

func isTextMediaType(mediaType string) bool {
	base, _, _ := strings.Cut(mediaType, ";")
	base = strings.TrimSpace(base)
	switch {
	case strings.HasPrefix(base, "text/"):
		return true
	case base == "application/json", base == "application/xml", base == "application/javascript",
		strings.HasSuffix(base, "+json"), strings.HasSuffix(base, "+xml"):
		return true
	}
	return false
}
