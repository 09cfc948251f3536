package v1

import (
	"context"
	"fmt"

	"github.com/4thel00z/gitwiki/internal"
)

// Client provides programmatic access to a wiki repository.
type Client struct {
	store         *internal.RevisionStore
	pipeline      *internal.ContentPipeline
	meta          internal.CommitMetadata
	caseSensitive bool
}

// Open opens the wiki repository at root, creating it when missing.
func Open(root string, opts ...Option) (*Client, error) {
	cfg := &clientConfig{
		authorName:  internal.DefaultAuthor,
		authorEmail: internal.DefaultEmail,
	}
	for _, opt := range opts {
		opt(cfg)
	}

	store, err := internal.OpenStore(root, internal.WithSearchExclude(cfg.exclude))
	if err != nil {
		return nil, fmt.Errorf("open wiki: %w", err)
	}

	converter := internal.NewMarkdownConverter(internal.WithRawHTML(cfg.rawHTML))
	return &Client{
		store:    store,
		pipeline: internal.NewContentPipeline(store, converter, nil),
		meta: internal.CommitMetadata{
			AuthorName:     cfg.authorName,
			AuthorEmail:    cfg.authorEmail,
			CommitterName:  cfg.authorName,
			CommitterEmail: cfg.authorEmail,
		},
		caseSensitive: cfg.caseSensitive,
	}, nil
}

// ReadOnly reports whether Save is unavailable.
func (c *Client) ReadOnly() bool {
	return c.store.IsReadOnly()
}

// Get returns the committed bytes of path.
func (c *Client) Get(ctx context.Context, path string) ([]byte, error) {
	p, err := internal.NewDocumentPath(path)
	if err != nil {
		return nil, fmt.Errorf("get %q: %w", path, err)
	}
	return c.store.ReadAtHead(ctx, p)
}

// Render returns path converted to HTML. Documents that are not markdown
// come back with an empty HTML field.
func (c *Client) Render(ctx context.Context, path string) (*Page, error) {
	p, err := internal.NewDocumentPath(path)
	if err != nil {
		return nil, fmt.Errorf("render %q: %w", path, err)
	}

	doc, err := c.pipeline.Fetch(ctx, p, internal.IntentView)
	if err != nil {
		return nil, err
	}
	return &Page{
		Path:      path,
		Title:     doc.Meta.Title(),
		MediaType: doc.MediaType,
		HTML:      doc.HTML,
		Meta:      doc.Meta,
	}, nil
}

// Search matches term against every tracked text file at head.
func (c *Client) Search(ctx context.Context, term string) ([]SearchResult, error) {
	results, err := c.store.SearchAtHead(ctx, term, !c.caseSensitive)
	if err != nil {
		return nil, fmt.Errorf("search: %w", err)
	}

	out := make([]SearchResult, 0, len(results))
	for _, r := range results {
		out = append(out, SearchResult{
			Path: r.Filename.String(),
			Line: r.LineNumber,
			Text: r.MatchedLine,
		})
	}
	return out, nil
}

// Save commits content to path. An empty message records the default
// commit message.
func (c *Client) Save(ctx context.Context, path string, content []byte, message string) (*Commit, error) {
	p, err := internal.NewDocumentPath(path)
	if err != nil {
		return nil, fmt.Errorf("save %q: %w", path, err)
	}

	meta := c.meta
	meta.Message = message
	rev, err := c.store.Commit(ctx, p, content, meta)
	if err != nil {
		return nil, fmt.Errorf("save %q: %w", path, err)
	}
	return toCommit(rev), nil
}

// Head describes the latest revision.
func (c *Client) Head(ctx context.Context) (*Commit, error) {
	rev, err := c.store.HeadRevision(ctx)
	if err != nil {
		return nil, err
	}
	return toCommit(rev), nil
}

// Close releases any resources held by the client.
func (c *Client) Close() error {
	return nil
}

func toCommit(rev *internal.Revision) *Commit {
	return &Commit{Hash: rev.Hash, Message: rev.Message, Author: rev.Author}
}

// Errors returned by the client, usable with errors.Is.
var (
	ErrNotFound    = internal.ErrNotFound
	ErrInvalidPath = internal.ErrInvalidPath
	ErrReadOnly    = internal.ErrReadOnlyStore
)
