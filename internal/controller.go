package internal

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
)

// Form fields of the edit form.
const (
	FieldContent       = "textarea"
	FieldCommitMessage = "commitMessage"
)

// PageStore is the revision store as seen by the page controller.
type PageStore interface {
	DocumentReader
	SearchAtHead(ctx context.Context, pattern string, caseInsensitive bool) ([]SearchResult, error)
	Commit(ctx context.Context, p DocumentPath, content []byte, meta CommitMetadata) (*Revision, error)
	IsReadOnly() bool
}

// Controller serves wiki pages over HTTP: GET resolves, fetches and
// renders; POST commits the submitted source and answers like a GET.
type Controller struct {
	cfg      *Config
	store    PageStore
	pipeline *ContentPipeline
	renderer *Renderer

	logger  *zap.Logger
	metrics *Metrics
}

type ControllerOption func(*Controller)

func WithControllerLogger(l *zap.Logger) ControllerOption {
	return func(c *Controller) {
		c.logger = l
	}
}

func WithControllerMetrics(m *Metrics) ControllerOption {
	return func(c *Controller) {
		c.metrics = m
	}
}

func NewController(cfg *Config, store PageStore, pipeline *ContentPipeline, renderer *Renderer, opts ...ControllerOption) *Controller {
	c := &Controller{
		cfg:      cfg,
		store:    store,
		pipeline: pipeline,
		renderer: renderer,
		logger:   zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Controller) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(c.requestLogger)
	r.Use(middleware.Recoverer)

	r.Get("/*", c.handleGet)
	r.Post("/*", c.handlePost)
	return r
}

func (c *Controller) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		started := time.Now()
		next.ServeHTTP(ww, r)
		c.logger.Info("request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.String("query", r.URL.RawQuery),
			zap.Int("status", ww.Status()),
			zap.Int("bytes", ww.BytesWritten()),
			zap.Duration("duration", time.Since(started)),
			zap.String("request_id", middleware.GetReqID(r.Context())),
		)
	})
}

func (c *Controller) handleGet(w http.ResponseWriter, r *http.Request) {
	p, intent, params, err := Resolve(r.URL.Path, r.URL.RawQuery, c.cfg.DefaultDocument())
	if err != nil {
		c.forbidden(w, r, IntentNotFound, err)
		return
	}
	c.serve(w, r, p, intent, params)
}

func (c *Controller) serve(w http.ResponseWriter, r *http.Request, p DocumentPath, intent PageIntent, params Params) {
	readOnly := c.store.IsReadOnly()
	if readOnly && (intent == IntentEdit || intent == IntentCreate) {
		intent = IntentView
	}

	switch intent {
	case IntentStylesheet:
		c.write(w, r, intent, MediaTypeCSS, c.renderer.Stylesheet())
	case IntentSearch:
		c.serveSearch(w, r, p, params.Term, readOnly)
	case IntentCreate, IntentNotFound:
		c.render(w, r, Page{Intent: intent, Path: p, ReadOnly: readOnly})
	case IntentView, IntentEdit, IntentRaw:
		c.serveDocument(w, r, p, intent, readOnly)
	default:
		c.render(w, r, Page{Intent: IntentNotFound, Path: p, ReadOnly: readOnly})
	}
}

func (c *Controller) serveDocument(w http.ResponseWriter, r *http.Request, p DocumentPath, intent PageIntent, readOnly bool) {
	doc, err := c.pipeline.Fetch(r.Context(), p, intent)
	if err != nil {
		if intent == IntentEdit {
			c.render(w, r, Page{Intent: IntentEdit, Path: p, ReadOnly: readOnly})
			return
		}
		c.render(w, r, Page{Intent: IntentNotFound, Path: p, ReadOnly: readOnly})
		return
	}

	switch {
	case intent == IntentRaw:
		c.write(w, r, intent, doc.MediaType, doc.Raw)
	case intent == IntentEdit && doc.IsText():
		c.render(w, r, Page{Intent: IntentEdit, Path: p, Content: string(doc.Raw), ReadOnly: readOnly})
	case intent == IntentView && doc.IsMarkdown:
		c.render(w, r, Page{Intent: IntentView, Path: p, Content: doc.HTML, Meta: doc.Meta, ReadOnly: readOnly})
	default:
		c.write(w, r, intent, doc.MediaType, doc.Raw)
	}
}

func (c *Controller) serveSearch(w http.ResponseWriter, r *http.Request, p DocumentPath, term string, readOnly bool) {
	results, err := c.store.SearchAtHead(r.Context(), term, true)
	if err != nil {
		c.logger.Warn("search failed", zap.String("term", term), zap.Error(err))
		results = nil
	}
	c.render(w, r, Page{
		Intent:   IntentSearch,
		Path:     p,
		Content:  SearchContent(term, results),
		ReadOnly: readOnly,
	})
}

func (c *Controller) handlePost(w http.ResponseWriter, r *http.Request) {
	p, intent, _, err := Resolve(r.URL.Path, r.URL.RawQuery, c.cfg.DefaultDocument())
	if err != nil {
		c.forbidden(w, r, IntentNotFound, err)
		return
	}

	switch intent {
	case IntentRaw, IntentStylesheet, IntentSearch:
		c.forbidden(w, r, intent, fmt.Errorf("%s is not editable", intent))
		return
	}
	if c.store.IsReadOnly() {
		c.forbidden(w, r, intent, ErrReadOnlyStore)
		return
	}

	maxBytes := c.cfg.Wiki.MaxUploadBytes
	r.Body = http.MaxBytesReader(w, r.Body, maxBytes)
	if err := r.ParseMultipartForm(maxBytes); err != nil && !errors.Is(err, http.ErrNotMultipart) {
		c.forbidden(w, r, intent, fmt.Errorf("decode form: %w", err))
		return
	}

	content := normalizeNewlines(r.PostFormValue(FieldContent))
	meta := c.cfg.CommitMetadata(r.PostFormValue(FieldCommitMessage))

	if _, err := c.store.Commit(r.Context(), p, []byte(content), meta); err != nil {
		c.forbidden(w, r, intent, err)
		return
	}

	c.serve(w, r, p, IntentView, Params{})
}

func (c *Controller) render(w http.ResponseWriter, r *http.Request, page Page) {
	body, err := c.renderer.Render(page)
	if err != nil {
		c.logger.Error("render page", zap.String("path", page.Path.String()), zap.Error(err))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		c.metrics.observeRequest(r.Method, page.Intent, http.StatusInternalServerError)
		return
	}
	c.write(w, r, page.Intent, MediaTypeHTML, body)
}

func (c *Controller) write(w http.ResponseWriter, r *http.Request, intent PageIntent, mediaType string, body []byte) {
	w.Header().Set("Content-Type", mediaType)
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(body); err != nil {
		c.logger.Debug("write response", zap.Error(err))
	}
	c.metrics.observeRequest(r.Method, intent, http.StatusOK)
}

func (c *Controller) forbidden(w http.ResponseWriter, r *http.Request, intent PageIntent, err error) {
	c.logger.Warn("request rejected",
		zap.String("method", r.Method),
		zap.String("path", r.URL.Path),
		zap.Error(err),
	)
	w.WriteHeader(http.StatusForbidden)
	c.metrics.observeRequest(r.Method, intent, http.StatusForbidden)
}

func normalizeNewlines(s string) string {
	s = strings.ReplaceAll(s, "\r\n", "\n")
	return strings.ReplaceAll(s, "\r", "\n")
}
