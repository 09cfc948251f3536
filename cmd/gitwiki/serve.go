package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/4thel00z/gitwiki/internal"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const shutdownTimeout = 5 * time.Second

func NewServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the wiki over HTTP",
		Long: `Serve the wiki. Pages are read from the head revision and every
save through the edit form becomes a commit.`,
		Args: cobra.NoArgs,
		RunE: runServe,
	}

	cmd.Flags().String("addr", "", "Listen address (default from config Host:Port)")
	cmd.Flags().String("data-dir", "", "Directory with template overrides")
	cmd.Flags().String("metrics-addr", "", "Serve prometheus metrics on this address")
	cmd.Flags().Bool("watch", false, "Reload templates when the data directory changes")
	cmd.Flags().Duration("reload-delay", internal.DefaultReloadDelay, "Debounce window for template reloads")
	return cmd
}

type serveOptions struct {
	addr        string
	metricsAddr string
	watch       bool
	reloadDelay time.Duration
}

func runServe(cmd *cobra.Command, _ []string) error {
	a, err := loadApp(cmd, internal.LogLevelInfo)
	if err != nil {
		return err
	}
	defer func() { _ = a.logger.Sync() }()

	opts := serveOptions{addr: a.cfg.Addr()}
	if addr, _ := cmd.Flags().GetString("addr"); addr != "" {
		opts.addr = addr
	}
	if dataDir, _ := cmd.Flags().GetString("data-dir"); dataDir != "" {
		a.cfg.Wiki.DataDir = dataDir
	}
	opts.metricsAddr, _ = cmd.Flags().GetString("metrics-addr")
	opts.watch, _ = cmd.Flags().GetBool("watch")
	opts.reloadDelay, _ = cmd.Flags().GetDuration("reload-delay")

	metrics := internal.NewMetrics()
	store, err := a.openStore(internal.WithStoreMetrics(metrics))
	if err != nil {
		return err
	}

	renderer, handler, err := buildHandler(a, store, metrics)
	if err != nil {
		return err
	}

	return serve(cmd.Context(), a.logger, opts, handler, metrics, renderer)
}

// buildHandler wires the page controller for store.
func buildHandler(a *app, store *internal.RevisionStore, metrics *internal.Metrics) (*internal.Renderer, http.Handler, error) {
	converter := a.converter()

	stylesheets := make([]internal.DocumentPath, 0, len(a.cfg.Wiki.Stylesheets))
	for _, s := range a.cfg.Wiki.Stylesheets {
		stylesheets = append(stylesheets, internal.DocumentPath(s))
	}

	renderer, err := internal.NewRenderer(
		internal.WithDataDir(a.cfg.Wiki.DataDir),
		internal.WithSiteTitle(a.cfg.Wiki.Title),
		internal.WithStylesheets(stylesheets),
		internal.WithHighlightCSS(converter),
		internal.WithRendererLogger(a.logger),
	)
	if err != nil {
		return nil, nil, fmt.Errorf("load templates: %w", err)
	}

	pipeline := internal.NewContentPipeline(store, converter, a.logger)
	controller := internal.NewController(a.cfg, store, pipeline, renderer,
		internal.WithControllerLogger(a.logger),
		internal.WithControllerMetrics(metrics),
	)
	return renderer, controller.Routes(), nil
}

func serve(ctx context.Context, logger *zap.Logger, opts serveOptions, handler http.Handler, metrics *internal.Metrics, renderer *internal.Renderer) error {
	g, ctx := errgroup.WithContext(ctx)

	servers := []*http.Server{{Addr: opts.addr, Handler: handler, ReadHeaderTimeout: 10 * time.Second}}
	if opts.metricsAddr != "" {
		mux := http.NewServeMux()
		mux.Handle("/metrics", metrics.Handler())
		servers = append(servers, &http.Server{Addr: opts.metricsAddr, Handler: mux, ReadHeaderTimeout: 10 * time.Second})
	}

	for _, srv := range servers {
		g.Go(func() error {
			logger.Info("listening", zap.String("addr", srv.Addr))
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("serve %s: %w", srv.Addr, err)
			}
			return nil
		})
	}

	switch {
	case opts.watch && renderer.DataDir() == "":
		logger.Warn("--watch needs a data directory, templates will not reload")
	case opts.watch:
		g.Go(func() error {
			return internal.WatchTemplates(ctx, renderer.DataDir(), renderer, opts.reloadDelay, logger)
		})
	}

	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		var errs []error
		for _, srv := range servers {
			if err := srv.Shutdown(shutdownCtx); err != nil {
				errs = append(errs, fmt.Errorf("shutdown %s: %w", srv.Addr, err))
			}
		}
		return errors.Join(errs...)
	})

	return g.Wait()
}
