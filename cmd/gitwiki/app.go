package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/4thel00z/gitwiki/internal"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

type app struct {
	cfg        *internal.Config
	configPath string
	logger     *zap.Logger
}

// loadApp reads the configuration and builds the logger shared by all
// commands.
func loadApp(cmd *cobra.Command, defaultLevel string) (*app, error) {
	return buildApp(cmd, defaultLevel, false)
}

// buildApp with allowMissing accepts a --config path that does not exist
// yet and falls back to the defaults.
func buildApp(cmd *cobra.Command, defaultLevel string, allowMissing bool) (*app, error) {
	configPath, _ := cmd.Flags().GetString("config")
	if allowMissing && configPath != "" {
		if _, err := os.Stat(configPath); os.IsNotExist(err) {
			configPath = ""
		}
	}
	repository, _ := cmd.Flags().GetString("repository")
	level, _ := cmd.Flags().GetString("log-level")
	if !cmd.Flags().Changed("log-level") && defaultLevel != "" {
		level = defaultLevel
	}

	cfg, path, err := internal.NewConfigResolver().Load(configPath)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if repository != "" {
		cfg.Git.Repository = repository
	}

	logger, err := internal.NewLogger(level)
	if err != nil {
		return nil, fmt.Errorf("create logger: %w", err)
	}
	if path != "" {
		logger.Debug("configuration loaded", zap.String("path", path))
	}

	return &app{cfg: cfg, configPath: path, logger: logger}, nil
}

func (a *app) openStore(opts ...internal.StoreOption) (*internal.RevisionStore, error) {
	opts = append([]internal.StoreOption{
		internal.WithStoreLogger(a.logger),
		internal.WithSearchExclude(a.cfg.Wiki.SearchExclude),
	}, opts...)

	store, err := internal.OpenStore(a.cfg.RepositoryPath(), opts...)
	if err != nil {
		return nil, fmt.Errorf("open repository: %w", err)
	}
	return store, nil
}

func (a *app) converter() *internal.MarkdownConverter {
	return internal.NewMarkdownConverter(internal.WithRawHTML(a.cfg.Wiki.AllowRawHTML))
}

func outputJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
