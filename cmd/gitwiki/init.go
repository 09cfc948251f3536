package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/4thel00z/gitwiki/internal"
	"github.com/spf13/cobra"
)

const welcomePage = `title: Welcome

# Welcome

This wiki is stored in a git repository. Use the edit link to change this
page, or append ?create to the address of a page that does not exist yet.
`

func NewInitCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "init [repository]",
		Short: "Initialize a wiki repository and config",
		Long: `Create the wiki repository with a first page and write an example
configuration file when none exists yet.`,
		Args: cobra.MaximumNArgs(1),
		RunE: runInit,
	}
}

func runInit(cmd *cobra.Command, args []string) error {
	a, err := buildApp(cmd, "", true)
	if err != nil {
		return err
	}
	if len(args) == 1 {
		a.cfg.Git.Repository = args[0]
	}

	repository, err := filepath.Abs(a.cfg.RepositoryPath())
	if err != nil {
		return fmt.Errorf("resolve repository path: %w", err)
	}
	a.cfg.Git.Repository = repository

	store, err := a.openStore()
	if err != nil {
		return err
	}

	_, err = store.HeadRevision(cmd.Context())
	switch {
	case errors.Is(err, internal.ErrNotFound):
		rev, err := store.Commit(cmd.Context(), a.cfg.DefaultDocument(), []byte(welcomePage), a.cfg.CommitMetadata("Initial commit"))
		if err != nil {
			return fmt.Errorf("create first page: %w", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Initialized wiki at %s [%s]\n", repository, shortHash(rev.Hash))
	case err != nil:
		return fmt.Errorf("read head: %w", err)
	default:
		fmt.Fprintf(cmd.OutOrStdout(), "Wiki already initialized at %s\n", repository)
	}

	configPath, _ := cmd.Flags().GetString("config")
	if configPath == "" {
		configPath = a.configPath
	}
	if configPath == "" {
		configPath = internal.NewConfigResolver().UserConfigPath()
	}
	if _, err := os.Stat(configPath); err == nil {
		return nil
	}

	if err := internal.SaveExampleConfig(configPath, repository); err != nil {
		return fmt.Errorf("save config: %w", err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Wrote config to %s\n", configPath)
	return nil
}

func shortHash(hash string) string {
	if len(hash) > 7 {
		return hash[:7]
	}
	return hash
}
