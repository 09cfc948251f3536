package main

import (
	"fmt"
	"io"

	"github.com/4thel00z/gitwiki/internal"
	"github.com/spf13/cobra"
)

func NewSaveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "save <path>",
		Short: "Commit a document read from stdin",
		Long:  `Read the new document content from stdin and commit it to the wiki repository.`,
		Args:  cobra.ExactArgs(1),
		RunE:  runSave,
	}

	cmd.Flags().StringP("message", "m", "", "Commit message")
	return cmd
}

func runSave(cmd *cobra.Command, args []string) error {
	message, _ := cmd.Flags().GetString("message")

	p, err := internal.NewDocumentPath(args[0])
	if err != nil {
		return fmt.Errorf("path %q: %w", args[0], err)
	}

	a, err := loadApp(cmd, "")
	if err != nil {
		return err
	}
	store, err := a.openStore()
	if err != nil {
		return err
	}

	content, err := io.ReadAll(cmd.InOrStdin())
	if err != nil {
		return fmt.Errorf("read stdin: %w", err)
	}

	rev, err := store.Commit(cmd.Context(), p, content, a.cfg.CommitMetadata(message))
	if err != nil {
		return fmt.Errorf("save %s: %w", p, err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "[%s] %s\n", shortHash(rev.Hash), rev.Message)
	return nil
}
