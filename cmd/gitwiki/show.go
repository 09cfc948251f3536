package main

import (
	"fmt"

	"github.com/4thel00z/gitwiki/internal"
	"github.com/spf13/cobra"
)

func NewShowCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "show <path>",
		Short: "Print a document from the head revision",
		Args:  cobra.ExactArgs(1),
		RunE:  runShow,
	}

	cmd.Flags().Bool("html", false, "Render markdown to HTML")
	return cmd
}

func runShow(cmd *cobra.Command, args []string) error {
	asHTML, _ := cmd.Flags().GetBool("html")

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

	intent := internal.IntentRaw
	if asHTML {
		intent = internal.IntentView
	}
	doc, err := internal.NewContentPipeline(store, a.converter(), a.logger).Fetch(cmd.Context(), p, intent)
	if err != nil {
		return err
	}

	if asHTML && doc.IsMarkdown {
		_, err = fmt.Fprint(cmd.OutOrStdout(), doc.HTML)
		return err
	}
	_, err = cmd.OutOrStdout().Write(doc.Raw)
	return err
}
