package main

import (
	"github.com/4thel00z/gitwiki/internal"
	"github.com/spf13/cobra"
)

func NewRootCmd(version string) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "gitwiki",
		Short:         "A wiki served from a git repository",
		Long:          `Serve and edit markdown documents stored in a git repository. Every save is a commit.`,
		Version:       version,
		SilenceErrors: true,
		SilenceUsage:  true,
		Run: func(cmd *cobra.Command, _ []string) {
			_ = cmd.Help()
		},
	}

	addPersistentFlags(rootCmd)
	addSubcommands(rootCmd)
	return rootCmd
}

func addPersistentFlags(cmd *cobra.Command) {
	cmd.PersistentFlags().StringP("config", "c", "", "Path to wiki.conf (INI) or wiki.yaml")
	cmd.PersistentFlags().String("repository", "", "Override the repository path from the config")
	cmd.PersistentFlags().String("log-level", internal.LogLevelWarn, "Log level (debug|info|warn|error|none)")
	cmd.PersistentFlags().Bool("json", false, "Output in JSON format")
}

func addSubcommands(root *cobra.Command) {
	root.AddCommand(
		NewInitCmd(),
		NewServeCmd(),
		NewSearchCmd(),
		NewShowCmd(),
		NewSaveCmd(),
	)
}
