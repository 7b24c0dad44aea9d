package main

import (
	"os"

	"github.com/spf13/cobra"
)

func main() {
	if err := newRootCommand().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:          "community",
		Short:        "Community backend: users, posts, comments and likes",
		SilenceUsage: true,
		RunE:         func(cmd *cobra.Command, args []string) error { return runServe() },
	}
	cmd.AddCommand(newServeCommand())
	cmd.AddCommand(newMigrateCommand())
	cmd.AddCommand(newCreateUserCommand())
	return cmd
}
