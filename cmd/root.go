package main

import (
	"github.com/spf13/cobra"
)

var version = "dev"

func newRootCommand() *cobra.Command {
	serve := newServeCommand()

	cmd := &cobra.Command{
		Use:   "collegeapi",
		Short: "College search backend",
		Long: `collegeapi serves the college search app backend: College Scorecard
search, per-user saved colleges and essay and resume coaching.

Running it without a subcommand starts the HTTP server.`,
		Version:      version,
		SilenceUsage: true,
		RunE:         serve.RunE,
	}

	cmd.AddCommand(serve)
	cmd.AddCommand(newNormalizeCommand())

	return cmd
}

func execute() error {
	return newRootCommand().Execute()
}
