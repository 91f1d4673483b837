package main

import (
	"github.com/spf13/cobra"
)

var version = "dev"

func newRootCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "livebench",
		Short: "livebench - generate and inspect benchmark model answers",
		Long: `livebench drives API-based models over a fixed benchmark question set.

It generates answers concurrently with resumable, append-only output,
optionally perturbing prompts, and provides tooling to deduplicate and
inspect the resulting answer files.`,
		Version:      version,
		SilenceUsage: true,
	}

	cmd.AddCommand(newGenAnswersCommand())
	cmd.AddCommand(newDedupCommand())
	cmd.AddCommand(newResultsCommand())
	cmd.AddCommand(newBatchCommand())

	return cmd
}

func execute() error {
	return newRootCommand().Execute()
}
