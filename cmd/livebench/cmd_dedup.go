package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ahrav/go-livebench/internal/answers"
)

func newDedupCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "dedup <answer-file>",
		Short: "Deduplicate an answer file by question id",
		Long: `Rewrite an answer file keeping one record per question id.

The last record for each id wins, so answers from a retry run replace
the originals. The pipeline performs this pass automatically after each
batch; this command covers files left behind by an interrupted run.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			kept, err := answers.Deduplicate(args[0])
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "kept %d records in %s\n", kept, args[0])
			return nil
		},
	}
}
