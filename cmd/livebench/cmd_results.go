package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/ahrav/go-livebench/internal/results"
)

func newResultsCommand() *cobra.Command {
	var (
		dataRoot  string
		category  string
		task      string
		modelName string
	)

	cmd := &cobra.Command{
		Use:   "results",
		Short: "Inspect answer files and judgment statistics",
		Long: `Inspect precomputed benchmark artifacts on disk.

Without filters, lists every category, task, and model that has
answers. With --category, --task, and --model, prints that model's
ground-truth score statistics for the task. Unparseable result lines
are reported as notes, never as failures.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			store := results.NewStore(dataRoot)
			out := cmd.OutOrStdout()

			if category == "" {
				return listAll(store, out)
			}
			if task == "" || modelName == "" {
				tasks, err := store.Tasks(category)
				if err != nil {
					return err
				}
				for _, t := range tasks {
					fmt.Fprintf(out, "%s/%s\n", category, t)
				}
				return nil
			}

			stats, ok, err := store.ModelStats(category, task, modelName)
			if err != nil {
				return err
			}
			if !ok {
				if suggestion, found, _ := store.SuggestModel(category, task, modelName); found {
					fmt.Fprintf(out, "no judged answers for %q; closest known model is %q\n", modelName, suggestion)
					return nil
				}
				fmt.Fprintf(out, "no judged answers for %q\n", modelName)
				return nil
			}

			fmt.Fprintf(out, "%s on %s/%s\n", modelName, category, task)
			fmt.Fprintf(out, "  mean %.3f  min %.3f  max %.3f  judged %d\n",
				stats.Mean, stats.Min, stats.Max, stats.Count)
			return nil
		},
	}

	f := cmd.Flags()
	f.StringVar(&dataRoot, "data-root", results.DefaultDataPath, "Benchmark data root")
	f.StringVar(&category, "category", "", "Category to inspect")
	f.StringVar(&task, "task", "", "Task to inspect (requires --category)")
	f.StringVar(&modelName, "model", "", "Model display name to score (requires --task)")

	return cmd
}

func listAll(store *results.Store, out io.Writer) error {
	categories, err := store.Categories()
	if err != nil {
		return err
	}
	for _, c := range categories {
		tasks, err := store.Tasks(c)
		if err != nil {
			return err
		}
		for _, t := range tasks {
			models, err := store.Models(c, t)
			if err != nil {
				return err
			}
			fmt.Fprintf(out, "%s/%s: %d models\n", c, t, len(models))
			for _, m := range models {
				fmt.Fprintf(out, "  %s\n", m)
			}
		}
	}
	return nil
}
