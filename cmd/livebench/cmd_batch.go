package main

import (
	"log"
	"time"

	"github.com/spf13/cobra"

	"github.com/ahrav/go-livebench/internal/answers"
	"github.com/ahrav/go-livebench/internal/runconfig"
)

func newBatchCommand() *cobra.Command {
	opts := &genOptions{}
	var manifestPath string

	cmd := &cobra.Command{
		Use:   "batch",
		Short: "Run a sweep of answer generations from a YAML manifest",
		Long: `Run several timestamped answer generations from one manifest.

Each run in the manifest gets its own display name,
{model}-{MM-dd-HH-mm}-{feature}-{tempX|default}, so repeated sweeps
land in separate answer files. Runs execute in order; a failed run is
logged and the sweep continues.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			manifest, err := runconfig.Load(manifestPath)
			if err != nil {
				return err
			}
			return runBatch(cmd, opts, manifest)
		},
	}

	f := cmd.Flags()
	f.StringVar(&manifestPath, "manifest", "", "Path to the sweep manifest YAML")
	f.StringVar(&opts.dataDir, "data-dir", "data", "Root directory holding benchmark data")
	f.StringVar(&opts.provider, "provider", "openai", "Model provider: openai, anthropic, or google")
	f.IntVar(&opts.numChoices, "num-choices", 1, "Completion choices to generate per question")
	f.IntVar(&opts.maxTokens, "max-tokens", 4096, "Maximum number of generated tokens per response")
	f.IntVar(&opts.parallel, "parallel", 1, "Number of concurrent questions in flight")
	f.DurationVar(&opts.requestTimeout, "request-timeout", 0, "Per-request timeout (0 uses the provider default)")
	f.Float64Var(&opts.rateLimit, "rate-limit", 0, "Maximum model requests per second (0 disables limiting)")
	f.StringVar(&opts.release, "release", "", "Benchmark release; defaults to the latest")
	f.BoolVar(&opts.stream, "stream", false, "Stream responses, for models that support streaming")
	f.BoolVar(&opts.randomizePrompt, "randomize-prompt", false, "Add a randomized header to each prompt")
	f.BoolVar(&opts.addNoise, "add-noise", false, "Simulate typos by replacing letters with 1% probability")
	f.BoolVar(&opts.enableMetrics, "metrics", false, "Register Prometheus metrics for this sweep")
	_ = cmd.MarkFlagRequired("manifest")

	return cmd
}

func runBatch(cmd *cobra.Command, base *genOptions, manifest *runconfig.Manifest) error {
	var sweepErr error
	for i, run := range manifest.Runs {
		opts := *base
		opts.benchName = manifest.BenchName
		opts.model = manifest.Model
		opts.apiBase = manifest.APIBase
		opts.questionSource = "jsonl"
		opts.questionBegin = -1
		opts.questionEnd = -1
		opts.displayName = manifest.DisplayName(run, time.Now())
		if opts.release == "" {
			opts.release = answers.LatestRelease()
		}
		if run.Temperature != nil {
			opts.forceTemperature = *run.Temperature
			opts.forcedTempSet = true
		}
		if run.MaxTokens > 0 {
			opts.maxTokens = run.MaxTokens
		}

		log.Printf("batch run %d/%d as %s", i+1, len(manifest.Runs), opts.displayName)
		if err := runGenAnswers(cmd.Context(), &opts); err != nil {
			if sweepErr == nil {
				sweepErr = err
			}
			log.Printf("batch run %d/%d failed: %v", i+1, len(manifest.Runs), err)
		}
	}
	return sweepErr
}
