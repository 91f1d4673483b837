package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"golang.org/x/time/rate"

	"github.com/ahrav/go-livebench/infrastructure/llm"
	"github.com/ahrav/go-livebench/infrastructure/middleware"
	"github.com/ahrav/go-livebench/internal/answers"
	"github.com/ahrav/go-livebench/internal/domain"
	"github.com/ahrav/go-livebench/internal/perturb"
	"github.com/ahrav/go-livebench/internal/pipeline"
	"github.com/ahrav/go-livebench/internal/ports"
)

// apiKeyEnvVar supplies the key for custom OpenAI-compatible endpoints.
const apiKeyEnvVar = "LIVEBENCH_API_KEY"

// genOptions carries every gen-answers flag explicitly, so nothing in
// the pipeline reaches back into global CLI state.
type genOptions struct {
	benchName      string
	dataDir        string
	questionSource string

	provider    string
	model       string
	displayName string
	apiBase     string

	numChoices       int
	maxTokens        int
	parallel         int
	forceTemperature float64
	forcedTempSet    bool
	requestTimeout   time.Duration
	rateLimit        float64

	questionBegin int
	questionEnd   int
	questionIDs   []string
	release       string

	resume          bool
	retryFailures   bool
	stream          bool
	randomizePrompt bool
	addNoise        bool

	enableMetrics bool
}

func newGenAnswersCommand() *cobra.Command {
	opts := &genOptions{}

	cmd := &cobra.Command{
		Use:   "gen-answers",
		Short: "Generate benchmark answers using an API-based model",
		Long: `Generate answers for benchmark questions by calling a model API.

Questions are gathered from question.jsonl files under the data
directory, filtered by release and resume state, and dispatched across
a worker pool. Each completed question appends one answer record; the
file is deduplicated after the batch so reruns are safe.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.forcedTempSet = cmd.Flags().Changed("force-temperature")
			return runGenAnswers(cmd.Context(), opts)
		},
	}

	f := cmd.Flags()
	f.StringVar(&opts.benchName, "bench-name", "live_bench", "Benchmark subset, e.g. live_bench/reasoning/web_of_lies_v2")
	f.StringVar(&opts.dataDir, "data-dir", "data", "Root directory holding benchmark data")
	f.StringVar(&opts.questionSource, "question-source", "jsonl", "Question source; only 'jsonl' (local question files) is supported")
	f.StringVar(&opts.provider, "provider", "openai", "Model provider: openai, anthropic, or google")
	f.StringVar(&opts.model, "model", "gpt-3.5-turbo", "Model identifier for the provider API")
	f.StringVar(&opts.displayName, "model-display-name", "", "Display name for output files (default: the model identifier)")
	f.StringVar(&opts.apiBase, "api-base", "", "Custom OpenAI-compatible API base; key read from "+apiKeyEnvVar)
	f.IntVar(&opts.numChoices, "num-choices", 1, "Completion choices to generate per question")
	f.IntVar(&opts.maxTokens, "max-tokens", 4096, "Maximum number of generated tokens per response")
	f.IntVar(&opts.parallel, "parallel", 1, "Number of concurrent questions in flight")
	f.Float64Var(&opts.forceTemperature, "force-temperature", 0, "Forcibly set a sampling temperature")
	f.DurationVar(&opts.requestTimeout, "request-timeout", 0, "Per-request timeout (0 uses the provider default)")
	f.Float64Var(&opts.rateLimit, "rate-limit", 0, "Maximum model requests per second (0 disables limiting)")
	f.IntVar(&opts.questionBegin, "question-begin", -1, "Begin index of questions (debug option)")
	f.IntVar(&opts.questionEnd, "question-end", -1, "End index of questions (debug option)")
	f.StringSliceVar(&opts.questionIDs, "question-id", nil, "Only generate answers for these question ids")
	f.StringVar(&opts.release, "release", answers.LatestRelease(), "Benchmark release; excludes questions deprecated by it")
	f.BoolVar(&opts.resume, "resume", false, "Skip questions that already have answers")
	f.BoolVar(&opts.retryFailures, "retry-failures", false, "With --resume, re-answer questions whose answers failed")
	f.BoolVar(&opts.stream, "stream", false, "Stream responses, for models that support streaming")
	f.BoolVar(&opts.randomizePrompt, "randomize-prompt", false, "Add a randomized header to each prompt (Hello {name}, {datetime})")
	f.BoolVar(&opts.addNoise, "add-noise", false, "Simulate typos by replacing letters with 1% probability")
	f.BoolVar(&opts.enableMetrics, "metrics", false, "Register Prometheus metrics for this run")

	return cmd
}

func runGenAnswers(ctx context.Context, opts *genOptions) error {
	releases, err := answers.ResolveRelease(opts.release)
	if err != nil {
		return err
	}
	if opts.questionSource != "jsonl" {
		return domain.NewConfigurationError("question-source", "bad question source "+opts.questionSource)
	}

	displayName := opts.displayName
	if displayName == "" {
		displayName = opts.model
	}

	var collector ports.MetricsCollector
	if opts.enableMetrics {
		collector = middleware.NewPrometheusMetrics(prometheus.DefaultRegisterer)
	}

	invoker, err := buildInvoker(opts, collector)
	if err != nil {
		return err
	}

	var forced *float64
	if opts.forcedTempSet {
		forced = &opts.forceTemperature
	}

	builder, err := pipeline.NewBuilder(invoker, perturb.New(time.Now().UnixNano()), pipeline.BuilderConfig{
		ModelID:          displayName,
		NumChoices:       opts.numChoices,
		MaxTokens:        opts.maxTokens,
		ForceTemperature: forced,
		Stream:           opts.stream,
		Perturb: perturb.Config{
			RandomizePrompt: opts.randomizePrompt,
			AddNoise:        opts.addNoise,
		},
	})
	if err != nil {
		return err
	}

	questionFiles, err := answers.FindQuestionFiles(opts.dataDir, opts.benchName)
	if err != nil {
		return err
	}

	var runErr error
	for _, questionFile := range questionFiles {
		if err := runQuestionFile(ctx, opts, releases, questionFile, displayName, builder, collector); err != nil {
			if errors.Is(err, domain.ErrInvalidConfiguration) {
				return err
			}
			if runErr == nil {
				runErr = err
			}
			log.Printf("run failed for %s: %v", questionFile, err)
		}
	}
	return runErr
}

// runQuestionFile processes one task's question file end to end.
func runQuestionFile(
	ctx context.Context,
	opts *genOptions,
	releases answers.ReleaseSet,
	questionFile, displayName string,
	builder *pipeline.Builder,
	collector ports.MetricsCollector,
) error {
	answerFile := filepath.Join(filepath.Dir(questionFile), "model_answer", displayName+".jsonl")
	source := &answers.JSONLSource{
		Path:          questionFile,
		Release:       opts.release,
		Releases:      releases,
		QuestionIDs:   opts.questionIDs,
		Begin:         opts.questionBegin,
		End:           opts.questionEnd,
		AnswerFile:    answerFile,
		Resume:        opts.resume,
		RetryFailures: opts.retryFailures,
	}
	questions, err := source.Questions(ctx)
	if err != nil {
		return err
	}

	log.Printf("questions from %s", questionFile)
	log.Printf("output to %s", answerFile)

	writer := answers.NewWriter(answerFile)
	if opts.randomizePrompt && !opts.resume && !opts.retryFailures {
		if err := writer.TruncateModificationLog(); err != nil {
			return err
		}
	}

	dispatcher, err := pipeline.NewDispatcher(pipeline.DispatcherConfig{
		Workers:    opts.parallel,
		AnswerFile: answerFile,
	}, newConsoleReporter(len(questions)), collector)
	if err != nil {
		return err
	}

	write := func(q domain.Question, res pipeline.BuildResult) error {
		if err := writer.Append(res.Record); err != nil {
			return err
		}
		if mod, ok := builder.ModificationRecord(q, res); ok {
			return writer.AppendModification(mod)
		}
		return nil
	}

	return dispatcher.Run(ctx, questions, builder.Build, write)
}

// buildInvoker assembles the model client with its middleware chain.
// A custom api-base always goes through the OpenAI-compatible path
// with the key taken from the environment.
func buildInvoker(opts *genOptions, collector ports.MetricsCollector) (ports.ModelInvoker, error) {
	provider := opts.provider
	config := llm.ClientConfig{
		Model:   opts.model,
		Timeout: opts.requestTimeout,
	}

	if opts.apiBase != "" {
		provider = "openai"
		config.BaseURL = opts.apiBase
		config.APIKey = os.Getenv(apiKeyEnvVar)
		if config.APIKey == "" {
			config.APIKey = "EMPTY"
		}
	} else {
		config.APIKey = os.Getenv(providerKeyEnvVar(provider))
		if config.APIKey == "" {
			return nil, domain.NewConfigurationError(
				"api-key",
				fmt.Sprintf("environment variable %s is not set", providerKeyEnvVar(provider)),
			)
		}
	}

	config.Middleware = append(config.Middleware, llm.TracingMiddleware("livebench"))
	if collector != nil {
		config.Middleware = append(config.Middleware, llm.MetricsMiddleware(collector))
	}
	if opts.rateLimit > 0 {
		burst := opts.parallel
		if burst < 1 {
			burst = 1
		}
		config.Middleware = append(config.Middleware, llm.RateLimitMiddleware(rate.Limit(opts.rateLimit), burst))
	}

	return llm.NewClient(provider, config)
}

func providerKeyEnvVar(provider string) string {
	switch provider {
	case "anthropic":
		return "ANTHROPIC_API_KEY"
	case "google":
		return "GEMINI_API_KEY"
	default:
		return "OPENAI_API_KEY"
	}
}

// consoleReporter logs one line per completed question.
type consoleReporter struct {
	mu    sync.Mutex
	done  int
	total int
}

func newConsoleReporter(total int) *consoleReporter {
	return &consoleReporter{total: total}
}

// Step implements ports.ProgressReporter.
func (r *consoleReporter) Step(questionID string, err error) {
	r.mu.Lock()
	r.done++
	done := r.done
	r.mu.Unlock()

	if err != nil {
		log.Printf("[%d/%d] %s failed: %v", done, r.total, questionID, err)
		return
	}
	log.Printf("[%d/%d] %s", done, r.total, questionID)
}
