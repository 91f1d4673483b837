package pipeline

import (
	"context"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/ahrav/go-livebench/internal/answers"
	"github.com/ahrav/go-livebench/internal/domain"
	"github.com/ahrav/go-livebench/internal/ports"
)

// BuildFunc produces the answer record for one question.
type BuildFunc func(ctx context.Context, q domain.Question) (BuildResult, error)

// WriteFunc durably appends one question's result.
type WriteFunc func(q domain.Question, res BuildResult) error

// DispatcherConfig configures the question-level scheduling for one
// run.
type DispatcherConfig struct {
	// Workers is the size of the worker pool. 1 means strictly
	// sequential, in-order processing; the deterministic mode.
	Workers int `validate:"required,min=1"`

	// AnswerFile is the output file the post-pass deduplicates after
	// the batch completes.
	AnswerFile string `validate:"required"`
}

// Dispatcher schedules one build-and-write task per question. Failures
// in one task never cancel siblings: every submitted task runs to
// completion and the first error is surfaced once the pool drains, so
// a failed run still leaves a valid, resumable answer file.
type Dispatcher struct {
	config   DispatcherConfig
	reporter ports.ProgressReporter
	metrics  ports.MetricsCollector
}

// NewDispatcher creates a Dispatcher. The reporter and metrics
// collector are optional.
func NewDispatcher(config DispatcherConfig, reporter ports.ProgressReporter, metrics ports.MetricsCollector) (*Dispatcher, error) {
	if err := pipelineValidator.Struct(config); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrInvalidConfiguration, err)
	}
	return &Dispatcher{config: config, reporter: reporter, metrics: metrics}, nil
}

// Run processes every question and then deduplicates the answer file.
// An empty question list is a no-op that skips the post-pass, which
// makes repeated resume runs idempotent.
//
// With Workers == 1 questions are processed strictly in input order.
// With more workers there is no ordering guarantee between questions;
// ordering within a question is the builder's concern. There is no
// per-question timeout: a stuck model call holds its worker until the
// underlying client gives up or ctx is cancelled.
func (d *Dispatcher) Run(ctx context.Context, questions []domain.Question, build BuildFunc, write WriteFunc) error {
	if len(questions) == 0 {
		return nil
	}

	var (
		mu       sync.Mutex
		failures []error
	)
	record := func(err error) {
		mu.Lock()
		failures = append(failures, err)
		mu.Unlock()
	}

	if d.config.Workers == 1 {
		for _, q := range questions {
			if err := d.process(ctx, q, build, write); err != nil {
				record(err)
			}
		}
	} else {
		// A plain errgroup (no WithContext) so one task's failure does
		// not cancel already-submitted siblings.
		var g errgroup.Group
		g.SetLimit(d.config.Workers)
		for _, q := range questions {
			q := q
			g.Go(func() error {
				if err := d.process(ctx, q, build, write); err != nil {
					record(err)
				}
				return nil
			})
		}
		// Tasks never return errors; Wait only blocks for the drain.
		_ = g.Wait()
	}

	if _, err := answers.Deduplicate(d.config.AnswerFile); err != nil {
		return fmt.Errorf("post-pass deduplication failed: %w", err)
	}

	if len(failures) > 0 {
		return fmt.Errorf("%d of %d questions failed: %w", len(failures), len(questions), failures[0])
	}
	return nil
}

// process runs one question end to end: build, then durably append.
func (d *Dispatcher) process(ctx context.Context, q domain.Question, build BuildFunc, write WriteFunc) (err error) {
	start := time.Now()
	defer func() {
		d.observe(q, time.Since(start), err)
		if d.reporter != nil {
			d.reporter.Step(q.QuestionID, err)
		}
	}()

	res, err := build(ctx, q)
	if err != nil {
		return err
	}
	return write(q, res)
}

// observe emits per-question metrics when a collector is configured.
func (d *Dispatcher) observe(q domain.Question, elapsed time.Duration, err error) {
	if d.metrics == nil {
		return
	}
	status := "success"
	if err != nil {
		status = "error"
	}
	labels := map[string]string{"task": q.Task, "status": status}
	d.metrics.RecordHistogram("question_duration_seconds", elapsed.Seconds(), labels)
	d.metrics.RecordCounter("questions_processed_total", 1, labels)
}
