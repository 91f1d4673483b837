// Package ports declares the interfaces between the answer-generation
// pipeline and its collaborators: model backends, question sources,
// and observability sinks. Implementations live under infrastructure/.
package ports

import (
	"context"
	"time"

	"github.com/ahrav/go-livebench/internal/domain"
)

// ModelInvoker performs one request/response exchange with a model
// endpoint. Each concrete model backend supplies its own
// implementation; the pipeline never branches on provider identity.
type ModelInvoker interface {
	// Invoke sends the accumulated conversation and returns the
	// generated text plus its output token count.
	//
	// The options map carries sampling parameters using the common
	// keys:
	//   - "temperature": float64
	//   - "max_tokens":  int
	//   - "stream":      bool (providers that cannot stream ignore it)
	Invoke(ctx context.Context, conv *domain.Conversation, options map[string]any) (string, int, error)

	// ModelID returns the identifier of the backing model, for logging
	// and record metadata.
	ModelID() string
}

// QuestionSource supplies the ordered question sequence for one run,
// with release filtering and resume/retry filtering already applied.
type QuestionSource interface {
	// Questions returns the questions that still need answers.
	Questions(ctx context.Context) ([]domain.Question, error)
}

// ProgressReporter receives one notification per completed question.
// Implementations must be safe for concurrent use.
type ProgressReporter interface {
	// Step records that one question finished, successfully or not.
	Step(questionID string, err error)
}

// MetricsCollector defines the interface for collecting operational
// metrics. Implementations should integrate with observability
// platforms like Prometheus or custom monitoring solutions.
type MetricsCollector interface {
	// RecordLatency records the execution time of an operation.
	// The labels map provides additional context for the metric.
	RecordLatency(operation string, duration time.Duration, labels map[string]string)

	// RecordCounter increments a counter metric.
	RecordCounter(metric string, value float64, labels map[string]string)

	// RecordGauge sets the current value of a gauge metric.
	RecordGauge(metric string, value float64, labels map[string]string)

	// RecordHistogram records a value in a histogram.
	RecordHistogram(metric string, value float64, labels map[string]string)
}
