package llm

import (
	"context"
	"time"

	"github.com/ahrav/go-livebench/internal/domain"
	"github.com/ahrav/go-livebench/internal/ports"
)

// metricsInvoker records latency, request counts, and token usage per
// model call.
type metricsInvoker struct {
	next      CoreInvoker
	collector ports.MetricsCollector
}

// MetricsMiddleware creates middleware that reports request metrics to
// the given collector.
func MetricsMiddleware(collector ports.MetricsCollector) Middleware {
	return func(next CoreInvoker) CoreInvoker {
		return &metricsInvoker{next: next, collector: collector}
	}
}

// DoRequest forwards the request and records its outcome.
func (m *metricsInvoker) DoRequest(ctx context.Context, conv *domain.Conversation, opts map[string]any) (string, int, error) {
	start := time.Now()
	response, tokensOut, err := m.next.DoRequest(ctx, conv, opts)

	if m.collector != nil {
		labels := map[string]string{
			"model":  m.next.GetModel(),
			"status": "success",
		}
		if err != nil {
			if ctx.Err() == context.DeadlineExceeded {
				labels["status"] = "timeout"
			} else {
				labels["status"] = "error"
			}
		}

		m.collector.RecordHistogram("llm_latency_seconds", time.Since(start).Seconds(), labels)
		m.collector.RecordCounter("llm_requests_total", 1, labels)
		if err == nil {
			m.collector.RecordCounter("llm_output_tokens_total", float64(tokensOut), labels)
		}
	}

	return response, tokensOut, err
}

// GetModel returns the model name from the wrapped implementation.
func (m *metricsInvoker) GetModel() string { return m.next.GetModel() }

// SetModel updates the model name in the wrapped implementation.
func (m *metricsInvoker) SetModel(model string) { m.next.SetModel(model) }
