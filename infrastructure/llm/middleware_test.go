package llm

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"

	"github.com/ahrav/go-livebench/internal/domain"
)

type recordingCollector struct {
	mu         sync.Mutex
	counters   map[string]float64
	histograms map[string]float64
	labels     map[string]map[string]string
}

func newRecordingCollector() *recordingCollector {
	return &recordingCollector{
		counters:   make(map[string]float64),
		histograms: make(map[string]float64),
		labels:     make(map[string]map[string]string),
	}
}

func (c *recordingCollector) RecordLatency(operation string, duration time.Duration, labels map[string]string) {
	c.RecordHistogram(operation, duration.Seconds(), labels)
}

func (c *recordingCollector) RecordCounter(metric string, value float64, labels map[string]string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.counters[metric] += value
	c.labels[metric] = labels
}

func (c *recordingCollector) RecordGauge(metric string, value float64, labels map[string]string) {}

func (c *recordingCollector) RecordHistogram(metric string, value float64, labels map[string]string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.histograms[metric] = value
	c.labels[metric] = labels
}

func TestMetricsMiddlewareSuccess(t *testing.T) {
	collector := newRecordingCollector()
	core := &stubCore{response: "ok", tokens: 7}
	core.SetModel("m1")

	wrapped := MetricsMiddleware(collector)(core)
	_, _, err := wrapped.DoRequest(context.Background(), domain.NewConversation(""), nil)
	require.NoError(t, err)

	assert.Equal(t, 1.0, collector.counters["llm_requests_total"])
	assert.Equal(t, 7.0, collector.counters["llm_output_tokens_total"])
	assert.Contains(t, collector.histograms, "llm_latency_seconds")
	assert.Equal(t, "success", collector.labels["llm_requests_total"]["status"])
	assert.Equal(t, "m1", collector.labels["llm_requests_total"]["model"])
}

func TestMetricsMiddlewareError(t *testing.T) {
	collector := newRecordingCollector()
	core := &stubCore{err: errors.New("boom")}
	core.SetModel("m1")

	wrapped := MetricsMiddleware(collector)(core)
	_, _, err := wrapped.DoRequest(context.Background(), domain.NewConversation(""), nil)
	require.Error(t, err)

	assert.Equal(t, "error", collector.labels["llm_requests_total"]["status"])
	assert.Zero(t, collector.counters["llm_output_tokens_total"], "no token count on failure")
}

func TestRateLimitMiddlewarePacesRequests(t *testing.T) {
	core := &stubCore{response: "ok"}
	// burst 1 at 20 rps: the second call must wait ~50ms.
	wrapped := RateLimitMiddleware(rate.Limit(20), 1)(core)

	start := time.Now()
	for i := 0; i < 3; i++ {
		_, _, err := wrapped.DoRequest(context.Background(), domain.NewConversation(""), nil)
		require.NoError(t, err)
	}
	elapsed := time.Since(start)

	assert.GreaterOrEqual(t, elapsed, 90*time.Millisecond, "two of three calls wait for tokens")
	assert.Equal(t, 3, core.requests)
}

func TestRateLimitMiddlewareCancelled(t *testing.T) {
	core := &stubCore{response: "ok"}
	wrapped := RateLimitMiddleware(rate.Limit(0.001), 1)(core)

	// Drain the only token, then cancel while waiting for the next.
	_, _, err := wrapped.DoRequest(context.Background(), domain.NewConversation(""), nil)
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, _, err = wrapped.DoRequest(ctx, domain.NewConversation(""), nil)
	require.Error(t, err)
	assert.Equal(t, 1, core.requests, "a cancelled wait never reaches the provider")
}

func TestValidateBaseURL(t *testing.T) {
	tests := []struct {
		name    string
		baseURL string
		wantErr bool
	}{
		{"empty is provider default", "", false},
		{"http endpoint", "http://localhost:8000/v1", false},
		{"https endpoint", "https://api.example.com/v1", false},
		{"missing scheme", "localhost:8000", true},
		{"bad scheme", "ftp://example.com", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ValidateBaseURL(tt.baseURL)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
		})
	}
}

func TestValidateTimeout(t *testing.T) {
	assert.Equal(t, time.Duration(0), ValidateTimeout(0))
	assert.Equal(t, time.Duration(0), ValidateTimeout(-time.Second))
	assert.Equal(t, MinTimeout, ValidateTimeout(time.Millisecond))
	assert.Equal(t, 30*time.Second, ValidateTimeout(30*time.Second))
	assert.Equal(t, MaxTimeout, ValidateTimeout(time.Hour))
}
