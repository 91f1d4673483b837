// Package llm provides the model-adapter layer for the benchmark
// driver: provider implementations behind a common conversation
// interface, plus middleware for rate limiting, metrics, and tracing.
//
// Providers are registered by name and created through NewClient:
//
//	invoker, err := llm.NewClient("openai", llm.ClientConfig{
//	    APIKey: os.Getenv("LIVEBENCH_API_KEY"),
//	    Model:  "gpt-4o-mini",
//	})
//	text, tokens, err := invoker.Invoke(ctx, conv, opts)
//
// The "openai" provider also serves any OpenAI-compatible endpoint via
// ClientConfig.BaseURL, which is how locally hosted models are driven.
package llm

import (
	"context"
	"fmt"
	"time"

	"github.com/ahrav/go-livebench/internal/domain"
	"github.com/ahrav/go-livebench/internal/ports"
)

// CoreInvoker is the minimal surface a provider must implement. The
// middleware chain wraps any conforming implementation.
type CoreInvoker interface {
	// DoRequest sends the accumulated conversation to the provider and
	// returns the generated text plus its output token count.
	DoRequest(ctx context.Context, conv *domain.Conversation, opts map[string]any) (string, int, error)

	// GetModel returns the currently configured model name.
	GetModel() string

	// SetModel updates the model for subsequent requests.
	SetModel(model string)
}

// Middleware wraps a CoreInvoker to add cross-cutting behavior without
// touching provider logic.
type Middleware func(CoreInvoker) CoreInvoker

// ClientConfig holds the settings for creating a model invoker.
type ClientConfig struct {
	// APIKey authenticates requests to the provider.
	APIKey string

	// Model is the provider-side model identifier.
	Model string

	// BaseURL overrides the provider's default endpoint. Used to point
	// the OpenAI-compatible provider at a custom API base.
	BaseURL string

	// Timeout bounds each individual request. Zero means the
	// provider's default. There is no other timeout in the pipeline,
	// so a stuck call blocks its worker until this fires.
	Timeout time.Duration

	// Middleware is applied in the order given, first entry outermost.
	Middleware []Middleware
}

// Client adapts a middleware-wrapped CoreInvoker to the
// ports.ModelInvoker interface the pipeline consumes.
type Client struct {
	core CoreInvoker
}

var _ ports.ModelInvoker = (*Client)(nil)

// ProviderFactory creates a CoreInvoker from configuration.
type ProviderFactory func(ClientConfig) (CoreInvoker, error)

var providerFactories = map[string]ProviderFactory{}

// RegisterProviderFactory registers a provider under a name. Providers
// in this package self-register from init.
func RegisterProviderFactory(providerType string, factory ProviderFactory) {
	providerFactories[providerType] = factory
}

// NewClient assembles a ready-to-use invoker for the named provider.
// An unknown provider name is a configuration error.
func NewClient(providerType string, config ClientConfig) (*Client, error) {
	if config.APIKey == "" {
		return nil, ErrEmptyAPIKey
	}
	if config.Model == "" {
		return nil, fmt.Errorf("model is required")
	}

	factory, ok := providerFactories[providerType]
	if !ok {
		return nil, domain.NewConfigurationError("provider", "unknown provider "+providerType)
	}

	core, err := factory(config)
	if err != nil {
		return nil, fmt.Errorf("failed to create provider: %w", err)
	}

	// Apply middleware in reverse so the first entry is outermost.
	for i := len(config.Middleware) - 1; i >= 0; i-- {
		core = config.Middleware[i](core)
	}

	return &Client{core: core}, nil
}

// Invoke performs one request/response exchange with the provider.
func (c *Client) Invoke(ctx context.Context, conv *domain.Conversation, options map[string]any) (string, int, error) {
	return c.core.DoRequest(ctx, conv, options)
}

// ModelID returns the configured model identifier.
func (c *Client) ModelID() string { return c.core.GetModel() }
