package llm

import "sync"

// DefaultMaxTokens caps response length when the caller does not set
// max_tokens explicitly.
const DefaultMaxTokens = 4096

// BaseProvider provides common, thread-safe model-name handling for
// providers.
type BaseProvider struct {
	mu    sync.RWMutex
	model string
}

// GetModel returns the configured model name. Safe for concurrent use.
func (b *BaseProvider) GetModel() string {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.model
}

// SetModel updates the model name. Safe for concurrent use.
func (b *BaseProvider) SetModel(model string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.model = model
}

// RequestOptions is the standardized parameter set extracted from the
// per-call options map.
type RequestOptions struct {
	// MaxTokens limits the number of generated tokens.
	MaxTokens int
	// Model overrides the provider's configured model for this call.
	Model string
	// Temperature controls sampling randomness. Nil means provider
	// default.
	Temperature *float64
	// Stream requests incremental delivery where the provider
	// supports it; the full text is still returned in one piece.
	Stream bool
}

// ParseRequestOptions extracts the standard parameters from an options
// map, falling back to defaults for missing or invalid entries.
func ParseRequestOptions(opts map[string]any, defaultModel string) RequestOptions {
	options := RequestOptions{
		MaxTokens: ExtractOptionalInt(opts, "max_tokens", DefaultMaxTokens, IsPositiveInt),
		Model:     ExtractOptionalString(opts, "model", defaultModel, IsNonEmptyString),
		Stream:    ExtractOptionalBool(opts, "stream", false),
	}

	if temp := ExtractOptionalFloat64(opts, "temperature", -1, IsValidTemperature); temp != -1 {
		options.Temperature = &temp
	}

	return options
}

// TokenCounter estimates token counts when the provider's response does
// not carry usage data.
type TokenCounter struct {
	// CharactersPerToken approximates tokenization density; ~4 suits
	// English text.
	CharactersPerToken float64
}

// NewTokenCounter creates a TokenCounter with the default ratio.
func NewTokenCounter() *TokenCounter {
	return &TokenCounter{CharactersPerToken: 4.0}
}

// EstimateTokens approximates the token count of text.
func (tc *TokenCounter) EstimateTokens(text string) int {
	if len(text) == 0 {
		return 0
	}
	return int(float64(len(text)) / tc.CharactersPerToken)
}

// GetTokenCount prefers the provider-reported count, falling back to
// estimation when it is absent.
func (tc *TokenCounter) GetTokenCount(actual int, text string) int {
	if actual > 0 {
		return actual
	}
	return tc.EstimateTokens(text)
}
