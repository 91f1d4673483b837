package llm

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"github.com/ahrav/go-livebench/internal/domain"
)

// AnthropicDefaultModel is used when no model is configured.
const AnthropicDefaultModel = "claude-3-5-sonnet-20241022"

func init() {
	RegisterProviderFactory("anthropic", newAnthropicProvider)
}

// anthropicProvider implements CoreInvoker against Anthropic's
// Messages API.
type anthropicProvider struct {
	BaseProvider
	client          anthropic.Client
	errorClassifier *ErrorClassifier
	tokenCounter    *TokenCounter
}

func newAnthropicProvider(config ClientConfig) (CoreInvoker, error) {
	if config.APIKey == "" {
		return nil, ErrEmptyAPIKey
	}

	model := config.Model
	if model == "" {
		model = AnthropicDefaultModel
	}

	opts := []option.RequestOption{option.WithAPIKey(config.APIKey)}
	if config.BaseURL != "" {
		validatedURL, err := ValidateBaseURL(config.BaseURL)
		if err != nil {
			return nil, err
		}
		opts = append(opts, option.WithBaseURL(validatedURL))
	}
	if config.Timeout > 0 {
		opts = append(opts, option.WithHTTPClient(&http.Client{Timeout: ValidateTimeout(config.Timeout)}))
	}

	return &anthropicProvider{
		BaseProvider:    BaseProvider{model: model},
		client:          anthropic.NewClient(opts...),
		errorClassifier: &ErrorClassifier{Provider: "anthropic"},
		tokenCounter:    NewTokenCounter(),
	}, nil
}

// DoRequest sends the accumulated conversation to the Messages API and
// returns the generated text with its output token count.
func (p *anthropicProvider) DoRequest(ctx context.Context, conv *domain.Conversation, opts map[string]any) (string, int, error) {
	options := ParseRequestOptions(opts, p.GetModel())
	params := p.buildMessageParams(conv, options)

	message, err := p.client.Messages.New(ctx, params)
	if err != nil {
		return "", 0, p.handleError(err)
	}

	var responseText strings.Builder
	for _, block := range message.Content {
		switch content := block.AsAny().(type) {
		case anthropic.TextBlock:
			responseText.WriteString(content.Text)
		}
	}

	text := responseText.String()
	if text == "" {
		return "", 0, ErrEmptyResponse
	}

	return text, p.tokenCounter.GetTokenCount(int(message.Usage.OutputTokens), text), nil
}

// buildMessageParams maps the conversation onto Anthropic message
// params. The system prompt travels separately from the turn messages.
func (p *anthropicProvider) buildMessageParams(conv *domain.Conversation, options RequestOptions) anthropic.MessageNewParams {
	var messages []anthropic.MessageParam
	for _, msg := range conv.Messages() {
		switch msg.Role {
		case domain.RoleUser:
			messages = append(messages, anthropic.NewUserMessage(anthropic.NewTextBlock(msg.Content)))
		case domain.RoleAssistant:
			messages = append(messages, anthropic.NewAssistantMessage(anthropic.NewTextBlock(msg.Content)))
		}
	}

	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(options.Model),
		MaxTokens: int64(options.MaxTokens),
		Messages:  messages,
	}

	if options.Temperature != nil {
		// Anthropic supports 0.0 to 1.0.
		params.Temperature = anthropic.Float(ClampFloat64(*options.Temperature, 0.0, 1.0))
	}
	if system := conv.System(); system != "" {
		params.System = []anthropic.TextBlockParam{{Text: system}}
	}

	return params
}

// handleError classifies Anthropic SDK failures into ProviderError
// values.
func (p *anthropicProvider) handleError(err error) error {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return p.errorClassifier.ClassifyContextError(err)
	}

	var apiErr *anthropic.Error
	if errors.As(err, &apiErr) {
		return p.errorClassifier.ClassifyHTTPError(apiErr.StatusCode, apiErr.Error(), err)
	}

	return NewProviderError("anthropic", ErrorTypeUnknown, 0, "request failed", err)
}
