package llm

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	openai "github.com/sashabaranov/go-openai"

	"github.com/ahrav/go-livebench/internal/domain"
)

// OpenAIDefaultModel is used when no model is configured.
const OpenAIDefaultModel = "gpt-3.5-turbo"

func init() {
	RegisterProviderFactory("openai", newOpenAIProvider)
}

// openAIProvider implements CoreInvoker against OpenAI's chat API.
// With a BaseURL override it drives any OpenAI-compatible endpoint,
// which is the path used for locally hosted models.
type openAIProvider struct {
	BaseProvider
	client          *openai.Client
	tokenCounter    *TokenCounter
	errorClassifier *ErrorClassifier
}

func newOpenAIProvider(config ClientConfig) (CoreInvoker, error) {
	if config.APIKey == "" {
		return nil, ErrEmptyAPIKey
	}

	model := config.Model
	if model == "" {
		model = OpenAIDefaultModel
	}

	clientConfig := openai.DefaultConfig(config.APIKey)

	if config.BaseURL != "" {
		validatedURL, err := ValidateBaseURL(config.BaseURL)
		if err != nil {
			return nil, fmt.Errorf("invalid BaseURL: %w", err)
		}
		clientConfig.BaseURL = validatedURL
	}

	if config.Timeout > 0 {
		clientConfig.HTTPClient = &http.Client{Timeout: ValidateTimeout(config.Timeout)}
	}

	return &openAIProvider{
		BaseProvider:    BaseProvider{model: model},
		client:          openai.NewClientWithConfig(clientConfig),
		tokenCounter:    NewTokenCounter(),
		errorClassifier: &ErrorClassifier{Provider: "openai"},
	}, nil
}

// DoRequest sends the accumulated conversation as a chat completion
// request, streaming when asked to, and returns the generated text
// with its output token count.
func (p *openAIProvider) DoRequest(ctx context.Context, conv *domain.Conversation, opts map[string]any) (string, int, error) {
	options := ParseRequestOptions(opts, p.GetModel())
	req := p.buildChatCompletionRequest(conv, options)

	if options.Stream {
		return p.doStream(ctx, req)
	}

	resp, err := p.client.CreateChatCompletion(ctx, req)
	if err != nil {
		return "", 0, p.handleError(err)
	}
	if len(resp.Choices) == 0 {
		return "", 0, ErrNoResponseChoice
	}

	content := resp.Choices[0].Message.Content
	return content, p.tokenCounter.GetTokenCount(resp.Usage.CompletionTokens, content), nil
}

// doStream consumes a streamed completion, concatenating deltas and
// picking token usage out of the final chunk when the endpoint reports
// it.
func (p *openAIProvider) doStream(ctx context.Context, req openai.ChatCompletionRequest) (string, int, error) {
	req.Stream = true
	req.StreamOptions = &openai.StreamOptions{IncludeUsage: true}

	stream, err := p.client.CreateChatCompletionStream(ctx, req)
	if err != nil {
		return "", 0, p.handleError(err)
	}
	defer stream.Close()

	var content strings.Builder
	completionTokens := 0
	for {
		chunk, err := stream.Recv()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return "", 0, p.handleError(err)
		}
		if len(chunk.Choices) > 0 {
			content.WriteString(chunk.Choices[0].Delta.Content)
		}
		if chunk.Usage != nil {
			completionTokens = chunk.Usage.CompletionTokens
		}
	}

	text := content.String()
	if text == "" {
		return "", 0, ErrEmptyResponse
	}
	return text, p.tokenCounter.GetTokenCount(completionTokens, text), nil
}

// buildChatCompletionRequest maps the conversation onto OpenAI chat
// messages and applies the sampling parameters.
func (p *openAIProvider) buildChatCompletionRequest(conv *domain.Conversation, options RequestOptions) openai.ChatCompletionRequest {
	messages := make([]openai.ChatCompletionMessage, 0, conv.Len())
	for _, msg := range conv.Messages() {
		messages = append(messages, openai.ChatCompletionMessage{
			Role:    openAIRole(msg.Role),
			Content: msg.Content,
		})
	}

	req := openai.ChatCompletionRequest{
		Model:    options.Model,
		Messages: messages,
	}

	if options.Temperature != nil {
		temp := ClampFloat64(*options.Temperature, 0.0, 2.0)
		req.Temperature = float32(temp)
	}
	if options.MaxTokens > 0 {
		req.MaxTokens = options.MaxTokens
	}

	return req
}

func openAIRole(role domain.Role) string {
	switch role {
	case domain.RoleSystem:
		return openai.ChatMessageRoleSystem
	case domain.RoleAssistant:
		return openai.ChatMessageRoleAssistant
	default:
		return openai.ChatMessageRoleUser
	}
}

// handleError classifies OpenAI failures into ProviderError values.
func (p *openAIProvider) handleError(err error) error {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return p.errorClassifier.ClassifyContextError(err)
	}

	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		message := apiErr.Message
		if message == "" {
			message = "unknown error"
		}
		return p.errorClassifier.ClassifyHTTPError(apiErr.HTTPStatusCode, message, err)
	}

	return NewProviderError("openai", ErrorTypeUnknown, 0, "request failed", err)
}
