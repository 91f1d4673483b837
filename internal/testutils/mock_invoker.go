// Package testutils provides deterministic test doubles for the
// answer-generation pipeline.
package testutils

import (
	"context"
	"strings"
	"sync"

	"github.com/ahrav/go-livebench/internal/domain"
	"github.com/ahrav/go-livebench/internal/ports"
)

// MockModelInvoker implements ports.ModelInvoker with scripted,
// deterministic responses. Safe for concurrent use.
type MockModelInvoker struct {
	mu    sync.Mutex
	model string
	calls int

	// Response and TokensUsed are returned for every call unless
	// EchoPrompt or Script override them.
	Response   string
	TokensUsed int

	// EchoPrompt makes the mock return the content of the last user
	// message, for tests asserting on perturbed prompts.
	EchoPrompt bool

	// FailPattern, when non-empty, makes any call whose last user
	// message contains it return ErrScripted.
	FailPattern string

	// Script, when set, fully controls the response per call. The call
	// index starts at 0.
	Script func(call int, conv *domain.Conversation) (string, int, error)
}

var _ ports.ModelInvoker = (*MockModelInvoker)(nil)

// scriptedError satisfies error for scripted failures.
type scriptedError struct{ pattern string }

func (e *scriptedError) Error() string {
	return "scripted failure for prompt containing " + e.pattern
}

// NewMockModelInvoker creates a mock that answers every call with the
// given text and token count.
func NewMockModelInvoker(model, response string, tokens int) *MockModelInvoker {
	return &MockModelInvoker{model: model, Response: response, TokensUsed: tokens}
}

// Invoke returns the scripted response for the conversation's last
// user message.
func (m *MockModelInvoker) Invoke(ctx context.Context, conv *domain.Conversation, options map[string]any) (string, int, error) {
	if err := ctx.Err(); err != nil {
		return "", 0, err
	}

	m.mu.Lock()
	call := m.calls
	m.calls++
	m.mu.Unlock()

	if m.Script != nil {
		return m.Script(call, conv)
	}

	prompt := lastUserMessage(conv)
	if m.FailPattern != "" && strings.Contains(prompt, m.FailPattern) {
		return "", 0, &scriptedError{pattern: m.FailPattern}
	}
	if m.EchoPrompt {
		return prompt, m.TokensUsed, nil
	}
	return m.Response, m.TokensUsed, nil
}

// ModelID returns the mock model identifier.
func (m *MockModelInvoker) ModelID() string { return m.model }

// Calls returns how many invocations the mock has served.
func (m *MockModelInvoker) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

func lastUserMessage(conv *domain.Conversation) string {
	msgs := conv.Messages()
	for i := len(msgs) - 1; i >= 0; i-- {
		if msgs[i].Role == domain.RoleUser {
			return msgs[i].Content
		}
	}
	return ""
}
