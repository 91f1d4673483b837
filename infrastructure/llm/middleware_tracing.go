package llm

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/ahrav/go-livebench/internal/domain"
)

// tracedInvoker wraps each request in an OpenTelemetry span.
type tracedInvoker struct {
	next   CoreInvoker
	tracer trace.Tracer
}

// TracingMiddleware creates middleware that emits one span per model
// call under the given service name.
func TracingMiddleware(serviceName string) Middleware {
	tracer := otel.Tracer(serviceName)
	return func(next CoreInvoker) CoreInvoker {
		return &tracedInvoker{next: next, tracer: tracer}
	}
}

// DoRequest executes the request inside a span carrying model and
// conversation attributes.
func (t *tracedInvoker) DoRequest(ctx context.Context, conv *domain.Conversation, opts map[string]any) (string, int, error) {
	ctx, span := t.tracer.Start(ctx, "llm.request",
		trace.WithAttributes(
			attribute.String("llm.model", t.next.GetModel()),
			attribute.Int("llm.conversation.messages", conv.Len()),
		),
	)
	defer span.End()

	response, tokensOut, err := t.next.DoRequest(ctx, conv, opts)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	} else {
		span.SetAttributes(attribute.Int("llm.tokens.output", tokensOut))
	}

	return response, tokensOut, err
}

// GetModel returns the model name from the wrapped implementation.
func (t *tracedInvoker) GetModel() string { return t.next.GetModel() }

// SetModel updates the model name in the wrapped implementation.
func (t *tracedInvoker) SetModel(m string) { t.next.SetModel(m) }
