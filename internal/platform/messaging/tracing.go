package messaging

import (
	"context"

	"go.opentelemetry.io/otel"
)

// headerCarrier adapts message headers to the otel TextMapCarrier so trace
// context crosses the broker alongside the envelope.
type headerCarrier map[string]any

func (c headerCarrier) Get(key string) string {
	if value, ok := c[key].(string); ok {
		return value
	}
	return ""
}

func (c headerCarrier) Set(key string, value string) {
	c[key] = value
}

func (c headerCarrier) Keys() []string {
	keys := make([]string, 0, len(c))
	for key := range c {
		keys = append(keys, key)
	}
	return keys
}

func injectTrace(ctx context.Context, headers map[string]any) map[string]any {
	out := copyHeaders(headers)
	otel.GetTextMapPropagator().Inject(ctx, headerCarrier(out))
	return out
}

func extractTrace(ctx context.Context, headers map[string]any) context.Context {
	if len(headers) == 0 {
		return ctx
	}
	return otel.GetTextMapPropagator().Extract(ctx, headerCarrier(headers))
}
