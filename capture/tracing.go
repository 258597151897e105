package capture

import (
	"context"

	tracing "github.com/jamesrr39/go-tracing"
)

// startSpan starts a span if the context carries a trace, and returns nil otherwise
func startSpan(ctx context.Context, name string) *tracing.Span {
	if ctx.Value(tracing.TracerCtxKey) == nil || ctx.Value(tracing.TraceCtxKey) == nil {
		return nil
	}

	return tracing.StartSpan(ctx, name)
}

func endSpan(ctx context.Context, span *tracing.Span) {
	if span == nil {
		return
	}

	span.End(ctx)
}
