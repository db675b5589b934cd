package observability

import (
	"context"

	"go.uber.org/zap"
)

// WithContext returns the logger annotated with the trace and span ids
// carried by ctx, for trace-log correlation. Without an active span the
// logger is returned unchanged.
func WithContext(ctx context.Context, logger *zap.Logger) *zap.Logger {
	tc := ExtractTrace(ctx)
	if tc == nil {
		return logger
	}

	return logger.With(
		zap.String("trace_id", tc.TraceID),
		zap.String("span_id", tc.SpanID),
	)
}
