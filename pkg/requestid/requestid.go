package requestid

import (
	"context"
	"log/slog"

	"github.com/dmitrymomot/featuregate/pkg/logger"
)

type contextKey struct{}

// WithContext returns a copy of ctx carrying id.
func WithContext(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, contextKey{}, id)
}

// FromContext returns the request id stored in ctx or an empty string.
func FromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	id, _ := ctx.Value(contextKey{}).(string)
	return id
}

// LoggerExtractor adds the request id to every record logged with a
// request context, including enforcement decisions.
func LoggerExtractor() logger.ContextExtractor {
	return func(ctx context.Context) (slog.Attr, bool) {
		if id := FromContext(ctx); id != "" {
			return logger.RequestID(id), true
		}
		return slog.Attr{}, false
	}
}
