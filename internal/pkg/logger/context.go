package logger

import (
	"context"

	"go.uber.org/zap"
)

type requestIDKey struct{}

// WithContext tags the logger with the request id carried by ctx
func (l *Logger) WithContext(ctx context.Context) *Logger {
	if id := GetRequestID(ctx); id != "" {
		return l.With(zap.String("request_id", id))
	}
	return l
}

func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey{}, id)
}

func GetRequestID(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	id, _ := ctx.Value(requestIDKey{}).(string)
	return id
}
