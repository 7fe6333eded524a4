package logging

import (
	"context"
	"io"
	"log/slog"
	"strings"
)

// ключи структурированных логов
const (
	TraceID     = "trace_id"
	UserID      = "user_id"
	Error       = "error"
	OrderID     = "order_id"
	OrderNumber = "order_number"
	Topic       = "topic"
)

// New JSON-логгер с уровнем из строки (debug, info, warn, error)
func New(w io.Writer, level string) *slog.Logger {
	return slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{Level: ParseLevel(level)}))
}

func ParseLevel(level string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

type traceKey struct{}

// WithTraceID кладёт trace id запроса в контекст
func WithTraceID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, traceKey{}, id)
}

// TraceIDFrom trace id из контекста или пустая строка
func TraceIDFrom(ctx context.Context) string {
	id, _ := ctx.Value(traceKey{}).(string)
	return id
}
