package helper

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestNewPrettyHandler(t *testing.T) {
	var buf bytes.Buffer
	handler := NewPrettyHandler(&buf, PrettyHandlerOptions{SlogOpts: slog.HandlerOptions{}})

	assert.NotNil(t, handler)
	assert.NotNil(t, handler.Handler)
	assert.NotNil(t, handler.l)
}

func TestPrettyHandlerHandle(t *testing.T) {
	ctx := context.Background()

	t.Run("debug level", func(t *testing.T) {
		var buf bytes.Buffer
		handler := NewPrettyHandler(&buf, PrettyHandlerOptions{SlogOpts: slog.HandlerOptions{Level: slog.LevelDebug}})
		record := slog.NewRecord(time.Now(), slog.LevelDebug, "debug message", 0)
		record.AddAttrs(slog.String("key", "value"))

		assert.NoError(t, handler.Handle(ctx, record))
		output := buf.String()
		assert.Contains(t, output, "DEBUG:")
		assert.Contains(t, output, "debug message")
		assert.Contains(t, output, "key")
		assert.Contains(t, output, "value")
	})

	t.Run("info level", func(t *testing.T) {
		var buf bytes.Buffer
		handler := NewPrettyHandler(&buf, PrettyHandlerOptions{})
		record := slog.NewRecord(time.Now(), slog.LevelInfo, "info message", 0)
		record.AddAttrs(slog.Int("count", 42))

		assert.NoError(t, handler.Handle(ctx, record))
		output := buf.String()
		assert.Contains(t, output, "INFO:")
		assert.Contains(t, output, "count")
		assert.Contains(t, output, "42")
	})

	t.Run("no attributes renders empty object", func(t *testing.T) {
		var buf bytes.Buffer
		handler := NewPrettyHandler(&buf, PrettyHandlerOptions{})
		record := slog.NewRecord(time.Now(), slog.LevelInfo, "simple message", 0)

		assert.NoError(t, handler.Handle(ctx, record))
		output := buf.String()
		assert.Contains(t, output, "simple message")
		assert.Contains(t, output, "{}")
	})

	t.Run("timestamp is bracketed", func(t *testing.T) {
		var buf bytes.Buffer
		handler := NewPrettyHandler(&buf, PrettyHandlerOptions{})
		record := slog.NewRecord(time.Now(), slog.LevelInfo, "time test", 0)

		assert.NoError(t, handler.Handle(ctx, record))
		output := buf.String()
		assert.True(t, strings.Contains(output, "[") && strings.Contains(output, "]"))
		assert.Regexp(t, `\[\d{2}:\d{2}:\d{2}\.\d{3}\]`, output)
	})

	t.Run("WithAttrs carries attrs across calls", func(t *testing.T) {
		var buf bytes.Buffer
		base := NewPrettyHandler(&buf, PrettyHandlerOptions{})
		withAttrs := base.WithAttrs([]slog.Attr{slog.String("service", "regular-rag")})
		record := slog.NewRecord(time.Now(), slog.LevelInfo, "carried", 0)

		assert.NoError(t, withAttrs.Handle(ctx, record))
		output := buf.String()
		assert.Contains(t, output, "service")
		assert.Contains(t, output, "regular-rag")
	})
}
