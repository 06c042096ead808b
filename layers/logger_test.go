package layers_test

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"testing"

	"github.com/tacmap/layerstore/layers"
)

// TestNoOpLogger verifies the NoOpLogger doesn't panic.
func TestNoOpLogger(t *testing.T) {
	ctx := context.Background()
	logger := layers.NoOpLogger{}

	logger.Debug(ctx, "debug message", "key", "value")
	logger.Info(ctx, "info message", "key", "value")
	logger.Error(ctx, "error message", "key", "value")
}

// TestLoggerInterface verifies both implementations satisfy Logger.
func TestLoggerInterface(t *testing.T) {
	var _ layers.Logger = layers.NoOpLogger{}
	var _ layers.Logger = layers.SlogLogger{}
}

func TestSlogLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := layers.SlogLogger{L: slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{
		Level: slog.LevelDebug,
	}))}
	ctx := context.Background()

	logger.Debug(ctx, "debug message", "entity", "a")
	logger.Info(ctx, "info message", "entity", "b")
	logger.Error(ctx, "error message", "entity", "c")

	out := buf.String()
	for _, want := range []string{"debug message", "info message", "error message", "entity=c"} {
		if !strings.Contains(out, want) {
			t.Errorf("log output missing %q:\n%s", want, out)
		}
	}
}
