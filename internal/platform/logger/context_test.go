package logger

import (
	"bytes"
	"context"
	"log/slog"
	"testing"
)

func TestFromContext(t *testing.T) {
	t.Parallel()

	t.Run("returns attached logger", func(t *testing.T) {
		var buf bytes.Buffer
		attached := slog.New(slog.NewTextHandler(&buf, nil))
		ctx := WithLogger(context.Background(), attached)

		if got := FromContext(ctx); got != attached {
			t.Error("Expected the logger attached to the context")
		}
	})

	t.Run("falls back to default when none attached", func(t *testing.T) {
		if got := FromContext(context.Background()); got == nil {
			t.Error("Expected a non-nil fallback logger")
		}
	})
}

func TestFromContextOrDefault(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	fallback := slog.New(slog.NewTextHandler(&buf, nil))

	t.Run("prefers attached logger", func(t *testing.T) {
		attached := slog.New(slog.NewTextHandler(&buf, nil))
		ctx := WithLogger(context.Background(), attached)

		if got := FromContextOrDefault(ctx, fallback); got != attached {
			t.Error("Expected the logger attached to the context")
		}
	})

	t.Run("uses fallback when none attached", func(t *testing.T) {
		if got := FromContextOrDefault(context.Background(), fallback); got != fallback {
			t.Error("Expected the provided fallback logger")
		}
	})

	t.Run("uses default when fallback is nil", func(t *testing.T) {
		if got := FromContextOrDefault(context.Background(), nil); got == nil {
			t.Error("Expected a non-nil logger")
		}
	})
}
