package debug

import (
	"context"
	"log/slog"
	"testing"
)

func TestIsEnabled(t *testing.T) {
	tests := []struct {
		name string
		ctx  context.Context
		want bool
	}{
		{"enabled", WithDebug(context.Background(), true), true},
		{"disabled", WithDebug(context.Background(), false), false},
		{"unset", context.Background(), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsEnabled(tt.ctx); got != tt.want {
				t.Errorf("IsEnabled = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestSetupLogger_Levels(t *testing.T) {
	SetupLogger(true)
	if !slog.Default().Enabled(context.Background(), slog.LevelDebug) {
		t.Error("debug mode should enable debug-level logging")
	}

	SetupLogger(false)
	if slog.Default().Enabled(context.Background(), slog.LevelDebug) {
		t.Error("normal mode should suppress debug-level logging")
	}
	if !slog.Default().Enabled(context.Background(), slog.LevelWarn) {
		t.Error("normal mode should still log warnings")
	}
}
