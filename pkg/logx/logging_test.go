package logx

import (
	"testing"

	"github.com/rs/zerolog"
)

func TestParseLevel(t *testing.T) {
	t.Parallel()
	tests := []struct {
		in   string
		want zerolog.Level
	}{
		{"trace", zerolog.TraceLevel},
		{"DEBUG", zerolog.DebugLevel},
		{"info", zerolog.InfoLevel},
		{" warn ", zerolog.WarnLevel},
		{"warning", zerolog.WarnLevel},
		{"error", zerolog.ErrorLevel},
		{"", zerolog.InfoLevel},
		{"bogus", zerolog.InfoLevel},
	}
	for _, tt := range tests {
		if got := ParseLevel(tt.in, zerolog.InfoLevel); got != tt.want {
			t.Errorf("ParseLevel(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestZeroLoggerIsSafe(t *testing.T) {
	t.Parallel()
	var l Logger
	if !l.IsZero() {
		t.Fatal("zero Logger should report IsZero")
	}
	// Must not panic.
	l.Info("ignored", String("k", "v"))
	l.With(Int("n", 1)).Error("also ignored")
}

func TestNopLoggerNotZero(t *testing.T) {
	t.Parallel()
	if Nop().IsZero() {
		t.Fatal("Nop() must be distinguishable from the zero value")
	}
}

func TestFileLoggingRequiresPath(t *testing.T) {
	t.Parallel()
	cfg := Config{Level: "debug", Console: false, File: FileConfig{Enabled: true}}
	if _, _, err := New(cfg); err == nil {
		t.Fatal("file logging without a path must error")
	}
}
