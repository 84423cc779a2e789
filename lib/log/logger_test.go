package log

import (
	"bytes"
	"log/slog"
	"strings"
	"testing"
)

func TestHandlerPlain(t *testing.T) {
	var out bytes.Buffer
	logger := slog.New(NewWriterHandler(&out, false, &slog.HandlerOptions{Level: slog.LevelInfo}))

	logger.Debug("hidden")
	logger.With(slog.String("module", "queue")).Warn("Skipping frame")

	line := out.String()
	if strings.Contains(line, "hidden") {
		t.Errorf("debug record printed at info level: %q", line)
	}
	if !strings.HasSuffix(line, "WARN [queue] Skipping frame\n") {
		t.Errorf("unexpected line %q", line)
	}
	if strings.Contains(line, "\033[") {
		t.Error("colour codes written with colour disabled")
	}
}

func TestHandlerColour(t *testing.T) {
	var out bytes.Buffer
	logger := slog.New(NewWriterHandler(&out, true, nil))
	logger.Error("boom")
	if !strings.Contains(out.String(), "\033[91mERROR \033[0m") {
		t.Errorf("error level not coloured: %q", out.String())
	}
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in      string
		want    slog.Level
		wantErr bool
	}{
		{"", slog.LevelInfo, false},
		{"debug", slog.LevelDebug, false},
		{"WARN", slog.LevelWarn, false},
		{"error", slog.LevelError, false},
		{"loud", 0, true},
	}
	for _, tt := range tests {
		got, err := ParseLevel(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseLevel(%q) error = %v", tt.in, err)
			continue
		}
		if !tt.wantErr && got != tt.want {
			t.Errorf("ParseLevel(%q) = %s, want %s", tt.in, got, tt.want)
		}
	}
}
