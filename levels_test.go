package httpserver

import (
	"log/slog"
	"testing"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		name string
		want slog.Level
	}{
		{"DEBUG", slog.LevelDebug},
		{"INFO", slog.LevelInfo},
		{"WARNING", slog.LevelWarn},
		{"ERROR", slog.LevelError},
		{"CRITICAL", LevelCritical},
		{"info", slog.LevelInfo},
		{"Critical", LevelCritical},
	}

	for _, tt := range tests {
		got, err := ParseLevel(tt.name)
		if err != nil {
			t.Errorf("ParseLevel(%q) error = %v", tt.name, err)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseLevel(%q) = %v, want %v", tt.name, got, tt.want)
		}
	}
}

func TestParseLevel_Unknown(t *testing.T) {
	if _, err := ParseLevel("TRACE"); err == nil {
		t.Error("ParseLevel(TRACE) expected error, got nil")
	}
}

func TestLevelCritical_AboveError(t *testing.T) {
	if LevelCritical <= slog.LevelError {
		t.Errorf("LevelCritical = %v, want above %v", LevelCritical, slog.LevelError)
	}
}
