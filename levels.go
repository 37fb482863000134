package httpserver

import (
	"fmt"
	"log/slog"
	"strings"
)

// LevelCritical is the slog level used for fatal transport failures
// (bind, accept, poll). It sits above [slog.LevelError].
const LevelCritical = slog.Level(12)

// ParseLevel converts a configuration log level name into a slog level.
// Accepted names, case-insensitively: DEBUG, INFO, WARNING, ERROR,
// CRITICAL.
func ParseLevel(name string) (slog.Level, error) {
	switch strings.ToUpper(name) {
	case "DEBUG":
		return slog.LevelDebug, nil
	case "INFO":
		return slog.LevelInfo, nil
	case "WARNING":
		return slog.LevelWarn, nil
	case "ERROR":
		return slog.LevelError, nil
	case "CRITICAL":
		return LevelCritical, nil
	default:
		return 0, fmt.Errorf("unknown log level %q (expected DEBUG, INFO, WARNING, ERROR, or CRITICAL)", name)
	}
}
