// Package cmd holds the pieces shared by the voltlane binaries.
package cmd

import (
	"fmt"
	"log/slog"
	"os"
	"strings"
)

// LogEnv names the environment variable read when no -log flag is given.
const LogEnv = "VOLTLANE_LOG"

func ParseLogLevel(level string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return slog.LevelDebug, nil
	case "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return 0, fmt.Errorf("invalid log level: %s", level)
	}
}

// ResolveLogLevel picks the -log flag value, then $VOLTLANE_LOG, then warn.
func ResolveLogLevel(flagValue string) (slog.Level, error) {
	level := flagValue
	if level == "" {
		level = os.Getenv(LogEnv)
	}
	if level == "" {
		return slog.LevelWarn, nil
	}
	return ParseLogLevel(level)
}

// InitLogger installs a text logger on stderr as the default logger.
func InitLogger(flagValue string) (*slog.Logger, error) {
	level, err := ResolveLogLevel(flagValue)
	if err != nil {
		return nil, err
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)
	return logger, nil
}
