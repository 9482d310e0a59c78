package util

import (
	"io"
	"log/slog"
	"os"
	"strings"

	"sprintdesk/internal/sprintdesk/config"

	"github.com/natefinch/lumberjack"
)

var Logger *slog.Logger

// InitLogger installs the process logger. A nil config gives JSON on stdout at info.
func InitLogger(cfg *config.LogConfig) {
	var out io.Writer = os.Stdout
	level := slog.LevelInfo

	if cfg != nil {
		level = ParseLevel(cfg.Level)
		if cfg.Output == "file" {
			out = &lumberjack.Logger{
				Filename:   cfg.File,
				MaxSize:    cfg.MaxSizeMB,
				MaxBackups: cfg.MaxBackups,
				MaxAge:     cfg.MaxAgeDays,
				Compress:   true,
			}
		}
	}

	Logger = NewLogger(out, level)
	slog.SetDefault(Logger)
}

func NewLogger(w io.Writer, level slog.Level) *slog.Logger {
	return slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{Level: level}))
}

func GetLogger() *slog.Logger {
	if Logger == nil {
		InitLogger(nil)
	}
	return Logger
}

func ParseLevel(level string) slog.Level {
	switch strings.ToLower(level) {
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
