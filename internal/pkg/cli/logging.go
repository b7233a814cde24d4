package cli

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/MatusOllah/slogcolor"
)

// LogConfig carries the logging flags shared by every binary.
type LogConfig struct {
	Level  string `short:"v" help:"Log verbosity." default:"info" enum:"debug,info,warn,error"`
	Format string `help:"Log output format." default:"color" enum:"text,color,json"`
	Quiet  bool   `help:"Suppress all log output."`
}

// NewLogger builds a slog logger writing to stderr according to the config.
func (config LogConfig) NewLogger() (*slog.Logger, error) {
	level, err := config.level()
	if err != nil {
		return nil, fmt.Errorf("parse log level: %w", err)
	}

	output := io.Writer(os.Stderr)
	if config.Quiet {
		output = io.Discard
	}

	handler, err := config.handler(output, level)
	if err != nil {
		return nil, fmt.Errorf("create log handler: %w", err)
	}

	return slog.New(handler), nil
}

func (config LogConfig) level() (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(config.Level)) {
	case "debug":
		return slog.LevelDebug, nil
	case "", "info":
		return slog.LevelInfo, nil
	case "warn":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("unknown log level: %s", config.Level)
	}
}

func (config LogConfig) handler(output io.Writer, level slog.Level) (slog.Handler, error) {
	switch strings.ToLower(strings.TrimSpace(config.Format)) {
	case "text":
		return slog.NewTextHandler(output, &slog.HandlerOptions{Level: level}), nil
	case "", "color":
		options := slogcolor.DefaultOptions
		options.Level = level
		return slogcolor.NewHandler(output, options), nil
	case "json":
		return slog.NewJSONHandler(output, &slog.HandlerOptions{Level: level}), nil
	default:
		return nil, fmt.Errorf("unknown log format: %s", config.Format)
	}
}
