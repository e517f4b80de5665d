package logging

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"barfinder/internal/config"
)

// LogFileName is the file written under paths.log_dir.
const LogFileName = "barfinder.log"

const timestampLayout = "2006-01-02T15:04:05.000Z07:00"

// Options describes logger construction parameters.
type Options struct {
	Level  string
	Format string
	// Outputs receive every record; stderr when empty.
	Outputs []io.Writer
	// AddSource forces caller info; it is always on at debug level.
	AddSource bool
}

// New constructs a slog logger using the provided options.
func New(opts Options) (*slog.Logger, error) {
	levelVar := new(slog.LevelVar)
	levelVar.Set(parseLevel(opts.Level))
	addSource := opts.AddSource || levelVar.Level() <= slog.LevelDebug

	var out io.Writer = os.Stderr
	switch len(opts.Outputs) {
	case 0:
	case 1:
		out = opts.Outputs[0]
	default:
		out = io.MultiWriter(opts.Outputs...)
	}

	switch format := strings.ToLower(strings.TrimSpace(opts.Format)); format {
	case "", "console":
		return slog.New(newPrettyHandler(out, levelVar, addSource)), nil
	case "json":
		return slog.New(newJSONHandler(out, levelVar, addSource)), nil
	default:
		return nil, fmt.Errorf("log format: unsupported value %q", opts.Format)
	}
}

// NewFromConfig creates a logger writing to stderr and log_dir/barfinder.log.
// Stdout stays free for command output such as --json documents.
// levelOverride, when set, wins over logging.level.
func NewFromConfig(cfg *config.Config, levelOverride string) (*slog.Logger, error) {
	opts := Options{Level: "info", Outputs: []io.Writer{os.Stderr}}
	if cfg != nil {
		opts.Level = cfg.Logging.Level
		opts.Format = cfg.Logging.Format
		if cfg.Paths.LogDir != "" {
			file, err := openLogFile(filepath.Join(cfg.Paths.LogDir, LogFileName))
			if err != nil {
				return nil, err
			}
			opts.Outputs = append(opts.Outputs, file)
		}
	}
	if strings.TrimSpace(levelOverride) != "" {
		opts.Level = levelOverride
	}
	return New(opts)
}

func openLogFile(path string) (*os.File, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("ensure log directory: %w", err)
	}
	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open log file %s: %w", path, err)
	}
	return file, nil
}

func parseLevel(level string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
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
