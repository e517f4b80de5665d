package logging_test

import (
	"bytes"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"barfinder/internal/config"
	"barfinder/internal/logging"
)

func TestNewFromConfigWritesLogFile(t *testing.T) {
	cfg := config.Default()
	cfg.Paths.LogDir = t.TempDir()

	logger, err := logging.NewFromConfig(&cfg, "")
	if err != nil {
		t.Fatalf("NewFromConfig returned error: %v", err)
	}
	logger.Info("index loaded", logging.Int("battles", 3))

	content, err := os.ReadFile(filepath.Join(cfg.Paths.LogDir, logging.LogFileName))
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	if !strings.Contains(string(content), "index loaded battles=3") {
		t.Fatalf("expected console line in log file, got %q", content)
	}
}

func TestConsoleLoggerOmitsCallerForInfo(t *testing.T) {
	var buf bytes.Buffer
	logger, err := logging.New(logging.Options{Format: "console", Level: "info", Outputs: []io.Writer{&buf}})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}

	logger.Info("message without caller")

	content := buf.String()
	if strings.Contains(content, ".go:") {
		t.Fatalf("expected no caller information in info logs, got %q", content)
	}
}

func TestConsoleLoggerIncludesCallerForDebug(t *testing.T) {
	var buf bytes.Buffer
	logger, err := logging.New(logging.Options{Format: "console", Level: "debug", Outputs: []io.Writer{&buf}})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}

	logger.Info("message with caller")

	content := buf.String()
	if !strings.Contains(content, "logger_test.go:") {
		t.Fatalf("expected caller information in debug logs, got %q", content)
	}
}

func TestConsoleLoggerRendersComponentAndVideo(t *testing.T) {
	var buf bytes.Buffer
	logger, err := logging.New(logging.Options{Format: "console", Outputs: []io.Writer{&buf}})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	component := logging.NewComponentLogger(logger, "pipeline")
	component.Info("video processed",
		logging.String(logging.FieldVideoID, "bO4DytVhO8Q"),
		logging.String("title", "two words"),
	)

	line := buf.String()
	if !strings.Contains(line, "INFO pipeline [bO4DytVhO8Q]: video processed") {
		t.Fatalf("unexpected header: %q", line)
	}
	if !strings.Contains(line, `title="two words"`) {
		t.Fatalf("expected quoted value, got %q", line)
	}
}

func TestJSONLoggerUsesShortKeys(t *testing.T) {
	var buf bytes.Buffer
	logger, err := logging.New(logging.Options{Format: "json", Outputs: []io.Writer{&buf}})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	logging.WarnWithContext(logger, "orphan participations", "orphan_participations",
		logging.Int("count", 2),
		logging.Duration("took", 1500*time.Millisecond),
	)

	content := buf.Bytes()
	var entry map[string]any
	if err := json.Unmarshal(content, &entry); err != nil {
		t.Fatalf("decode log line: %v (%q)", err, content)
	}
	if entry["level"] != "warn" {
		t.Fatalf("expected lowercase level, got %v", entry["level"])
	}
	if entry["msg"] != "orphan participations" {
		t.Fatalf("unexpected msg: %v", entry["msg"])
	}
	if _, ok := entry["ts"]; !ok {
		t.Fatal("expected ts key")
	}
	if entry[logging.FieldEventType] != "orphan_participations" {
		t.Fatalf("expected event_type to be injected, got %v", entry[logging.FieldEventType])
	}
	if entry[logging.FieldErrorHint] == nil || entry[logging.FieldImpact] == nil {
		t.Fatalf("expected default hint and impact, got %v", entry)
	}
	if entry["took"] != "1.5s" {
		t.Fatalf("expected duration rendered as text, got %v", entry["took"])
	}
}

func TestErrorWithContextKeepsCallerHint(t *testing.T) {
	var buf bytes.Buffer
	logger, err := logging.New(logging.Options{Format: "json", Outputs: []io.Writer{&buf}})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	logging.ErrorWithContext(logger, "commit failed", "commit_failed",
		logging.String(logging.FieldErrorHint, "rerun"),
	)

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("decode log line: %v", err)
	}
	if entry[logging.FieldErrorHint] != "rerun" {
		t.Fatalf("expected caller hint to win, got %v", entry[logging.FieldErrorHint])
	}
	if _, ok := entry[logging.FieldImpact]; ok {
		t.Fatalf("errors get no default impact, got %v", entry)
	}
}

func TestNewRejectsUnknownFormat(t *testing.T) {
	if _, err := logging.New(logging.Options{Format: "xml"}); err == nil {
		t.Fatal("expected error for unsupported format")
	}
}
