package logging_test

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"valier/internal/config"
	"valier/internal/logging"
	"valier/internal/services"
)

func readLog(t *testing.T, path string) string {
	t.Helper()
	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	return string(content)
}

func TestNewFromConfigConsole(t *testing.T) {
	cfg := config.Default()
	cfg.Paths.LogDir = t.TempDir()
	logPath := filepath.Join(cfg.Paths.LogDir, "valier.log")

	logger, err := logging.NewFromConfig(&cfg, logPath)
	if err != nil {
		t.Fatalf("NewFromConfig returned error: %v", err)
	}
	logger.Info("started", logging.String(logging.FieldComponent, "daemon"))

	content := readLog(t, logPath)
	if !strings.Contains(content, "INFO daemon: started") {
		t.Fatalf("expected component prefix in console line, got %q", content)
	}
}

func TestConsoleLoggerOmitsSourceForInfo(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "console-info.log")
	logger, err := logging.New(logging.Options{Format: "console", Level: "info", OutputPaths: []string{logPath}})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}

	logger.Info("message without source")

	if content := readLog(t, logPath); strings.Contains(content, ".go:") {
		t.Fatalf("expected no source information in info logs, got %q", content)
	}
}

func TestConsoleLoggerIncludesSourceForDebug(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "console-debug.log")
	logger, err := logging.New(logging.Options{Format: "console", Level: "debug", OutputPaths: []string{logPath}})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}

	logger.Debug("message with source")

	if content := readLog(t, logPath); !strings.Contains(content, "logger_test.go:") {
		t.Fatalf("expected source information in debug logs, got %q", content)
	}
}

func TestConsoleLoggerQuotesValuesWithSpaces(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "console-quote.log")
	logger, err := logging.New(logging.Options{Format: "console", Level: "info", OutputPaths: []string{logPath}})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}

	logger.Info("channel created", logging.String("name", "Event Room - alice"), logging.Int("members", 3))

	content := readLog(t, logPath)
	if !strings.Contains(content, `name="Event Room - alice"`) {
		t.Fatalf("expected quoted value, got %q", content)
	}
	if !strings.Contains(content, "members=3") {
		t.Fatalf("expected bare integer value, got %q", content)
	}
	if strings.Contains(content, "\x1b[") {
		t.Fatalf("expected no colour codes in file output, got %q", content)
	}
}

func TestConsoleLoggerForcedColour(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "console-colour.log")
	color := true
	logger, err := logging.New(logging.Options{Format: "console", Level: "info", OutputPaths: []string{logPath}, Color: &color})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}

	logger.Warn("slow poll")

	if content := readLog(t, logPath); !strings.Contains(content, "\x1b[33mWARN\x1b[0m") {
		t.Fatalf("expected coloured level label, got %q", content)
	}
}

func TestJSONLoggerFields(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "json.log")
	logger, err := logging.New(logging.Options{Format: "json", Level: "info", OutputPaths: []string{logPath}})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}

	logger.Info("session closed", logging.String(logging.FieldSessionID, "123"))

	var entry map[string]any
	if err := json.Unmarshal([]byte(strings.TrimSpace(readLog(t, logPath))), &entry); err != nil {
		t.Fatalf("decode json log: %v", err)
	}
	if entry["msg"] != "session closed" {
		t.Fatalf("unexpected msg: %v", entry["msg"])
	}
	if entry["level"] != "info" {
		t.Fatalf("expected lower-case level, got %v", entry["level"])
	}
	if _, err := time.Parse(time.RFC3339, entry["ts"].(string)); err != nil {
		t.Fatalf("expected RFC3339 ts, got %v", entry["ts"])
	}
	if entry[logging.FieldSessionID] != "123" {
		t.Fatalf("expected session id, got %v", entry[logging.FieldSessionID])
	}
}

func TestNewRejectsUnknownFormat(t *testing.T) {
	if _, err := logging.New(logging.Options{Format: "xml"}); err == nil {
		t.Fatal("expected error for unsupported format")
	}
}

func TestWithContextAddsFields(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "context.log")
	base, err := logging.New(logging.Options{Format: "console", Level: "info", OutputPaths: []string{logPath}})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}

	ctx := services.WithRequestID(context.Background(), "req-1")
	ctx = services.WithGuildID(ctx, "guild-9")
	ctx = services.WithCommand(ctx, "eventping")
	logging.WithContext(ctx, base).Info("handling")

	content := readLog(t, logPath)
	for _, want := range []string{"request_id=req-1", "guild_id=guild-9", "command=eventping"} {
		if !strings.Contains(content, want) {
			t.Fatalf("expected %q in %q", want, content)
		}
	}
}

func TestWarnWithContextInjectsDefaults(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "warn.log")
	logger, err := logging.New(logging.Options{Format: "console", Level: "info", OutputPaths: []string{logPath}})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}

	logging.WarnWithContext(logger, "dm failed", "dm_failed", logging.String(logging.FieldErrorHint, "member blocks DMs"))

	content := readLog(t, logPath)
	if !strings.Contains(content, "event_type=dm_failed") {
		t.Fatalf("expected event type, got %q", content)
	}
	if !strings.Contains(content, `error_hint="member blocks DMs"`) {
		t.Fatalf("expected caller hint to win, got %q", content)
	}
	if !strings.Contains(content, "impact=") {
		t.Fatalf("expected default impact, got %q", content)
	}
}

func TestNopLoggerIsSafe(t *testing.T) {
	logger := logging.NewNop()
	logger.Info("ignored")
	logging.NewComponentLogger(nil, "x").Warn("ignored")
	logging.WarnWithContext(nil, "ignored", "ignored")
}
