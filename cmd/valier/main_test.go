package main

import (
	"bytes"
	"context"
	"encoding/json"
	"net"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"valier/internal/config"
	"valier/internal/eventping"
	"valier/internal/store"
	"valier/internal/testsupport"
)

type cliEnv struct {
	cfg        *config.Config
	configPath string
}

func setupCLITestEnv(t *testing.T) cliEnv {
	t.Helper()
	t.Setenv("PORT", "")
	t.Setenv("DISCORD_TOKEN", "")
	t.Setenv("DISCORD_APPLICATION_ID", "")

	cfg := testsupport.NewConfig(t)
	cfg.Paths.APIBind = unusedAddr(t)

	data, err := cfg.Encode()
	if err != nil {
		t.Fatalf("encode config: %v", err)
	}
	path := filepath.Join(testsupport.BaseDir(cfg), "config.toml")
	if err := os.WriteFile(path, data, 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return cliEnv{cfg: cfg, configPath: path}
}

// unusedAddr returns a loopback address nothing is listening on.
func unusedAddr(t *testing.T) string {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	addr := ln.Addr().String()
	_ = ln.Close()
	return addr
}

func runCLI(t *testing.T, args []string, configPath string) (string, string, error) {
	t.Helper()
	cmd := newRootCommand()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	full := args
	if configPath != "" {
		full = append([]string{"--config", configPath}, args...)
	}
	cmd.SetArgs(full)
	err := cmd.ExecuteContext(context.Background())
	return stdout.String(), stderr.String(), err
}

func seedStore(t *testing.T, cfg *config.Config) {
	t.Helper()
	st := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()
	now := time.Date(2026, 3, 1, 14, 0, 0, 0, time.UTC)

	if err := st.RecordKick(ctx, store.KickRecord{
		UserID:   "200",
		GuildID:  "100",
		UserTag:  "mallory",
		KickedBy: "alice",
		Reason:   "spam",
		KickedAt: now,
	}); err != nil {
		t.Fatalf("RecordKick: %v", err)
	}

	snap := eventping.SessionSnapshot{
		ID:            "s-1",
		GuildID:       "100",
		InitiatorID:   "300",
		InitiatorName: "alice",
		ResourceName:  "Event Room - alice",
		Departure:     "15:00",
		Status:        eventping.StatusMonitoring,
		Recipients:    3,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if err := st.RecordTransition(ctx, snap); err != nil {
		t.Fatalf("RecordTransition: %v", err)
	}
	snap.ID = "s-2"
	snap.CreatedAt = now.Add(time.Minute)
	snap.ResourceName = "Event Room - bob"
	snap.Status = eventping.StatusClosed
	if err := st.RecordTransition(ctx, snap); err != nil {
		t.Fatalf("RecordTransition: %v", err)
	}
}

func TestConfigInitWritesSample(t *testing.T) {
	target := filepath.Join(t.TempDir(), "nested", "config.toml")
	stdout, _, err := runCLI(t, []string{"config", "init", "--path", target}, "")
	if err != nil {
		t.Fatalf("config init: %v", err)
	}
	if !strings.Contains(stdout, target) {
		t.Fatalf("expected target path in output, got %q", stdout)
	}
	if _, err := os.Stat(target); err != nil {
		t.Fatalf("sample not written: %v", err)
	}

	if _, _, err := runCLI(t, []string{"config", "init", "--path", target}, ""); err == nil {
		t.Fatal("expected error when config exists without --overwrite")
	}
	if _, _, err := runCLI(t, []string{"config", "init", "--path", target, "--overwrite"}, ""); err != nil {
		t.Fatalf("config init --overwrite: %v", err)
	}
}

func TestConfigValidate(t *testing.T) {
	env := setupCLITestEnv(t)
	stdout, _, err := runCLI(t, []string{"config", "validate"}, env.configPath)
	if err != nil {
		t.Fatalf("config validate: %v", err)
	}
	if !strings.Contains(stdout, "Configuration valid") {
		t.Fatalf("unexpected output %q", stdout)
	}
}

func TestConfigValidateRejectsBadFile(t *testing.T) {
	env := setupCLITestEnv(t)
	bad := filepath.Join(testsupport.BaseDir(env.cfg), "bad.toml")
	if err := os.WriteFile(bad, []byte("[authorization]\nroles = []\n"), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	if _, _, err := runCLI(t, []string{"config", "validate"}, bad); err == nil {
		t.Fatal("expected validation error for empty role list")
	}
}

func TestConfigShowRedactsSecrets(t *testing.T) {
	env := setupCLITestEnv(t)
	stdout, _, err := runCLI(t, []string{"config", "show"}, env.configPath)
	if err != nil {
		t.Fatalf("config show: %v", err)
	}
	if strings.Contains(stdout, "test-token") {
		t.Fatalf("token leaked in output:\n%s", stdout)
	}
	if !strings.Contains(stdout, "[discord]") {
		t.Fatalf("expected discord section, got:\n%s", stdout)
	}
}

func TestKicksCommand(t *testing.T) {
	env := setupCLITestEnv(t)
	seedStore(t, env.cfg)

	stdout, _, err := runCLI(t, []string{"kicks"}, env.configPath)
	if err != nil {
		t.Fatalf("kicks: %v", err)
	}
	if !strings.Contains(stdout, "mallory") || !strings.Contains(stdout, "spam") {
		t.Fatalf("kick row missing:\n%s", stdout)
	}

	stdout, _, err = runCLI(t, []string{"kicks", "-o", "json"}, env.configPath)
	if err != nil {
		t.Fatalf("kicks json: %v", err)
	}
	var rows []kickRow
	if err := json.Unmarshal([]byte(stdout), &rows); err != nil {
		t.Fatalf("decode: %v\n%s", err, stdout)
	}
	if len(rows) != 1 || rows[0].Status != store.ApplicationDenied {
		t.Fatalf("unexpected rows %+v", rows)
	}
}

func TestKicksCommandEmpty(t *testing.T) {
	env := setupCLITestEnv(t)
	stdout, _, err := runCLI(t, []string{"kicks"}, env.configPath)
	if err != nil {
		t.Fatalf("kicks: %v", err)
	}
	if !strings.Contains(stdout, "No kicks recorded") {
		t.Fatalf("unexpected output %q", stdout)
	}
}

func TestSessionsFallsBackToStore(t *testing.T) {
	env := setupCLITestEnv(t)
	seedStore(t, env.cfg)

	stdout, _, err := runCLI(t, []string{"sessions"}, env.configPath)
	if err != nil {
		t.Fatalf("sessions: %v", err)
	}
	if !strings.Contains(stdout, "daemon not running") {
		t.Fatalf("expected fallback title:\n%s", stdout)
	}
	if !strings.Contains(stdout, "Event Room - alice") {
		t.Fatalf("open session missing:\n%s", stdout)
	}
	if strings.Contains(stdout, "Event Room - bob") {
		t.Fatalf("closed session listed without --all:\n%s", stdout)
	}

	stdout, _, err = runCLI(t, []string{"sessions", "--all"}, env.configPath)
	if err != nil {
		t.Fatalf("sessions --all: %v", err)
	}
	if !strings.Contains(stdout, "Event Room - bob") {
		t.Fatalf("history missing closed session:\n%s", stdout)
	}
}

func TestStatusWhenDaemonStopped(t *testing.T) {
	env := setupCLITestEnv(t)
	stdout, _, err := runCLI(t, []string{"status"}, env.configPath)
	if err != nil {
		t.Fatalf("status: %v", err)
	}
	if !strings.Contains(stdout, "not running") {
		t.Fatalf("expected not running:\n%s", stdout)
	}
}

func TestStopWithoutDaemon(t *testing.T) {
	env := setupCLITestEnv(t)
	stdout, _, err := runCLI(t, []string{"stop"}, env.configPath)
	if err != nil {
		t.Fatalf("stop: %v", err)
	}
	if !strings.Contains(strings.ToLower(stdout), "not running") {
		t.Fatalf("unexpected output %q", stdout)
	}
}

func TestParseFormat(t *testing.T) {
	tests := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{"", formatTable, false},
		{"table", formatTable, false},
		{" JSON ", formatJSON, false},
		{"yaml", formatYAML, false},
		{"xml", "", true},
	}
	for _, tt := range tests {
		got, err := parseFormat(tt.in)
		if (err != nil) != tt.wantErr {
			t.Fatalf("parseFormat(%q) err = %v", tt.in, err)
		}
		if got != tt.want {
			t.Fatalf("parseFormat(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestRenderTablePadsShortRows(t *testing.T) {
	out := renderTable("Title", []string{"A", "B"}, [][]string{{"one"}}, []columnAlignment{alignLeft, alignRight})
	if !strings.Contains(out, "Title") || !strings.Contains(out, "one") {
		t.Fatalf("unexpected table:\n%s", out)
	}
	if renderTable("", nil, nil, nil) != "" {
		t.Fatal("expected empty output without headers")
	}
}

func TestLogsCommandFilters(t *testing.T) {
	env := setupCLITestEnv(t)
	logPath := filepath.Join(env.cfg.Paths.LogDir, "valier.log")
	content := strings.Join([]string{
		`2026-03-01T14:00:00Z INFO daemon: daemon started`,
		`2026-03-01T14:00:01Z WARN eventping: notification failed session_id=s-1`,
		`2026-03-01T14:00:02Z INFO eventping: room closed session_id=s-2`,
	}, "\n") + "\n"
	if err := os.MkdirAll(env.cfg.Paths.LogDir, 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(logPath, []byte(content), 0o644); err != nil {
		t.Fatalf("write log: %v", err)
	}

	stdout, _, err := runCLI(t, []string{"logs", "-n", "2"}, env.configPath)
	if err != nil {
		t.Fatalf("logs: %v", err)
	}
	if strings.Contains(stdout, "daemon started") || !strings.Contains(stdout, "room closed") {
		t.Fatalf("expected last two lines:\n%s", stdout)
	}

	stdout, _, err = runCLI(t, []string{"logs", "--level", "warn"}, env.configPath)
	if err != nil {
		t.Fatalf("logs --level: %v", err)
	}
	if strings.TrimSpace(stdout) != `2026-03-01T14:00:01Z WARN eventping: notification failed session_id=s-1` {
		t.Fatalf("unexpected filtered output:\n%s", stdout)
	}

	stdout, _, err = runCLI(t, []string{"logs", "--session", "s-2"}, env.configPath)
	if err != nil {
		t.Fatalf("logs --session: %v", err)
	}
	if !strings.Contains(stdout, "room closed") || strings.Contains(stdout, "notification failed") {
		t.Fatalf("unexpected session output:\n%s", stdout)
	}
}
