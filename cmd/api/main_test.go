package main

import (
	"bytes"
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/mandalnilabja/chatrelay/internal/config"
)

func runCLI(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(io.Discard)
	rootCmd.SetArgs(append([]string{"--env-file", ""}, args...))
	err := rootCmd.Execute()
	return out.String(), err
}

func TestCLI_ProfileAndKeyLifecycle(t *testing.T) {
	t.Setenv("DATA_DIR", t.TempDir())
	t.Setenv("CHATRELAY_ENCRYPTION_KEY", "cli-test-key")

	out, err := runCLI(t, "profile", "create", "--name", "alice", "--openrouter-key", "")
	if err != nil {
		t.Fatalf("profile create failed: %v", err)
	}
	if !strings.Contains(out, "No OpenRouter key set") {
		t.Errorf("expected missing key hint, got %q", out)
	}
	fields := strings.Fields(out)
	if len(fields) < 3 {
		t.Fatalf("unexpected output %q", out)
	}
	profileID := fields[2]

	out, err = runCLI(t, "profile", "set-key", "--id", profileID, "--openrouter-key", "sk-or-v1-0123456789abcdef")
	if err != nil {
		t.Fatalf("profile set-key failed: %v", err)
	}
	if strings.Contains(out, "0123456789abcdef") {
		t.Errorf("key must be masked in output: %q", out)
	}

	out, err = runCLI(t, "profile", "list")
	if err != nil {
		t.Fatalf("profile list failed: %v", err)
	}
	if !strings.Contains(out, profileID) || !strings.Contains(out, "sk-or-...cdef") {
		t.Errorf("expected profile with masked key, got %q", out)
	}

	out, err = runCLI(t, "key", "create", "--profile", profileID, "--name", "laptop", "--rate-limit", "30")
	if err != nil {
		t.Fatalf("key create failed: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(out), "\n")
	plain := lines[len(lines)-1]
	if !strings.HasPrefix(plain, "cr_") {
		t.Errorf("expected plaintext key on last line, got %q", plain)
	}
	keyID := strings.Fields(lines[0])[2]

	out, err = runCLI(t, "key", "list", "--profile", profileID)
	if err != nil {
		t.Fatalf("key list failed: %v", err)
	}
	if !strings.Contains(out, keyID) || strings.Contains(out, plain) {
		t.Errorf("expected key listed without secret, got %q", out)
	}

	if _, err := runCLI(t, "key", "revoke", "--id", keyID); err != nil {
		t.Fatalf("key revoke failed: %v", err)
	}

	out, err = runCLI(t, "logs")
	if err != nil {
		t.Fatalf("logs failed: %v", err)
	}
	if !strings.Contains(out, "No requests logged.") {
		t.Errorf("expected empty log output, got %q", out)
	}

	if _, err := runCLI(t, "profile", "delete", "--id", profileID); err != nil {
		t.Fatalf("profile delete failed: %v", err)
	}
	if _, err := runCLI(t, "profile", "set-key", "--id", profileID, "--openrouter-key", "x"); err == nil {
		t.Error("expected error for deleted profile")
	}
}

func TestCLI_RequiredFlags(t *testing.T) {
	t.Setenv("DATA_DIR", t.TempDir())

	if _, err := runCLI(t, "key", "revoke", "--id", ""); err == nil {
		t.Error("expected error without --id")
	}
	if _, err := runCLI(t, "profile", "create", "--name", " "); err == nil {
		t.Error("expected error without --name")
	}
}

func TestSetupLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := setupLogger(&config.Config{LogLevel: "warn", LogFormat: "json"}, &buf)

	logger.Info("hidden")
	logger.Warn("shown", "k", "v")

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Error("info must be filtered at warn level")
	}
	if !strings.HasPrefix(out, "{") || !strings.Contains(out, `"k":"v"`) {
		t.Errorf("expected json output, got %q", out)
	}
}

func TestParseLevel(t *testing.T) {
	tests := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		"INFO":    slog.LevelInfo,
		"warning": slog.LevelWarn,
		"error":   slog.LevelError,
		"bogus":   slog.LevelInfo,
	}
	for in, want := range tests {
		if got := parseLevel(in); got != want {
			t.Errorf("parseLevel(%q) = %v, want %v", in, got, want)
		}
	}
}
