package app

import (
	"context"
	"log"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestSetupLoggingWritesToFile(t *testing.T) {
	t.Cleanup(func() { log.SetOutput(os.Stderr) })
	path := filepath.Join(t.TempDir(), "debug.log")

	closeLog, err := setupLogging("", path)
	if err != nil {
		t.Fatalf("setupLogging returned error: %v", err)
	}
	log.Printf("hello from test")
	closeLog()

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read debug log: %v", err)
	}
	if !strings.Contains(string(data), "hello from test") {
		t.Fatalf("debug log = %q, want logged line", data)
	}
}

func TestSetupLoggingFlagWins(t *testing.T) {
	t.Cleanup(func() { log.SetOutput(os.Stderr) })
	dir := t.TempDir()
	flagPath := filepath.Join(dir, "flag.log")
	cfgPath := filepath.Join(dir, "config.log")

	closeLog, err := setupLogging(flagPath, cfgPath)
	if err != nil {
		t.Fatalf("setupLogging returned error: %v", err)
	}
	closeLog()

	if _, err := os.Stat(flagPath); err != nil {
		t.Fatalf("flag log not created: %v", err)
	}
	if _, err := os.Stat(cfgPath); err == nil {
		t.Fatalf("config log created although flag was set")
	}
}

func TestSetupLoggingBadPath(t *testing.T) {
	t.Cleanup(func() { log.SetOutput(os.Stderr) })
	if _, err := setupLogging(filepath.Join(t.TempDir(), "missing", "debug.log"), ""); err == nil {
		t.Fatalf("setupLogging with missing directory returned nil error")
	}
}

func TestRunRejectsInvalidConfig(t *testing.T) {
	t.Cleanup(func() { log.SetOutput(os.Stderr) })
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "config.toml")
	if err := os.WriteFile(cfgPath, []byte(`cache_ttl = "soon"`), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	err := Run(context.Background(), Options{ConfigPath: cfgPath, PrefsPath: filepath.Join(dir, "prefs.toml")})
	if err == nil || !strings.Contains(err.Error(), "load config") {
		t.Fatalf("Run error = %v, want load config failure", err)
	}
}
