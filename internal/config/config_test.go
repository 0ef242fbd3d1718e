package config

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "botdb.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadValidConfig(t *testing.T) {
	path := writeConfig(t, `version: 1
server:
  port: 9000
connect:
  query_timeout: 5s
sessions:
  retain_credentials: true
logging:
  level: debug
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.Server.Port != 9000 {
		t.Errorf("expected port 9000, got %d", cfg.Server.Port)
	}
	if cfg.Connect.QueryTimeout != 5*time.Second {
		t.Errorf("expected query timeout 5s, got %s", cfg.Connect.QueryTimeout)
	}
	if cfg.Connect.ConnectTimeout != 10*time.Second {
		t.Errorf("expected default connect timeout 10s, got %s", cfg.Connect.ConnectTimeout)
	}
	if !cfg.Sessions.RetainCredentials {
		t.Error("expected retain_credentials true")
	}
	if cfg.Logging.Level != "debug" {
		t.Errorf("expected log level debug, got %s", cfg.Logging.Level)
	}
	if cfg.Logging.Format != "text" {
		t.Errorf("expected default log format text, got %s", cfg.Logging.Format)
	}
	if cfg.Server.BindAddr != "0.0.0.0" {
		t.Errorf("expected default bind addr, got %s", cfg.Server.BindAddr)
	}
	if len(cfg.Server.AllowedOrigins) != 1 || cfg.Server.AllowedOrigins[0] != "*" {
		t.Errorf("expected allowed origins [*], got %v", cfg.Server.AllowedOrigins)
	}
}

func TestLoadEnvOverridesFile(t *testing.T) {
	path := writeConfig(t, `version: 1
server:
  port: 9000
`)
	t.Setenv("BOTDB_PORT", "9100")
	t.Setenv("BOTDB_DISABLE_CORS", "true")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Server.Port != 9100 {
		t.Errorf("expected env port 9100, got %d", cfg.Server.Port)
	}
	if !cfg.Server.DisableCORS {
		t.Error("expected CORS disabled from env")
	}
}

func TestLoadInvalidVersion(t *testing.T) {
	path := writeConfig(t, `version: 99
`)
	if _, err := Load(path); err == nil {
		t.Fatal("expected error for invalid version")
	}
}

func TestLoadMissingExplicitPath(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "absent.yaml")); err == nil {
		t.Fatal("expected error for missing explicit config file")
	}
}

func TestLoadDefaultPathAbsent(t *testing.T) {
	t.Setenv("HOME", t.TempDir())

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Version != CurrentVersion {
		t.Errorf("expected version %d, got %d", CurrentVersion, cfg.Version)
	}
	if cfg.Server.Port != 8820 {
		t.Errorf("expected default port 8820, got %d", cfg.Server.Port)
	}
	if cfg.Catalog.BaseURL == "" {
		t.Error("expected default catalog base url")
	}
}

func TestValidate(t *testing.T) {
	path := writeConfig(t, `version: 1
server:
  port: 70000
logging:
  format: xml
`)
	_, err := Load(path)
	if err == nil {
		t.Fatal("expected validation error")
	}
	for _, want := range []string{"server.port", "logging.format"} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("error %q should mention %s", err, want)
		}
	}
}

func TestSaveRoundTrip(t *testing.T) {
	path := writeConfig(t, `version: 1
server:
  port: 9001
  shutdown_timeout: 3s
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	cfg.Secrets.VaultToken = "should-not-be-written"

	out := filepath.Join(t.TempDir(), "nested", "botdb.yaml")
	if err := cfg.Save(out); err != nil {
		t.Fatalf("Save: %v", err)
	}
	data, err := os.ReadFile(out)
	if err != nil {
		t.Fatal(err)
	}
	if strings.Contains(string(data), "should-not-be-written") {
		t.Error("vault token must not be persisted")
	}

	again, err := Load(out)
	if err != nil {
		t.Fatalf("reloading saved config: %v", err)
	}
	if again.Server.Port != 9001 || again.Server.ShutdownTimeout != 3*time.Second {
		t.Errorf("round trip mismatch: %+v", again.Server)
	}
}

func TestResolveEnvSecret(t *testing.T) {
	t.Setenv("TEST_SECRET", "mysecret")
	val, err := SecretsConfig{}.Resolve(context.Background(), "${ENV:TEST_SECRET}")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if val != "mysecret" {
		t.Errorf("expected mysecret, got %s", val)
	}
}

func TestResolveEnvSecret_Unset(t *testing.T) {
	t.Setenv("TEST_SECRET_UNSET", "")
	if _, err := (SecretsConfig{}).Resolve(context.Background(), "${ENV:TEST_SECRET_UNSET}"); err == nil {
		t.Fatal("expected error for unset variable")
	}
}

func TestResolvePlainValue(t *testing.T) {
	for _, in := range []string{"plaintext", "pre${ENV:X}", "${ENV:X}post", ""} {
		val, err := SecretsConfig{}.Resolve(context.Background(), in)
		if err != nil {
			t.Fatalf("unexpected error for %q: %v", in, err)
		}
		if val != in {
			t.Errorf("expected %q unchanged, got %q", in, val)
		}
	}
}

func TestIsSecretRef(t *testing.T) {
	if !IsSecretRef("${VAULT:secret/data/x#k}") {
		t.Error("expected vault reference to match")
	}
	if IsSecretRef("hunter2") {
		t.Error("plain password should not match")
	}
}
