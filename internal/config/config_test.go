package config

import (
	"fmt"
	"testing"
)

// mapBackend is an in-memory ConfigBackend for tests.
type mapBackend struct {
	data map[string]any
}

func (b *mapBackend) GetString(key string) (string, bool, error) {
	v, ok := b.data[key]
	if !ok {
		return "", false, nil
	}
	s, ok := v.(string)
	if !ok {
		return fmt.Sprintf("%v", v), true, nil
	}
	return s, true, nil
}

func (b *mapBackend) GetInt(key string) (int, bool, error) {
	v, ok := b.data[key]
	if !ok {
		return 0, false, nil
	}
	i, ok := v.(int)
	if !ok {
		return 0, true, fmt.Errorf("invalid type for %s", key)
	}
	return i, true, nil
}

func (b *mapBackend) SetString(key, val string) error {
	b.data[key] = val
	return nil
}

func (b *mapBackend) SetInt(key string, val int) error {
	b.data[key] = val
	return nil
}

func (b *mapBackend) Delete(key string) error {
	delete(b.data, key)
	return nil
}

// mockKeychain is a test double for the secret store.
type mockKeychain struct {
	value string
	err   error
}

func (m mockKeychain) Get(service, account string) (string, error) {
	return m.value, m.err
}

func TestDefaults(t *testing.T) {
	t.Setenv("FEEDLENS_BOOTSTRAP_PASSWORD", "")

	cfg, err := loadWith(&mapBackend{data: map[string]any{}}, mockKeychain{err: fmt.Errorf("no store")})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.Server.Port != 4000 {
		t.Errorf("Server.Port = %d, want 4000", cfg.Server.Port)
	}
	if cfg.Server.MCPPort != 4001 {
		t.Errorf("Server.MCPPort = %d, want 4001", cfg.Server.MCPPort)
	}
	if cfg.Auth.SessionTTLMinutes != 480 {
		t.Errorf("Auth.SessionTTLMinutes = %d, want 480", cfg.Auth.SessionTTLMinutes)
	}
	if cfg.Auth.AdminUsername != "admin" {
		t.Errorf("Auth.AdminUsername = %q, want %q", cfg.Auth.AdminUsername, "admin")
	}
	if cfg.Log.Level != "info" {
		t.Errorf("Log.Level = %q, want %q", cfg.Log.Level, "info")
	}
	if cfg.Storage.DataDir == "" {
		t.Error("Storage.DataDir is empty")
	}
}

func TestBackendValues(t *testing.T) {
	t.Setenv("FEEDLENS_SERVER_PORT", "")
	t.Setenv("FEEDLENS_STORAGE_DATA_DIR", "")

	b := &mapBackend{data: map[string]any{
		"server.port":              5000,
		"server.mcp_port":          5001,
		"storage.data_dir":         "/tmp/feedlens-test",
		"auth.session_ttl_minutes": 30,
		"log.level":                "debug",
	}}
	cfg, err := loadWith(b, mockKeychain{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.Server.Port != 5000 {
		t.Errorf("Server.Port = %d, want 5000", cfg.Server.Port)
	}
	if cfg.Server.MCPPort != 5001 {
		t.Errorf("Server.MCPPort = %d, want 5001", cfg.Server.MCPPort)
	}
	if cfg.Storage.DataDir != "/tmp/feedlens-test" {
		t.Errorf("Storage.DataDir = %q", cfg.Storage.DataDir)
	}
	if cfg.Auth.SessionTTLMinutes != 30 {
		t.Errorf("Auth.SessionTTLMinutes = %d, want 30", cfg.Auth.SessionTTLMinutes)
	}
	if cfg.Log.Level != "debug" {
		t.Errorf("Log.Level = %q, want debug", cfg.Log.Level)
	}
}

func TestEnvOverride(t *testing.T) {
	b := &mapBackend{data: map[string]any{
		"server.port": 5000,
	}}

	t.Setenv("FEEDLENS_SERVER_PORT", "6000")
	t.Setenv("FEEDLENS_LOG_LEVEL", "warn")

	cfg, err := loadWith(b, mockKeychain{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.Server.Port != 6000 {
		t.Errorf("Server.Port = %d, want env override 6000", cfg.Server.Port)
	}
	if cfg.Log.Level != "warn" {
		t.Errorf("Log.Level = %q, want warn", cfg.Log.Level)
	}
}

func TestBootstrapPasswordFromEnv(t *testing.T) {
	t.Setenv("FEEDLENS_BOOTSTRAP_PASSWORD", "env-secret")

	cfg, err := loadWith(&mapBackend{data: map[string]any{}}, mockKeychain{value: "store-secret"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Auth.BootstrapPassword != "env-secret" {
		t.Errorf("BootstrapPassword = %q, want env-secret", cfg.Auth.BootstrapPassword)
	}
}

func TestBootstrapPasswordKeychainFallback(t *testing.T) {
	t.Setenv("FEEDLENS_BOOTSTRAP_PASSWORD", "")

	cfg, err := loadWith(&mapBackend{data: map[string]any{}}, mockKeychain{value: "store-secret"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Auth.BootstrapPassword != "store-secret" {
		t.Errorf("BootstrapPassword = %q, want store-secret", cfg.Auth.BootstrapPassword)
	}
}

func TestShowAllHidesSecrets(t *testing.T) {
	infos := ShowAll(defaults())
	for _, info := range infos {
		if info.Key == "auth.bootstrap_password" {
			t.Error("ShowAll exposed a secret key")
		}
	}
	if len(infos) == 0 {
		t.Fatal("ShowAll returned nothing")
	}
}

func TestSessionTTL(t *testing.T) {
	a := AuthConfig{SessionTTLMinutes: 90}
	if got := a.SessionTTL().Minutes(); got != 90 {
		t.Errorf("SessionTTL = %v minutes, want 90", got)
	}
}
