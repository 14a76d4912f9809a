package config

import (
	"strings"
	"time"
)

type Config struct {
	Server  ServerConfig
	Storage StorageConfig
	Auth    AuthConfig
	Log     LogConfig
}

type ServerConfig struct {
	Port    int
	MCPPort int
}

type StorageConfig struct {
	DataDir string
}

type AuthConfig struct {
	SessionTTLMinutes int
	AdminUsername     string
	AdminEmail        string
	BootstrapPassword string
}

type LogConfig struct {
	Level string
}

// SessionTTL returns the configured session lifetime.
func (a AuthConfig) SessionTTL() time.Duration {
	return time.Duration(a.SessionTTLMinutes) * time.Minute
}

func defaults() Config {
	return Config{
		Server: ServerConfig{
			Port:    4000,
			MCPPort: 4001,
		},
		Storage: StorageConfig{
			DataDir: defaultDataDir(),
		},
		Auth: AuthConfig{
			SessionTTLMinutes: 8 * 60,
			AdminUsername:     "admin",
			AdminEmail:        "admin@localhost",
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

// Load reads configuration from the platform-native backend, environment
// variables, and platform secret store.
//
// On macOS the backend is UserDefaults (domain: com.feedlens.app) and the
// bootstrap admin password may come from macOS Keychain.
// On Linux the backend is a JSON file at $XDG_CONFIG_HOME/feedlens/config.json
// and secrets come from environment variables or the secrets file.
//
// Environment variables (FEEDLENS_*) override backend values on all platforms.
func Load() (Config, error) {
	return loadWith(newPlatformBackend(), keychainReader{})
}

// keychain abstracts secret-store access for testing.
type keychain interface {
	Get(service, account string) (string, error)
}

func loadWith(b ConfigBackend, kc keychain) (Config, error) {
	cfg := defaults()

	if err := applyBackend(&cfg, b); err != nil {
		return Config{}, err
	}

	applyEnvOverrides(&cfg)

	// Try the platform secret store for the bootstrap password if still
	// empty. It is only needed on first boot, so its absence is not an
	// error here.
	if cfg.Auth.BootstrapPassword == "" {
		if pw, err := kc.Get("feedlens", "bootstrap_password"); err == nil && pw != "" {
			cfg.Auth.BootstrapPassword = pw
		}
	}

	return cfg, nil
}

// keychainReader reads from the platform secret store.
type keychainReader struct{}

func (keychainReader) Get(service, account string) (string, error) {
	out, err := keychainExec(service, account)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(out)), nil
}
