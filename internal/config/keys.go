package config

import (
	"fmt"
	"os"
	"strconv"
)

type keyType int

const (
	kString keyType = iota
	kInt
)

type keySpec struct {
	key     string
	typ     keyType
	env     string
	secret  bool
	apply   func(cfg *Config, v any)
	extract func(cfg Config) any
}

var specs = []keySpec{
	{
		key: "server.port", typ: kInt, env: "FEEDLENS_SERVER_PORT",
		apply:   func(cfg *Config, v any) { cfg.Server.Port = v.(int) },
		extract: func(cfg Config) any { return cfg.Server.Port },
	},
	{
		key: "server.mcp_port", typ: kInt, env: "FEEDLENS_SERVER_MCP_PORT",
		apply:   func(cfg *Config, v any) { cfg.Server.MCPPort = v.(int) },
		extract: func(cfg Config) any { return cfg.Server.MCPPort },
	},
	{
		key: "storage.data_dir", typ: kString, env: "FEEDLENS_STORAGE_DATA_DIR",
		apply:   func(cfg *Config, v any) { cfg.Storage.DataDir = v.(string) },
		extract: func(cfg Config) any { return cfg.Storage.DataDir },
	},
	{
		key: "auth.session_ttl_minutes", typ: kInt, env: "FEEDLENS_AUTH_SESSION_TTL_MINUTES",
		apply:   func(cfg *Config, v any) { cfg.Auth.SessionTTLMinutes = v.(int) },
		extract: func(cfg Config) any { return cfg.Auth.SessionTTLMinutes },
	},
	{
		key: "auth.admin_username", typ: kString, env: "FEEDLENS_AUTH_ADMIN_USERNAME",
		apply:   func(cfg *Config, v any) { cfg.Auth.AdminUsername = v.(string) },
		extract: func(cfg Config) any { return cfg.Auth.AdminUsername },
	},
	{
		key: "auth.admin_email", typ: kString, env: "FEEDLENS_AUTH_ADMIN_EMAIL",
		apply:   func(cfg *Config, v any) { cfg.Auth.AdminEmail = v.(string) },
		extract: func(cfg Config) any { return cfg.Auth.AdminEmail },
	},
	{
		key: "auth.bootstrap_password", typ: kString, env: "FEEDLENS_BOOTSTRAP_PASSWORD",
		secret:  true,
		apply:   func(cfg *Config, v any) { cfg.Auth.BootstrapPassword = v.(string) },
		extract: func(cfg Config) any { return cfg.Auth.BootstrapPassword },
	},
	{
		key: "log.level", typ: kString, env: "FEEDLENS_LOG_LEVEL",
		apply:   func(cfg *Config, v any) { cfg.Log.Level = v.(string) },
		extract: func(cfg Config) any { return cfg.Log.Level },
	},
}

func applyBackend(cfg *Config, b ConfigBackend) error {
	for _, s := range specs {
		if s.secret {
			continue
		}
		switch s.typ {
		case kString:
			v, ok, err := b.GetString(s.key)
			if err != nil {
				return fmt.Errorf("reading %s: %w", s.key, err)
			}
			if ok {
				s.apply(cfg, v)
			}
		case kInt:
			v, ok, err := b.GetInt(s.key)
			if err != nil {
				return fmt.Errorf("reading %s: %w", s.key, err)
			}
			if ok {
				s.apply(cfg, v)
			}
		}
	}
	return nil
}

func applyEnvOverrides(cfg *Config) {
	for _, s := range specs {
		if s.env == "" {
			continue
		}
		raw := os.Getenv(s.env)
		if raw == "" {
			continue
		}
		switch s.typ {
		case kString:
			s.apply(cfg, raw)
		case kInt:
			if i, err := strconv.Atoi(raw); err == nil {
				s.apply(cfg, i)
			} else {
				fmt.Fprintf(os.Stderr, "[WARN] could not parse integer from env var %s=%q: %v. Using default value.\n", s.env, raw, err)
			}
		}
	}
}
