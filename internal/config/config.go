// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Refugia Contributors

// Package config loads and validates the service configuration from a YAML
// file, command-line flags, and a small set of environment overrides.
package config

import (
	"os"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/samber/oops"
	"github.com/spf13/pflag"

	"github.com/refugia/authd/internal/auth"
)

// SecretEnvVar overrides auth.secret so the signing key can stay out of the
// config file.
const SecretEnvVar = "AUTHD_SECRET"

// Config is the full service configuration.
type Config struct {
	Server   ServerConfig   `koanf:"server"`
	Metrics  MetricsConfig  `koanf:"metrics"`
	Database DatabaseConfig `koanf:"database"`
	Auth     AuthConfig     `koanf:"auth"`
	Log      LogConfig      `koanf:"log"`
	SMTP     SMTPConfig     `koanf:"smtp"`
	WhatsApp WhatsAppConfig `koanf:"whatsapp"`
}

type ServerConfig struct {
	Addr           string   `koanf:"addr"`
	AllowedOrigins []string `koanf:"allowed_origins"`
}

type MetricsConfig struct {
	Addr string `koanf:"addr"`
}

type DatabaseConfig struct {
	URL string `koanf:"url"`
}

type AuthConfig struct {
	Secret       string `koanf:"secret"`
	SessionHours int    `koanf:"session_hours"`
}

type LogConfig struct {
	Format string `koanf:"format"`
}

type SMTPConfig struct {
	Host     string `koanf:"host"`
	Port     int    `koanf:"port"`
	Username string `koanf:"username"`
	Password string `koanf:"password"`
	From     string `koanf:"from"`
}

type WhatsAppConfig struct {
	PrimaryURL       string `koanf:"primary_url"`
	PrimaryToken     string `koanf:"primary_token"`
	UltraMsgInstance string `koanf:"ultramsg_instance"`
	UltraMsgToken    string `koanf:"ultramsg_token"`
}

// SessionTTL converts the configured hours to a duration.
func (a AuthConfig) SessionTTL() time.Duration {
	return time.Duration(a.SessionHours) * time.Hour
}

// Load reads path (if non-empty), overlays flags, applies environment
// overrides, and validates the result.
func Load(path string, flags *pflag.FlagSet) (*Config, error) {
	k := koanf.New(".")

	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, oops.Code("CONFIG_FILE_UNREADABLE").With("path", path).Wrap(err)
		}
	}

	if flags != nil {
		if err := k.Load(posflag.Provider(flags, ".", k), nil); err != nil {
			return nil, oops.Code("CONFIG_FLAGS_INVALID").Wrap(err)
		}
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, oops.Code("CONFIG_UNMARSHAL_FAILED").Wrap(err)
	}

	if secret := os.Getenv(SecretEnvVar); secret != "" {
		cfg.Auth.Secret = secret
	}

	cfg.applyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Server.Addr == "" {
		c.Server.Addr = ":8080"
	}
	if c.Metrics.Addr == "" {
		c.Metrics.Addr = ":9090"
	}
	if c.Auth.SessionHours <= 0 {
		c.Auth.SessionHours = int(auth.DefaultSessionTTL / time.Hour)
	}
	if c.Log.Format == "" {
		c.Log.Format = "json"
	}
	if c.SMTP.Port == 0 {
		c.SMTP.Port = 587
	}
}

// Validate rejects configurations the service cannot safely start with.
func (c *Config) Validate() error {
	if c.Database.URL == "" {
		return oops.Code("CONFIG_INVALID").Errorf("database.url is required")
	}
	if c.Auth.Secret == "" {
		return oops.Code("CONFIG_INVALID").
			Errorf("auth.secret is required (or set %s)", SecretEnvVar)
	}
	if len(c.Auth.Secret) < auth.MinSecretLength {
		return oops.Code("CONFIG_INVALID").
			With("length", len(c.Auth.Secret)).
			Errorf("auth.secret must be at least %d bytes", auth.MinSecretLength)
	}
	if c.Log.Format != "json" && c.Log.Format != "text" {
		return oops.Code("CONFIG_INVALID").
			With("format", c.Log.Format).
			Errorf("log.format must be json or text")
	}
	return nil
}
