// Package config loads process configuration from the environment.
package config

import (
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// Config holds helper configuration loaded from IDP_LOGIN_* environment
// variables. It is resolved once in main and passed explicitly into the
// components that need it; nothing reads the environment after startup.
type Config struct {
	DatabasePath string        `envconfig:"DATABASE_PATH" default:"/etc/idp_login.sqlite"`
	PollInterval time.Duration `envconfig:"POLL_INTERVAL" default:"5s"`
	PollTimeout  time.Duration `envconfig:"POLL_TIMEOUT" default:"60s"`
	HTTPTimeout  time.Duration `envconfig:"HTTP_TIMEOUT" default:"10s"`
	HomeRoot     string        `envconfig:"HOME_ROOT" default:"/home"`
	LogLevel     string        `envconfig:"LOG_LEVEL" default:"info"`
}

// Load reads configuration from the environment.
func Load() (Config, error) {
	var cfg Config
	if err := envconfig.Process("idp_login", &cfg); err != nil {
		return Config{}, fmt.Errorf("loading configuration: %w", err)
	}
	return cfg, nil
}
