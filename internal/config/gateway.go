package config

import (
	"fmt"
	"os"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/pmeredith/marksman/internal/gateway"
)

const (
	EnvGatewayAPIKey           = "MARKSMAN_GEMINI_API_KEY"
	EnvGatewayModels           = "MARKSMAN_GATEWAY_MODELS"
	EnvGatewayAttemptTimeout   = "MARKSMAN_GATEWAY_ATTEMPT_TIMEOUT"
	EnvGatewayTransientRetries = "MARKSMAN_GATEWAY_TRANSIENT_RETRIES"
)

// GatewayConfig holds model gateway parameters. The Gemini API key is
// environment-only and never read from config files.
type GatewayConfig struct {
	Models           []string `toml:"models"`
	AttemptTimeout   string   `toml:"attempt_timeout"`
	TransientRetries int      `toml:"transient_retries"`

	apiKey string
}

// APIKey returns the Gemini API key from the environment.
func (c *GatewayConfig) APIKey() string {
	return c.apiKey
}

// AttemptTimeoutDuration returns AttemptTimeout as a time.Duration.
func (c *GatewayConfig) AttemptTimeoutDuration() time.Duration {
	d, _ := time.ParseDuration(c.AttemptTimeout)
	return d
}

// Options returns the gateway options captured by this config.
func (c *GatewayConfig) Options() gateway.Options {
	return gateway.Options{
		Models:           c.Models,
		AttemptTimeout:   c.AttemptTimeoutDuration(),
		TransientRetries: c.TransientRetries,
	}
}

// Finalize applies defaults, environment variable overrides, and validation.
func (c *GatewayConfig) Finalize() error {
	c.loadDefaults()
	c.loadEnv()
	return c.validate()
}

// Merge overwrites non-zero fields from overlay.
func (c *GatewayConfig) Merge(overlay *GatewayConfig) {
	if overlay.Models != nil {
		c.Models = overlay.Models
	}
	if overlay.AttemptTimeout != "" {
		c.AttemptTimeout = overlay.AttemptTimeout
	}
	if overlay.TransientRetries != 0 {
		c.TransientRetries = overlay.TransientRetries
	}
}

func (c *GatewayConfig) loadDefaults() {
	if len(c.Models) == 0 {
		c.Models = slices.Clone(gateway.DefaultModels)
	}
	if c.AttemptTimeout == "" {
		c.AttemptTimeout = gateway.DefaultAttemptTimeout.String()
	}
	if c.TransientRetries == 0 {
		c.TransientRetries = gateway.DefaultTransientRetries
	}
}

func (c *GatewayConfig) loadEnv() {
	c.apiKey = os.Getenv(EnvGatewayAPIKey)

	if v := os.Getenv(EnvGatewayModels); v != "" {
		models := strings.Split(v, ",")
		c.Models = make([]string, 0, len(models))
		for _, model := range models {
			if trimmed := strings.TrimSpace(model); trimmed != "" {
				c.Models = append(c.Models, trimmed)
			}
		}
	}
	if v := os.Getenv(EnvGatewayAttemptTimeout); v != "" {
		c.AttemptTimeout = v
	}
	if v := os.Getenv(EnvGatewayTransientRetries); v != "" {
		if retries, err := strconv.Atoi(v); err == nil {
			c.TransientRetries = retries
		}
	}
}

func (c *GatewayConfig) validate() error {
	if len(c.Models) == 0 {
		return fmt.Errorf("at least one model required")
	}
	if _, err := time.ParseDuration(c.AttemptTimeout); err != nil {
		return fmt.Errorf("invalid attempt_timeout: %w", err)
	}
	if c.TransientRetries < 0 {
		return fmt.Errorf("invalid transient_retries: %d", c.TransientRetries)
	}
	return nil
}
