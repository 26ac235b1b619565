package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/pmeredith/marksman/internal/document"
)

const (
	EnvNormalizeDPI           = "MARKSMAN_NORMALIZE_DPI"
	EnvNormalizeTextThreshold = "MARKSMAN_NORMALIZE_TEXT_THRESHOLD"
)

// NormalizeConfig holds document classification and rasterization parameters.
type NormalizeConfig struct {
	DPI           int `toml:"dpi"`
	TextThreshold int `toml:"text_threshold"`
}

// Finalize applies defaults, environment variable overrides, and validation.
func (c *NormalizeConfig) Finalize() error {
	c.loadDefaults()
	c.loadEnv()
	return c.validate()
}

// Merge overwrites non-zero fields from overlay.
func (c *NormalizeConfig) Merge(overlay *NormalizeConfig) {
	if overlay.DPI != 0 {
		c.DPI = overlay.DPI
	}
	if overlay.TextThreshold != 0 {
		c.TextThreshold = overlay.TextThreshold
	}
}

func (c *NormalizeConfig) loadDefaults() {
	if c.DPI == 0 {
		c.DPI = document.DefaultDPI
	}
	if c.TextThreshold == 0 {
		c.TextThreshold = document.DefaultTextThreshold
	}
}

func (c *NormalizeConfig) loadEnv() {
	if v := os.Getenv(EnvNormalizeDPI); v != "" {
		if dpi, err := strconv.Atoi(v); err == nil {
			c.DPI = dpi
		}
	}
	if v := os.Getenv(EnvNormalizeTextThreshold); v != "" {
		if threshold, err := strconv.Atoi(v); err == nil {
			c.TextThreshold = threshold
		}
	}
}

func (c *NormalizeConfig) validate() error {
	if c.DPI < 72 || c.DPI > 600 {
		return fmt.Errorf("invalid dpi: %d", c.DPI)
	}
	if c.TextThreshold < 1 {
		return fmt.Errorf("invalid text_threshold: %d", c.TextThreshold)
	}
	return nil
}
