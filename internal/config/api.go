package config

import (
	"fmt"
	"os"

	"github.com/pmeredith/marksman/pkg/formatting"
	"github.com/pmeredith/marksman/pkg/middleware"
)

var corsEnv = &middleware.CORSEnv{
	Enabled:          "MARKSMAN_CORS_ENABLED",
	Origins:          "MARKSMAN_CORS_ORIGINS",
	AllowedMethods:   "MARKSMAN_CORS_ALLOWED_METHODS",
	AllowedHeaders:   "MARKSMAN_CORS_ALLOWED_HEADERS",
	AllowCredentials: "MARKSMAN_CORS_ALLOW_CREDENTIALS",
	MaxAge:           "MARKSMAN_CORS_MAX_AGE",
}

// APIConfig holds API routing, upload, and CORS settings.
type APIConfig struct {
	BasePath      string                `toml:"base_path"`
	MaxUploadSize string                `toml:"max_upload_size"`
	CORS          middleware.CORSConfig `toml:"cors"`
}

func (c *APIConfig) MaxUploadSizeBytes() int64 {
	size, err := formatting.ParseBytes(c.MaxUploadSize)
	if err != nil {
		return 50 * 1024 * 1024 // 50MB fallback
	}
	return size
}

// Finalize applies defaults, environment variable overrides, and validation
// for the API config and its nested CORS config.
func (c *APIConfig) Finalize() error {
	c.loadDefaults()
	c.loadEnv()

	if err := c.CORS.Finalize(corsEnv); err != nil {
		return fmt.Errorf("cors: %w", err)
	}
	return nil
}

// Merge overwrites non-zero fields from overlay across nested configs.
func (c *APIConfig) Merge(overlay *APIConfig) {
	if overlay.BasePath != "" {
		c.BasePath = overlay.BasePath
	}
	if overlay.MaxUploadSize != "" {
		c.MaxUploadSize = overlay.MaxUploadSize
	}

	c.CORS.Merge(&overlay.CORS)
}

func (c *APIConfig) loadDefaults() {
	if c.BasePath == "" {
		c.BasePath = "/api"
	}
	if c.MaxUploadSize == "" {
		c.MaxUploadSize = "50MB"
	}
}

func (c *APIConfig) loadEnv() {
	if v := os.Getenv("MARKSMAN_API_BASE_PATH"); v != "" {
		c.BasePath = v
	}
	if v := os.Getenv("MARKSMAN_API_MAX_UPLOAD_SIZE"); v != "" {
		c.MaxUploadSize = v
	}
}
