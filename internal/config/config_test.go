package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/pmeredith/marksman/internal/config"
	"github.com/pmeredith/marksman/internal/gateway"
)

const baseConfig = `
shutdown_timeout = "30s"
version = "0.2.0"

[server]
host = "0.0.0.0"
port = 8080
read_timeout = "1m"
write_timeout = "15m"
shutdown_timeout = "30s"

[api]
base_path = "/api"
max_upload_size = "25MB"

[api.cors]
enabled = false

[gateway]
models = ["gemini-2.0-flash-exp", "gemini-1.5-flash"]
attempt_timeout = "30s"
transient_retries = 1

[grading]
feedback_language = "Hebrew"
student_placeholder = "Anonymous"

[normalize]
dpi = 200
text_threshold = 20
`

const overlayConfig = `
[server]
port = 9090

[gateway]
attempt_timeout = "10s"
`

func writeConfig(t *testing.T, dir, filename, content string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, filename), []byte(content), 0644); err != nil {
		t.Fatalf("write %s: %v", filename, err)
	}
}

func chdir(t *testing.T, dir string) {
	t.Helper()
	orig, err := os.Getwd()
	if err != nil {
		t.Fatalf("getwd: %v", err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatalf("chdir: %v", err)
	}
	t.Cleanup(func() { os.Chdir(orig) })
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	writeConfig(t, dir, "config.toml", baseConfig)
	chdir(t, dir)

	cfg, err := config.Load()
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}

	if cfg.Version != "0.2.0" {
		t.Errorf("version: got %s, want 0.2.0", cfg.Version)
	}
	if cfg.Server.Port != 8080 {
		t.Errorf("server port: got %d, want 8080", cfg.Server.Port)
	}
	if cfg.API.MaxUploadSizeBytes() != 25*1024*1024 {
		t.Errorf("max upload: got %d, want 25MB", cfg.API.MaxUploadSizeBytes())
	}
	if len(cfg.Gateway.Models) != 2 {
		t.Errorf("models: got %v", cfg.Gateway.Models)
	}
	if cfg.Gateway.TransientRetries != 1 {
		t.Errorf("transient retries: got %d, want 1", cfg.Gateway.TransientRetries)
	}
	if cfg.Grading.FeedbackLanguage != "Hebrew" {
		t.Errorf("feedback language: got %s", cfg.Grading.FeedbackLanguage)
	}
	if cfg.Normalize.DPI != 200 {
		t.Errorf("dpi: got %d, want 200", cfg.Normalize.DPI)
	}
}

func TestLoadDefaultsWithoutFile(t *testing.T) {
	chdir(t, t.TempDir())

	cfg, err := config.Load()
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}

	if cfg.Server.Port != 8080 {
		t.Errorf("server port: got %d, want 8080", cfg.Server.Port)
	}
	if cfg.ShutdownTimeoutDuration() != 30*time.Second {
		t.Errorf("shutdown timeout: got %v, want 30s", cfg.ShutdownTimeoutDuration())
	}
	if len(cfg.Gateway.Models) != len(gateway.DefaultModels) {
		t.Errorf("models: got %v, want defaults", cfg.Gateway.Models)
	}
	if cfg.Gateway.AttemptTimeoutDuration() != gateway.DefaultAttemptTimeout {
		t.Errorf("attempt timeout: got %v", cfg.Gateway.AttemptTimeoutDuration())
	}
	if cfg.Normalize.TextThreshold != 20 {
		t.Errorf("text threshold: got %d, want 20", cfg.Normalize.TextThreshold)
	}
	if cfg.Grading.StudentPlaceholder != "Anonymous" {
		t.Errorf("placeholder: got %s", cfg.Grading.StudentPlaceholder)
	}
}

func TestLoadOverlay(t *testing.T) {
	dir := t.TempDir()
	writeConfig(t, dir, "config.toml", baseConfig)
	writeConfig(t, dir, "config.prod.toml", overlayConfig)
	chdir(t, dir)
	t.Setenv("MARKSMAN_ENV", "prod")

	cfg, err := config.Load()
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}

	if cfg.Server.Port != 9090 {
		t.Errorf("overlay port: got %d, want 9090", cfg.Server.Port)
	}
	if cfg.Gateway.AttemptTimeoutDuration() != 10*time.Second {
		t.Errorf("overlay attempt timeout: got %v, want 10s", cfg.Gateway.AttemptTimeoutDuration())
	}

	// fields the overlay does not touch keep base values
	if cfg.Server.Host != "0.0.0.0" {
		t.Errorf("host: got %s", cfg.Server.Host)
	}
	if cfg.Gateway.TransientRetries != 1 {
		t.Errorf("transient retries: got %d, want 1", cfg.Gateway.TransientRetries)
	}
}

func TestEnvOverrides(t *testing.T) {
	chdir(t, t.TempDir())
	t.Setenv("MARKSMAN_SERVER_PORT", "3000")
	t.Setenv("MARKSMAN_GEMINI_API_KEY", "test-key")
	t.Setenv("MARKSMAN_GATEWAY_MODELS", "gemini-1.5-pro, gemini-pro")
	t.Setenv("MARKSMAN_GRADING_FEEDBACK_LANGUAGE", "English")
	t.Setenv("MARKSMAN_NORMALIZE_DPI", "300")

	cfg, err := config.Load()
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}

	if cfg.Server.Port != 3000 {
		t.Errorf("port: got %d, want 3000", cfg.Server.Port)
	}
	if cfg.Gateway.APIKey() != "test-key" {
		t.Errorf("api key: got %q", cfg.Gateway.APIKey())
	}
	if len(cfg.Gateway.Models) != 2 || cfg.Gateway.Models[0] != "gemini-1.5-pro" {
		t.Errorf("models: got %v", cfg.Gateway.Models)
	}
	if cfg.Grading.FeedbackLanguage != "English" {
		t.Errorf("feedback language: got %s", cfg.Grading.FeedbackLanguage)
	}
	if cfg.Normalize.DPI != 300 {
		t.Errorf("dpi: got %d, want 300", cfg.Normalize.DPI)
	}
}

func TestInvalidConfig(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"bad port", "[server]\nport = 99999\n"},
		{"bad attempt timeout", "[gateway]\nattempt_timeout = \"soon\"\n"},
		{"bad dpi", "[normalize]\ndpi = 10\n"},
		{"bad shutdown timeout", "shutdown_timeout = \"whenever\"\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			writeConfig(t, dir, "config.toml", tt.content)
			chdir(t, dir)

			if _, err := config.Load(); err == nil {
				t.Error("expected validation error")
			}
		})
	}
}
