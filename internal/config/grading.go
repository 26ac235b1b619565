package config

import (
	"os"

	"github.com/pmeredith/marksman/internal/grading"
	"github.com/pmeredith/marksman/internal/prompt"
)

const (
	EnvGradingFeedbackLanguage   = "MARKSMAN_GRADING_FEEDBACK_LANGUAGE"
	EnvGradingStudentPlaceholder = "MARKSMAN_GRADING_STUDENT_PLACEHOLDER"
)

// GradingConfig holds grading workflow parameters.
type GradingConfig struct {
	FeedbackLanguage   string `toml:"feedback_language"`
	StudentPlaceholder string `toml:"student_placeholder"`
}

// Finalize applies defaults and environment variable overrides.
func (c *GradingConfig) Finalize() error {
	c.loadDefaults()
	c.loadEnv()
	return nil
}

// Merge overwrites non-zero fields from overlay.
func (c *GradingConfig) Merge(overlay *GradingConfig) {
	if overlay.FeedbackLanguage != "" {
		c.FeedbackLanguage = overlay.FeedbackLanguage
	}
	if overlay.StudentPlaceholder != "" {
		c.StudentPlaceholder = overlay.StudentPlaceholder
	}
}

func (c *GradingConfig) loadDefaults() {
	if c.FeedbackLanguage == "" {
		c.FeedbackLanguage = prompt.DefaultLanguage
	}
	if c.StudentPlaceholder == "" {
		c.StudentPlaceholder = grading.DefaultStudentPlaceholder
	}
}

func (c *GradingConfig) loadEnv() {
	if v := os.Getenv(EnvGradingFeedbackLanguage); v != "" {
		c.FeedbackLanguage = v
	}
	if v := os.Getenv(EnvGradingStudentPlaceholder); v != "" {
		c.StudentPlaceholder = v
	}
}
