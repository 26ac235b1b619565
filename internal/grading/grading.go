// Package grading implements the grading domain for Marksman. It composes
// document normalization, prompt construction, the model gateway, and
// response parsing into the single public grading operation, and owns the
// session's reference material.
package grading

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/pmeredith/marksman/internal/document"
	"github.com/pmeredith/marksman/internal/report"
)

// Method tags how a submission entered the system.
type Method string

// Input methods.
const (
	MethodFile  Method = "file"
	MethodImage Method = "image"
	MethodText  Method = "direct-text"
)

// Reference is the normalized teacher reference material for the session.
// It is immutable once set and replaced only by explicit re-upload, so
// concurrent grading calls read it without synchronization.
type Reference struct {
	ID        uuid.UUID         `json:"id"`
	Filename  string            `json:"filename"`
	Kind      document.Kind     `json:"kind"`
	PageCount *int              `json:"page_count,omitempty"`
	Payload   *document.Payload `json:"-"`
	SetAt     time.Time         `json:"set_at"`
}

// SubmitCommand carries one student submission to grade. For MethodText,
// Text holds the content and Data/Filename are ignored; otherwise Data
// holds the raw file bytes. An empty Student falls back to the configured
// placeholder.
type SubmitCommand struct {
	Data     []byte
	Filename string
	Text     string
	Method   Method
	Student  string
}

// Result is the outcome of one grading call. The submission itself is
// discarded once the result is produced; nothing is persisted.
type Result struct {
	ID       uuid.UUID      `json:"id"`
	Student  string         `json:"student"`
	Model    string         `json:"model"`
	Report   *report.Report `json:"report"`
	GradedAt time.Time      `json:"graded_at"`
}

// Render serializes the result as the downloadable grade document.
func (r *Result) Render() string {
	return report.Render(r.Report, r.Student, r.Model, r.GradedAt)
}

// System defines the public contract for grading operations.
type System interface {
	SetReference(ctx context.Context, data []byte, filename string) (*Reference, error)
	Reference() *Reference
	Grade(ctx context.Context, cmd SubmitCommand) (*Result, error)
	LastModel() string
}
