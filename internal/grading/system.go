package grading

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"path"
	"strings"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	pdfapi "github.com/pdfcpu/pdfcpu/pkg/api"

	"github.com/pmeredith/marksman/internal/document"
	"github.com/pmeredith/marksman/internal/gateway"
	"github.com/pmeredith/marksman/internal/prompt"
	"github.com/pmeredith/marksman/internal/report"
)

// DefaultStudentPlaceholder names submissions with no student identifier.
const DefaultStudentPlaceholder = "Anonymous"

type system struct {
	classifier  *document.Classifier
	normalizer  *document.Normalizer
	builder     *prompt.Builder
	gateway     *gateway.Gateway
	placeholder string
	logger      *slog.Logger

	// ref is swapped whole on re-upload; grading calls read a snapshot
	// and never observe a partially written reference.
	ref atomic.Pointer[Reference]
}

// New creates the grading System from its pipeline stages.
func New(
	classifier *document.Classifier,
	normalizer *document.Normalizer,
	builder *prompt.Builder,
	gw *gateway.Gateway,
	placeholder string,
	logger *slog.Logger,
) System {
	if placeholder == "" {
		placeholder = DefaultStudentPlaceholder
	}
	return &system{
		classifier:  classifier,
		normalizer:  normalizer,
		builder:     builder,
		gateway:     gw,
		placeholder: placeholder,
		logger:      logger.With("system", "grading"),
	}
}

// SetReference normalizes the uploaded reference material and installs it
// as the session reference, replacing any previous one.
func (s *system) SetReference(ctx context.Context, data []byte, filename string) (*Reference, error) {
	ext := path.Ext(filename)

	kind, err := s.classifier.Classify(data, ext)
	if err != nil {
		return nil, fmt.Errorf("classify reference: %w", err)
	}

	payload, err := s.normalizer.Normalize(ctx, data, ext, kind)
	if err != nil {
		return nil, fmt.Errorf("normalize reference: %w", err)
	}

	ref := &Reference{
		ID:        uuid.New(),
		Filename:  filename,
		Kind:      kind,
		PageCount: pdfPageCount(s.logger, data, ext),
		Payload:   payload,
		SetAt:     time.Now(),
	}
	s.ref.Store(ref)

	s.logger.Info(
		"reference material set",
		"filename", filename,
		"kind", kind,
		"pages", len(payload.Pages),
	)

	return ref, nil
}

// Reference returns the current reference material, or nil when unset.
func (s *system) Reference() *Reference {
	return s.ref.Load()
}

// LastModel returns the most recently successful model identifier.
func (s *system) LastModel() string {
	return s.gateway.LastModel()
}

// Grade runs one submission through the full pipeline: reference check,
// classify and normalize, build request, call gateway, parse reply. Each
// stage honors caller cancellation; every failure path returns a typed
// error.
func (s *system) Grade(ctx context.Context, cmd SubmitCommand) (*Result, error) {
	ref := s.ref.Load()
	if ref == nil {
		return nil, ErrNoReference
	}

	student := strings.TrimSpace(cmd.Student)
	if student == "" {
		student = s.placeholder
	}

	payload, err := s.submissionPayload(ctx, cmd)
	if err != nil {
		return nil, fmt.Errorf("normalize submission: %w", err)
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	req, err := s.builder.Build(ref.Payload, payload, student)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}

	reply, err := s.gateway.Call(ctx, req)
	if err != nil {
		return nil, err
	}

	rep, err := report.Parse(reply.Raw)
	if err != nil {
		return nil, err
	}

	s.logger.Info(
		"submission graded",
		"student", student,
		"model", reply.Model,
		"score", rep.OverallScore,
		"problems", len(rep.Problems),
	)

	return &Result{
		ID:       uuid.New(),
		Student:  student,
		Model:    reply.Model,
		Report:   rep,
		GradedAt: time.Now(),
	}, nil
}

func (s *system) submissionPayload(ctx context.Context, cmd SubmitCommand) (*document.Payload, error) {
	switch cmd.Method {
	case MethodText:
		return document.FromText(cmd.Text)

	case MethodFile, MethodImage:
		ext := path.Ext(cmd.Filename)
		kind, err := s.classifier.Classify(cmd.Data, ext)
		if err != nil {
			return nil, err
		}
		return s.normalizer.Normalize(ctx, cmd.Data, ext, kind)

	default:
		return nil, fmt.Errorf("%w: unknown input method %q", ErrInvalidSubmission, cmd.Method)
	}
}

func pdfPageCount(logger *slog.Logger, data []byte, ext string) *int {
	if !strings.EqualFold(strings.TrimPrefix(ext, "."), "pdf") {
		return nil
	}

	count, err := pdfapi.PageCount(bytes.NewReader(data), nil)
	if err != nil {
		logger.Warn("failed to extract pdf page count", "error", err)
		return nil
	}
	return &count
}
