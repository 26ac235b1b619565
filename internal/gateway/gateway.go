// Package gateway calls the AI generation service with ordered model
// fallback. Candidates are tried strictly sequentially in priority order,
// never raced, with a bounded per-attempt timeout. Transient failures earn
// a small number of retries on the same model, definitive failures move on,
// and total exhaustion surfaces the full attempt log.
package gateway

import (
	"context"
	"log/slog"
	"strings"
	"sync/atomic"
	"time"

	"github.com/pmeredith/marksman/internal/prompt"
)

// DefaultModels is the candidate list in fixed priority order.
var DefaultModels = []string{
	"gemini-2.0-flash-exp",
	"gemini-1.5-flash",
	"gemini-1.5-pro",
	"gemini-pro",
}

// Default fallback policy values.
const (
	DefaultAttemptTimeout   = 45 * time.Second
	DefaultTransientRetries = 2

	retryBackoff = 300 * time.Millisecond
)

// Generator is the opaque AI generation call: one model, one multimodal
// request, one text reply.
type Generator interface {
	Generate(ctx context.Context, model string, req *prompt.Request) (string, error)
}

// Reply is a successful generation: the first candidate model that
// produced non-empty text, and its raw reply.
type Reply struct {
	Model string `json:"model"`
	Raw   string `json:"raw"`
}

// Options configures the fallback policy.
type Options struct {
	Models           []string
	AttemptTimeout   time.Duration
	TransientRetries int
}

// Gateway tries candidate models in priority order against a Generator.
// It is safe for concurrent use; each call owns its own attempt log.
type Gateway struct {
	gen       Generator
	models    []string
	timeout   time.Duration
	retries   int
	logger    *slog.Logger
	lastModel atomic.Value
}

// New creates a Gateway. Zero option fields fall back to defaults.
func New(gen Generator, opts Options, logger *slog.Logger) *Gateway {
	if len(opts.Models) == 0 {
		opts.Models = DefaultModels
	}
	if opts.AttemptTimeout <= 0 {
		opts.AttemptTimeout = DefaultAttemptTimeout
	}
	if opts.TransientRetries < 0 {
		opts.TransientRetries = DefaultTransientRetries
	}

	return &Gateway{
		gen:     gen,
		models:  opts.Models,
		timeout: opts.AttemptTimeout,
		retries: opts.TransientRetries,
		logger:  logger.With("system", "gateway"),
	}
}

// Models returns the candidate list in priority order.
func (g *Gateway) Models() []string {
	return g.models
}

// LastModel returns the identifier of the most recently successful model.
// Informational only; it never changes the priority ordering.
func (g *Gateway) LastModel() string {
	if v := g.lastModel.Load(); v != nil {
		return v.(string)
	}
	return ""
}

// Call iterates the candidate models in priority order and returns the
// first non-empty reply. Rate-limit and transport failures are retried on
// the same model up to the transient retry budget with a short backoff; a
// definitive model-not-found moves to the next candidate immediately. When
// every candidate is exhausted the full attempt log is returned in an
// ExhaustedError; a context abort mid-fallback returns the attempts made
// so far in an AbortedError.
func (g *Gateway) Call(ctx context.Context, req *prompt.Request) (*Reply, error) {
	attempts := make([]Attempt, 0, len(g.models))

	for _, model := range g.models {
		for try := 0; ; try++ {
			if err := ctx.Err(); err != nil {
				g.logger.Warn("call aborted", "attempts", attempts)
				return nil, &AbortedError{Attempts: attempts, Err: err}
			}

			raw, err := g.attempt(ctx, model, req)
			if err == nil {
				g.lastModel.Store(model)
				g.logger.Info(
					"model succeeded",
					"model", model,
					"failed_attempts", len(attempts),
				)
				return &Reply{Model: model, Raw: raw}, nil
			}

			kind := Classify(err)
			attempts = append(attempts, Attempt{Model: model, Kind: kind, Err: err.Error()})

			g.logger.Warn(
				"model attempt failed",
				"model", model,
				"kind", kind,
				"try", try+1,
				"error", err,
			)

			if !retryable(kind) || try >= g.retries {
				break
			}
			if err := backoff(ctx, time.Duration(try+1)*retryBackoff); err != nil {
				g.logger.Warn("call aborted", "attempts", attempts)
				return nil, &AbortedError{Attempts: attempts, Err: err}
			}
		}
	}

	return nil, &ExhaustedError{Attempts: attempts}
}

// attempt performs a single bounded generation call. Success requires
// non-empty text.
func (g *Gateway) attempt(ctx context.Context, model string, req *prompt.Request) (string, error) {
	actx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	raw, err := g.gen.Generate(actx, model, req)
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(raw) == "" {
		return "", ErrEmptyResponse
	}
	return raw, nil
}

// retryable reports whether a failure kind warrants retrying the same
// model. Model-not-found is definitive and unknown failures are not worth
// repeating within one grading call.
func retryable(kind ErrorKind) bool {
	return kind == KindRateLimited || kind == KindTransport
}

func backoff(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
