package gateway

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"google.golang.org/api/googleapi"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// ErrorKind categorizes a failed generation attempt. The kind drives the
// fallback policy: definitive failures move straight to the next candidate,
// transient failures earn a bounded retry on the same model.
type ErrorKind string

// Attempt failure kinds.
const (
	KindRateLimited   ErrorKind = "rate_limited"
	KindModelNotFound ErrorKind = "model_not_found"
	KindTransport     ErrorKind = "transport"
	KindUnknown       ErrorKind = "unknown"
)

// Attempt records one failed model invocation for diagnostics.
type Attempt struct {
	Model string    `json:"model"`
	Kind  ErrorKind `json:"kind"`
	Err   string    `json:"error"`
}

// Sentinel errors for gateway operations.
var (
	ErrAllModelsFailed = errors.New("all candidate models failed")
	ErrEmptyResponse   = errors.New("model returned an empty response")
)

// ExhaustedError reports that every candidate model failed, carrying the
// ordered attempt log so callers can surface it for diagnostics.
type ExhaustedError struct {
	Attempts []Attempt
}

func (e *ExhaustedError) Error() string {
	summaries := make([]string, 0, len(e.Attempts))
	for _, a := range e.Attempts {
		summaries = append(summaries, fmt.Sprintf("%s (%s)", a.Model, a.Kind))
	}
	return fmt.Sprintf("%v: %s", ErrAllModelsFailed, strings.Join(summaries, ", "))
}

func (e *ExhaustedError) Unwrap() error {
	return ErrAllModelsFailed
}

// AbortedError reports a call cancelled before the fallback chain finished,
// carrying the attempts already made so none go unaccounted for. It unwraps
// to the underlying context error.
type AbortedError struct {
	Attempts []Attempt
	Err      error
}

func (e *AbortedError) Error() string {
	return fmt.Sprintf("call aborted after %d attempts: %v", len(e.Attempts), e.Err)
}

func (e *AbortedError) Unwrap() error {
	return e.Err
}

// Classify maps a generation error to its failure kind. The Gemini SDK
// surfaces REST failures as googleapi errors and gRPC failures as status
// errors; both are folded into the same taxonomy.
func Classify(err error) ErrorKind {
	if err == nil {
		return KindUnknown
	}

	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return KindTransport
	}

	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) {
		switch {
		case apiErr.Code == 404:
			return KindModelNotFound
		case apiErr.Code == 429:
			return KindRateLimited
		case apiErr.Code >= 500:
			return KindTransport
		default:
			return KindUnknown
		}
	}

	if st, ok := status.FromError(err); ok {
		switch st.Code() {
		case codes.NotFound:
			return KindModelNotFound
		case codes.ResourceExhausted:
			return KindRateLimited
		case codes.Unavailable, codes.DeadlineExceeded, codes.Aborted:
			return KindTransport
		}
	}

	return KindUnknown
}
