package grading

import (
	"errors"
	"net/http"

	"github.com/pmeredith/marksman/internal/document"
	"github.com/pmeredith/marksman/internal/gateway"
	"github.com/pmeredith/marksman/internal/report"
)

// Domain errors for grading operations.
var (
	ErrNoReference       = errors.New("reference material not set")
	ErrInvalidSubmission = errors.New("invalid submission")
	ErrFileTooLarge      = errors.New("file exceeds maximum upload size")
)

// MapHTTPStatus maps grading pipeline errors to appropriate HTTP status codes.
func MapHTTPStatus(err error) int {
	switch {
	case errors.Is(err, ErrNoReference):
		return http.StatusConflict
	case errors.Is(err, ErrFileTooLarge):
		return http.StatusRequestEntityTooLarge
	case errors.Is(err, ErrInvalidSubmission),
		errors.Is(err, document.ErrEmptyDocument):
		return http.StatusBadRequest
	case errors.Is(err, document.ErrUnsupportedFormat),
		errors.Is(err, document.ErrInvalidPayload):
		return http.StatusUnsupportedMediaType
	case errors.Is(err, gateway.ErrAllModelsFailed),
		errors.Is(err, report.ErrUnparsableResponse):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
