package document

import "errors"

// Domain errors for document classification and normalization.
var (
	ErrUnsupportedFormat = errors.New("unsupported document format")
	ErrEmptyDocument     = errors.New("document is empty")
	ErrInvalidPayload    = errors.New("payload must carry exactly one non-empty variant")
)
