package report

import "errors"

// ErrUnparsableResponse marks a model reply with no recoverable overall
// score. The raw reply travels with the error so a human can inspect it.
var ErrUnparsableResponse = errors.New("response contains no recognizable score")

// UnparsableError carries the raw model reply that failed to parse.
type UnparsableError struct {
	Raw string
}

func (e *UnparsableError) Error() string {
	return ErrUnparsableResponse.Error()
}

func (e *UnparsableError) Unwrap() error {
	return ErrUnparsableResponse
}
