package quiz

import (
	"context"
	"errors"
)

// Preparation failure kinds. All are terminal for the attempt.
var (
	ErrNotFound         = errors.New("document not found")
	ErrExtractionFailed = errors.New("text extraction failed")
	ErrGenerationFailed = errors.New("question generation failed")
	ErrValidationFailed = errors.New("generated questions failed validation")
)

var (
	ErrInvalidRequest   = errors.New("invalid quiz request")
	ErrInvalidAnswer    = errors.New("invalid answer")
	ErrIndexOutOfRange  = errors.New("question index out of range")
	ErrAlreadySubmitted = errors.New("quiz already submitted")
	ErrNotSubmitted     = errors.New("quiz not submitted")
)

// PrepareError is returned by Prepare. Kind is one of the preparation
// sentinels; errors.Is matches both Kind and the wrapped cause.
type PrepareError struct {
	Kind        error
	Detail      string
	RawResponse string
	Err         error
}

func (e *PrepareError) Error() string {
	msg := e.Kind.Error()
	if e.Detail != "" {
		msg += ": " + e.Detail
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *PrepareError) Unwrap() []error {
	if e.Err != nil {
		return []error{e.Kind, e.Err}
	}
	return []error{e.Kind}
}

func newPrepareError(kind error, detail string, cause error) *PrepareError {
	return &PrepareError{Kind: kind, Detail: detail, Err: cause}
}

// Outcome names the failure kind of err for metrics and API responses.
func Outcome(err error) string {
	switch {
	case err == nil:
		return "ready"
	case errors.Is(err, ErrInvalidRequest):
		return "invalid_request"
	case errors.Is(err, ErrNotFound):
		return "not_found"
	case errors.Is(err, ErrExtractionFailed):
		return "extraction_failed"
	case errors.Is(err, ErrGenerationFailed):
		return "generation_failed"
	case errors.Is(err, ErrValidationFailed):
		return "validation_failed"
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return "cancelled"
	default:
		return "internal"
	}
}
