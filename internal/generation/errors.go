package generation

import (
	"errors"
	"fmt"

	"github.com/mailsmithapp/mailsmith/internal/errs"
)

// FailureKind classifies why a generation failed. It is for logs and tests;
// callers only see the uniform GenerationError message.
type FailureKind string

const (
	KindConfiguration FailureKind = "configuration"
	KindNetwork       FailureKind = "network"
	KindEmptyResponse FailureKind = "empty_response"
	KindParsing       FailureKind = "parsing"
)

// GenerationError is returned for every failed generation.
type GenerationError struct {
	Kind FailureKind
	Err  error
}

func (e *GenerationError) Error() string {
	return "Failed to generate email content"
}

func (e *GenerationError) Unwrap() error {
	return e.Err
}

func (e *GenerationError) Is(target error) bool {
	return target == errs.ErrGeneration
}

var (
	errEmptyResponse  = errors.New("empty response")
	errNoClientSource = fmt.Errorf("%w: completion client source is not set", errs.ErrConfiguration)
)

// KindOf returns the failure kind of err, or "" if err is not a GenerationError.
func KindOf(err error) FailureKind {
	var genErr *GenerationError
	if errors.As(err, &genErr) {
		return genErr.Kind
	}
	return ""
}
