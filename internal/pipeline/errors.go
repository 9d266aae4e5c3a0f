package pipeline

import (
	"errors"
)

var (
	ErrUnsupportedPlatform = errors.New("Unsupported platform.")
	ErrAlreadyTracked      = errors.New("This competitor is already being tracked.")
	ErrNotFound            = errors.New("not found")
	ErrStrategyFailed      = errors.New("could not generate strategy")
	ErrGapAnalysisFailed   = errors.New("Content gap analysis failed.")
)

// InputError is a client fault. Message is safe to return to the caller as is.
type InputError struct {
	Message string
	Err     error
}

func (e *InputError) Error() string {
	if e.Err != nil && e.Err.Error() != e.Message {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *InputError) Unwrap() error { return e.Err }

// NotFound reports whether the error stands for a missing (or foreign) resource.
func (e *InputError) NotFound() bool { return errors.Is(e.Err, ErrNotFound) }

func invalid(msg string) error {
	return &InputError{Message: msg}
}

func invalidErr(err error) error {
	return &InputError{Message: err.Error(), Err: err}
}

func notFound(msg string) error {
	return &InputError{Message: msg, Err: ErrNotFound}
}

// AsInputError unwraps err into an InputError when it is one.
func AsInputError(err error) (*InputError, bool) {
	var ie *InputError
	if errors.As(err, &ie) {
		return ie, true
	}
	return nil, false
}
