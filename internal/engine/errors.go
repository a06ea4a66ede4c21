package engine

import (
	"errors"
	"fmt"
)

// ContractError reports a caller bug: a nil Sequence, use after Close, a
// reentrant append from inside a dispatch, or invalid configuration.
//
// Configuration errors are returned from New. All other codes are raised as
// panics, because continuing would corrupt the chain.
type ContractError struct {
	// Code identifies the violation.
	Code ContractErrorCode

	// Op is the Sequence method that detected it.
	Op string

	// Message is a human-readable description.
	Message string
}

// ContractErrorCode categorizes contract violations.
type ContractErrorCode string

const (
	// ErrCodeNilSequence indicates a method was called on a nil *Sequence.
	ErrCodeNilSequence ContractErrorCode = "NIL_SEQUENCE"

	// ErrCodeClosed indicates a Sequence was used after Close.
	ErrCodeClosed ContractErrorCode = "SEQUENCE_CLOSED"

	// ErrCodeReentrant indicates the dispatcher called back into the
	// Sequence that is dispatching to it.
	ErrCodeReentrant ContractErrorCode = "REENTRANT_APPEND"

	// ErrCodeInvalidConfig indicates New was given unusable options.
	ErrCodeInvalidConfig ContractErrorCode = "INVALID_CONFIG"
)

// Error implements the error interface.
func (e *ContractError) Error() string {
	if e.Op != "" {
		return fmt.Sprintf("%s: %s (op=%s)", e.Code, e.Message, e.Op)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// ErrClosed is returned by Close on a Sequence that is already closed.
var ErrClosed = &ContractError{Code: ErrCodeClosed, Op: "Close", Message: "sequence already closed"}

// ErrNoImageLoader is returned by an ImageLoader that wraps a dispatcher
// whose host cannot load images. Sequence.LoadImage reports it as a load
// that did not happen rather than as a failure.
var ErrNoImageLoader = errors.New("dispatcher cannot load images")

// Is matches any ContractError with the same code, so errors.Is(err,
// ErrClosed) holds for every use-after-close report.
func (e *ContractError) Is(target error) bool {
	var ce *ContractError
	if errors.As(target, &ce) {
		return ce.Code == e.Code
	}
	return false
}

// DispatchError wraps a failure returned by a Dispatcher together with the
// batch it was dispatching.
type DispatchError struct {
	Target Target
	Seq    int64
	Count  int
	Reason FlushReason
	Err    error
}

func (e *DispatchError) Error() string {
	return fmt.Sprintf("dispatch batch %d (%d instructions, %s) to %s: %v",
		e.Seq, e.Count, e.Reason, e.Target, e.Err)
}

func (e *DispatchError) Unwrap() error {
	return e.Err
}

// IsContractError reports whether err is a ContractError with the given
// code. Uses errors.As to handle wrapped errors.
func IsContractError(err error, code ContractErrorCode) bool {
	var ce *ContractError
	if errors.As(err, &ce) {
		return ce.Code == code
	}
	return false
}

// IsDispatchError reports whether err came from a Dispatcher.
func IsDispatchError(err error) bool {
	var de *DispatchError
	return errors.As(err, &de)
}

func newContractError(code ContractErrorCode, op, format string, args ...any) *ContractError {
	return &ContractError{Code: code, Op: op, Message: fmt.Sprintf(format, args...)}
}
