package host

import (
	"errors"
	"fmt"

	"github.com/roach88/drawseq/internal/engine"
	"github.com/roach88/drawseq/internal/ir"
)

// ErrUnknownTarget is returned by Registry when a dispatch names a target
// that is not attached.
var ErrUnknownTarget = errors.New("unknown target")

// ErrUnknownID is wrapped when an instruction names a gradient or image id
// that is not registered.
var ErrUnknownID = errors.New("unknown id")

// ErrUnknownProperty is wrapped when a canvas property is read that is
// neither built in nor previously set.
var ErrUnknownProperty = errors.New("unknown canvas property")

// ExecError reports the instruction that stopped a batch. Instructions
// before Index ran; the rest of the batch did not.
type ExecError struct {
	Index int
	Kind  ir.Kind
	Err   error
}

func (e *ExecError) Error() string {
	return fmt.Sprintf("instruction %d (%s): %v", e.Index, e.Kind, e.Err)
}

func (e *ExecError) Unwrap() error {
	return e.Err
}

// IsExecError reports whether err stopped a batch inside a Surface.
func IsExecError(err error) bool {
	var ee *ExecError
	return errors.As(err, &ee)
}

func unknownTarget(t engine.Target) error {
	return fmt.Errorf("%w %q", ErrUnknownTarget, t)
}

func unknownID(what string, id int32) error {
	return fmt.Errorf("%s: %w %d", what, ErrUnknownID, id)
}
