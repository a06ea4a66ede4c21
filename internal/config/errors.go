package config

import (
	"fmt"

	"cuelang.org/go/cue/errors"
	"cuelang.org/go/cue/token"
)

// Load error codes (E001-E009)
const (
	ErrCodeNotFound   = "E001" // config file missing or unreadable
	ErrCodeSyntax     = "E002" // CUE does not parse or compile
	ErrCodeSchema     = "E003" // value violates #Config
	ErrCodeDecode     = "E004" // value cannot be decoded into Config
	ErrCodeSchemaLoad = "E009" // embedded schema is broken
)

// LoadError represents an error that occurred while loading a configuration.
type LoadError struct {
	Code    string
	Message string
	Pos     token.Pos // CUE position if available
}

func (e *LoadError) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s:%d:%d: %s: %s", e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(), e.Code, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// cueError converts a CUE error into a LoadError positioned at the first
// reported error, preferring a position in the user's file.
func cueError(code, filename string, err error) *LoadError {
	errs := errors.Errors(err)
	if len(errs) == 0 {
		return &LoadError{Code: code, Message: err.Error()}
	}

	first := errs[0]
	le := &LoadError{Code: code, Message: first.Error()}
	for _, pos := range errors.Positions(first) {
		if pos.Filename() == filename {
			le.Pos = pos
			return le
		}
		if !le.Pos.IsValid() {
			le.Pos = pos
		}
	}
	return le
}
