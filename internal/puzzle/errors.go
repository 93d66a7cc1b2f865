package puzzle

import (
	"errors"
	"fmt"
)

// Code is a machine-readable error category.
type Code string

const (
	// CodePlacementFailed: a word could not be placed within the attempt budget.
	CodePlacementFailed Code = "PLACEMENT_FAILED"
	// CodeInvalidInput: empty list, empty token, or characters outside A–Z.
	CodeInvalidInput Code = "INVALID_INPUT"
	// CodeInternal: a generated puzzle failed its own consistency check.
	CodeInternal Code = "INTERNAL"
)

// Error is returned by parsing, generation and game operations.
type Error struct {
	Code    Code
	Word    string // offending word, if any
	Message string
}

func (e *Error) Error() string {
	if e.Word != "" {
		return fmt.Sprintf("%s: %s: %s", e.Code, e.Word, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func newError(code Code, word, format string, args ...any) *Error {
	return &Error{Code: code, Word: word, Message: fmt.Sprintf(format, args...)}
}

// InvalidInput builds an INVALID_INPUT error. Exported for callers that
// validate requests against a puzzle (e.g. toggling an unknown word).
func InvalidInput(word, format string, args ...any) *Error {
	return newError(CodeInvalidInput, word, format, args...)
}

// Is reports whether err carries code anywhere in its chain.
func Is(err error, code Code) bool {
	return CodeOf(err) == code
}

// CodeOf extracts the code of the first *Error in err's chain, or "".
func CodeOf(err error) Code {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}
