// Package jsonerr defines the error taxonomy shared by the tokenizer, the
// index builder and the path resolver. Every failure unwraps to one of the
// sentinel errors so callers can branch with errors.Is.
package jsonerr

import (
	"errors"
	"fmt"
)

var (
	// ErrSourceTooLarge indicates the byte source exceeds the configured cap.
	ErrSourceTooLarge = errors.New("jsonslice: source too large")

	// ErrMalformed indicates an illegal bare literal, a missing or blank key,
	// or unbalanced brackets.
	ErrMalformed = errors.New("jsonslice: malformed document")

	// ErrInvalidPath indicates a colon-path that does not resolve against the index.
	ErrInvalidPath = errors.New("jsonslice: invalid path")

	// ErrTruncated indicates the window or stream ended before the outermost
	// container closed.
	ErrTruncated = errors.New("jsonslice: truncated document")
)

// SyntaxError records where in the source a parse failure was detected.
type SyntaxError struct {
	Kind   error
	Offset int64
	Msg    string
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("%v at offset %d: %s", e.Kind, e.Offset, e.Msg)
}

func (e *SyntaxError) Unwrap() error { return e.Kind }

// Malformed builds a SyntaxError of kind ErrMalformed.
func Malformed(offset int64, format string, a ...any) error {
	return &SyntaxError{Kind: ErrMalformed, Offset: offset, Msg: fmt.Sprintf(format, a...)}
}

// Truncated builds a SyntaxError of kind ErrTruncated.
func Truncated(offset int64, format string, a ...any) error {
	return &SyntaxError{Kind: ErrTruncated, Offset: offset, Msg: fmt.Sprintf(format, a...)}
}
