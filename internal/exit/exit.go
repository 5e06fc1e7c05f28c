package exit

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/jacoelho/jsonslice/internal/jsonerr"
)

// Exit codes. Each engine error kind gets its own code so scripts can branch
// without parsing messages.
const (
	CodeOK          = 0
	CodeError       = 1
	CodeUsage       = 2
	CodeInvalidPath = 3
	CodeMalformed   = 4
	CodeTruncated   = 5
	CodeTooLarge    = 6
	CodeInterrupted = 130
)

// Result holds the output destination and exit code for program termination.
type Result struct {
	Output   io.Writer
	ExitCode int
	Message  string
}

func (r *Result) Print() {
	fmt.Fprint(r.Output, r.Message)
}

func Success(message string) *Result {
	return &Result{
		Output:   os.Stdout,
		ExitCode: CodeOK,
		Message:  message,
	}
}

func Error(message string) *Result {
	return &Result{
		Output:   os.Stderr,
		ExitCode: CodeError,
		Message:  message,
	}
}

func Errorf(format string, a ...any) *Result {
	return Error(fmt.Sprintf(format, a...))
}

// Usagef reports a command line mistake.
func Usagef(format string, a ...any) *Result {
	r := Errorf(format, a...)
	r.ExitCode = CodeUsage
	return r
}

// FromError maps err to the exit code of its kind.
func FromError(err error) *Result {
	r := Errorf("Error: %v\n", err)
	r.ExitCode = Code(err)
	return r
}

// Code returns the exit code for err, CodeOK for nil.
func Code(err error) int {
	switch {
	case err == nil:
		return CodeOK
	case errors.Is(err, jsonerr.ErrInvalidPath):
		return CodeInvalidPath
	case errors.Is(err, jsonerr.ErrMalformed):
		return CodeMalformed
	case errors.Is(err, jsonerr.ErrTruncated):
		return CodeTruncated
	case errors.Is(err, jsonerr.ErrSourceTooLarge):
		return CodeTooLarge
	case errors.Is(err, context.Canceled):
		return CodeInterrupted
	}
	return CodeError
}
