package errors

import (
	"context"
	stderrors "errors"
	"fmt"

	"gomaic/domain/core"
)

// Error codes surfaced by the CLI.
const (
	CodeConfigInvalid = "CONFIG_INVALID"
	CodeInvalidInput  = "INVALID_INPUT"
	CodeExportFailed  = "EXPORT_FAILED"
	CodeCanceled      = "CANCELED"
	CodeInternalError = "INTERNAL_ERROR"
	CodeUnknown       = "UNKNOWN"
)

// Process exit codes per error code.
var exitCodes = map[string]int{
	CodeConfigInvalid: 2,
	CodeInvalidInput:  2,
	CodeExportFailed:  3,
	CodeCanceled:      130,
}

// AppError is an error carrying a code the command line can act on.
type AppError struct {
	Code    string
	Message string
	Cause   error
}

func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Cause
}

// New creates a new AppError
func New(code, message string) *AppError {
	return &AppError{Code: code, Message: message}
}

// Wrap adds context to err. The code of the nearest AppError in the chain is
// kept; any other error is classified with Code.
func Wrap(err error, message string) error {
	if err == nil {
		return nil
	}
	return &AppError{Code: Code(err), Message: message, Cause: err}
}

// Wrapf is Wrap with a format string
func Wrapf(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	return Wrap(err, fmt.Sprintf(format, args...))
}

// IsAppError reports whether err or anything it wraps is an AppError.
func IsAppError(err error) bool {
	var appErr *AppError
	return stderrors.As(err, &appErr)
}

// GetCode returns the code of the nearest AppError in the chain, or UNKNOWN.
func GetCode(err error) string {
	var appErr *AppError
	if stderrors.As(err, &appErr) {
		return appErr.Code
	}
	return CodeUnknown
}

// Code classifies any error: AppError codes first, then cancellation, then
// the domain sentinels.
func Code(err error) string {
	if err == nil {
		return ""
	}
	if code := GetCode(err); code != CodeUnknown {
		return code
	}
	switch core.FailureKind(err) {
	case core.KindCanceled:
		return CodeCanceled
	case core.KindInvalidParameter, core.KindDegenerateInput:
		return CodeInvalidInput
	default:
		return CodeInternalError
	}
}

// ExitCode maps an error to a process exit status. Nil is 0.
func ExitCode(err error) int {
	if err == nil {
		return 0
	}
	if stderrors.Is(err, context.Canceled) {
		return exitCodes[CodeCanceled]
	}
	if code, ok := exitCodes[Code(err)]; ok {
		return code
	}
	return 1
}

func ConfigInvalid(message string) *AppError {
	return New(CodeConfigInvalid, message)
}

func InvalidInput(message string) *AppError {
	return New(CodeInvalidInput, message)
}

// ExportFailed reports a report file that could not be written.
func ExportFailed(path string, cause error) *AppError {
	return &AppError{
		Code:    CodeExportFailed,
		Message: fmt.Sprintf("export to %s failed", path),
		Cause:   cause,
	}
}
