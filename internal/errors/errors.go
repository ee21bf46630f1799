package errors

import (
	"fmt"
)

// AppError represents a structured application error
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
	return &AppError{
		Code:    code,
		Message: message,
	}
}

// Newf creates a new AppError with a formatted message
func Newf(code, format string, args ...interface{}) *AppError {
	return New(code, fmt.Sprintf(format, args...))
}

// Wrap wraps an error with additional context
func Wrap(err error, message string) error {
	if err == nil {
		return nil
	}
	if appErr, ok := err.(*AppError); ok {
		return &AppError{
			Code:    appErr.Code,
			Message: message,
			Cause:   appErr,
		}
	}
	return &AppError{
		Code:    CodeInternalError,
		Message: message,
		Cause:   err,
	}
}

// Wrapf wraps an error with formatted additional context
func Wrapf(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	return Wrap(err, fmt.Sprintf(format, args...))
}

// IsAppError checks if an error is an AppError
func IsAppError(err error) bool {
	_, ok := err.(*AppError)
	return ok
}

// GetCode returns the error code if it's an AppError, otherwise returns "UNKNOWN"
func GetCode(err error) string {
	if appErr, ok := err.(*AppError); ok {
		return appErr.Code
	}
	return "UNKNOWN"
}

// Statistical precondition failures. These are deterministic input
// problems reported to the caller, never transient faults.
const (
	CodeInvalidColumn         = "INVALID_COLUMN"
	CodeInvalidGroupCount     = "INVALID_GROUP_COUNT"
	CodeInsufficientData      = "INSUFFICIENT_DATA"
	CodeTooFewValidGroups     = "TOO_FEW_VALID_GROUPS"
	CodeEmptyContingencyTable = "EMPTY_CONTINGENCY_TABLE"
	CodeCurveFitFailed        = "CURVE_FIT_FAILED"
)

// Infrastructure error codes
const (
	CodeConfigInvalid   = "CONFIG_INVALID"
	CodeSessionNotFound = "SESSION_NOT_FOUND"
	CodeStorageError    = "STORAGE_ERROR"
	CodeInvalidInput    = "INVALID_INPUT"
	CodeInternalError   = "INTERNAL_ERROR"
)

// Common error constructors

func InvalidColumn(format string, args ...interface{}) *AppError {
	return Newf(CodeInvalidColumn, format, args...)
}

func InvalidGroupCount(format string, args ...interface{}) *AppError {
	return Newf(CodeInvalidGroupCount, format, args...)
}

func InsufficientData(format string, args ...interface{}) *AppError {
	return Newf(CodeInsufficientData, format, args...)
}

func TooFewValidGroups(format string, args ...interface{}) *AppError {
	return Newf(CodeTooFewValidGroups, format, args...)
}

func EmptyContingencyTable(message string) *AppError {
	return New(CodeEmptyContingencyTable, message)
}

func CurveFitFailed(message string) *AppError {
	return New(CodeCurveFitFailed, message)
}

func ConfigInvalid(message string) *AppError {
	return New(CodeConfigInvalid, message)
}

func SessionNotFound(id string) *AppError {
	return Newf(CodeSessionNotFound, "session %q not found or expired", id)
}

func InvalidInput(message string) *AppError {
	return New(CodeInvalidInput, message)
}
