package errors

import (
	"errors"
	"fmt"
)

// ErrorType classifies a failure surfaced by the risk engine.
type ErrorType uint

const (
	// ErrorTypeUnknown represents an unclassified error
	ErrorTypeUnknown ErrorType = iota
	// ErrorTypeConfig represents an invalid model or engine configuration
	ErrorTypeConfig
	// ErrorTypeData represents bad or insufficient market data
	ErrorTypeData
	// ErrorTypeValuation represents a failure while revaluing an instrument
	ErrorTypeValuation
	// ErrorTypeInvalidArgument represents an invalid caller-supplied argument
	ErrorTypeInvalidArgument
	// ErrorTypeNotFound represents a missing resource
	ErrorTypeNotFound
	// ErrorTypeAlreadyExists represents a conflicting resource
	ErrorTypeAlreadyExists
	// ErrorTypeInternal represents an internal error
	ErrorTypeInternal
)

// AppError carries the error type alongside the message and the wrapped cause.
type AppError struct {
	Type    ErrorType
	Message string
	Err     error
}

// Error returns the error message.
func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

// Unwrap returns the wrapped error.
func (e *AppError) Unwrap() error {
	return e.Err
}

// New creates a new unclassified error.
func New(message string) error {
	return &AppError{Type: ErrorTypeUnknown, Message: message}
}

// Newf creates a new unclassified error with a formatted message.
func Newf(format string, args ...interface{}) error {
	return &AppError{Type: ErrorTypeUnknown, Message: fmt.Sprintf(format, args...)}
}

// Wrap wraps an error with a message, preserving the inner type if present.
func Wrap(err error, message string) error {
	if err == nil {
		return nil
	}
	var appErr *AppError
	if errors.As(err, &appErr) {
		return &AppError{Type: appErr.Type, Message: message, Err: err}
	}
	return &AppError{Type: ErrorTypeUnknown, Message: message, Err: err}
}

// Wrapf wraps an error with a formatted message.
func Wrapf(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	return Wrap(err, fmt.Sprintf(format, args...))
}

// TypeOf returns the classification of err, or ErrorTypeUnknown for plain errors.
func TypeOf(err error) ErrorType {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Type
	}
	return ErrorTypeUnknown
}

// Is reports whether err or any error in its chain matches target.
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As finds the first error in err's chain that matches target.
func As(err error, target interface{}) bool {
	return errors.As(err, target)
}

// Config creates an error for invalid model or engine configuration.
func Config(message string) error {
	return &AppError{Type: ErrorTypeConfig, Message: message}
}

// Configf creates a Config error with a formatted message.
func Configf(format string, args ...interface{}) error {
	return &AppError{Type: ErrorTypeConfig, Message: fmt.Sprintf(format, args...)}
}

// Data creates an error for bad or insufficient market data.
func Data(message string) error {
	return &AppError{Type: ErrorTypeData, Message: message}
}

// Dataf creates a Data error with a formatted message.
func Dataf(format string, args ...interface{}) error {
	return &AppError{Type: ErrorTypeData, Message: fmt.Sprintf(format, args...)}
}

// Valuation creates an error for an instrument revaluation failure.
func Valuation(message string) error {
	return &AppError{Type: ErrorTypeValuation, Message: message}
}

// Valuationf creates a Valuation error with a formatted message.
func Valuationf(format string, args ...interface{}) error {
	return &AppError{Type: ErrorTypeValuation, Message: fmt.Sprintf(format, args...)}
}

// InvalidArgument creates a new InvalidArgument error.
func InvalidArgument(message string) error {
	return &AppError{Type: ErrorTypeInvalidArgument, Message: message}
}

// InvalidArgumentf creates an InvalidArgument error with a formatted message.
func InvalidArgumentf(format string, args ...interface{}) error {
	return &AppError{Type: ErrorTypeInvalidArgument, Message: fmt.Sprintf(format, args...)}
}

// NotFound creates a new NotFound error.
func NotFound(message string) error {
	return &AppError{Type: ErrorTypeNotFound, Message: message}
}

// AlreadyExists creates a new AlreadyExists error.
func AlreadyExists(message string) error {
	return &AppError{Type: ErrorTypeAlreadyExists, Message: message}
}

// Internal creates a new Internal error.
func Internal(message string) error {
	return &AppError{Type: ErrorTypeInternal, Message: message}
}
