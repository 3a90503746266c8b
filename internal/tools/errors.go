package tools

import (
	"errors"
	"fmt"
)

// ErrorCode classifies a request that was rejected before any document work.
type ErrorCode string

const (
	CodeMissingFile        ErrorCode = "MissingFile"
	CodeAtLeastTwoRequired ErrorCode = "AtLeastTwoRequired"
	CodeMissingPageNumbers ErrorCode = "MissingPageNumbers"
	CodeInvalidRange       ErrorCode = "InvalidRange"
	CodeNoValidPages       ErrorCode = "NoValidPages"
	CodeFileTooLarge       ErrorCode = "FileTooLarge"
)

// ValidationError is returned when the request itself is unusable.
// Message is safe to show to clients.
type ValidationError struct {
	Code    ErrorCode
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

// NewValidationError returns a ValidationError with the given code and message.
func NewValidationError(code ErrorCode, message string) *ValidationError {
	return &ValidationError{Code: code, Message: message}
}

// ParseError is returned when an uploaded document cannot be loaded.
type ParseError struct {
	Name string
	Err  error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("Failed to process file: %s", e.Name)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// IsValidation reports whether err is, or wraps, a ValidationError and returns it.
func IsValidation(err error) (*ValidationError, bool) {
	var ve *ValidationError
	if errors.As(err, &ve) {
		return ve, true
	}
	return nil, false
}

// IsParse reports whether err is, or wraps, a ParseError and returns it.
func IsParse(err error) (*ParseError, bool) {
	var pe *ParseError
	if errors.As(err, &pe) {
		return pe, true
	}
	return nil, false
}

// HasCode reports whether err is a ValidationError with the given code.
func HasCode(err error, code ErrorCode) bool {
	ve, ok := IsValidation(err)
	return ok && ve.Code == code
}
