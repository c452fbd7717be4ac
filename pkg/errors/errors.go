// Package errors provides structured error types for keyplate.
//
// Every failure raised by the geometry pipeline carries a machine-readable
// [Code] from one of four closed groups:
//   - layout: point/anchor/units resolution (MISSING_POINTS, DUPLICATE_KEY, ...)
//   - outline: region building (OUTLINE_CYCLE, UNKNOWN_OUTLINE, UNSUPPORTED)
//   - DXF: parsing and normalization (INVALID_GROUP_CODE, NON_FINITE, ...)
//   - path: primitive chaining (NOT_CLOSED_CHAIN, DISCONNECTED, ...)
//
// # Usage
//
//	err := errors.New(errors.ErrCodeUnknownPointRef, "unknown point %q in %s", ref, name)
//	if errors.Is(err, errors.ErrCodeUnknownPointRef) {
//	    // Handle missing reference
//	}
//
//	// Wrap existing errors
//	err := errors.Wrap(errors.ErrCodeInvalidFloat, parseErr, "line %d", n)
package errors

import (
	"errors"
	"fmt"
)

// Code represents a machine-readable error code.
type Code string

// Generic error codes.
const (
	ErrCodeInvalidInput  Code = "INVALID_INPUT"
	ErrCodeInvalidFormat Code = "INVALID_FORMAT"
	ErrCodeInvalidPath   Code = "INVALID_PATH"
	ErrCodeFileNotFound  Code = "FILE_NOT_FOUND"
	ErrCodeInternal      Code = "INTERNAL_ERROR"
	ErrCodeUnsupported   Code = "UNSUPPORTED"
)

// Layout error codes.
const (
	ErrCodeMissingPoints   Code = "MISSING_POINTS"
	ErrCodeZonesNotMap     Code = "ZONES_NOT_MAP"
	ErrCodeDuplicateKey    Code = "DUPLICATE_KEY"
	ErrCodeUnknownPointRef Code = "UNKNOWN_POINT_REF"
	ErrCodeInvalidNumber   Code = "INVALID_NUMBER"
	ErrCodeInvalidBool     Code = "INVALID_BOOL"
	ErrCodeInvalidString   Code = "INVALID_STRING"
	ErrCodeInvalidXY       Code = "INVALID_XY"
	ErrCodeInvalidTRBL     Code = "INVALID_TRBL"
	ErrCodeEval            Code = "EVAL"
	ErrCodeInvalidAnchor   Code = "INVALID_ANCHOR"
)

// Outline error codes.
const (
	ErrCodeOutlineCycle   Code = "OUTLINE_CYCLE"
	ErrCodeUnknownOutline Code = "UNKNOWN_OUTLINE"
)

// DXF error codes.
const (
	ErrCodeOddNumberOfLines       Code = "ODD_NUMBER_OF_LINES"
	ErrCodeInvalidGroupCode       Code = "INVALID_GROUP_CODE"
	ErrCodeMissingEntitiesSection Code = "MISSING_ENTITIES_SECTION"
	ErrCodeUnexpectedEOF          Code = "UNEXPECTED_EOF"
	ErrCodeMissingRequiredGroup   Code = "MISSING_REQUIRED_GROUP"
	ErrCodeInvalidFloat           Code = "INVALID_FLOAT"
	ErrCodeInvalidEpsilon         Code = "INVALID_EPSILON"
	ErrCodeNonFinite              Code = "NON_FINITE"
	ErrCodeQuantizeOutOfRange     Code = "QUANTIZE_OUT_OF_RANGE"
	ErrCodeUnsupportedEntities    Code = "UNSUPPORTED_ENTITIES"
)

// Path fitting error codes.
const (
	ErrCodeArcCollinear   Code = "ARC_COLLINEAR"
	ErrCodeNotClosedChain Code = "NOT_CLOSED_CHAIN"
	ErrCodeDisconnected   Code = "DISCONNECTED"
)

// Error is a structured error with a code and optional cause.
type Error struct {
	Code    Code   // Machine-readable error code
	Message string // Human-readable message
	Cause   error  // Underlying error (optional)
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause for errors.Is/As compatibility.
func (e *Error) Unwrap() error {
	return e.Cause
}

// New creates a new Error with the given code and formatted message.
func New(code Code, format string, args ...any) *Error {
	return &Error{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
	}
}

// Wrap creates a new Error wrapping an existing error.
func Wrap(code Code, cause error, format string, args ...any) *Error {
	return &Error{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
		Cause:   cause,
	}
}

// Is reports whether err has the given error code.
// It walks the whole chain, so a layout error wrapped by an outline
// error still matches its own code.
func Is(err error, code Code) bool {
	for err != nil {
		var e *Error
		if !errors.As(err, &e) {
			return false
		}
		if e.Code == code {
			return true
		}
		err = e.Cause
	}
	return false
}

// GetCode extracts the outermost error code from an error, if available.
// Returns empty string if the error is not an *Error.
func GetCode(err error) Code {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}

// UserMessage returns a user-friendly message for the error.
// For *Error types, returns the message without the code prefix.
// For other errors, returns the error string as-is.
func UserMessage(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Message
	}
	return err.Error()
}
