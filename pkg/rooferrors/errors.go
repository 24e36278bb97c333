// Package rooferrors provides the roof-detection pipeline's error
// taxonomy: a sentinel per failure class, plus an AppError that carries
// structured context through the batch driver.
package rooferrors

import (
	"errors"
	"fmt"
)

// Sentinel errors, one per failure class. Stage code should return (or
// wrap) one of these rather than an ad-hoc fmt.Errorf so the batch driver
// can classify failures without string matching.
var (
	// ErrInputInvalid covers malformed or insufficient input: an empty
	// raster, a degenerate footprint, a resolution <= 0.
	ErrInputInvalid = errors.New("input invalid")

	// ErrFitterNumeric covers numeric failure inside a plane fit: a
	// singular design matrix, a sample too small or too collinear to fit.
	ErrFitterNumeric = errors.New("fitter numeric failure")

	// ErrGeometryDegenerate covers a locally recoverable geometry failure:
	// a polygon that collapsed to zero area, a medial axis with no
	// interior vertices. The building continues with the plane dropped.
	ErrGeometryDegenerate = errors.New("geometry degenerate")

	// ErrMergerInvariant covers a region-adjacency-graph invariant
	// violation: a dangling edge, a node referencing a plane that was
	// already merged away. Always fatal for the building.
	ErrMergerInvariant = errors.New("merger invariant violation")
)

// ErrorCode classifies an AppError for programmatic handling; it mirrors
// the four sentinels above one-to-one.
type ErrorCode string

const (
	CodeInputInvalid       ErrorCode = "INPUT_INVALID"
	CodeFitterNumeric      ErrorCode = "FITTER_NUMERIC"
	CodeGeometryDegenerate ErrorCode = "GEOMETRY_DEGENERATE"
	CodeMergerInvariant    ErrorCode = "MERGER_INVARIANT"
)

// Fatal reports whether errors of this code should abort the whole
// building rather than just drop the offending plane.
func (c ErrorCode) Fatal() bool {
	return c == CodeMergerInvariant
}

// AppError is the pipeline's structured error: a code, a human message,
// free-form context (building ID, plane ID, pixel counts) and the
// underlying cause.
type AppError struct {
	Code      ErrorCode
	Message   string
	Details   map[string]any
	Err       error
}

// Error implements the error interface.
func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the wrapped cause, so errors.Is/errors.As see through to
// the originating sentinel.
func (e *AppError) Unwrap() error {
	return e.Err
}

// WithDetails attaches a context key/value pair and returns the receiver
// for chaining.
func (e *AppError) WithDetails(key string, value any) *AppError {
	if e.Details == nil {
		e.Details = make(map[string]any)
	}
	e.Details[key] = value
	return e
}

// New builds an AppError from a code, message and the sentinel (or
// underlying) cause.
func New(code ErrorCode, message string, cause error) *AppError {
	return &AppError{Code: code, Message: message, Err: cause, Details: make(map[string]any)}
}

// InputInvalid wraps ErrInputInvalid with a message.
func InputInvalid(message string, cause error) *AppError {
	if cause == nil {
		cause = ErrInputInvalid
	}
	return New(CodeInputInvalid, message, cause)
}

// FitterNumeric wraps ErrFitterNumeric with a message.
func FitterNumeric(message string, cause error) *AppError {
	if cause == nil {
		cause = ErrFitterNumeric
	}
	return New(CodeFitterNumeric, message, cause)
}

// GeometryDegenerate wraps ErrGeometryDegenerate with a message.
func GeometryDegenerate(message string, cause error) *AppError {
	if cause == nil {
		cause = ErrGeometryDegenerate
	}
	return New(CodeGeometryDegenerate, message, cause)
}

// MergerInvariant wraps ErrMergerInvariant with a message.
func MergerInvariant(message string, cause error) *AppError {
	if cause == nil {
		cause = ErrMergerInvariant
	}
	return New(CodeMergerInvariant, message, cause)
}

// CodeOf extracts the ErrorCode from err if it is (or wraps) an AppError,
// falling back to classifying the four sentinels directly.
func CodeOf(err error) (ErrorCode, bool) {
	if err == nil {
		return "", false
	}
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code, true
	}
	switch {
	case errors.Is(err, ErrInputInvalid):
		return CodeInputInvalid, true
	case errors.Is(err, ErrFitterNumeric):
		return CodeFitterNumeric, true
	case errors.Is(err, ErrGeometryDegenerate):
		return CodeGeometryDegenerate, true
	case errors.Is(err, ErrMergerInvariant):
		return CodeMergerInvariant, true
	}
	return "", false
}

// IsFatal reports whether err should abort the whole building rather than
// just the plane that produced it.
func IsFatal(err error) bool {
	code, ok := CodeOf(err)
	if !ok {
		return false
	}
	return code.Fatal()
}
