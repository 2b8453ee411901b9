// Package errors provides standardized error types for the sales pipeline.
// PipelineError carries the failing operation, the column if one applies,
// and an optional cause so that callers can use errors.Is and errors.As.
package errors

import (
	"fmt"
)

// PipelineError represents a failure in one stage of the pipeline
type PipelineError struct {
	Op      string // Operation name (e.g., "Load", "Cleanse", "TopCity")
	Column  string // Column name if applicable
	Message string // Human-readable error description
	Cause   error  // Underlying error cause
}

// Error implements the error interface
func (e *PipelineError) Error() string {
	msg := e.Message
	if e.Cause != nil {
		msg = fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	if e.Column != "" {
		return fmt.Sprintf("%s operation failed on column '%s': %s", e.Op, e.Column, msg)
	}
	return fmt.Sprintf("%s operation failed: %s", e.Op, msg)
}

// Unwrap returns the underlying cause for error wrapping support
func (e *PipelineError) Unwrap() error {
	return e.Cause
}

// Is matches on operation-independent identity: the message and column.
// This lets errors.Is(err, ErrEmptyInput) succeed for any operation.
func (e *PipelineError) Is(target error) bool {
	t, ok := target.(*PipelineError)
	if !ok {
		return false
	}
	if t.Op != "" && t.Op != e.Op {
		return false
	}
	return e.Column == t.Column && e.Message == t.Message
}

// NewColumnNotFoundError creates an error for a required column that is absent
func NewColumnNotFoundError(op, column string) *PipelineError {
	return &PipelineError{
		Op:      op,
		Column:  column,
		Message: "column does not exist",
	}
}

// NewSourceError creates an error for an input file that could not be read
func NewSourceError(op, source string, cause error) *PipelineError {
	return &PipelineError{
		Op:      op,
		Message: fmt.Sprintf("reading source %q", source),
		Cause:   cause,
	}
}

// NewInvalidInputError creates an error for invalid operation inputs
func NewInvalidInputError(op, message string) *PipelineError {
	return &PipelineError{
		Op:      op,
		Message: message,
	}
}

// NewEmptyInputError reports a select-max operation run over no records.
// It matches ErrEmptyInput under errors.Is.
func NewEmptyInputError(op string) *PipelineError {
	return &PipelineError{
		Op:      op,
		Message: ErrEmptyInput.Message,
	}
}

// NewInternalError creates an error for internal operation failures
func NewInternalError(op string, cause error) *PipelineError {
	return &PipelineError{
		Op:      op,
		Message: "internal error occurred",
		Cause:   cause,
	}
}

var (
	// ErrEmptyInput indicates a ranking operation over an empty record set
	ErrEmptyInput = &PipelineError{
		Message: "operation not supported on empty input",
	}

	// ErrMismatchedLength indicates columns of different lengths in one table
	ErrMismatchedLength = &PipelineError{
		Message: "columns must have the same length",
	}
)
