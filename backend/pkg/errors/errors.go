package errors

import (
	stderrors "errors"
	"fmt"
	"time"
)

// ErrorType represents the category of error
type ErrorType string

const (
	// ErrorTypeIdentifier represents malformed entity identifiers or node types
	ErrorTypeIdentifier ErrorType = "identifier"
	// ErrorTypeGraph represents graph database errors
	ErrorTypeGraph ErrorType = "graph"
	// ErrorTypeConfig represents configuration errors
	ErrorTypeConfig ErrorType = "config"
	// ErrorTypeImport represents MovieLens import errors
	ErrorTypeImport ErrorType = "import"
)

// BaseError is the base error type with common fields
type BaseError struct {
	Type      ErrorType
	Message   string
	Timestamp time.Time
	Err       error // Wrapped error
}

// Error implements the error interface
func (e *BaseError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Type, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s", e.Type, e.Message)
}

// Unwrap returns the wrapped error for error unwrapping
func (e *BaseError) Unwrap() error {
	return e.Err
}

// NewBaseError creates a new base error
func NewBaseError(errType ErrorType, message string, err error) *BaseError {
	return &BaseError{
		Type:      errType,
		Message:   message,
		Timestamp: time.Now(),
		Err:       err,
	}
}

// Identifier Errors

// ErrInvalidIdentifier is returned when a value cannot be canonicalized to an integer id
type ErrInvalidIdentifier struct {
	*BaseError
	Value any
}

func NewInvalidIdentifier(value any) *ErrInvalidIdentifier {
	return &ErrInvalidIdentifier{
		BaseError: NewBaseError(ErrorTypeIdentifier, fmt.Sprintf("cannot convert %v (%T) to an integer id", value, value), nil),
		Value:     value,
	}
}

// ErrInvalidNodeType is returned when a path endpoint names a label outside Movie, User and Genre
type ErrInvalidNodeType struct {
	*BaseError
	NodeType string
}

func NewInvalidNodeType(nodeType string) *ErrInvalidNodeType {
	return &ErrInvalidNodeType{
		BaseError: NewBaseError(ErrorTypeIdentifier, fmt.Sprintf("unsupported node type: %q", nodeType), nil),
		NodeType:  nodeType,
	}
}

// Graph Errors

// ErrGraphConnectionFailed is returned when Neo4j connection fails
type ErrGraphConnectionFailed struct {
	*BaseError
	URI string
}

func NewGraphConnectionFailed(uri string, err error) *ErrGraphConnectionFailed {
	return &ErrGraphConnectionFailed{
		BaseError: NewBaseError(ErrorTypeGraph, fmt.Sprintf("failed to connect to Neo4j: %s", uri), err),
		URI:       uri,
	}
}

// ErrGraphQueryFailed is returned when a graph query fails
type ErrGraphQueryFailed struct {
	*BaseError
	Operation string
}

func NewGraphQueryFailed(operation string, err error) *ErrGraphQueryFailed {
	return &ErrGraphQueryFailed{
		BaseError: NewBaseError(ErrorTypeGraph, fmt.Sprintf("query failed: %s", operation), err),
		Operation: operation,
	}
}

// Import Errors

// ErrImportMalformedRow is returned when a CSV row cannot be parsed
type ErrImportMalformedRow struct {
	*BaseError
	File string
	Line int
}

func NewImportMalformedRow(file string, line int, err error) *ErrImportMalformedRow {
	return &ErrImportMalformedRow{
		BaseError: NewBaseError(ErrorTypeImport, fmt.Sprintf("malformed row %s:%d", file, line), err),
		File:      file,
		Line:      line,
	}
}

// Config Errors

// ErrConfigValidationFailed is returned when configuration validation fails
type ErrConfigValidationFailed struct {
	*BaseError
	Field  string
	Reason string
}

func NewConfigValidationFailed(field, reason string) *ErrConfigValidationFailed {
	return &ErrConfigValidationFailed{
		BaseError: NewBaseError(ErrorTypeConfig, fmt.Sprintf("config validation failed: %s - %s", field, reason), nil),
		Field:     field,
		Reason:    reason,
	}
}

// ErrConfigMissingRequired is returned when a required config value is missing
type ErrConfigMissingRequired struct {
	*BaseError
	Field string
}

func NewConfigMissingRequired(field string) *ErrConfigMissingRequired {
	return &ErrConfigMissingRequired{
		BaseError: NewBaseError(ErrorTypeConfig, fmt.Sprintf("missing required config: %s", field), nil),
		Field:     field,
	}
}

// Helper functions

// IsErrorType checks if an error, or any error it wraps, is of a specific type
func IsErrorType(err error, errType ErrorType) bool {
	for err != nil {
		if typed, ok := err.(interface{ Base() *BaseError }); ok && typed.Base().Type == errType {
			return true
		}
		err = stderrors.Unwrap(err)
	}
	return false
}

// Base exposes the embedded BaseError of typed errors
func (e *BaseError) Base() *BaseError {
	return e
}

// IsInvalidIdentifier reports whether err carries an identifier error
func IsInvalidIdentifier(err error) bool {
	return IsErrorType(err, ErrorTypeIdentifier)
}
