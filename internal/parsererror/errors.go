// Package parsererror defines the error taxonomy shared by the import
// pipeline. Parsers never let row-level problems escape their public entry
// points; these types exist so callers can distinguish a malformed token from
// a skippable row from a file that could not be read at all.
package parsererror

import "fmt"

// ParseError represents a single malformed amount or date token.
// It is always row-scoped and never fatal to the whole file.
type ParseError struct {
	Field string
	Value string
	Err   error
}

func (e *ParseError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("failed to parse %s '%s': %v", e.Field, e.Value, e.Err)
	}
	return fmt.Sprintf("failed to parse %s '%s'", e.Field, e.Value)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// NewParseError creates a ParseError naming the original text that failed.
func NewParseError(field, value string, err error) *ParseError {
	return &ParseError{Field: field, Value: value, Err: err}
}

// RowError represents a row with enough structural problems to skip it
// while the rest of the file continues to be processed.
type RowError struct {
	File string
	Line int
	Err  error
}

func (e *RowError) Error() string {
	return fmt.Sprintf("%s line %d: %v", e.File, e.Line, e.Err)
}

func (e *RowError) Unwrap() error {
	return e.Err
}

// FileError represents a file that could not be opened or decoded at all.
// The parser invocation returns zero transactions and one file-level error.
type FileError struct {
	File string
	Err  error
}

func (e *FileError) Error() string {
	return fmt.Sprintf("failed to read %s: %v", e.File, e.Err)
}

func (e *FileError) Unwrap() error {
	return e.Err
}

// ValidationError represents a constructed Transaction or Rule that violates
// an invariant (zero amount, therapeutic flag on the wrong category, an
// uncompilable regex). It is raised at construction time and converted by
// parsers into a row skip.
type ValidationError struct {
	Subject string
	Reason  string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Subject, e.Reason)
}

// NewValidationError creates a ValidationError for the given subject.
func NewValidationError(subject, reason string) *ValidationError {
	return &ValidationError{Subject: subject, Reason: reason}
}
