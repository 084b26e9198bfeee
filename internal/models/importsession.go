package models

import (
	"time"

	"github.com/google/uuid"
)

// ImportIssue records a single error during an import run.
type ImportIssue struct {
	File    string `json:"file" yaml:"file"`
	Line    int    `json:"line,omitempty" yaml:"line,omitempty"`
	Message string `json:"message" yaml:"message"`
	RawData string `json:"raw_data,omitempty" yaml:"raw_data,omitempty"`
}

// ImportSession tracks a single parser invocation for audit purposes. It is
// created once per run, mutated only while the parser executes and immutable
// after return.
type ImportSession struct {
	ID          string        `json:"id" yaml:"id"`
	Timestamp   time.Time     `json:"timestamp" yaml:"timestamp"`
	SourceFiles []string      `json:"source_files" yaml:"source_files"`
	Imported    int           `json:"imported" yaml:"imported"`
	Skipped     int           `json:"skipped_duplicate" yaml:"skipped_duplicate"`
	Excluded    int           `json:"excluded" yaml:"excluded"`
	Errors      []ImportIssue `json:"errors,omitempty" yaml:"errors,omitempty"`
}

// NewImportSession creates a session for the given source files.
func NewImportSession(sourceFiles ...string) *ImportSession {
	return &ImportSession{
		ID:          uuid.NewString(),
		Timestamp:   time.Now(),
		SourceFiles: sourceFiles,
	}
}

// AddError records an import issue on the session.
func (s *ImportSession) AddError(file string, line int, message, raw string) {
	s.Errors = append(s.Errors, ImportIssue{
		File:    file,
		Line:    line,
		Message: message,
		RawData: raw,
	})
}
