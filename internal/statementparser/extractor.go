package statementparser

import (
	"fmt"
	"os"
	"os/exec"
)

// TextExtractor defines the interface for extracting text from statement PDF
// files. It allows dependency injection so the parser can be tested without
// real PDF files.
type TextExtractor interface {
	// ExtractText extracts text content from the file at the given path.
	ExtractText(path string) (string, error)
}

// PdftotextExtractor implements TextExtractor using the pdftotext command.
// This is the production implementation and requires pdftotext to be
// installed.
type PdftotextExtractor struct{}

// NewPdftotextExtractor creates a new PdftotextExtractor instance.
func NewPdftotextExtractor() *PdftotextExtractor {
	return &PdftotextExtractor{}
}

// ExtractText extracts layout-preserving text from a PDF file.
func (e *PdftotextExtractor) ExtractText(path string) (string, error) {
	tempFile := path + ".txt"

	cmd := exec.Command("pdftotext", "-layout", path, tempFile)
	if err := cmd.Run(); err != nil {
		log.WithError(err).Error("Failed to run pdftotext command")
		return "", fmt.Errorf("error running pdftotext: %w", err)
	}

	output, err := os.ReadFile(tempFile) // #nosec G304 -- temp file derived from user path
	if err != nil {
		log.WithError(err).Error("Failed to read text output")
		return "", fmt.Errorf("error reading extracted text: %w", err)
	}

	if err := os.Remove(tempFile); err != nil {
		log.WithError(err).Warn("Failed to remove temporary text file")
	}

	return string(output), nil
}

// MockExtractor implements TextExtractor for testing purposes. It returns
// predefined text instead of extracting from a file.
type MockExtractor struct {
	MockText string
	MockErr  error
}

// ExtractText returns the predefined mock text or error.
func (e *MockExtractor) ExtractText(path string) (string, error) {
	if e.MockErr != nil {
		return "", e.MockErr
	}
	return e.MockText, nil
}
