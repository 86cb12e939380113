package pdf

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"strings"
)

// pdfHeader is the magic prefix every PDF file starts with
var pdfHeader = []byte("%PDF-")

// Validation errors
var (
	ErrEmptyInput  = errors.New("input is empty")
	ErrTooLarge    = errors.New("input too large")
	ErrNotPDF      = errors.New("input is not a PDF")
	ErrNotAPDFFile = errors.New("file is not a PDF")
)

// Validator handles PDF input validation
type Validator struct {
	maxFileSize int64
}

// NewValidator creates a new PDF validator with the specified constraints
func NewValidator(maxFileSize int64) *Validator {
	return &Validator{
		maxFileSize: maxFileSize,
	}
}

// ValidateBytes checks that data is non-empty, within the size limit and
// carries a PDF header. Leading whitespace before the header is tolerated.
func (v *Validator) ValidateBytes(data []byte) error {
	if len(data) == 0 {
		return ErrEmptyInput
	}

	if int64(len(data)) > v.maxFileSize {
		return fmt.Errorf("%w: %d bytes (max: %d bytes)", ErrTooLarge, len(data), v.maxFileSize)
	}

	if !bytes.HasPrefix(bytes.TrimLeft(data, " \t\r\n\x00"), pdfHeader) {
		return ErrNotPDF
	}

	return nil
}

// ValidateFile performs basic validation on a PDF path without opening it
func (v *Validator) ValidateFile(filePath string) error {
	if filePath == "" {
		return fmt.Errorf("path cannot be empty")
	}

	fileInfo, err := os.Stat(filePath)
	if os.IsNotExist(err) {
		return fmt.Errorf("file does not exist: %s", filePath)
	}
	if err != nil {
		return fmt.Errorf("cannot access file: %w", err)
	}

	if fileInfo.IsDir() {
		return fmt.Errorf("path is a directory, not a file: %s", filePath)
	}

	if !strings.HasSuffix(strings.ToLower(filePath), ".pdf") {
		return fmt.Errorf("%w: %s", ErrNotAPDFFile, filePath)
	}

	if fileInfo.Size() == 0 {
		return fmt.Errorf("file is empty: %s", filePath)
	}

	if fileInfo.Size() > v.maxFileSize {
		return fmt.Errorf("%w: %d bytes (max: %d bytes)", ErrTooLarge, fileInfo.Size(), v.maxFileSize)
	}

	return nil
}

// ReadFile validates filePath and returns its contents
func (v *Validator) ReadFile(filePath string) ([]byte, error) {
	if err := v.ValidateFile(filePath); err != nil {
		return nil, err
	}

	data, err := os.ReadFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}
	return data, nil
}
