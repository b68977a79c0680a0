package pdfform

import (
	"fmt"
	"os"
	"strings"

	"github.com/ledongthuc/pdf"
)

// Validator checks that a template path points at a readable PDF before any
// network or fill work begins.
type Validator struct {
	maxFileSize int64
}

// NewValidator creates a template validator with the given size cap.
func NewValidator(maxFileSize int64) *Validator {
	return &Validator{maxFileSize: maxFileSize}
}

// ValidateTemplate performs the pre-flight checks on a template path.
func (v *Validator) ValidateTemplate(path string) error {
	if path == "" {
		return fmt.Errorf("template path cannot be empty")
	}

	if !strings.HasSuffix(strings.ToLower(path), ".pdf") {
		return fmt.Errorf("template PDF must have a '.pdf' extension: %s", path)
	}

	fileInfo, err := os.Stat(path)
	if os.IsNotExist(err) {
		return fmt.Errorf("template PDF does not exist: %s", path)
	}
	if err != nil {
		return fmt.Errorf("cannot access template PDF: %w", err)
	}
	if fileInfo.IsDir() {
		return fmt.Errorf("template path is a directory, not a file: %s", path)
	}
	if fileInfo.Size() == 0 {
		return fmt.Errorf("template PDF is empty: %s", path)
	}
	if v.maxFileSize > 0 && fileInfo.Size() > v.maxFileSize {
		return fmt.Errorf("template PDF too large: %d bytes (max: %d bytes)",
			fileInfo.Size(), v.maxFileSize)
	}

	// Try to open the PDF to confirm it is actually readable.
	f, _, err := pdf.Open(path)
	if err != nil {
		return fmt.Errorf("invalid PDF file: %w", err)
	}
	defer f.Close()

	return nil
}

// IsValidTemplate performs a quick boolean check on a template path.
func (v *Validator) IsValidTemplate(path string) bool {
	return v.ValidateTemplate(path) == nil
}
