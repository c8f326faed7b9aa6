package core

import (
	"errors"
	"fmt"

	"github.com/datalens/datalens/internal/tabular"
)

// ErrNotFound reports that a referenced import does not exist.
var ErrNotFound = errors.New("import not found")

// ErrNoFiles reports that an operation over uploaded files received none.
// It aliases the combiner's sentinel so errors.Is works on either.
var ErrNoFiles = tabular.ErrNoInput

// SizeError reports content that exceeds the configured byte ceiling.
// It is raised before any parse attempt; the only remedy is smaller input.
type SizeError struct {
	Kind     string // "csv" or "xml"
	SizeMB   float64
	LimitMB  int
	FileName string
}

func (e *SizeError) Error() string {
	if e.FileName != "" {
		return fmt.Sprintf("%s: %s file too large: %.2fMB exceeds %dMB limit", e.FileName, e.Kind, e.SizeMB, e.LimitMB)
	}
	return fmt.Sprintf("%s file too large: %.2fMB exceeds %dMB limit", e.Kind, e.SizeMB, e.LimitMB)
}

// checkSize validates content length against a megabyte ceiling.
// Content arrives as a Go string, so len() is already the UTF-8 byte count.
func checkSize(kind, fileName, content string, limitMB int) error {
	if limitMB <= 0 {
		return nil
	}
	limitBytes := int64(limitMB) * 1024 * 1024
	if int64(len(content)) > limitBytes {
		return &SizeError{
			Kind:     kind,
			SizeMB:   float64(len(content)) / (1024 * 1024),
			LimitMB:  limitMB,
			FileName: fileName,
		}
	}
	return nil
}
