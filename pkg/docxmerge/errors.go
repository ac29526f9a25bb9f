// Package docxmerge bulk-generates DOCX documents from a template and
// tabular data, packaging the results into a single archive.
package docxmerge

import (
	"errors"
	"fmt"
)

// Fatal configuration errors, reported before any row is rendered.
var (
	ErrNoPlaceholders   = errors.New("no placeholders found in template")
	ErrNoColumnMapping  = errors.New("no matching columns found between template and dataset headers")
	ErrMissingKeyColumn = errors.New("KEY column not found in row 4 of the primary dataset")
	ErrNoDataRows       = errors.New("no data rows found starting from row 5")
)

// TemplateError represents a failure to open or parse the template document.
type TemplateError struct {
	Path    string
	Message string
	Cause   error
}

func (e *TemplateError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("template error in %s: %s: %v", e.Path, e.Message, e.Cause)
	}
	return fmt.Sprintf("template error in %s: %s", e.Path, e.Message)
}

func (e *TemplateError) Unwrap() error {
	return e.Cause
}

// NewTemplateError creates a new template error
func NewTemplateError(path, message string, cause error) error {
	return &TemplateError{
		Path:    path,
		Message: message,
		Cause:   cause,
	}
}

// DatasetError represents a failure to read a primary or auxiliary workbook.
type DatasetError struct {
	Path    string
	Message string
	Cause   error
}

func (e *DatasetError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("dataset error in %s: %s: %v", e.Path, e.Message, e.Cause)
	}
	return fmt.Sprintf("dataset error in %s: %s", e.Path, e.Message)
}

func (e *DatasetError) Unwrap() error {
	return e.Cause
}

// NewDatasetError creates a new dataset error
func NewDatasetError(path, message string, cause error) error {
	return &DatasetError{
		Path:    path,
		Message: message,
		Cause:   cause,
	}
}

// RowError represents a per-row rendering failure. Row errors are collected
// by the orchestrator and never abort sibling rows.
type RowError struct {
	Row   int
	Key   string
	Cause error
}

func (e *RowError) Error() string {
	if e.Key != "" {
		return fmt.Sprintf("row %d (key %s): %v", e.Row, e.Key, e.Cause)
	}
	return fmt.Sprintf("row %d: %v", e.Row, e.Cause)
}

func (e *RowError) Unwrap() error {
	return e.Cause
}

// NewRowError creates a new row error
func NewRowError(row int, key string, cause error) error {
	return &RowError{
		Row:   row,
		Key:   key,
		Cause: cause,
	}
}
