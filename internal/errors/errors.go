// Package errors provides a lightweight structured error type (SitepressError)
// for category-based classification across the publishing pipeline and CLI.
package errors

import (
	stderrors "errors"
	"fmt"
)

// ErrorCategory represents the category of a sitepress error for classification
type ErrorCategory string

const (
	// User-facing configuration and input errors
	CategoryConfig      ErrorCategory = "config"
	CategoryFrontMatter ErrorCategory = "frontmatter"
	CategoryValidation  ErrorCategory = "validation"

	// Pipeline errors
	CategoryFileSystem ErrorCategory = "filesystem"
	CategoryRoutes     ErrorCategory = "routes"
	CategoryRender     ErrorCategory = "render"
	CategoryPublish    ErrorCategory = "publish"

	// Runtime and infrastructure errors
	CategoryHistory  ErrorCategory = "history"
	CategoryNotify   ErrorCategory = "notify"
	CategoryInternal ErrorCategory = "internal"
)

// ErrorSeverity indicates how critical an error is
type ErrorSeverity string

const (
	SeverityFatal   ErrorSeverity = "fatal"   // Stops the run
	SeverityError   ErrorSeverity = "error"   // Per-file failure, run continues
	SeverityWarning ErrorSeverity = "warning" // Reported, no effect on outcome by default
	SeverityInfo    ErrorSeverity = "info"    // Informational, no impact
)

// SitepressError is a structured error with category, retryability, and context
type SitepressError struct {
	Category  ErrorCategory `json:"category"`
	Severity  ErrorSeverity `json:"severity"`
	Message   string        `json:"message"`
	Cause     error         `json:"cause,omitempty"`
	Retryable bool          `json:"retryable"`
	Context   ContextFields `json:"context,omitempty"`
}

// ContextFields carries structured context for SitepressError
type ContextFields map[string]any

// Error implements the error interface
func (e *SitepressError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s (%s): %s: %v", e.Category, e.Severity, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s (%s): %s", e.Category, e.Severity, e.Message)
}

// Unwrap implements error unwrapping for Go 1.13+ error handling
func (e *SitepressError) Unwrap() error {
	return e.Cause
}

// WithContext adds context information to the error
func (e *SitepressError) WithContext(key string, value any) *SitepressError {
	if e.Context == nil {
		e.Context = make(ContextFields)
	}
	e.Context[key] = value
	return e
}

// New creates a new SitepressError
func New(category ErrorCategory, severity ErrorSeverity, message string) *SitepressError {
	return &SitepressError{
		Category:  category,
		Severity:  severity,
		Message:   message,
		Retryable: false,
	}
}

// Wrap creates a new SitepressError that wraps an existing error
func Wrap(err error, category ErrorCategory, severity ErrorSeverity, message string) *SitepressError {
	return &SitepressError{
		Category:  category,
		Severity:  severity,
		Message:   message,
		Cause:     err,
		Retryable: false,
	}
}

// Retryable creates a new retryable SitepressError
func Retryable(category ErrorCategory, severity ErrorSeverity, message string) *SitepressError {
	return &SitepressError{
		Category:  category,
		Severity:  severity,
		Message:   message,
		Retryable: true,
	}
}

// WrapRetryable creates a new retryable SitepressError that wraps an existing error
func WrapRetryable(err error, category ErrorCategory, severity ErrorSeverity, message string) *SitepressError {
	return &SitepressError{
		Category:  category,
		Severity:  severity,
		Message:   message,
		Cause:     err,
		Retryable: true,
	}
}

// IsCategory checks if an error belongs to a specific category. The error
// chain is unwrapped, so classified errors keep their category through
// wrapping.
func IsCategory(err error, category ErrorCategory) bool {
	var se *SitepressError
	if stderrors.As(err, &se) {
		return se.Category == category
	}
	return false
}

// IsRetryable checks if an error is retryable
func IsRetryable(err error) bool {
	var se *SitepressError
	if stderrors.As(err, &se) {
		return se.Retryable
	}
	return false
}

// IsFatal reports whether an error carries fatal severity. Unclassified
// errors are treated as fatal: anything that escapes without classification
// has already bypassed per-file collection.
func IsFatal(err error) bool {
	if err == nil {
		return false
	}
	var se *SitepressError
	if stderrors.As(err, &se) {
		return se.Severity == SeverityFatal
	}
	return true
}

// GetCategory extracts the category from an error, or returns CategoryInternal if not a SitepressError
func GetCategory(err error) ErrorCategory {
	var se *SitepressError
	if stderrors.As(err, &se) {
		return se.Category
	}
	return CategoryInternal
}
