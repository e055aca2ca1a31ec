// Package errors provides a lightweight structured error type (SiteError)
// for category-based classification of build failures in the pipeline and CLI.
package errors

import (
	"fmt"
)

// ErrorCategory represents the category of a build error for classification
type ErrorCategory string

const (
	// User-facing configuration and input errors
	CategoryConfig     ErrorCategory = "config"
	CategoryValidation ErrorCategory = "validation"

	// Source tree and resolution errors
	CategoryData     ErrorCategory = "data"
	CategoryLayout   ErrorCategory = "layout"
	CategoryClassify ErrorCategory = "classify"

	// Build and processing errors
	CategoryRender     ErrorCategory = "render"
	CategoryBook       ErrorCategory = "book"
	CategoryManifest   ErrorCategory = "manifest"
	CategoryFileSystem ErrorCategory = "filesystem"

	// Runtime and infrastructure errors
	CategoryServer   ErrorCategory = "server"
	CategoryWatch    ErrorCategory = "watch"
	CategoryInternal ErrorCategory = "internal"
)

// ErrorSeverity indicates how critical an error is
type ErrorSeverity string

const (
	SeverityFatal   ErrorSeverity = "fatal"   // Aborts the whole build
	SeverityError   ErrorSeverity = "error"   // Fails one document or subtree, build continues
	SeverityWarning ErrorSeverity = "warning" // Logged, output still produced
)

// SiteError is a structured error with category, severity, and context
type SiteError struct {
	Category ErrorCategory `json:"category"`
	Severity ErrorSeverity `json:"severity"`
	Message  string        `json:"message"`
	Cause    error         `json:"cause,omitempty"`
	Context  ContextFields `json:"context,omitempty"`
}

// ContextFields carries structured context for SiteError
type ContextFields map[string]any

// Error implements the error interface
func (e *SiteError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s (%s): %s: %v", e.Category, e.Severity, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s (%s): %s", e.Category, e.Severity, e.Message)
}

// Unwrap implements error unwrapping for Go 1.13+ error handling
func (e *SiteError) Unwrap() error {
	return e.Cause
}

// WithContext adds context information to the error
func (e *SiteError) WithContext(key string, value any) *SiteError {
	if e.Context == nil {
		e.Context = make(ContextFields)
	}
	e.Context[key] = value
	return e
}

// IsFatal reports whether the error should abort the whole build pass.
func (e *SiteError) IsFatal() bool {
	return e.Severity == SeverityFatal
}

// New creates a new SiteError
func New(category ErrorCategory, severity ErrorSeverity, message string) *SiteError {
	return &SiteError{
		Category: category,
		Severity: severity,
		Message:  message,
	}
}

// Wrap creates a new SiteError that wraps an existing error
func Wrap(err error, category ErrorCategory, severity ErrorSeverity, message string) *SiteError {
	return &SiteError{
		Category: category,
		Severity: severity,
		Message:  message,
		Cause:    err,
	}
}

// AsSiteError extracts a SiteError from an arbitrary error chain, wrapping
// unknown errors as internal errors so callers always get a classified value.
func AsSiteError(err error) *SiteError {
	if err == nil {
		return nil
	}
	if se, ok := err.(*SiteError); ok {
		return se
	}
	return Wrap(err, CategoryInternal, SeverityError, "unclassified error")
}
