// Package errors provides a lightweight structured error type (BuildError)
// for category-based classification of build failures in the CLI and watcher.
package errors

import (
	"fmt"
)

// ErrorCategory represents the category of a sitegen error for classification
type ErrorCategory string

const (
	// User-facing input errors
	CategoryMalformedInput ErrorCategory = "malformed_input"
	CategoryConfig         ErrorCategory = "config"

	// Build pipeline errors
	CategoryResolution ErrorCategory = "resolution"
	CategoryCollision  ErrorCategory = "collision"
	CategoryRender     ErrorCategory = "render"

	// Runtime and infrastructure errors
	CategoryIO       ErrorCategory = "io"
	CategoryInternal ErrorCategory = "internal"
)

// ErrorSeverity indicates how critical an error is
type ErrorSeverity string

const (
	SeverityFatal   ErrorSeverity = "fatal"   // Aborts the build
	SeverityError   ErrorSeverity = "error"   // Error, but the build continues
	SeverityWarning ErrorSeverity = "warning" // Degraded to fallback values
)

// BuildError is a structured error with category, severity, and context
type BuildError struct {
	Category ErrorCategory `json:"category"`
	Severity ErrorSeverity `json:"severity"`
	Message  string        `json:"message"`
	Cause    error         `json:"cause,omitempty"`
	Context  ContextFields `json:"context,omitempty"`
}

// ContextFields carries structured context for BuildError
type ContextFields map[string]any

// Error implements the error interface
func (e *BuildError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s (%s): %s: %v", e.Category, e.Severity, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s (%s): %s", e.Category, e.Severity, e.Message)
}

// Unwrap implements error unwrapping for Go 1.13+ error handling
func (e *BuildError) Unwrap() error {
	return e.Cause
}

// WithContext adds context information to the error
func (e *BuildError) WithContext(key string, value any) *BuildError {
	if e.Context == nil {
		e.Context = make(ContextFields)
	}
	e.Context[key] = value
	return e
}

// WithPath records the offending source path. Fatal conditions must always
// identify the source file(s) involved.
func (e *BuildError) WithPath(path string) *BuildError {
	return e.WithContext("path", path)
}

// New creates a new BuildError
func New(category ErrorCategory, severity ErrorSeverity, message string) *BuildError {
	return &BuildError{
		Category: category,
		Severity: severity,
		Message:  message,
	}
}

// Wrap creates a new BuildError that wraps an existing error
func Wrap(err error, category ErrorCategory, severity ErrorSeverity, message string) *BuildError {
	return &BuildError{
		Category: category,
		Severity: severity,
		Message:  message,
		Cause:    err,
	}
}

// IsCategory checks if an error belongs to a specific category
func IsCategory(err error, category ErrorCategory) bool {
	if be, ok := err.(*BuildError); ok {
		return be.Category == category
	}
	return false
}

// IsFatal reports whether an error carries fatal severity
func IsFatal(err error) bool {
	if be, ok := err.(*BuildError); ok {
		return be.Severity == SeverityFatal
	}
	return false
}

// GetCategory extracts the category from an error, or returns CategoryInternal if not a BuildError
func GetCategory(err error) ErrorCategory {
	if be, ok := err.(*BuildError); ok {
		return be.Category
	}
	return CategoryInternal
}

// MalformedInputError creates a recoverable malformed-input error
func MalformedInputError(message string) *BuildError {
	return &BuildError{
		Category: CategoryMalformedInput,
		Severity: SeverityWarning,
		Message:  message,
	}
}

// ResolutionError creates a fatal layout-resolution error. A resolution
// failure after the default fallback means the built-in default layout is
// missing, which is a deployment invariant violation.
func ResolutionError(message string) *BuildError {
	return &BuildError{
		Category: CategoryResolution,
		Severity: SeverityFatal,
		Message:  message,
	}
}

// CollisionError creates a fatal URL-collision error naming both source paths.
func CollisionError(url, firstPath, secondPath string) *BuildError {
	e := &BuildError{
		Category: CategoryCollision,
		Severity: SeverityFatal,
		Message:  fmt.Sprintf("two pages resolve to URL %q", url),
	}
	return e.WithContext("first", firstPath).WithContext("second", secondPath)
}

// RenderError wraps an external renderer failure for one page.
func RenderError(err error, path string) *BuildError {
	e := &BuildError{
		Category: CategoryRender,
		Severity: SeverityError,
		Message:  "page render failed",
		Cause:    err,
	}
	return e.WithPath(path)
}

// ConfigError creates a new configuration error
func ConfigError(message string) *BuildError {
	return &BuildError{
		Category: CategoryConfig,
		Severity: SeverityFatal,
		Message:  message,
	}
}

// WrapError wraps an existing error with a new BuildError at error severity
func WrapError(err error, category ErrorCategory, message string) *BuildError {
	return &BuildError{
		Category: category,
		Severity: SeverityError,
		Message:  message,
		Cause:    err,
	}
}
