package errors

import (
	"errors"
	"fmt"
	"strings"
)

// ErrorType represents different categories of errors.
type ErrorType string

const (
	ErrorTypeValidation ErrorType = "validation"
	ErrorTypeIO         ErrorType = "io"
	ErrorTypeNetwork    ErrorType = "network"
	ErrorTypeBuild      ErrorType = "build"
	ErrorTypeConfig     ErrorType = "config"
	ErrorTypeTool       ErrorType = "tool"
	ErrorTypeInternal   ErrorType = "internal"
)

// AssetError is a structured error type with context.
type AssetError struct {
	Type        ErrorType
	Code        string
	Message     string
	Cause       error
	Context     map[string]interface{}
	Task        string
	FilePath    string
	Line        int
	Column      int
	// Diagnostics are collector entries parsed from tool output, one per
	// reported problem.
	Diagnostics []BuildError
}

// Error implements the error interface.
func (e *AssetError) Error() string {
	var parts []string

	if e.Code != "" {
		parts = append(parts, fmt.Sprintf("[%s]", e.Code))
	}

	if e.Task != "" {
		parts = append(parts, "task:"+e.Task)
	}

	if e.FilePath != "" {
		location := e.FilePath
		if e.Line > 0 {
			location += fmt.Sprintf(":%d", e.Line)
			if e.Column > 0 {
				location += fmt.Sprintf(":%d", e.Column)
			}
		}
		parts = append(parts, location)
	}

	parts = append(parts, e.Message)

	result := strings.Join(parts, " ")

	if e.Cause != nil {
		result += fmt.Sprintf(": %v", e.Cause)
	}

	return result
}

// Unwrap returns the underlying cause error.
func (e *AssetError) Unwrap() error {
	return e.Cause
}

// Is implements error comparison.
func (e *AssetError) Is(target error) bool {
	var t *AssetError
	if errors.As(target, &t) {
		return e.Type == t.Type && e.Code == t.Code
	}

	return false
}

// WithContext adds context information to the error.
func (e *AssetError) WithContext(key string, value interface{}) *AssetError {
	if e.Context == nil {
		e.Context = make(map[string]interface{})
	}
	e.Context[key] = value

	return e
}

// WithLocation adds file location information.
func (e *AssetError) WithLocation(filePath string, line, column int) *AssetError {
	e.FilePath = filePath
	e.Line = line
	e.Column = column

	return e
}

// WithDiagnostics attaches the problems reported by an external tool.
func (e *AssetError) WithDiagnostics(d []BuildError) *AssetError {
	e.Diagnostics = d

	return e
}

// WithTask records the task that produced the error.
func (e *AssetError) WithTask(task string) *AssetError {
	e.Task = task

	return e
}

// NewValidationError creates a validation error.
func NewValidationError(code, message string) *AssetError {
	return &AssetError{
		Type:    ErrorTypeValidation,
		Code:    code,
		Message: message,
	}
}

// NewBuildError creates a build error. Watch mode intercepts these so a
// broken source file does not stop the loop.
func NewBuildError(code, message string, cause error) *AssetError {
	return &AssetError{
		Type:    ErrorTypeBuild,
		Code:    code,
		Message: message,
		Cause:   cause,
	}
}

// NewIOError creates an I/O error.
func NewIOError(code, message string, cause error) *AssetError {
	return &AssetError{
		Type:    ErrorTypeIO,
		Code:    code,
		Message: message,
		Cause:   cause,
	}
}

// NewConfigError creates a configuration error.
func NewConfigError(code, message string) *AssetError {
	return &AssetError{
		Type:    ErrorTypeConfig,
		Code:    code,
		Message: message,
	}
}

// NewToolError reports a missing or failing external executable.
func NewToolError(code, tool string, cause error) *AssetError {
	return &AssetError{
		Type:    ErrorTypeTool,
		Code:    code,
		Message: tool + " failed",
		Cause:   cause,
		Context: map[string]interface{}{"tool": tool},
	}
}

// NewNetworkError creates a network error.
func NewNetworkError(code, message string, cause error) *AssetError {
	return &AssetError{
		Type:    ErrorTypeNetwork,
		Code:    code,
		Message: message,
		Cause:   cause,
	}
}

// Diagnostics returns the collector entries attached to err, if any.
func Diagnostics(err error) []BuildError {
	var ae *AssetError
	if errors.As(err, &ae) {
		return ae.Diagnostics
	}
	return nil
}

// Location extracts the file position carried by err, if any.
func Location(err error) (file string, line, column int) {
	var ae *AssetError
	if errors.As(err, &ae) {
		return ae.FilePath, ae.Line, ae.Column
	}
	return "", 0, 0
}
