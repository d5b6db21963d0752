// Package errors provides the error types used across assetforge: a
// structured AssetError, per-file BuildErrors collected during a run, a
// parser for the diagnostics printed by external tools such as sass, and
// the overlay HTML pushed to the browser while the dev server is running.
package errors

import (
	"fmt"
	"html"
	"strings"
	"sync"
	"time"
)

// BuildError represents a build error
type BuildError struct {
	Task      string
	File      string
	Line      int
	Column    int
	Message   string
	Severity  ErrorSeverity
	Timestamp time.Time
}

// ErrorSeverity represents the severity of an error
type ErrorSeverity int

const (
	ErrorSeverityInfo ErrorSeverity = iota
	ErrorSeverityWarning
	ErrorSeverityError
	ErrorSeverityFatal
)

// String returns the string representation of the severity
func (s ErrorSeverity) String() string {
	switch s {
	case ErrorSeverityInfo:
		return "info"
	case ErrorSeverityWarning:
		return "warning"
	case ErrorSeverityError:
		return "error"
	case ErrorSeverityFatal:
		return "fatal"
	default:
		return "unknown"
	}
}

// Error implements the error interface
func (be *BuildError) Error() string {
	return fmt.Sprintf("%s:%d:%d: %s: %s", be.File, be.Line, be.Column, be.Severity, be.Message)
}

// ErrorCollector holds the build errors of the most recent runs, tagged with
// the task that produced them.
type ErrorCollector struct {
	buildErrors []BuildError
	mutex       sync.RWMutex
}

// NewErrorCollector creates a new error collector
func NewErrorCollector() *ErrorCollector {
	return &ErrorCollector{
		buildErrors: make([]BuildError, 0),
	}
}

// Add adds a build error to the collector
func (ec *ErrorCollector) Add(err BuildError) {
	ec.mutex.Lock()
	defer ec.mutex.Unlock()
	if err.Timestamp.IsZero() {
		err.Timestamp = time.Now()
	}
	ec.buildErrors = append(ec.buildErrors, err)
}

// GetErrors returns all collected build errors
func (ec *ErrorCollector) GetErrors() []BuildError {
	ec.mutex.RLock()
	defer ec.mutex.RUnlock()
	result := make([]BuildError, len(ec.buildErrors))
	copy(result, ec.buildErrors)
	return result
}

// HasErrors returns true if there are any errors
func (ec *ErrorCollector) HasErrors() bool {
	ec.mutex.RLock()
	defer ec.mutex.RUnlock()
	return len(ec.buildErrors) > 0
}

// ClearTask drops the errors recorded for one task, typically after it
// succeeded again.
func (ec *ErrorCollector) ClearTask(task string) {
	ec.mutex.Lock()
	defer ec.mutex.Unlock()
	kept := ec.buildErrors[:0]
	for _, err := range ec.buildErrors {
		if err.Task != task {
			kept = append(kept, err)
		}
	}
	ec.buildErrors = kept
}

// GetErrorsByTask returns errors for a specific task
func (ec *ErrorCollector) GetErrorsByTask(task string) []BuildError {
	ec.mutex.RLock()
	defer ec.mutex.RUnlock()
	var taskErrors []BuildError
	for _, err := range ec.buildErrors {
		if err.Task == task {
			taskErrors = append(taskErrors, err)
		}
	}
	return taskErrors
}

// ErrorOverlay generates HTML for error overlay
func (ec *ErrorCollector) ErrorOverlay() string {
	errs := ec.GetErrors()
	if len(errs) == 0 {
		return ""
	}

	var b strings.Builder
	b.WriteString(`<div id="assetforge-error-overlay" style="position:fixed;inset:0;background:rgba(0,0,0,.85);color:#fff;font:14px Menlo,Monaco,monospace;z-index:2147483647;padding:20px;overflow:auto">
<div style="max-width:1000px;margin:0 auto">
<div style="display:flex;justify-content:space-between;align-items:center;margin-bottom:20px">
<h2 style="margin:0;color:#ff6b6b">Build Errors</h2>
<button onclick="document.getElementById('assetforge-error-overlay').remove()" style="background:none;border:1px solid #ccc;color:#fff;padding:5px 10px;cursor:pointer">Close</button>
</div>`)

	for _, err := range errs {
		color := "#ff6b6b"
		switch err.Severity {
		case ErrorSeverityWarning:
			color = "#feca57"
		case ErrorSeverityInfo:
			color = "#48dbfb"
		}
		fmt.Fprintf(&b, `
<div style="background:#2d3748;padding:15px;margin-bottom:15px;border-radius:4px;border-left:4px solid %s">
<div style="color:%s;font-weight:bold">%s %s</div>
<pre style="white-space:pre-wrap;color:#e2e8f0">%s</pre>
<div style="color:#a0aec0;font-size:12px">%s:%d:%d</div>
</div>`,
			color, color,
			html.EscapeString(strings.ToUpper(err.Task)), err.Timestamp.Format("15:04:05"),
			html.EscapeString(err.Message),
			html.EscapeString(err.File), err.Line, err.Column)
	}

	b.WriteString("\n</div>\n</div>")
	return b.String()
}
