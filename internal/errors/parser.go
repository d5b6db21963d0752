package errors

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// BuildErrorType represents different types of build errors
type BuildErrorType int

const (
	BuildErrorTypeUnknown BuildErrorType = iota
	BuildErrorTypeStylesheet
	BuildErrorTypeScript
	BuildErrorTypeTemplate
	BuildErrorTypeFileNotFound
	BuildErrorTypePermission
)

// ParsedError represents a parsed error with structured information
type ParsedError struct {
	Type       BuildErrorType `json:"type"`
	Severity   ErrorSeverity  `json:"severity"`
	File       string         `json:"file"`
	Line       int            `json:"line"`
	Column     int            `json:"column"`
	Message    string         `json:"message"`
	Suggestion string         `json:"suggestion,omitempty"`
	RawError   string         `json:"raw_error"`
	Context    []string       `json:"context,omitempty"`
}

// ErrorParser turns the human-oriented diagnostics of external tools into
// ParsedErrors.
type ErrorParser struct {
	messagePatterns  []errorPattern
	locationPatterns []errorPattern
}

type errorPattern struct {
	regex       *regexp.Regexp
	errorType   BuildErrorType
	severity    ErrorSeverity
	suggestion  string
	parseFields func(matches []string) (file string, line int, column int, message string)
}

// NewErrorParser creates a new error parser
func NewErrorParser() *ErrorParser {
	return &ErrorParser{
		messagePatterns:  buildMessagePatterns(),
		locationPatterns: buildLocationPatterns(),
	}
}

// ParseError parses tool output into structured errors. Dart Sass prints the
// message first and the "file line:col" trailer a few lines later, so a
// location line completes the most recent message instead of starting a new
// error.
func (ep *ErrorParser) ParseError(output string) []*ParsedError {
	var parsed []*ParsedError
	var current *ParsedError

	lines := strings.Split(output, "\n")

	for i, raw := range lines {
		line := strings.TrimSpace(raw)
		if line == "" {
			continue
		}

		if pe := tryParseWithPatterns(line, ep.messagePatterns); pe != nil {
			pe.Context = getContextLines(lines, i, 4)
			parsed = append(parsed, pe)
			current = pe
			continue
		}

		if loc := tryParseWithPatterns(line, ep.locationPatterns); loc != nil {
			if current != nil && current.File == "" {
				current.File = loc.File
				current.Line = loc.Line
				current.Column = loc.Column
				continue
			}
			if loc.Message == "" {
				continue
			}
			parsed = append(parsed, loc)
			current = loc
		}
	}

	if len(parsed) == 0 && strings.TrimSpace(output) != "" {
		first := strings.TrimSpace(lines[0])
		parsed = append(parsed, &ParsedError{
			Type:     BuildErrorTypeUnknown,
			Severity: ErrorSeverityError,
			Message:  first,
			RawError: output,
		})
	}

	return parsed
}

func tryParseWithPatterns(line string, patterns []errorPattern) *ParsedError {
	for _, pattern := range patterns {
		matches := pattern.regex.FindStringSubmatch(line)
		if matches != nil {
			file, lineNum, column, message := pattern.parseFields(matches)

			return &ParsedError{
				Type:       pattern.errorType,
				Severity:   pattern.severity,
				File:       file,
				Line:       lineNum,
				Column:     column,
				Message:    message,
				Suggestion: pattern.suggestion,
				RawError:   line,
			}
		}
	}
	return nil
}

func getContextLines(lines []string, index int, after int) []string {
	end := min(len(lines), index+after+1)

	var context []string
	for i := index + 1; i < end; i++ {
		if strings.TrimSpace(lines[i]) == "" {
			break
		}
		context = append(context, lines[i])
	}

	return context
}

func buildMessagePatterns() []errorPattern {
	return []errorPattern{
		{
			regex:      regexp.MustCompile(`^Error: Can't find stylesheet to import\.?$`),
			errorType:  BuildErrorTypeFileNotFound,
			severity:   ErrorSeverityError,
			suggestion: "Check the @use/@import path; partials are resolved relative to the styles directory",
			parseFields: func(matches []string) (string, int, int, string) {
				return "", 0, 0, "Can't find stylesheet to import"
			},
		},
		{
			regex:      regexp.MustCompile(`^Error: (.+)$`),
			errorType:  BuildErrorTypeStylesheet,
			severity:   ErrorSeverityError,
			suggestion: "Check the SCSS syntax at the reported location",
			parseFields: func(matches []string) (string, int, int, string) {
				return "", 0, 0, matches[1]
			},
		},
		{
			regex:     regexp.MustCompile(`^(?:DEPRECATION )?WARNING: (.+)$`),
			errorType: BuildErrorTypeStylesheet,
			severity:  ErrorSeverityWarning,
			parseFields: func(matches []string) (string, int, int, string) {
				return "", 0, 0, matches[1]
			},
		},
		{
			regex:      regexp.MustCompile(`^(?:[Xx✘] )?\[ERROR\] (.+)$`),
			errorType:  BuildErrorTypeScript,
			severity:   ErrorSeverityError,
			suggestion: "Check the script at the reported location",
			parseFields: func(matches []string) (string, int, int, string) {
				return "", 0, 0, matches[1]
			},
		},
	}
}

func buildLocationPatterns() []errorPattern {
	return []errorPattern{
		{
			// Dart Sass trailer: "src/styles/main.scss 3:13  root stylesheet"
			regex:     regexp.MustCompile(`^(\S+\.(?:scss|sass|css)) (\d+):(\d+)\s*(.*)$`),
			errorType: BuildErrorTypeStylesheet,
			severity:  ErrorSeverityError,
			parseFields: func(matches []string) (string, int, int, string) {
				line, _ := strconv.Atoi(matches[2])
				column, _ := strconv.Atoi(matches[3])
				return matches[1], line, column, ""
			},
		},
		{
			regex:     regexp.MustCompile(`^(\S+?):(\d+):(\d+): (?:error: )?(.+)$`),
			errorType: BuildErrorTypeUnknown,
			severity:  ErrorSeverityError,
			parseFields: func(matches []string) (string, int, int, string) {
				line, _ := strconv.Atoi(matches[2])
				column, _ := strconv.Atoi(matches[3])
				return matches[1], line, column, matches[4]
			},
		},
		{
			regex:      regexp.MustCompile(`^(?:.*: )?permission denied(?:: (.+))?$`),
			errorType:  BuildErrorTypePermission,
			severity:   ErrorSeverityError,
			suggestion: "Check file permissions and ownership",
			parseFields: func(matches []string) (string, int, int, string) {
				return matches[1], 0, 0, "Permission denied"
			},
		},
	}
}

// FormatError formats a parsed error for terminal display
func (pe *ParsedError) FormatError() string {
	var builder strings.Builder

	builder.WriteString(fmt.Sprintf("[%s] %s", pe.severityString(), pe.typeString()))

	if pe.File != "" {
		builder.WriteString(fmt.Sprintf(" in %s", pe.File))
		if pe.Line > 0 {
			builder.WriteString(fmt.Sprintf(":%d", pe.Line))
			if pe.Column > 0 {
				builder.WriteString(fmt.Sprintf(":%d", pe.Column))
			}
		}
	}

	builder.WriteString("\n")
	builder.WriteString(fmt.Sprintf("  %s\n", pe.Message))

	if pe.Suggestion != "" {
		builder.WriteString(fmt.Sprintf("  hint: %s\n", pe.Suggestion))
	}

	for _, line := range pe.Context {
		builder.WriteString(fmt.Sprintf("    %s\n", line))
	}

	return builder.String()
}

// ToBuildError converts the parsed error into a collector entry for task.
// The source excerpt printed by the tool follows the message.
func (pe *ParsedError) ToBuildError(task string) BuildError {
	msg := pe.Message
	if len(pe.Context) > 0 {
		msg += "\n" + strings.Join(pe.Context, "\n")
	}
	return BuildError{
		Task:     task,
		File:     pe.File,
		Line:     pe.Line,
		Column:   pe.Column,
		Message:  msg,
		Severity: pe.Severity,
	}
}

func (pe *ParsedError) typeString() string {
	switch pe.Type {
	case BuildErrorTypeStylesheet:
		return "Stylesheet"
	case BuildErrorTypeScript:
		return "Script"
	case BuildErrorTypeTemplate:
		return "Template"
	case BuildErrorTypeFileNotFound:
		return "File Not Found"
	case BuildErrorTypePermission:
		return "Permission"
	default:
		return "Unknown"
	}
}

func (pe *ParsedError) severityString() string {
	switch pe.Severity {
	case ErrorSeverityInfo:
		return "INFO"
	case ErrorSeverityWarning:
		return "WARN"
	case ErrorSeverityError:
		return "ERROR"
	case ErrorSeverityFatal:
		return "FATAL"
	default:
		return "UNKNOWN"
	}
}
