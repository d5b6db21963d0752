package errors

import (
	"fmt"
	"strings"
)

// ErrorSuggestion represents a suggestion for fixing an error
type ErrorSuggestion struct {
	Title       string
	Description string
	Command     string
	Example     string
}

// ServerStartError generates suggestions for dev server startup failures
func ServerStartError(err error, port int) []ErrorSuggestion {
	suggestions := []ErrorSuggestion{}

	errStr := err.Error()

	if strings.Contains(errStr, "address already in use") || strings.Contains(errStr, "bind") {
		suggestions = append(suggestions,
			ErrorSuggestion{
				Title:       "Port already in use",
				Description: fmt.Sprintf("Port %d is already being used by another process", port),
				Command:     fmt.Sprintf("lsof -i :%d", port),
			},
			ErrorSuggestion{
				Title:       "Use a different port",
				Description: "Start the dev server on a different port",
				Command:     fmt.Sprintf("assetforge start --port %d", port+1),
			},
		)
	}

	if strings.Contains(errStr, "permission denied") && port < 1024 {
		suggestions = append(suggestions, ErrorSuggestion{
			Title:       "Use unprivileged port",
			Description: "Ports below 1024 require root privileges",
			Command:     "assetforge start --port 3000",
		})
	}

	return suggestions
}

// ConfigurationError generates suggestions for configuration issues
func ConfigurationError(configError string, configPath string) []ErrorSuggestion {
	suggestions := []ErrorSuggestion{
		{
			Title:       "Check configuration file",
			Description: "Verify the configuration file exists and has valid syntax",
			Command:     "cat " + configPath,
		},
		{
			Title:       "Regenerate defaults",
			Description: "Write a fresh configuration with every default spelled out",
			Command:     "assetforge init --force",
		},
	}

	if strings.Contains(configError, "yaml") || strings.Contains(configError, "unmarshal") {
		suggestions = append(suggestions, ErrorSuggestion{
			Title:       "Fix YAML syntax",
			Description: "There's a syntax error in your YAML configuration",
			Example:     "Use proper indentation and avoid tabs",
		})
	}

	if strings.Contains(configError, "glob") {
		suggestions = append(suggestions, ErrorSuggestion{
			Title:       "Check glob patterns",
			Description: "Source globs use doublestar syntax with brace alternatives",
			Example:     "src/assets/img/**/*.{jpg,jpeg,png,webp}",
		})
	}

	return suggestions
}

// MissingToolError generates suggestions when an external executable the
// pipeline delegates to is not installed.
func MissingToolError(tool string) []ErrorSuggestion {
	switch tool {
	case "sass":
		return []ErrorSuggestion{
			{
				Title:       "Install Dart Sass",
				Description: "Styles are compiled by the sass executable",
				Command:     "npm install -g sass",
			},
			{
				Title:       "Point at an existing binary",
				Description: "Set styles.sass_binary in the configuration",
				Example:     "styles:\n  sass_binary: ./node_modules/.bin/sass",
			},
		}
	case "vips":
		return []ErrorSuggestion{
			{
				Title:       "Install libvips",
				Description: "Image compression and WebP conversion use libvips",
				Command:     "apt-get install libvips-dev  # or: brew install vips",
			},
		}
	default:
		return []ErrorSuggestion{
			{
				Title:   "Install " + tool,
				Command: "which " + tool,
			},
		}
	}
}

// FormatSuggestions formats suggestions into a user-friendly string
func FormatSuggestions(title string, suggestions []ErrorSuggestion) string {
	if len(suggestions) == 0 {
		return title
	}

	var output strings.Builder
	output.WriteString(title + "\n\n")
	output.WriteString("Suggestions:\n")

	for i, suggestion := range suggestions {
		output.WriteString(fmt.Sprintf("  %d. %s\n", i+1, suggestion.Title))
		if suggestion.Description != "" {
			output.WriteString(fmt.Sprintf("     %s\n", suggestion.Description))
		}
		if suggestion.Command != "" {
			output.WriteString(fmt.Sprintf("     Run: %s\n", suggestion.Command))
		}
		if suggestion.Example != "" {
			output.WriteString(fmt.Sprintf("     Example: %s\n", suggestion.Example))
		}
		output.WriteString("\n")
	}

	return output.String()
}

// EnhancedError wraps an error with suggestions
type EnhancedError struct {
	OriginalError error
	Title         string
	Suggestions   []ErrorSuggestion
}

// Error implements the error interface
func (e *EnhancedError) Error() string {
	msg := FormatSuggestions(e.Title, e.Suggestions)
	if e.OriginalError != nil && len(e.Suggestions) == 0 {
		msg += ": " + e.OriginalError.Error()
	}
	return msg
}

// Unwrap returns the original error
func (e *EnhancedError) Unwrap() error {
	return e.OriginalError
}

// NewEnhancedError creates a new enhanced error with suggestions
func NewEnhancedError(title string, originalError error, suggestions []ErrorSuggestion) *EnhancedError {
	return &EnhancedError{
		OriginalError: originalError,
		Title:         title,
		Suggestions:   suggestions,
	}
}
