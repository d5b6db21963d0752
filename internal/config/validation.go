package config

import (
	"fmt"
	"net"
	"path/filepath"
	"regexp"
	"slices"
	"strings"

	"github.com/conneroisu/assetforge/internal/glob"
	"github.com/conneroisu/assetforge/internal/logging"
	"github.com/conneroisu/assetforge/internal/validation"
)

// ValidationError represents a configuration validation error with suggestions
type ValidationError struct {
	Field       string
	Value       interface{}
	Message     string
	Suggestions []string
}

func (ve *ValidationError) Error() string {
	return fmt.Sprintf("validation error in %s: %s", ve.Field, ve.Message)
}

// ValidationResult holds the result of configuration validation
type ValidationResult struct {
	Errors   []ValidationError
	Warnings []ValidationError
}

// HasErrors returns true if there are any validation errors
func (vr *ValidationResult) HasErrors() bool {
	return len(vr.Errors) > 0
}

// HasWarnings returns true if there are any validation warnings
func (vr *ValidationResult) HasWarnings() bool {
	return len(vr.Warnings) > 0
}

// String returns a formatted string of all validation issues
func (vr *ValidationResult) String() string {
	var builder strings.Builder

	if len(vr.Errors) > 0 {
		builder.WriteString("Validation errors:\n")
		for _, err := range vr.Errors {
			builder.WriteString(fmt.Sprintf("  - %s: %s\n", err.Field, err.Message))
			for _, suggestion := range err.Suggestions {
				builder.WriteString(fmt.Sprintf("      hint: %s\n", suggestion))
			}
		}
	}

	if len(vr.Warnings) > 0 {
		builder.WriteString("Validation warnings:\n")
		for _, warning := range vr.Warnings {
			builder.WriteString(fmt.Sprintf("  - %s: %s\n", warning.Field, warning.Message))
			for _, suggestion := range warning.Suggestions {
				builder.WriteString(fmt.Sprintf("      hint: %s\n", suggestion))
			}
		}
	}

	return builder.String()
}

// validateConfig validates configuration values and returns the first error.
func validateConfig(config *Config) error {
	result := ValidateConfigWithDetails(config)
	if result.HasErrors() {
		first := result.Errors[0]
		return &first
	}
	return nil
}

// ValidateConfigWithDetails performs comprehensive validation with detailed feedback
func ValidateConfigWithDetails(config *Config) *ValidationResult {
	result := &ValidationResult{}

	validateServerConfigDetails(&config.Server, result)

	for _, d := range []struct{ field, dir string }{
		{"source_dir", config.SourceDir},
		{"build_dir", config.BuildDir},
	} {
		if err := validatePath(d.dir); err != nil {
			result.Errors = append(result.Errors, ValidationError{
				Field:   d.field,
				Value:   d.dir,
				Message: err.Error(),
				Suggestions: []string{
					"Use a relative directory inside the project, e.g. 'src' or 'build'",
				},
			})
		}
	}
	if config.SourceDir != "" && filepath.Clean(config.SourceDir) == filepath.Clean(config.BuildDir) {
		result.Errors = append(result.Errors, ValidationError{
			Field:   "build_dir",
			Value:   config.BuildDir,
			Message: "build_dir must differ from source_dir; clean removes the build directory",
		})
	}

	validateFlagsDetails(&config.Flags, result)
	validatePathsDetails(&config.Paths, result)

	if config.Sprite.Mode != SpriteModeSymbol && config.Sprite.Mode != SpriteModeStack {
		result.Errors = append(result.Errors, ValidationError{
			Field:       "sprite.mode",
			Value:       config.Sprite.Mode,
			Message:     fmt.Sprintf("unknown sprite mode '%s'", config.Sprite.Mode),
			Suggestions: []string{"Use 'symbol' or 'stack'"},
		})
	}

	if q := config.Images.JPEGQuality; q < 1 || q > 100 {
		result.Errors = append(result.Errors, ValidationError{
			Field:   "images.jpeg_quality",
			Value:   q,
			Message: "quality must be between 1 and 100",
		})
	}
	if q := config.Images.WebPQuality; q < 1 || q > 100 {
		result.Errors = append(result.Errors, ValidationError{
			Field:   "images.webp_quality",
			Value:   q,
			Message: "quality must be between 1 and 100",
		})
	}
	if c := config.Images.PNGCompression; c < 0 || c > 9 {
		result.Errors = append(result.Errors, ValidationError{
			Field:   "images.png_compression",
			Value:   c,
			Message: "compression level must be between 0 and 9",
		})
	}

	if config.Watch.Debounce < 0 {
		result.Errors = append(result.Errors, ValidationError{
			Field:   "watch.debounce",
			Value:   config.Watch.Debounce,
			Message: "debounce cannot be negative",
		})
	}

	if err := validation.ValidateExecutable(config.Styles.SassBinary); err != nil {
		result.Errors = append(result.Errors, ValidationError{
			Field:       "styles.sass_binary",
			Value:       config.Styles.SassBinary,
			Message:     err.Error(),
			Suggestions: []string{"Install Dart Sass and use 'sass'"},
		})
	}

	if _, err := logging.ParseLevel(config.Log.Level); err != nil {
		result.Warnings = append(result.Warnings, ValidationError{
			Field:       "log.level",
			Value:       config.Log.Level,
			Message:     err.Error(),
			Suggestions: []string{"Use one of debug, info, warn, error"},
		})
	}

	return result
}

func validateServerConfigDetails(config *ServerConfig, result *ValidationResult) {
	if config.Port < 0 || config.Port > 65535 {
		result.Errors = append(result.Errors, ValidationError{
			Field:   "server.port",
			Value:   config.Port,
			Message: fmt.Sprintf("port %d is not in valid range 0-65535", config.Port),
			Suggestions: []string{
				"Use a port between 1024-65535 for non-privileged access",
				"Common development ports: 3000, 8080, 8000, 3001",
			},
		})
	} else if config.Port > 0 && config.Port < 1024 {
		result.Warnings = append(result.Warnings, ValidationError{
			Field:   "server.port",
			Value:   config.Port,
			Message: "port below 1024 requires elevated privileges",
		})
	}

	if config.Host != "" {
		if err := validateHostname(config.Host); err != nil {
			result.Errors = append(result.Errors, ValidationError{
				Field:   "server.host",
				Value:   config.Host,
				Message: err.Error(),
				Suggestions: []string{
					"Use 'localhost' for local development",
					"Use '0.0.0.0' to bind to all interfaces",
				},
			})
		}
	}
}

func validateFlagsDetails(flags *Flags, result *ValidationResult) {
	switch flags.TemplateEngine {
	case EngineHTML, EnginePug:
	default:
		result.Errors = append(result.Errors, ValidationError{
			Field:       "flags.template_engine",
			Value:       flags.TemplateEngine,
			Message:     fmt.Sprintf("unknown template engine '%s'", flags.TemplateEngine),
			Suggestions: []string{"Use 'html' or 'pug'"},
		})
	}
}

func validatePathsDetails(paths *Paths, result *ValidationResult) {
	categories := []struct {
		name     string
		pc       PathConfig
		needsSrc bool
	}{
		{"fonts", paths.Fonts, true},
		{"html", paths.HTML, true},
		{"pug", paths.Pug, true},
		{"styles", paths.Styles, true},
		{"scripts", paths.Scripts, true},
		{"framework", paths.Framework, false},
		{"images", paths.Images, true},
		{"svg", paths.SVG, true},
		{"sprite", paths.Sprite, true},
		{"resources", paths.Resources, true},
	}

	for _, c := range categories {
		field := "paths." + c.name
		if c.needsSrc && len(c.pc.Src) == 0 {
			result.Errors = append(result.Errors, ValidationError{
				Field:   field + ".src",
				Message: "at least one source glob is required",
			})
		}
		for _, g := range append(slices.Clone(c.pc.Src), c.pc.WatchSrc...) {
			if err := glob.Validate([]string{g}); err != nil {
				result.Errors = append(result.Errors, ValidationError{
					Field:       field,
					Value:       g,
					Message:     err.Error(),
					Suggestions: []string{"Check glob patterns: src/assets/img/**/*.{jpg,png}"},
				})
				continue
			}
			if strings.Contains(g, "..") {
				result.Errors = append(result.Errors, ValidationError{
					Field:   field,
					Value:   g,
					Message: "glob contains path traversal",
				})
			}
		}
		if c.pc.Dest != "" {
			if err := validatePath(c.pc.Dest); err != nil {
				result.Errors = append(result.Errors, ValidationError{
					Field:   field + ".dest",
					Value:   c.pc.Dest,
					Message: err.Error(),
				})
			}
		}
	}

	if paths.Scripts.Entry == "" {
		result.Errors = append(result.Errors, ValidationError{
			Field:   "paths.scripts.entry",
			Message: "script entry point is required",
		})
	}
	if paths.Sprite.SpriteFileName == "" || strings.ContainsAny(paths.Sprite.SpriteFileName, `/\`) {
		result.Errors = append(result.Errors, ValidationError{
			Field:   "paths.sprite.sprite_file_name",
			Value:   paths.Sprite.SpriteFileName,
			Message: "sprite file name must be a plain file name",
		})
	}
}

// validatePath validates a file path for security
func validatePath(path string) error {
	if path == "" {
		return fmt.Errorf("empty path")
	}

	cleanPath := filepath.Clean(path)

	if cleanPath == ".." || strings.HasPrefix(cleanPath, ".."+string(filepath.Separator)) {
		return fmt.Errorf("path contains traversal: %s", path)
	}

	if filepath.IsAbs(cleanPath) {
		return fmt.Errorf("path should be relative: %s", path)
	}

	dangerousChars := []string{";", "&", "|", "$", "`", "(", ")", "<", ">", "\"", "'"}
	for _, char := range dangerousChars {
		if strings.Contains(cleanPath, char) {
			return fmt.Errorf("path contains dangerous character: %s", char)
		}
	}

	return nil
}

var hostnameRegex = regexp.MustCompile(`^[a-zA-Z0-9]([a-zA-Z0-9-]{0,61}[a-zA-Z0-9])?(\.[a-zA-Z0-9]([a-zA-Z0-9-]{0,61}[a-zA-Z0-9])?)*$`)

func validateHostname(host string) error {
	dangerousChars := []string{";", "&", "|", "$", "`", "(", ")", "<", ">", "\"", "'", "\\"}
	for _, char := range dangerousChars {
		if strings.Contains(host, char) {
			return fmt.Errorf("contains dangerous character: %s", char)
		}
	}

	if net.ParseIP(host) != nil {
		return nil
	}

	if !hostnameRegex.MatchString(host) {
		return fmt.Errorf("invalid hostname format")
	}

	return nil
}
