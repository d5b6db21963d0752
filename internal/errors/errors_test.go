package errors

import (
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAssetErrorFormatting(t *testing.T) {
	cause := errors.New("exit status 65")
	err := NewBuildError("SCSS_COMPILE", "compile failed", cause).
		WithTask("styles").
		WithLocation("src/styles/main.scss", 3, 13)

	assert.Equal(t, "[SCSS_COMPILE] task:styles src/styles/main.scss:3:13 compile failed: exit status 65", err.Error())
	assert.Equal(t, cause, errors.Unwrap(err))
}

func TestAssetErrorIs(t *testing.T) {
	a := NewConfigError("BAD_PORT", "port out of range")
	b := NewConfigError("BAD_PORT", "other message")
	c := NewConfigError("BAD_ENGINE", "port out of range")

	assert.True(t, errors.Is(a, b))
	assert.False(t, errors.Is(a, c))
}

func TestDiagnostics(t *testing.T) {
	entries := []BuildError{{Task: "styles", File: "a.scss", Line: 1}, {Task: "styles", File: "b.scss", Line: 2}}
	err := fmt.Errorf("run: %w", NewBuildError("SCSS_COMPILE", "compile failed", nil).WithDiagnostics(entries))

	assert.Equal(t, entries, Diagnostics(err))
	assert.Nil(t, Diagnostics(NewBuildError("X", "y", nil)))
	assert.Nil(t, Diagnostics(errors.New("plain")))
}

func TestLocation(t *testing.T) {
	err := fmt.Errorf("wrap: %w", NewBuildError("X", "y", nil).WithLocation("a.scss", 1, 2))
	file, line, col := Location(err)
	assert.Equal(t, "a.scss", file)
	assert.Equal(t, 1, line)
	assert.Equal(t, 2, col)
}

func TestErrorCollector(t *testing.T) {
	ec := NewErrorCollector()
	assert.False(t, ec.HasErrors())
	assert.Empty(t, ec.ErrorOverlay())

	ec.Add(BuildError{Task: "styles", File: "main.scss", Line: 1, Message: "bad <token>", Severity: ErrorSeverityError})
	ec.Add(BuildError{Task: "scripts", File: "main.js", Line: 2, Message: "unexpected", Severity: ErrorSeverityWarning})

	require.True(t, ec.HasErrors())
	assert.Len(t, ec.GetErrorsByTask("styles"), 1)

	overlay := ec.ErrorOverlay()
	assert.Contains(t, overlay, "assetforge-error-overlay")
	assert.Contains(t, overlay, "bad &lt;token&gt;")
	assert.Contains(t, overlay, "STYLES")

	ec.ClearTask("styles")
	assert.Empty(t, ec.GetErrorsByTask("styles"))
	assert.Len(t, ec.GetErrors(), 1)

	ec.ClearTask("scripts")
	assert.False(t, ec.HasErrors())
}

func TestParseSassOutput(t *testing.T) {
	output := strings.Join([]string{
		`Error: expected ";".`,
		`  ,`,
		`3 |   color: red`,
		`  |             ^`,
		`  '`,
		`  src/styles/main.scss 3:13  root stylesheet`,
	}, "\n")

	parsed := NewErrorParser().ParseError(output)
	require.Len(t, parsed, 1)

	pe := parsed[0]
	assert.Equal(t, BuildErrorTypeStylesheet, pe.Type)
	assert.Equal(t, `expected ";".`, pe.Message)
	assert.Equal(t, "src/styles/main.scss", pe.File)
	assert.Equal(t, 3, pe.Line)
	assert.Equal(t, 13, pe.Column)
	assert.NotEmpty(t, pe.Context)

	formatted := pe.FormatError()
	assert.Contains(t, formatted, "src/styles/main.scss:3:13")

	be := pe.ToBuildError("styles")
	assert.Equal(t, "styles", be.Task)
	assert.Equal(t, 3, be.Line)
	assert.True(t, strings.HasPrefix(be.Message, `expected ";".`+"\n"))
	assert.Contains(t, be.Message, "3 |   color: red")
}

func TestParseMissingImport(t *testing.T) {
	output := "Error: Can't find stylesheet to import.\n  src/styles/main.scss 1:9  root stylesheet\n"
	parsed := NewErrorParser().ParseError(output)
	require.Len(t, parsed, 1)
	assert.Equal(t, BuildErrorTypeFileNotFound, parsed[0].Type)
	assert.Equal(t, 1, parsed[0].Line)
}

func TestParseUnrecognisedOutput(t *testing.T) {
	parsed := NewErrorParser().ParseError("something odd happened\nmore")
	require.Len(t, parsed, 1)
	assert.Equal(t, BuildErrorTypeUnknown, parsed[0].Type)
	assert.Equal(t, "something odd happened", parsed[0].Message)

	assert.Empty(t, NewErrorParser().ParseError("   "))
}

func TestEnhancedError(t *testing.T) {
	err := NewEnhancedError("Failed to compile styles", errors.New("exec: \"sass\": executable file not found"), MissingToolError("sass"))
	assert.Contains(t, err.Error(), "Install Dart Sass")
	assert.Contains(t, err.Error(), "npm install -g sass")
	assert.NotNil(t, errors.Unwrap(err))

	bare := NewEnhancedError("Failed", errors.New("cause"), nil)
	assert.Equal(t, "Failed: cause", bare.Error())
}

func TestServerStartSuggestions(t *testing.T) {
	s := ServerStartError(errors.New("listen tcp :3000: bind: address already in use"), 3000)
	require.NotEmpty(t, s)
	assert.Contains(t, s[1].Command, "--port 3001")
}
