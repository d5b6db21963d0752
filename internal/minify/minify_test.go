package minify

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHTMLCollapsesWhitespace(t *testing.T) {
	src := "<!DOCTYPE html>\n<html>\n  <head>\n    <title>Home</title>\n  </head>\n  <body>\n    <p class=\"lead\">\n      Hello\n      world\n    </p>\n  </body>\n</html>\n"

	out, err := New().HTML([]byte(src))
	require.NoError(t, err)

	s := string(out)
	assert.Less(t, len(s), len(src))
	assert.NotContains(t, s, "\n  ")
	assert.Contains(t, s, `class="lead"`)
	assert.Contains(t, s, "</body>")
	assert.Contains(t, s, "Hello world")
}

func TestHTMLMinifiesInlineStylesAndScripts(t *testing.T) {
	src := "<html><head><style>\nbody {\n  color: #ff0000;\n  margin: 0px;\n}\n</style></head>" +
		"<body><script>\nvar answer = 40 + 2;\n\nconsole.log( answer );\n</script></body></html>"

	out, err := New().HTML([]byte(src))
	require.NoError(t, err)
	assert.Contains(t, string(out), "body{color:red;margin:0}")
	assert.Contains(t, string(out), "console.log(answer)")
}

func TestSVG(t *testing.T) {
	src := `<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 24 24">
  <!-- comment -->
  <path d="M 10 10 L 20 20" fill="#000000"/>
</svg>`
	out, err := New().SVG([]byte(src))
	require.NoError(t, err)
	assert.NotContains(t, string(out), "comment")
	assert.True(t, strings.HasPrefix(string(out), "<svg"))
	assert.Less(t, len(out), len(src))
}

func TestUnknownMediaType(t *testing.T) {
	_, err := New().Bytes("text/x-unknown", []byte("x"))
	assert.Error(t, err)
}
