package validation

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidateURL(t *testing.T) {
	tests := []struct {
		name      string
		url       string
		expectErr bool
	}{
		{name: "valid http URL", url: "http://localhost:3000"},
		{name: "valid https URL", url: "https://example.com"},
		{name: "valid URL with path", url: "http://127.0.0.1:3000/index.html"},
		{name: "javascript scheme", url: "javascript:alert(1)", expectErr: true},
		{name: "file scheme", url: "file:///etc/passwd", expectErr: true},
		{name: "command injection", url: "http://localhost:3000;rm -rf /", expectErr: true},
		{name: "backtick", url: "http://localhost:3000/`id`", expectErr: true},
		{name: "newline", url: "http://localhost\nfoo", expectErr: true},
		{name: "space", url: "http://local host", expectErr: true},
		{name: "missing host", url: "http:///path", expectErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateURL(tt.url)
			if tt.expectErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestValidateEndpoint(t *testing.T) {
	tests := []struct {
		name      string
		endpoint  string
		expectErr bool
	}{
		{name: "host", endpoint: "s3.amazonaws.com"},
		{name: "host and port", endpoint: "localhost:9000"},
		{name: "ip and port", endpoint: "127.0.0.1:9000"},
		{name: "empty", endpoint: "", expectErr: true},
		{name: "scheme", endpoint: "https://s3.amazonaws.com", expectErr: true},
		{name: "path", endpoint: "localhost:9000/bucket", expectErr: true},
		{name: "bad port", endpoint: "localhost:http", expectErr: true},
		{name: "port out of range", endpoint: "localhost:70000", expectErr: true},
		{name: "no host", endpoint: ":9000", expectErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateEndpoint(tt.endpoint)
			if tt.expectErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestValidateExecutable(t *testing.T) {
	tests := []struct {
		name      string
		exe       string
		expectErr bool
	}{
		{name: "plain name", exe: "sass"},
		{name: "relative path", exe: "./node_modules/.bin/sass"},
		{name: "absolute path", exe: "/usr/local/bin/sass"},
		{name: "empty", exe: "", expectErr: true},
		{name: "blank", exe: "   ", expectErr: true},
		{name: "with argument", exe: "sass --quiet", expectErr: true},
		{name: "chained command", exe: "sass;rm", expectErr: true},
		{name: "substitution", exe: "$(sass)", expectErr: true},
		{name: "glob", exe: "sass*", expectErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateExecutable(tt.exe)
			if tt.expectErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
