// Package validation checks values that end up in a process command line
// or a network address before they are used.
package validation

import (
	"fmt"
	"net"
	"net/url"
	"strconv"
	"strings"
)

// ValidateURL validates the URL handed to the platform browser opener.
func ValidateURL(rawURL string) error {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return fmt.Errorf("invalid URL: %w", err)
	}

	// Only http/https; other schemes reach protocol handlers.
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return fmt.Errorf("invalid URL scheme: %s (only http/https allowed)", parsed.Scheme)
	}

	dangerous := []string{";", "&", "|", "`", "$", "(", ")", "<", ">", "\"", "'", "\\", "\n", "\r"}
	for _, char := range dangerous {
		if strings.Contains(rawURL, char) {
			return fmt.Errorf("URL contains dangerous character: %s", char)
		}
	}

	if strings.Contains(rawURL, " ") {
		return fmt.Errorf("URL contains spaces")
	}

	if parsed.Host == "" {
		return fmt.Errorf("URL must have a valid hostname")
	}

	return nil
}

// ValidateEndpoint validates an object storage endpoint of the form
// host[:port]. Schemes and paths are rejected; TLS is a separate setting.
func ValidateEndpoint(endpoint string) error {
	if endpoint == "" {
		return fmt.Errorf("endpoint cannot be empty")
	}
	if strings.Contains(endpoint, "://") {
		return fmt.Errorf("endpoint %q must not include a scheme (use use_ssl instead)", endpoint)
	}
	if strings.ContainsAny(endpoint, "/?# \t") {
		return fmt.Errorf("endpoint %q must be host[:port]", endpoint)
	}

	host := endpoint
	if h, port, err := net.SplitHostPort(endpoint); err == nil {
		n, err := strconv.Atoi(port)
		if err != nil || n < 1 || n > 65535 {
			return fmt.Errorf("endpoint %q has an invalid port", endpoint)
		}
		host = h
	}
	if host == "" {
		return fmt.Errorf("endpoint %q has no host", endpoint)
	}
	return nil
}
