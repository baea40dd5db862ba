// Package security provides shared security validation functions.
package security

import (
	"fmt"
	"net/url"
	"strings"
)

// allowedSchemes may appear in href and src attributes of exported pages.
var allowedSchemes = map[string]bool{
	"http":   true,
	"https":  true,
	"data":   true,
	"mailto": true,
}

// BlockedURL replaces a link that failed validation.
const BlockedURL = "#"

// ValidateLinkURL checks that rawURL cannot run script when used as a link or
// image source. Relative URLs and http, https, data and mailto URLs pass.
func ValidateLinkURL(rawURL string) error {
	// Control characters and spaces are dropped before parsing, as browsers do.
	cleaned := strings.Map(func(r rune) rune {
		if r <= ' ' || r == 0x7f {
			return -1
		}
		return r
	}, rawURL)

	parsed, err := url.Parse(cleaned)
	if err != nil {
		return fmt.Errorf("invalid URL: %w", err)
	}

	if parsed.Scheme == "" {
		return nil
	}
	if !allowedSchemes[strings.ToLower(parsed.Scheme)] {
		return fmt.Errorf("URL scheme %q is not allowed", parsed.Scheme)
	}
	if strings.EqualFold(parsed.Scheme, "data") && strings.HasPrefix(strings.ToLower(parsed.Opaque), "text/html") {
		return fmt.Errorf("data URLs with HTML content are not allowed")
	}
	return nil
}

// SafeLinkURL returns rawURL when it passes ValidateLinkURL and BlockedURL otherwise.
func SafeLinkURL(rawURL string) string {
	if ValidateLinkURL(rawURL) != nil {
		return BlockedURL
	}
	return rawURL
}
