package entity

import (
	"fmt"
	"net/url"
	"strings"
)

// IsValidURL reports whether s is an absolute http(s) URL with a non-empty
// host and no fragment. Ports are not whitelisted — any port is accepted.
func IsValidURL(s string) bool {
	return ValidateURL(s) == nil
}

// ValidateURL validates a topic/callback URL against the hub's acceptance
// rule: scheme must be http or https, the host must be present, and the URL
// must carry no fragment. Unlike a general-purpose URL validator this
// deliberately does not restrict ports or probe the host's resolved address —
// the hub is not exposed to the kind of multi-tenant admin input that would
// justify SSRF hardening here.
func ValidateURL(rawURL string) error {
	if rawURL == "" {
		return &ValidationError{Field: "url", Message: "URL is required"}
	}

	parsed, err := url.Parse(rawURL)
	if err != nil {
		return &ValidationError{Field: "url", Message: "URL could not be parsed"}
	}

	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return &ValidationError{Field: "url", Message: "URL must use http or https scheme"}
	}

	if parsed.Host == "" {
		return &ValidationError{Field: "url", Message: "URL must have a valid host"}
	}

	if parsed.Fragment != "" {
		return &ValidationError{Field: "url", Message: "URL must not contain a fragment"}
	}

	return nil
}

// NormalizeIRI percent-encodes every byte of s whose rune is above 0x7F,
// leaving ASCII bytes untouched. It is idempotent: normalizing an already
// normalized string returns it unchanged, since percent-encoded sequences are
// themselves pure ASCII.
func NormalizeIRI(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if r <= 0x7F {
			b.WriteByte(byte(r))
			continue
		}
		for _, c := range []byte(string(r)) {
			fmt.Fprintf(&b, "%%%02X", c)
		}
	}
	return b.String()
}
