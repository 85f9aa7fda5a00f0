// ABOUTME: URL canonicalization for feed subscription identity
// ABOUTME: Collapses scheme, trailing-slash, and percent-encoding variants to one key

package canonical

import (
	"net/url"
	"strings"
)

// Canonicalize maps a raw feed URL to its canonical key. Two URLs that
// differ only by scheme (http/https), trailing slashes, or percent-encoding
// produce the same key. The function is total and idempotent; it never
// returns an error. An empty or whitespace-only input yields "", which
// callers must treat as "no feed" rather than a valid identity.
func Canonicalize(raw string) string {
	s := strings.TrimSpace(raw)
	if s == "" {
		return ""
	}

	// Malformed escapes fall back to the raw string; trailing-slash
	// stripping still applies so the key is always defined. Decoding runs
	// to a fixed point so nested encoding cannot break idempotence; each
	// productive pass strictly shortens the string, so the loop terminates.
	for {
		decoded, err := url.PathUnescape(s)
		if err != nil || decoded == s {
			break
		}
		s = decoded
	}

	s = stripScheme(s)
	s = strings.TrimRight(s, "/")
	s = collapseSlashes(s)

	return s
}

// stripScheme removes a leading http:// or https:// case-insensitively.
func stripScheme(s string) string {
	lower := strings.ToLower(s)
	for _, prefix := range []string{"https://", "http://"} {
		if strings.HasPrefix(lower, prefix) {
			return s[len(prefix):]
		}
	}
	return s
}

// collapseSlashes reduces runs of slashes to a single slash. Scheme
// separators never reach this point because stripScheme runs first;
// any "://" left in the string belongs to a non-http scheme and is
// preserved as-is.
func collapseSlashes(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	prevSlash := false
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c == '/' {
			if prevSlash {
				continue
			}
			// Keep "://" intact for non-http schemes.
			if i+1 < len(s) && s[i+1] == '/' && i > 0 && s[i-1] == ':' {
				b.WriteString("//")
				i++
				prevSlash = false
				continue
			}
			prevSlash = true
		} else {
			prevSlash = false
		}
		b.WriteByte(c)
	}
	return b.String()
}
