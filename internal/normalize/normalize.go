// Package normalize cleans user-supplied text before it is validated or stored.
package normalize

import (
	"regexp"
	"strings"

	htmltomarkdown "github.com/JohannesKaufmann/html-to-markdown/v2"
	"golang.org/x/text/unicode/norm"
)

// htmlTagPattern detects common markup returned by book search APIs.
var htmlTagPattern = regexp.MustCompile(`<(p|br|div|span|b|i|strong|em|a|ul|ol|li|h[1-6]|blockquote)[\s>/]`)

// Email returns the canonical form of an email address: NFKC-normalized,
// trimmed, and lowercased. Uniqueness and lookups use this form.
func Email(raw string) string {
	return strings.ToLower(Text(raw))
}

// Username returns the display form of a username (NFKC, trimmed).
func Username(raw string) string {
	return Text(raw)
}

// UsernameKey returns the case-insensitive uniqueness key for a username.
func UsernameKey(raw string) string {
	return strings.ToLower(Username(raw))
}

// Text applies NFKC normalization, drops null bytes, and trims surrounding space.
func Text(raw string) string {
	return strings.TrimSpace(sanitizeString(norm.NFKC.String(raw)))
}

// Authors trims each name and drops empty entries, keeping order.
// Nil input stays nil.
func Authors(raw []string) []string {
	if raw == nil {
		return nil
	}
	out := make([]string, 0, len(raw))
	for _, a := range raw {
		if a = Text(a); a != "" {
			out = append(out, a)
		}
	}
	return out
}

// Description converts HTML book descriptions to Markdown.
// Plain text is only trimmed.
func Description(raw string) string {
	s := strings.TrimSpace(sanitizeString(raw))
	if s == "" || !ContainsHTML(s) {
		return s
	}

	markdown, err := htmltomarkdown.ConvertString(s)
	if err != nil {
		return s
	}
	return strings.TrimSpace(markdown)
}

// ContainsHTML reports whether s appears to contain HTML markup.
func ContainsHTML(s string) bool {
	return htmlTagPattern.MatchString(strings.ToLower(s))
}

// sanitizeString removes null bytes, which some storage engines reject.
func sanitizeString(s string) string {
	return strings.Map(func(r rune) rune {
		if r == 0 {
			return -1
		}
		return r
	}, s)
}
