// Package sanitize turns untrusted form input into plain text.
package sanitize

import (
	"html"
	"strings"

	"github.com/microcosm-cc/bluemonday"
	"golang.org/x/text/unicode/norm"
)

// strict removes every element and drops the contents of script and style.
// bluemonday policies are safe for concurrent use once built.
var strict = bluemonday.StrictPolicy()

// maxPasses bounds re-stripping of input that hides markup behind
// entities, including nested encodings like "&amp;lt;b&amp;gt;".
const maxPasses = 8

// Text trims s, strips all markup and normalizes the result to NFC.
// bluemonday escapes the text it keeps; that is undone here because the
// result ends up in a text/plain email, where "&amp;" would be noise.
// Unescaping can surface tags that were entity-encoded in the input, so
// stripping repeats until the output is stable.
func Text(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return ""
	}
	out := s
	for i := 0; i < maxPasses; i++ {
		next := strings.TrimSpace(html.UnescapeString(strict.Sanitize(out)))
		if next == out {
			return norm.NFC.String(out)
		}
		out = next
	}
	// Still changing: keep the escaped form so no tag survives.
	return norm.NFC.String(strings.TrimSpace(strict.Sanitize(out)))
}
