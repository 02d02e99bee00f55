// pantry/validate/email.go
// Package validate checks untrusted form input.
package validate

import (
	"net"
	"net/mail"
	"strings"
)

// SanitizeEmail trims s and removes every character outside the set
// allowed in an address: letters, digits and !#$%&'*+-=?^_`{|}~@.[]
func SanitizeEmail(s string) string {
	s = strings.TrimSpace(s)
	return strings.Map(func(r rune) rune {
		if emailSafe(r) {
			return r
		}
		return -1
	}, s)
}

func emailSafe(r rune) bool {
	switch {
	case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
		return true
	}
	return strings.ContainsRune("!#$%&'*+-=?^_`{|}~@.[]", r)
}

// EmailValid reports whether s is a bare addr-spec suitable for Reply-To:
// no display name, a dot-atom local part of at most 64 bytes and a
// dotted hostname (or bracketed IP literal), 254 bytes overall.
// Local-only hosts such as "localhost" are rejected.
func EmailValid(s string) bool {
	if s == "" || len(s) > 254 {
		return false
	}
	at := strings.LastIndexByte(s, '@')
	if at <= 0 || at > 64 {
		return false
	}
	local, domain := s[:at], s[at+1:]

	if strings.HasPrefix(domain, "[") {
		if !validDomainLiteral(domain) {
			return false
		}
	} else if !validHostname(domain) {
		return false
	}

	// The domain is checked above; net/mail judges the local part against a
	// placeholder host so IP literals don't depend on its literal support.
	probe := local + "@example.com"
	addr, err := mail.ParseAddress(probe)
	return err == nil && addr.Name == "" && addr.Address == probe
}

func validDomainLiteral(d string) bool {
	if !strings.HasSuffix(d, "]") {
		return false
	}
	inner := d[1 : len(d)-1]
	inner = strings.TrimPrefix(inner, "IPv6:")
	return net.ParseIP(inner) != nil
}

func validHostname(d string) bool {
	if len(d) > 253 {
		return false
	}
	labels := strings.Split(d, ".")
	if len(labels) < 2 {
		return false
	}
	for _, l := range labels {
		if len(l) == 0 || len(l) > 63 {
			return false
		}
		if l[0] == '-' || l[len(l)-1] == '-' {
			return false
		}
		for i := 0; i < len(l); i++ {
			c := l[i]
			if !(c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' || c >= '0' && c <= '9' || c == '-') {
				return false
			}
		}
	}
	return true
}

// SimpleEmailValid is a light guardrail for configuration values: non-empty,
// an '@' that is neither first nor last, and a dot in the domain.
func SimpleEmailValid(s string) bool {
	s = strings.TrimSpace(s)
	at := strings.IndexByte(s, '@')
	if at <= 0 || at == len(s)-1 {
		return false
	}
	return strings.Contains(s[at+1:], ".")
}
