package common

import (
	"net/mail"
	"strings"
)

// ValidEmail reports whether s is a bare email address ("user@example.com").
// Display names, surrounding whitespace and dotless domains are rejected.
func ValidEmail(s string) bool {
	addr, err := mail.ParseAddress(s)
	if err != nil || addr.Address != s || addr.Name != "" {
		return false
	}
	at := strings.LastIndexByte(s, '@')
	domain := s[at+1:]
	return strings.Contains(domain, ".") && !strings.HasPrefix(domain, ".") && !strings.HasSuffix(domain, ".")
}
