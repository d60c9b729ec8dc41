package service

import (
	"regexp"
	"strconv"
	"strings"
)

const (
	maxUsernameLen  = 64
	fallbackUsername = "user"
)

var usernamePattern = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9_.-]{0,63}$`)

// ValidUsername reports whether s can be used as a username.
func ValidUsername(s string) bool {
	return usernamePattern.MatchString(s)
}

// usernameBase derives a username stem from the local part of an email.
// Characters outside the username alphabet are dropped.
func usernameBase(email string) string {
	local, _, _ := strings.Cut(email, "@")

	var b strings.Builder
	for _, r := range local {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == '_' || r == '.' || r == '-':
			if b.Len() > 0 {
				b.WriteRune(r)
			}
		}
	}

	base := b.String()
	if base == "" {
		return fallbackUsername
	}
	return base
}

// usernameCandidate returns base for n == 0 and base followed by n otherwise,
// truncating base so the result stays within the length limit.
func usernameCandidate(base string, n int) string {
	suffix := ""
	if n > 0 {
		suffix = strconv.Itoa(n)
	}
	if len(base)+len(suffix) > maxUsernameLen {
		base = base[:maxUsernameLen-len(suffix)]
	}
	return base + suffix
}
