package intake

import "strings"

// ValidEmail reports whether s looks like local@domain.tld. Deliverability is
// delegated to the email verification collaborator; this only checks shape.
func ValidEmail(s string) bool {
	s = strings.TrimSpace(s)
	if s == "" || strings.ContainsAny(s, " \t\n") {
		return false
	}
	at := strings.Index(s, "@")
	if at <= 0 || at != strings.LastIndex(s, "@") {
		return false
	}
	domain := s[at+1:]
	dot := strings.LastIndex(domain, ".")
	// Dot must exist after the @, with at least one char on each side.
	return dot > 0 && dot < len(domain)-1
}

// DigitsOnly strips every non-digit rune from s.
func DigitsOnly(s string) string {
	var b strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// PlausiblePhone reports whether s contains at least 10 digits once
// formatting characters are stripped.
func PlausiblePhone(s string) bool {
	return len(DigitsOnly(s)) >= 10
}

// ValidZip reports whether s is exactly 5 digits.
func ValidZip(s string) bool {
	if len(s) != 5 {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// FormatPhone renders digits progressively into (xxx) xxx-xxxx as the user
// types. Partial input is never rejected; extra digits are dropped.
func FormatPhone(s string) string {
	digits := DigitsOnly(s)
	if len(digits) > 10 {
		digits = digits[:10]
	}
	switch {
	case len(digits) == 0:
		return ""
	case len(digits) <= 3:
		return "(" + digits
	case len(digits) <= 6:
		return "(" + digits[:3] + ") " + digits[3:]
	default:
		return "(" + digits[:3] + ") " + digits[3:6] + "-" + digits[6:]
	}
}
