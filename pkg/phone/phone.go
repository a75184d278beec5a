package phone

import "strings"

// suffixLen is the number of trailing digits compared when both numbers are
// long enough. Provider identifiers and admin-entered numbers disagree on
// country-code presence, so we match on the national significant part.
const suffixLen = 10

// Normalize strips every non-digit character from the given identifier.
func Normalize(raw string) string {
	var b strings.Builder
	b.Grow(len(raw))
	for _, r := range raw {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// Matches reports whether two phone identifiers refer to the same number.
// Both sides are reduced to digits; if either has fewer than 10 digits the
// comparison falls back to exact equality, otherwise the last 10 digits are
// compared. Two distinct numbers sharing a 10-digit suffix will collide —
// known limitation of a single-country deployment.
func Matches(a, b string) bool {
	da := Normalize(a)
	db := Normalize(b)
	if len(da) < suffixLen || len(db) < suffixLen {
		return da == db
	}
	return da[len(da)-suffixLen:] == db[len(db)-suffixLen:]
}

// EnsureCountryCode normalizes an admin-entered number and prefixes the
// Indian country code when exactly 10 digits were given.
func EnsureCountryCode(raw string) string {
	digits := Normalize(strings.TrimSpace(raw))
	if len(digits) == suffixLen {
		return "91" + digits
	}
	return digits
}
