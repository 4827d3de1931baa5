package validate

import (
	"regexp"
	"strings"
)

var reE164 = regexp.MustCompile(`^\+[1-9]\d{1,14}$`)

// NormalizePhone reduces a raw phone value to E.164. Numbers without a
// country prefix get countryCode prepended. An empty string means the
// value could not be made into a plausible number.
func NormalizePhone(raw, countryCode string) string {
	trimmed := strings.TrimSpace(raw)
	hadPlus := strings.HasPrefix(trimmed, "+") || strings.HasPrefix(trimmed, "00")

	var digits strings.Builder
	for _, r := range trimmed {
		if r >= '0' && r <= '9' {
			digits.WriteRune(r)
		}
	}
	d := strings.TrimPrefix(digits.String(), "00")
	if d == "" {
		return ""
	}

	// National numbers are 7-10 digits; anything longer already carries
	// a country code.
	if !hadPlus && len(d) <= 10 && countryCode != "" && !strings.HasPrefix(d, countryCode) {
		d = countryCode + d
	}
	candidate := "+" + strings.TrimLeft(d, "0")
	if !reE164.MatchString(candidate) {
		return ""
	}
	return candidate
}
