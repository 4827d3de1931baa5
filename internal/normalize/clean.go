// Package normalize provides total, idempotent cleaning helpers for
// extracted field values. Every function accepts arbitrary input and
// applying it twice yields the same output as applying it once.
package normalize

import (
	"regexp"
	"strings"
)

var (
	reHonorific = regexp.MustCompile(`(?i)^\s*(mr|mrs|ms|dr|prof|ing|lic|sr|sra|srta|don|doña)\.?\s+`)
	reNameChars = regexp.MustCompile(`[^\p{L}\s\-'.]`)
	reSpaces    = regexp.MustCompile(`\s+`)
	reLegalTail = regexp.MustCompile(`(?i)[\s,]+(s\.?a\.?s\.?|s\.?a\.?|s\.?l\.?|s\.?r\.?l\.?|ltda\.?|llc|inc\.?|corp\.?|co\.?|gmbh|b\.?v\.?|ltd\.?)\s*$`)
	reNonDigit  = regexp.MustCompile(`[^\d]`)
	rePresent   = regexp.MustCompile(`(?i)^(present|presente|actual(idad|mente)?|current(ly)?|now|hoy)$`)
)

// Lowercase particles that stay lowercase inside a name unless leading.
var nameParticles = map[string]bool{
	"de": true, "del": true, "la": true, "las": true, "los": true,
	"van": true, "von": true, "der": true, "da": true, "di": true,
	"el": true, "y": true, "e": true,
}

// CleanName strips honorifics and stray characters, collapses whitespace
// and title-cases the result, keeping Spanish/Dutch particles lowercase.
func CleanName(s string) string {
	s = reHonorific.ReplaceAllString(s, "")
	s = reNameChars.ReplaceAllString(s, "")
	s = strings.TrimSpace(reSpaces.ReplaceAllString(s, " "))
	if s == "" {
		return ""
	}
	tokens := strings.Fields(strings.ToLower(s))
	for i, tok := range tokens {
		if i > 0 && nameParticles[tok] {
			continue
		}
		tokens[i] = titleToken(tok)
	}
	return strings.Join(tokens, " ")
}

// CleanCompany trims legal-form suffixes like "S.A.S." or "GmbH" anchored
// at the end of the name.
func CleanCompany(s string) string {
	s = strings.TrimSpace(reSpaces.ReplaceAllString(s, " "))
	for {
		next := strings.TrimSpace(reLegalTail.ReplaceAllString(s, ""))
		next = strings.TrimRight(next, " ,")
		if next == s || next == "" {
			break
		}
		s = next
	}
	return s
}

// CleanPhone keeps digits and a single leading plus. Results with more
// than three digits get a plus prepended; anything shorter is dropped.
func CleanPhone(s string) string {
	digits := reNonDigit.ReplaceAllString(s, "")
	if len(digits) <= 3 {
		return ""
	}
	return "+" + digits
}

// CleanEmail lowercases and validates the coarse shape of an address.
func CleanEmail(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	at := strings.Index(s, "@")
	if at <= 0 || !strings.Contains(s[at:], ".") {
		return ""
	}
	return s
}

// CleanDateString maps open-ended range markers in either language to the
// canonical "Present"; all other values pass through trimmed.
func CleanDateString(s string) string {
	s = strings.TrimSpace(s)
	if rePresent.MatchString(s) {
		return "Present"
	}
	return s
}

func titleToken(tok string) string {
	// Hyphenated and apostrophe'd names title-case each part.
	for _, sep := range []string{"-", "'"} {
		if strings.Contains(tok, sep) {
			parts := strings.Split(tok, sep)
			for i, p := range parts {
				parts[i] = titleToken(p)
			}
			return strings.Join(parts, sep)
		}
	}
	if tok == "" {
		return tok
	}
	r := []rune(tok)
	return strings.ToUpper(string(r[0])) + string(r[1:])
}
