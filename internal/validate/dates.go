package validate

import (
	"strings"
	"time"
)

// dateLayouts is tried in order; the first parse wins. Day-first layouts
// come before month-first because most source documents are Latin American.
var dateLayouts = []string{
	"2006-01-02",
	"02/01/2006",
	"02-01-2006",
	"01/2006",
	"January 2006",
	"Jan 2006",
	"2006",
}

// ParseDate resolves an extracted date string to a time. "Present" (in
// canonical form from the normalizer) resolves to now.
func ParseDate(s string, now time.Time) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	if strings.EqualFold(s, "present") {
		return now, true
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}
