package validate

import (
	"time"

	"github.com/talahq/docintake/internal/fields"
	"github.com/talahq/docintake/internal/normalize"
)

func (v *Validator) validateCV(cv *fields.CVRecord, res *Result) {
	now := time.Now()

	cv.FullName = normalize.CleanName(cv.FullName)
	if cv.FullName == "" {
		res.addError("full_name is missing")
		res.FieldConfidence["full_name"] = 0
	} else {
		res.FieldConfidence["full_name"] = 0.9
	}

	cv.Email = normalize.CleanEmail(cv.Email)
	if cv.Email == "" {
		res.addWarning("email is missing or malformed")
		res.FieldConfidence["email"] = 0
	} else {
		res.FieldConfidence["email"] = 0.95
	}

	if cv.Phone != "" {
		normalized := NormalizePhone(cv.Phone, v.countryCode)
		if normalized == "" {
			res.addWarning("phone %q could not be normalized to E.164", cv.Phone)
			cv.Phone = ""
			res.FieldConfidence["phone"] = 0
		} else {
			cv.Phone = normalized
			res.FieldConfidence["phone"] = 0.9
		}
	}

	cv.Skills = normalize.NormalizeSkills(cv.Skills)
	if len(cv.Skills) == 0 {
		res.addWarning("no skills extracted")
	}
	res.FieldConfidence["skills"] = skillConfidence(len(cv.Skills))

	for i := range cv.Experience {
		entry := &cv.Experience[i]
		entry.Company = normalize.CleanCompany(entry.Company)
		entry.StartDate = normalize.CleanDateString(entry.StartDate)
		entry.EndDate = normalize.CleanDateString(entry.EndDate)

		start, okStart := ParseDate(entry.StartDate, now)
		end, okEnd := ParseDate(entry.EndDate, now)
		if okStart && okEnd && end.Before(start) {
			res.addError("experience %d: end date %q precedes start date %q",
				i+1, entry.EndDate, entry.StartDate)
		}
		if okStart && start.After(now) {
			res.addWarning("experience %d: start date %q is in the future", i+1, entry.StartDate)
		}
	}
	if len(cv.Experience) == 0 {
		res.addWarning("no experience entries extracted")
		res.FieldConfidence["experience"] = 0
	} else {
		res.FieldConfidence["experience"] = 0.8
	}

	if len(cv.Education) == 0 {
		res.FieldConfidence["education"] = 0
	} else {
		res.FieldConfidence["education"] = 0.8
	}
}

func skillConfidence(n int) float32 {
	switch {
	case n == 0:
		return 0
	case n < 3:
		return 0.6
	default:
		return 0.85
	}
}
