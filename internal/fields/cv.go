package fields

import (
	"log/slog"
	"regexp"
	"strings"

	"github.com/talahq/docintake/constants"
)

var (
	reEmail = regexp.MustCompile(`[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}`)
	rePhone = regexp.MustCompile(`\+?\d[\d\s().\-]{6,}\d`)
	// A date range like "2019 - 2023", "2019 to Present" or "2019 — actual".
	reYearRange = regexp.MustCompile(`(?i)\b((?:19|20)\d{2})\s*(?:-|–|—|to|a|hasta)\s*((?:19|20)\d{2}|present|presente|actual|current|now)\b`)

	sectionHeaders = map[string]*regexp.Regexp{
		"experience": regexp.MustCompile(`(?i)^\s*(work\s+)?(experience|employment( history)?|experiencia( laboral| profesional)?)\s*:?\s*$`),
		"education":  regexp.MustCompile(`(?i)^\s*(education|academic background|educaci[oó]n|formaci[oó]n( acad[eé]mica)?|estudios)\s*:?\s*$`),
		"skills":     regexp.MustCompile(`(?i)^\s*((technical |core )?skills|competenc(ies|ias)|habilidades( t[eé]cnicas)?|conocimientos)\s*:?\s*$`),
		"languages":  regexp.MustCompile(`(?i)^\s*(languages?|idiomas?)\s*:?\s*$`),
		"summary":    regexp.MustCompile(`(?i)^\s*((professional |executive )?summary|profile|about( me)?|perfil( profesional)?|resumen)\s*:?\s*$`),
	}
)

// CVExtractor pulls contact details and section content out of resume text.
type CVExtractor struct {
	logger *slog.Logger
}

func NewCVExtractor(logger *slog.Logger) *CVExtractor {
	if logger == nil {
		logger = slog.Default()
	}
	return &CVExtractor{logger: logger}
}

func (e *CVExtractor) Type() constants.DocumentType { return constants.TypeCV }

func (e *CVExtractor) Extract(text string) (Record, error) {
	sections := splitSections(text)

	rec := &CVRecord{
		FullName: guessName(text),
		Email:    strings.ToLower(reEmail.FindString(text)),
		Phone:    strings.TrimSpace(rePhone.FindString(text)),
		Summary:  firstLines(sections["summary"], 5),
	}

	rec.Skills = splitList(sections["skills"])
	rec.Languages = splitList(sections["languages"])
	rec.Experience = parseExperience(sections["experience"])
	rec.Education = parseEducation(sections["education"])

	// Confidence grows with the fraction of expected fields present.
	fields, present := 7, 0
	if rec.FullName != "" {
		present++
	}
	if rec.Email != "" {
		present++
	}
	if rec.Phone != "" {
		present++
	}
	if rec.Summary != "" {
		present++
	}
	if len(rec.Skills) > 0 {
		present++
	}
	if len(rec.Experience) > 0 {
		present++
	}
	if len(rec.Education) > 0 {
		present++
	}
	conf := clamp01(0.2 + 0.75*float32(present)/float32(fields))

	e.logger.Debug("cv extracted",
		"name", rec.FullName != "", "email", rec.Email != "",
		"experience_entries", len(rec.Experience), "skills", len(rec.Skills))

	return Record{
		Type:       constants.TypeCV,
		RawExcerpt: excerpt(text),
		Confidence: conf,
		CV:         rec,
	}, nil
}

// splitSections buckets lines under the most recent recognized header.
// Text before any header lands in the "" bucket.
func splitSections(text string) map[string]string {
	out := map[string]*strings.Builder{}
	current := ""
	for _, line := range strings.Split(text, "\n") {
		matched := false
		for name, re := range sectionHeaders {
			if re.MatchString(line) {
				current = name
				matched = true
				break
			}
		}
		if matched {
			continue
		}
		b, ok := out[current]
		if !ok {
			b = &strings.Builder{}
			out[current] = b
		}
		b.WriteString(line)
		b.WriteString("\n")
	}
	sections := make(map[string]string, len(out))
	for k, b := range out {
		sections[k] = strings.TrimSpace(b.String())
	}
	return sections
}

// guessName takes the first non-empty line that contains no digits and at
// most five tokens. Header-like lines (all caps is fine, emails are not)
// are skipped.
func guessName(text string) string {
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if strings.ContainsAny(line, "0123456789@|/") {
			return ""
		}
		if tokens := strings.Fields(line); len(tokens) >= 1 && len(tokens) <= 5 {
			return line
		}
		return ""
	}
	return ""
}

func firstLines(s string, n int) string {
	if s == "" {
		return ""
	}
	lines := strings.Split(s, "\n")
	if len(lines) > n {
		lines = lines[:n]
	}
	return strings.TrimSpace(strings.Join(lines, "\n"))
}

// splitList breaks a section body on newlines, commas, semicolons and
// bullet characters, dropping empties.
func splitList(s string) []string {
	if s == "" {
		return nil
	}
	items := strings.FieldsFunc(s, func(r rune) bool {
		return r == '\n' || r == ',' || r == ';' || r == '•' || r == '·' || r == '|'
	})
	out := make([]string, 0, len(items))
	for _, it := range items {
		it = strings.TrimSpace(strings.TrimLeft(it, "-* \t"))
		if it != "" {
			out = append(out, it)
		}
	}
	return out
}

// parseExperience groups the experience section into entries anchored on
// year ranges. Lines between two ranges belong to the earlier entry's
// description.
func parseExperience(s string) []ExperienceEntry {
	if s == "" {
		return nil
	}
	var entries []ExperienceEntry
	var cur *ExperienceEntry
	var desc []string

	flush := func() {
		if cur != nil {
			cur.Detail = strings.TrimSpace(strings.Join(desc, " "))
			entries = append(entries, *cur)
		}
		cur, desc = nil, nil
	}

	for _, line := range strings.Split(s, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if m := reYearRange.FindStringSubmatch(line); m != nil {
			flush()
			title := strings.TrimSpace(reYearRange.ReplaceAllString(line, ""))
			title = strings.Trim(title, " -–—|,")
			cur = &ExperienceEntry{
				JobTitle:  title,
				StartDate: m[1],
				EndDate:   m[2],
			}
			continue
		}
		if cur != nil {
			if cur.Company == "" && len(strings.Fields(line)) <= 8 {
				cur.Company = line
				continue
			}
			desc = append(desc, line)
		}
	}
	flush()
	return entries
}

// parseEducation produces one entry per year-bearing line, using the line
// text minus the years as the degree/institution blob.
func parseEducation(s string) []EducationEntry {
	if s == "" {
		return nil
	}
	var entries []EducationEntry
	var cur *EducationEntry
	for _, line := range strings.Split(s, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if m := reYearRange.FindStringSubmatch(line); m != nil {
			if cur != nil {
				entries = append(entries, *cur)
			}
			degree := strings.Trim(strings.TrimSpace(reYearRange.ReplaceAllString(line, "")), " -–—|,")
			cur = &EducationEntry{Degree: degree, Year: m[2]}
			continue
		}
		if cur != nil && cur.Institution == "" {
			cur.Institution = line
			continue
		}
		if cur == nil {
			cur = &EducationEntry{Degree: line}
		}
	}
	if cur != nil {
		entries = append(entries, *cur)
	}
	return entries
}
