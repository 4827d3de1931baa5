package fields

import (
	"log/slog"
	"regexp"
	"strings"

	"github.com/talahq/docintake/constants"
)

// Quote categories, in tag priority order.
const (
	CategoryRisk     = "risk"
	CategoryStrength = "strength"
	CategoryConcern  = "concern"
	CategoryExplicit = "explicit"
	CategoryGeneral  = "general"
)

var (
	reQuoted     = regexp.MustCompile(`["\x{201C}]([^"\x{201C}\x{201D}]{20,300})["\x{201D}]`)
	reSentenceEnd = regexp.MustCompile(`[.!?]+[\s\n]+`)
	reExplicit   = regexp.MustCompile(`(?i)\b(strength|weakness|fortaleza|debilidad)\b`)
	reWhitespace = regexp.MustCompile(`\s+`)
)

// InterviewExtractor analyzes interview transcripts: quotes, risk flags,
// strengths/concerns, and a recommendation.
type InterviewExtractor struct {
	tables *KeywordTables
	logger *slog.Logger
}

func NewInterviewExtractor(tables *KeywordTables, logger *slog.Logger) *InterviewExtractor {
	if logger == nil {
		logger = slog.Default()
	}
	return &InterviewExtractor{tables: tables, logger: logger}
}

func (e *InterviewExtractor) Type() constants.DocumentType { return constants.TypeInterview }

func (e *InterviewExtractor) Extract(text string) (Record, error) {
	t := e.tables

	rec := &InterviewRecord{
		Quotes:    e.extractQuotes(text),
		RiskFlags: e.extractRiskFlags(text),
		Strengths: e.extractContexts(text, t.Strengths, ""),
		Concerns:  e.extractContexts(text, t.Concerns, ""),
	}

	overall := t.polarity(text)
	rec.OverallSentiment = sentimentLabel(overall)

	highRisk, mediumRisk := 0, 0
	for _, f := range rec.RiskFlags {
		if strings.HasPrefix(f, "HIGH RISK: ") {
			highRisk++
		} else {
			mediumRisk++
		}
	}

	score := t.Scoring.StrengthWeight*len(rec.Strengths) -
		t.Scoring.HighRiskWeight*highRisk -
		t.Scoring.MediumRiskWeight*mediumRisk -
		t.Scoring.ConcernWeight*len(rec.Concerns)
	switch rec.OverallSentiment {
	case SentimentPositive:
		score += t.Scoring.SentimentBonus
	case SentimentNegative:
		score -= t.Scoring.SentimentBonus
	}
	rec.RecommendationScore = score

	switch {
	case highRisk > 0 || score < t.Scoring.RejectBelow:
		rec.Recommendation = DecisionReject
	case score > t.Scoring.ProceedAbove &&
		(rec.OverallSentiment == SentimentPositive || rec.OverallSentiment == SentimentNeutral):
		rec.Recommendation = DecisionProceed
	default:
		rec.Recommendation = DecisionReview
	}

	signals := len(rec.Quotes) + len(rec.RiskFlags) + len(rec.Strengths) + len(rec.Concerns)
	conf := clamp01(0.35 + 0.08*float32(signals))

	e.logger.Debug("interview extracted",
		"quotes", len(rec.Quotes), "risk_flags", len(rec.RiskFlags),
		"score", score, "recommendation", rec.Recommendation)

	return Record{
		Type:       constants.TypeInterview,
		RawExcerpt: excerpt(text),
		Confidence: conf,
		Interview:  rec,
	}, nil
}

// extractQuotes prefers explicitly quoted spans; when the transcript has
// none, it falls back to keyword-bearing sentences of 50-300 chars.
func (e *InterviewExtractor) extractQuotes(text string) []Quote {
	t := e.tables
	max := t.Scoring.MaxQuotes

	var spans []string
	for _, m := range reQuoted.FindAllStringSubmatch(text, -1) {
		spans = append(spans, strings.TrimSpace(m[1]))
		if len(spans) >= max {
			break
		}
	}

	if len(spans) == 0 {
		for _, s := range splitSentences(text) {
			if len(s) < 50 || len(s) > 300 {
				continue
			}
			if anyMatch(t.HighRisk, s) || anyMatch(t.MediumRisk, s) || anyMatch(t.Strengths, s) {
				spans = append(spans, s)
				if len(spans) >= max {
					break
				}
			}
		}
	}

	quotes := make([]Quote, 0, len(spans))
	for _, s := range spans {
		quotes = append(quotes, Quote{
			Text:      s,
			Sentiment: sentimentLabel(t.polarity(s)),
			Category:  e.categorize(s),
		})
	}
	return quotes
}

// categorize tags a span by keyword-table membership, highest priority
// first: risk > strength > concern > explicit strength/weakness phrase >
// general.
func (e *InterviewExtractor) categorize(s string) string {
	t := e.tables
	switch {
	case anyMatch(t.HighRisk, s) || anyMatch(t.MediumRisk, s):
		return CategoryRisk
	case anyMatch(t.Strengths, s):
		return CategoryStrength
	case anyMatch(t.Concerns, s):
		return CategoryConcern
	case reExplicit.MatchString(s):
		return CategoryExplicit
	default:
		return CategoryGeneral
	}
}

// extractRiskFlags captures context around every high-risk hit, then every
// medium-risk hit. Every high-risk hit is flagged; medium flags whose
// 50-char context prefix already appears in an earlier flag are dropped.
// At most MaxFlags total.
func (e *InterviewExtractor) extractRiskFlags(text string) []string {
	t := e.tables
	max := t.Scoring.MaxFlags
	var flags []string

	for _, re := range t.HighRisk {
		for _, loc := range re.FindAllStringIndex(text, -1) {
			if len(flags) >= max {
				return flags
			}
			flags = append(flags, "HIGH RISK: "+surrounding(text, loc[0], loc[1]))
		}
	}
	for _, re := range t.MediumRisk {
		for _, loc := range re.FindAllStringIndex(text, -1) {
			if len(flags) >= max {
				return flags
			}
			ctx := surrounding(text, loc[0], loc[1])
			if contextSeen(flags, ctx) {
				continue
			}
			flags = append(flags, "MEDIUM RISK: "+ctx)
		}
	}
	return flags
}

// extractContexts is the shared keyword-context pattern used for strengths
// and concerns: surrounding context per hit, deduplicated by 50-char prefix,
// capped at MaxFlags.
func (e *InterviewExtractor) extractContexts(text string, res []*regexp.Regexp, prefix string) []string {
	max := e.tables.Scoring.MaxFlags
	var out []string
	for _, re := range res {
		for _, loc := range re.FindAllStringIndex(text, -1) {
			if len(out) >= max {
				return out
			}
			ctx := surrounding(text, loc[0], loc[1])
			if contextSeen(out, ctx) {
				continue
			}
			out = append(out, prefix+ctx)
		}
	}
	return out
}

// surrounding captures up to 100 characters around a keyword hit, with
// whitespace collapsed.
func surrounding(text string, start, end int) string {
	from := start - 30
	if from < 0 {
		from = 0
	}
	to := end + 70
	if to > len(text) {
		to = len(text)
	}
	return strings.TrimSpace(reWhitespace.ReplaceAllString(text[from:to], " "))
}

// contextSeen reports whether the first 50 chars of ctx already appear in
// any existing entry.
func contextSeen(existing []string, ctx string) bool {
	key := ctx
	if len(key) > 50 {
		key = key[:50]
	}
	for _, f := range existing {
		if strings.Contains(f, key) {
			return true
		}
	}
	return false
}

func splitSentences(text string) []string {
	parts := reSentenceEnd.Split(text, -1)
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(reWhitespace.ReplaceAllString(p, " "))
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}
