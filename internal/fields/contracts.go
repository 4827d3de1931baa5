// Package fields turns classified text into structured domain records,
// one extraction strategy per document type.
package fields

import (
	"fmt"

	"github.com/talahq/docintake/constants"
)

// maxExcerptLen bounds the raw-text excerpt carried on every record.
const maxExcerptLen = 500

// Record is the tagged result of a field extraction. Exactly one of the
// variant pointers is set, matching Type.
type Record struct {
	Type       constants.DocumentType `json:"type"`
	RawExcerpt string                 `json:"raw_excerpt"`
	Confidence float32                `json:"confidence"`

	CV         *CVRecord         `json:"cv,omitempty"`
	Assessment *AssessmentRecord `json:"assessment,omitempty"`
	Interview  *InterviewRecord  `json:"interview,omitempty"`
}

// CVRecord holds the structured fields pulled from a résumé.
type CVRecord struct {
	FullName   string            `json:"full_name,omitempty"`
	Email      string            `json:"email,omitempty"`
	Phone      string            `json:"phone,omitempty"`
	Summary    string            `json:"summary,omitempty"`
	Skills     []string          `json:"skills,omitempty"`
	Experience []ExperienceEntry `json:"experience,omitempty"`
	Education  []EducationEntry  `json:"education,omitempty"`
	Languages  []string          `json:"languages,omitempty"`
}

type ExperienceEntry struct {
	Company   string `json:"company,omitempty"`
	JobTitle  string `json:"job_title,omitempty"`
	StartDate string `json:"start_date,omitempty"`
	EndDate   string `json:"end_date,omitempty"`
	Detail    string `json:"detail,omitempty"`
}

type EducationEntry struct {
	Institution string `json:"institution,omitempty"`
	Degree      string `json:"degree,omitempty"`
	Year        string `json:"year,omitempty"`
}

// AssessmentRecord holds psychometric dimension scores. Extra keeps the
// open-ended engine-specific values that have no fixed column.
type AssessmentRecord struct {
	CandidateName  string           `json:"candidate_name,omitempty"`
	AssessmentName string           `json:"assessment_name,omitempty"`
	Dimensions     []DimensionScore `json:"dimensions,omitempty"`
	OverallScore   *float32         `json:"overall_score,omitempty"`
	Extra          map[string]any   `json:"extra,omitempty"`
}

type DimensionScore struct {
	Name       string  `json:"name"`
	Score      float32 `json:"score"`
	Percentile *int    `json:"percentile,omitempty"`
}

// InterviewRecord holds the analysis of an interview transcript.
type InterviewRecord struct {
	Quotes              []Quote  `json:"quotes,omitempty"`
	RiskFlags           []string `json:"risk_flags,omitempty"`
	Strengths           []string `json:"strengths,omitempty"`
	Concerns            []string `json:"concerns,omitempty"`
	OverallSentiment    string   `json:"overall_sentiment"`
	RecommendationScore int      `json:"recommendation_score"`
	Recommendation      string   `json:"recommendation"`
}

type Quote struct {
	Text      string `json:"text"`
	Sentiment string `json:"sentiment"`
	Category  string `json:"category"`
}

// Recommendation decisions.
const (
	DecisionReject  = "REJECT"
	DecisionProceed = "PROCEED"
	DecisionReview  = "REVIEW"
)

// Extractor is the shared per-type contract. The orchestrator never branches
// on document type beyond the single ForType dispatch.
type Extractor interface {
	Extract(text string) (Record, error)
	Type() constants.DocumentType
}

// Registry maps document types to their extraction strategy, resolved once
// at startup.
type Registry struct {
	byType map[constants.DocumentType]Extractor
}

func NewRegistry(extractors ...Extractor) *Registry {
	r := &Registry{byType: make(map[constants.DocumentType]Extractor, len(extractors))}
	for _, e := range extractors {
		r.byType[e.Type()] = e
	}
	return r
}

// ForType returns the strategy for a document type.
func (r *Registry) ForType(t constants.DocumentType) (Extractor, error) {
	if e, ok := r.byType[t]; ok {
		return e, nil
	}
	return nil, fmt.Errorf("no field extractor for document type %q", t)
}

func excerpt(text string) string {
	if len(text) <= maxExcerptLen {
		return text
	}
	return text[:maxExcerptLen]
}

func clamp01(v float32) float32 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
