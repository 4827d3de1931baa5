package fields

import (
	"log/slog"
	"regexp"
	"strconv"
	"strings"

	"github.com/talahq/docintake/constants"
)

var (
	// "Leadership: 82" or "Trabajo en equipo - 74.5 (percentil 90)".
	reDimension = regexp.MustCompile(`(?m)^\s*([A-Za-zÁÉÍÓÚáéíóúñÑ][\w\sÁÉÍÓÚáéíóúñÑ/&\-]{2,40}?)\s*[:\-]\s*(\d{1,3}(?:\.\d+)?)\s*(?:/\s*100)?\s*(?:\((?:percentile?|percentil)\s*(\d{1,3})\s*\))?\s*$`)
	reCandidate = regexp.MustCompile(`(?im)^\s*(?:candidate|name|candidato|nombre)\s*:\s*(.+?)\s*$`)
	reAssessName = regexp.MustCompile(`(?im)^\s*(?:assessment|test|evaluaci[oó]n|prueba)\s*:\s*(.+?)\s*$`)
	reOverall   = regexp.MustCompile(`(?im)^\s*(?:overall|total|global|puntaje\s+total|resultado\s+general)(?:\s+score)?\s*[:\-]\s*(\d{1,3}(?:\.\d+)?)`)
)

// Dimension names that are really summary rows, kept out of the
// per-dimension list.
var overallNames = map[string]bool{
	"overall": true, "total": true, "global": true,
	"overall score": true, "puntaje total": true, "resultado general": true,
}

// AssessmentExtractor reads psychometric report text into dimension scores.
type AssessmentExtractor struct {
	logger *slog.Logger
}

func NewAssessmentExtractor(logger *slog.Logger) *AssessmentExtractor {
	if logger == nil {
		logger = slog.Default()
	}
	return &AssessmentExtractor{logger: logger}
}

func (e *AssessmentExtractor) Type() constants.DocumentType { return constants.TypeAssessment }

func (e *AssessmentExtractor) Extract(text string) (Record, error) {
	rec := &AssessmentRecord{Extra: map[string]any{}}

	if m := reCandidate.FindStringSubmatch(text); m != nil {
		rec.CandidateName = strings.TrimSpace(m[1])
	}
	if m := reAssessName.FindStringSubmatch(text); m != nil {
		rec.AssessmentName = strings.TrimSpace(m[1])
	}

	for _, m := range reDimension.FindAllStringSubmatch(text, -1) {
		name := strings.TrimSpace(m[1])
		score, err := strconv.ParseFloat(m[2], 32)
		if err != nil || score > 100 {
			continue
		}
		if overallNames[strings.ToLower(name)] {
			continue
		}
		// Label rows like "Candidate: ..." are handled above.
		switch strings.ToLower(name) {
		case "candidate", "name", "candidato", "nombre", "assessment", "test", "evaluacion", "evaluación", "prueba":
			continue
		}
		dim := DimensionScore{Name: name, Score: float32(score)}
		if m[3] != "" {
			if p, err := strconv.Atoi(m[3]); err == nil && p <= 100 {
				dim.Percentile = &p
			}
		}
		rec.Dimensions = append(rec.Dimensions, dim)
	}

	if m := reOverall.FindStringSubmatch(text); m != nil {
		if v, err := strconv.ParseFloat(m[1], 32); err == nil && v <= 100 {
			f := float32(v)
			rec.OverallScore = &f
		}
	}
	if rec.OverallScore == nil && len(rec.Dimensions) > 0 {
		var sum float32
		for _, d := range rec.Dimensions {
			sum += d.Score
		}
		mean := sum / float32(len(rec.Dimensions))
		rec.OverallScore = &mean
		rec.Extra["overall_derived"] = true
	}

	conf := clamp01(0.25 + 0.12*float32(len(rec.Dimensions)))
	if rec.CandidateName != "" {
		conf = clamp01(conf + 0.1)
	}

	e.logger.Debug("assessment extracted",
		"dimensions", len(rec.Dimensions), "candidate", rec.CandidateName != "")

	return Record{
		Type:       constants.TypeAssessment,
		RawExcerpt: excerpt(text),
		Confidence: conf,
		Assessment: rec,
	}, nil
}
