package validate

import (
	"github.com/talahq/docintake/internal/fields"
	"github.com/talahq/docintake/internal/normalize"
)

func (v *Validator) validateAssessment(a *fields.AssessmentRecord, res *Result) {
	a.CandidateName = normalize.CleanName(a.CandidateName)
	if a.CandidateName == "" {
		res.addWarning("candidate name is missing")
		res.FieldConfidence["candidate_name"] = 0
	} else {
		res.FieldConfidence["candidate_name"] = 0.9
	}

	if len(a.Dimensions) == 0 {
		res.addError("no dimension scores extracted")
		res.FieldConfidence["dimensions"] = 0
		return
	}

	inRange := 0
	for _, d := range a.Dimensions {
		if d.Score < 0 || d.Score > 100 {
			res.addError("dimension %q score %.1f is outside [0, 100]", d.Name, d.Score)
			continue
		}
		if d.Percentile != nil && (*d.Percentile < 0 || *d.Percentile > 100) {
			res.addError("dimension %q percentile %d is outside [0, 100]", d.Name, *d.Percentile)
			continue
		}
		inRange++
	}
	res.FieldConfidence["dimensions"] = float32(inRange) / float32(len(a.Dimensions))

	if a.OverallScore != nil {
		if *a.OverallScore < 0 || *a.OverallScore > 100 {
			res.addError("overall score %.1f is outside [0, 100]", *a.OverallScore)
			res.FieldConfidence["overall_score"] = 0
		} else {
			res.FieldConfidence["overall_score"] = 0.9
		}
	} else {
		res.addWarning("overall score is missing")
		res.FieldConfidence["overall_score"] = 0
	}
}
