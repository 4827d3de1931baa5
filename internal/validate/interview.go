package validate

import (
	"github.com/talahq/docintake/internal/fields"
)

var knownSentiments = map[string]bool{
	fields.SentimentPositive: true,
	fields.SentimentNegative: true,
	fields.SentimentNeutral:  true,
	fields.SentimentMixed:    true,
}

var knownDecisions = map[string]bool{
	fields.DecisionProceed: true,
	fields.DecisionReject:  true,
	fields.DecisionReview:  true,
}

func (v *Validator) validateInterview(iv *fields.InterviewRecord, res *Result) {
	if !knownSentiments[iv.OverallSentiment] {
		res.addError("overall sentiment %q is not a recognized value", iv.OverallSentiment)
		res.FieldConfidence["overall_sentiment"] = 0
	} else {
		res.FieldConfidence["overall_sentiment"] = 0.85
	}

	if !knownDecisions[iv.Recommendation] {
		res.addError("recommendation %q is not a recognized value", iv.Recommendation)
		res.FieldConfidence["recommendation"] = 0
	} else {
		res.FieldConfidence["recommendation"] = 0.85
	}

	// The score and decision must agree: a REJECT always traces back to a
	// high-risk flag or a deeply negative score.
	if iv.Recommendation == fields.DecisionReject && iv.RecommendationScore >= 0 && !hasHighRisk(iv) {
		res.addWarning("reject recommendation without a high-risk flag or negative score")
	}

	for i, q := range iv.Quotes {
		if q.Text == "" {
			res.addError("quote %d has empty text", i+1)
		}
		if !knownSentiments[q.Sentiment] {
			res.addError("quote %d sentiment %q is not a recognized value", i+1, q.Sentiment)
		}
	}
	if len(iv.Quotes) == 0 && len(iv.RiskFlags) == 0 && len(iv.Strengths) == 0 {
		res.addWarning("transcript yielded no quotes, risk flags, or strengths")
		res.FieldConfidence["quotes"] = 0
	} else {
		res.FieldConfidence["quotes"] = 0.75
	}
}

func hasHighRisk(iv *fields.InterviewRecord) bool {
	for _, f := range iv.RiskFlags {
		if len(f) >= 10 && f[:10] == "HIGH RISK:" {
			return true
		}
	}
	return false
}
