package fields

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/talahq/docintake/constants"
)

func newInterviewExtractor(t *testing.T) *InterviewExtractor {
	t.Helper()
	tables, err := LoadKeywordTables()
	require.NoError(t, err)
	return NewInterviewExtractor(tables, nil)
}

func TestInterviewHighRiskForcesReject(t *testing.T) {
	e := newInterviewExtractor(t)
	// Plenty of strengths, but one high-risk hit must still reject.
	text := `The candidate showed leadership and initiative throughout.
A strong team player with excellent problem solving.
However, a reference confirmed the candidate was terminated for misconduct
at a previous employer.`

	rec, err := e.Extract(text)
	require.NoError(t, err)
	require.NotNil(t, rec.Interview)
	iv := rec.Interview

	assert.Equal(t, DecisionReject, iv.Recommendation)
	require.NotEmpty(t, iv.RiskFlags)
	assert.True(t, strings.HasPrefix(iv.RiskFlags[0], "HIGH RISK: "))
	assert.Contains(t, iv.RiskFlags[0], "terminated for misconduct")
}

func TestInterviewStrongCandidateProceeds(t *testing.T) {
	e := newInterviewExtractor(t)
	text := `Excellent interview. The candidate demonstrated leadership,
took initiative on a stalled migration, and mentored two juniors.
An outstanding, confident communicator and a genuine team player.
"I rebuilt the deployment pipeline in my first month and cut release time in half."`

	rec, err := e.Extract(text)
	require.NoError(t, err)
	iv := rec.Interview

	assert.Equal(t, SentimentPositive, iv.OverallSentiment)
	assert.Equal(t, DecisionProceed, iv.Recommendation)
	assert.Empty(t, iv.RiskFlags)
	assert.Greater(t, iv.RecommendationScore, 5)
}

func TestInterviewMediumRiskYieldsReview(t *testing.T) {
	e := newInterviewExtractor(t)
	text := `The candidate described an employment gap and a conflict with manager
at the last role. Some initiative shown on side projects.`

	rec, err := e.Extract(text)
	require.NoError(t, err)
	iv := rec.Interview

	assert.Equal(t, DecisionReview, iv.Recommendation)
	for _, f := range iv.RiskFlags {
		assert.True(t, strings.HasPrefix(f, "MEDIUM RISK: "), "flag %q", f)
	}
}

func TestInterviewDistinctHighRiskHitsEachFlagged(t *testing.T) {
	e := newInterviewExtractor(t)
	// Two different high-risk keywords inside one context window must
	// produce two flags; only medium flags are context-deduplicated.
	text := "The background check surfaced harassment complaints and fraud at his last job."

	rec, err := e.Extract(text)
	require.NoError(t, err)
	iv := rec.Interview

	var high []string
	for _, f := range iv.RiskFlags {
		if strings.HasPrefix(f, "HIGH RISK: ") {
			high = append(high, f)
		}
	}
	require.Len(t, high, 2)
	assert.Contains(t, high[0], "harassment")
	assert.Contains(t, high[1], "fraud")
	assert.Equal(t, DecisionReject, iv.Recommendation)
}

func TestInterviewQuoteExtraction(t *testing.T) {
	e := newInterviewExtractor(t)
	text := `Interviewer notes follow.
"I led the platform team through a very difficult replatforming year."
"We shipped on time even after losing two engineers mid-project."`

	rec, err := e.Extract(text)
	require.NoError(t, err)
	iv := rec.Interview

	require.Len(t, iv.Quotes, 2)
	assert.Contains(t, iv.Quotes[0].Text, "platform team")
	for _, q := range iv.Quotes {
		assert.NotEmpty(t, q.Sentiment)
		assert.NotEmpty(t, q.Category)
	}
}

func TestInterviewQuoteFallbackToKeywordSentences(t *testing.T) {
	e := newInterviewExtractor(t)
	// No quotation marks anywhere; sentences bearing table keywords and
	// sized 50-300 chars are used instead.
	text := `The candidate consistently showed leadership when the team lost its manager mid-quarter. ` +
		`Colleagues described real initiative in picking up unowned operational work across teams. ` +
		`Lunch was at noon.`

	rec, err := e.Extract(text)
	require.NoError(t, err)
	iv := rec.Interview

	require.NotEmpty(t, iv.Quotes)
	for _, q := range iv.Quotes {
		assert.GreaterOrEqual(t, len(q.Text), 50)
		assert.LessOrEqual(t, len(q.Text), 300)
	}
}

func TestInterviewCapsQuotesAndFlags(t *testing.T) {
	e := newInterviewExtractor(t)
	var b strings.Builder
	for i := 0; i < 12; i++ {
		b.WriteString("\"This is a sufficiently long quoted remark about project number ")
		b.WriteString(strings.Repeat("x", i+1))
		b.WriteString(" going fine.\"\n")
		b.WriteString("The candidate mentioned missed deadlines on initiative ")
		b.WriteString(strings.Repeat("y", i+1))
		b.WriteString(" repeatedly.\n")
	}

	rec, err := e.Extract(b.String())
	require.NoError(t, err)
	iv := rec.Interview

	assert.LessOrEqual(t, len(iv.Quotes), 5)
	assert.LessOrEqual(t, len(iv.RiskFlags), 5)
	assert.LessOrEqual(t, len(iv.Strengths), 5)
	assert.LessOrEqual(t, len(iv.Concerns), 5)
}

func TestInterviewNegativeSentimentLowersScore(t *testing.T) {
	e := newInterviewExtractor(t)
	neutral := `The candidate mentioned an employment gap in 2022.`
	negative := `The candidate gave poor, vague, evasive answers and a weak,
unconvincing account of the employment gap in 2022. Worrying overall.`

	recNeutral, err := e.Extract(neutral)
	require.NoError(t, err)
	recNegative, err := e.Extract(negative)
	require.NoError(t, err)

	assert.Equal(t, SentimentNegative, recNegative.Interview.OverallSentiment)
	assert.Less(t, recNegative.Interview.RecommendationScore,
		recNeutral.Interview.RecommendationScore)
}

func TestInterviewRecordShape(t *testing.T) {
	e := newInterviewExtractor(t)
	rec, err := e.Extract("Nothing noteworthy was said at all.")
	require.NoError(t, err)

	assert.Equal(t, constants.TypeInterview, rec.Type)
	require.NotNil(t, rec.Interview)
	assert.Nil(t, rec.CV)
	assert.Nil(t, rec.Assessment)
	assert.NotEmpty(t, rec.Interview.Recommendation)
	assert.NotEmpty(t, rec.Interview.OverallSentiment)
}
