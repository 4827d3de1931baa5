package classify

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/talahq/docintake/constants"
)

func newClassifier(t *testing.T) *Classifier {
	t.Helper()
	tables, err := LoadTables()
	require.NoError(t, err)
	return NewClassifier(tables, nil)
}

func TestClassifyCV(t *testing.T) {
	c := newClassifier(t)
	text := `Jane Smith
Professional Experience
Senior engineer at a product company.
Education
BSc Computer Science.
Skills: Go, SQL.`

	got := c.Classify(text)
	assert.Equal(t, constants.TypeCV, got.Type)
	assert.Greater(t, got.Confidence, float32(0))
}

func TestClassifyInterviewTranscript(t *testing.T) {
	c := newClassifier(t)
	text := `Interview transcript, recorded Tuesday.
The candidate said the migration was their idea.
Interviewer: follow-up question about ownership.
The candidate mentioned a conflict with the previous hiring manager.`

	got := c.Classify(text)
	assert.Equal(t, constants.TypeInterview, got.Type)
}

func TestClassifyAssessmentReport(t *testing.T) {
	c := newClassifier(t)
	text := `Psychometric report.
Cognitive ability test, raw score 24, percentile 78.
Norm group: professionals. Dimension scores follow.`

	got := c.Classify(text)
	assert.Equal(t, constants.TypeAssessment, got.Type)
}

func TestClassifyWeakSignalIsOther(t *testing.T) {
	c := newClassifier(t)
	// One lone keyword is below the minimum signal.
	got := c.Classify("The education budget was discussed at the town hall.")
	assert.Equal(t, constants.TypeOther, got.Type)
	assert.Zero(t, got.Confidence)
}

func TestClassifyEmptyText(t *testing.T) {
	c := newClassifier(t)
	got := c.Classify("")
	assert.Equal(t, constants.TypeOther, got.Type)
	for name, score := range got.Scores {
		assert.Zero(t, score, "category %s", name)
	}
}

func TestClassifyPriorityBeatsRawMax(t *testing.T) {
	c := newClassifier(t)
	// Three assessment hits and four interview hits: assessment is checked
	// first and meets its threshold, so it wins despite the lower count.
	text := `Psychometric evaluation with percentile and stanine breakdown.
Interview notes attached: the interviewer asked a follow-up question,
the candidate said yes, see full transcript.`

	got := c.Classify(text)
	assert.Equal(t, constants.TypeAssessment, got.Type)
	assert.GreaterOrEqual(t, got.Scores["assessment"], 3)
	assert.GreaterOrEqual(t, got.Scores["interview"], 3)
}

func TestClassifyBelowThresholdCategoryFallsThrough(t *testing.T) {
	c := newClassifier(t)
	// Two assessment hits miss that category's threshold of three, but two
	// CV hits meet the CV threshold.
	text := "Percentile and raw score noted. Work experience and skills listed below."
	got := c.Classify(text)
	assert.Equal(t, constants.TypeCV, got.Type)
}

func TestScoreCountsRepeats(t *testing.T) {
	c := newClassifier(t)
	scores := c.Score(strings.Repeat("percentile ", 4))
	assert.Equal(t, 4, scores["assessment"])
}

func TestScoresAreNonNegative(t *testing.T) {
	c := newClassifier(t)
	for _, text := range []string{"", "zzzz", "percentile education interview"} {
		for name, s := range c.Score(text) {
			assert.GreaterOrEqual(t, s, 0, "category %s for %q", name, text)
		}
	}
}
