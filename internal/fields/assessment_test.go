package fields

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/talahq/docintake/constants"
)

const sampleAssessment = `Candidate: Laura Méndez
Assessment: Cognitive Battery v3

Verbal Reasoning: 82 (percentile 88)
Numerical Reasoning: 74.5
Attention to Detail: 91 (percentile 95)

Overall: 82.5
`

func TestAssessmentExtractDimensions(t *testing.T) {
	e := NewAssessmentExtractor(nil)
	rec, err := e.Extract(sampleAssessment)
	require.NoError(t, err)
	require.NotNil(t, rec.Assessment)
	a := rec.Assessment

	assert.Equal(t, constants.TypeAssessment, rec.Type)
	assert.Equal(t, "Laura Méndez", a.CandidateName)
	assert.Equal(t, "Cognitive Battery v3", a.AssessmentName)

	require.Len(t, a.Dimensions, 3)
	assert.Equal(t, "Verbal Reasoning", a.Dimensions[0].Name)
	assert.InDelta(t, 82, float64(a.Dimensions[0].Score), 0.001)
	require.NotNil(t, a.Dimensions[0].Percentile)
	assert.Equal(t, 88, *a.Dimensions[0].Percentile)
	assert.Nil(t, a.Dimensions[1].Percentile)

	require.NotNil(t, a.OverallScore)
	assert.InDelta(t, 82.5, float64(*a.OverallScore), 0.001)
	assert.NotContains(t, a.Extra, "overall_derived")
}

func TestAssessmentDerivesOverallFromDimensions(t *testing.T) {
	e := NewAssessmentExtractor(nil)
	rec, err := e.Extract("Focus: 60\nSpeed: 80\n")
	require.NoError(t, err)
	a := rec.Assessment

	require.NotNil(t, a.OverallScore)
	assert.InDelta(t, 70, float64(*a.OverallScore), 0.001)
	assert.Equal(t, true, a.Extra["overall_derived"])
}

func TestAssessmentIgnoresOutOfRangeScores(t *testing.T) {
	e := NewAssessmentExtractor(nil)
	rec, err := e.Extract("Reaction Time: 412\nAccuracy: 96\n")
	require.NoError(t, err)

	require.Len(t, rec.Assessment.Dimensions, 1)
	assert.Equal(t, "Accuracy", rec.Assessment.Dimensions[0].Name)
}

func TestAssessmentNoSignal(t *testing.T) {
	e := NewAssessmentExtractor(nil)
	rec, err := e.Extract("An unstructured paragraph with no scores in it.")
	require.NoError(t, err)

	assert.Empty(t, rec.Assessment.Dimensions)
	assert.Nil(t, rec.Assessment.OverallScore)
	assert.Less(t, rec.Confidence, float32(0.4))
}
