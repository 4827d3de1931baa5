package constants

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCanTransitionHappyPath(t *testing.T) {
	path := []JobStatus{
		JobStatusUploaded, JobStatusParsing, JobStatusExtracting,
		JobStatusValidating, JobStatusCompleted,
	}
	for i := 0; i < len(path)-1; i++ {
		assert.True(t, CanTransition(path[i], path[i+1]), "%s -> %s", path[i], path[i+1])
	}
}

func TestCanTransitionReviewPath(t *testing.T) {
	assert.True(t, CanTransition(JobStatusValidating, JobStatusManualReview))
	assert.True(t, CanTransition(JobStatusManualReview, JobStatusConfirmed))
	assert.False(t, CanTransition(JobStatusUploaded, JobStatusManualReview))
	assert.False(t, CanTransition(JobStatusCompleted, JobStatusConfirmed))
}

func TestErrorReachableFromNonTerminalOnly(t *testing.T) {
	for _, from := range []JobStatus{
		JobStatusUploaded, JobStatusParsing, JobStatusExtracting,
		JobStatusValidating, JobStatusManualReview,
	} {
		assert.True(t, CanTransition(from, JobStatusError), "from %s", from)
	}
	for _, from := range []JobStatus{JobStatusCompleted, JobStatusError, JobStatusConfirmed} {
		assert.False(t, CanTransition(from, JobStatusError), "from %s", from)
	}
}

func TestNoSkippingStages(t *testing.T) {
	assert.False(t, CanTransition(JobStatusUploaded, JobStatusExtracting))
	assert.False(t, CanTransition(JobStatusParsing, JobStatusValidating))
	assert.False(t, CanTransition(JobStatusParsing, JobStatusCompleted))
}

func TestTerminalAndActive(t *testing.T) {
	for _, s := range []JobStatus{JobStatusCompleted, JobStatusError, JobStatusConfirmed} {
		assert.True(t, s.IsTerminal(), "%s", s)
		assert.False(t, s.IsActive(), "%s", s)
	}
	for _, s := range []JobStatus{JobStatusUploaded, JobStatusParsing, JobStatusExtracting, JobStatusValidating} {
		assert.False(t, s.IsTerminal(), "%s", s)
		assert.True(t, s.IsActive(), "%s", s)
	}
	// Awaiting review is neither terminal nor occupying a worker.
	assert.False(t, JobStatusManualReview.IsTerminal())
	assert.False(t, JobStatusManualReview.IsActive())
}
