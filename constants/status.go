package constants

// JobStatus is the canonical status for rows in pipeline_job.
type JobStatus string

// Stable values (store these exact strings in DB).
const (
	JobStatusUploaded     JobStatus = "UPLOADED"      // document registered, nothing run yet
	JobStatusParsing      JobStatus = "PARSING"       // format detection + text extraction in progress
	JobStatusExtracting   JobStatus = "EXTRACTING"    // classification + field extraction in progress
	JobStatusValidating   JobStatus = "VALIDATING"    // normalization + validation in progress
	JobStatusCompleted    JobStatus = "COMPLETED"     // terminal success
	JobStatusError        JobStatus = "ERROR"         // terminal failure
	JobStatusManualReview JobStatus = "MANUAL_REVIEW" // pending human confirmation
	JobStatusConfirmed    JobStatus = "CONFIRMED"     // terminal, human-confirmed
)

// JobStatuses holds the allowed values for the status field in PipelineJob.
var JobStatuses = []string{
	string(JobStatusUploaded),
	string(JobStatusParsing),
	string(JobStatusExtracting),
	string(JobStatusValidating),
	string(JobStatusCompleted),
	string(JobStatusError),
	string(JobStatusManualReview),
	string(JobStatusConfirmed),
}

// IsTerminal reports whether no further automatic transition is possible.
// MANUAL_REVIEW is pending, not terminal: it still accepts a confirmation.
func (s JobStatus) IsTerminal() bool {
	switch s {
	case JobStatusCompleted, JobStatusError, JobStatusConfirmed:
		return true
	}
	return false
}

// IsActive reports whether a job is still occupying (or may occupy) a worker.
func (s JobStatus) IsActive() bool {
	switch s {
	case JobStatusUploaded, JobStatusParsing, JobStatusExtracting, JobStatusValidating:
		return true
	}
	return false
}

// CanTransition enforces the pipeline state machine. ERROR is reachable from
// any non-terminal state; MANUAL_REVIEW only from VALIDATING; CONFIRMED only
// from MANUAL_REVIEW.
func CanTransition(from, to JobStatus) bool {
	if from.IsTerminal() {
		return false
	}
	switch to {
	case JobStatusError:
		return true
	case JobStatusParsing:
		return from == JobStatusUploaded
	case JobStatusExtracting:
		return from == JobStatusParsing
	case JobStatusValidating:
		return from == JobStatusExtracting
	case JobStatusCompleted, JobStatusManualReview:
		return from == JobStatusValidating
	case JobStatusConfirmed:
		return from == JobStatusManualReview
	}
	return false
}
