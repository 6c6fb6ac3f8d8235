package checkout

import "time"

// Submission outcomes.
const (
	OutcomeSucceeded = "succeeded"
	OutcomeRejected  = "rejected"
	OutcomeDuplicate = "duplicate"
	OutcomeFailed    = "failed"
)

// Persistence outcomes.
const (
	PersistPersisted = "persisted"
	PersistError     = "error"
	PersistTimeout   = "timeout"
	PersistCanceled  = "canceled"
	PersistDisabled  = "disabled"
	PersistLate      = "late"
)

// Metrics receives checkout observations.
type Metrics interface {
	ObserveSubmission(outcome string)
	ObservePersistence(outcome string, elapsed time.Duration)
}

type noopMetrics struct{}

func (noopMetrics) ObserveSubmission(string)                  {}
func (noopMetrics) ObservePersistence(string, time.Duration) {}
