package types

import "time"

// OutcomeRecorder receives one observation per guarded request field
type OutcomeRecorder interface {
	// RecordOutcome records whether field passed, how many messages were
	// produced and how long validation took
	RecordOutcome(field Field, accepted bool, errorCount int, duration time.Duration)
}

// NoOpRecorder implements OutcomeRecorder by discarding observations
type NoOpRecorder struct{}

func (NoOpRecorder) RecordOutcome(Field, bool, int, time.Duration) {}

// NewNoOpRecorder creates a recorder that discards everything
func NewNoOpRecorder() OutcomeRecorder {
	return NoOpRecorder{}
}
