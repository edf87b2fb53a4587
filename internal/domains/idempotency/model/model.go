package model

import (
	"time"
)

// Status is the lifecycle of one idempotency record.
type Status string

const (
	StatusInProgress Status = "IN_PROGRESS"
	StatusSucceeded  Status = "SUCCEEDED"
	StatusFailed     Status = "FAILED"
)

// Record binds a client idempotency key to the operation it guards. The
// body hash detects key reuse with a different request body.
type Record struct {
	Key       string
	BodyHash  string
	Status    Status
	EntityRef *string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Outcome classifies what a caller should do after Begin.
type Outcome int

const (
	// OutcomeProceed means this execution owns the key and should run.
	OutcomeProceed Outcome = iota

	// OutcomeShortCircuit means a previous identical request succeeded;
	// return its recorded result.
	OutcomeShortCircuit
)

// BeginResult is the decision Begin hands back to the caller.
type BeginResult struct {
	Outcome   Outcome
	EntityRef *string
}

// Decide is the pure decision table over an existing record. A nil existing
// record means the key is fresh and the caller proceeds.
func Decide(existing *Record, bodyHash string) (BeginResult, error) {
	if existing == nil {
		return BeginResult{Outcome: OutcomeProceed}, nil
	}

	switch existing.Status {
	case StatusInProgress:
		return BeginResult{}, ErrInProgress
	case StatusSucceeded:
		if existing.BodyHash != bodyHash {
			return BeginResult{}, ErrConflict
		}
		return BeginResult{Outcome: OutcomeShortCircuit, EntityRef: existing.EntityRef}, nil
	case StatusFailed:
		// A failed run releases the key; the retry takes over.
		return BeginResult{Outcome: OutcomeProceed}, nil
	default:
		return BeginResult{}, ErrConflict
	}
}
