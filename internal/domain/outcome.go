package domain

import "time"

// ItemState enumerates the milestones of a single feed entry within a poll.
type ItemState string

const (
	StateFetched       ItemState = "fetched"
	StateFingerprinted ItemState = "fingerprinted"
	StateSkipped       ItemState = "skipped"
	StateEnriching     ItemState = "enriching"
	StateTranslating   ItemState = "translating"
	StatePersisted     ItemState = "persisted"
	StatePublished     ItemState = "published"
	StateFailed        ItemState = "failed"
)

// FailureKind classifies what went wrong in an external call.
type FailureKind string

const (
	FailureNone        FailureKind = ""
	FailureSource      FailureKind = "source"
	FailureEnrichment  FailureKind = "enrichment"
	FailureTranslation FailureKind = "translation"
	FailurePersistence FailureKind = "persistence"
	FailureDelivery    FailureKind = "delivery"
	// FailureInternal marks a panic raised while an entry was in flight.
	FailureInternal    FailureKind = "internal"
)

// Outcome is the explicit result of a step that talks to a collaborator.
type Outcome struct {
	Kind FailureKind
	Err  error
}

// Succeeded reports a successful step.
func Succeeded() Outcome {
	return Outcome{}
}

// Failed wraps err under the given kind; a nil err is treated as success.
func Failed(kind FailureKind, err error) Outcome {
	if err == nil {
		return Outcome{}
	}
	return Outcome{Kind: kind, Err: err}
}

// OK is true when the step completed without failure.
func (o Outcome) OK() bool {
	return o.Kind == FailureNone
}

// ItemResult records where an entry ended up and which degradations it went through.
type ItemResult struct {
	Fingerprint Fingerprint
	Title       string
	State       ItemState
	Failures    []Outcome
}

// RunReport summarises a single poll.
type RunReport struct {
	RunID      string
	StartedAt  time.Time
	FinishedAt time.Time
	Items      []ItemResult
}

// Count returns how many items ended in the given state.
func (r RunReport) Count(state ItemState) int {
	n := 0
	for _, item := range r.Items {
		if item.State == state {
			n++
		}
	}
	return n
}
