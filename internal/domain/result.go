package domain

import (
	"time"

	"github.com/google/uuid"
)

// SourceStatus is the terminal state of one source's query.
type SourceStatus string

const (
	// StatusSuccess means the source answered and every record normalized.
	StatusSuccess SourceStatus = "success"

	// StatusPartialFailure means the source answered but some records were
	// dropped because their minimal identifying field could not be extracted.
	StatusPartialFailure SourceStatus = "partial_failure"

	// StatusFailure means the source produced no usable response after
	// the retry budget was exhausted.
	StatusFailure SourceStatus = "failure"
)

// SourceQueryResult is the outcome of one adapter invocation. It is built
// once by the aggregator and never mutated afterwards.
type SourceQueryResult struct {
	Source SourceType   `json:"source"`
	Papers []Paper      `json:"papers"`
	Status SourceStatus `json:"status"`

	// ErrorClass and ErrorDetail are set for failure and partial-failure
	// statuses; empty on success.
	ErrorClass  ErrorClass `json:"error_class,omitempty"`
	ErrorDetail string     `json:"error_detail,omitempty"`

	// Attempts counts adapter invocations including retries.
	Attempts int `json:"attempts"`

	// Dropped counts raw records discarded because no title was extractable.
	Dropped int `json:"dropped,omitempty"`

	Elapsed time.Duration `json:"elapsed"`
}

// Failed reports whether the source produced no usable response.
func (r *SourceQueryResult) Failed() bool {
	return r.Status == StatusFailure
}

// AggregateResult is the full outcome of one user query across all selected
// sources. The Results slice preserves the caller's requested source order
// regardless of completion order. It is created fresh per query, immutable
// once built, and discarded when the next query begins.
type AggregateResult struct {
	QueryID uuid.UUID `json:"query_id"`
	Query   string    `json:"query"`

	// Results holds one entry per requested source, in request order.
	Results []SourceQueryResult `json:"results"`

	// Papers is the merged cross-source collection. Duplicates are retained
	// with provenance unless deduplication was requested.
	Papers []Paper `json:"papers"`

	// Deduplicated counts papers removed by explicit deduplication.
	Deduplicated int `json:"deduplicated,omitempty"`

	StartedAt time.Time     `json:"started_at"`
	Elapsed   time.Duration `json:"elapsed"`
}

// AllFailed reports whether every requested source failed. An all-failed
// aggregate is a valid, displayable terminal state, not an internal fault.
func (r *AggregateResult) AllFailed() bool {
	if len(r.Results) == 0 {
		return false
	}
	for i := range r.Results {
		if !r.Results[i].Failed() {
			return false
		}
	}
	return true
}

// StatusOf returns the result for one source, or nil if it was not queried.
func (r *AggregateResult) StatusOf(source SourceType) *SourceQueryResult {
	for i := range r.Results {
		if r.Results[i].Source == source {
			return &r.Results[i]
		}
	}
	return nil
}
