package planner

import "time"

// Metrics observes a single SubmitVotes call's outcome, following the same
// observed-call shape as chain.Metrics.
type Metrics interface {
	ObserveSubmitVotes(err error, requested, transactions int, started time.Time)
	ObserveSubmitProposal(err error, started time.Time)
}

// NoopMetrics discards every observation.
type NoopMetrics struct{}

func (NoopMetrics) ObserveSubmitVotes(error, int, int, time.Time) {}
func (NoopMetrics) ObserveSubmitProposal(error, time.Time)        {}
