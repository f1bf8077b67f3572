package chain

import "time"

// Metrics is the set of observations the listener reports, following the
// same "operation, err, started" observed-call shape as the teacher's
// RPCMetrics interface.
type Metrics interface {
	ObserveBlockConnected(err error, proposals, votes int, started time.Time)
	ObserveBlockDisconnected(err error, started time.Time)
	ObserveInitialScan(err error, blocksScanned int, started time.Time)
	ObserveRevalidation(err error, votesChecked, votesRemoved int, started time.Time)
}

// NoopMetrics discards every observation; useful for tests and for callers
// that do not wire a real metrics sink.
type NoopMetrics struct{}

func (NoopMetrics) ObserveBlockConnected(error, int, int, time.Time) {}
func (NoopMetrics) ObserveBlockDisconnected(error, time.Time)       {}
func (NoopMetrics) ObserveInitialScan(error, int, time.Time)        {}
func (NoopMetrics) ObserveRevalidation(error, int, int, time.Time)  {}
