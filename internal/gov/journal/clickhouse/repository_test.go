package clickhouse

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// fakeMetrics is a hand-written stand-in for Metrics: it just records the
// last observed call, avoiding a generated mock for a single-method
// interface.
type fakeMetrics struct {
	operation string
	err       error
	called    bool
}

func (m *fakeMetrics) Observe(operation string, err error, started time.Time) {
	m.operation = operation
	m.err = err
	m.called = true
}

func TestInsertEvents_EmptyIsNoopButObserved(t *testing.T) {
	metrics := &fakeMetrics{}
	repo := &Repository{conn: nil, metrics: metrics}

	err := repo.InsertEvents(context.Background(), nil)
	require.NoError(t, err)
	require.True(t, metrics.called)
	require.Equal(t, "insert_events", metrics.operation)
	require.NoError(t, metrics.err)
}

func TestInsertEvents_NilMetricsDoesNotPanic(t *testing.T) {
	repo := &Repository{conn: nil, metrics: nil}
	require.NoError(t, repo.InsertEvents(context.Background(), nil))
}
