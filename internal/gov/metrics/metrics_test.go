package metrics

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func delta(t *testing.T, collector prometheus.Collector, observe func()) float64 {
	t.Helper()

	before := testutil.ToFloat64(collector)
	observe()
	after := testutil.ToFloat64(collector)
	return after - before
}

func TestListenerRecords(t *testing.T) {
	m := NewListener()
	start := time.Now().Add(-time.Second)

	if inc := delta(t, listenerBlockConnectedTotal.WithLabelValues("success"), func() {
		m.ObserveBlockConnected(nil, 2, 3, start)
	}); inc != 1 {
		t.Fatalf("expected block connected counter increment, got %v", inc)
	}

	if inc := delta(t, listenerBlockDisconnectedTotal.WithLabelValues("error"), func() {
		m.ObserveBlockDisconnected(errors.New("boom"), start)
	}); inc != 1 {
		t.Fatalf("expected block disconnected error increment, got %v", inc)
	}

	m.ObserveInitialScan(nil, 1000, start)
	m.ObserveRevalidation(nil, 10, 2, start)
}

func TestRPCRecords(t *testing.T) {
	m := NewRPC("chain")
	start := time.Now().Add(-200 * time.Millisecond)

	if inc := delta(t, rpcRequestsTotal.WithLabelValues("chain", "get_block", "success"), func() {
		m.Observe("get_block", nil, start)
	}); inc != 1 {
		t.Fatalf("expected rpc call counter increment, got %v", inc)
	}

	m.Observe("get_block", errors.New("oops"), start)
}

func TestPlannerRecords(t *testing.T) {
	m := NewPlanner()
	start := time.Now().Add(-time.Second)

	if inc := delta(t, plannerSubmitVotesTotal.WithLabelValues("success"), func() {
		m.ObserveSubmitVotes(nil, 3, 1, start)
	}); inc != 1 {
		t.Fatalf("expected submit votes counter increment, got %v", inc)
	}

	if inc := delta(t, plannerSubmitProposalTotal.WithLabelValues("error"), func() {
		m.ObserveSubmitProposal(errors.New("boom"), start)
	}); inc != 1 {
		t.Fatalf("expected submit proposal error increment, got %v", inc)
	}
}
