package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	plannerSubmitVotesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "governance",
		Subsystem: "planner",
		Name:      "submit_votes_total",
		Help:      "Count of SubmitVotes calls.",
	}, []string{"status"})

	plannerSubmitVotesDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "governance",
		Subsystem: "planner",
		Name:      "submit_votes_duration_seconds",
		Help:      "Duration of SubmitVotes calls.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"status"})

	plannerSubmitVotesRequested = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: "governance",
		Subsystem: "planner",
		Name:      "submit_votes_requested",
		Help:      "Number of (proposal, choice) pairs requested per SubmitVotes call.",
		Buckets:   prometheus.ExponentialBuckets(1, 2, 10),
	})

	plannerSubmitVotesTransactions = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: "governance",
		Subsystem: "planner",
		Name:      "submit_votes_transactions",
		Help:      "Number of transactions broadcast per SubmitVotes call.",
		Buckets:   prometheus.ExponentialBuckets(1, 2, 8),
	})

	plannerSubmitProposalTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "governance",
		Subsystem: "planner",
		Name:      "submit_proposal_total",
		Help:      "Count of SubmitProposal calls.",
	}, []string{"status"})

	plannerSubmitProposalDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "governance",
		Subsystem: "planner",
		Name:      "submit_proposal_duration_seconds",
		Help:      "Duration of SubmitProposal calls.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"status"})
)

// Planner tracks metrics for the vote planner. It implements planner.Metrics.
type Planner struct{}

// NewPlanner constructs a Planner metrics collector.
func NewPlanner() *Planner { return &Planner{} }

// ObserveSubmitVotes records a single SubmitVotes call's outcome.
func (Planner) ObserveSubmitVotes(err error, requested, transactions int, started time.Time) {
	status := statusOf(err)
	plannerSubmitVotesTotal.WithLabelValues(status).Inc()
	plannerSubmitVotesDuration.WithLabelValues(status).Observe(time.Since(started).Seconds())
	plannerSubmitVotesRequested.Observe(float64(requested))
	if err == nil {
		plannerSubmitVotesTransactions.Observe(float64(transactions))
	}
}

// ObserveSubmitProposal records a single SubmitProposal call's outcome.
func (Planner) ObserveSubmitProposal(err error, started time.Time) {
	status := statusOf(err)
	plannerSubmitProposalTotal.WithLabelValues(status).Inc()
	plannerSubmitProposalDuration.WithLabelValues(status).Observe(time.Since(started).Seconds())
}
