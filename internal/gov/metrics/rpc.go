package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	rpcRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "governance",
		Subsystem: "rpc",
		Name:      "operations_total",
		Help:      "Count of outbound RPC/repository operations by component.",
	}, []string{"component", "operation", "status"})

	rpcRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "governance",
		Subsystem: "rpc",
		Name:      "operation_duration_seconds",
		Help:      "Duration of outbound RPC/repository operations by component.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"component", "operation", "status"})
)

// RPC is a generic "operation, err, started" observer shared by every
// component that wraps a single external dependency: chain/rpc.Client (the
// node connection), planner/walletrpc.Adapter (the wallet connection), and
// journal/clickhouse.Repository (the audit sink), each labeled by the
// component name passed to New so their series stay distinguishable under
// one metric family, the same "one histogram family per concern, labeled by
// call site" shape internal/metrics/rpc_client.go uses for coin/network.
type RPC struct {
	component string
}

// NewRPC constructs an RPC metrics collector for the named component.
func NewRPC(component string) *RPC {
	return &RPC{component: component}
}

// Observe records a single call's outcome and duration.
func (m RPC) Observe(operation string, err error, started time.Time) {
	status := statusOf(err)
	rpcRequestsTotal.WithLabelValues(m.component, operation, status).Inc()
	rpcRequestDuration.WithLabelValues(m.component, operation, status).Observe(time.Since(started).Seconds())
}
