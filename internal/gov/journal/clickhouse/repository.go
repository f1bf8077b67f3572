// Package clickhouse is the journal.Writer implementation backing
// internal/gov/journal.Sink, following the connection/metrics shape of
// internal/utxo/repository/clickhouse.Repository.
package clickhouse

import (
	"fmt"
	"time"

	"github.com/ClickHouse/clickhouse-go/v2"

	"github.com/blockvote/governance/internal/gov/journal"
)

// Metrics observes a single repository call's outcome and duration.
type Metrics interface {
	Observe(operation string, err error, started time.Time)
}

// Repository writes journal.Events to ClickHouse.
type Repository struct {
	conn    clickhouse.Conn
	metrics Metrics
}

// NewRepository opens a ClickHouse connection from dsn.
func NewRepository(dsn string, metrics Metrics) (*Repository, error) {
	opts, err := clickhouse.ParseDSN(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse clickhouse dsn: %w", err)
	}
	conn, err := clickhouse.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open clickhouse connection: %w", err)
	}
	return &Repository{conn: conn, metrics: metrics}, nil
}

// Close closes the underlying connection.
func (r *Repository) Close() error { return r.conn.Close() }

var _ journal.Writer = (*Repository)(nil)
