package journal

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/blockvote/governance/pkg/batcher"
)

// Writer persists a batch of Events. internal/gov/journal/clickhouse.Repository
// implements this for ClickHouse.
type Writer interface {
	InsertEvents(ctx context.Context, events []Event) error
}

// Sink buffers Events written by the chain listener and flushes them to a
// Writer on a size/interval schedule, reusing pkg/batcher unmodified: the
// journal is explicitly allowed to lag or drop under backpressure since it
// is never read back to reconstruct engine state (spec §10).
type Sink struct {
	batcher *batcher.Batcher[Event]
}

// NewSink constructs a Sink flushing to w every flushSize events or
// flushInterval, whichever comes first, rate limited to rps flushes/sec.
func NewSink(logger *zap.Logger, w Writer, flushSize int, flushInterval time.Duration, rps int) *Sink {
	b := batcher.New(logger, w.InsertEvents, flushSize, flushInterval, rps)
	return &Sink{batcher: b}
}

// Start begins the background flush loop.
func (s *Sink) Start(ctx context.Context) { s.batcher.Start(ctx) }

// Stop drains and stops the background flush loop.
func (s *Sink) Stop() { s.batcher.Stop() }

// Record queues ev for the next flush. A full buffer blocks until ctx is
// done or room frees up; callers on the chain listener's hot path should
// pass a context they are willing to have this call return early on.
func (s *Sink) Record(ctx context.Context, ev Event) error {
	return s.batcher.Add(ctx, ev)
}
