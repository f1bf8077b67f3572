package chain

import (
	"context"

	"go.uber.org/zap"

	"github.com/blockvote/governance/internal/gov/journal"
)

// Journal receives the audit events BlockConnected emits after applying a
// block, the optional non-authoritative sink of spec §10. A Listener with
// no Journal set behaves identically; nothing in BlockConnected's own
// return value or the store it mutates depends on whether recording
// succeeds.
type Journal interface {
	Record(ctx context.Context, ev journal.Event) error
}

// SetJournal attaches j to l. Call before the listener starts processing
// blocks; it is not safe to change concurrently with BlockConnected.
func (l *Listener) SetJournal(j Journal) { l.journal = j }

func (l *Listener) recordJournal(ctx context.Context, ev journal.Event) {
	if l.journal == nil {
		return
	}
	if err := l.journal.Record(ctx, ev); err != nil {
		l.logger.Warn("journal record dropped", zap.Error(err))
	}
}
