package clickhouse

import (
	"context"
	"fmt"
	"time"

	"github.com/blockvote/governance/internal/gov/journal"
)

// InsertEvents stores event rows in ClickHouse. It implements journal.Writer.
func (r *Repository) InsertEvents(ctx context.Context, events []journal.Event) (err error) {
	start := time.Now()
	defer func() {
		if r.metrics != nil {
			r.metrics.Observe("insert_events", err, start)
		}
	}()

	if len(events) == 0 {
		return nil
	}

	const query = `
INSERT INTO governance_events (
	kind,
	block_height,
	block_time,
	proposal_hash,
	vote_hash,
	utxo,
	choice
) VALUES`

	batch, err := r.conn.PrepareBatch(ctx, query)
	if err != nil {
		return fmt.Errorf("prepare events batch: %w", err)
	}

	for _, ev := range events {
		if err = batch.Append(
			string(ev.Kind),
			ev.BlockHeight,
			time.Unix(ev.BlockTime, 0).UTC(),
			ev.ProposalHash[:],
			ev.VoteHash[:],
			ev.Utxo,
			ev.Choice,
		); err != nil {
			return fmt.Errorf("append event: %w", err)
		}
	}

	if err = batch.Send(); err != nil {
		return fmt.Errorf("insert events: %w", err)
	}
	return nil
}
