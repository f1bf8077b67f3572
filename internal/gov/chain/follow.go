package chain

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/blockvote/governance/internal/clock"
)

// Follow runs the listener's steady-state loop: poll (or wait for a wake-up
// on blockSignal) for a new chain tip and feed every newly connected block
// through BlockConnected. A tip height lower than the last one seen is
// treated as a reorg: every block down to the new tip is disconnected
// before the new chain is replayed forward.
func (l *Listener) Follow(ctx context.Context, pollInterval time.Duration, blockSignal <-chan struct{}) error {
	lastHeight, err := l.reader.Height(ctx)
	if err != nil {
		return fmt.Errorf("read initial chain height: %w", err)
	}

	for {
		if ctx.Err() != nil {
			return ctx.Err()
		}

		tip, err := l.reader.Height(ctx)
		if err != nil {
			l.logger.Warn("follow: read chain height failed", zap.Error(err))
			if waitErr := wait(ctx, pollInterval, blockSignal); waitErr != nil {
				return waitErr
			}
			continue
		}

		switch {
		case tip > lastHeight:
			if err := l.connectRange(ctx, lastHeight+1, tip); err != nil {
				l.logger.Warn("follow: connect range failed", zap.Error(err))
				if waitErr := wait(ctx, pollInterval, blockSignal); waitErr != nil {
					return waitErr
				}
				continue
			}
			lastHeight = tip
		case tip < lastHeight:
			if err := l.disconnectRange(ctx, lastHeight, tip+1); err != nil {
				l.logger.Warn("follow: disconnect range failed", zap.Error(err))
				if waitErr := wait(ctx, pollInterval, blockSignal); waitErr != nil {
					return waitErr
				}
				continue
			}
			lastHeight = tip
		}

		if waitErr := wait(ctx, pollInterval, blockSignal); waitErr != nil {
			return waitErr
		}
	}
}

func (l *Listener) connectRange(ctx context.Context, from, to int32) error {
	for h := from; h <= to; h++ {
		hash, err := l.reader.BlockHashAt(ctx, h)
		if err != nil {
			return fmt.Errorf("block hash at %d: %w", h, err)
		}
		block, err := l.reader.ReadBlock(ctx, hash)
		if err != nil {
			return fmt.Errorf("read block %d: %w", h, err)
		}
		if err := l.BlockConnected(ctx, block); err != nil {
			return fmt.Errorf("connect block %d: %w", h, err)
		}
	}
	return nil
}

func (l *Listener) disconnectRange(ctx context.Context, from, to int32) error {
	for h := from; h >= to; h-- {
		hash, err := l.reader.BlockHashAt(ctx, h)
		if err != nil {
			return fmt.Errorf("block hash at %d: %w", h, err)
		}
		block, err := l.reader.ReadBlock(ctx, hash)
		if err != nil {
			return fmt.Errorf("read block %d: %w", h, err)
		}
		if err := l.BlockDisconnected(ctx, block); err != nil {
			return fmt.Errorf("disconnect block %d: %w", h, err)
		}
	}
	return nil
}

func wait(ctx context.Context, d time.Duration, signal <-chan struct{}) error {
	if signal == nil {
		return clock.SleepWithContext(ctx, d)
	}

	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-signal:
		return nil
	case <-timer.C:
		return nil
	}
}
