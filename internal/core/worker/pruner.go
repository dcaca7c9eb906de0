package worker

import (
	"context"
	"log/slog"
	"time"

	"github.com/vietddude/schedrecovery/internal/infra/storage"
	"github.com/vietddude/schedrecovery/internal/metrics"
)

// Pruner deletes expired key/value entries on backends without native TTL.
type Pruner struct {
	interval time.Duration
	store    storage.ExpiredPruner
	logger   *slog.Logger
	now      func() time.Time
}

// NewPruner creates a new Pruner worker.
func NewPruner(interval time.Duration, store storage.ExpiredPruner, logger *slog.Logger) *Pruner {
	if logger == nil {
		logger = slog.Default()
	}
	return &Pruner{
		interval: interval,
		store:    store,
		logger:   logger,
		now:      time.Now,
	}
}

// Start runs the pruner loop until ctx is cancelled.
func (p *Pruner) Start(ctx context.Context) {
	if p.interval <= 0 || p.store == nil {
		return // pruning disabled
	}

	ticker := time.NewTicker(max(p.interval, time.Second))
	defer ticker.Stop()

	p.Prune(ctx)

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			p.Prune(ctx)
		}
	}
}

// Prune runs one sweep and returns how many entries were removed.
func (p *Pruner) Prune(ctx context.Context) int64 {
	n, err := p.store.DeleteExpired(ctx, p.now())
	if err != nil {
		p.logger.Error("[Pruner] failed to prune expired entries", "error", err)
		return 0
	}
	if n > 0 {
		metrics.ExpiredEntriesPruned.Add(float64(n))
		p.logger.Debug("[Pruner] pruned expired entries", "count", n)
	}
	return n
}
