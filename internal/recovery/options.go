package recovery

import (
	"log/slog"
	"time"

	"github.com/vietddude/schedrecovery/internal/recovery/retry"
)

// Option configures a Generator or a Manager.
type Option func(*Generator)

func WithReconnector(r Reconnector) Option {
	return func(g *Generator) { g.reconnector = r }
}

func WithSlotFinder(f SlotFinder) Option {
	return func(g *Generator) { g.slots = f }
}

// WithRand replaces the jitter source.
func WithRand(r retry.Rand) Option {
	return func(g *Generator) {
		if r != nil {
			g.rnd = r
		}
	}
}

func WithLogger(l *slog.Logger) Option {
	return func(g *Generator) {
		if l != nil {
			g.logger = l
		}
	}
}

func WithClock(now func() time.Time) Option {
	return func(g *Generator) { g.now = now }
}
