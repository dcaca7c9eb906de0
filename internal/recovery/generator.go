// Package recovery turns classified errors into ranked recovery actions and
// runs the automated ones.
package recovery

import (
	"context"
	"encoding/json"
	"log/slog"
	"sort"
	"time"

	"github.com/vietddude/schedrecovery/internal/core/domain"
	"github.com/vietddude/schedrecovery/internal/recovery/retry"
	"github.com/vietddude/schedrecovery/internal/recovery/rollback"
)

// Reconnector re-establishes the calendar connection before a retry.
type Reconnector interface {
	Reconnect(ctx context.Context, oc domain.OperationContext) error
}

// SlotFinder proposes free time slots after a schedule conflict. The returned
// payload is opaque to this package.
type SlotFinder interface {
	FindSlots(ctx context.Context, oc domain.OperationContext) (json.RawMessage, error)
}

// Generator composes candidate recovery actions for an ErrorRecord.
type Generator struct {
	table       *retry.Table
	counter     *retry.Counter
	rollback    *rollback.Store
	rnd         retry.Rand
	reconnector Reconnector
	slots       SlotFinder
	logger      *slog.Logger
	now         func() time.Time
}

// NewGenerator builds a Generator. table defaults to the built-in policies.
func NewGenerator(table *retry.Table, counter *retry.Counter, store *rollback.Store, opts ...Option) *Generator {
	if table == nil {
		table = retry.DefaultTable()
	}
	if counter == nil {
		counter = retry.NewCounter()
	}
	g := &Generator{
		table:    table,
		counter:  counter,
		rollback: store,
		rnd:      retry.DefaultRand,
		logger:   slog.Default(),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Generate returns the candidate actions for rec, highest estimated success
// rate first. Ties keep their composition order.
func (g *Generator) Generate(ctx context.Context, rec *domain.ErrorRecord, oc domain.OperationContext) []domain.RecoveryAction {
	if rec == nil {
		return nil
	}
	var actions []domain.RecoveryAction

	if rec.Retryable || g.table.Policy(rec.Kind).Retryable() {
		actions = append(actions, g.genericRetry(rec, oc))
	}

	if g.rollback != nil && g.rollback.Has(ctx, oc.SessionKey()) {
		actions = append(actions, g.rollbackAction())
	}

	switch rec.Kind {
	case domain.KindSession:
		actions = append(actions, g.sessionRestart())
	case domain.KindScheduleConflict:
		actions = append(actions, g.alternativeTime())
	case domain.KindGoogleCalendar, domain.KindExternalAPI:
		actions = append(actions, g.calendarReconnect(rec, oc))
	case domain.KindUserInput, domain.KindInvalidDateTime:
		actions = append(actions, g.inputCorrection(rec))
	case domain.KindNetwork, domain.KindTimeout:
		actions = append(actions, g.networkRetry(rec, oc))
	}

	sort.SliceStable(actions, func(i, j int) bool {
		return actions[i].EstimatedSuccessRate > actions[j].EstimatedSuccessRate
	})
	return actions
}
