package recovery

import (
	"context"
	"errors"
	"fmt"

	"github.com/vietddude/schedrecovery/internal/core/domain"
	"github.com/vietddude/schedrecovery/internal/metrics"
	"github.com/vietddude/schedrecovery/internal/recovery/retry"
	"github.com/vietddude/schedrecovery/internal/recovery/rollback"
	"github.com/vietddude/schedrecovery/internal/recovery/taxonomy"
)

var ErrNoRollbackStore = errors.New("rollback store not configured")

// Manager is the error recovery entry point used by the chat layer.
type Manager struct {
	gen *Generator
}

func NewManager(table *retry.Table, counter *retry.Counter, store *rollback.Store, opts ...Option) *Manager {
	return &Manager{gen: NewGenerator(table, counter, store, opts...)}
}

// CreateError classifies a failure.
func (m *Manager) CreateError(kind domain.ErrorKind, message string, ec domain.ErrorContext, cause error) *domain.ErrorRecord {
	rec := taxonomy.NewAt(m.gen.now(), kind, message, ec, cause)
	metrics.ErrorsCreated.WithLabelValues(kind.String(), string(rec.Severity)).Inc()
	m.gen.logger.Debug("Error classified",
		"error_id", rec.ID, "kind", kind, "severity", rec.Severity,
		"session", rec.Context.SessionKey())
	return rec
}

// GenerateRecoveryActions returns ranked candidate actions for rec.
func (m *Manager) GenerateRecoveryActions(ctx context.Context, rec *domain.ErrorRecord, oc domain.OperationContext) []domain.RecoveryAction {
	return m.gen.Generate(ctx, rec, oc)
}

// HandleError runs the automated RETRY actions in rank order and returns the
// first success. Otherwise every manual action is offered as an alternative.
func (m *Manager) HandleError(ctx context.Context, rec *domain.ErrorRecord, oc domain.OperationContext) domain.RecoveryResult {
	if rec == nil {
		return domain.RecoveryResult{Message: "no error to handle"}
	}
	m.gen.logger.Info("Handling error",
		"error_id", rec.ID, "kind", rec.Kind, "operation", oc.OperationType,
		"session", oc.SessionKey())

	actions := m.gen.Generate(ctx, rec, oc)

	for _, a := range actions {
		if !a.Automated || a.Kind != domain.RecoveryRetry {
			continue
		}
		res := a.Execute(ctx, oc)
		if res.Success {
			m.gen.logger.Info("Automated recovery succeeded",
				"error_id", rec.ID, "kind", rec.Kind, "delay", res.RetryDelay)
			return res
		}
		m.gen.logger.Debug("Automated recovery failed",
			"error_id", rec.ID, "action", a.Description, "message", res.Message)
	}

	var manual []domain.RecoveryAction
	for _, a := range actions {
		if !a.Automated {
			manual = append(manual, a)
		}
	}
	return domain.RecoveryResult{
		Message:            fmt.Sprintf("Automated recovery failed for %s", rec.Kind),
		UserMessage:        rec.UserMessage,
		AlternativeActions: manual,
		Error:              rec,
	}
}

// CreateRollbackPoint snapshots state before a risky step.
func (m *Manager) CreateRollbackPoint(ctx context.Context, session, step string, state any, description string) (string, error) {
	if m.gen.rollback == nil {
		return "", ErrNoRollbackStore
	}
	return m.gen.rollback.Create(ctx, session, step, state, description)
}

func (m *Manager) RollbackToLastCheckpoint(ctx context.Context, session string) domain.RollbackResult {
	if m.gen.rollback == nil {
		return domain.RollbackResult{Message: ErrNoRollbackStore.Error()}
	}
	return m.gen.rollback.RollbackToLast(ctx, session)
}

func (m *Manager) RollbackToCheckpoint(ctx context.Context, session, id string) domain.RollbackResult {
	if m.gen.rollback == nil {
		return domain.RollbackResult{Message: ErrNoRollbackStore.Error()}
	}
	return m.gen.rollback.RollbackToCheckpoint(ctx, session, id)
}

func (m *Manager) GetRollbackPoints(ctx context.Context, session string) []domain.RollbackPoint {
	if m.gen.rollback == nil {
		return nil
	}
	return m.gen.rollback.Points(ctx, session)
}

// ClearRollbackPoints drops the session's points and its retry counters.
func (m *Manager) ClearRollbackPoints(ctx context.Context, session string) error {
	m.gen.counter.ResetSession(session)
	if m.gen.rollback == nil {
		return nil
	}
	return m.gen.rollback.Clear(ctx, session)
}

// Attempts returns the automatic retries already spent for (session, kind).
func (m *Manager) Attempts(session string, kind domain.ErrorKind) int {
	return m.gen.counter.Get(session, kind)
}
