// Package history records reversible business operations per user and
// undoes or redoes them on request.
package history

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/vietddude/schedrecovery/internal/core/domain"
	"github.com/vietddude/schedrecovery/internal/core/ids"
	"github.com/vietddude/schedrecovery/internal/infra/storage"
	"github.com/vietddude/schedrecovery/internal/metrics"
	"github.com/vietddude/schedrecovery/internal/recovery/taxonomy"
)

const (
	DefaultMaxPerUser = 100
	DefaultTTL        = 30 * 24 * time.Hour
	DefaultPageSize   = 20

	operationPrefix = "operation:"
	indexPrefix     = "operation_history:"

	metaUndoOf = "undo_of"
	metaRedoOf = "redo_of"
)

func OperationKey(id string) string { return operationPrefix + id }

func IndexKey(userID string) string { return indexPrefix + userID }

// ApplyRequest asks an Executor to bring a business object to Target.
type ApplyRequest struct {
	Operation domain.Operation
	Kind      domain.OperationKind
	Target    json.RawMessage
	Redo      bool
}

// Executor performs the domain side of an undo or redo.
type Executor interface {
	Apply(ctx context.Context, req ApplyRequest) error
}

// Manager is the operation history ledger.
type Manager struct {
	stash      *storage.Stash
	maxPerUser int
	executor   Executor
	logger     *slog.Logger
	now        func() time.Time

	// serializes read-modify-write of the per-user index
	indexMu sync.Mutex
}

type Option func(*Manager)

func WithMaxPerUser(n int) Option {
	return func(m *Manager) {
		if n > 0 {
			m.maxPerUser = n
		}
	}
}

func WithExecutor(e Executor) Option {
	return func(m *Manager) { m.executor = e }
}

func WithLogger(l *slog.Logger) Option {
	return func(m *Manager) {
		if l != nil {
			m.logger = l
		}
	}
}

func WithClock(now func() time.Time) Option {
	return func(m *Manager) { m.now = now }
}

func New(stash *storage.Stash, opts ...Option) *Manager {
	m := &Manager{
		stash:      stash,
		maxPerUser: DefaultMaxPerUser,
		logger:     slog.Default(),
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

type recordOptions struct {
	description string
	groupID     string
	sessionID   string
}

// RecordOption sets optional fields of a recorded operation.
type RecordOption func(*recordOptions)

func WithDescription(d string) RecordOption {
	return func(o *recordOptions) { o.description = d }
}

func WithGroup(id string) RecordOption {
	return func(o *recordOptions) { o.groupID = id }
}

func WithSession(id string) RecordOption {
	return func(o *recordOptions) { o.sessionID = id }
}

// Record stores a completed business mutation and returns its id.
func (m *Manager) Record(
	ctx context.Context,
	userID string,
	kind domain.OperationKind,
	before, after any,
	cc domain.ChangeContext,
	opts ...RecordOption,
) (string, error) {
	ec := domain.ErrorContext{UserID: userID, OperationType: string(kind), OperationStep: "record"}

	if !kind.Valid() {
		return "", taxonomy.New(domain.KindDataValidation, fmt.Sprintf("unknown operation kind %q", kind), ec, nil)
	}
	beforeState, err := domain.CloneState(before)
	if err != nil {
		return "", taxonomy.New(domain.KindDataValidation, "before state is not serializable", ec, err)
	}
	afterState, err := domain.CloneState(after)
	if err != nil {
		return "", taxonomy.New(domain.KindDataValidation, "after state is not serializable", ec, err)
	}

	var o recordOptions
	for _, opt := range opts {
		opt(&o)
	}
	if o.description == "" {
		o.description = Describe(kind, afterState)
	}
	if cc.Source == "" {
		cc.Source = domain.SourceAPI
	}

	now := m.now()
	op := domain.Operation{
		ID:          ids.New(ids.PrefixOperation, now),
		UserID:      userID,
		GroupID:     o.groupID,
		SessionID:   o.sessionID,
		Kind:        kind,
		Status:      domain.OperationCompleted,
		Description: o.description,
		BeforeState: beforeState,
		AfterState:  afterState,
		Context:     cc,
		Reversible:  Reversible(kind),
		Undo:        deriveUndo(kind, beforeState, afterState),
		Timestamp:   now,
	}

	if err := m.store(ctx, &op); err != nil {
		m.logger.Error("Failed to record operation", "user", userID, "kind", kind, "error", err)
		return "", taxonomy.New(domain.KindSystem, "failed to record operation", ec, err)
	}
	if err := m.addToIndex(ctx, userID, op.ID); err != nil {
		m.logger.Error("Failed to index operation", "user", userID, "operation_id", op.ID, "error", err)
		return "", taxonomy.New(domain.KindSystem, "failed to record operation", ec, err)
	}

	metrics.OperationsRecorded.WithLabelValues(string(kind)).Inc()
	m.logger.Debug("Operation recorded", "operation_id", op.ID, "kind", kind, "user", userID)
	return op.ID, nil
}

// Get returns the stored operation. storage.ErrNotFound is returned when
// the record is missing or expired.
func (m *Manager) Get(ctx context.Context, id string) (*domain.Operation, error) {
	var op domain.Operation
	if err := m.stash.FetchJSON(ctx, OperationKey(id), &op); err != nil {
		return nil, err
	}
	return &op, nil
}

// History returns a page of the user's operations, newest first.
func (m *Manager) History(ctx context.Context, userID string, limit, offset int) ([]domain.Operation, error) {
	if limit <= 0 {
		limit = DefaultPageSize
	}
	if offset < 0 {
		offset = 0
	}

	idx, err := m.loadIndex(ctx, userID)
	if err != nil {
		return nil, err
	}
	if offset >= len(idx) {
		return nil, nil
	}
	idx = idx[offset:min(offset+limit, len(idx))]

	ops := make([]domain.Operation, 0, len(idx))
	for _, id := range idx {
		op, err := m.Get(ctx, id)
		if err != nil {
			if !errors.Is(err, storage.ErrNotFound) {
				m.logger.Warn("Failed to load operation", "operation_id", id, "error", err)
			}
			continue
		}
		ops = append(ops, *op)
	}
	sort.SliceStable(ops, func(i, j int) bool {
		return ops[i].Timestamp.After(ops[j].Timestamp)
	})
	return ops, nil
}

// Undo reverses a single operation owned by userID.
func (m *Manager) Undo(ctx context.Context, userID, opID string) domain.UndoResult {
	res, op := m.undo(ctx, userID, opID)
	if op != nil {
		res.RecordedID = m.recordFollowUp(ctx, op, op.AfterState, op.BeforeState, metaUndoOf, "Undo: ")
	}
	metrics.UndoTotal.WithLabelValues("undo", metrics.Outcome(res.Success)).Inc()
	return res
}

// undo applies and persists the reversal. The returned operation is non-nil
// on success; recording the follow-up entry is left to the caller.
func (m *Manager) undo(ctx context.Context, userID, opID string) (domain.UndoResult, *domain.Operation) {
	ec := domain.ErrorContext{UserID: userID, OperationType: "undo", OperationStep: "validation"}

	op, fail := m.loadOwned(ctx, userID, opID, ec)
	if fail != nil {
		return *fail, nil
	}
	if !op.Reversible || op.Undo == nil {
		return failure(opID, taxonomy.New(domain.KindBusinessRuleViolation, "operation is not reversible", ec, nil)), nil
	}
	if op.Status == domain.OperationUndone {
		return failure(opID, taxonomy.New(domain.KindBusinessRuleViolation, "operation has already been undone", ec, nil)), nil
	}

	if m.executor != nil {
		req := ApplyRequest{Operation: *op, Kind: op.Undo.Kind, Target: op.BeforeState}
		if err := m.executor.Apply(ctx, req); err != nil {
			ec.OperationStep = "execution"
			m.logger.Warn("Undo execution failed", "operation_id", opID, "error", err)
			return failure(opID, taxonomy.Classify(err, domain.KindSystem, ec)), nil
		}
	}

	now := m.now()
	op.Status = domain.OperationUndone
	op.UndoneAt = &now
	if err := m.store(ctx, op); err != nil {
		ec.OperationStep = "execution"
		return failure(opID, taxonomy.New(domain.KindSystem, "failed to persist undo", ec, err)), nil
	}

	m.logger.Info("Operation undone", "operation_id", opID, "user", userID)
	return domain.UndoResult{
		Success:       true,
		Message:       "Successfully undone: " + op.Description,
		OperationID:   opID,
		RestoredState: op.BeforeState,
	}, op
}

// Redo re-applies an undone operation.
func (m *Manager) Redo(ctx context.Context, userID, opID string) domain.UndoResult {
	res := m.redo(ctx, userID, opID)
	metrics.UndoTotal.WithLabelValues("redo", metrics.Outcome(res.Success)).Inc()
	return res
}

func (m *Manager) redo(ctx context.Context, userID, opID string) domain.UndoResult {
	ec := domain.ErrorContext{UserID: userID, OperationType: "redo", OperationStep: "validation"}

	op, fail := m.loadOwned(ctx, userID, opID, ec)
	if fail != nil {
		return *fail
	}
	if op.Status != domain.OperationUndone {
		return failure(opID, taxonomy.New(domain.KindBusinessRuleViolation, "only undone operations can be redone", ec, nil))
	}

	if m.executor != nil {
		req := ApplyRequest{Operation: *op, Kind: op.Kind, Target: op.AfterState, Redo: true}
		if err := m.executor.Apply(ctx, req); err != nil {
			ec.OperationStep = "execution"
			m.logger.Warn("Redo execution failed", "operation_id", opID, "error", err)
			return failure(opID, taxonomy.Classify(err, domain.KindSystem, ec))
		}
	}

	now := m.now()
	op.Status = domain.OperationRedone
	op.RedoneAt = &now
	if err := m.store(ctx, op); err != nil {
		ec.OperationStep = "execution"
		return failure(opID, taxonomy.New(domain.KindSystem, "failed to persist redo", ec, err))
	}

	recordedID := m.recordFollowUp(ctx, op, op.BeforeState, op.AfterState, metaRedoOf, "Redo: ")

	m.logger.Info("Operation redone", "operation_id", opID, "user", userID, "recorded_id", recordedID)
	return domain.UndoResult{
		Success:       true,
		Message:       "Successfully redone: " + op.Description,
		OperationID:   opID,
		RecordedID:    recordedID,
		RestoredState: op.AfterState,
	}
}

// BulkUndo undoes every reversible, completed operation of userID whose
// timestamp lies in r, newest first. Follow-up entries are recorded only
// after every target was handled, so index eviction cannot purge a target
// still waiting its turn.
func (m *Manager) BulkUndo(ctx context.Context, userID string, r domain.TimeRange) domain.BulkUndoResult {
	ops, err := m.History(ctx, userID, m.maxPerUser, 0)
	if err != nil {
		ec := domain.ErrorContext{UserID: userID, OperationType: "bulk_undo", OperationStep: "execution"}
		rec := taxonomy.New(domain.KindSystem, "bulk undo failed", ec, err)
		return domain.BulkUndoResult{
			Message: rec.Message,
			Results: []domain.UndoResult{{Message: rec.Message, Error: rec}},
		}
	}

	out := domain.BulkUndoResult{
		UndoneOperations: []string{},
		FailedOperations: []string{},
	}
	var undone []*domain.Operation
	var resultIdx []int
	for _, op := range ops {
		if !op.Reversible || op.Status != domain.OperationCompleted || !r.Contains(op.Timestamp) {
			continue
		}
		res, done := m.undo(ctx, userID, op.ID)
		metrics.UndoTotal.WithLabelValues("undo", metrics.Outcome(res.Success)).Inc()
		out.Results = append(out.Results, res)
		if res.Success {
			out.UndoneOperations = append(out.UndoneOperations, op.ID)
			undone = append(undone, done)
			resultIdx = append(resultIdx, len(out.Results)-1)
		} else {
			out.FailedOperations = append(out.FailedOperations, op.ID)
		}
	}

	for i, op := range undone {
		out.Results[resultIdx[i]].RecordedID = m.recordFollowUp(ctx, op, op.AfterState, op.BeforeState, metaUndoOf, "Undo: ")
	}

	out.Success = len(out.FailedOperations) == 0
	out.Message = fmt.Sprintf("Undone %d operations, %d failed", len(out.UndoneOperations), len(out.FailedOperations))
	return out
}

// ClearUserHistory removes every operation of userID and its index.
func (m *Manager) ClearUserHistory(ctx context.Context, userID string) error {
	m.indexMu.Lock()
	defer m.indexMu.Unlock()

	idx, err := m.loadIndex(ctx, userID)
	if err != nil {
		return err
	}
	for _, id := range idx {
		if err := m.stash.Delete(ctx, OperationKey(id)); err != nil {
			return fmt.Errorf("clear history: %w", err)
		}
	}
	if err := m.stash.Delete(ctx, IndexKey(userID)); err != nil {
		return fmt.Errorf("clear history: %w", err)
	}
	m.logger.Info("Cleared operation history", "user", userID, "count", len(idx))
	return nil
}

func (m *Manager) loadOwned(ctx context.Context, userID, opID string, ec domain.ErrorContext) (*domain.Operation, *domain.UndoResult) {
	op, err := m.Get(ctx, opID)
	if err != nil {
		var rec *domain.ErrorRecord
		if errors.Is(err, storage.ErrNotFound) {
			rec = taxonomy.New(domain.KindDataValidation, "operation not found", ec, err)
		} else {
			rec = taxonomy.New(domain.KindSystem, "failed to load operation", ec, err)
		}
		res := failure(opID, rec)
		return nil, &res
	}
	if op.UserID != userID {
		ec.OperationStep = "authorization"
		res := failure(opID, taxonomy.New(domain.KindAuthorization, "not authorized to modify this operation", ec, nil))
		return nil, &res
	}
	return op, nil
}

// recordFollowUp appends the undo or redo itself to history so it can be
// reversed in turn. Failures are logged and leave recordedID empty.
func (m *Manager) recordFollowUp(ctx context.Context, op *domain.Operation, before, after json.RawMessage, metaKey, prefix string) string {
	cc := op.Context
	cc.Source = domain.SourceSystem
	cc.Metadata = map[string]string{metaKey: op.ID}

	opts := []RecordOption{WithDescription(prefix + op.Description)}
	if op.GroupID != "" {
		opts = append(opts, WithGroup(op.GroupID))
	}
	if op.SessionID != "" {
		opts = append(opts, WithSession(op.SessionID))
	}

	id, err := m.Record(ctx, op.UserID, domain.OpUpdateEvent, before, after, cc, opts...)
	if err != nil {
		m.logger.Warn("Failed to record follow-up operation", "operation_id", op.ID, "error", err)
		return ""
	}
	return id
}

func (m *Manager) store(ctx context.Context, op *domain.Operation) error {
	return m.stash.PutJSON(ctx, OperationKey(op.ID), op)
}

func (m *Manager) loadIndex(ctx context.Context, userID string) ([]string, error) {
	var idx []string
	if err := m.stash.FetchJSON(ctx, IndexKey(userID), &idx); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("load history index: %w", err)
	}
	return idx, nil
}

func (m *Manager) addToIndex(ctx context.Context, userID, opID string) error {
	m.indexMu.Lock()
	defer m.indexMu.Unlock()

	idx, err := m.loadIndex(ctx, userID)
	if err != nil {
		return err
	}
	idx = append([]string{opID}, idx...)

	if len(idx) > m.maxPerUser {
		evicted := idx[m.maxPerUser:]
		idx = idx[:m.maxPerUser]
		// oldest first
		for i := len(evicted) - 1; i >= 0; i-- {
			if err := m.stash.Delete(ctx, OperationKey(evicted[i])); err != nil {
				m.logger.Warn("Failed to purge evicted operation", "operation_id", evicted[i], "error", err)
			}
		}
	}
	return m.stash.PutJSON(ctx, IndexKey(userID), idx)
}

func failure(opID string, rec *domain.ErrorRecord) domain.UndoResult {
	return domain.UndoResult{
		Message:     rec.Message,
		OperationID: opID,
		Error:       rec,
	}
}
