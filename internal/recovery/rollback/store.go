// Package rollback keeps a bounded per-session stack of state snapshots that
// callers take before risky steps and restore on failure.
package rollback

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/vietddude/schedrecovery/internal/core/domain"
	"github.com/vietddude/schedrecovery/internal/core/ids"
	"github.com/vietddude/schedrecovery/internal/infra/storage"
	"github.com/vietddude/schedrecovery/internal/metrics"
	"github.com/vietddude/schedrecovery/internal/recovery/taxonomy"
)

const (
	DefaultMaxPoints = 5
	DefaultTTL       = time.Hour

	keyPrefix = "rollback:"
)

// Key returns the persistent key of a session stack.
func Key(session string) string {
	return keyPrefix + session
}

// Store is the rollback point store. The in-memory stacks act as a cache
// over the persistent stash; every mutation rewrites the durable copy.
type Store struct {
	stash     *storage.Stash
	maxPoints int
	logger    *slog.Logger
	now       func() time.Time

	mu     sync.Mutex
	stacks map[string][]domain.RollbackPoint
	loaded map[string]bool
}

type Option func(*Store)

func WithMaxPoints(n int) Option {
	return func(s *Store) {
		if n > 0 {
			s.maxPoints = n
		}
	}
}

func WithLogger(l *slog.Logger) Option {
	return func(s *Store) {
		if l != nil {
			s.logger = l
		}
	}
}

func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

func New(stash *storage.Stash, opts ...Option) *Store {
	s := &Store{
		stash:     stash,
		maxPoints: DefaultMaxPoints,
		logger:    slog.Default(),
		now:       time.Now,
		stacks:    make(map[string][]domain.RollbackPoint),
		loaded:    make(map[string]bool),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Create snapshots state for session and returns the new point id.
// A persistence failure is reported as a SYSTEM_ERROR record while the
// point stays available in memory.
func (s *Store) Create(ctx context.Context, session, step string, state any, description string) (string, error) {
	ec := domain.ErrorContext{SessionID: session, OperationType: "rollback", OperationStep: step}

	snapshot, err := domain.CloneState(state)
	if err != nil {
		return "", taxonomy.New(domain.KindDataValidation, "rollback state is not serializable", ec, err)
	}

	s.mu.Lock()
	s.ensureLoadedLocked(ctx, session)

	now := s.now()
	point := domain.RollbackPoint{
		ID:            ids.New(ids.PrefixRollback, now),
		CreatedAt:     now,
		OperationStep: step,
		State:         snapshot,
		Description:   description,
	}
	stack := append(s.stacks[session], point)
	if over := len(stack) - s.maxPoints; over > 0 {
		stack = append([]domain.RollbackPoint(nil), stack[over:]...)
	}
	s.stacks[session] = stack
	persisted := cloneStack(stack)
	s.mu.Unlock()

	metrics.RollbackPointsCreated.Inc()

	if err := s.persist(ctx, session, persisted); err != nil {
		s.logger.Error("Failed to persist rollback point",
			"session", session, "point_id", point.ID, "error", err)
		return point.ID, taxonomy.New(domain.KindSystem, "failed to persist rollback point", ec, err)
	}
	return point.ID, nil
}

// RollbackToLast pops the most recent point of session.
func (s *Store) RollbackToLast(ctx context.Context, session string) domain.RollbackResult {
	s.mu.Lock()
	stack := s.stacks[session]
	if len(stack) == 0 {
		s.hydrateLocked(ctx, session)
		stack = s.stacks[session]
	}
	if len(stack) == 0 {
		s.mu.Unlock()
		metrics.RollbacksTotal.WithLabelValues("last", metrics.Outcome(false)).Inc()
		return domain.RollbackResult{Message: "no rollback points available"}
	}

	point := stack[len(stack)-1]
	rest := stack[:len(stack)-1:len(stack)-1]
	s.stacks[session] = rest
	persisted := cloneStack(rest)
	s.mu.Unlock()

	s.persistBestEffort(ctx, session, persisted)
	metrics.RollbacksTotal.WithLabelValues("last", metrics.Outcome(true)).Inc()
	return resultFor(point)
}

// RollbackToCheckpoint restores the point with id and discards it together
// with every newer point.
func (s *Store) RollbackToCheckpoint(ctx context.Context, session, id string) domain.RollbackResult {
	s.mu.Lock()
	s.ensureLoadedLocked(ctx, session)
	stack := s.stacks[session]

	idx := -1
	for i, p := range stack {
		if p.ID == id {
			idx = i
			break
		}
	}
	if idx < 0 {
		s.mu.Unlock()
		metrics.RollbacksTotal.WithLabelValues("checkpoint", metrics.Outcome(false)).Inc()
		return domain.RollbackResult{Message: fmt.Sprintf("rollback point %s not found", id)}
	}

	point := stack[idx]
	rest := append([]domain.RollbackPoint(nil), stack[:idx]...)
	s.stacks[session] = rest
	persisted := cloneStack(rest)
	s.mu.Unlock()

	s.persistBestEffort(ctx, session, persisted)
	metrics.RollbacksTotal.WithLabelValues("checkpoint", metrics.Outcome(true)).Inc()
	return resultFor(point)
}

// Points returns a copy of the session stack, oldest first.
func (s *Store) Points(ctx context.Context, session string) []domain.RollbackPoint {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ensureLoadedLocked(ctx, session)
	return cloneStack(s.stacks[session])
}

// Has reports whether session has at least one point.
func (s *Store) Has(ctx context.Context, session string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ensureLoadedLocked(ctx, session)
	return len(s.stacks[session]) > 0
}

// Clear drops every point of session, in memory and in the store.
func (s *Store) Clear(ctx context.Context, session string) error {
	s.mu.Lock()
	delete(s.stacks, session)
	s.loaded[session] = true
	s.mu.Unlock()

	if err := s.stash.Delete(ctx, Key(session)); err != nil {
		return fmt.Errorf("clear rollback points: %w", err)
	}
	return nil
}

// ensureLoadedLocked hydrates session once per process lifetime.
func (s *Store) ensureLoadedLocked(ctx context.Context, session string) {
	if s.loaded[session] {
		return
	}
	s.hydrateLocked(ctx, session)
}

func (s *Store) hydrateLocked(ctx context.Context, session string) {
	s.loaded[session] = true
	if len(s.stacks[session]) > 0 {
		return
	}
	var stack []domain.RollbackPoint
	if err := s.stash.FetchJSON(ctx, Key(session), &stack); err != nil {
		if !errors.Is(err, storage.ErrNotFound) {
			s.logger.Warn("Failed to load rollback points", "session", session, "error", err)
		}
		return
	}
	if len(stack) > s.maxPoints {
		stack = stack[len(stack)-s.maxPoints:]
	}
	s.stacks[session] = stack
	s.logger.Debug("Hydrated rollback points", "session", session, "count", len(stack))
}

func (s *Store) persist(ctx context.Context, session string, stack []domain.RollbackPoint) error {
	if len(stack) == 0 {
		return s.stash.Delete(ctx, Key(session))
	}
	return s.stash.PutJSON(ctx, Key(session), stack)
}

func (s *Store) persistBestEffort(ctx context.Context, session string, stack []domain.RollbackPoint) {
	if err := s.persist(ctx, session, stack); err != nil {
		s.logger.Warn("Failed to persist rollback stack", "session", session, "error", err)
	}
}

func resultFor(p domain.RollbackPoint) domain.RollbackResult {
	label := p.Description
	if label == "" {
		label = p.OperationStep
	}
	return domain.RollbackResult{
		Success:       true,
		Message:       "rolled back to checkpoint: " + label,
		PointID:       p.ID,
		OperationStep: p.OperationStep,
		State:         cloneRaw(p.State),
	}
}

func cloneRaw(b json.RawMessage) json.RawMessage {
	if b == nil {
		return nil
	}
	return append(json.RawMessage(nil), b...)
}

func cloneStack(stack []domain.RollbackPoint) []domain.RollbackPoint {
	if len(stack) == 0 {
		return nil
	}
	out := make([]domain.RollbackPoint, len(stack))
	for i, p := range stack {
		p.State = cloneRaw(p.State)
		out[i] = p
	}
	return out
}
