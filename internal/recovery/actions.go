package recovery

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/vietddude/schedrecovery/internal/core/domain"
	"github.com/vietddude/schedrecovery/internal/core/ids"
	"github.com/vietddude/schedrecovery/internal/metrics"
	"github.com/vietddude/schedrecovery/internal/recovery/retry"
	"github.com/vietddude/schedrecovery/internal/recovery/taxonomy"
)

const (
	initialStep         = "initial"
	alternativeTimeStep = "select_alternative_time"

	msgRetryExhausted     = "Maximum retry attempts reached. Please retry manually later."
	userMsgRetryExhausted = "The retry limit was reached. Please wait a while and try again manually."
)

// retrySpec describes one RETRY-typed action. Every RETRY action of a kind
// draws from the same (session, kind) attempt budget.
type retrySpec struct {
	name        string
	description string
	userDesc    string
	userMsg     string
	risk        domain.RiskLevel
	rate        func(attempts int) float64
	before      func(ctx context.Context, oc domain.OperationContext) error
}

func (g *Generator) retryAction(rec *domain.ErrorRecord, oc domain.OperationContext, spec retrySpec) domain.RecoveryAction {
	policy := g.table.Policy(rec.Kind)
	session := oc.SessionKey()
	attempts := g.counter.Get(session, rec.Kind)
	automated := attempts < policy.MaxAttempts

	userDesc := spec.userDesc
	if !automated {
		userDesc = "Please retry manually."
	}

	return domain.RecoveryAction{
		Kind:                 domain.RecoveryRetry,
		Description:          fmt.Sprintf("%s (attempt %d/%d)", spec.description, attempts+1, policy.MaxAttempts),
		UserDescription:      userDesc,
		Automated:            automated,
		Risk:                 spec.risk,
		EstimatedSuccessRate: spec.rate(attempts),
		Execute: func(ctx context.Context, oc domain.OperationContext) domain.RecoveryResult {
			session := oc.SessionKey()
			current, ok := g.counter.TryIncrement(session, rec.Kind, policy.MaxAttempts)
			if !ok {
				metrics.RecoveryAttempts.WithLabelValues(spec.name, "exhausted").Inc()
				return domain.RecoveryResult{
					Message:     msgRetryExhausted,
					UserMessage: userMsgRetryExhausted,
				}
			}

			if spec.before != nil {
				if err := spec.before(ctx, oc); err != nil {
					classified := taxonomy.Classify(err, rec.Kind, oc.ErrorContext())
					g.logger.Warn("Recovery action failed",
						"action", spec.name, "session", session, "kind", rec.Kind, "error", err)
					metrics.RecoveryAttempts.WithLabelValues(spec.name, metrics.Outcome(false)).Inc()
					return domain.RecoveryResult{
						Message:     fmt.Sprintf("%s failed: %v", spec.name, err),
						UserMessage: classified.UserMessage,
						Error:       classified,
					}
				}
			}

			delay := retry.Delay(policy, current, g.rnd)
			metrics.RecoveryAttempts.WithLabelValues(spec.name, metrics.Outcome(true)).Inc()
			metrics.RetryDelay.WithLabelValues(rec.Kind.String()).Observe(delay.Seconds())
			g.logger.Debug("Retry scheduled",
				"action", spec.name, "session", session, "kind", rec.Kind,
				"attempt", current+1, "delay", delay)

			return domain.RecoveryResult{
				Success:     true,
				Message:     fmt.Sprintf("Retry scheduled with %dms delay", delay.Milliseconds()),
				UserMessage: spec.userMsg,
				ShouldRetry: true,
				RetryDelay:  delay,
			}
		},
	}
}

func (g *Generator) genericRetry(rec *domain.ErrorRecord, oc domain.OperationContext) domain.RecoveryAction {
	return g.retryAction(rec, oc, retrySpec{
		name:        "retry",
		description: "Retry operation with exponential backoff",
		userDesc:    "Retrying automatically.",
		userMsg:     "Waiting a moment before trying again.",
		risk:        domain.RiskSafe,
		rate: func(attempts int) float64 {
			return max(0.1, 0.8-0.2*float64(attempts))
		},
	})
}

func (g *Generator) calendarReconnect(rec *domain.ErrorRecord, oc domain.OperationContext) domain.RecoveryAction {
	spec := retrySpec{
		name:        "calendar_reconnect",
		description: "Reconnect to the calendar service",
		userDesc:    "Reconnecting to your calendar.",
		userMsg:     "Reconnecting to your calendar...",
		risk:        domain.RiskSafe,
		rate:        func(int) float64 { return 0.7 },
	}
	if g.reconnector != nil {
		spec.before = g.reconnector.Reconnect
	}
	return g.retryAction(rec, oc, spec)
}

func (g *Generator) networkRetry(rec *domain.ErrorRecord, oc domain.OperationContext) domain.RecoveryAction {
	return g.retryAction(rec, oc, retrySpec{
		name:        "network_retry",
		description: "Retry network operation",
		userDesc:    "Retrying the network connection.",
		userMsg:     "Retrying the network connection...",
		risk:        domain.RiskSafe,
		rate:        func(int) float64 { return 0.6 },
	})
}

func (g *Generator) rollbackAction() domain.RecoveryAction {
	return domain.RecoveryAction{
		Kind:                 domain.RecoveryRollback,
		Description:          "Rollback to previous checkpoint",
		UserDescription:      "Restoring the previous state.",
		Automated:            true,
		Risk:                 domain.RiskLow,
		EstimatedSuccessRate: 0.9,
		Execute: func(ctx context.Context, oc domain.OperationContext) domain.RecoveryResult {
			res := g.rollback.RollbackToLast(ctx, oc.SessionKey())
			metrics.RecoveryAttempts.WithLabelValues("rollback", metrics.Outcome(res.Success)).Inc()
			if !res.Success {
				return domain.RecoveryResult{
					Message:     res.Message,
					UserMessage: "The previous state could not be restored.",
				}
			}
			next := oc
			next.OperationStep = res.OperationStep
			next.OperationData = res.State
			return domain.RecoveryResult{
				Success:     true,
				Message:     res.Message,
				UserMessage: "Restored the previous state.",
				NewContext:  &next,
			}
		},
	}
}

func (g *Generator) sessionRestart() domain.RecoveryAction {
	return domain.RecoveryAction{
		Kind:                 domain.RecoveryRestartSession,
		Description:          "Restart user session",
		UserDescription:      "Start a new session.",
		Risk:                 domain.RiskLow,
		EstimatedSuccessRate: 0.95,
		Execute: func(ctx context.Context, oc domain.OperationContext) domain.RecoveryResult {
			session := oc.SessionKey()
			if g.rollback != nil {
				if err := g.rollback.Clear(ctx, session); err != nil {
					g.logger.Warn("Failed to clear rollback points on restart", "session", session, "error", err)
				}
			}
			g.counter.ResetSession(session)
			metrics.RecoveryAttempts.WithLabelValues("restart_session", metrics.Outcome(true)).Inc()

			now := g.now()
			next := oc
			next.SessionID = ids.New(ids.PrefixSession, now)
			next.OperationStep = initialStep
			next.OperationData = json.RawMessage("{}")
			next.Timestamp = now
			return domain.RecoveryResult{
				Success:     true,
				Message:     "Session restarted successfully",
				UserMessage: "Started a new session. Please begin the operation again.",
				NewContext:  &next,
			}
		},
	}
}

func (g *Generator) alternativeTime() domain.RecoveryAction {
	return domain.RecoveryAction{
		Kind:                 domain.RecoveryAlternativeFlow,
		Description:          "Suggest alternative time slots",
		UserDescription:      "Suggest free time slots.",
		Risk:                 domain.RiskSafe,
		EstimatedSuccessRate: 0.8,
		Execute: func(ctx context.Context, oc domain.OperationContext) domain.RecoveryResult {
			if g.slots == nil {
				metrics.RecoveryAttempts.WithLabelValues("alternative_time", metrics.Outcome(true)).Inc()
				return domain.RecoveryResult{
					Success:     true,
					Message:     "Alternative time slots generated",
					UserMessage: "Would you like to look for another free time slot?",
				}
			}

			slots, err := g.slots.FindSlots(ctx, oc)
			if err != nil {
				classified := taxonomy.Classify(err, domain.KindGoogleCalendar, oc.ErrorContext())
				metrics.RecoveryAttempts.WithLabelValues("alternative_time", metrics.Outcome(false)).Inc()
				return domain.RecoveryResult{
					Message:     fmt.Sprintf("finding alternative slots failed: %v", err),
					UserMessage: classified.UserMessage,
					Error:       classified,
				}
			}

			metrics.RecoveryAttempts.WithLabelValues("alternative_time", metrics.Outcome(true)).Inc()
			next := oc
			next.OperationStep = alternativeTimeStep
			next.OperationData = append(json.RawMessage(nil), slots...)
			return domain.RecoveryResult{
				Success:     true,
				Message:     "Alternative time slots generated",
				UserMessage: "Here are some free time slots you could use instead.",
				NewContext:  &next,
			}
		},
	}
}

func (g *Generator) inputCorrection(rec *domain.ErrorRecord) domain.RecoveryAction {
	hints := taxonomy.TemplateFor(rec.Kind).Hints
	return domain.RecoveryAction{
		Kind:                 domain.RecoveryManualFix,
		Description:          "Guide user to correct input",
		UserDescription:      "Please correct your input.",
		Risk:                 domain.RiskSafe,
		EstimatedSuccessRate: 0.9,
		Execute: func(ctx context.Context, oc domain.OperationContext) domain.RecoveryResult {
			metrics.RecoveryAttempts.WithLabelValues("input_correction", metrics.Outcome(true)).Inc()
			return domain.RecoveryResult{
				Success:     true,
				Message:     "Input correction guidance provided",
				UserMessage: "Please check your input and enter it again. " + strings.Join(hints, ". "),
			}
		},
	}
}
