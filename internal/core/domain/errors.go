package domain

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// Severity is the fixed impact level of an ErrorKind.
type Severity string

const (
	SeverityLow      Severity = "low"
	SeverityMedium   Severity = "medium"
	SeverityHigh     Severity = "high"
	SeverityCritical Severity = "critical"
)

// RecoveryKind identifies what a recovery action does.
type RecoveryKind string

const (
	RecoveryRetry           RecoveryKind = "retry"
	RecoveryRollback        RecoveryKind = "rollback"
	RecoveryManualFix       RecoveryKind = "manual_fix"
	RecoveryAlternativeFlow RecoveryKind = "alternative_flow"
	RecoverySkip            RecoveryKind = "skip"
	RecoveryRestartSession  RecoveryKind = "restart_session"
)

// RiskLevel signals the blast radius of a recovery action.
type RiskLevel string

const (
	RiskSafe   RiskLevel = "safe"
	RiskLow    RiskLevel = "low_risk"
	RiskMedium RiskLevel = "medium_risk"
	RiskHigh   RiskLevel = "high_risk"
)

// ErrorContext describes where a failure happened. It is copied into the
// ErrorRecord and not modified afterwards.
type ErrorContext struct {
	UserID        string          `json:"user_id,omitempty"`
	GroupID       string          `json:"group_id,omitempty"`
	SessionID     string          `json:"session_id,omitempty"`
	OperationType string          `json:"operation_type"`
	OperationStep string          `json:"operation_step"`
	UserInput     string          `json:"user_input,omitempty"`
	State         json.RawMessage `json:"state,omitempty"`
	Timestamp     time.Time       `json:"timestamp"`
}

// SessionKey returns the key used for per-session bookkeeping.
func (c ErrorContext) SessionKey() string {
	if c.SessionID != "" {
		return c.SessionID
	}
	return c.UserID
}

// Suggestion is a default recovery hint attached to an ErrorRecord.
type Suggestion struct {
	Kind                 RecoveryKind `json:"kind"`
	Description          string       `json:"description"`
	UserDescription      string       `json:"user_description"`
	Automated            bool         `json:"automated"`
	Risk                 RiskLevel    `json:"risk"`
	EstimatedSuccessRate float64      `json:"estimated_success_rate"`
}

// ErrorRecord is a classified failure.
type ErrorRecord struct {
	ID          string       `json:"id"`
	Code        string       `json:"code"`
	Kind        ErrorKind    `json:"kind"`
	Severity    Severity     `json:"severity"`
	Message     string       `json:"message"`
	UserMessage string       `json:"user_message"`
	Context     ErrorContext `json:"context"`
	Suggestions []Suggestion `json:"suggestions"`
	Recoverable bool         `json:"recoverable"`
	Retryable   bool         `json:"retryable"`
	CreatedAt   time.Time    `json:"created_at"`
	Cause       error        `json:"-"`
}

func (e *ErrorRecord) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *ErrorRecord) Unwrap() error {
	return e.Cause
}

// Is matches any ErrorRecord target of the same kind.
func (e *ErrorRecord) Is(target error) bool {
	var t *ErrorRecord
	if !errors.As(target, &t) {
		return false
	}
	return t.Kind == e.Kind
}

// KindErr returns a bare record usable as an errors.Is target.
func KindErr(k ErrorKind) error {
	return &ErrorRecord{Kind: k}
}

// KindOf extracts the ErrorKind carried by err, if any.
func KindOf(err error) (ErrorKind, bool) {
	var rec *ErrorRecord
	if errors.As(err, &rec) {
		return rec.Kind, true
	}
	return 0, false
}
