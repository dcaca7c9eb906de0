package domain

import (
	"context"
	"encoding/json"
	"time"
)

// OperationContext identifies the conversational step being recovered.
type OperationContext struct {
	UserID        string          `json:"user_id"`
	GroupID       string          `json:"group_id,omitempty"`
	SessionID     string          `json:"session_id,omitempty"`
	OperationType string          `json:"operation_type"`
	OperationStep string          `json:"operation_step"`
	OperationData json.RawMessage `json:"operation_data,omitempty"`
	Timestamp     time.Time       `json:"timestamp"`
}

// SessionKey falls back to the user id when no session is attached.
func (c OperationContext) SessionKey() string {
	if c.SessionID != "" {
		return c.SessionID
	}
	return c.UserID
}

// ErrorContext converts the operation context for attachment to an ErrorRecord.
func (c OperationContext) ErrorContext() ErrorContext {
	return ErrorContext{
		UserID:        c.UserID,
		GroupID:       c.GroupID,
		SessionID:     c.SessionID,
		OperationType: c.OperationType,
		OperationStep: c.OperationStep,
		State:         c.OperationData,
		Timestamp:     c.Timestamp,
	}
}

// RecoveryResult is the outcome of handling an error or executing an action.
type RecoveryResult struct {
	Success            bool              `json:"success"`
	Message            string            `json:"message"`
	UserMessage        string            `json:"user_message"`
	ShouldRetry        bool              `json:"should_retry"`
	RetryDelay         time.Duration     `json:"retry_delay,omitempty"`
	NewContext         *OperationContext `json:"new_context,omitempty"`
	AlternativeActions []RecoveryAction  `json:"alternative_actions,omitempty"`
	Error              *ErrorRecord      `json:"error,omitempty"`
}

// ExecuteFunc runs a recovery action. Failures are reported in the result.
type ExecuteFunc func(ctx context.Context, oc OperationContext) RecoveryResult

// RecoveryAction is a candidate step for recovering from an ErrorRecord.
type RecoveryAction struct {
	Kind                 RecoveryKind `json:"kind"`
	Description          string       `json:"description"`
	UserDescription      string       `json:"user_description"`
	Automated            bool         `json:"automated"`
	Risk                 RiskLevel    `json:"risk"`
	EstimatedSuccessRate float64      `json:"estimated_success_rate"`
	Execute              ExecuteFunc  `json:"-"`
}

// RollbackPoint is a snapshot of opaque session state.
type RollbackPoint struct {
	ID            string          `json:"id"`
	CreatedAt     time.Time       `json:"created_at"`
	OperationStep string          `json:"operation_step"`
	State         json.RawMessage `json:"state"`
	Description   string          `json:"description"`
}

// RollbackResult reports the outcome of a rollback.
type RollbackResult struct {
	Success       bool            `json:"success"`
	Message       string          `json:"message"`
	PointID       string          `json:"point_id,omitempty"`
	OperationStep string          `json:"operation_step,omitempty"`
	State         json.RawMessage `json:"state,omitempty"`
}
