package domain

import (
	"encoding/json"
	"time"
)

// OperationKind is a recorded business mutation.
type OperationKind string

const (
	OpCreateEvent     OperationKind = "create_event"
	OpUpdateEvent     OperationKind = "update_event"
	OpDeleteEvent     OperationKind = "delete_event"
	OpEditTime        OperationKind = "edit_time"
	OpEditLocation    OperationKind = "edit_location"
	OpEditTitle       OperationKind = "edit_title"
	OpEditDescription OperationKind = "edit_description"
	OpSetReminder     OperationKind = "set_reminder"
	OpCancelReminder  OperationKind = "cancel_reminder"
	OpSessionStart    OperationKind = "session_start"
	OpSessionEnd      OperationKind = "session_end"
)

// OperationKinds lists every recordable kind.
var OperationKinds = []OperationKind{
	OpCreateEvent, OpUpdateEvent, OpDeleteEvent,
	OpEditTime, OpEditLocation, OpEditTitle, OpEditDescription,
	OpSetReminder, OpCancelReminder,
	OpSessionStart, OpSessionEnd,
}

// Valid reports whether k is a known operation kind.
func (k OperationKind) Valid() bool {
	for _, known := range OperationKinds {
		if k == known {
			return true
		}
	}
	return false
}

type OperationStatus string

const (
	OperationPending   OperationStatus = "pending"
	OperationCompleted OperationStatus = "completed"
	OperationFailed    OperationStatus = "failed"
	OperationUndone    OperationStatus = "undone"
	OperationRedone    OperationStatus = "redone"
)

// UndoRisk tells the user how careful to be before undoing.
type UndoRisk string

const (
	UndoRiskSafe    UndoRisk = "safe"
	UndoRiskCaution UndoRisk = "caution"
	UndoRiskWarning UndoRisk = "warning"
)

// ChangeSource is the channel that triggered an operation.
type ChangeSource string

const (
	SourceLineBot ChangeSource = "line_bot"
	SourceAPI     ChangeSource = "api"
	SourceSystem  ChangeSource = "system"
)

// ChangeContext carries provenance for a recorded operation.
type ChangeContext struct {
	EventID    string            `json:"event_id,omitempty"`
	CalendarID string            `json:"calendar_id,omitempty"`
	UserInput  string            `json:"user_input,omitempty"`
	Source     ChangeSource      `json:"source"`
	IPAddress  string            `json:"ip_address,omitempty"`
	UserAgent  string            `json:"user_agent,omitempty"`
	Metadata   map[string]string `json:"metadata,omitempty"`
}

// UndoOperation is the derived inverse of an Operation.
type UndoOperation struct {
	Kind        OperationKind   `json:"kind"`
	TargetState json.RawMessage `json:"target_state,omitempty"`
	Description string          `json:"description"`
	Risk        UndoRisk        `json:"risk"`
}

// Operation is a recorded, possibly reversible business mutation.
type Operation struct {
	ID          string          `json:"id"`
	UserID      string          `json:"user_id"`
	GroupID     string          `json:"group_id,omitempty"`
	SessionID   string          `json:"session_id,omitempty"`
	Kind        OperationKind   `json:"kind"`
	Status      OperationStatus `json:"status"`
	Description string          `json:"description"`
	BeforeState json.RawMessage `json:"before_state,omitempty"`
	AfterState  json.RawMessage `json:"after_state,omitempty"`
	Context     ChangeContext   `json:"context"`
	Reversible  bool            `json:"reversible"`
	Undo        *UndoOperation  `json:"undo,omitempty"`
	Timestamp   time.Time       `json:"timestamp"`
	UndoneAt    *time.Time      `json:"undone_at,omitempty"`
	RedoneAt    *time.Time      `json:"redone_at,omitempty"`
}

// UndoResult reports the outcome of a single undo or redo.
type UndoResult struct {
	Success       bool            `json:"success"`
	Message       string          `json:"message"`
	OperationID   string          `json:"operation_id"`
	RecordedID    string          `json:"recorded_id,omitempty"`
	RestoredState json.RawMessage `json:"restored_state,omitempty"`
	Error         *ErrorRecord    `json:"error,omitempty"`
}

// BulkUndoResult aggregates a time-ranged undo.
type BulkUndoResult struct {
	Success          bool         `json:"success"`
	UndoneOperations []string     `json:"undone_operations"`
	FailedOperations []string     `json:"failed_operations"`
	Results          []UndoResult `json:"results"`
	Message          string       `json:"message"`
}

// TimeRange is an inclusive interval.
type TimeRange struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// Contains reports whether t lies within [Start, End].
func (r TimeRange) Contains(t time.Time) bool {
	return !t.Before(r.Start) && !t.After(r.End)
}
