package history

import (
	"encoding/json"
	"fmt"

	"github.com/vietddude/schedrecovery/internal/core/domain"
)

// Reversible reports whether an operation of kind can be undone.
func Reversible(kind domain.OperationKind) bool {
	return kind != domain.OpDeleteEvent && kind != domain.OpSessionEnd
}

// InverseKind maps an operation kind to the kind that reverses it.
func InverseKind(kind domain.OperationKind) domain.OperationKind {
	switch kind {
	case domain.OpCreateEvent:
		return domain.OpDeleteEvent
	case domain.OpDeleteEvent:
		return domain.OpCreateEvent
	case domain.OpSetReminder:
		return domain.OpCancelReminder
	case domain.OpCancelReminder:
		return domain.OpSetReminder
	default:
		return domain.OpUpdateEvent
	}
}

// UndoRiskOf rates how risky it is to undo an operation of kind.
func UndoRiskOf(kind domain.OperationKind) domain.UndoRisk {
	switch kind {
	case domain.OpDeleteEvent:
		return domain.UndoRiskWarning
	case domain.OpCreateEvent, domain.OpUpdateEvent:
		return domain.UndoRiskCaution
	default:
		return domain.UndoRiskSafe
	}
}

func deriveUndo(kind domain.OperationKind, before, after json.RawMessage) *domain.UndoOperation {
	if !Reversible(kind) {
		return nil
	}
	return &domain.UndoOperation{
		Kind:        InverseKind(kind),
		TargetState: before,
		Description: "Undo " + Describe(kind, after),
		Risk:        UndoRiskOf(kind),
	}
}

// Describe builds a human description of an operation from its after snapshot.
func Describe(kind domain.OperationKind, after json.RawMessage) string {
	var fields map[string]any
	if len(after) > 0 {
		if err := json.Unmarshal(after, &fields); err != nil {
			return fmt.Sprintf("Performed %s operation", kind)
		}
	}
	field := func(name string) string {
		if v, ok := fields[name]; ok && v != nil {
			return fmt.Sprint(v)
		}
		return ""
	}
	summary := field("summary")
	if summary == "" {
		summary = "Untitled"
	}

	switch kind {
	case domain.OpCreateEvent:
		return "Created event: " + summary
	case domain.OpUpdateEvent:
		return "Updated event: " + summary
	case domain.OpDeleteEvent:
		return "Deleted event: " + summary
	case domain.OpEditTime:
		return fmt.Sprintf("Changed time to: %s - %s", field("start"), field("end"))
	case domain.OpEditLocation:
		return "Changed location to: " + field("location")
	case domain.OpEditTitle:
		return "Changed title to: " + field("summary")
	case domain.OpEditDescription:
		return "Updated description"
	case domain.OpSetReminder:
		return "Set reminder for: " + field("reminderAt")
	case domain.OpCancelReminder:
		return "Cancelled reminder"
	default:
		return fmt.Sprintf("Performed %s operation", kind)
	}
}
