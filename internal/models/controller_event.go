package models

import "time"

// Journal event types.
const (
	EventConnect    = "CONNECT"
	EventDisconnect = "DISCONNECT"
	EventMutation   = "MUTATION"
	EventIntent     = "INTENT"
	EventRejected   = "REJECTED"
	EventPersist    = "PERSIST"
	EventRestore    = "RESTORE"
	EventAlarm      = "ALARM"
)

// ControllerEvent is a single journal entry.
type ControllerEvent struct {
	EventID     string    `json:"event_id"`
	OccurredAt  time.Time `json:"occurred_at"`
	Type        string    `json:"type"`        // CONNECT | DISCONNECT | MUTATION | INTENT | REJECTED | PERSIST | RESTORE | ALARM
	Description string    `json:"description"` // human-readable
	Metadata    any       `json:"metadata,omitempty"`
}
