// Package audit records the interaction trail of intake sessions.
package audit

import "time"

// ActorType identifies who performed an action.
type ActorType string

const (
	ActorUser   ActorType = "user"
	ActorSystem ActorType = "system"
	ActorOracle ActorType = "oracle"
)

// Action describes what was done.
type Action string

const (
	ActionSessionStarted    Action = "session_started"
	ActionAnswerRecorded    Action = "answer_recorded"
	ActionQuestionIssued    Action = "question_issued"
	ActionSlotCompleted     Action = "slot_completed"
	ActionDialogueCompleted Action = "dialogue_completed"
	ActionExpertsSelected   Action = "experts_selected"
)

// Entry is a single audit trail record.
type Entry struct {
	ID        string    `json:"id"`
	Timestamp time.Time `json:"timestamp"`
	ActorType ActorType `json:"actor_type"`
	ActorID   string    `json:"actor_id"`
	Action    Action    `json:"action"`
	SessionID string    `json:"session_id,omitempty"`
	Slot      string    `json:"slot,omitempty"`
	Summary   string    `json:"summary"`
	Detail    string    `json:"detail,omitempty"`
}
