package intake

import (
	"errors"
	"time"

	"github.com/ziadkadry99/casebrief/internal/collector"
)

var (
	// ErrSessionNotFound is returned for an unknown session id.
	ErrSessionNotFound = errors.New("session not found")
	// ErrIncomplete is returned when an operation needs a completed dialogue.
	ErrIncomplete = errors.New("intake is not complete")
	// ErrNoPanel is returned when no experts have been selected for a session.
	ErrNoPanel = errors.New("no expert panel selected")
)

// Session is the stored header of an intake dialogue.
type Session struct {
	ID        string           `json:"id"`
	UserID    string           `json:"user_id"`
	Status    collector.Status `json:"status"`
	Reason    collector.Reason `json:"reason,omitempty"`
	TurnsUsed int              `json:"turns_used"`
	CreatedAt time.Time        `json:"created_at"`
	UpdatedAt time.Time        `json:"updated_at"`
}

// Snapshot is a session together with its collector state. It is the unit
// that is cached and persisted between turns.
type Snapshot struct {
	Session Session         `json:"session"`
	State   collector.State `json:"state"`
}

// Message roles.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Message is one line of the dialogue transcript.
type Message struct {
	ID        string    `json:"id"`
	SessionID string    `json:"session_id"`
	Seq       int       `json:"seq"`
	Role      string    `json:"role"`
	Slot      string    `json:"slot,omitempty"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
}

// SubmitResponse is a collector result tagged with its session.
type SubmitResponse struct {
	SessionID string `json:"session_id"`
	*collector.Result
}

// Panel is the expert selection made for a completed session.
type Panel struct {
	SessionID    string   `json:"session_id"`
	Experts      []string `json:"experts"`
	Fallback     bool     `json:"fallback"`
	MeetingCount int      `json:"meeting_count"`
}
