package collector

import (
	"errors"
	"time"
)

// ErrUnknownSlot is returned when a caller targets a slot that is not configured.
var ErrUnknownSlot = errors.New("unknown slot")

// Status is the outcome of a Submit call.
type Status string

const (
	StatusComplete   Status = "complete"
	StatusIncomplete Status = "incomplete"
)

// Reason explains why a dialogue was declared complete.
type Reason string

const (
	// ReasonSatisfied means every slot met its threshold or was closed by policy.
	ReasonSatisfied Reason = "satisfied"
	// ReasonBudgetExhausted means the question budget ran out with gaps left.
	ReasonBudgetExhausted Reason = "budget_exhausted"
	// ReasonExhaustedCandidates means open slots remain but none may be asked again.
	ReasonExhaustedCandidates Reason = "exhausted_candidates"
)

// Result is returned from every Submit call.
//
// Context always carries every configured slot key; slots that were never
// filled map to the empty string.
type Result struct {
	Status   Status            `json:"status"`
	Question string            `json:"question,omitempty"`
	Slot     string            `json:"slot,omitempty"`
	Reason   Reason            `json:"reason,omitempty"`
	Context  map[string]string `json:"context"`
}

// Policy holds the tunables of the completion policy.
type Policy struct {
	// MaxQuestions bounds the follow-up questions issued per dialogue.
	MaxQuestions int `json:"max_questions"`
	// ReaskLimit is how many questions may be issued for a slot. Answering
	// the last allowed question closes the slot regardless of detail.
	ReaskLimit int `json:"reask_limit"`
	// DefaultSlot receives the first untargeted input of a dialogue.
	DefaultSlot string `json:"default_slot"`
	// OracleTimeout bounds each outbound oracle call.
	OracleTimeout time.Duration `json:"oracle_timeout"`
}

// DefaultPolicy returns the policy used when nothing is configured.
func DefaultPolicy() Policy {
	return Policy{
		MaxQuestions:  3,
		ReaskLimit:    1,
		DefaultSlot:   "problem",
		OracleTimeout: 15 * time.Second,
	}
}

// State is the per-session dialogue state. It is safe to serialise and
// restore with Collector.Restore.
type State struct {
	Answers map[string]string `json:"answers"`
	// Asked counts questions issued per slot, plus the opening description
	// for the default slot.
	Asked     map[string]int  `json:"asked"`
	Complete  map[string]bool `json:"complete"`
	TurnsUsed int             `json:"turns_used"`
	// Pending is the slot of the last question issued, if still open.
	Pending         string `json:"pending,omitempty"`
	PendingQuestion string `json:"pending_question,omitempty"`
}

func newState() State {
	return State{
		Answers:  map[string]string{},
		Asked:    map[string]int{},
		Complete: map[string]bool{},
	}
}

func (s State) clone() State {
	out := newState()
	for k, v := range s.Answers {
		out.Answers[k] = v
	}
	for k, v := range s.Asked {
		out.Asked[k] = v
	}
	for k, v := range s.Complete {
		out.Complete[k] = v
	}
	out.TurnsUsed = s.TurnsUsed
	out.Pending = s.Pending
	out.PendingQuestion = s.PendingQuestion
	return out
}
