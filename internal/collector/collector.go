// Package collector implements the slot-filling engine that decides, turn by
// turn, which piece of required context is still missing, which question to
// ask next, and when a dialogue has gathered enough to hand off.
package collector

import (
	"context"
	"fmt"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/ziadkadry99/casebrief/internal/logger"
)

// Collector owns the state of a single dialogue. It is not safe for
// concurrent use; callers serialise Submit calls per session.
type Collector struct {
	slots  []Slot
	index  map[string]int
	policy Policy
	oracle Oracle
	log    *logger.Logger
	tracer trace.Tracer
	state  State
}

// New creates a Collector with an empty session state. oracle may be nil, in
// which case only the local policy and canned questions are used.
func New(slots []Slot, policy Policy, oracle Oracle, log *logger.Logger) (*Collector, error) {
	if len(slots) == 0 {
		return nil, fmt.Errorf("at least one slot is required")
	}

	index := make(map[string]int, len(slots))
	for i, s := range slots {
		if s.Name == "" {
			return nil, fmt.Errorf("slot %d has no name", i)
		}
		if _, dup := index[s.Name]; dup {
			return nil, fmt.Errorf("duplicate slot %q", s.Name)
		}
		if s.MinLength < 0 {
			return nil, fmt.Errorf("slot %q has negative min_length", s.Name)
		}
		index[s.Name] = i
	}

	if policy.DefaultSlot == "" {
		policy.DefaultSlot = slots[0].Name
	}
	if _, ok := index[policy.DefaultSlot]; !ok {
		return nil, fmt.Errorf("default slot %q is not configured", policy.DefaultSlot)
	}
	if policy.MaxQuestions < 0 {
		return nil, fmt.Errorf("max_questions must be non-negative")
	}
	if policy.ReaskLimit < 1 {
		policy.ReaskLimit = 1
	}
	if policy.OracleTimeout <= 0 {
		policy.OracleTimeout = DefaultPolicy().OracleTimeout
	}
	if log == nil {
		log = logger.Nop()
	}

	return &Collector{
		slots:  append([]Slot(nil), slots...),
		index:  index,
		policy: policy,
		oracle: oracle,
		log:    log.With("component", "collector"),
		tracer: otel.Tracer("github.com/ziadkadry99/casebrief/internal/collector"),
		state:  newState(),
	}, nil
}

// Submit records the user's latest text and decides the next step.
//
// target names the slot the text answers. When empty, the first input of a
// dialogue fills the default slot and later untargeted input is only
// re-evaluated. An unknown target is a caller error.
func (c *Collector) Submit(ctx context.Context, text, target string) (*Result, error) {
	if target != "" {
		if _, ok := c.index[target]; !ok {
			return nil, fmt.Errorf("%w: %q", ErrUnknownSlot, target)
		}
	}

	ctx, span := c.tracer.Start(ctx, "collector.Submit",
		trace.WithAttributes(attribute.String("casebrief.slot.target", target)))
	defer span.End()

	changed := c.record(strings.TrimSpace(text), target)

	var res *Result
	if !changed && c.pendingOpen() {
		// Nothing moved; hand back the outstanding question without
		// spending another turn.
		res = c.incomplete(c.state.Pending, c.state.PendingQuestion)
	} else {
		res = c.evaluate(ctx)
	}

	span.SetAttributes(
		attribute.String("casebrief.result.status", string(res.Status)),
		attribute.String("casebrief.result.slot", res.Slot),
		attribute.Int("casebrief.turns_used", c.state.TurnsUsed),
	)
	return res, nil
}

// record applies text to the session state and reports whether anything changed.
//
// A slot closes once its text meets the threshold, or once the caller answers
// a question issued for it after the slot has used up its asks. Until then
// further input keeps appending.
func (c *Collector) record(text, target string) bool {
	if text == "" {
		c.log.Debug("empty input, re-evaluating")
		return false
	}

	opening := false
	if target == "" {
		if c.state.TurnsUsed > 0 || c.state.Answers[c.policy.DefaultSlot] != "" {
			c.log.Debug("untargeted input ignored after the opening turn")
			return false
		}
		target = c.policy.DefaultSlot
		opening = true
	}

	if c.state.Complete[target] {
		c.log.Debug("input for completed slot ignored", "slot", target)
		return false
	}

	if prev := c.state.Answers[target]; prev != "" {
		c.state.Answers[target] = prev + " " + text
	} else {
		c.state.Answers[target] = text
	}
	// The opening description counts as the default slot's first ask.
	if opening {
		c.state.Asked[target]++
	}

	slot := c.slots[c.index[target]]
	switch {
	case c.sufficient(slot):
		c.state.Complete[target] = true
		c.log.Debug("slot satisfied", "slot", target)
	case target == c.state.Pending && c.state.Asked[target] >= c.policy.ReaskLimit:
		c.state.Complete[target] = true
		c.log.Info("slot closed after ask limit", "slot", target, "asked", c.state.Asked[target])
	}

	if c.state.Pending == target || c.state.Complete[c.state.Pending] {
		c.state.Pending, c.state.PendingQuestion = "", ""
	}
	return true
}

// evaluate runs the completion decision and either issues a question or
// closes the dialogue. Each oracle DONE closes one slot, so the loop runs at
// most once per slot plus one.
func (c *Collector) evaluate(ctx context.Context) *Result {
	for i := 0; i <= len(c.slots); i++ {
		missing := c.localMissing()
		if len(missing) == 0 {
			return c.complete(ReasonSatisfied)
		}
		if c.state.TurnsUsed >= c.policy.MaxQuestions {
			c.log.Info("question budget exhausted", "turns_used", c.state.TurnsUsed, "open_slots", len(missing))
			return c.complete(ReasonBudgetExhausted)
		}

		candidates := c.askable(missing)
		if len(candidates) == 0 {
			c.log.Info("open slots have used up their asks", "open_slots", len(missing))
			return c.complete(ReasonExhaustedCandidates)
		}
		slot := c.refine(ctx, candidates)[0]

		question, done := c.phrase(ctx, slot)
		if done {
			c.state.Complete[slot.Name] = true
			c.log.Debug("oracle closed slot", "slot", slot.Name)
			continue
		}

		c.state.TurnsUsed++
		c.state.Asked[slot.Name]++
		c.state.Pending = slot.Name
		c.state.PendingQuestion = question
		c.log.Debug("question issued", "slot", slot.Name, "turns_used", c.state.TurnsUsed)
		return c.incomplete(slot.Name, question)
	}
	return c.complete(ReasonSatisfied)
}

func (c *Collector) pendingOpen() bool {
	return c.state.Pending != "" && c.state.PendingQuestion != "" && !c.state.Complete[c.state.Pending]
}

func (c *Collector) complete(reason Reason) *Result {
	c.state.Pending, c.state.PendingQuestion = "", ""
	return &Result{Status: StatusComplete, Reason: reason, Context: c.Context()}
}

func (c *Collector) incomplete(slot, question string) *Result {
	return &Result{Status: StatusIncomplete, Slot: slot, Question: question, Context: c.Context()}
}

// Context returns a copy of the collected answers with every configured slot
// key present. It has no side effects.
func (c *Collector) Context() map[string]string {
	out := make(map[string]string, len(c.slots))
	for _, s := range c.slots {
		out[s.Name] = c.state.Answers[s.Name]
	}
	return out
}

// answers returns a copy of only the slots that have text.
func (c *Collector) answers() map[string]string {
	out := make(map[string]string, len(c.state.Answers))
	for k, v := range c.state.Answers {
		out[k] = v
	}
	return out
}

// Snapshot returns a deep copy of the session state.
func (c *Collector) Snapshot() State {
	return c.state.clone()
}

// Restore replaces the session state with s. Unknown slot names are rejected.
func (c *Collector) Restore(s State) error {
	restored := newState()
	for name, v := range s.Answers {
		if _, ok := c.index[name]; !ok {
			return fmt.Errorf("%w in answers: %q", ErrUnknownSlot, name)
		}
		restored.Answers[name] = v
	}
	for name, v := range s.Asked {
		if _, ok := c.index[name]; !ok {
			return fmt.Errorf("%w in asked: %q", ErrUnknownSlot, name)
		}
		restored.Asked[name] = v
	}
	for name, v := range s.Complete {
		if _, ok := c.index[name]; !ok {
			return fmt.Errorf("%w in complete: %q", ErrUnknownSlot, name)
		}
		if v {
			restored.Complete[name] = true
		}
	}
	if s.TurnsUsed < 0 {
		return fmt.Errorf("turns_used must be non-negative")
	}
	restored.TurnsUsed = s.TurnsUsed
	if s.Pending != "" {
		if _, ok := c.index[s.Pending]; !ok {
			return fmt.Errorf("%w in pending: %q", ErrUnknownSlot, s.Pending)
		}
		restored.Pending = s.Pending
		restored.PendingQuestion = s.PendingQuestion
	}
	c.state = restored
	return nil
}

// Slots returns the configured slots in declaration order.
func (c *Collector) Slots() []Slot {
	return append([]Slot(nil), c.slots...)
}

// Policy returns the effective policy after defaults were applied.
func (c *Collector) Policy() Policy {
	return c.policy
}
