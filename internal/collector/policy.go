package collector

import (
	"context"
	"strings"
	"unicode/utf8"
)

// sufficient reports whether the slot's accumulated text meets its threshold.
func (c *Collector) sufficient(slot Slot) bool {
	text := strings.TrimSpace(c.state.Answers[slot.Name])
	if text == "" {
		return false
	}
	return utf8.RuneCountInString(text) >= slot.MinLength
}

// localMissing returns the open slots that fail the local threshold check,
// in declaration order. Completed slots are never reconsidered.
func (c *Collector) localMissing() []Slot {
	var missing []Slot
	for _, slot := range c.slots {
		if c.state.Complete[slot.Name] {
			continue
		}
		if !c.sufficient(slot) {
			missing = append(missing, slot)
		}
	}
	return missing
}

// refine asks the oracle which candidate slots still lack detail.
// The result is the intersection with the local set; when the oracle fails,
// answers DONE, or names nothing usable, every candidate is kept.
func (c *Collector) refine(ctx context.Context, missing []Slot) []Slot {
	if c.oracle == nil {
		return missing
	}

	names := make([]string, len(missing))
	for i, s := range missing {
		names[i] = s.Name
	}

	callCtx, cancel := context.WithTimeout(ctx, c.policy.OracleTimeout)
	defer cancel()

	ranking, err := c.oracle.RankMissing(callCtx, c.answers(), names)
	if err != nil {
		c.log.Warn("oracle ranking failed, using local check", "error", err, "candidates", names)
		return missing
	}
	if ranking.Done {
		c.log.Debug("oracle reported nothing missing, keeping local floor", "candidates", names)
		return missing
	}

	flagged := make(map[string]bool, len(ranking.Missing))
	for _, name := range ranking.Missing {
		flagged[strings.ToLower(strings.TrimSpace(name))] = true
	}

	var refined []Slot
	for _, s := range missing {
		if flagged[s.Name] {
			refined = append(refined, s)
		}
	}
	if len(refined) == 0 {
		c.log.Debug("oracle ranking named no candidate, using local check", "oracle", ranking.Missing)
		return missing
	}
	return refined
}

// askable filters slots to those that may still be asked about, keeping
// declaration order.
func (c *Collector) askable(slots []Slot) []Slot {
	var out []Slot
	for _, s := range slots {
		if c.state.Complete[s.Name] || c.state.Asked[s.Name] >= c.policy.ReaskLimit {
			continue
		}
		out = append(out, s)
	}
	return out
}

// phrase produces the question for slot. It returns done=true when the oracle
// says the slot needs nothing more.
func (c *Collector) phrase(ctx context.Context, slot Slot) (question string, done bool) {
	if c.oracle == nil {
		return slot.cannedQuestion(), false
	}

	callCtx, cancel := context.WithTimeout(ctx, c.policy.OracleTimeout)
	defer cancel()

	p, err := c.oracle.PhraseQuestion(callCtx, slot.Name, c.state.Answers[slot.Name])
	if err != nil {
		c.log.Warn("oracle phrasing failed, using canned question", "slot", slot.Name, "error", err)
		return slot.cannedQuestion(), false
	}
	if p.Done {
		return "", true
	}
	q := strings.TrimSpace(p.Question)
	if q == "" {
		c.log.Warn("oracle returned an empty question, using canned question", "slot", slot.Name)
		return slot.cannedQuestion(), false
	}
	return q, false
}
