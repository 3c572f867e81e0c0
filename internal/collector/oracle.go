package collector

import "context"

// Oracle is an advisory judge of whether slot answers carry enough detail.
// Implementations may fail or time out; the Collector treats any error as
// "no usable signal" and falls back to its local policy.
type Oracle interface {
	// RankMissing reports which of the candidate slots still lack detail,
	// or Done when it considers nothing missing.
	RankMissing(ctx context.Context, answers map[string]string, candidates []string) (Ranking, error)
	// PhraseQuestion writes a follow-up question for slot that acknowledges
	// the text collected so far, or reports Done when nothing more is needed.
	PhraseQuestion(ctx context.Context, slot, current string) (Phrasing, error)
}

// Ranking is the oracle's view of which slots are still missing.
type Ranking struct {
	Missing []string
	Done    bool
}

// Phrasing is the oracle's follow-up question for one slot.
type Phrasing struct {
	Question string
	Done     bool
}
