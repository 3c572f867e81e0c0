// Package experts picks the advisory roles best suited to a completed intake.
package experts

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/ziadkadry99/casebrief/internal/llm"
	"github.com/ziadkadry99/casebrief/internal/logger"
)

// Catalogue is the fixed set of roles a panel is drawn from.
var Catalogue = []string{
	"Business Strategy Expert",
	"Financial Expert",
	"Legal Consultant",
	"Technical Expert",
	"Marketing Specialist",
	"Project Manager",
	"Operations Consultant",
	"Leadership Coach",
	"Industry-Specific Advisor",
}

// DefaultPanel is used whenever the model cannot be consulted.
var DefaultPanel = []string{"Business Strategy Expert", "Financial Expert", "Technical Expert"}

const (
	minPanel = 3
	maxPanel = 5
)

const selectPromptTemplate = `Based on the following business context:
%s

Please select between %d and %d experts from the following categories that would be most helpful:
%s

Return only a list of expert roles, one per line.`

// Selection is the outcome of choosing a panel.
type Selection struct {
	Experts []string `json:"experts"`
	// Fallback is true when the default panel was used because the model failed.
	Fallback bool `json:"fallback"`
}

// Selector chooses experts with an LLM.
type Selector struct {
	provider llm.Provider
	model    string
	log      *logger.Logger
}

// NewSelector creates a Selector. provider may be nil, in which case every
// selection returns the default panel.
func NewSelector(provider llm.Provider, model string, log *logger.Logger) *Selector {
	if log == nil {
		log = logger.Nop()
	}
	return &Selector{provider: provider, model: model, log: log.With("component", "experts")}
}

// Select picks 3 to 5 experts for the collected context. It never fails:
// model errors yield the default panel.
func (s *Selector) Select(ctx context.Context, collected map[string]string) Selection {
	if s.provider == nil {
		return Selection{Experts: append([]string(nil), DefaultPanel...), Fallback: true}
	}

	body, err := json.MarshalIndent(collected, "", "  ")
	if err != nil {
		body = []byte("{}")
	}
	prompt := fmt.Sprintf(selectPromptTemplate, string(body), minPanel, maxPanel, strings.Join(Catalogue, ", "))

	resp, err := s.provider.Complete(ctx, llm.CompletionRequest{
		Model:       s.model,
		Messages:    []llm.Message{{Role: llm.RoleSystem, Content: prompt}},
		MaxTokens:   200,
		Temperature: 0.2,
	})
	if err != nil {
		s.log.Error("expert selection failed, using default panel", "error", err)
		return Selection{Experts: append([]string(nil), DefaultPanel...), Fallback: true}
	}

	picked := normalise(parseRoles(resp.Content))
	s.log.Info("experts selected", "experts", picked)
	return Selection{Experts: picked}
}

// parseRoles keeps the catalogue roles named one per line, in reply order.
func parseRoles(reply string) []string {
	known := make(map[string]string, len(Catalogue))
	for _, c := range Catalogue {
		known[strings.ToLower(c)] = c
	}

	seen := map[string]bool{}
	var out []string
	for _, line := range strings.Split(reply, "\n") {
		line = strings.TrimSpace(line)
		line = strings.TrimLeft(line, "-*•0123456789.) ")
		role, ok := known[strings.ToLower(strings.TrimSpace(line))]
		if !ok || seen[role] {
			continue
		}
		seen[role] = true
		out = append(out, role)
	}
	return out
}

// normalise caps the panel at maxPanel and tops it up from the catalogue to minPanel.
func normalise(picked []string) []string {
	if len(picked) > maxPanel {
		picked = picked[:maxPanel]
	}
	have := make(map[string]bool, len(picked))
	for _, p := range picked {
		have[p] = true
	}
	for _, c := range Catalogue {
		if len(picked) >= minPanel {
			break
		}
		if !have[c] {
			picked = append(picked, c)
		}
	}
	return picked
}
