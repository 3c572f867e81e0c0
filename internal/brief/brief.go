// Package brief exports the outcome of a completed intake as a portable file.
package brief

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/ziadkadry99/casebrief/internal/collector"
)

// Brief is the hand-off document for an advisory panel.
type Brief struct {
	SessionID   string            `json:"session_id"`
	Context     map[string]string `json:"context"`
	Slots       []string          `json:"slots"`
	Reason      collector.Reason  `json:"reason,omitempty"`
	Experts     []string          `json:"experts,omitempty"`
	CompletedAt time.Time         `json:"completed_at"`
}

// New builds a Brief, recording slot order so Text lists answers in the
// order they were configured.
func New(sessionID string, slots []collector.Slot, collected map[string]string, reason collector.Reason, experts []string) *Brief {
	names := make([]string, len(slots))
	ctx := make(map[string]string, len(slots))
	for i, s := range slots {
		names[i] = s.Name
		ctx[s.Name] = collected[s.Name]
	}
	return &Brief{
		SessionID:   sessionID,
		Context:     ctx,
		Slots:       names,
		Reason:      reason,
		Experts:     append([]string(nil), experts...),
		CompletedAt: time.Now().UTC(),
	}
}

// Load reads a Brief from a JSON file. Returns nil and no error if the file
// does not exist.
func Load(path string) (*Brief, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading brief: %w", err)
	}

	var b Brief
	if err := json.Unmarshal(data, &b); err != nil {
		return nil, fmt.Errorf("parsing brief: %w", err)
	}
	return &b, nil
}

// Save writes the Brief to a JSON file, creating parent directories as needed.
func (b *Brief) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating brief directory: %w", err)
	}

	data, err := json.MarshalIndent(b, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling brief: %w", err)
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing brief: %w", err)
	}
	return nil
}

// Missing returns the slots that were left empty.
func (b *Brief) Missing() []string {
	var out []string
	for _, name := range b.Slots {
		if strings.TrimSpace(b.Context[name]) == "" {
			out = append(out, name)
		}
	}
	return out
}

// Text formats the brief for a terminal or an LLM prompt.
func (b *Brief) Text() string {
	var sb strings.Builder
	for _, name := range b.Slots {
		v := b.Context[name]
		if v == "" {
			v = "(not provided)"
		}
		fmt.Fprintf(&sb, "%s: %s\n", titleCase(name), v)
	}
	if len(b.Experts) > 0 {
		fmt.Fprintf(&sb, "Experts: %s\n", strings.Join(b.Experts, ", "))
	}
	return sb.String()
}

func titleCase(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
