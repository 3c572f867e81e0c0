package collector

import "fmt"

// Slot is one required field of structured context.
type Slot struct {
	Name string `json:"name" yaml:"name" koanf:"name"`
	// Prompt is the canned question used when no oracle phrasing is available.
	Prompt string `json:"prompt" yaml:"prompt" koanf:"prompt"`
	// MinLength is the minimum number of characters the accumulated answer
	// needs before the slot counts as detailed enough.
	MinLength int `json:"min_length" yaml:"min_length" koanf:"min_length"`
}

// DefaultSlots returns the business-intake slot table in declaration order.
// A persona needs less text than a full problem description.
func DefaultSlots() []Slot {
	return []Slot{
		{Name: "problem", MinLength: 15, Prompt: "What business problem are you trying to solve, and how does it show up day to day?"},
		{Name: "persona", MinLength: 10, Prompt: "Who are you in this situation (role, type of business, stage)?"},
		{Name: "objective", MinLength: 15, Prompt: "What outcome would make this a success for you?"},
		{Name: "scenario", MinLength: 15, Prompt: "What is happening right now that makes this decision pressing?"},
		{Name: "geography", MinLength: 15, Prompt: "Where do you operate, and which markets or regions matter for this decision?"},
		{Name: "constraints", MinLength: 15, Prompt: "What constraints do you have (budget, time, people, regulation)?"},
	}
}

// cannedQuestion returns the slot's fallback question.
func (s Slot) cannedQuestion() string {
	if s.Prompt != "" {
		return s.Prompt
	}
	return fmt.Sprintf("Could you please provide more details about your %s?", s.Name)
}
