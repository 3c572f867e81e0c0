package oracle

import (
	"encoding/json"
	"fmt"
	"strings"
)

const rankPromptTemplate = `You are a business assistant checking whether a client's description of their situation is detailed enough to brief a panel of advisors.

The essential fields are: %s.

Here is what the client has said so far, by field:
%s

Of these fields, which still need more detail to be useful: %s?
Reply with the field names only, separated by commas.
If every field listed is already detailed enough, reply with exactly DONE.`

const phrasePromptTemplate = `You are a business doctor helping a small business owner understand their problem.
The essential information needed covers: %s.

For the field "%s" the client has said:
%s

Ask one specific, clear follow-up question that gathers more information for "%s".
Acknowledge what they already said if anything. Reply with the question only.
If no further information is needed for this field, reply with exactly DONE.`

func buildRankPrompt(fields []string, answers map[string]string, candidates []string) string {
	body, err := json.MarshalIndent(answers, "", "  ")
	if err != nil {
		body = []byte("{}")
	}
	return fmt.Sprintf(rankPromptTemplate,
		strings.Join(fields, ", "), string(body), strings.Join(candidates, ", "))
}

func buildPhrasePrompt(fields []string, slot, current string) string {
	if strings.TrimSpace(current) == "" {
		current = "(nothing yet)"
	}
	return fmt.Sprintf(phrasePromptTemplate, strings.Join(fields, ", "), slot, current, slot)
}

// isDone reports whether a model reply is the DONE sentinel, tolerating case,
// surrounding quotes, and trailing punctuation.
func isDone(reply string) bool {
	s := strings.TrimSpace(reply)
	s = strings.Trim(s, "\"'`.! ")
	return strings.EqualFold(s, "DONE")
}

// parseFieldList splits a comma or newline separated reply into lower-cased
// field names, keeping only those in allowed and dropping duplicates.
func parseFieldList(reply string, allowed []string) []string {
	ok := make(map[string]bool, len(allowed))
	for _, a := range allowed {
		ok[strings.ToLower(a)] = true
	}

	seen := map[string]bool{}
	var out []string
	for _, part := range strings.FieldsFunc(reply, func(r rune) bool {
		return r == ',' || r == '\n' || r == ';'
	}) {
		name := strings.ToLower(strings.TrimSpace(part))
		name = strings.TrimLeft(name, "-*• ")
		name = strings.Trim(name, "\"'`. ")
		if !ok[name] || seen[name] {
			continue
		}
		seen[name] = true
		out = append(out, name)
	}
	return out
}

// cleanQuestion strips wrapping quotes and a leading label a model sometimes adds.
func cleanQuestion(reply string) string {
	q := strings.TrimSpace(reply)
	if i := strings.Index(q, ":"); i > 0 && i < 12 && strings.EqualFold(strings.TrimSpace(q[:i]), "question") {
		q = strings.TrimSpace(q[i+1:])
	}
	return strings.Trim(q, "\"")
}
