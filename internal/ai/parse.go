package ai

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// rawOption tolerates both object options and the bare-string form some
// models emit despite the prompt.
type rawOption struct {
	ID        string `json:"id"`
	Text      string `json:"text"`
	IsCorrect bool   `json:"is_correct"`
}

func (o *rawOption) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		o.ID, o.Text, o.IsCorrect = "", s, false
		return nil
	}
	type plain rawOption
	var p plain
	if err := json.Unmarshal(data, &p); err != nil {
		return err
	}
	*o = rawOption(p)
	return nil
}

type rawCandidate struct {
	Text            string      `json:"text"`
	Question        string      `json:"question"`
	Options         []rawOption `json:"options"`
	CorrectOptionID string      `json:"correct_option_id"`
	CorrectAnswer   *int        `json:"correct_answer"`
	Explanation     string      `json:"explanation"`
}

// ParseCandidates decodes a raw completion into validated candidates.
// Malformed entries are dropped, not propagated; the second return value
// counts them so callers can log. The error is non-nil only when the
// payload as a whole is not question JSON.
func ParseCandidates(raw string) ([]Candidate, int, error) {
	clean := stripFences(raw)
	if clean == "" {
		return nil, 0, errors.New("empty completion")
	}

	var rows []rawCandidate
	if err := json.Unmarshal([]byte(clean), &rows); err != nil {
		var wrapper struct {
			Questions []rawCandidate `json:"questions"`
		}
		if err2 := json.Unmarshal([]byte(clean), &wrapper); err2 != nil {
			return nil, 0, fmt.Errorf("completion is not question JSON: %w", err)
		}
		rows = wrapper.Questions
	}

	out := make([]Candidate, 0, len(rows))
	rejected := 0
	for _, r := range rows {
		c, err := r.coerce()
		if err != nil {
			rejected++
			continue
		}
		out = append(out, c)
	}
	return out, rejected, nil
}

// stripFences removes a markdown code fence wrapper, with or without a
// language tag. Models add them even when told not to.
func stripFences(raw string) string {
	clean := strings.TrimSpace(raw)
	clean = strings.TrimPrefix(clean, "```json")
	clean = strings.TrimSuffix(clean, "```")
	return strings.TrimSpace(strings.Trim(clean, "`"))
}

// coerce normalizes one decoded row into a Candidate. The correct option is
// resolved from correct_option_id, a 0-based correct_answer index, or a
// single is_correct flag, in that order.
func (r rawCandidate) coerce() (Candidate, error) {
	text := strings.TrimSpace(r.Text)
	if text == "" {
		text = strings.TrimSpace(r.Question)
	}

	opts := make([]CandidateOption, len(r.Options))
	for i, ro := range r.Options {
		id := strings.ToUpper(strings.TrimSpace(ro.ID))
		if id == "" && i < 26 {
			id = string(rune('A' + i))
		}
		opts[i] = CandidateOption{ID: id, Text: strings.TrimSpace(ro.Text)}
	}

	correct := strings.ToUpper(strings.TrimSpace(r.CorrectOptionID))
	if correct == "" && r.CorrectAnswer != nil {
		if idx := *r.CorrectAnswer; idx >= 0 && idx < len(opts) {
			correct = opts[idx].ID
		}
	}
	if correct == "" {
		flagged := -1
		for i, ro := range r.Options {
			if !ro.IsCorrect {
				continue
			}
			if flagged >= 0 {
				flagged = -1
				break
			}
			flagged = i
		}
		if flagged >= 0 {
			correct = opts[flagged].ID
		}
	}

	c := Candidate{
		Text:            text,
		Options:         opts,
		CorrectOptionID: correct,
		Explanation:     strings.TrimSpace(r.Explanation),
	}
	if err := c.validate(); err != nil {
		return Candidate{}, err
	}
	return c, nil
}
