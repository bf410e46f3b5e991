// Package ai turns document text into quiz question candidates using a
// hosted model. Adapters exist for OpenAI chat completions and Gemini.
// Model output is never trusted as-is: everything passes through
// ParseCandidates before reaching the rest of the pipeline.
package ai

import (
	"errors"
	"strings"
)

// GenerateOptions tunes a single generation call.
type GenerateOptions struct {
	Count      int
	Difficulty string
}

// CandidateOption is one answer choice in a parsed candidate.
type CandidateOption struct {
	ID   string `json:"id"`
	Text string `json:"text"`
}

// Candidate is the validated question shape extracted from a model
// completion. Options carry stable letter ids and CorrectOptionID names
// exactly one of them.
type Candidate struct {
	Text            string            `json:"text"`
	Options         []CandidateOption `json:"options"`
	CorrectOptionID string            `json:"correct_option_id"`
	Explanation     string            `json:"explanation"`
}

func (c Candidate) validate() error {
	if strings.TrimSpace(c.Text) == "" {
		return errors.New("missing question text")
	}
	if len(c.Options) < 2 {
		return errors.New("fewer than two options")
	}
	matches := 0
	for _, o := range c.Options {
		if strings.TrimSpace(o.Text) == "" {
			return errors.New("empty option text")
		}
		if o.ID == c.CorrectOptionID {
			matches++
		}
	}
	if c.CorrectOptionID == "" || matches != 1 {
		return errors.New("no unambiguous correct option")
	}
	return nil
}
