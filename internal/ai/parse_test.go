package ai_test

import (
	"testing"

	"docquiz-service/internal/ai"
)

func TestParseCandidatesArray(t *testing.T) {
	raw := `[
		{
			"text": "What keeps the Moon in orbit?",
			"options": [
				{"id": "A", "text": "Magnetism"},
				{"id": "B", "text": "Gravity"},
				{"id": "C", "text": "Solar wind"},
				{"id": "D", "text": "Friction"}
			],
			"correct_option_id": "B",
			"explanation": "Gravity provides the centripetal force."
		}
	]`

	candidates, rejected, err := ai.ParseCandidates(raw)
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	if rejected != 0 {
		t.Fatalf("expected no rejects, got %d", rejected)
	}
	if len(candidates) != 1 {
		t.Fatalf("expected 1 candidate, got %d", len(candidates))
	}
	if candidates[0].CorrectOptionID != "B" {
		t.Fatalf("expected correct option B, got %q", candidates[0].CorrectOptionID)
	}
}

func TestParseCandidatesStripsFences(t *testing.T) {
	raw := "```json\n[{\"text\":\"Q?\",\"options\":[{\"id\":\"a\",\"text\":\"x\"},{\"id\":\"b\",\"text\":\"y\"}],\"correct_option_id\":\"a\"}]\n```"

	candidates, _, err := ai.ParseCandidates(raw)
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	if len(candidates) != 1 {
		t.Fatalf("expected 1 candidate, got %d", len(candidates))
	}
	if candidates[0].CorrectOptionID != "A" {
		t.Fatalf("expected uppercased id A, got %q", candidates[0].CorrectOptionID)
	}
}

func TestParseCandidatesQuestionsWrapper(t *testing.T) {
	raw := `{"questions":[{"text":"Q?","options":[{"id":"A","text":"x"},{"id":"B","text":"y"}],"correct_option_id":"B"}]}`

	candidates, _, err := ai.ParseCandidates(raw)
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	if len(candidates) != 1 {
		t.Fatalf("expected 1 candidate, got %d", len(candidates))
	}
}

func TestParseCandidatesCoercesIndexForm(t *testing.T) {
	raw := `[{"text":"Q?","options":["first","second","third"],"correct_answer":2}]`

	candidates, _, err := ai.ParseCandidates(raw)
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	if len(candidates) != 1 {
		t.Fatalf("expected 1 candidate, got %d", len(candidates))
	}
	c := candidates[0]
	if c.Options[2].ID != "C" || c.CorrectOptionID != "C" {
		t.Fatalf("expected assigned label C to be correct, got %+v", c)
	}
}

func TestParseCandidatesCoercesCorrectFlags(t *testing.T) {
	raw := `[{"question":"Q?","options":[
		{"text":"x","is_correct":false},
		{"text":"y","is_correct":true}
	]}]`

	candidates, _, err := ai.ParseCandidates(raw)
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	if len(candidates) != 1 {
		t.Fatalf("expected 1 candidate, got %d", len(candidates))
	}
	if candidates[0].CorrectOptionID != "B" {
		t.Fatalf("expected flagged option B, got %q", candidates[0].CorrectOptionID)
	}
}

func TestParseCandidatesDropsMalformed(t *testing.T) {
	raw := `[
		{"text":"","options":[{"id":"A","text":"x"},{"id":"B","text":"y"}],"correct_option_id":"A"},
		{"text":"only one option","options":[{"id":"A","text":"x"}],"correct_option_id":"A"},
		{"text":"no correct id","options":[{"id":"A","text":"x"},{"id":"B","text":"y"}]},
		{"text":"two flagged","options":[{"text":"x","is_correct":true},{"text":"y","is_correct":true}]},
		{"text":"good","options":[{"id":"A","text":"x"},{"id":"B","text":"y"}],"correct_option_id":"B"}
	]`

	candidates, rejected, err := ai.ParseCandidates(raw)
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	if rejected != 4 {
		t.Fatalf("expected 4 rejects, got %d", rejected)
	}
	if len(candidates) != 1 || candidates[0].Text != "good" {
		t.Fatalf("expected only the good candidate, got %+v", candidates)
	}
}

func TestParseCandidatesRejectsGarbage(t *testing.T) {
	if _, _, err := ai.ParseCandidates("the model had a bad day"); err == nil {
		t.Fatal("expected error for non-JSON payload")
	}
	if _, _, err := ai.ParseCandidates(""); err == nil {
		t.Fatal("expected error for empty payload")
	}
}
