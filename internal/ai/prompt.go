package ai

import (
	"fmt"
	"strings"
)

const (
	defaultQuestionCount = 5
	maxQuestionCount     = 20

	// maxSourceChars bounds how much document text goes into the prompt.
	maxSourceChars = 16000
)

const systemPrompt = `You are a quiz generator for a study application. You create multiple-choice questions from document excerpts supplied by the user.

Requirements:
1. Base every question strictly on the supplied document text. Do not invent facts that are not in the document.
2. Each question has exactly 4 options labeled "A" through "D", with exactly one correct option.
3. Distractors must be plausible: similar length and structure to the correct option, built from common misconceptions or partial understandings. Never include joke options.
4. Provide a brief explanation of why the correct option is correct, without restating "this is correct".
5. Cover distinct topics from the document; do not ask the same fact twice.

Respond with pure valid JSON and no text outside the JSON, using this structure:

[
  {
    "text": "Question text here?",
    "options": [
      {"id": "A", "text": "First option"},
      {"id": "B", "text": "Second option"},
      {"id": "C", "text": "Third option"},
      {"id": "D", "text": "Fourth option"}
    ],
    "correct_option_id": "B",
    "explanation": "Why the correct option is correct."
  }
]`

// BuildPrompt assembles the user prompt for one generation call. The count
// is clamped and the source text truncated to keep the request inside the
// model's context budget.
func BuildPrompt(sourceText string, opts GenerateOptions) string {
	count := opts.Count
	if count <= 0 {
		count = defaultQuestionCount
	}
	if count > maxQuestionCount {
		count = maxQuestionCount
	}

	difficulty := strings.TrimSpace(opts.Difficulty)
	if difficulty == "" {
		difficulty = "medium"
	}

	source := strings.TrimSpace(sourceText)
	if len(source) > maxSourceChars {
		source = source[:maxSourceChars]
	}

	return fmt.Sprintf(
		"Generate %d multiple-choice questions at %q difficulty from the document below. "+
			"Follow the JSON format from the system instructions exactly.\n\nDocument:\n%s",
		count, difficulty, source,
	)
}
