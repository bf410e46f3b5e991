package app

import (
	"errors"
	"regexp"
	"testing"
	"time"

	"docquiz-service/internal/domain"
)

func TestStorageKeyShapes(t *testing.T) {
	ts := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	cases := []struct {
		name     string
		fileName string
		retry    bool
		want     string
	}{
		{"multi dot keeps last extension", "a.b.pdf", false, `^\d+_a_b\.pdf$`},
		{"extension lowercased", "Report.PDF", false, `^\d+_Report\.pdf$`},
		{"spaces and symbols collapse", "my file (v2).txt", false, `^\d+_my_file_v2\.txt$`},
		{"retry marker before extension", "notes.txt", true, `^\d+_notes_retry\.txt$`},
		{"no extension", "Makefile", false, `^\d+_Makefile$`},
		{"all symbols fall back", "???.txt", false, `^\d+_file\.txt$`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := storageKey(tc.fileName, ts, tc.retry)
			if !regexp.MustCompile(tc.want).MatchString(got) {
				t.Fatalf("storageKey(%q) = %q, want match %s", tc.fileName, got, tc.want)
			}
		})
	}
}

func TestQuizTitleFallbacks(t *testing.T) {
	if got := quizTitle("Custom", domain.Document{Title: "Bio"}); got != "Custom" {
		t.Fatalf("requested title should win, got %q", got)
	}
	if got := quizTitle("  ", domain.Document{Title: "Bio"}); got != "Quiz: Bio" {
		t.Fatalf("document title fallback broken, got %q", got)
	}
	if got := quizTitle("", domain.Document{}); got != "Generated Quiz" {
		t.Fatalf("final fallback broken, got %q", got)
	}
}

func TestFailureReasonStaysPresentable(t *testing.T) {
	verr := domain.Validationf("bad prompt")
	if got := failureReason(verr); got != "generation rejected: bad prompt" {
		t.Fatalf("validation reason mismatch: %q", got)
	}
	if got := failureReason(&domain.TransportError{Op: "generate", Status: 503}); got != "the question service is unavailable right now" {
		t.Fatalf("transport reason mismatch: %q", got)
	}
	if got := failureReason(errors.New("weird")); got != "question generation failed" {
		t.Fatalf("generic reason mismatch: %q", got)
	}
}
