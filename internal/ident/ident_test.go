package ident_test

import (
	"testing"

	"docquiz-service/internal/ident"
)

func TestNormalize(t *testing.T) {
	cases := []struct {
		name string
		in   string
		want string
	}{
		{"canonical", "9b2f1c44-8a31-4f09-b2fe-6f2a91c04d11", "9b2f1c44-8a31-4f09-b2fe-6f2a91c04d11"},
		{"whitespace", "  9b2f1c44-8a31-4f09-b2fe-6f2a91c04d11\n", "9b2f1c44-8a31-4f09-b2fe-6f2a91c04d11"},
		{"uppercase", "9B2F1C44-8A31-4F09-B2FE-6F2A91C04D11", "9b2f1c44-8a31-4f09-b2fe-6f2a91c04d11"},
		{"quiz suffix", "9b2f1c44-8a31-4f09-b2fe-6f2a91c04d11-quiz", "9b2f1c44-8a31-4f09-b2fe-6f2a91c04d11"},
		{"document suffix", "9b2f1c44-8a31-4f09-b2fe-6f2a91c04d11-document", "9b2f1c44-8a31-4f09-b2fe-6f2a91c04d11"},
		{"stacked suffixes", "9b2f1c44-8a31-4f09-b2fe-6f2a91c04d11-quiz-results", "9b2f1c44-8a31-4f09-b2fe-6f2a91c04d11"},
		{"overlong final group", "9b2f1c44-8a31-4f09-b2fe-6f2a91c04d119b2f1c44", "9b2f1c44-8a31-4f09-b2fe-6f2a91c04d11"},
		{"embedded", "copy-of-9b2f1c44-8a31-4f09-b2fe-6f2a91c04d11", "9b2f1c44-8a31-4f09-b2fe-6f2a91c04d11"},
		{"reconstructed fifth segment", "9b2f1c44-8a31-4f09-b2fe-6f2a91c04dzz11", "9b2f1c44-8a31-4f09-b2fe-6f2a91c04d11"},
		{"empty", "", ""},
		{"undefined sentinel", "undefined", "undefined"},
		{"null sentinel", "null", "null"},
		{"unrecoverable", "not-a-real-id", "not-a-real-id"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := ident.Normalize(tc.in); got != tc.want {
				t.Fatalf("Normalize(%q) = %q, want %q", tc.in, got, tc.want)
			}
		})
	}
}

func TestNormalizeIdempotent(t *testing.T) {
	inputs := []string{
		"9b2f1c44-8a31-4f09-b2fe-6f2a91c04d11",
		"9b2f1c44-8a31-4f09-b2fe-6f2a91c04d11-quiz",
		"9B2F1C44-8A31-4F09-B2FE-6F2A91C04D119B2F",
		"undefined",
		"garbage-with-no-uuid-inside-at-all",
		"",
	}
	for _, in := range inputs {
		once := ident.Normalize(in)
		if twice := ident.Normalize(once); twice != once {
			t.Fatalf("Normalize not idempotent for %q: first %q, second %q", in, once, twice)
		}
	}
}

func TestIsCanonical(t *testing.T) {
	if !ident.IsCanonical("9b2f1c44-8a31-4f09-b2fe-6f2a91c04d11") {
		t.Fatal("expected canonical uuid to pass")
	}
	if ident.IsCanonical("undefined") {
		t.Fatal("expected sentinel to fail")
	}
	if ident.IsCanonical("not-a-real-id") {
		t.Fatal("expected garbage to fail")
	}
}
