// Package ident recovers canonical UUIDs from identifiers mangled by legacy
// upstream producers.
package ident

import (
	"regexp"
	"strings"

	"github.com/google/uuid"
)

// Sentinel values produced when an upstream caller serialized a missing id.
// They pass through Normalize untouched so the bug stays visible downstream.
const (
	SentinelUndefined = "undefined"
	SentinelNull      = "null"
)

// legacySuffixes are tags older producers appended to raw UUIDs.
var legacySuffixes = []string{"-quiz", "-document", "-results", "-pdf"}

// uuidShape tolerates an overlong final group from concatenation bugs.
var uuidShape = regexp.MustCompile(`(?i)[0-9a-f]{8}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{12,}`)

var nonHex = regexp.MustCompile(`(?i)[^0-9a-f]`)

// Normalize reduces a raw identifier to its canonical lowercase UUID where
// one can be recovered. Inputs with no recoverable UUID come back cleaned but
// unvalidated; callers must treat a failed lookup on such an id as not found.
// Normalize is pure and idempotent.
func Normalize(raw string) string {
	s := strings.TrimSpace(raw)
	if s == "" || s == SentinelUndefined || s == SentinelNull {
		return s
	}
	s = stripLegacySuffixes(s)
	if m := uuidShape.FindString(s); m != "" {
		return canonical(m)
	}
	if rebuilt, ok := reconstruct(s); ok {
		return rebuilt
	}
	return s
}

// IsCanonical reports whether id parses as a UUID.
func IsCanonical(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}

func stripLegacySuffixes(s string) string {
	for changed := true; changed; {
		changed = false
		for _, suffix := range legacySuffixes {
			if strings.HasSuffix(strings.ToLower(s), suffix) {
				s = s[:len(s)-len(suffix)]
				changed = true
			}
		}
	}
	return s
}

// canonical lowercases a shape match and trims an overlong final group down
// to the 12 hex characters a UUID allows.
func canonical(m string) string {
	parts := strings.SplitN(strings.ToLower(m), "-", 5)
	if len(parts[4]) > 12 {
		parts[4] = parts[4][:12]
	}
	return strings.Join(parts, "-")
}

// reconstruct retries the shape match after filtering non-hex characters out
// of the fifth hyphen-delimited segment.
func reconstruct(s string) (string, bool) {
	parts := strings.Split(s, "-")
	if len(parts) < 5 {
		return "", false
	}
	fifth := nonHex.ReplaceAllString(parts[4], "")
	candidate := strings.Join(append(parts[:4:4], fifth), "-")
	if m := uuidShape.FindString(candidate); m != "" {
		return canonical(m), true
	}
	return "", false
}
