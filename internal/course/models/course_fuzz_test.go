//go:build go1.18

package models

import (
	"strings"
	"testing"
	"unicode"
)

// FuzzNormalizeNumber checks the canonical form is stable: normalizing twice
// changes nothing, so two spellings of a course number can only collide on
// the same canonical key.
func FuzzNormalizeNumber(f *testing.F) {
	f.Add("cs101")
	f.Add("  ASDF 1234  ")
	f.Add("")
	f.Add("çS-101\t")

	f.Fuzz(func(t *testing.T, input string) {
		normalized := NormalizeNumber(input)

		if again := NormalizeNumber(normalized); again != normalized {
			t.Errorf("normalization is not idempotent: %q -> %q", normalized, again)
		}
		if normalized != strings.TrimSpace(normalized) {
			t.Errorf("normalized form keeps surrounding whitespace: %q", normalized)
		}
	})
}

// FuzzSanitizeChannelName checks the derived channel name never contains
// whitespace or upper-case letters, whatever the course number looks like.
func FuzzSanitizeChannelName(f *testing.F) {
	f.Add("asdf 1234")
	f.Add("CS 101")
	f.Add(" \t\n ")
	f.Add("μαθημα 42")

	f.Fuzz(func(t *testing.T, input string) {
		sanitized := SanitizeChannelName(input)

		for _, r := range sanitized {
			if unicode.IsSpace(r) {
				t.Errorf("sanitized name %q contains whitespace", sanitized)
			}
			if unicode.IsUpper(r) {
				t.Errorf("sanitized name %q contains upper-case %q", sanitized, r)
			}
		}
		if again := SanitizeChannelName(sanitized); again != sanitized {
			t.Errorf("sanitization is not idempotent: %q -> %q", sanitized, again)
		}
	})
}
