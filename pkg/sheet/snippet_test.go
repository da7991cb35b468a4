package sheet

import (
	"strings"
	"testing"
	"unicode/utf8"
)

func TestSnippet(t *testing.T) {
	t.Run("short body unchanged", func(t *testing.T) {
		if got := snippet([]byte("  denied  ")); got != "denied" {
			t.Errorf("got %q", got)
		}
	})

	t.Run("long body truncated at limit", func(t *testing.T) {
		got := snippet([]byte(strings.Repeat("x", snippetLimit+50)))
		if len(got) != snippetLimit+len("…") {
			t.Errorf("got length %d", len(got))
		}
		if !strings.HasSuffix(got, "…") {
			t.Errorf("missing ellipsis: %q", got)
		}
	})

	t.Run("truncation lands on a rune boundary", func(t *testing.T) {
		// 3-byte runes: the limit falls mid-rune, so the cut must back
		// up rather than emit a broken sequence.
		got := snippet([]byte(strings.Repeat("中", 100)))
		if !utf8.ValidString(got) {
			t.Errorf("snippet is not valid UTF-8: %q", got)
		}
		if len(got) > snippetLimit+len("…") {
			t.Errorf("got length %d", len(got))
		}
		if !strings.HasSuffix(got, "…") {
			t.Errorf("missing ellipsis: %q", got)
		}
	})
}
