package schedule

import (
	"testing"
	"time"
)

func TestEntry_HasResult(t *testing.T) {
	t.Parallel()

	cases := map[string]bool{
		"":      false,
		"-":     false,
		" - ":   false,
		"25-20": true,
	}
	for result, want := range cases {
		if got := (Entry{Result: result}).HasResult(); got != want {
			t.Fatalf("HasResult(%q)=%v want %v", result, got, want)
		}
	}
}

func TestEndOfDay(t *testing.T) {
	t.Parallel()

	got, ok := EndOfDay("01.01.2025", time.UTC)
	if !ok {
		t.Fatalf("expected date to parse")
	}
	want := time.Date(2025, 1, 1, 23, 59, 59, 0, time.UTC)
	if !got.Equal(want) {
		t.Fatalf("EndOfDay=%s want %s", got, want)
	}
	if _, ok := EndOfDay("2025-01-01", time.UTC); ok {
		t.Fatalf("expected ISO date to be rejected")
	}
}

func TestParseScore(t *testing.T) {
	t.Parallel()

	home, away, ok := ParseScore(" 30 – 25 ")
	if !ok || home != 30 || away != 25 {
		t.Fatalf("unexpected parse: %d %d %v", home, away, ok)
	}
	if _, _, ok := ParseScore("-"); ok {
		t.Fatalf("expected dash to be rejected")
	}
	if got := NormalizeScore("30 - 25"); got != "30-25" {
		t.Fatalf("unexpected normalized score %q", got)
	}
}
