package matchindex

import (
	"reflect"
	"testing"

	"github.com/riskibarqy/handball-sync/internal/domain/schedule"
)

func TestIndex_MergeFirstResolvedWins(t *testing.T) {
	t.Parallel()

	idx := FromMap(map[string]string{"100000001": "https://example.org/kamp/1"})
	added := idx.Merge([]Entry{
		{MatchID: "100000001", URL: "https://example.org/kamp/other"},
		{MatchID: "100000002", URL: "https://example.org/kamp/2"},
		{MatchID: "100000002", URL: "https://example.org/kamp/2b"},
		{MatchID: "", URL: "https://example.org/kamp/blank"},
		{MatchID: "100000003", URL: " "},
	})

	if added != 1 {
		t.Fatalf("expected 1 added entry, got %d", added)
	}
	if url, _ := idx.Lookup("100000001"); url != "https://example.org/kamp/1" {
		t.Fatalf("existing entry was overwritten: %q", url)
	}
	if url, _ := idx.Lookup("100000002"); url != "https://example.org/kamp/2" {
		t.Fatalf("expected first occurrence to win, got %q", url)
	}
	if idx.Len() != 2 {
		t.Fatalf("expected 2 entries, got %d", idx.Len())
	}
}

func TestIndex_MergeIsIdempotent(t *testing.T) {
	t.Parallel()

	discovered := []Entry{
		{MatchID: "100000001", URL: "u1"},
		{MatchID: "100000002", URL: "u2"},
	}

	once := New()
	once.Merge(discovered)

	twice := New()
	twice.Merge(discovered)
	if added := twice.Merge(discovered); added != 0 {
		t.Fatalf("second merge added %d entries", added)
	}

	if !reflect.DeepEqual(once.Snapshot(), twice.Snapshot()) {
		t.Fatalf("merge is not idempotent: %v vs %v", once.Snapshot(), twice.Snapshot())
	}
}

func TestIndex_PopulateMissingURLs(t *testing.T) {
	t.Parallel()

	idx := FromMap(map[string]string{"1": "u1", "2": "u2"})
	entries := []schedule.Entry{
		{MatchID: "1"},
		{MatchID: "2", MatchURL: "kept"},
		{MatchID: "3"},
	}

	if updated := idx.PopulateMissingURLs(entries); updated != 1 {
		t.Fatalf("expected 1 updated entry, got %d", updated)
	}
	if entries[0].MatchURL != "u1" || entries[1].MatchURL != "kept" || entries[2].MatchURL != "" {
		t.Fatalf("unexpected entries: %+v", entries)
	}
}

func TestMigrateLegacy(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name      string
		raw       string
		wantShape Shape
		want      map[string]string
	}{
		{
			name:      "legacy objects",
			raw:       `{"1":{"url":"u1","played":true},"2":{"url":"u2"}}`,
			wantShape: ShapeLegacy,
			want:      map[string]string{"1": "u1", "2": "u2"},
		},
		{
			name:      "flat strings",
			raw:       `{"1":"u1","2":"u2"}`,
			wantShape: ShapeFlat,
			want:      map[string]string{"1": "u1", "2": "u2"},
		},
		{
			name:      "mixed shape coerced by first entry",
			raw:       `{"1":{"url":"u1"},"2":"u2"}`,
			wantShape: ShapeLegacy,
			want:      map[string]string{"1": "u1"},
		},
		{
			name:      "first entry in document order decides",
			raw:       `{"b":"ub","a":{"url":"ua"}}`,
			wantShape: ShapeFlat,
			want:      map[string]string{"b": "ub"},
		},
		{
			name:      "legacy entry without url skipped",
			raw:       `{"1":{"played":true},"2":{"url":"u2"}}`,
			wantShape: ShapeLegacy,
			want:      map[string]string{"2": "u2"},
		},
		{
			name:      "empty object",
			raw:       `{}`,
			wantShape: ShapeEmpty,
			want:      map[string]string{},
		},
		{
			name:      "unrecognized value",
			raw:       `{"1":42}`,
			wantShape: ShapeUnknown,
			want:      map[string]string{},
		},
		{
			name:      "array",
			raw:       `["u1","u2"]`,
			wantShape: ShapeUnknown,
			want:      map[string]string{},
		},
		{
			name:      "truncated",
			raw:       `{"1":"u1",`,
			wantShape: ShapeUnknown,
			want:      map[string]string{},
		},
		{
			name:      "empty file",
			raw:       ``,
			wantShape: ShapeEmpty,
			want:      map[string]string{},
		},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			idx, shape := MigrateLegacy([]byte(tc.raw))
			if shape != tc.wantShape {
				t.Fatalf("shape=%s want %s", shape, tc.wantShape)
			}
			if got := idx.Snapshot(); !reflect.DeepEqual(got, tc.want) {
				t.Fatalf("entries=%v want %v", got, tc.want)
			}
		})
	}
}
