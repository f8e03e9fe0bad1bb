package matchindex

import (
	"bytes"
	"strings"

	"github.com/bytedance/sonic/ast"
	"github.com/riskibarqy/handball-sync/internal/domain/schedule"
)

// Shape describes the on-disk layout an index file was read from.
type Shape string

const (
	ShapeFlat    Shape = "flat"
	ShapeLegacy  Shape = "legacy"
	ShapeUnknown Shape = "unknown"
	ShapeEmpty   Shape = "empty"
)

// Entry is one discovered identity/URL pair.
type Entry struct {
	MatchID string
	URL     string
}

// Index maps match identity to canonical detail URL. Entries are never
// overwritten or removed once written. Not safe for concurrent use.
type Index struct {
	urls map[string]string
}

func New() *Index {
	return &Index{urls: make(map[string]string)}
}

// FromMap copies a flat identity->URL map into an index, skipping blank values.
func FromMap(m map[string]string) *Index {
	idx := New()
	for id, url := range m {
		id = strings.TrimSpace(id)
		url = strings.TrimSpace(url)
		if id == "" || url == "" {
			continue
		}
		idx.urls[id] = url
	}
	return idx
}

func (i *Index) Len() int {
	if i == nil {
		return 0
	}
	return len(i.urls)
}

func (i *Index) Lookup(matchID string) (string, bool) {
	if i == nil {
		return "", false
	}
	url, ok := i.urls[matchID]
	return url, ok
}

// Merge inserts identities that are not present yet and returns how many were added.
func (i *Index) Merge(entries []Entry) int {
	if i.urls == nil {
		i.urls = make(map[string]string, len(entries))
	}
	added := 0
	for _, entry := range entries {
		id := strings.TrimSpace(entry.MatchID)
		url := strings.TrimSpace(entry.URL)
		if id == "" || url == "" {
			continue
		}
		if _, exists := i.urls[id]; exists {
			continue
		}
		i.urls[id] = url
		added++
	}
	return added
}

// PopulateMissingURLs fills MatchURL on entries lacking one and returns the count updated.
func (i *Index) PopulateMissingURLs(entries []schedule.Entry) int {
	updated := 0
	for n := range entries {
		if strings.TrimSpace(entries[n].MatchURL) != "" {
			continue
		}
		if url, ok := i.Lookup(entries[n].MatchID); ok {
			entries[n].MatchURL = url
			updated++
		}
	}
	return updated
}

// Snapshot returns a copy of the flat identity->URL map.
func (i *Index) Snapshot() map[string]string {
	out := make(map[string]string, i.Len())
	if i == nil {
		return out
	}
	for id, url := range i.urls {
		out[id] = url
	}
	return out
}

// MigrateLegacy parses an index file. The shape of the first entry in document
// order decides the branch: an object {url, played?} remaps every entry to its
// url, a plain string passes through. Entries of the other shape are dropped,
// and unrecognized input yields an empty index rather than an error.
func MigrateLegacy(raw []byte) (*Index, Shape) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return New(), ShapeEmpty
	}

	root, err := ast.NewSearcher(string(raw)).GetByPath()
	if err != nil || root.TypeSafe() != ast.V_OBJECT || root.LoadAll() != nil {
		return New(), ShapeUnknown
	}
	props, err := root.Properties()
	if err != nil {
		return New(), ShapeUnknown
	}

	idx := New()
	var (
		shape Shape
		pair  ast.Pair
	)
	for props.Next(&pair) {
		kind := pair.Value.TypeSafe()
		if shape == "" {
			switch kind {
			case ast.V_OBJECT:
				shape = ShapeLegacy
			case ast.V_STRING:
				shape = ShapeFlat
			default:
				return New(), ShapeUnknown
			}
		}

		var url string
		switch {
		case shape == ShapeLegacy && kind == ast.V_OBJECT:
			url, err = pair.Value.Get("url").StrictString()
		case shape == ShapeFlat && kind == ast.V_STRING:
			url, err = pair.Value.StrictString()
		default:
			continue
		}
		if err != nil {
			continue
		}
		idx.Merge([]Entry{{MatchID: pair.Key, URL: url}})
	}
	if shape == "" {
		return New(), ShapeEmpty
	}
	return idx, shape
}
