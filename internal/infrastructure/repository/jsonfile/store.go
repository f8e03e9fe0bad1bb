package jsonfile

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/bytedance/sonic"
	crerr "github.com/cockroachdb/errors"
	"github.com/riskibarqy/handball-sync/internal/platform/logging"
	"github.com/riskibarqy/handball-sync/internal/usecase"
	"github.com/valyala/bytebufferpool"
)

const (
	ScheduleFile        = "schedule.json"
	MatchIndexFile      = "match-index.json"
	PlayerStatsFile     = "player-stats.json"
	AggregatesFile      = "player-aggregates.json"
	LeagueTablesFile    = "league-tables.json"
	SummaryFile         = "update-summary.json"
	MetadataFile        = "metadata.json"
	TournamentCacheFile = "tournament-matches.json"
	TeamsDir            = "teams"
)

// sorted map keys keep the index file diff-friendly
var jsonAPI = sonic.ConfigStd

var _ usecase.ArtifactStore = (*Store)(nil)

// Store keeps every artifact as one JSON file under a data directory. Writes
// go to a temp file that is renamed into place, so readers never observe a
// half-written artifact.
type Store struct {
	dir    string
	logger *logging.Logger
	mu     sync.Mutex
}

func NewStore(dir string, logger *logging.Logger) (*Store, error) {
	if logger == nil {
		logger = logging.Default()
	}
	dir = strings.TrimSpace(dir)
	if dir == "" {
		return nil, crerr.Mark(crerr.New("data dir is required"), usecase.ErrInvalidInput)
	}
	if err := os.MkdirAll(filepath.Join(dir, TeamsDir), 0o755); err != nil {
		return nil, crerr.Mark(crerr.Wrapf(err, "create data dir %s", dir), usecase.ErrPersistence)
	}
	return &Store{dir: dir, logger: logger.Named("jsonfile")}, nil
}

func (s *Store) Dir() string {
	return s.dir
}

// readRaw returns the file content, or ok=false when the file does not exist.
func (s *Store) readRaw(name string) ([]byte, bool, error) {
	raw, err := os.ReadFile(filepath.Join(s.dir, name))
	if err != nil {
		if crerr.Is(err, fs.ErrNotExist) {
			return nil, false, nil
		}
		return nil, false, crerr.Wrapf(err, "read %s", name)
	}
	return raw, true, nil
}

// load decodes name into out. Missing, unreadable or corrupt files leave out
// untouched and report false; the caller keeps its empty default.
func (s *Store) load(ctx context.Context, name string, out any) bool {
	raw, ok, err := s.readRaw(name)
	if err != nil {
		s.logger.WarnContext(ctx, "artifact unreadable, using empty default", "file", name, "error", err)
		return false
	}
	if !ok {
		s.logger.DebugContext(ctx, "artifact missing, using empty default", "file", name)
		return false
	}
	if len(strings.TrimSpace(string(raw))) == 0 {
		return false
	}
	if err := jsonAPI.Unmarshal(raw, out); err != nil {
		s.logger.WarnContext(ctx, "artifact corrupt, using empty default", "file", name, "error", err)
		return false
	}
	return true
}

// save encodes value straight into a pooled buffer. Query-string URLs stay
// readable because HTML escaping is off.
func (s *Store) save(ctx context.Context, name string, value any) error {
	buf := bytebufferpool.Get()
	defer bytebufferpool.Put(buf)

	enc := jsonAPI.NewEncoder(buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(value); err != nil {
		return crerr.Mark(crerr.Wrapf(err, "encode %s", name), usecase.ErrPersistence)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := writeAtomic(filepath.Join(s.dir, name), buf.B); err != nil {
		return crerr.Mark(crerr.Wrapf(err, "write %s", name), usecase.ErrPersistence)
	}
	s.logger.DebugContext(ctx, "artifact written", "file", name, "bytes", buf.Len())
	return nil
}

func writeAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	cleanup := func() { _ = os.Remove(tmpName) }

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		cleanup()
		return err
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		cleanup()
		return err
	}
	if err := tmp.Close(); err != nil {
		cleanup()
		return err
	}
	if err := os.Chmod(tmpName, 0o644); err != nil {
		cleanup()
		return err
	}
	if err := os.Rename(tmpName, path); err != nil {
		cleanup()
		return err
	}
	return nil
}

// ArtifactPaths lists every artifact file, relative to the data directory.
func (s *Store) ArtifactPaths() ([]string, error) {
	out := make([]string, 0, 16)
	err := filepath.WalkDir(s.dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !strings.HasSuffix(d.Name(), ".json") || strings.HasPrefix(d.Name(), ".") {
			return nil
		}
		rel, err := filepath.Rel(s.dir, path)
		if err != nil {
			return err
		}
		out = append(out, filepath.ToSlash(rel))
		return nil
	})
	if err != nil {
		return nil, crerr.Wrap(err, "list artifacts")
	}
	sort.Strings(out)
	return out, nil
}
