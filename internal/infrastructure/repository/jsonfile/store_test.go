package jsonfile

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	crerr "github.com/cockroachdb/errors"
	"github.com/riskibarqy/handball-sync/internal/domain/matchindex"
	"github.com/riskibarqy/handball-sync/internal/domain/matchstats"
	"github.com/riskibarqy/handball-sync/internal/domain/runsummary"
	"github.com/riskibarqy/handball-sync/internal/domain/schedule"
	"github.com/riskibarqy/handball-sync/internal/domain/teamdetail"
	"github.com/riskibarqy/handball-sync/internal/platform/logging"
	"github.com/riskibarqy/handball-sync/internal/usecase"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := NewStore(t.TempDir(), logging.NewNop())
	require.NoError(t, err)
	return store
}

func TestStore_MissingFilesDegradeToEmpty(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := newTestStore(t)

	entries, err := store.LoadSchedule(ctx)
	require.NoError(t, err)
	assert.Empty(t, entries)

	idx, shape, err := store.LoadIndex(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, idx.Len())
	assert.Equal(t, matchindex.ShapeEmpty, shape)

	stats, err := store.LoadStats(ctx)
	require.NoError(t, err)
	assert.Empty(t, stats.MatchStats)

	cache, err := store.LoadTournamentCache(ctx)
	require.NoError(t, err)
	assert.True(t, cache.GeneratedAt.IsZero())
}

func TestStore_CorruptFileDegradesToEmpty(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := newTestStore(t)
	require.NoError(t, os.WriteFile(filepath.Join(store.Dir(), PlayerStatsFile), []byte(`{"matchStats": [`), 0o644))

	stats, err := store.LoadStats(ctx)
	require.NoError(t, err)
	assert.Empty(t, stats.MatchStats)
}

func TestStore_ScheduleRoundTrip(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := newTestStore(t)
	want := []schedule.Entry{{
		Team:       "Herrer 1",
		Date:       "01.01.2025",
		Time:       "19:30",
		MatchID:    "100000001",
		HomeTeam:   "Home",
		AwayTeam:   "Away",
		Result:     "30-25",
		Tournament: "T",
		MatchURL:   "https://example.org/kamp/100000001",
	}}

	require.NoError(t, store.SaveSchedule(ctx, want))
	got, err := store.LoadSchedule(ctx)
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestStore_LoadIndexMigratesLegacyShape(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := newTestStore(t)
	legacy := `{"100000001":{"url":"u1","played":true},"100000002":{"url":"u2"}}`
	require.NoError(t, os.WriteFile(filepath.Join(store.Dir(), MatchIndexFile), []byte(legacy), 0o644))

	idx, shape, err := store.LoadIndex(ctx)
	require.NoError(t, err)
	assert.Equal(t, matchindex.ShapeLegacy, shape)
	assert.Equal(t, map[string]string{"100000001": "u1", "100000002": "u2"}, idx.Snapshot())

	require.NoError(t, store.SaveIndex(ctx, idx))
	raw, err := os.ReadFile(filepath.Join(store.Dir(), MatchIndexFile))
	require.NoError(t, err)
	assert.JSONEq(t, `{"100000001":"u1","100000002":"u2"}`, string(raw))

	_, shape, err = store.LoadIndex(ctx)
	require.NoError(t, err)
	assert.Equal(t, matchindex.ShapeFlat, shape)
}

func TestStore_SaveStatsWritesEmptyArrays(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := newTestStore(t)
	require.NoError(t, store.SaveStats(ctx, matchstats.File{LastUpdated: "2025-01-15T00:00:00Z"}))

	raw, err := os.ReadFile(filepath.Join(store.Dir(), PlayerStatsFile))
	require.NoError(t, err)
	assert.JSONEq(t, `{"players":[],"matchStats":[],"matchesWithoutStats":[],"lastUpdated":"2025-01-15T00:00:00Z"}`, string(raw))
}

func TestStore_SaveWritesIndentedUnescapedJSON(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := newTestStore(t)
	idx := matchindex.FromMap(map[string]string{"100000001": "https://dhf.test/kamp?matchId=1&tab=stats"})
	require.NoError(t, store.SaveIndex(ctx, idx))

	raw, err := os.ReadFile(filepath.Join(store.Dir(), MatchIndexFile))
	require.NoError(t, err)
	assert.Equal(t, "{\n  \"100000001\": \"https://dhf.test/kamp?matchId=1&tab=stats\"\n}\n", string(raw))
}

func TestStore_ArtifactPathsIncludesTeamDetails(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := newTestStore(t)
	require.NoError(t, store.SaveSchedule(ctx, nil))
	require.NoError(t, store.SaveTeamDetail(ctx, teamdetail.Detail{TeamID: "5555"}))

	paths, err := store.ArtifactPaths()
	require.NoError(t, err)
	assert.Equal(t, []string{ScheduleFile, "teams/5555.json"}, paths)
}

func TestStore_WriteFailureIsPersistenceError(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := newTestStore(t)
	// a directory in place of the target file makes the rename fail
	require.NoError(t, os.MkdirAll(filepath.Join(store.Dir(), SummaryFile, "blocker"), 0o755))

	err := store.SaveSummary(ctx, runsummary.Summary{NoChanges: true})
	require.Error(t, err)
	assert.True(t, crerr.Is(err, usecase.ErrPersistence))
}
