package jsonfile

import (
	"context"
	"path"

	"github.com/riskibarqy/handball-sync/internal/domain/aggregate"
	"github.com/riskibarqy/handball-sync/internal/domain/discovery"
	"github.com/riskibarqy/handball-sync/internal/domain/leaguetable"
	"github.com/riskibarqy/handball-sync/internal/domain/matchindex"
	"github.com/riskibarqy/handball-sync/internal/domain/matchstats"
	"github.com/riskibarqy/handball-sync/internal/domain/playercatalog"
	"github.com/riskibarqy/handball-sync/internal/domain/runsummary"
	"github.com/riskibarqy/handball-sync/internal/domain/schedule"
	"github.com/riskibarqy/handball-sync/internal/domain/teamdetail"
)

func (s *Store) LoadSchedule(ctx context.Context) ([]schedule.Entry, error) {
	var entries []schedule.Entry
	if !s.load(ctx, ScheduleFile, &entries) {
		return []schedule.Entry{}, nil
	}
	return entries, nil
}

func (s *Store) SaveSchedule(ctx context.Context, entries []schedule.Entry) error {
	if entries == nil {
		entries = []schedule.Entry{}
	}
	return s.save(ctx, ScheduleFile, entries)
}

// LoadIndex reads the match index, migrating the legacy record shape.
func (s *Store) LoadIndex(ctx context.Context) (*matchindex.Index, matchindex.Shape, error) {
	raw, ok, err := s.readRaw(MatchIndexFile)
	if err != nil {
		s.logger.WarnContext(ctx, "match index unreadable, using empty default", "error", err)
		return matchindex.New(), matchindex.ShapeEmpty, nil
	}
	if !ok {
		return matchindex.New(), matchindex.ShapeEmpty, nil
	}
	idx, shape := matchindex.MigrateLegacy(raw)
	return idx, shape, nil
}

func (s *Store) SaveIndex(ctx context.Context, idx *matchindex.Index) error {
	return s.save(ctx, MatchIndexFile, idx.Snapshot())
}

func (s *Store) LoadStats(ctx context.Context) (matchstats.File, error) {
	var file matchstats.File
	if !s.load(ctx, PlayerStatsFile, &file) {
		return matchstats.File{}, nil
	}
	return file, nil
}

func (s *Store) SaveStats(ctx context.Context, file matchstats.File) error {
	if file.Players == nil {
		file.Players = []playercatalog.Entry{}
	}
	if file.MatchStats == nil {
		file.MatchStats = []matchstats.MatchPlayerData{}
	}
	if file.MatchesWithoutStats == nil {
		file.MatchesWithoutStats = []string{}
	}
	return s.save(ctx, PlayerStatsFile, file)
}

func (s *Store) LoadAggregates(ctx context.Context) (aggregate.File, error) {
	var file aggregate.File
	if !s.load(ctx, AggregatesFile, &file) {
		return aggregate.File{}, nil
	}
	return file, nil
}

func (s *Store) SaveAggregates(ctx context.Context, file aggregate.File) error {
	if file.Aggregates == nil {
		file.Aggregates = []aggregate.PlayerStats{}
	}
	return s.save(ctx, AggregatesFile, file)
}

func (s *Store) LoadLeagueTables(ctx context.Context) ([]leaguetable.Table, error) {
	var tables []leaguetable.Table
	if !s.load(ctx, LeagueTablesFile, &tables) {
		return []leaguetable.Table{}, nil
	}
	return tables, nil
}

func (s *Store) SaveLeagueTables(ctx context.Context, tables []leaguetable.Table) error {
	if tables == nil {
		tables = []leaguetable.Table{}
	}
	return s.save(ctx, LeagueTablesFile, tables)
}

func (s *Store) LoadSummary(ctx context.Context) (runsummary.Summary, error) {
	var summary runsummary.Summary
	if !s.load(ctx, SummaryFile, &summary) {
		return runsummary.Summary{}, nil
	}
	return summary, nil
}

func (s *Store) SaveSummary(ctx context.Context, summary runsummary.Summary) error {
	return s.save(ctx, SummaryFile, summary)
}

func (s *Store) SaveMetadata(ctx context.Context, metadata runsummary.Metadata) error {
	return s.save(ctx, MetadataFile, metadata)
}

func (s *Store) LoadTournamentCache(ctx context.Context) (discovery.TournamentCache, error) {
	var cache discovery.TournamentCache
	if !s.load(ctx, TournamentCacheFile, &cache) {
		return discovery.TournamentCache{}, nil
	}
	return cache, nil
}

func (s *Store) SaveTournamentCache(ctx context.Context, cache discovery.TournamentCache) error {
	return s.save(ctx, TournamentCacheFile, cache)
}

func (s *Store) SaveTeamDetail(ctx context.Context, detail teamdetail.Detail) error {
	return s.save(ctx, path.Join(TeamsDir, path.Base(detail.TeamID)+".json"), detail)
}
