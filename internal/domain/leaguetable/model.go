package leaguetable

import (
	"context"
	"time"
)

// Row is one team's line in a tournament standings table.
type Row struct {
	Position       int    `json:"position"`
	Team           string `json:"team"`
	TeamID         string `json:"teamId"`
	Played         int    `json:"played"`
	Won            int    `json:"won"`
	Draw           int    `json:"draw"`
	Lost           int    `json:"lost"`
	GoalsFor       int    `json:"goalsFor"`
	GoalsAgainst   int    `json:"goalsAgainst"`
	GoalDifference int    `json:"goalDifference"`
	Points         int    `json:"points"`
}

type Table struct {
	Tournament    string    `json:"tournament"`
	TournamentURL string    `json:"tournamentUrl"`
	Rows          []Row     `json:"rows"`
	UpdatedAt     time.Time `json:"updatedAt"`
}

// Upsert replaces the table for the same tournament or appends it.
func Upsert(tables []Table, table Table) []Table {
	for n := range tables {
		if tables[n].Tournament == table.Tournament {
			tables[n] = table
			return tables
		}
	}
	return append(tables, table)
}

// Has reports whether a table for the tournament is present with at least one row.
func Has(tables []Table, tournament string) bool {
	for _, table := range tables {
		if table.Tournament == tournament && len(table.Rows) > 0 {
			return true
		}
	}
	return false
}

type Repository interface {
	LoadLeagueTables(ctx context.Context) ([]Table, error)
	SaveLeagueTables(ctx context.Context, tables []Table) error
}
