package usecase

import (
	"context"
	"testing"

	"github.com/riskibarqy/handball-sync/internal/domain/matchstats"
	"github.com/riskibarqy/handball-sync/internal/platform/logging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const matchPageHTML = `<html><body>
<div class="match-info">Kamp 100000001 · 01.01.2025 kl. 19:30 · <a href="/turnering?tournamentId=777">Herre 2. division</a></div>
<table class="match-header">
  <tr><td><a href="/hold?teamId=5555">Our Team</a></td><td>30</td></tr>
  <tr><td><a href="/hold?teamId=6666">Rivals</a></td><td>25</td></tr>
</table>
<table>
  <thead><tr><th>#</th><th>Spiller</th><th>Mål</th><th>7m</th><th>2 min</th><th>Gul</th><th>Rød</th></tr></thead>
  <tbody>
    <tr><td>7</td><td>Anders Jensen</td><td>8</td><td>2</td><td>1</td><td>X</td><td></td></tr>
    <tr><td>11</td><td>Bo Hansen</td><td>4</td><td>0</td><td>0</td><td></td><td></td></tr>
    <tr><td></td><td>Træner</td><td></td><td></td><td></td><td></td><td></td></tr>
  </tbody>
</table>
<table>
  <thead><tr><th>#</th><th>Spiller</th><th>Mål</th><th>7m</th><th>2 min</th><th>Gul</th><th>Rød</th></tr></thead>
  <tbody>
    <tr><td>9</td><td>Carl Nielsen</td><td>10</td><td>3</td><td>2</td><td></td><td>1</td></tr>
    <tr><td></td><td>I alt</td><td>25</td><td></td><td></td><td></td><td></td></tr>
  </tbody>
</table>
</body></html>`

func TestParseMatchPage(t *testing.T) {
	t.Parallel()

	record, ok := ParseMatchPage(matchPageHTML, "https://dhf.test/kamp/100000001", "100000001")
	require.True(t, ok)

	assert.Equal(t, "Our Team", record.HomeTeam)
	assert.Equal(t, "5555", record.HomeTeamID)
	assert.Equal(t, "Rivals", record.AwayTeam)
	assert.Equal(t, 30, record.HomeScore)
	assert.Equal(t, 25, record.AwayScore)
	assert.Equal(t, "01.01.2025", record.Date)
	assert.Equal(t, "Herre 2. division", record.Tournament)

	require.Len(t, record.HomePlayers, 2)
	anders := record.HomePlayers[0]
	assert.Equal(t, "7", anders.Number)
	assert.Equal(t, 8, anders.Goals)
	assert.Equal(t, 2, anders.PenaltyGoals)
	assert.Equal(t, 1, anders.TwoMinutes)
	assert.Equal(t, 1, anders.YellowCards)
	assert.Equal(t, matchstats.PlayerID("Anders Jensen"), anders.PlayerID)

	require.Len(t, record.AwayPlayers, 1)
	assert.Equal(t, 1, record.AwayPlayers[0].RedCards)
}

func TestParseMatchPage_RejectsPagesWithoutRosters(t *testing.T) {
	t.Parallel()

	html := `<table><tr><td><a href="/hold?teamId=1">A</a></td><td>20</td></tr>
<tr><td><a href="/hold?teamId=2">B</a></td><td>21</td></tr></table>`
	_, ok := ParseMatchPage(html, "https://dhf.test/kamp/100000009", "100000009")
	assert.False(t, ok)

	_, ok = ParseMatchPage(`<p>Kampen er ikke spillet</p>`, "https://dhf.test/kamp/100000009", "100000009")
	assert.False(t, ok)
}

func TestExtractMatchScore(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "30-25", ExtractMatchScore(matchPageHTML))

	fallback := `<a href="/hold?teamId=1">A</a> <a href="/hold?teamId=2">B</a><div class="result">27 – 27</div>`
	assert.Equal(t, "27-27", ExtractMatchScore(fallback))
	assert.Equal(t, "", ExtractMatchScore(`<a href="/hold?teamId=1">A</a>`))
}

func TestStatsScraper_ScrapeFillsMissingContext(t *testing.T) {
	t.Parallel()

	html := `<table>
<tr><td><a href="/hold?teamId=1">A</a></td><td>20</td></tr>
<tr><td><a href="/hold?teamId=2">B</a></td><td>21</td></tr></table>
<table><tr><th>Navn</th><th>Mål</th></tr><tr><td>Dan Berg</td><td>5</td></tr></table>`
	page := &staticPage{pages: map[string]string{"https://dhf.test/kamp/100000009": html}}
	scraper := NewStatsScraper(PageTiming{}, logging.NewNop())

	record, ok, err := scraper.Scrape(context.Background(), page, ScrapeTarget{
		MatchID:    "100000009",
		URL:        "https://dhf.test/kamp/100000009",
		Tournament: "Serie 1",
		Date:       "03.03.2025",
	})
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "Serie 1", record.Tournament)
	assert.Equal(t, "03.03.2025", record.Date)
	assert.Len(t, record.HomePlayers, 1)
	assert.Empty(t, record.AwayPlayers)
	assert.NotNil(t, record.AwayPlayers)

	_, _, err = scraper.Scrape(context.Background(), page, ScrapeTarget{MatchID: "1", URL: "https://dhf.test/nowhere"})
	require.Error(t, err)
}
