package db

import (
	"strings"
	"testing"

	"github.com/Zenithi77/sain-league/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSeasonBatchOrderAndScope(t *testing.T) {
	a := &models.SeasonArchive{
		Season:  models.Season{ID: "2026", Name: "Sain Girls League 2026", IsActive: true},
		Teams:   []models.TeamRecord{{Team: models.Team{ID: "team-001", Name: "33 Sparks"}}},
		Players: []models.PlayerRecord{{Player: models.Player{ID: "p-001", Name: "Анужин", TeamID: "team-001"}, Number: 7}},
		Games: []models.Game{{
			ID:        "g-001",
			Status:    "finished",
			Boxscores: []models.Boxscore{{ID: "team-001__анужин", TeamID: "team-001", PlayerName: "Анужин"}},
		}},
		TeamAggregates:   []models.TeamAggregate{{TeamID: "team-001", Wins: 1}},
		PlayerAggregates: []models.PlayerAggregate{{PlayerID: "p-001", TeamID: "team-001"}},
		Standings:        []models.Standing{{Rank: 1, TeamID: "team-001", Wins: 1, Pct: 1}},
	}

	batch := seasonBatch(a)
	require.Equal(t, 9, batch.Len())

	tables := []string{
		"league_seasons", "league_teams", "league_players", "league_games", "league_boxscores",
		"league_team_aggregates", "league_player_aggregates", "DELETE FROM league_standings", "INSERT INTO league_standings",
	}
	for i, q := range batch.QueuedQueries {
		assert.Contains(t, q.SQL, tables[i], "statement %d", i)
		if i > 0 {
			assert.Equal(t, "2026", q.Arguments[0], "statement %d is scoped to the season", i)
		}
		if strings.HasPrefix(strings.TrimSpace(q.SQL), "INSERT") {
			assert.Equal(t, strings.Count(q.SQL, "$"), len(q.Arguments), "statement %d placeholders", i)
		}
	}
}
