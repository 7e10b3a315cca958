package report

import (
	"fmt"
	"strings"
	"testing"

	"github.com/Zenithi77/sain-league/internal/models"
	"github.com/mattn/go-runewidth"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWritePlainScenario(t *testing.T) {
	league := &models.League{
		Teams:   []models.Team{{ID: "1", Name: "Lions", School: "Tech", City: "Metro"}},
		Players: []models.Player{{Name: "José", Position: "PG", Height: "6-2", TeamID: "1"}},
	}

	var sb strings.Builder
	require.NoError(t, Write(&sb, league, Options{}))

	want := "=== Teams ===\n" +
		"  1: Lions - Tech (Metro)\n" +
		"\n=== Players (1 total) ===\n" +
		"  José (PG) - 6-2 - Team: 1\n" +
		"\nDone! Encoding fixed.\n"
	assert.Equal(t, want, sb.String())
}

func TestWritePlainEmptyTeamsFewPlayers(t *testing.T) {
	league := &models.League{Players: players(3)}

	var sb strings.Builder
	require.NoError(t, Write(&sb, league, Options{Format: FormatPlain}))

	out := sb.String()
	assert.True(t, strings.HasPrefix(out, "=== Teams ===\n\n=== Players (3 total) ===\n"))
	assert.Contains(t, out, "  Player 3 (G) - 180 - Team: t1\n")
	assert.NotContains(t, out, "...")
}

func TestWritePlainTruncatesAfterLimit(t *testing.T) {
	league := &models.League{Players: players(12)}

	var sb strings.Builder
	require.NoError(t, Write(&sb, league, Options{}))

	out := sb.String()
	assert.Contains(t, out, "=== Players (12 total) ===")
	assert.Contains(t, out, "Player 10 (G)")
	assert.NotContains(t, out, "Player 11 (G)")
	assert.Contains(t, out, "  ...\n\nDone! Encoding fixed.\n")
}

func TestWritePlainExactlyLimitHasNoEllipsis(t *testing.T) {
	var sb strings.Builder
	require.NoError(t, Write(&sb, &models.League{Players: players(10)}, Options{}))
	assert.NotContains(t, sb.String(), "...")
}

func TestWriteCustomPreviewLimit(t *testing.T) {
	var sb strings.Builder
	require.NoError(t, Write(&sb, &models.League{Players: players(5)}, Options{PreviewLimit: 2}))

	out := sb.String()
	assert.Contains(t, out, "Player 2 (G)")
	assert.NotContains(t, out, "Player 3 (G)")
	assert.Contains(t, out, "  ...")
}

func TestWriteTableAlignsByDisplayWidth(t *testing.T) {
	if runewidth.EastAsianWidth {
		t.Skip("Cyrillic is double width under an East Asian locale")
	}
	league := &models.League{
		Teams: []models.Team{
			{ID: "team-001", Name: "33 Sparks", School: "33-р сургууль", City: "Улаанбаатар"},
			{ID: "t2", Name: "東京", School: "Tech", City: "Tokyo"},
		},
		Players: []models.Player{{Name: "José", Position: "PG", Height: "6-2", TeamID: "team-001"}},
	}

	var sb strings.Builder
	require.NoError(t, Write(&sb, league, Options{Format: FormatTable}))

	lines := strings.Split(sb.String(), "\n")
	assert.Equal(t, "  ID        NAME       SCHOOL         CITY", lines[1])
	assert.Equal(t, "  team-001  33 Sparks  33-р сургууль  Улаанбаатар", lines[2])
	assert.Equal(t, "  t2        東京       Tech           Tokyo", lines[3])
	assert.Equal(t, "  NAME  POSITION  HEIGHT  TEAM", lines[6])
	assert.Equal(t, "  José  PG        6-2     team-001", lines[7])
}

func TestWriteTableEmptyTeams(t *testing.T) {
	var sb strings.Builder
	require.NoError(t, Write(&sb, &models.League{}, Options{Format: FormatTable}))
	assert.Equal(t, "=== Teams ===\n\n=== Players (0 total) ===\n\nDone! Encoding fixed.\n", sb.String())
}

func players(n int) []models.Player {
	out := make([]models.Player, 0, n)
	for i := 1; i <= n; i++ {
		out = append(out, models.Player{
			Name:     fmt.Sprintf("Player %d", i),
			Position: "G",
			Height:   "180",
			TeamID:   "t1",
		})
	}
	return out
}
