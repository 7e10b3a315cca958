package models

import (
	"testing"

	"github.com/Zenithi77/sain-league/internal/document"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func parse(t *testing.T, s string) any {
	t.Helper()
	v, err := document.Parse([]byte(s))
	require.NoError(t, err)
	return v
}

func TestLeagueFromDocument(t *testing.T) {
	root := parse(t, `{
		"season": {"id": "2026"},
		"teams": [
			{"id": 1, "name": "Lions", "school": "Tech", "city": "Metro"},
			{"id": "team-002", "name": "Emura Team", "conference": "west"}
		],
		"players": [
			{"id": "p-1", "name": "José", "position": "PG", "height": "6-2", "teamId": 1},
			{"name": "Анужин", "height": 165, "teamId": "team-002"}
		]
	}`)

	league, err := LeagueFromDocument(root)
	require.NoError(t, err)

	assert.Equal(t, []Team{
		{ID: "1", Name: "Lions", School: "Tech", City: "Metro"},
		{ID: "team-002", Name: "Emura Team"},
	}, league.Teams)
	assert.Equal(t, []Player{
		{ID: "p-1", Name: "José", Position: "PG", Height: "6-2", TeamID: "1"},
		{Name: "Анужин", Height: "165", TeamID: "team-002"},
	}, league.Players)
}

func TestLeagueFromDocumentEmptyCollections(t *testing.T) {
	league, err := LeagueFromDocument(parse(t, `{"teams":[],"players":[]}`))
	require.NoError(t, err)
	assert.Empty(t, league.Teams)
	assert.Empty(t, league.Players)
}

func TestLeagueFromDocumentMissingFields(t *testing.T) {
	cases := map[string]string{
		"no teams":        `{"players":[]}`,
		"null players":    `{"teams":[],"players":null}`,
		"team without id": `{"teams":[{"name":"Lions"}],"players":[]}`,
		"player no team":  `{"teams":[],"players":[{"name":"José"}]}`,
		"null name":       `{"teams":[{"id":1,"name":null}],"players":[]}`,
	}
	for name, in := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := LeagueFromDocument(parse(t, in))
			assert.ErrorIs(t, err, ErrMissingField)
		})
	}
}

func TestLeagueFromDocumentInvalidFields(t *testing.T) {
	cases := map[string]string{
		"root array":       `[]`,
		"teams object":     `{"teams":{},"players":[]}`,
		"player string":    `{"teams":[],"players":["José"]}`,
		"nested team name": `{"teams":[{"id":1,"name":{"en":"Lions"}}],"players":[]}`,
	}
	for name, in := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := LeagueFromDocument(parse(t, in))
			assert.ErrorIs(t, err, ErrInvalidField)
		})
	}
}

func TestMissingFieldNamesThePath(t *testing.T) {
	_, err := LeagueFromDocument(parse(t, `{"teams":[{"id":1,"name":"A"},{"id":2}],"players":[]}`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "teams[1].name")
}
