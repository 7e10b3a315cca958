package service

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/Zenithi77/sain-league/internal/models"
	"github.com/Zenithi77/sain-league/pkg/metrics"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSeasons struct {
	schemaErr error
	upsertErr error
	archive   *models.SeasonArchive
	calls     []string
}

func (f *fakeSeasons) EnsureSchema(context.Context) error {
	f.calls = append(f.calls, "schema")
	return f.schemaErr
}

func (f *fakeSeasons) UpsertSeason(_ context.Context, a *models.SeasonArchive) error {
	f.calls = append(f.calls, "upsert")
	f.archive = a
	return f.upsertErr
}

type fakePublisher struct {
	err    error
	events []models.RosterMigrated
}

func (f *fakePublisher) PublishRosterMigrated(_ context.Context, e models.RosterMigrated) error {
	f.events = append(f.events, e)
	return f.err
}

const repairedJSON = `{
    "season": {"id": "2026", "name": "Sain Girls League 2026", "year": 2026},
    "teams": [
        {"id": "team-001", "name": "33 Sparks", "school": "33-р сургууль", "city": "Улаанбаатар",
         "stats": {"wins": 1, "losses": 0, "pointsFor": 70, "pointsAgainst": 60}},
        {"id": "team-002", "name": "Hoops", "stats": {"wins": 0, "losses": 1, "pointsFor": 60, "pointsAgainst": 70}}
    ],
    "players": [
        {"id": "p-001", "name": "Анужин", "number": 7, "position": "PG", "height": "165 см", "teamId": "team-001"},
        {"name": "Сарангоо", "position": "SG", "teamId": "team-002"}
    ],
    "games": [
        {"id": "g-001", "homeTeamId": "team-001", "awayTeamId": "team-002", "homeScore": 70, "awayScore": 60,
         "status": "finished", "playerStats": [{"playerId": "p-001", "points": 21}]}
    ]
}`

func loadFixture(t *testing.T) (string, *models.SeasonArchive) {
	t.Helper()
	path := writeFixture(t, []byte(repairedJSON))
	archive, err := LoadSeason(path)
	require.NoError(t, err)
	return path, archive
}

func TestMigrateUpsertsAndPublishes(t *testing.T) {
	path, archive := loadFixture(t)
	repo := &fakeSeasons{}
	pub := &fakePublisher{}
	fixed := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	m := NewMigrator(repo, pub, discardLogger())
	m.now = func() time.Time { return fixed }
	confirmedBefore := testutil.ToFloat64(metrics.PublishedEvents.WithLabelValues("confirmed"))
	boxscoresBefore := testutil.ToFloat64(metrics.MigratedRecords.WithLabelValues("boxscores"))

	res, err := m.Migrate(context.Background(), path, archive)
	require.NoError(t, err)

	assert.Equal(t, []string{"schema", "upsert"}, repo.calls)
	assert.Same(t, archive, repo.archive)
	assert.Equal(t, &MigrationResult{
		SeasonID:  "2026",
		Teams:     2,
		Players:   2,
		Games:     1,
		Boxscores: 1,
		EventID:   res.EventID,
	}, res)

	require.Len(t, pub.events, 1)
	ev := pub.events[0]
	assert.Equal(t, res.EventID, ev.EventID)
	assert.Equal(t, path, ev.Source)
	assert.Equal(t, "2026", ev.SeasonID)
	assert.Equal(t, 2, ev.Teams)
	assert.Equal(t, 2, ev.Players)
	assert.Equal(t, 1, ev.Games)
	assert.Equal(t, 1, ev.Boxscores)
	assert.Equal(t, fixed, ev.Timestamp)
	_, err = uuid.Parse(ev.EventID)
	assert.NoError(t, err)

	assert.Equal(t, confirmedBefore+1, testutil.ToFloat64(metrics.PublishedEvents.WithLabelValues("confirmed")))
	assert.Equal(t, boxscoresBefore+1, testutil.ToFloat64(metrics.MigratedRecords.WithLabelValues("boxscores")))
}

func TestLoadSeasonBuildsArchive(t *testing.T) {
	_, archive := loadFixture(t)

	assert.Equal(t, "Sain Girls League 2026", archive.Season.Name)
	require.Len(t, archive.Players, 2)
	assert.Equal(t, models.PlayerKey("team-002", "Сарангоо"), archive.Players[1].ID)

	require.Len(t, archive.Games, 1)
	require.Len(t, archive.Games[0].Boxscores, 1)
	assert.Equal(t, "team-001__анужин", archive.Games[0].Boxscores[0].ID)
	assert.Equal(t, 7, archive.Games[0].Boxscores[0].JerseyNumber)

	require.Len(t, archive.Standings, 2)
	assert.Equal(t, "team-001", archive.Standings[0].TeamID)
	assert.Equal(t, 1.0, archive.Standings[1].GamesBehind)
}

func TestMigrateWithoutPublisher(t *testing.T) {
	path, archive := loadFixture(t)

	res, err := NewMigrator(&fakeSeasons{}, nil, discardLogger()).Migrate(context.Background(), path, archive)
	require.NoError(t, err)
	assert.Empty(t, res.EventID)
}

func TestMigrateSchemaFailureSkipsUpsert(t *testing.T) {
	path, archive := loadFixture(t)
	repo := &fakeSeasons{schemaErr: errors.New("permission denied for schema public")}

	_, err := NewMigrator(repo, nil, discardLogger()).Migrate(context.Background(), path, archive)
	assert.ErrorIs(t, err, repo.schemaErr)
	assert.Equal(t, []string{"schema"}, repo.calls)
}

func TestMigrateUpsertFailureSkipsPublish(t *testing.T) {
	path, archive := loadFixture(t)
	pub := &fakePublisher{}
	boom := errors.New("deadlock detected")

	_, err := NewMigrator(&fakeSeasons{upsertErr: boom}, pub, discardLogger()).Migrate(context.Background(), path, archive)
	assert.ErrorIs(t, err, boom)
	assert.Empty(t, pub.events)
}

func TestMigratePublishFailureKeepsResult(t *testing.T) {
	path, archive := loadFixture(t)
	pub := &fakePublisher{err: errors.New("RabbitMQ NACK received")}

	res, err := NewMigrator(&fakeSeasons{}, pub, discardLogger()).Migrate(context.Background(), path, archive)
	require.ErrorIs(t, err, ErrPublish)
	require.NotNil(t, res)
	assert.Equal(t, 2, res.Teams)
	assert.Empty(t, res.EventID)
}

func TestLoadSeasonErrors(t *testing.T) {
	_, err := LoadSeason(writeFixture(t, []byte{'{', 0xff, '}'}))
	assert.ErrorIs(t, err, ErrDecode)

	_, err = LoadSeason(writeFixture(t, []byte(`{"teams":[`)))
	assert.ErrorIs(t, err, ErrParse)

	_, err = LoadSeason(writeFixture(t, []byte(`{"teams":[]}`)))
	assert.ErrorIs(t, err, models.ErrMissingField)

	_, err = LoadSeason(writeFixture(t, []byte(`{"teams":[],"players":[]}`)))
	assert.ErrorIs(t, err, models.ErrMissingField)
	assert.ErrorContains(t, err, "season")

	_, err = LoadSeason(writeFixture(t, nil) + ".missing")
	assert.ErrorIs(t, err, os.ErrNotExist)
}
