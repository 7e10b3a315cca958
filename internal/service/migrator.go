package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/Zenithi77/sain-league/internal/document"
	"github.com/Zenithi77/sain-league/internal/models"
	"github.com/Zenithi77/sain-league/pkg/encoding"
	"github.com/Zenithi77/sain-league/pkg/metrics"
	"github.com/google/uuid"
)

var ErrPublish = errors.New("publish migration event")

// SeasonRepository defines the persistence contract for the season import
type SeasonRepository interface {
	EnsureSchema(ctx context.Context) error
	UpsertSeason(ctx context.Context, archive *models.SeasonArchive) error
}

// EventPublisher defines the broker contract
type EventPublisher interface {
	PublishRosterMigrated(ctx context.Context, event models.RosterMigrated) error
}

type MigrationResult struct {
	SeasonID  string
	Teams     int
	Players   int
	Games     int
	Boxscores int
	EventID   string
}

// Migrator imports a repaired data file into Postgres and announces it on the broker
type Migrator struct {
	repo      SeasonRepository
	publisher EventPublisher
	logger    *slog.Logger
	now       func() time.Time
}

// NewMigrator wires the migrator. publisher may be nil to skip the announcement.
func NewMigrator(repo SeasonRepository, publisher EventPublisher, logger *slog.Logger) *Migrator {
	return &Migrator{
		repo:      repo,
		publisher: publisher,
		logger:    logger,
		now:       time.Now,
	}
}

// LoadSeason reads a data file as is, without any code page transform.
func LoadSeason(path string) (*models.SeasonArchive, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrRead, err)
	}
	if err := encoding.ValidateUTF8(data); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrDecode, err)
	}

	root, err := document.Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrParse, err)
	}

	archive, err := models.ArchiveFromDocument(root)
	if err != nil {
		return nil, fmt.Errorf("validate records: %w", err)
	}
	return archive, nil
}

// Migrate writes an archive loaded by LoadSeason. source names the data file in logs and the event.
func (m *Migrator) Migrate(ctx context.Context, source string, archive *models.SeasonArchive) (*MigrationResult, error) {
	start := m.now()

	result := &MigrationResult{
		SeasonID:  archive.Season.ID,
		Teams:     len(archive.Teams),
		Players:   len(archive.Players),
		Games:     len(archive.Games),
		Boxscores: archive.BoxscoreCount(),
	}

	l := m.logger.With("path", source, "season_id", result.SeasonID)
	l.Info("🏀 Migrating season",
		"season", archive.Season.Name,
		"teams", result.Teams,
		"players", result.Players,
		"games", result.Games,
		"boxscores", result.Boxscores,
	)

	if err := m.repo.EnsureSchema(ctx); err != nil {
		return nil, err
	}
	if err := m.repo.UpsertSeason(ctx, archive); err != nil {
		return nil, fmt.Errorf("season upsert failed: %w", err)
	}

	metrics.MigratedRecords.WithLabelValues(models.CollectionTeams).Add(float64(result.Teams))
	metrics.MigratedRecords.WithLabelValues(models.CollectionPlayers).Add(float64(result.Players))
	metrics.MigratedRecords.WithLabelValues(models.CollectionGames).Add(float64(result.Games))
	metrics.MigratedRecords.WithLabelValues("boxscores").Add(float64(result.Boxscores))
	metrics.MigratedRecords.WithLabelValues("standings").Add(float64(len(archive.Standings)))

	if m.publisher == nil {
		l.Info("✅ Season committed, broker announcement disabled", "duration_ms", time.Since(start).Milliseconds())
		return result, nil
	}

	event := models.RosterMigrated{
		EventID:   uuid.NewString(),
		Source:    source,
		SeasonID:  result.SeasonID,
		Teams:     result.Teams,
		Players:   result.Players,
		Games:     result.Games,
		Boxscores: result.Boxscores,
		Timestamp: m.now().UTC(),
	}
	if err := m.publisher.PublishRosterMigrated(ctx, event); err != nil {
		metrics.PublishedEvents.WithLabelValues("error").Inc()
		// The season is already committed; only the announcement is missing.
		return result, fmt.Errorf("%w: %w", ErrPublish, err)
	}
	metrics.PublishedEvents.WithLabelValues("confirmed").Inc()
	result.EventID = event.EventID

	l.Info("✅ Season committed and announced", "event_id", event.EventID, "duration_ms", time.Since(start).Milliseconds())
	return result, nil
}
