package db

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/Zenithi77/sain-league/internal/models"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Every table is keyed by season so several seasons can live side by side
const schemaDDL = `
CREATE TABLE IF NOT EXISTS league_seasons (
    id          TEXT PRIMARY KEY,
    name        TEXT NOT NULL DEFAULT '',
    year        INTEGER NOT NULL DEFAULT 0,
    start_date  TEXT NOT NULL DEFAULT '',
    end_date    TEXT NOT NULL DEFAULT '',
    is_active   BOOLEAN NOT NULL DEFAULT TRUE,
    updated_at  TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS league_teams (
    season_id        TEXT NOT NULL,
    id               TEXT NOT NULL,
    name             TEXT NOT NULL,
    short_name       TEXT NOT NULL DEFAULT '',
    school           TEXT NOT NULL DEFAULT '',
    city             TEXT NOT NULL DEFAULT '',
    logo             TEXT NOT NULL DEFAULT '',
    coach            TEXT NOT NULL DEFAULT '',
    primary_color    TEXT NOT NULL DEFAULT '#333',
    secondary_color  TEXT NOT NULL DEFAULT '#fff',
    updated_at       TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP,
    PRIMARY KEY (season_id, id)
);

CREATE TABLE IF NOT EXISTS league_players (
    season_id   TEXT NOT NULL,
    id          TEXT NOT NULL,
    team_id     TEXT NOT NULL,
    name        TEXT NOT NULL,
    number      INTEGER NOT NULL DEFAULT 0,
    position    TEXT NOT NULL DEFAULT '',
    height      TEXT NOT NULL DEFAULT '',
    weight      TEXT NOT NULL DEFAULT '',
    age         INTEGER NOT NULL DEFAULT 0,
    image       TEXT NOT NULL DEFAULT '',
    updated_at  TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP,
    PRIMARY KEY (season_id, id)
);

CREATE INDEX IF NOT EXISTS idx_league_players_team_id ON league_players (season_id, team_id);

CREATE TABLE IF NOT EXISTS league_games (
    season_id     TEXT NOT NULL,
    id            TEXT NOT NULL,
    game_date     TEXT NOT NULL DEFAULT '',
    home_team_id  TEXT NOT NULL DEFAULT '',
    away_team_id  TEXT NOT NULL DEFAULT '',
    home_score    INTEGER NOT NULL DEFAULT 0,
    away_score    INTEGER NOT NULL DEFAULT 0,
    status        TEXT NOT NULL DEFAULT 'scheduled',
    updated_at    TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP,
    PRIMARY KEY (season_id, id)
);

CREATE TABLE IF NOT EXISTS league_boxscores (
    season_id        TEXT NOT NULL,
    game_id          TEXT NOT NULL,
    id               TEXT NOT NULL,
    team_id          TEXT NOT NULL,
    player_name      TEXT NOT NULL,
    jersey_number    INTEGER NOT NULL DEFAULT 0,
    minutes          DOUBLE PRECISION NOT NULL DEFAULT 0,
    points           INTEGER NOT NULL DEFAULT 0,
    rebounds         INTEGER NOT NULL DEFAULT 0,
    assists          INTEGER NOT NULL DEFAULT 0,
    steals           INTEGER NOT NULL DEFAULT 0,
    blocks           INTEGER NOT NULL DEFAULT 0,
    turnovers        INTEGER NOT NULL DEFAULT 0,
    fouls            INTEGER NOT NULL DEFAULT 0,
    fg_made          INTEGER NOT NULL DEFAULT 0,
    fg_attempted     INTEGER NOT NULL DEFAULT 0,
    three_made       INTEGER NOT NULL DEFAULT 0,
    three_attempted  INTEGER NOT NULL DEFAULT 0,
    ft_made          INTEGER NOT NULL DEFAULT 0,
    ft_attempted     INTEGER NOT NULL DEFAULT 0,
    updated_at       TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP,
    PRIMARY KEY (season_id, game_id, id)
);

CREATE TABLE IF NOT EXISTS league_team_aggregates (
    season_id       TEXT NOT NULL,
    team_id         TEXT NOT NULL,
    wins            INTEGER NOT NULL DEFAULT 0,
    losses          INTEGER NOT NULL DEFAULT 0,
    games_played    INTEGER NOT NULL DEFAULT 0,
    points_for      INTEGER NOT NULL DEFAULT 0,
    points_against  INTEGER NOT NULL DEFAULT 0,
    home_wins       INTEGER NOT NULL DEFAULT 0,
    home_losses     INTEGER NOT NULL DEFAULT 0,
    road_wins       INTEGER NOT NULL DEFAULT 0,
    road_losses     INTEGER NOT NULL DEFAULT 0,
    updated_at      TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP,
    PRIMARY KEY (season_id, team_id)
);

CREATE TABLE IF NOT EXISTS league_player_aggregates (
    season_id        TEXT NOT NULL,
    player_id        TEXT NOT NULL,
    team_id          TEXT NOT NULL,
    player_name      TEXT NOT NULL,
    jersey_number    INTEGER NOT NULL DEFAULT 0,
    games_played     INTEGER NOT NULL DEFAULT 0,
    minutes          DOUBLE PRECISION NOT NULL DEFAULT 0,
    points           INTEGER NOT NULL DEFAULT 0,
    rebounds         INTEGER NOT NULL DEFAULT 0,
    assists          INTEGER NOT NULL DEFAULT 0,
    steals           INTEGER NOT NULL DEFAULT 0,
    blocks           INTEGER NOT NULL DEFAULT 0,
    turnovers        INTEGER NOT NULL DEFAULT 0,
    fouls            INTEGER NOT NULL DEFAULT 0,
    fg_made          INTEGER NOT NULL DEFAULT 0,
    fg_attempted     INTEGER NOT NULL DEFAULT 0,
    three_made       INTEGER NOT NULL DEFAULT 0,
    three_attempted  INTEGER NOT NULL DEFAULT 0,
    ft_made          INTEGER NOT NULL DEFAULT 0,
    ft_attempted     INTEGER NOT NULL DEFAULT 0,
    updated_at       TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP,
    PRIMARY KEY (season_id, player_id)
);

CREATE TABLE IF NOT EXISTS league_standings (
    season_id       TEXT NOT NULL,
    team_id         TEXT NOT NULL,
    rank            INTEGER NOT NULL,
    wins            INTEGER NOT NULL,
    losses          INTEGER NOT NULL,
    games_played    INTEGER NOT NULL,
    pct             DOUBLE PRECISION NOT NULL,
    points_for      INTEGER NOT NULL,
    points_against  INTEGER NOT NULL,
    diff            INTEGER NOT NULL,
    games_behind    DOUBLE PRECISION NOT NULL,
    home            TEXT NOT NULL,
    road            TEXT NOT NULL,
    streak          TEXT NOT NULL,
    l10             TEXT NOT NULL,
    updated_at      TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP,
    PRIMARY KEY (season_id, team_id)
);
`

const upsertSeasonSQL = `
	INSERT INTO league_seasons (id, name, year, start_date, end_date, is_active, updated_at)
	VALUES ($1, $2, $3, $4, $5, $6, CURRENT_TIMESTAMP)
	ON CONFLICT (id) DO UPDATE
	SET name = EXCLUDED.name,
	    year = EXCLUDED.year,
	    start_date = EXCLUDED.start_date,
	    end_date = EXCLUDED.end_date,
	    is_active = EXCLUDED.is_active,
	    updated_at = CURRENT_TIMESTAMP
`

const upsertTeamSQL = `
	INSERT INTO league_teams (season_id, id, name, short_name, school, city, logo, coach, primary_color, secondary_color, updated_at)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, CURRENT_TIMESTAMP)
	ON CONFLICT (season_id, id) DO UPDATE
	SET name = EXCLUDED.name,
	    short_name = EXCLUDED.short_name,
	    school = EXCLUDED.school,
	    city = EXCLUDED.city,
	    logo = EXCLUDED.logo,
	    coach = EXCLUDED.coach,
	    primary_color = EXCLUDED.primary_color,
	    secondary_color = EXCLUDED.secondary_color,
	    updated_at = CURRENT_TIMESTAMP
`

const upsertPlayerSQL = `
	INSERT INTO league_players (season_id, id, team_id, name, number, position, height, weight, age, image, updated_at)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, CURRENT_TIMESTAMP)
	ON CONFLICT (season_id, id) DO UPDATE
	SET team_id = EXCLUDED.team_id,
	    name = EXCLUDED.name,
	    number = EXCLUDED.number,
	    position = EXCLUDED.position,
	    height = EXCLUDED.height,
	    weight = EXCLUDED.weight,
	    age = EXCLUDED.age,
	    image = EXCLUDED.image,
	    updated_at = CURRENT_TIMESTAMP
`

const upsertGameSQL = `
	INSERT INTO league_games (season_id, id, game_date, home_team_id, away_team_id, home_score, away_score, status, updated_at)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, CURRENT_TIMESTAMP)
	ON CONFLICT (season_id, id) DO UPDATE
	SET game_date = EXCLUDED.game_date,
	    home_team_id = EXCLUDED.home_team_id,
	    away_team_id = EXCLUDED.away_team_id,
	    home_score = EXCLUDED.home_score,
	    away_score = EXCLUDED.away_score,
	    status = EXCLUDED.status,
	    updated_at = CURRENT_TIMESTAMP
`

const upsertBoxscoreSQL = `
	INSERT INTO league_boxscores (season_id, game_id, id, team_id, player_name, jersey_number,
	    minutes, points, rebounds, assists, steals, blocks, turnovers, fouls,
	    fg_made, fg_attempted, three_made, three_attempted, ft_made, ft_attempted, updated_at)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20, CURRENT_TIMESTAMP)
	ON CONFLICT (season_id, game_id, id) DO UPDATE
	SET team_id = EXCLUDED.team_id,
	    player_name = EXCLUDED.player_name,
	    jersey_number = EXCLUDED.jersey_number,
	    minutes = EXCLUDED.minutes,
	    points = EXCLUDED.points,
	    rebounds = EXCLUDED.rebounds,
	    assists = EXCLUDED.assists,
	    steals = EXCLUDED.steals,
	    blocks = EXCLUDED.blocks,
	    turnovers = EXCLUDED.turnovers,
	    fouls = EXCLUDED.fouls,
	    fg_made = EXCLUDED.fg_made,
	    fg_attempted = EXCLUDED.fg_attempted,
	    three_made = EXCLUDED.three_made,
	    three_attempted = EXCLUDED.three_attempted,
	    ft_made = EXCLUDED.ft_made,
	    ft_attempted = EXCLUDED.ft_attempted,
	    updated_at = CURRENT_TIMESTAMP
`

const upsertTeamAggregateSQL = `
	INSERT INTO league_team_aggregates (season_id, team_id, wins, losses, games_played, points_for, points_against,
	    home_wins, home_losses, road_wins, road_losses, updated_at)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, CURRENT_TIMESTAMP)
	ON CONFLICT (season_id, team_id) DO UPDATE
	SET wins = EXCLUDED.wins,
	    losses = EXCLUDED.losses,
	    games_played = EXCLUDED.games_played,
	    points_for = EXCLUDED.points_for,
	    points_against = EXCLUDED.points_against,
	    home_wins = EXCLUDED.home_wins,
	    home_losses = EXCLUDED.home_losses,
	    road_wins = EXCLUDED.road_wins,
	    road_losses = EXCLUDED.road_losses,
	    updated_at = CURRENT_TIMESTAMP
`

const upsertPlayerAggregateSQL = `
	INSERT INTO league_player_aggregates (season_id, player_id, team_id, player_name, jersey_number, games_played,
	    minutes, points, rebounds, assists, steals, blocks, turnovers, fouls,
	    fg_made, fg_attempted, three_made, three_attempted, ft_made, ft_attempted, updated_at)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20, CURRENT_TIMESTAMP)
	ON CONFLICT (season_id, player_id) DO UPDATE
	SET team_id = EXCLUDED.team_id,
	    player_name = EXCLUDED.player_name,
	    jersey_number = EXCLUDED.jersey_number,
	    games_played = EXCLUDED.games_played,
	    minutes = EXCLUDED.minutes,
	    points = EXCLUDED.points,
	    rebounds = EXCLUDED.rebounds,
	    assists = EXCLUDED.assists,
	    steals = EXCLUDED.steals,
	    blocks = EXCLUDED.blocks,
	    turnovers = EXCLUDED.turnovers,
	    fouls = EXCLUDED.fouls,
	    fg_made = EXCLUDED.fg_made,
	    fg_attempted = EXCLUDED.fg_attempted,
	    three_made = EXCLUDED.three_made,
	    three_attempted = EXCLUDED.three_attempted,
	    ft_made = EXCLUDED.ft_made,
	    ft_attempted = EXCLUDED.ft_attempted,
	    updated_at = CURRENT_TIMESTAMP
`

// The standings table is a cache: it is replaced wholesale for the season
const deleteStandingsSQL = `DELETE FROM league_standings WHERE season_id = $1`

const insertStandingSQL = `
	INSERT INTO league_standings (season_id, team_id, rank, wins, losses, games_played, pct,
	    points_for, points_against, diff, games_behind, home, road, streak, l10, updated_at)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, CURRENT_TIMESTAMP)
`

// PostgresRepository stores league seasons
type PostgresRepository struct {
	pool   *pgxpool.Pool
	logger *slog.Logger
}

func NewPostgresRepository(ctx context.Context, connString string, logger *slog.Logger) (*PostgresRepository, error) {
	config, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, fmt.Errorf("failed to parse postgres config: %w", err)
	}
	config.MaxConns = 4

	p, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("failed to create postgres pool: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := p.Ping(pingCtx); err != nil {
		p.Close()
		return nil, fmt.Errorf("postgres ping failed: %w", err)
	}

	logger.Info("Connected to Postgres successfully", "host", config.ConnConfig.Host, "database", config.ConnConfig.Database)

	return &PostgresRepository{pool: p, logger: logger}, nil
}

// EnsureSchema creates the season tables when they are missing
func (r *PostgresRepository) EnsureSchema(ctx context.Context) error {
	opCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	if _, err := r.pool.Exec(opCtx, schemaDDL); err != nil {
		return fmt.Errorf("failed to create season schema: %w", err)
	}
	return nil
}

// UpsertSeason writes the whole season in a single transaction: the season row, teams,
// players, games with boxscores, aggregates, then the rebuilt standings cache.
func (r *PostgresRepository) UpsertSeason(ctx context.Context, a *models.SeasonArchive) error {
	opCtx, cancel := context.WithTimeout(ctx, 60*time.Second)
	defer cancel()

	tx, err := r.pool.Begin(opCtx)
	if err != nil {
		return fmt.Errorf("failed to start transaction: %w", err)
	}
	// Rollback is a no-op after Commit
	defer tx.Rollback(opCtx)

	batch := seasonBatch(a)

	br := tx.SendBatch(opCtx, batch)
	for i := 0; i < batch.Len(); i++ {
		if _, err := br.Exec(); err != nil {
			br.Close()
			return fmt.Errorf("upsert statement %d failed: %w", i, err)
		}
	}
	if err := br.Close(); err != nil {
		return fmt.Errorf("failed to close batch: %w", err)
	}

	if err := tx.Commit(opCtx); err != nil {
		return fmt.Errorf("commit failed: %w", err)
	}

	r.logger.Debug("Season upserted",
		"season_id", a.Season.ID,
		"statements", batch.Len(),
	)
	return nil
}

// seasonBatch queues the statements in write order. Teams go before players and
// games before boxscores so later foreign keys would hold.
func seasonBatch(a *models.SeasonArchive) *pgx.Batch {
	sid := a.Season.ID
	batch := &pgx.Batch{}

	s := a.Season
	batch.Queue(upsertSeasonSQL, s.ID, s.Name, s.Year, s.StartDate, s.EndDate, s.IsActive)

	for _, t := range a.Teams {
		batch.Queue(upsertTeamSQL, sid, t.ID, t.Name, t.ShortName, t.School, t.City, t.Logo, t.Coach, t.PrimaryColor, t.SecondaryColor)
	}
	for _, p := range a.Players {
		batch.Queue(upsertPlayerSQL, sid, p.ID, p.TeamID, p.Name, p.Number, p.Position, p.Height, p.Weight, p.Age, p.Image)
	}
	for _, g := range a.Games {
		batch.Queue(upsertGameSQL, sid, g.ID, g.Date, g.HomeTeamID, g.AwayTeamID, g.HomeScore, g.AwayScore, g.Status)
		for _, b := range g.Boxscores {
			l := b.StatLine
			batch.Queue(upsertBoxscoreSQL, sid, g.ID, b.ID, b.TeamID, b.PlayerName, b.JerseyNumber,
				l.Minutes, l.Points, l.Rebounds, l.Assists, l.Steals, l.Blocks, l.Turnovers, l.Fouls,
				l.FGMade, l.FGAttempted, l.ThreeMade, l.ThreeAttempted, l.FTMade, l.FTAttempted)
		}
	}
	for _, t := range a.TeamAggregates {
		batch.Queue(upsertTeamAggregateSQL, sid, t.TeamID, t.Wins, t.Losses, t.GamesPlayed, t.PointsFor, t.PointsAgainst,
			t.HomeWins, t.HomeLosses, t.RoadWins, t.RoadLosses)
	}
	for _, p := range a.PlayerAggregates {
		l := p.StatLine
		batch.Queue(upsertPlayerAggregateSQL, sid, p.PlayerID, p.TeamID, p.PlayerName, p.JerseyNumber, p.GamesPlayed,
			l.Minutes, l.Points, l.Rebounds, l.Assists, l.Steals, l.Blocks, l.Turnovers, l.Fouls,
			l.FGMade, l.FGAttempted, l.ThreeMade, l.ThreeAttempted, l.FTMade, l.FTAttempted)
	}

	batch.Queue(deleteStandingsSQL, sid)
	for _, st := range a.Standings {
		batch.Queue(insertStandingSQL, sid, st.TeamID, st.Rank, st.Wins, st.Losses, st.GamesPlayed, st.Pct,
			st.PointsFor, st.PointsAgainst, st.Diff, st.GamesBehind, st.Home, st.Road, st.Streak, st.L10)
	}

	return batch
}

func (r *PostgresRepository) Close() {
	r.logger.Info("Closing Postgres connection pool")
	r.pool.Close()
}
