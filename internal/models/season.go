package models

import (
	"cmp"
	"fmt"
	"slices"
	"strings"

	"github.com/Zenithi77/sain-league/internal/document"
	"github.com/google/uuid"
)

// playerNamespace seeds the UUIDv5 ids of players that carry no id of their own
var playerNamespace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("https://sain-league/players"))

// UnknownTeam is the team of a boxscore whose player is not on any roster
const UnknownTeam = "unknown"

type Season struct {
	ID        string
	Name      string
	Year      int
	StartDate string
	EndDate   string
	IsActive  bool
}

// TeamRecord is a team with the fields only the migration stores
type TeamRecord struct {
	Team
	ShortName      string
	Logo           string
	Coach          string
	PrimaryColor   string
	SecondaryColor string
}

// PlayerRecord is a player with the fields only the migration stores
type PlayerRecord struct {
	Player
	Number int
	Weight string
	Age    int
	Image  string
}

// StatLine is a basketball box line: per game in a Boxscore, season totals in a PlayerAggregate
type StatLine struct {
	Minutes        float64
	Points         int
	Rebounds       int
	Assists        int
	Steals         int
	Blocks         int
	Turnovers      int
	Fouls          int
	FGMade         int
	FGAttempted    int
	ThreeMade      int
	ThreeAttempted int
	FTMade         int
	FTAttempted    int
}

type Game struct {
	ID         string
	Date       string
	HomeTeamID string
	AwayTeamID string
	HomeScore  int
	AwayScore  int
	Status     string
	Boxscores  []Boxscore
}

// Boxscore is one player's line in one game. ID is "<teamId>__<lower_snake_name>".
type Boxscore struct {
	ID           string
	PlayerID     string
	TeamID       string
	PlayerName   string
	JerseyNumber int
	StatLine
}

type TeamAggregate struct {
	TeamID        string
	Wins          int
	Losses        int
	GamesPlayed   int
	PointsFor     int
	PointsAgainst int
	// Split records are not in the data file; they stay 0 until recomputed from games
	HomeWins   int
	HomeLosses int
	RoadWins   int
	RoadLosses int
}

type PlayerAggregate struct {
	PlayerID     string
	TeamID       string
	PlayerName   string
	JerseyNumber int
	GamesPlayed  int
	StatLine
}

// Standing is one row of the cached standings table
type Standing struct {
	Rank          int
	TeamID        string
	Wins          int
	Losses        int
	GamesPlayed   int
	Pct           float64
	PointsFor     int
	PointsAgainst int
	Diff          int
	GamesBehind   float64
	Home          string
	Road          string
	Streak        string
	L10           string
}

// SeasonArchive is everything the migration writes for one season
type SeasonArchive struct {
	Season           Season
	Teams            []TeamRecord
	Players          []PlayerRecord
	Games            []Game
	TeamAggregates   []TeamAggregate
	PlayerAggregates []PlayerAggregate
	Standings        []Standing
}

func (a *SeasonArchive) BoxscoreCount() int {
	n := 0
	for _, g := range a.Games {
		n += len(g.Boxscores)
	}
	return n
}

type statKeys struct {
	minutes, points, rebounds, assists, steals, blocks, turnovers, fouls string
	fgMade, fgAttempted, threeMade, threeAttempted, ftMade, ftAttempted   string
}

var (
	gameStatKeys = statKeys{
		minutes: "minutes", points: "points", rebounds: "rebounds", assists: "assists",
		steals: "steals", blocks: "blocks", turnovers: "turnovers", fouls: "fouls",
		fgMade: "fgMade", fgAttempted: "fgAttempted", threeMade: "threeMade",
		threeAttempted: "threeAttempted", ftMade: "ftMade", ftAttempted: "ftAttempted",
	}
	seasonStatKeys = statKeys{
		minutes: "minutesPlayed", points: "totalPoints", rebounds: "totalRebounds", assists: "totalAssists",
		steals: "totalSteals", blocks: "totalBlocks", turnovers: "totalTurnovers", fouls: "totalFouls",
		fgMade: "fieldGoalsMade", fgAttempted: "fieldGoalsAttempted", threeMade: "threePointersMade",
		threeAttempted: "threePointersAttempted", ftMade: "freeThrowsMade", ftAttempted: "freeThrowsAttempted",
	}
)

func (r *fieldReader) statLine(k statKeys) StatLine {
	return StatLine{
		Minutes:        r.number(k.minutes),
		Points:         r.integer(k.points),
		Rebounds:       r.integer(k.rebounds),
		Assists:        r.integer(k.assists),
		Steals:         r.integer(k.steals),
		Blocks:         r.integer(k.blocks),
		Turnovers:      r.integer(k.turnovers),
		Fouls:          r.integer(k.fouls),
		FGMade:         r.integer(k.fgMade),
		FGAttempted:    r.integer(k.fgAttempted),
		ThreeMade:      r.integer(k.threeMade),
		ThreeAttempted: r.integer(k.threeAttempted),
		FTMade:         r.integer(k.ftMade),
		FTAttempted:    r.integer(k.ftAttempted),
	}
}

// ArchiveFromDocument extracts a whole season from a parsed data file: the season itself,
// teams, players, games with their boxscores, the stored aggregates and the standings
// derived from them. Teams and players are validated exactly as LeagueFromDocument does;
// "season" with an "id" is required, "games" may be absent.
//
// Players without an id get a UUIDv5 of teamId and name, so reruns upsert the same rows.
func ArchiveFromDocument(root any) (*SeasonArchive, error) {
	league, err := LeagueFromDocument(root)
	if err != nil {
		return nil, err
	}
	obj := root.(*document.Object)

	seasonRec, ok := obj.Get("season")
	if !ok || seasonRec == nil {
		return nil, fmt.Errorf("%w: season", ErrMissingField)
	}
	sobj, ok := seasonRec.(*document.Object)
	if !ok {
		return nil, fmt.Errorf("%w: season must be an object, got %s", ErrInvalidField, kindOf(seasonRec))
	}
	sr := fieldReader{rec: sobj, path: "season"}
	archive := &SeasonArchive{
		Season: Season{
			ID:        sr.required("id"),
			Name:      sr.optional("name"),
			Year:      sr.integer("year"),
			StartDate: sr.optional("startDate"),
			EndDate:   sr.optional("endDate"),
			IsActive:  sr.boolean("isActive", true),
		},
	}
	if sr.err != nil {
		return nil, sr.err
	}

	if err := archive.readTeams(obj, league.Teams); err != nil {
		return nil, err
	}
	if err := archive.readPlayers(obj, league.Players); err != nil {
		return nil, err
	}
	if err := archive.readGames(obj); err != nil {
		return nil, err
	}
	archive.Standings = BuildStandings(archive.TeamAggregates)

	return archive, nil
}

func (a *SeasonArchive) readTeams(root *document.Object, teams []Team) error {
	recs, err := records(root, CollectionTeams)
	if err != nil {
		return err
	}
	for i, rec := range recs {
		r := &fieldReader{rec: rec, path: fmt.Sprintf("%s[%d]", CollectionTeams, i)}
		coach := r.child("coach")
		colors := r.child("colors")
		stats := r.child("stats")

		team := TeamRecord{
			Team:           teams[i],
			ShortName:      r.optional("shortName"),
			Logo:           r.optional("logo"),
			Coach:          coach.optional("name"),
			PrimaryColor:   colors.withDefault("primary", "#333"),
			SecondaryColor: colors.withDefault("secondary", "#fff"),
		}
		agg := TeamAggregate{
			TeamID:        team.ID,
			Wins:          stats.integer("wins"),
			Losses:        stats.integer("losses"),
			GamesPlayed:   stats.integer("gamesPlayed"),
			PointsFor:     stats.integer("pointsFor"),
			PointsAgainst: stats.integer("pointsAgainst"),
		}
		if err := firstErr(r, coach, colors, stats); err != nil {
			return err
		}
		a.Teams = append(a.Teams, team)
		a.TeamAggregates = append(a.TeamAggregates, agg)
	}
	return nil
}

func (a *SeasonArchive) readPlayers(root *document.Object, players []Player) error {
	recs, err := records(root, CollectionPlayers)
	if err != nil {
		return err
	}
	for i, rec := range recs {
		r := &fieldReader{rec: rec, path: fmt.Sprintf("%s[%d]", CollectionPlayers, i)}
		stats := r.child("stats")

		p := PlayerRecord{
			Player: players[i],
			Number: r.integer("number"),
			Weight: r.optional("weight"),
			Age:    r.integer("age"),
			Image:  r.optional("image"),
		}
		if p.ID == "" {
			p.ID = PlayerKey(p.TeamID, p.Name)
		}
		agg := PlayerAggregate{
			PlayerID:     p.ID,
			TeamID:       p.TeamID,
			PlayerName:   p.Name,
			JerseyNumber: p.Number,
			GamesPlayed:  stats.integer("gamesPlayed"),
			StatLine:     stats.statLine(seasonStatKeys),
		}
		if err := firstErr(r, stats); err != nil {
			return err
		}
		a.Players = append(a.Players, p)
		a.PlayerAggregates = append(a.PlayerAggregates, agg)
	}
	return nil
}

func (a *SeasonArchive) readGames(root *document.Object) error {
	if v, ok := root.Get(CollectionGames); !ok || v == nil {
		return nil
	}
	recs, err := records(root, CollectionGames)
	if err != nil {
		return err
	}

	byID := make(map[string]PlayerRecord, len(a.Players))
	for _, p := range a.Players {
		byID[p.ID] = p
	}

	for i, rec := range recs {
		r := &fieldReader{rec: rec, path: fmt.Sprintf("%s[%d]", CollectionGames, i)}
		game := Game{
			ID:         r.required("id"),
			Date:       r.optional("date"),
			HomeTeamID: r.optional("homeTeamId"),
			AwayTeamID: r.optional("awayTeamId"),
			HomeScore:  r.integer("homeScore"),
			AwayScore:  r.integer("awayScore"),
			Status:     r.withDefault("status", "scheduled"),
		}
		if r.err != nil {
			return r.err
		}

		lines, err := optionalRecords(rec, r.path+".playerStats", "playerStats")
		if err != nil {
			return err
		}
		for j, line := range lines {
			lr := &fieldReader{rec: line, path: fmt.Sprintf("%s.playerStats[%d]", r.path, j)}
			box := Boxscore{
				PlayerID: lr.required("playerId"),
				StatLine: lr.statLine(gameStatKeys),
			}
			if lr.err != nil {
				return lr.err
			}

			box.TeamID, box.PlayerName = UnknownTeam, box.PlayerID
			if p, found := byID[box.PlayerID]; found {
				box.TeamID, box.PlayerName, box.JerseyNumber = p.TeamID, p.Name, p.Number
			}
			box.ID = BoxscoreID(box.TeamID, box.PlayerName)
			game.Boxscores = append(game.Boxscores, box)
		}

		a.Games = append(a.Games, game)
	}
	return nil
}

func optionalRecords(rec *document.Object, path, key string) ([]*document.Object, error) {
	v, ok := rec.Get(key)
	if !ok || v == nil {
		return nil, nil
	}
	arr, ok := v.([]any)
	if !ok {
		return nil, fmt.Errorf("%w: %s must be an array, got %s", ErrInvalidField, path, kindOf(v))
	}
	out := make([]*document.Object, 0, len(arr))
	for i, item := range arr {
		o, ok := item.(*document.Object)
		if !ok {
			return nil, fmt.Errorf("%w: %s[%d] must be an object, got %s", ErrInvalidField, path, i, kindOf(item))
		}
		out = append(out, o)
	}
	return out, nil
}

func firstErr(readers ...*fieldReader) error {
	for _, r := range readers {
		if r.err != nil {
			return r.err
		}
	}
	return nil
}

// PlayerKey is the stable id of a player that has none in the data file.
func PlayerKey(teamID, name string) string {
	return uuid.NewSHA1(playerNamespace, []byte(teamID+"/"+name)).String()
}

// BoxscoreID builds "<teamId>__<name>" with the name lowercased and whitespace runs joined by "_".
func BoxscoreID(teamID, playerName string) string {
	return teamID + "__" + strings.Join(strings.Fields(strings.ToLower(playerName)), "_")
}

// BuildStandings ranks teams by winning percentage, then point differential, and measures
// games behind against the leader. Teams that tie on both keep their data file order.
func BuildStandings(aggs []TeamAggregate) []Standing {
	rows := make([]Standing, 0, len(aggs))
	for _, a := range aggs {
		played := a.Wins + a.Losses
		pct := 0.0
		if played > 0 {
			pct = float64(a.Wins) / float64(played)
		}
		gp := a.GamesPlayed
		if gp == 0 {
			gp = played
		}
		rows = append(rows, Standing{
			TeamID:        a.TeamID,
			Wins:          a.Wins,
			Losses:        a.Losses,
			GamesPlayed:   gp,
			Pct:           pct,
			PointsFor:     a.PointsFor,
			PointsAgainst: a.PointsAgainst,
			Diff:          a.PointsFor - a.PointsAgainst,
			Home:          fmt.Sprintf("%d-%d", a.HomeWins, a.HomeLosses),
			Road:          fmt.Sprintf("%d-%d", a.RoadWins, a.RoadLosses),
			Streak:        "-",
			L10:           "-",
		})
	}

	slices.SortStableFunc(rows, func(x, y Standing) int {
		if c := cmp.Compare(y.Pct, x.Pct); c != 0 {
			return c
		}
		return cmp.Compare(y.Diff, x.Diff)
	})

	if len(rows) == 0 {
		return rows
	}
	leader := rows[0]
	for i := range rows {
		rows[i].Rank = i + 1
		rows[i].GamesBehind = float64(leader.Wins-rows[i].Wins+rows[i].Losses-leader.Losses) / 2
	}
	return rows
}
