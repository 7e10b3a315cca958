package models

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"

	"github.com/Zenithi77/sain-league/internal/document"
)

var (
	ErrMissingField = errors.New("missing required field")
	ErrInvalidField = errors.New("invalid field")
)

const (
	CollectionTeams   = "teams"
	CollectionPlayers = "players"
	CollectionGames   = "games"
)

// Team is the display view of an entry in the "teams" collection
type Team struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	School string `json:"school"`
	City   string `json:"city"`
}

// Player is the display view of an entry in the "players" collection.
// TeamID is not checked against the known teams.
type Player struct {
	ID       string `json:"id,omitempty"`
	Name     string `json:"name"`
	Position string `json:"position"`
	Height   string `json:"height"`
	TeamID   string `json:"teamId"`
}

type League struct {
	Teams   []Team
	Players []Player
}

// LeagueFromDocument extracts the team and player records from a parsed document.
func LeagueFromDocument(root any) (*League, error) {
	obj, ok := root.(*document.Object)
	if !ok {
		return nil, fmt.Errorf("%w: document root must be an object, got %s", ErrInvalidField, kindOf(root))
	}

	teams, err := records(obj, CollectionTeams)
	if err != nil {
		return nil, err
	}
	players, err := records(obj, CollectionPlayers)
	if err != nil {
		return nil, err
	}

	league := &League{
		Teams:   make([]Team, 0, len(teams)),
		Players: make([]Player, 0, len(players)),
	}

	for i, rec := range teams {
		r := fieldReader{rec: rec, path: fmt.Sprintf("%s[%d]", CollectionTeams, i)}
		team := Team{
			ID:     r.required("id"),
			Name:   r.required("name"),
			School: r.optional("school"),
			City:   r.optional("city"),
		}
		if r.err != nil {
			return nil, r.err
		}
		league.Teams = append(league.Teams, team)
	}

	for i, rec := range players {
		r := fieldReader{rec: rec, path: fmt.Sprintf("%s[%d]", CollectionPlayers, i)}
		player := Player{
			ID:       r.optional("id"),
			Name:     r.required("name"),
			Position: r.optional("position"),
			Height:   r.optional("height"),
			TeamID:   r.required("teamId"),
		}
		if r.err != nil {
			return nil, r.err
		}
		league.Players = append(league.Players, player)
	}

	return league, nil
}

func records(root *document.Object, collection string) ([]*document.Object, error) {
	v, ok := root.Get(collection)
	if !ok || v == nil {
		return nil, fmt.Errorf("%w: %s", ErrMissingField, collection)
	}
	arr, ok := v.([]any)
	if !ok {
		return nil, fmt.Errorf("%w: %s must be an array, got %s", ErrInvalidField, collection, kindOf(v))
	}

	out := make([]*document.Object, 0, len(arr))
	for i, item := range arr {
		rec, ok := item.(*document.Object)
		if !ok {
			return nil, fmt.Errorf("%w: %s[%d] must be an object, got %s", ErrInvalidField, collection, i, kindOf(item))
		}
		out = append(out, rec)
	}
	return out, nil
}

// fieldReader keeps the first extraction error so a record can be read field by field.
// A nil rec reads as an empty object.
type fieldReader struct {
	rec  *document.Object
	path string
	err  error
}

func (r *fieldReader) required(key string) string {
	s, present := r.read(key)
	if !present && r.err == nil {
		r.err = fmt.Errorf("%w: %s.%s", ErrMissingField, r.path, key)
	}
	return s
}

func (r *fieldReader) optional(key string) string {
	s, _ := r.read(key)
	return s
}

func (r *fieldReader) withDefault(key, def string) string {
	if s, present := r.read(key); present && s != "" {
		return s
	}
	return def
}

func (r *fieldReader) get(key string) (any, bool) {
	if r.err != nil || r.rec == nil {
		return nil, false
	}
	v, ok := r.rec.Get(key)
	if !ok || v == nil {
		return nil, false
	}
	return v, true
}

func (r *fieldReader) read(key string) (string, bool) {
	v, ok := r.get(key)
	if !ok {
		return "", false
	}

	switch t := v.(type) {
	case string:
		return t, true
	case json.Number:
		return t.String(), true
	case bool:
		if t {
			return "true", true
		}
		return "false", true
	default:
		r.err = fmt.Errorf("%w: %s.%s must be a scalar, got %s", ErrInvalidField, r.path, key, kindOf(v))
		return "", false
	}
}

// number reads a numeric field; a missing or null field is 0.
func (r *fieldReader) number(key string) float64 {
	v, ok := r.get(key)
	if !ok {
		return 0
	}
	n, isNum := v.(json.Number)
	if !isNum {
		r.err = fmt.Errorf("%w: %s.%s must be a number, got %s", ErrInvalidField, r.path, key, kindOf(v))
		return 0
	}
	f, err := n.Float64()
	if err != nil {
		r.err = fmt.Errorf("%w: %s.%s: %w", ErrInvalidField, r.path, key, err)
		return 0
	}
	return f
}

// integer reads a whole-number field; a missing or null field is 0.
func (r *fieldReader) integer(key string) int {
	f := r.number(key)
	if r.err != nil {
		return 0
	}
	if f != math.Trunc(f) {
		r.err = fmt.Errorf("%w: %s.%s must be a whole number, got %v", ErrInvalidField, r.path, key, f)
		return 0
	}
	return int(f)
}

func (r *fieldReader) boolean(key string, def bool) bool {
	v, ok := r.get(key)
	if !ok {
		return def
	}
	b, isBool := v.(bool)
	if !isBool {
		r.err = fmt.Errorf("%w: %s.%s must be a boolean, got %s", ErrInvalidField, r.path, key, kindOf(v))
		return def
	}
	return b
}

// child returns a reader over a nested object that shares this reader's error.
// A missing or null object yields a reader where every field is absent.
func (r *fieldReader) child(key string) *fieldReader {
	c := &fieldReader{path: r.path + "." + key}
	v, ok := r.get(key)
	if !ok {
		c.err = r.err
		return c
	}
	obj, isObj := v.(*document.Object)
	if !isObj {
		r.err = fmt.Errorf("%w: %s.%s must be an object, got %s", ErrInvalidField, r.path, key, kindOf(v))
		c.err = r.err
		return c
	}
	c.rec = obj
	return c
}

func kindOf(v any) string {
	switch v.(type) {
	case nil:
		return "null"
	case string:
		return "string"
	case json.Number:
		return "number"
	case bool:
		return "boolean"
	case []any:
		return "array"
	case *document.Object:
		return "object"
	default:
		return fmt.Sprintf("%T", v)
	}
}
