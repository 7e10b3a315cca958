package models

import "time"

// RosterMigrated is announced on the broker after a season import commits
type RosterMigrated struct {
	EventID   string    `json:"event_id"` // Unique ID for tracing (UUID)
	Source    string    `json:"source"`   // Path of the imported data file
	SeasonID  string    `json:"season_id"`
	Teams     int       `json:"teams"`
	Players   int       `json:"players"`
	Games     int       `json:"games"`
	Boxscores int       `json:"boxscores"`
	Timestamp time.Time `json:"timestamp"`
}
