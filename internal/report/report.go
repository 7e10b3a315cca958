// Package report prints the human-readable summary of a repaired league document.
package report

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/Zenithi77/sain-league/internal/models"
	"github.com/mattn/go-runewidth"
)

const (
	FormatPlain = "plain"
	FormatTable = "table"

	DefaultPreviewLimit = 10
)

type Options struct {
	Format       string
	PreviewLimit int
}

// Write prints every team, the player count and a preview of the first players,
// followed by the completion line. The ellipsis is only printed when players were left out.
func Write(w io.Writer, league *models.League, opts Options) error {
	limit := opts.PreviewLimit
	if limit <= 0 {
		limit = DefaultPreviewLimit
	}
	preview := league.Players
	if len(preview) > limit {
		preview = preview[:limit]
	}

	bw := bufio.NewWriter(w)

	fmt.Fprintln(bw, "=== Teams ===")
	switch opts.Format {
	case FormatTable:
		writeTeamTable(bw, league.Teams)
	default:
		for _, t := range league.Teams {
			fmt.Fprintf(bw, "  %s: %s - %s (%s)\n", t.ID, t.Name, t.School, t.City)
		}
	}

	fmt.Fprintf(bw, "\n=== Players (%d total) ===\n", len(league.Players))
	switch opts.Format {
	case FormatTable:
		writePlayerTable(bw, preview)
	default:
		for _, p := range preview {
			fmt.Fprintf(bw, "  %s (%s) - %s - Team: %s\n", p.Name, p.Position, p.Height, p.TeamID)
		}
	}
	if len(league.Players) > len(preview) {
		fmt.Fprintln(bw, "  ...")
	}

	fmt.Fprintln(bw, "\nDone! Encoding fixed.")

	return bw.Flush()
}

func writeTeamTable(w io.Writer, teams []models.Team) {
	if len(teams) == 0 {
		return
	}
	rows := [][]string{{"ID", "NAME", "SCHOOL", "CITY"}}
	for _, t := range teams {
		rows = append(rows, []string{t.ID, t.Name, t.School, t.City})
	}
	writeTable(w, rows)
}

func writePlayerTable(w io.Writer, players []models.Player) {
	if len(players) == 0 {
		return
	}
	rows := [][]string{{"NAME", "POSITION", "HEIGHT", "TEAM"}}
	for _, p := range players {
		rows = append(rows, []string{p.Name, p.Position, p.Height, p.TeamID})
	}
	writeTable(w, rows)
}

// writeTable aligns columns by display width so wide (CJK) and combining text lines up.
func writeTable(w io.Writer, rows [][]string) {
	widths := make([]int, len(rows[0]))
	for _, row := range rows {
		for i, cell := range row {
			widths[i] = max(widths[i], runewidth.StringWidth(cell))
		}
	}

	var sb strings.Builder
	for _, row := range rows {
		sb.Reset()
		sb.WriteString("  ")
		for i, cell := range row {
			if i == len(row)-1 {
				sb.WriteString(cell)
				break
			}
			sb.WriteString(runewidth.FillRight(cell, widths[i]))
			sb.WriteString("  ")
		}
		fmt.Fprintln(w, strings.TrimRight(sb.String(), " "))
	}
}
