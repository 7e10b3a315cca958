package service

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/Zenithi77/sain-league/internal/document"
	"github.com/Zenithi77/sain-league/internal/models"
	"github.com/Zenithi77/sain-league/pkg/encoding"
	"github.com/Zenithi77/sain-league/pkg/metrics"
)

var (
	ErrRead   = errors.New("read data file")
	ErrBackup = errors.New("backup data file")
	ErrDecode = errors.New("decode error")
	ErrEncode = errors.New("encode error")
	ErrParse  = errors.New("parse error")
	ErrWrite  = errors.New("write data file")
)

type RepairOptions struct {
	BackupSuffix string
	Indent       int
}

// RepairResult describes a completed repair
type RepairResult struct {
	League      *models.League
	BackupPath  string
	InputBytes  int
	OutputBytes int
}

// Repairer fixes a JSON data file whose UTF-8 text was decoded through a legacy code page
type Repairer struct {
	codec  *encoding.Codec
	opts   RepairOptions
	logger *slog.Logger
}

func NewRepairer(codec *encoding.Codec, opts RepairOptions, logger *slog.Logger) *Repairer {
	if opts.BackupSuffix == "" {
		opts.BackupSuffix = ".bak"
	}
	return &Repairer{
		codec:  codec,
		opts:   opts,
		logger: logger,
	}
}

// Repair backs the file up, reverses the code page round-trip, validates the result
// and rewrites the file in canonical form. Nothing but the backup is written unless
// every step before the final write succeeds.
//
// Repair is not idempotent: on already-correct non-ASCII text it fails with ErrEncode or ErrDecode.
func (r *Repairer) Repair(path string) (res *RepairResult, err error) {
	start := time.Now()
	defer func() {
		metrics.RepairRuns.WithLabelValues(repairStatus(err)).Inc()
		metrics.RepairDuration.Observe(time.Since(start).Seconds())
	}()

	l := r.logger.With("path", path, "codepage", r.codec.Name())

	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrRead, err)
	}
	original, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrRead, err)
	}
	metrics.DocumentBytes.WithLabelValues("input").Set(float64(len(original)))

	backupPath := path + r.opts.BackupSuffix
	if err := os.WriteFile(backupPath, original, info.Mode().Perm()); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrBackup, err)
	}
	l.Info("📦 Backup created", "backup", backupPath, "bytes", len(original))

	fixed, err := r.codec.Reverse(original)
	if err != nil {
		if errors.Is(err, encoding.ErrUnrepresentable) {
			return nil, fmt.Errorf("%w: %w", ErrEncode, err)
		}
		return nil, fmt.Errorf("%w: %w", ErrDecode, err)
	}

	root, err := document.Parse(fixed)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrParse, err)
	}

	league, err := models.LeagueFromDocument(root)
	if err != nil {
		return nil, fmt.Errorf("validate records: %w", err)
	}

	out, err := document.Marshal(root, r.opts.Indent)
	if err != nil {
		return nil, fmt.Errorf("%w: serialize: %w", ErrWrite, err)
	}

	if err := writeFileAtomic(path, out, info.Mode().Perm()); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrWrite, err)
	}

	metrics.DocumentBytes.WithLabelValues("output").Set(float64(len(out)))
	metrics.RepairRecords.WithLabelValues(models.CollectionTeams).Set(float64(len(league.Teams)))
	metrics.RepairRecords.WithLabelValues(models.CollectionPlayers).Set(float64(len(league.Players)))

	l.Info("✅ Data file rewritten",
		"teams", len(league.Teams),
		"players", len(league.Players),
		"bytes", len(out),
		"duration_ms", time.Since(start).Milliseconds(),
	)

	return &RepairResult{
		League:      league,
		BackupPath:  backupPath,
		InputBytes:  len(original),
		OutputBytes: len(out),
	}, nil
}

// writeFileAtomic replaces path through a sibling temp file so a crash never leaves half a document.
func writeFileAtomic(path string, data []byte, perm os.FileMode) error {
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, perm); err != nil {
		return err
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return err
	}
	return nil
}

func repairStatus(err error) string {
	switch {
	case err == nil:
		return "success"
	case errors.Is(err, ErrRead):
		return "read_error"
	case errors.Is(err, ErrBackup):
		return "backup_error"
	case errors.Is(err, ErrEncode):
		return "encode_error"
	case errors.Is(err, ErrDecode):
		return "decode_error"
	case errors.Is(err, ErrParse):
		return "parse_error"
	case errors.Is(err, models.ErrMissingField), errors.Is(err, models.ErrInvalidField):
		return "validation_error"
	default:
		return "write_error"
	}
}
