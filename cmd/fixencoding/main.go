package main

import (
	"log/slog"
	"os"

	"github.com/Zenithi77/sain-league/internal/config"
	"github.com/Zenithi77/sain-league/internal/report"
	"github.com/Zenithi77/sain-league/internal/service"
	"github.com/Zenithi77/sain-league/pkg/encoding"
	"github.com/Zenithi77/sain-league/pkg/infra"
	"github.com/Zenithi77/sain-league/pkg/metrics"
	"github.com/google/uuid"
)

func main() {
	os.Exit(run())
}

// run is split from main so deferred cleanup happens before the exit code is returned
func run() int {
	cfg := config.Load()
	logger := infra.SetupLogger(cfg).With("run_id", uuid.NewString())
	slog.SetDefault(logger)
	defer infra.CloseLogger()

	defer func() {
		if err := metrics.WriteTextfile(cfg.MetricsTextfile); err != nil {
			logger.Warn("Failed to write metrics textfile", "path", cfg.MetricsTextfile, "error", err)
		}
	}()

	codec, err := encoding.Lookup(cfg.CodePage)
	if err != nil {
		logger.Error("FATAL: invalid LEGACY_CODEPAGE", "value", cfg.CodePage, "error", err)
		return 1
	}

	logger.Info("🔧 Repairing data file encoding...",
		"path", cfg.DataPath,
		"codepage", codec.Name(),
	)

	repairer := service.NewRepairer(codec, service.RepairOptions{
		BackupSuffix: cfg.BackupSuffix,
		Indent:       cfg.JSONIndent,
	}, logger)

	res, err := repairer.Repair(cfg.DataPath)
	if err != nil {
		logger.Error("FATAL: encoding repair failed, restore from the backup if needed",
			"backup", cfg.DataPath+cfg.BackupSuffix,
			"error", err,
		)
		return 1
	}

	if err := report.Write(os.Stdout, res.League, report.Options{
		Format:       cfg.ReportFormat,
		PreviewLimit: cfg.PreviewLimit,
	}); err != nil {
		logger.Error("Failed to print report", "error", err)
		return 1
	}

	return 0
}
