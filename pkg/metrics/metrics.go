package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Registry holds every collector of the data tools. It is written out as a
// textfile at exit because the binaries are too short-lived to be scraped.
var Registry = prometheus.NewRegistry()

var (
	// RepairRuns counts fixencoding runs by outcome
	// status: success, backup_error, decode_error, encode_error, parse_error, validation_error, write_error
	RepairRuns = promauto.With(Registry).NewCounterVec(prometheus.CounterOpts{
		Name: "fixencoding_runs_total",
		Help: "Total number of encoding repair runs by outcome",
	}, []string{"status"})

	RepairDuration = promauto.With(Registry).NewHistogram(prometheus.HistogramOpts{
		Name:    "fixencoding_duration_seconds",
		Help:    "Time spent repairing the data file",
		Buckets: []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5},
	})

	// RepairRecords reports how many records the repaired document holds
	RepairRecords = promauto.With(Registry).NewGaugeVec(prometheus.GaugeOpts{
		Name: "fixencoding_records",
		Help: "Number of records found in the repaired document",
	}, []string{"collection"})

	// DocumentBytes tracks the document size before and after the repair
	// stage: input, output
	DocumentBytes = promauto.With(Registry).NewGaugeVec(prometheus.GaugeOpts{
		Name: "fixencoding_document_bytes",
		Help: "Size of the data file in bytes",
	}, []string{"stage"})

	// MigratedRecords counts rows upserted into Postgres
	MigratedRecords = promauto.With(Registry).NewCounterVec(prometheus.CounterOpts{
		Name: "migrate_records_total",
		Help: "Total number of records upserted by the roster migration",
	}, []string{"collection"})

	// PublishedEvents tracks migration announcements sent to the broker
	// status: confirmed, error
	PublishedEvents = promauto.With(Registry).NewCounterVec(prometheus.CounterOpts{
		Name: "migrate_publish_total",
		Help: "Total number of migration events published to RabbitMQ",
	}, []string{"status"})
)

// WriteTextfile dumps the registry for the node-exporter textfile collector.
// An empty path disables the export.
func WriteTextfile(path string) error {
	if path == "" {
		return nil
	}
	return prometheus.WriteToTextfile(path, Registry)
}
