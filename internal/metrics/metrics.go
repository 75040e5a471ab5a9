// Package metrics defines the Prometheus collectors for catalog imports.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics bundles Prometheus collectors for the import pipeline.
type Metrics struct {
	Registry        *prometheus.Registry
	FilesTotal      *prometheus.CounterVec
	RowsTotal       *prometheus.CounterVec
	RecordsTotal    prometheus.Counter
	PersistedTotal  *prometheus.CounterVec
	ProcessDuration prometheus.Histogram
	JobsInFlight    prometheus.Gauge
}

// New constructs and registers all metrics on a dedicated registry.
func New() *Metrics {
	registry := prometheus.NewRegistry()

	files := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "catalog_import_files_total",
			Help: "CSV files processed by detected format.",
		},
		[]string{"format"},
	)
	rows := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "catalog_import_rows_total",
			Help: "Source rows processed by outcome.",
		},
		[]string{"outcome"},
	)
	records := prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "catalog_import_records_total",
			Help: "Book records accepted by the import pipeline.",
		},
	)
	persisted := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "catalog_import_persisted_total",
			Help: "Imported records written to the catalog by result.",
		},
		[]string{"result"},
	)
	duration := prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "catalog_import_process_duration_seconds",
			Help:    "Time spent parsing and validating one CSV file.",
			Buckets: prometheus.DefBuckets,
		},
	)
	inFlight := prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "catalog_import_jobs_in_flight",
			Help: "Confirmed import jobs currently being persisted.",
		},
	)

	registry.MustRegister(files, rows, records, persisted, duration, inFlight)

	return &Metrics{
		Registry:        registry,
		FilesTotal:      files,
		RowsTotal:       rows,
		RecordsTotal:    records,
		PersistedTotal:  persisted,
		ProcessDuration: duration,
		JobsInFlight:    inFlight,
	}
}

// IncFile increments the processed files counter for a format label.
func (m *Metrics) IncFile(format string) {
	if m == nil {
		return
	}
	m.FilesTotal.WithLabelValues(format).Inc()
}

// AddRows adds n rows for an outcome label ("accepted" or "rejected").
func (m *Metrics) AddRows(outcome string, n int) {
	if m == nil || n <= 0 {
		return
	}
	m.RowsTotal.WithLabelValues(outcome).Add(float64(n))
}

// AddRecords adds n accepted records.
func (m *Metrics) AddRecords(n int) {
	if m == nil || n <= 0 {
		return
	}
	m.RecordsTotal.Add(float64(n))
}

// IncPersisted increments the persisted counter for a result label.
func (m *Metrics) IncPersisted(result string) {
	if m == nil {
		return
	}
	m.PersistedTotal.WithLabelValues(result).Inc()
}

// ObserveDuration records how long one file took to process.
func (m *Metrics) ObserveDuration(d time.Duration) {
	if m == nil {
		return
	}
	m.ProcessDuration.Observe(d.Seconds())
}

// JobStarted marks a persistence job as running.
func (m *Metrics) JobStarted() {
	if m == nil {
		return
	}
	m.JobsInFlight.Inc()
}

// JobFinished marks a persistence job as done.
func (m *Metrics) JobFinished() {
	if m == nil {
		return
	}
	m.JobsInFlight.Dec()
}
