// Package metrics собирает метрики запусков и экспортирует их для node_exporter textfile collector.
package metrics

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "wallpaperctl"

// Recorder хранит метрики одного запуска. Методы безопасны для nil Recorder.
type Recorder struct {
	registry *prometheus.Registry

	transcodes  *prometheus.CounterVec
	bytes       *prometheus.CounterVec
	ingestFiles *prometheus.GaugeVec
	committed   prometheus.Counter
	duration    *prometheus.GaugeVec
	lastRun     *prometheus.GaugeVec
}

// New создаёт Recorder с собственным реестром.
func New() *Recorder {
	r := &Recorder{
		registry: prometheus.NewRegistry(),
		transcodes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "transcode_total",
			Help:      "Rendition transcodes by profile and outcome.",
		}, []string{"profile", "outcome"}),
		bytes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "transcode_bytes_total",
			Help:      "Bytes read from sources and written to renditions.",
		}, []string{"direction"}),
		ingestFiles: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "ingest_files",
			Help:      "Files seen by the last ingest run per stage.",
		}, []string{"stage"}),
		committed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "ingest_committed_rows_total",
			Help:      "Catalog rows inserted by ingest.",
		}),
		duration: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "run_duration_seconds",
			Help:      "Duration of the last run per command.",
		}, []string{"command"}),
		lastRun: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "last_run_timestamp_seconds",
			Help:      "Unix time of the last finished run per command.",
		}, []string{"command"}),
	}

	r.registry.MustRegister(r.transcodes, r.bytes, r.ingestFiles, r.committed, r.duration, r.lastRun)
	return r
}

// Registry возвращает реестр метрик.
func (r *Recorder) Registry() *prometheus.Registry {
	if r == nil {
		return nil
	}
	return r.registry
}

// ObserveTranscode учитывает один результат перекодирования.
func (r *Recorder) ObserveTranscode(profile, outcome string, in, out int64) {
	if r == nil {
		return
	}
	r.transcodes.WithLabelValues(normalizeLabel(profile), normalizeLabel(outcome)).Inc()
	if in > 0 {
		r.bytes.WithLabelValues("in").Add(float64(in))
	}
	if out > 0 {
		r.bytes.WithLabelValues("out").Add(float64(out))
	}
}

// SetIngestFiles фиксирует количество файлов на стадии ingest (known, listed, new).
func (r *Recorder) SetIngestFiles(stage string, n int) {
	if r == nil {
		return
	}
	r.ingestFiles.WithLabelValues(normalizeLabel(stage)).Set(float64(n))
}

// AddCommitted учитывает вставленные строки каталога.
func (r *Recorder) AddCommitted(n int) {
	if r == nil || n <= 0 {
		return
	}
	r.committed.Add(float64(n))
}

// ObserveRun фиксирует длительность и время окончания команды.
func (r *Recorder) ObserveRun(command string, d time.Duration, finished time.Time) {
	if r == nil {
		return
	}
	command = normalizeLabel(command)
	r.duration.WithLabelValues(command).Set(d.Seconds())
	r.lastRun.WithLabelValues(command).Set(float64(finished.Unix()))
}

// WriteTextfile атомарно записывает метрики в файл. Пустой путь ничего не делает.
func (r *Recorder) WriteTextfile(path string) error {
	if r == nil || path == "" {
		return nil
	}
	if err := prometheus.WriteToTextfile(path, r.registry); err != nil {
		return fmt.Errorf("не удалось записать метрики в %s: %w", path, err)
	}
	return nil
}

func normalizeLabel(v string) string {
	if v == "" {
		return "unknown"
	}
	return v
}
