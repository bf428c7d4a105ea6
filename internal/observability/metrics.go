package observability

import (
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	registerOnce sync.Once

	registry = prometheus.NewRegistry()

	filesParsed = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "memlog",
			Subsystem: "parser",
			Name:      "files_total",
			Help:      "Dump files processed.",
		},
		[]string{"kind", "success"},
	)
	fileDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "memlog",
			Subsystem: "parser",
			Name:      "file_duration_seconds",
			Help:      "Dump file processing duration in seconds.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"kind", "success"},
	)
	recordsDecoded = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "memlog",
			Subsystem: "decoder",
			Name:      "records_total",
			Help:      "Decoded records by variant or dump kind.",
		},
		[]string{"variant"},
	)
	trailingBytes = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "memlog",
			Subsystem: "decoder",
			Name:      "trailing_bytes_total",
			Help:      "Bytes left after the last whole record.",
		},
	)
	transitions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "memlog",
			Subsystem: "lifecycle",
			Name:      "transitions_total",
			Help:      "Stream state transitions by outcome.",
		},
		[]string{"success"},
	)
	openStreams = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "memlog",
			Subsystem: "lifecycle",
			Name:      "open_streams",
			Help:      "Streams still active at the end of the last state queue.",
		},
	)
	failedTransitions = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "memlog",
			Subsystem: "lifecycle",
			Name:      "failed_transitions",
			Help:      "Failed transitions in the last state queue.",
		},
	)
	renders = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "memlog",
			Subsystem: "callflow",
			Name:      "renders_total",
			Help:      "Call flow render attempts.",
		},
		[]string{"success"},
	)
)

// RegisterMetrics registers every collector on the process registry.
func RegisterMetrics() {
	registerOnce.Do(func() {
		registry.MustRegister(
			filesParsed, fileDuration, recordsDecoded, trailingBytes,
			transitions, openStreams, failedTransitions, renders,
		)
	})
}

// Gatherer exposes the process registry.
func Gatherer() prometheus.Gatherer {
	RegisterMetrics()
	return registry
}

func RecordFile(kind string, duration time.Duration, success bool) {
	RegisterMetrics()
	successLabel := strconv.FormatBool(success)
	filesParsed.WithLabelValues(kind, successLabel).Inc()
	fileDuration.WithLabelValues(kind, successLabel).Observe(duration.Seconds())
}

func RecordDecoded(variant string, n int) {
	RegisterMetrics()
	recordsDecoded.WithLabelValues(variant).Add(float64(n))
}

func RecordTrailing(n int) {
	RegisterMetrics()
	trailingBytes.Add(float64(n))
}

func RecordTransition(success bool) {
	RegisterMetrics()
	transitions.WithLabelValues(strconv.FormatBool(success)).Inc()
}

func RecordStreams(open, failed int) {
	RegisterMetrics()
	openStreams.Set(float64(open))
	failedTransitions.Set(float64(failed))
}

func RecordRender(success bool) {
	RegisterMetrics()
	renders.WithLabelValues(strconv.FormatBool(success)).Inc()
}

// WriteTextfile dumps the registry in the node exporter textfile format.
func WriteTextfile(path string) error {
	return prometheus.WriteToTextfile(path, Gatherer())
}
