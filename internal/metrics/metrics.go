// Package metrics exposes Prometheus collectors for radio traffic, boiler
// requests and the temperatures read from or sent to the boiler.
package metrics

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "frisquet"

var (
	registerOnce sync.Once

	rfFrames = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "rf",
			Name:      "frames_total",
			Help:      "Radio frames sent and received.",
		},
		[]string{"direction"},
	)
	requests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "boiler",
			Name:      "requests_total",
			Help:      "Correlated requests sent to the boiler.",
		},
		[]string{"command", "result"},
	)
	requestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "boiler",
			Name:      "request_duration_seconds",
			Help:      "Time from request to matching reply.",
			Buckets:   []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 15, 30, 60},
		},
		[]string{"command"},
	)
	programRetries = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "boiler",
			Name:      "program_retries_total",
			Help:      "Program write attempts that timed out.",
		},
	)
	sondeTemperature = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "sonde",
			Name:      "temperature_celsius",
			Help:      "Last outside temperature sent to the boiler.",
		},
	)
	boilerTemperature = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "boiler",
			Name:      "temperature_celsius",
			Help:      "Temperatures reported by the boiler sensors snapshot.",
		},
		[]string{"sensor"},
	)
	observed = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "sniffer",
			Name:      "frames_total",
			Help:      "Frames classified by the promiscuous decoder.",
		},
		[]string{"direction", "signature"},
	)
)

// RegisterMetrics registers every collector with the default registry.
// It is safe to call more than once.
func RegisterMetrics() {
	registerOnce.Do(func() {
		prometheus.MustRegister(rfFrames, requests, requestDuration, programRetries,
			sondeTemperature, boilerTemperature, observed)
	})
}

// RecordFrame counts a frame crossing the transport ("send" or "recv").
func RecordFrame(direction string) {
	RegisterMetrics()
	rfFrames.WithLabelValues(direction).Inc()
}

// RecordRequest counts a finished request and its latency.
func RecordRequest(command string, err error, duration time.Duration) {
	RegisterMetrics()
	result := "ok"
	if err != nil {
		result = "error"
	}
	requests.WithLabelValues(command, result).Inc()
	requestDuration.WithLabelValues(command).Observe(duration.Seconds())
}

// RecordProgramRetry counts a program write attempt that timed out.
func RecordProgramRetry() {
	RegisterMetrics()
	programRetries.Inc()
}

// SetSondeTemperature records the last temperature sent for the probe.
func SetSondeTemperature(celsius float64) {
	RegisterMetrics()
	sondeTemperature.Set(celsius)
}

// SetBoilerTemperatures records a sensors snapshot.
func SetBoilerTemperatures(readings map[string]float64) {
	RegisterMetrics()
	for sensor, v := range readings {
		boilerTemperature.WithLabelValues(sensor).Set(v)
	}
}

// RecordObservation counts a sniffed frame by direction and signature tag.
func RecordObservation(direction, signature string) {
	RegisterMetrics()
	observed.WithLabelValues(direction, signature).Inc()
}
