package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Recorder implements domain.repository.Metrics using Prometheus.
type Recorder struct {
	signalsTotal  *prometheus.CounterVec
	signalStrength *prometheus.GaugeVec
	errorsTotal   *prometheus.CounterVec
	spotPrice     *prometheus.GaugeVec
	quotePrice    *prometheus.GaugeVec
	latency       *prometheus.HistogramVec
	resolutions   *prometheus.CounterVec
}

// New creates a new Prometheus metrics recorder.
func New() *Recorder {
	return &Recorder{
		signalsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "polyradar_signals_total",
				Help: "Total number of evaluated signals by direction",
			},
			[]string{"direction"},
		),
		signalStrength: promauto.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "polyradar_signal_strength",
				Help: "Strength of the latest signal by direction",
			},
			[]string{"direction"},
		),
		errorsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "polyradar_errors_total",
				Help: "Total number of errors encountered",
			},
			[]string{"type"},
		),
		spotPrice: promauto.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "polyradar_spot_price",
				Help: "Last spot price for a symbol",
			},
			[]string{"symbol"},
		),
		quotePrice: promauto.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "polyradar_token_price",
				Help: "Last outcome token price by side",
			},
			[]string{"side"},
		),
		latency: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "polyradar_operation_duration_seconds",
				Help:    "Duration of operations in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation"},
		),
		resolutions: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "polyradar_position_resolutions_total",
				Help: "Monitored position outcomes by kind",
			},
			[]string{"kind"},
		),
	}
}

// RecordSignal records one signal evaluation.
func (r *Recorder) RecordSignal(direction string, strength int) {
	r.signalsTotal.WithLabelValues(direction).Inc()
	r.signalStrength.WithLabelValues(direction).Set(float64(strength))
}

// RecordError records an error occurrence.
func (r *Recorder) RecordError(kind string) {
	r.errorsTotal.WithLabelValues(kind).Inc()
}

// RecordSpotPrice records the last spot price for a symbol.
func (r *Recorder) RecordSpotPrice(symbol string, price float64) {
	r.spotPrice.WithLabelValues(symbol).Set(price)
}

// RecordQuote records the last outcome token price for a side.
func (r *Recorder) RecordQuote(side string, price float64) {
	r.quotePrice.WithLabelValues(side).Set(price)
}

// RecordLatency records operation latency in seconds.
func (r *Recorder) RecordLatency(op string, seconds float64) {
	r.latency.WithLabelValues(op).Observe(seconds)
}

// RecordResolution records a monitored position outcome.
func (r *Recorder) RecordResolution(kind string) {
	r.resolutions.WithLabelValues(kind).Inc()
}
