package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Recorder exposes trade-decision counters over Prometheus. All methods
// are safe on a nil receiver so the core can run without metrics wired.
type Recorder struct {
	setupsEmitted *prometheus.CounterVec
	setupsSkipped *prometheus.CounterVec
	auditsTotal   *prometheus.CounterVec
	layerFailures *prometheus.CounterVec
	killSwitch    prometheus.Gauge
	qualityScore  prometheus.Histogram
}

// New creates a Recorder registered on the default registry.
func New() *Recorder {
	return &Recorder{
		setupsEmitted: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "smc_setups_emitted_total",
				Help: "Total number of trade setups emitted by the signal engine",
			},
			[]string{"direction"},
		),
		setupsSkipped: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "smc_setups_skipped_total",
				Help: "Total number of analysis calls that produced no setup",
			},
			[]string{"reason"},
		),
		auditsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "smc_risk_audits_total",
				Help: "Total number of risk firewall audits by verdict",
			},
			[]string{"verdict"},
		),
		layerFailures: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "smc_risk_layer_failures_total",
				Help: "Total number of failed risk firewall layers",
			},
			[]string{"layer"},
		),
		killSwitch: promauto.NewGauge(
			prometheus.GaugeOpts{
				Name: "smc_kill_switch_active",
				Help: "Whether the kill switch is active (1) or not (0)",
			},
		),
		qualityScore: promauto.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "smc_setup_quality_score",
				Help:    "Quality score distribution of emitted setups",
				Buckets: prometheus.LinearBuckets(0, 0.1, 11),
			},
		),
	}
}

// RecordSetup records an emitted setup and its quality score.
func (r *Recorder) RecordSetup(direction string, quality float64) {
	if r == nil {
		return
	}
	r.setupsEmitted.WithLabelValues(direction).Inc()
	r.qualityScore.Observe(quality)
}

// RecordNoSetup records an analysis call that produced no setup.
func (r *Recorder) RecordNoSetup(reason string) {
	if r == nil {
		return
	}
	r.setupsSkipped.WithLabelValues(reason).Inc()
}

// RecordAudit records a firewall verdict.
func (r *Recorder) RecordAudit(allowed bool) {
	if r == nil {
		return
	}
	verdict := "denied"
	if allowed {
		verdict = "allowed"
	}
	r.auditsTotal.WithLabelValues(verdict).Inc()
}

// RecordLayerFailure records a failed firewall layer.
func (r *Recorder) RecordLayerFailure(layer string) {
	if r == nil {
		return
	}
	r.layerFailures.WithLabelValues(layer).Inc()
}

// SetKillSwitch records the kill switch state.
func (r *Recorder) SetKillSwitch(active bool) {
	if r == nil {
		return
	}
	if active {
		r.killSwitch.Set(1)
	} else {
		r.killSwitch.Set(0)
	}
}
