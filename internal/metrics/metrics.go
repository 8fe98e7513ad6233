// Package metrics exposes pipeline run statistics to Prometheus.
package metrics

import (
	"strings"

	"github.com/EternisAI/netharvest/internal/pipeline"
	"github.com/prometheus/client_golang/prometheus"
)

type Metrics struct {
	runsTotal      *prometheus.CounterVec
	processedTotal *prometheus.CounterVec
	deltaSize      prometheus.Gauge
	mergedSize     prometheus.Gauge
	runDuration    prometheus.Histogram
}

func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		runsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "netharvest",
				Name:      "runs_total",
				Help:      "Total number of pipeline runs by outcome",
			},
			[]string{"outcome"},
		),
		processedTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "netharvest",
				Name:      "credentials_processed_total",
				Help:      "Credentials handled by the provisioner by result",
			},
			[]string{"result"},
		),
		deltaSize: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "netharvest",
			Name:      "delta_size",
			Help:      "Credentials pending provisioning at the start of the last run",
		}),
		mergedSize: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "netharvest",
			Name:      "canonical_size",
			Help:      "Credentials in the canonical set after the last harvest",
		}),
		runDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "netharvest",
			Name:      "run_duration_seconds",
			Help:      "Duration of pipeline runs in seconds",
			Buckets:   prometheus.ExponentialBuckets(0.1, 2, 12), // 100ms to ~7min
		}),
	}

	reg.MustRegister(m.runsTotal, m.processedTotal, m.deltaSize, m.mergedSize, m.runDuration)
	return m
}

// Observe records one finished run.
func (m *Metrics) Observe(r *pipeline.Report) {
	m.runsTotal.WithLabelValues(string(r.Outcome)).Inc()
	m.runDuration.Observe(r.Duration.Seconds())
	m.deltaSize.Set(float64(r.Delta))
	if strings.Contains(r.Phases, "harvest") && r.Outcome != pipeline.OutcomeError {
		m.mergedSize.Set(float64(r.Merged))
	}

	m.processedTotal.WithLabelValues("added").Add(float64(r.Added))
	m.processedTotal.WithLabelValues("updated").Add(float64(r.Updated))
	m.processedTotal.WithLabelValues("failed").Add(float64(r.Failed))
	m.processedTotal.WithLabelValues("rejected").Add(float64(r.Rejected))
}
