package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the Prometheus instruments for the analysis pipeline.
type Metrics struct {
	AnalysesTotal    *prometheus.CounterVec
	AnalysisDuration prometheus.Histogram
	LinksChecked     prometheus.Counter
}

// New registers and returns the pipeline metrics on the given registerer.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		AnalysesTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "pagegraph",
			Name:      "analyses_total",
			Help:      "Completed analyses by terminal job status.",
		}, []string{"status"}),
		AnalysisDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: "pagegraph",
			Name:      "analysis_duration_seconds",
			Help:      "Wall-clock duration of one full analysis.",
			Buckets:   prometheus.ExponentialBuckets(0.25, 2, 10),
		}),
		LinksChecked: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "pagegraph",
			Name:      "link_checks_total",
			Help:      "Individual link status probes issued.",
		}),
	}
}
