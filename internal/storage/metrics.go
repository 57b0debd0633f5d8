package storage

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics counts the work done by index analysis.
type Metrics struct {
	marksConsidered prometheus.Counter
	marksSelected   prometheus.Counter
	rangesEvaluated prometheus.Counter
	partsPruned     *prometheus.CounterVec
	selectDuration  prometheus.Histogram
}

// NewMetrics registers the index analysis metrics on reg. A nil reg gives
// unregistered metrics.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	return &Metrics{
		marksConsidered: promauto.With(reg).NewCounter(prometheus.CounterOpts{
			Name: "granulekey_marks_considered_total",
			Help: "Number of granules examined by primary key analysis.",
		}),
		marksSelected: promauto.With(reg).NewCounter(prometheus.CounterOpts{
			Name: "granulekey_marks_selected_total",
			Help: "Number of granules left to read after primary key analysis.",
		}),
		rangesEvaluated: promauto.With(reg).NewCounter(prometheus.CounterOpts{
			Name: "granulekey_ranges_evaluated_total",
			Help: "Number of mark ranges checked against the key condition.",
		}),
		partsPruned: promauto.With(reg).NewCounterVec(prometheus.CounterOpts{
			Name: "granulekey_parts_pruned_total",
			Help: "Number of parts skipped entirely, by the index that pruned them.",
		}, []string{"index"}),
		selectDuration: promauto.With(reg).NewHistogram(prometheus.HistogramOpts{
			Name:    "granulekey_select_duration_seconds",
			Help:    "Time spent selecting mark ranges for one part.",
			Buckets: prometheus.ExponentialBuckets(1e-6, 4, 10),
		}),
	}
}
