package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics counts record lifecycle events. A nil *Metrics records nothing.
type Metrics struct {
	RecordsCreated *prometheus.CounterVec
	RecordsDeleted *prometheus.CounterVec
	PhotoCleanups  *prometheus.CounterVec
	StatsDuration  prometheus.Histogram
}

func New() *Metrics {
	return &Metrics{
		RecordsCreated: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "arefa_records_created_total",
			Help: "Total number of records created, by kind",
		}, []string{"kind"}),
		RecordsDeleted: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "arefa_records_deleted_total",
			Help: "Total number of records deleted, by kind",
		}, []string{"kind"}),
		PhotoCleanups: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "arefa_photo_cleanups_total",
			Help: "Photo removals after a delete or a failed create, by kind and outcome",
		}, []string{"kind", "outcome"}),
		StatsDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "arefa_stats_duration_seconds",
			Help:    "Duration of dashboard statistics computation",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		}),
	}
}

func (m *Metrics) IncCreated(kind string) {
	if m == nil {
		return
	}
	m.RecordsCreated.WithLabelValues(kind).Inc()
}

func (m *Metrics) IncDeleted(kind string) {
	if m == nil {
		return
	}
	m.RecordsDeleted.WithLabelValues(kind).Inc()
}

func (m *Metrics) IncPhotoCleanup(kind string, err error) {
	if m == nil {
		return
	}
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	m.PhotoCleanups.WithLabelValues(kind, outcome).Inc()
}

func (m *Metrics) ObserveStats(start time.Time) {
	if m == nil {
		return
	}
	m.StatsDuration.Observe(time.Since(start).Seconds())
}
