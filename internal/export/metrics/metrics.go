package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds Prometheus collectors for document and archive exports.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	DocumentsRendered *prometheus.CounterVec
	RenderLatency     *prometheus.HistogramVec
	PhotoFailures     *prometheus.CounterVec
	ArchivesBuilt     *prometheus.CounterVec
	ArchiveRecords    *prometheus.CounterVec
	CacheLookups      *prometheus.CounterVec
}

// New registers and returns export metrics collectors.
func New() *Metrics {
	return &Metrics{
		DocumentsRendered: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "arefa_documents_rendered_total",
			Help: "Documents rendered, labeled by record kind and outcome",
		}, []string{"kind", "outcome"}),
		RenderLatency: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "arefa_document_render_seconds",
			Help:    "Time spent rendering one document",
			Buckets: []float64{.05, .1, .25, .5, 1, 2, 4, 8},
		}, []string{"kind"}),
		PhotoFailures: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "arefa_photo_failures_total",
			Help: "Photos that could not be used, labeled by kind and stage (render, decode, archive)",
		}, []string{"kind", "stage"}),
		ArchivesBuilt: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "arefa_archives_built_total",
			Help: "Batch archives requested, labeled by kind and outcome",
		}, []string{"kind", "outcome"}),
		ArchiveRecords: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "arefa_archive_records_total",
			Help: "Records processed by archive builds, labeled by kind and outcome",
		}, []string{"kind", "outcome"}),
		CacheLookups: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "arefa_document_cache_lookups_total",
			Help: "Rendered-document cache lookups, labeled by result (hit, miss, error)",
		}, []string{"result"}),
	}
}

func outcome(err error) string {
	if err != nil {
		return "failure"
	}
	return "success"
}

func (m *Metrics) ObserveRender(kind string, d time.Duration, err error) {
	if m == nil {
		return
	}
	m.DocumentsRendered.WithLabelValues(kind, outcome(err)).Inc()
	m.RenderLatency.WithLabelValues(kind).Observe(d.Seconds())
}

func (m *Metrics) IncPhotoFailure(kind, stage string) {
	if m == nil {
		return
	}
	m.PhotoFailures.WithLabelValues(kind, stage).Inc()
}

func (m *Metrics) ObserveArchive(kind string, err error) {
	if m == nil {
		return
	}
	m.ArchivesBuilt.WithLabelValues(kind, outcome(err)).Inc()
}

func (m *Metrics) IncArchiveRecord(kind string, err error) {
	if m == nil {
		return
	}
	m.ArchiveRecords.WithLabelValues(kind, outcome(err)).Inc()
}

func (m *Metrics) IncCacheLookup(result string) {
	if m == nil {
		return
	}
	m.CacheLookups.WithLabelValues(result).Inc()
}
