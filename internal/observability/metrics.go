// Package observability exposes prometheus metrics for the sync pipeline.
package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the pipeline's prometheus collectors.
type Metrics struct {
	reportsSynced   *prometheus.CounterVec
	responsesSynced *prometheus.CounterVec
	syncWarnings    *prometheus.CounterVec
	responseErrors  prometheus.Counter
}

// NewMetrics creates the pipeline metrics and registers them on registerer.
func NewMetrics(registerer prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		reportsSynced: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "datums_reports_synced_total",
			Help: "Number of report tree nodes synchronized, by node kind and operation",
		}, []string{"kind", "operation"}),
		responsesSynced: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "datums_responses_synced_total",
			Help: "Number of responses synchronized, by question type and operation",
		}, []string{"type", "operation"}),
		syncWarnings: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "datums_sync_warnings_total",
			Help: "Number of non-fatal warnings emitted while walking report documents",
		}, []string{"kind"}),
		responseErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "datums_response_errors_total",
			Help: "Number of responses that failed to synchronize",
		}),
	}

	collectors := []prometheus.Collector{
		m.reportsSynced,
		m.responsesSynced,
		m.syncWarnings,
		m.responseErrors,
	}
	for _, collector := range collectors {
		if err := registerer.Register(collector); err != nil {
			return nil, err
		}
	}
	return m, nil
}

// ReportSynced counts one synchronized report tree node.
func (m *Metrics) ReportSynced(kind, operation string) {
	m.reportsSynced.WithLabelValues(kind, operation).Inc()
}

// ResponseSynced counts one synchronized response.
func (m *Metrics) ResponseSynced(questionType, operation string) {
	m.responsesSynced.WithLabelValues(questionType, operation).Inc()
}

// WarningEmitted counts one pipeline warning.
func (m *Metrics) WarningEmitted(kind string) {
	m.syncWarnings.WithLabelValues(kind).Inc()
}

// ResponseError counts one failed response synchronization.
func (m *Metrics) ResponseError() {
	m.responseErrors.Inc()
}
