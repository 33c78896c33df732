package prometheus

import (
	"net/http"
	"strconv"
	"strings"

	sessionkit "github.com/kyralabs/sessionkit"
	"github.com/kyralabs/sessionkit/metrics/export/internaldefs"
)

type metricsSource interface {
	MetricsSnapshot() sessionkit.MetricsSnapshot
	AuditDropped() uint64
}

// PrometheusExporter renders sessionkit metrics in Prometheus text
// exposition format.
type PrometheusExporter struct {
	source metricsSource
}

// NewPrometheusExporter creates an exporter reading from the given
// orchestrator.
func NewPrometheusExporter(orch *sessionkit.Orchestrator) *PrometheusExporter {
	return &PrometheusExporter{source: orch}
}

// NewPrometheusExporterFromSource creates an exporter from a custom source.
func NewPrometheusExporterFromSource(source metricsSource) *PrometheusExporter {
	return &PrometheusExporter{source: source}
}

// Handler returns an http.Handler that serves the rendered metrics.
func (p *PrometheusExporter) Handler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/plain; version=0.0.4; charset=utf-8")
		_, _ = w.Write([]byte(p.Render()))
	})
}

// Render writes the current counters in text exposition format.
func (p *PrometheusExporter) Render() string {
	if p == nil || p.source == nil {
		return ""
	}

	snapshot := p.source.MetricsSnapshot()
	dropped := p.source.AuditDropped()

	var b strings.Builder
	for _, def := range internaldefs.CounterDefs {
		value := snapshot.Counters[def.ID]
		b.WriteString("# HELP ")
		b.WriteString(def.Name)
		b.WriteString(" ")
		b.WriteString(def.Help)
		b.WriteString("\n# TYPE ")
		b.WriteString(def.Name)
		b.WriteString(" counter\n")
		b.WriteString(def.Name)
		b.WriteString(" ")
		b.WriteString(strconv.FormatUint(value, 10))
		b.WriteString("\n")
	}

	b.WriteString("# HELP sessionkit_audit_dropped_total Audit events dropped by a full buffer.\n")
	b.WriteString("# TYPE sessionkit_audit_dropped_total counter\n")
	b.WriteString("sessionkit_audit_dropped_total ")
	b.WriteString(strconv.FormatUint(dropped, 10))
	b.WriteString("\n")

	return b.String()
}
