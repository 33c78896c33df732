// Package internaldefs holds the metric definitions shared by the exporter
// packages. It exists so the Prometheus and OTel exporters cannot drift
// apart in naming; it is not intended for direct use.
package internaldefs
