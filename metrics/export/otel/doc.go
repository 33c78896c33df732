// Package otel bridges sessionkit's in-process counters to an OpenTelemetry
// meter through observable instruments. The bridge is pull-based: values are
// read from a metrics snapshot at collection time, so the hot path keeps its
// plain atomic increments.
package otel
