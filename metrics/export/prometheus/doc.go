// Package prometheus exports sessionkit's in-process counters in Prometheus
// text exposition format, either on demand through Render or as an
// http.Handler.
package prometheus
