// Package prometheus exposes the storefront engine counters as a
// [prometheus.Collector].
//
// Counter names follow storefront_<name>_total and the validation histogram is
// storefront_validate_latency_seconds. Register the exporter on your own
// registry, or mount [PrometheusExporter.Handler] for a standalone endpoint.
package prometheus
