// Package otel registers the storefront engine counters as OpenTelemetry
// observable instruments.
//
// One callback reads [storefront.Engine.MetricsSnapshot] per collection. The
// caller owns the MeterProvider; [OTelExporter.Close] unregisters the callback.
package otel
