// Package observe provides observability primitives for fragment caching.
//
// It bundles an OpenTelemetry tracer, a metrics recorder and a structured
// JSON logger behind small interfaces so the fragment engine and the admin
// service can be instrumented without importing the SDK directly. Exporter
// construction lives in the exporters subpackage.
package observe
