// Package metrics provides Prometheus instrumentation for the catalog tools.
//
// All metrics are prefixed with "catalog_" and registered on the default
// registry through promauto.
//
// # Metric Categories
//
// ## Ingestion
//   - IngestTotal: attempts by category and outcome
//   - IngestPhaseDuration: validate/normalize/dedupe/accept/commit timings
//   - IngestRollbacks: partially written assets that were rolled back
//   - IngestBytesWritten: bytes written per file kind
//   - RemovalsTotal: explicit asset removals
//
// ## Catalog builder
//   - BuildRunsTotal, BuildLastRunTimestamp, BuildLastRunDuration
//   - BuildAssets: included vs skipped (integrity issues) in the last build
//   - BuildDocumentsWritten, CategoryAssets
//
// ## Hash registry
//   - RegistryOperationsTotal, RegistryOperationDuration, RegistryEntries
//
// ## Filesystem
//   - Retry counters for ESTALE handling and atomic write outcomes
//   - LockWaitDuration for category locks
//
// ## HTTP
//   - HTTPRequestsTotal, HTTPRequestDuration, HTTPRequestsInFlight
//     labelled by route template, not raw path
//
// # Batch export
//
// The catalog commands are short-lived, so nothing scrapes them. When a
// textfile path is configured, WriteTextfile dumps the default registry in
// text format for node_exporter's textfile collector. The serve command
// exposes the same registry on /metrics.
package metrics
