// Package logging provides the leveled logger shared by the catalog commands.
//
// Levels, from most to least verbose:
//   - DEBUG: per-file decisions, lock waits, scan details
//   - INFO: ingestion outcomes, build summaries
//   - WARN: integrity issues, skipped assets
//   - ERROR: write failures and rollbacks
//   - FATAL: unrecoverable startup errors
//
// The level is read once from LOG_LEVEL (or DEBUG=true) and may be replaced
// at runtime with SetLevel, which the CLI does for its --log-level flag.
package logging
