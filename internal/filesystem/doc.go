/*
Package filesystem provides the file primitives the catalog relies on:
atomic replace-by-rename writes and NFS-tolerant reads.

# Atomic writes

WriteFileAtomic writes into a hidden temp file next to the destination,
fsyncs it, then renames it into place. Every image, thumbnail, sidecar and
derived document goes through it, so a crash never leaves a truncated file
at a path the catalog builder reads.

# NFS retry

StatWithRetry, OpenWithRetry and ReadFileWithRetry retry only on ESTALE
(stale file handle), with exponential backoff capped at MaxBackoff. Any
other error is returned immediately.

	data, err := filesystem.ReadFileWithRetry(path, filesystem.DefaultRetryConfig())

Retry attempts, successes, failures and stale errors are counted in the
metrics package under the operation label ("stat", "open", "read").
*/
package filesystem
