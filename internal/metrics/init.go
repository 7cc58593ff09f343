package metrics

// Ingestion outcome labels. These mirror the rejection reasons of the
// ingest package plus the two success outcomes and write failures.
var IngestOutcomes = []string{
	"accepted",
	"updated",
	"invalid_format",
	"too_small",
	"size_out_of_bounds",
	"duplicate",
	"quality_rejected",
	"write_failure",
}

// InitializeMetrics pre-populates the label combinations that are known up
// front so that a textfile export from a short batch run always carries the
// full set of series.
func InitializeMetrics(categories []string) {
	for _, category := range categories {
		for _, outcome := range IngestOutcomes {
			IngestTotal.WithLabelValues(category, outcome)
		}
		CategoryAssets.WithLabelValues(category)
	}

	for _, phase := range []string{"validate", "normalize", "dedupe", "accept", "commit"} {
		IngestPhaseDuration.WithLabelValues(phase)
	}

	for _, kind := range []string{"image", "thumbnail", "sidecar"} {
		IngestBytesWritten.WithLabelValues(kind)
	}

	for _, status := range []string{"success", "error"} {
		BuildRunsTotal.WithLabelValues(status)
		RemovalsTotal.WithLabelValues(status)
		FilesystemAtomicWrites.WithLabelValues(status)
	}

	for _, state := range []string{"included", "skipped"} {
		BuildAssets.WithLabelValues(state)
	}

	for _, op := range []string{"lookup", "similar", "register", "unregister", "rebuild", "count", "list"} {
		RegistryOperationsTotal.WithLabelValues(op, "success")
		RegistryOperationsTotal.WithLabelValues(op, "error")
		RegistryOperationDuration.WithLabelValues(op)
	}

	for _, op := range []string{"stat", "open", "read"} {
		FilesystemRetryAttempts.WithLabelValues(op)
		FilesystemRetrySuccess.WithLabelValues(op)
		FilesystemRetryFailures.WithLabelValues(op)
		FilesystemStaleErrors.WithLabelValues(op)
	}

	for _, mode := range []string{"exclusive", "shared"} {
		LockWaitDuration.WithLabelValues(mode)
	}
}
