package ingest

import (
	"context"
	"time"

	"github.com/google/uuid"

	"wallpaper-catalog/internal/logging"
)

// Outcome is the per-file result of a batch.
type Outcome struct {
	Source string
	Result *Result
	Err    error
}

// BatchSummary counts outcomes of a batch by kind.
type BatchSummary struct {
	RunID    string
	Accepted int
	Updated  int
	Rejected map[Reason]int
	Failed   int
	Outcomes []Outcome
}

// IngestBatch ingests sources one after another into category. Every
// source gets an Outcome; a failure on one file does not stop the batch,
// only context cancellation does.
func (p *Pipeline) IngestBatch(ctx context.Context, template Request, sources []string) *BatchSummary {
	summary := &BatchSummary{
		RunID:    uuid.NewString(),
		Rejected: map[Reason]int{},
		Outcomes: make([]Outcome, 0, len(sources)),
	}
	start := time.Now()

	logging.Info("Ingest run %s: %d file(s) into %s", summary.RunID, len(sources), template.Category)

	for _, source := range sources {
		if ctx.Err() != nil {
			summary.Outcomes = append(summary.Outcomes, Outcome{Source: source, Err: ctx.Err()})
			summary.Failed++
			continue
		}

		req := template
		req.Source = source
		res, err := p.Ingest(ctx, req)
		summary.Outcomes = append(summary.Outcomes, Outcome{Source: source, Result: res, Err: err})

		switch {
		case err != nil:
			summary.Failed++
			logging.Error("Ingest of %s failed: %v", source, err)
		case res.Rejection != nil:
			summary.Rejected[res.Rejection.Reason]++
		case res.Updated:
			summary.Updated++
		default:
			summary.Accepted++
		}
	}

	rejected := 0
	for _, n := range summary.Rejected {
		rejected += n
	}
	logging.Info("Ingest run %s finished in %v: %d accepted, %d updated, %d rejected, %d failed",
		summary.RunID, time.Since(start).Round(time.Millisecond), summary.Accepted, summary.Updated, rejected, summary.Failed)

	return summary
}
