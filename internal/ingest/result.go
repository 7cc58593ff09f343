package ingest

import (
	"fmt"

	"wallpaper-catalog/internal/media"
	"wallpaper-catalog/internal/store"
)

// Reason is why a candidate was not accepted.
type Reason string

// Rejection reasons. The first three come from validation.
const (
	ReasonInvalidFormat   = Reason(media.ReasonInvalidFormat)
	ReasonTooSmall        = Reason(media.ReasonTooSmall)
	ReasonSizeOutOfBounds = Reason(media.ReasonSizeOutOfBounds)
	ReasonDuplicate       Reason = "duplicate"
	ReasonQualityRejected Reason = "quality_rejected"
)

// Kind groups rejection reasons into the error taxonomy reported to callers.
type Kind string

// Rejection kinds.
const (
	KindValidation Kind = "ValidationError"
	KindDuplicate  Kind = "DuplicateAssetError"
	KindQuality    Kind = "QualityRejected"
)

// Rejection is an expected, non-exceptional ingestion outcome. It is
// returned inside a Result, never as an error.
type Rejection struct {
	Reason Reason
	Detail string
	// ExistingID is set for duplicates: the asset that owns the content.
	ExistingID string
}

// Kind maps the reason to its taxonomy kind.
func (r *Rejection) Kind() Kind {
	switch r.Reason {
	case ReasonDuplicate:
		return KindDuplicate
	case ReasonQualityRejected:
		return KindQuality
	default:
		return KindValidation
	}
}

func (r *Rejection) String() string {
	if r.ExistingID != "" {
		return fmt.Sprintf("%s (%s): %s [existing %s]", r.Kind(), r.Reason, r.Detail, r.ExistingID)
	}
	return fmt.Sprintf("%s (%s): %s", r.Kind(), r.Reason, r.Detail)
}

// Record describes a stored asset. Paths and URLs are computed, never read
// from the sidecar.
type Record struct {
	ID            string
	Category      string
	Sequence      int
	Hash          string
	ImagePath     string
	ThumbnailPath string
	SidecarPath   string
	ImageURL      string
	ThumbnailURL  string
	Metadata      store.Sidecar
}

// Result is the outcome of one ingestion. Exactly one of Record and
// Rejection is set.
type Result struct {
	Record    *Record
	Rejection *Rejection
	// Updated is true when an existing asset's sidecar was rewritten.
	Updated bool
}

// Accepted reports whether the candidate is now (or already was, for
// updates) stored.
func (r *Result) Accepted() bool {
	return r.Record != nil
}

// Outcome is the metrics label for the result.
func (r *Result) Outcome() string {
	switch {
	case r.Rejection != nil:
		return string(r.Rejection.Reason)
	case r.Updated:
		return "updated"
	default:
		return "accepted"
	}
}

// WriteError is a failure of the multi-file write. Every file written for
// the asset has been removed by the time it is returned; retrying after the
// underlying condition is fixed is safe.
type WriteError struct {
	AssetID string
	Op      string
	Err     error
}

func (e *WriteError) Error() string {
	return fmt.Sprintf("write failure for %s during %s: %v", e.AssetID, e.Op, e.Err)
}

func (e *WriteError) Unwrap() error {
	return e.Err
}
