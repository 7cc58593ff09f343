package ingest

import (
	"context"
	"errors"
	"fmt"
	"image"
	"time"

	"wallpaper-catalog/internal/filesystem"
	"wallpaper-catalog/internal/logging"
	"wallpaper-catalog/internal/media"
	"wallpaper-catalog/internal/metrics"
	"wallpaper-catalog/internal/registry"
	"wallpaper-catalog/internal/store"
)

// Options configures a Pipeline.
type Options struct {
	Limits    media.Limits
	Image     media.Target
	Thumbnail media.Target
	BaseURL   string
	// PerceptualDistance is the largest perceptual hash distance at which
	// a candidate is compared with a stored image for near-duplicates.
	// Negative disables the comparison.
	PerceptualDistance int
	// Accept is the default quality gate for requests that carry none.
	Accept AcceptFunc
	// Now is the clock for added_at. Defaults to time.Now.
	Now func() time.Time
}

// DefaultOptions returns the collection's standard limits and targets.
func DefaultOptions() Options {
	return Options{
		Limits:    media.DefaultLimits(),
		Image:     media.DefaultImageTarget(),
		Thumbnail: media.DefaultThumbnailTarget(),
		BaseURL:   "http://localhost:8080",
		Now:       time.Now,

		PerceptualDistance: media.DefaultPerceptualDistance,
	}
}

// Request is one candidate image to ingest.
type Request struct {
	Category string
	Source   string
	Hints    Hints
	// Accept overrides Options.Accept for this request.
	Accept AcceptFunc
	// Update rewrites the sidecar of the asset that already owns the
	// candidate's content instead of rejecting it as a duplicate.
	Update bool
}

// Pipeline validates, deduplicates, normalizes and stores candidates.
type Pipeline struct {
	store    *store.Store
	registry *registry.Registry
	opts     Options
}

// New creates a Pipeline writing into st and deduplicating against reg.
func New(st *store.Store, reg *registry.Registry, opts Options) *Pipeline {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Pipeline{store: st, registry: reg, opts: opts}
}

func observePhase(phase string, start time.Time) {
	metrics.IngestPhaseDuration.WithLabelValues(phase).Observe(time.Since(start).Seconds())
}

func reject(reason Reason, detail, existing string) *Result {
	return &Result{Rejection: &Rejection{Reason: reason, Detail: detail, ExistingID: existing}}
}

func rejectValidation(err error) (*Result, bool) {
	var verr *media.ValidationError
	if errors.As(err, &verr) {
		return reject(Reason(verr.Reason), verr.Detail, ""), true
	}
	return nil, false
}

// Ingest runs one candidate through the pipeline. Rejections are returned
// in the Result; the error return is reserved for unknown categories,
// unreadable sources and write failures (*WriteError).
func (p *Pipeline) Ingest(ctx context.Context, req Request) (result *Result, err error) {
	defer func() {
		switch {
		case result != nil:
			metrics.IngestTotal.WithLabelValues(req.Category, result.Outcome()).Inc()
		case errors.As(err, new(*WriteError)):
			metrics.IngestTotal.WithLabelValues(req.Category, "write_failure").Inc()
		}
	}()

	if _, err := store.LookupCategory(req.Category); err != nil {
		return nil, err
	}

	// validate
	start := time.Now()
	info, err := filesystem.StatWithRetry(req.Source, filesystem.DefaultRetryConfig())
	if err != nil {
		return nil, fmt.Errorf("failed to stat source: %w", err)
	}
	if info.IsDir() {
		return nil, fmt.Errorf("source %s is a directory", req.Source)
	}
	if p.opts.Limits.MaxFileSize > 0 && info.Size() > p.opts.Limits.MaxFileSize {
		// refuse before reading the file into memory
		if res, ok := rejectValidation(p.opts.Limits.CheckFileSize(info.Size())); ok {
			return res, nil
		}
	}
	data, err := filesystem.ReadFileWithRetry(req.Source, filesystem.DefaultRetryConfig())
	if err != nil {
		return nil, fmt.Errorf("failed to read source: %w", err)
	}
	if _, err := media.Validate(data, p.opts.Limits); err != nil {
		res, _ := rejectValidation(err)
		return res, nil
	}
	observePhase("validate", start)

	// normalize
	start = time.Now()
	normalized, err := media.Normalize(data, p.opts.Image)
	if err != nil {
		if res, ok := rejectValidation(err); ok {
			return res, nil
		}
		return nil, err
	}
	observePhase("normalize", start)

	// dedupe
	start = time.Now()
	// hash the stored encoding so a registry rebuild reproduces the value
	perceptual, err := media.PerceptualHashOf(normalized.Data)
	if err != nil {
		return nil, err
	}
	fp := registry.Fingerprint{Hash: registry.ContentHash(normalized.Data), Perceptual: perceptual}
	owner, err := p.duplicateOwner(ctx, req.Category, fp, normalized.Image)
	if err != nil {
		return nil, err
	}
	observePhase("dedupe", start)

	if owner != "" {
		if req.Update {
			return p.updateExisting(ctx, owner, req.Hints)
		}
		logging.Info("Rejected %s for %s: duplicate of %s", req.Source, req.Category, owner)
		return reject(ReasonDuplicate, "content already cataloged", owner), nil
	}

	// accept gate
	start = time.Now()
	accept := req.Accept
	if accept == nil {
		accept = p.opts.Accept
	}
	if accept != nil {
		if ok, why := accept(normalized.Image, req.Hints); !ok {
			observePhase("accept", start)
			logging.Info("Rejected %s for %s: %s", req.Source, req.Category, why)
			return reject(ReasonQualityRejected, why, ""), nil
		}
	}
	observePhase("accept", start)

	thumb, err := media.Thumbnail(normalized.Image, p.opts.Thumbnail)
	if err != nil {
		return nil, err
	}

	// allocate & write
	start = time.Now()
	defer observePhase("commit", start)
	return p.commit(ctx, req, fp, normalized, thumb)
}

// duplicateOwner returns the asset already holding the candidate's
// content within the registry scope: first by exact content hash, then by
// a near perceptual hash whose stored image SameImage confirms.
func (p *Pipeline) duplicateOwner(ctx context.Context, category string, fp registry.Fingerprint, img image.Image) (string, error) {
	owner, found, err := p.registry.Lookup(ctx, fp.Hash, category)
	if err != nil || found {
		return owner, err
	}
	if p.opts.PerceptualDistance < 0 {
		return "", nil
	}

	matches, err := p.registry.Similar(ctx, fp.Perceptual, category, p.opts.PerceptualDistance)
	if err != nil {
		return "", err
	}
	for _, m := range matches {
		stored, err := p.loadStored(m.AssetID)
		if err != nil {
			// the registry is ahead of the store; verify reports it
			logging.Warn("Cannot compare with %s: %v", m.AssetID, err)
			continue
		}
		if media.SameImage(img, stored) {
			logging.Debug("Perceptual match with %s at distance %d", m.AssetID, m.Distance)
			return m.AssetID, nil
		}
		logging.Debug("Perceptual hash near %s (distance %d) but pixels differ", m.AssetID, m.Distance)
	}
	return "", nil
}

func (p *Pipeline) loadStored(id string) (image.Image, error) {
	category, seq, err := store.ParseAssetID(id)
	if err != nil {
		return nil, err
	}
	data, err := filesystem.ReadFileWithRetry(p.store.ImagePath(category, seq), filesystem.DefaultRetryConfig())
	if err != nil {
		return nil, err
	}
	return media.Decode(data)
}

func (p *Pipeline) commit(ctx context.Context, req Request, fp registry.Fingerprint, img, thumb *media.Encoded) (*Result, error) {
	if err := p.store.EnsureCategory(req.Category); err != nil {
		return nil, err
	}

	unlock, err := p.store.Lock(ctx, req.Category)
	if err != nil {
		return nil, err
	}
	defer unlock()

	// a writer in this category may have stored a near copy since the
	// first check; exact copies are caught again by Register
	owner, err := p.duplicateOwner(ctx, req.Category, fp, img.Image)
	if err != nil {
		return nil, err
	}
	if owner != "" {
		logging.Info("Rejected %s for %s: duplicate of %s", req.Source, req.Category, owner)
		return reject(ReasonDuplicate, "content already cataloged", owner), nil
	}

	seq, err := p.store.NextSequence(req.Category)
	if err != nil {
		return nil, err
	}
	id := store.AssetID(req.Category, seq)

	category, _ := store.LookupCategory(req.Category)
	meta := store.Sidecar{
		Title:        req.Hints.Title,
		Tags:         store.NormalizeTags(req.Hints.Tags),
		Photographer: req.Hints.Photographer,
		Source:       req.Hints.Source,
		FileSize:     int64(len(img.Data)),
		Dimensions:   store.Dimensions{Width: img.Width, Height: img.Height},
		AddedAt:      p.opts.Now().UTC().Truncate(time.Second),
	}
	if meta.Title == "" {
		meta.Title = fmt.Sprintf("%s Wallpaper %s", category.DisplayName, store.FormatSequence(seq))
	}
	if len(meta.Tags) == 0 {
		meta.Tags = []string{req.Category}
	}

	tx := &assetWrite{id: id}

	imagePath := p.store.ImagePath(req.Category, seq)
	if err := tx.write(imagePath, "image", func() (int64, error) {
		return int64(len(img.Data)), filesystem.WriteFileAtomic(imagePath, img.Data, 0o644)
	}); err != nil {
		return nil, err
	}

	thumbPath := p.store.ThumbnailPath(req.Category, seq)
	if err := tx.write(thumbPath, "thumbnail", func() (int64, error) {
		return int64(len(thumb.Data)), filesystem.WriteFileAtomic(thumbPath, thumb.Data, 0o644)
	}); err != nil {
		return nil, err
	}

	sidecarPath := p.store.SidecarPath(req.Category, seq)
	if err := tx.write(sidecarPath, "sidecar", func() (int64, error) {
		return p.store.WriteSidecar(req.Category, seq, &meta)
	}); err != nil {
		return nil, err
	}

	if err := p.registry.Register(ctx, fp, id); err != nil {
		tx.rollback()
		var dup *registry.DuplicateHashError
		if errors.As(err, &dup) {
			// another writer registered the same content since our lookup
			logging.Info("Rejected %s for %s: duplicate of %s", req.Source, req.Category, dup.ExistingID)
			return reject(ReasonDuplicate, "content already cataloged", dup.ExistingID), nil
		}
		return nil, &WriteError{AssetID: id, Op: "register", Err: err}
	}

	tx.commit()
	logging.Info("Accepted %s as %s (%dx%d, %.1fKB)", req.Source, id, img.Width, img.Height, float64(len(img.Data))/1024)

	return &Result{Record: p.record(req.Category, seq, fp.Hash, meta)}, nil
}

func (p *Pipeline) record(category string, seq int, hash string, meta store.Sidecar) *Record {
	return &Record{
		ID:            store.AssetID(category, seq),
		Category:      category,
		Sequence:      seq,
		Hash:          hash,
		ImagePath:     p.store.ImagePath(category, seq),
		ThumbnailPath: p.store.ThumbnailPath(category, seq),
		SidecarPath:   p.store.SidecarPath(category, seq),
		ImageURL:      store.ImageURL(p.opts.BaseURL, category, seq),
		ThumbnailURL:  store.ThumbnailURL(p.opts.BaseURL, category, seq),
		Metadata:      meta,
	}
}

// assetWrite tracks the files written for one asset so a failure can
// remove all of them.
type assetWrite struct {
	id      string
	written []string
	bytes   map[string]int64
}

func (w *assetWrite) write(path, kind string, fn func() (int64, error)) error {
	n, err := fn()
	if err != nil {
		w.rollback()
		return &WriteError{AssetID: w.id, Op: "write " + kind, Err: err}
	}
	w.written = append(w.written, path)
	if w.bytes == nil {
		w.bytes = map[string]int64{}
	}
	w.bytes[kind] = n
	return nil
}

func (w *assetWrite) commit() {
	for kind, n := range w.bytes {
		metrics.IngestBytesWritten.WithLabelValues(kind).Add(float64(n))
	}
}

func (w *assetWrite) rollback() {
	metrics.IngestRollbacks.Inc()
	for i := len(w.written) - 1; i >= 0; i-- {
		if err := filesystem.RemoveIfExists(w.written[i]); err != nil {
			logging.Error("Rollback of %s failed to remove %s: %v", w.id, w.written[i], err)
		}
	}
	logging.Warn("Rolled back %s (%d files removed)", w.id, len(w.written))
}

// updateExisting rewrites the sidecar of the asset owning the candidate's
// content. Title, tags and provenance come from hints where given;
// added_at, dimensions and file size are kept.
func (p *Pipeline) updateExisting(ctx context.Context, id string, hints Hints) (*Result, error) {
	category, seq, err := store.ParseAssetID(id)
	if err != nil {
		return nil, err
	}
	hash, _, err := p.registry.HashOf(ctx, id)
	if err != nil {
		return nil, err
	}

	unlock, err := p.store.Lock(ctx, category)
	if err != nil {
		return nil, err
	}
	defer unlock()

	meta, err := p.store.ReadSidecar(category, seq)
	if err != nil {
		return nil, fmt.Errorf("failed to read sidecar of %s: %w", id, err)
	}

	if hints.Title != "" {
		meta.Title = hints.Title
	}
	if tags := store.NormalizeTags(hints.Tags); len(tags) > 0 {
		meta.Tags = tags
	}
	if hints.Photographer != "" {
		meta.Photographer = hints.Photographer
	}
	if hints.Source != "" {
		meta.Source = hints.Source
	}

	if _, err := p.store.WriteSidecar(category, seq, meta); err != nil {
		return nil, &WriteError{AssetID: id, Op: "write sidecar", Err: err}
	}

	logging.Info("Updated metadata of %s", id)
	return &Result{Record: p.record(category, seq, hash, *meta), Updated: true}, nil
}

// ErrAssetNotFound is returned by Remove for IDs with no files on disk.
var ErrAssetNotFound = errors.New("asset not found")

// Remove deletes an asset's sidecar, image and thumbnail and frees its
// hash. A tombstone is written first so the sequence is never reassigned.
func (p *Pipeline) Remove(ctx context.Context, id string) (err error) {
	defer func() {
		status := "success"
		if err != nil {
			status = "error"
		}
		metrics.RemovalsTotal.WithLabelValues(status).Inc()
	}()

	category, seq, err := store.ParseAssetID(id)
	if err != nil {
		return err
	}

	unlock, err := p.store.Lock(ctx, category)
	if err != nil {
		return err
	}
	defer unlock()

	paths := []string{
		p.store.SidecarPath(category, seq),
		p.store.ImagePath(category, seq),
		p.store.ThumbnailPath(category, seq),
	}

	present := false
	for _, path := range paths {
		ok, err := filesystem.Exists(path)
		if err != nil {
			return err
		}
		present = present || ok
	}
	if !present {
		return fmt.Errorf("%w: %s", ErrAssetNotFound, id)
	}

	if err := p.store.WriteTombstone(category, seq, p.opts.Now()); err != nil {
		return fmt.Errorf("failed to write tombstone for %s: %w", id, err)
	}

	// sidecar first: once it is gone the builder no longer lists the asset
	for _, path := range paths {
		if err := filesystem.RemoveIfExists(path); err != nil {
			return fmt.Errorf("failed to remove %s: %w", path, err)
		}
	}

	if err := p.registry.Unregister(ctx, id); err != nil {
		return err
	}

	logging.Info("Removed %s", id)
	return nil
}
