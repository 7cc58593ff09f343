package registry

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"wallpaper-catalog/internal/filesystem"
	"wallpaper-catalog/internal/logging"
	"wallpaper-catalog/internal/media"
	"wallpaper-catalog/internal/store"
	"wallpaper-catalog/internal/workers"
)

// StoredAsset is an asset found on disk together with the hashes of its
// stored image. HasPerceptual is false when the image does not decode.
type StoredAsset struct {
	Category      string
	Sequence      int
	ID            string
	Hash          string
	Perceptual    uint64
	HasPerceptual bool
}

// Conflict is a hash carried by more than one stored asset within scope.
type Conflict struct {
	Hash      string
	KeptID    string
	DroppedID string
}

// RebuildReport summarizes a rebuild.
type RebuildReport struct {
	Registered int
	Conflicts  []Conflict
	Duration   time.Duration
}

// HashStore hashes the stored image of every asset that has both an image
// and a sidecar, in category then sequence order. Each category is scanned
// under its shared lock.
func HashStore(ctx context.Context, st *store.Store) ([]StoredAsset, error) {
	var assets []StoredAsset

	for _, category := range store.CategoryNames() {
		found, err := hashCategory(ctx, st, category)
		if err != nil {
			return nil, err
		}
		assets = append(assets, found...)
	}

	return assets, nil
}

func hashCategory(ctx context.Context, st *store.Store, category string) ([]StoredAsset, error) {
	unlock, err := st.RLock(ctx, category)
	if err != nil {
		return nil, err
	}
	defer unlock()

	listing, err := st.List(category)
	if err != nil {
		return nil, err
	}

	var found []StoredAsset
	for _, seq := range listing.Sequences() {
		if listing.Images[seq] && listing.Sidecars[seq] {
			found = append(found, StoredAsset{Category: category, Sequence: seq, ID: store.AssetID(category, seq)})
		}
	}

	// decoding for the perceptual hash dominates, so size the pool by CPU
	err = workers.ForEach(ctx, len(found), workers.ForCPU(8), func(_ context.Context, i int) error {
		data, err := filesystem.ReadFileWithRetry(st.ImagePath(category, found[i].Sequence), filesystem.DefaultRetryConfig())
		if err != nil {
			return fmt.Errorf("failed to hash %s: %w", found[i].ID, err)
		}
		found[i].Hash = ContentHash(data)

		perceptual, err := media.PerceptualHashOf(data)
		if err != nil {
			logging.Warn("No perceptual hash for %s: %v", found[i].ID, err)
			return nil
		}
		found[i].Perceptual, found[i].HasPerceptual = perceptual, true
		return nil
	})
	if err != nil {
		return nil, err
	}
	return found, nil
}

// Rebuild discards every row and re-registers each stored asset from its
// image bytes, recomputing both hashes. This is the recovery path for a lost or corrupt registry.
// When two assets share a hash within scope the first in category,
// sequence order is kept and the other is reported as a conflict.
func (r *Registry) Rebuild(ctx context.Context, st *store.Store) (report *RebuildReport, err error) {
	start := time.Now()
	defer func() { recordOperation("rebuild", start, err) }()

	assets, err := HashStore(ctx, st)
	if err != nil {
		return nil, err
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin rebuild: %w", err)
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM hashes`); err != nil {
		return nil, rollback(tx, fmt.Errorf("failed to clear registry: %w", err))
	}

	report = &RebuildReport{}
	kept := make(map[string]string, len(assets))
	now := time.Now().Unix()

	for _, a := range assets {
		key := a.Hash
		if r.scope == ScopeCategory {
			key = a.Category + "/" + a.Hash
		}
		if owner, dup := kept[key]; dup {
			report.Conflicts = append(report.Conflicts, Conflict{Hash: a.Hash, KeptID: owner, DroppedID: a.ID})
			logging.Warn("Registry rebuild: %s duplicates %s (hash %s)", a.ID, owner, a.Hash)
			continue
		}
		kept[key] = a.ID

		var phash sql.NullInt64
		if a.HasPerceptual {
			phash = sql.NullInt64{Int64: int64(a.Perceptual), Valid: true}
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO hashes (hash, category, asset_id, phash, registered_at) VALUES (?, ?, ?, ?, ?)`,
			a.Hash, a.Category, a.ID, phash, now); err != nil {
			return nil, rollback(tx, fmt.Errorf("failed to register %s: %w", a.ID, err))
		}
		report.Registered++
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit rebuild: %w", err)
	}

	report.Duration = time.Since(start)
	r.updateEntriesGauge(ctx)
	logging.Info("Registry rebuilt: %d assets registered, %d conflicts in %v",
		report.Registered, len(report.Conflicts), report.Duration)
	return report, nil
}

// VerifyReport lists disagreements between the registry and the store.
type VerifyReport struct {
	// Orphans are registry rows whose asset no longer exists.
	Orphans []Entry
	// Unregistered are stored assets with no registry row.
	Unregistered []string
	// Mismatched are assets whose stored image no longer hashes to the
	// registered values, including decodable images whose row has no
	// perceptual hash.
	Mismatched []string
}

// OK reports whether registry and store agree.
func (v *VerifyReport) OK() bool {
	return len(v.Orphans) == 0 && len(v.Unregistered) == 0 && len(v.Mismatched) == 0
}

// Verify compares every row with the stored assets without modifying
// either side.
func (r *Registry) Verify(ctx context.Context, st *store.Store) (*VerifyReport, error) {
	assets, err := HashStore(ctx, st)
	if err != nil {
		return nil, err
	}
	entries, err := r.List(ctx)
	if err != nil {
		return nil, err
	}

	byID := make(map[string]Entry, len(entries))
	for _, e := range entries {
		byID[e.AssetID] = e
	}

	report := &VerifyReport{}
	onDisk := make(map[string]bool, len(assets))
	for _, a := range assets {
		onDisk[a.ID] = true
		e, ok := byID[a.ID]
		switch {
		case !ok:
			report.Unregistered = append(report.Unregistered, a.ID)
		case e.Hash != a.Hash:
			report.Mismatched = append(report.Mismatched, a.ID)
		case a.HasPerceptual && (!e.HasPerceptual || e.Perceptual != a.Perceptual):
			report.Mismatched = append(report.Mismatched, a.ID)
		}
	}
	for _, e := range entries {
		if !onDisk[e.AssetID] {
			report.Orphans = append(report.Orphans, e)
		}
	}

	return report, nil
}
