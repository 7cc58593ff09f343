package store

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/gofrs/flock"

	"wallpaper-catalog/internal/logging"
	"wallpaper-catalog/internal/metrics"
)

const lockRetryDelay = 50 * time.Millisecond

// Unlock releases a category lock.
type Unlock func()

// Lock takes the exclusive lock of a category. Ingestion and removal hold
// it from sequence allocation until every file is written or rolled back.
func (s *Store) Lock(ctx context.Context, category string) (Unlock, error) {
	return s.lock(ctx, category, "exclusive")
}

// RLock takes the shared lock of a category. The catalog builder holds it
// while scanning so it never observes a half-written asset.
func (s *Store) RLock(ctx context.Context, category string) (Unlock, error) {
	return s.lock(ctx, category, "shared")
}

func (s *Store) lock(ctx context.Context, category, mode string) (Unlock, error) {
	if _, err := LookupCategory(category); err != nil {
		return nil, err
	}

	dir := filepath.Join(s.root, locksDir)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create lock directory: %w", err)
	}

	if s.lockTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.lockTimeout)
		defer cancel()
	}

	fl := flock.New(filepath.Join(dir, category+".lock"))
	start := time.Now()

	var locked bool
	var err error
	if mode == "exclusive" {
		locked, err = fl.TryLockContext(ctx, lockRetryDelay)
	} else {
		locked, err = fl.TryRLockContext(ctx, lockRetryDelay)
	}
	metrics.LockWaitDuration.WithLabelValues(mode).Observe(time.Since(start).Seconds())

	if err != nil {
		return nil, fmt.Errorf("failed to acquire %s lock on %s: %w", mode, category, err)
	}
	if !locked {
		return nil, fmt.Errorf("failed to acquire %s lock on %s", mode, category)
	}

	logging.Debug("Acquired %s lock on %s after %v", mode, category, time.Since(start))

	return func() {
		if err := fl.Unlock(); err != nil {
			logging.Warn("Failed to release %s lock on %s: %v", mode, category, err)
		}
	}, nil
}
