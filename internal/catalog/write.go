package catalog

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"wallpaper-catalog/internal/logging"
)

// writeTree writes docs into a new generation directory beside outDir and
// points outDir at it with a single rename of a symlink. Readers resolve
// either the old generation or the new one, never a missing path; a
// failure before the rename leaves the old generation in place.
//
// Layout for outDir = <parent>/v1:
//
//	<parent>/v1                 -> .v1.<uuid> (symlink)
//	<parent>/.v1.<uuid>/        current generation
func writeTree(outDir string, docs []Document) (err error) {
	parent, base := filepath.Dir(outDir), filepath.Base(outDir)
	if err := os.MkdirAll(parent, 0o755); err != nil {
		return fmt.Errorf("failed to create %s: %w", parent, err)
	}

	suffix := uuid.NewString()
	generation := "." + base + "." + suffix
	staging := filepath.Join(parent, generation)
	defer func() {
		if err != nil {
			if rmErr := os.RemoveAll(staging); rmErr != nil {
				logging.Warn("failed to remove staging directory %s: %v", staging, rmErr)
			}
		}
	}()

	for _, doc := range docs {
		target := filepath.Join(staging, filepath.FromSlash(doc.Path))
		if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
			return fmt.Errorf("failed to create %s: %w", filepath.Dir(target), err)
		}
		if err := os.WriteFile(target, doc.Data, 0o644); err != nil {
			return fmt.Errorf("failed to write %s: %w", doc.Path, err)
		}
	}
	if err := os.MkdirAll(staging, 0o755); err != nil {
		return err
	}

	previous, legacy, err := currentGeneration(outDir)
	if err != nil {
		return err
	}

	link := filepath.Join(parent, "."+base+".link-"+suffix)
	if err := os.Symlink(generation, link); err != nil {
		return fmt.Errorf("failed to create catalog link: %w", err)
	}
	defer func() {
		if err != nil {
			if rmErr := os.Remove(link); rmErr != nil && !errors.Is(rmErr, os.ErrNotExist) {
				logging.Warn("failed to remove catalog link %s: %v", link, rmErr)
			}
		}
	}()

	if legacy {
		return replaceDirectory(outDir, link, suffix)
	}

	if err := os.Rename(link, outDir); err != nil {
		return fmt.Errorf("failed to move new catalog into place: %w", err)
	}

	// only remove generations this writer created
	if previous != "" && strings.HasPrefix(previous, "."+base+".") && filepath.Base(previous) == previous {
		if err := os.RemoveAll(filepath.Join(parent, previous)); err != nil {
			logging.Warn("failed to remove previous catalog %s: %v", previous, err)
		}
	}
	return nil
}

// currentGeneration returns the symlink target of outDir. legacy is true
// when outDir is a plain directory written before generations existed.
func currentGeneration(outDir string) (previous string, legacy bool, err error) {
	info, err := os.Lstat(outDir)
	if errors.Is(err, os.ErrNotExist) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("failed to inspect %s: %w", outDir, err)
	}

	switch {
	case info.Mode()&os.ModeSymlink != 0:
		target, err := os.Readlink(outDir)
		if err != nil {
			return "", false, fmt.Errorf("failed to read catalog link: %w", err)
		}
		return target, false, nil
	case info.IsDir():
		return "", true, nil
	default:
		return "", false, fmt.Errorf("%s exists and is not a directory", outDir)
	}
}

// replaceDirectory converts a plain outDir into a link. A directory cannot
// be replaced by a rename, so this one-time migration moves it aside
// first and restores it if the link cannot take its place.
func replaceDirectory(outDir, link, suffix string) error {
	logging.Info("Converting %s to a versioned catalog link", outDir)

	prev := filepath.Join(filepath.Dir(outDir), "."+filepath.Base(outDir)+".legacy-"+suffix)
	if err := os.Rename(outDir, prev); err != nil {
		return fmt.Errorf("failed to move previous catalog aside: %w", err)
	}
	if err := os.Rename(link, outDir); err != nil {
		if restoreErr := os.Rename(prev, outDir); restoreErr != nil {
			logging.Error("failed to restore previous catalog from %s: %v", prev, restoreErr)
		}
		return fmt.Errorf("failed to move new catalog into place: %w", err)
	}
	if err := os.RemoveAll(prev); err != nil {
		logging.Warn("failed to remove previous catalog %s: %v", prev, err)
	}
	return nil
}
