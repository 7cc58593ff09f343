package registry

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	_ "github.com/mattn/go-sqlite3" // SQLite3 driver

	"wallpaper-catalog/internal/logging"
	"wallpaper-catalog/internal/media"
	"wallpaper-catalog/internal/metrics"
	"wallpaper-catalog/internal/store"
)

// Default timeout for opening the database
const defaultTimeout = 5 * time.Second

// Scope decides which assets a hash must be unique against.
type Scope string

const (
	// ScopeGlobal rejects a hash owned by an asset in any category.
	ScopeGlobal Scope = "global"
	// ScopeCategory only rejects a hash owned by an asset in the same category.
	ScopeCategory Scope = "category"
)

// ParseScope validates a scope name.
func ParseScope(s string) (Scope, error) {
	switch Scope(s) {
	case ScopeGlobal, ScopeCategory:
		return Scope(s), nil
	default:
		return "", fmt.Errorf("unknown duplicate scope %q (want %q or %q)", s, ScopeGlobal, ScopeCategory)
	}
}

// ErrDuplicateHash matches any *DuplicateHashError via errors.Is.
var ErrDuplicateHash = errors.New("duplicate content hash")

// DuplicateHashError reports that a hash is already owned by another asset.
type DuplicateHashError struct {
	Hash       string
	ExistingID string
}

func (e *DuplicateHashError) Error() string {
	return fmt.Sprintf("content hash %s already registered to %s", e.Hash, e.ExistingID)
}

// Is makes errors.Is(err, ErrDuplicateHash) true.
func (e *DuplicateHashError) Is(target error) bool {
	return target == ErrDuplicateHash
}

// ContentHash returns the hex SHA-256 of normalized image bytes.
func ContentHash(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// Fingerprint identifies normalized content: the exact hash of its bytes
// and a perceptual hash of its pixels.
type Fingerprint struct {
	Hash       string
	Perceptual uint64
}

// Entry is one registry row. HasPerceptual is false for rows whose image
// could not be decoded when they were registered.
type Entry struct {
	Hash          string
	Category      string
	AssetID       string
	Perceptual    uint64
	HasPerceptual bool
	RegisteredAt  time.Time
}

// Match is a registered asset whose perceptual hash is near a candidate's.
type Match struct {
	AssetID  string
	Distance int
}

// Registry is the persistent content hash → asset ID map.
type Registry struct {
	db    *sql.DB
	path  string
	scope Scope
}

// Open opens (creating if needed) the registry database at path.
func Open(ctx context.Context, path string, scope Scope) (*Registry, error) {
	if _, err := ParseScope(string(scope)); err != nil {
		return nil, err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create registry directory: %w", err)
	}

	// _txlock=immediate takes the write lock at BEGIN, so check-then-insert
	// in Register is serialized across processes.
	connStr := fmt.Sprintf("%s?_journal_mode=WAL&_synchronous=NORMAL&_busy_timeout=5000&_txlock=immediate", path)

	db, err := sql.Open("sqlite3", connStr)
	if err != nil {
		return nil, fmt.Errorf("failed to open registry: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	if err := db.PingContext(pingCtx); err != nil {
		if closeErr := db.Close(); closeErr != nil {
			logging.Error("failed to close registry after ping failure: %v", closeErr)
		}
		return nil, fmt.Errorf("failed to connect to registry: %w", err)
	}

	db.SetMaxOpenConns(4)
	db.SetMaxIdleConns(2)

	r := &Registry{db: db, path: path, scope: scope}
	if err := r.initialize(ctx); err != nil {
		if closeErr := db.Close(); closeErr != nil {
			logging.Error("failed to close registry after initialization failure: %v", closeErr)
		}
		return nil, fmt.Errorf("failed to initialize registry schema: %w", err)
	}

	logging.Debug("Registry opened at %s (scope %s)", path, scope)
	r.updateEntriesGauge(ctx)
	return r, nil
}

func (r *Registry) initialize(ctx context.Context) error {
	schema := `
	CREATE TABLE IF NOT EXISTS hashes (
		hash TEXT NOT NULL,
		category TEXT NOT NULL,
		asset_id TEXT NOT NULL UNIQUE,
		phash INTEGER,
		registered_at INTEGER NOT NULL DEFAULT (strftime('%s', 'now')),
		PRIMARY KEY (hash, category)
	);

	CREATE INDEX IF NOT EXISTS idx_hashes_hash ON hashes(hash);
	`
	if _, err := r.db.ExecContext(ctx, schema); err != nil {
		return err
	}
	return r.runMigrations(ctx)
}

// runMigrations upgrades registries created before perceptual hashes
// were recorded. Existing rows keep a NULL phash until a rebuild.
func (r *Registry) runMigrations(ctx context.Context) error {
	var columnExists bool
	err := r.db.QueryRowContext(ctx, `
		SELECT COUNT(*) > 0
		FROM pragma_table_info('hashes')
		WHERE name='phash'
	`).Scan(&columnExists)
	if err != nil {
		return fmt.Errorf("failed to check for phash column: %w", err)
	}

	if !columnExists {
		logging.Info("Migrating registry: adding phash column (run 'catalog registry rebuild' to fill it)")
		if _, err := r.db.ExecContext(ctx, `ALTER TABLE hashes ADD COLUMN phash INTEGER`); err != nil {
			return fmt.Errorf("failed to add phash column: %w", err)
		}
	}
	return nil
}

// Close closes the database connection.
func (r *Registry) Close() error {
	return r.db.Close()
}

// Path returns the database file path.
func (r *Registry) Path() string {
	return r.path
}

// Scope returns the duplicate scope the registry enforces.
func (r *Registry) Scope() Scope {
	return r.scope
}

type querier interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func (r *Registry) owner(ctx context.Context, q querier, hash, category string) (string, error) {
	var (
		row *sql.Row
		id  string
	)
	if r.scope == ScopeCategory {
		row = q.QueryRowContext(ctx,
			`SELECT asset_id FROM hashes WHERE hash = ? AND category = ?`, hash, category)
	} else {
		row = q.QueryRowContext(ctx,
			`SELECT asset_id FROM hashes WHERE hash = ? ORDER BY category, asset_id LIMIT 1`, hash)
	}
	err := row.Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	return id, err
}

// Lookup returns the asset that owns hash within the registry's scope for
// an asset of the given category. ok is false when there is no owner.
func (r *Registry) Lookup(ctx context.Context, hash, category string) (id string, ok bool, err error) {
	start := time.Now()
	defer func() { recordOperation("lookup", start, err) }()

	id, err = r.owner(ctx, r.db, hash, category)
	if err != nil {
		return "", false, fmt.Errorf("failed to look up hash: %w", err)
	}
	return id, id != "", nil
}

// Similar returns the assets within scope whose perceptual hash is at most
// maxDistance bits from perceptual, nearest first. Rows without a
// perceptual hash never match.
func (r *Registry) Similar(ctx context.Context, perceptual uint64, category string, maxDistance int) (matches []Match, err error) {
	start := time.Now()
	defer func() { recordOperation("similar", start, err) }()

	var rows *sql.Rows
	if r.scope == ScopeCategory {
		rows, err = r.db.QueryContext(ctx,
			`SELECT asset_id, phash FROM hashes WHERE phash IS NOT NULL AND category = ? ORDER BY category, asset_id`, category)
	} else {
		rows, err = r.db.QueryContext(ctx,
			`SELECT asset_id, phash FROM hashes WHERE phash IS NOT NULL ORDER BY category, asset_id`)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query perceptual hashes: %w", err)
	}
	defer func() {
		if closeErr := rows.Close(); closeErr != nil {
			logging.Warn("failed to close registry rows: %v", closeErr)
		}
	}()

	for rows.Next() {
		var (
			id     string
			stored int64
		)
		if err := rows.Scan(&id, &stored); err != nil {
			return nil, err
		}
		if d := media.PerceptualDistance(perceptual, uint64(stored)); d <= maxDistance {
			matches = append(matches, Match{AssetID: id, Distance: d})
		}
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	sort.SliceStable(matches, func(i, j int) bool { return matches[i].Distance < matches[j].Distance })
	return matches, nil
}

// Register records fp as owned by assetID. It fails with a
// *DuplicateHashError if another asset owns the exact hash within scope.
// Registering the same pair twice is a no-op.
func (r *Registry) Register(ctx context.Context, fp Fingerprint, assetID string) (err error) {
	start := time.Now()
	defer func() {
		recordOperation("register", start, err)
		if err == nil {
			r.updateEntriesGauge(ctx)
		}
	}()

	category, _, err := store.ParseAssetID(assetID)
	if err != nil {
		return err
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin registration: %w", err)
	}

	hash := fp.Hash
	existing, err := r.owner(ctx, tx, hash, category)
	if err != nil {
		return rollback(tx, fmt.Errorf("failed to check hash owner: %w", err))
	}
	if existing == assetID {
		return rollback(tx, nil)
	}
	if existing != "" {
		return rollback(tx, &DuplicateHashError{Hash: hash, ExistingID: existing})
	}

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO hashes (hash, category, asset_id, phash, registered_at) VALUES (?, ?, ?, ?, ?)`,
		hash, category, assetID, int64(fp.Perceptual), time.Now().Unix()); err != nil {
		return rollback(tx, fmt.Errorf("failed to register %s: %w", assetID, err))
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit registration of %s: %w", assetID, err)
	}
	return nil
}

// Unregister removes the row owned by assetID. Unknown IDs are not an error.
func (r *Registry) Unregister(ctx context.Context, assetID string) (err error) {
	start := time.Now()
	defer func() {
		recordOperation("unregister", start, err)
		if err == nil {
			r.updateEntriesGauge(ctx)
		}
	}()

	if _, err = r.db.ExecContext(ctx, `DELETE FROM hashes WHERE asset_id = ?`, assetID); err != nil {
		return fmt.Errorf("failed to unregister %s: %w", assetID, err)
	}
	return nil
}

// HashOf returns the hash registered to assetID.
func (r *Registry) HashOf(ctx context.Context, assetID string) (string, bool, error) {
	var hash string
	err := r.db.QueryRowContext(ctx, `SELECT hash FROM hashes WHERE asset_id = ?`, assetID).Scan(&hash)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("failed to read hash of %s: %w", assetID, err)
	}
	return hash, true, nil
}

// Count returns the number of registered hashes.
func (r *Registry) Count(ctx context.Context) (n int, err error) {
	start := time.Now()
	defer func() { recordOperation("count", start, err) }()

	err = r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM hashes`).Scan(&n)
	return n, err
}

// List returns every row ordered by category then asset ID.
func (r *Registry) List(ctx context.Context) (entries []Entry, err error) {
	start := time.Now()
	defer func() { recordOperation("list", start, err) }()

	rows, err := r.db.QueryContext(ctx,
		`SELECT hash, category, asset_id, phash, registered_at FROM hashes ORDER BY category, asset_id`)
	if err != nil {
		return nil, fmt.Errorf("failed to list registry: %w", err)
	}
	defer func() {
		if closeErr := rows.Close(); closeErr != nil {
			logging.Warn("failed to close registry rows: %v", closeErr)
		}
	}()

	for rows.Next() {
		var (
			e     Entry
			phash sql.NullInt64
			ts    int64
		)
		if err := rows.Scan(&e.Hash, &e.Category, &e.AssetID, &phash, &ts); err != nil {
			return nil, err
		}
		e.Perceptual, e.HasPerceptual = uint64(phash.Int64), phash.Valid
		e.RegisteredAt = time.Unix(ts, 0).UTC()
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

func rollback(tx *sql.Tx, err error) error {
	if rbErr := tx.Rollback(); rbErr != nil {
		if err == nil {
			return fmt.Errorf("rollback failed: %w", rbErr)
		}
		return errors.Join(err, fmt.Errorf("rollback also failed: %w", rbErr))
	}
	return err
}

// recordOperation records registry operation metrics
func recordOperation(operation string, start time.Time, err error) {
	status := "success"
	if err != nil && !errors.Is(err, ErrDuplicateHash) {
		status = "error"
	}
	metrics.RegistryOperationsTotal.WithLabelValues(operation, status).Inc()
	metrics.RegistryOperationDuration.WithLabelValues(operation).Observe(time.Since(start).Seconds())
}

func (r *Registry) updateEntriesGauge(ctx context.Context) {
	n, err := r.Count(ctx)
	if err != nil {
		logging.Debug("failed to count registry entries: %v", err)
		return
	}
	metrics.RegistryEntries.Set(float64(n))
}
