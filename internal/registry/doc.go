/*
Package registry persists the content hash → asset ID map used to reject
duplicate images at ingestion time.

The map lives in a SQLite database (mattn/go-sqlite3, WAL mode) under the
collection root, so later ingestion runs detect duplicates without
re-hashing the collection. A hash is the hex SHA-256 of the normalized JPEG
bytes as stored.

Uniqueness is enforced per Scope: ScopeGlobal rejects a hash already owned
anywhere in the collection, ScopeCategory only within the same category.

The database is a cache of what is on disk. Rebuild re-hashes every stored
image and replaces its contents; Verify reports rows without assets,
assets without rows, and hash mismatches.
*/
package registry
