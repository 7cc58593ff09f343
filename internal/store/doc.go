/*
Package store implements the on-disk category store of the wallpaper
collection.

Layout under the collection root:

	wallpapers/<category>/<seq>.jpg    normalized image
	thumbnails/<category>/<seq>.jpg    derived thumbnail
	metadata/<category>/<seq>.json     sidecar (title, tags, provenance, size)
	metadata/<category>/<seq>.removed  tombstone of a removed asset
	.locks/<category>.lock             advisory lock file

Sequences are zero-padded to three digits ("001"); larger numbers widen
("1000"). The asset ID is "<category>_<seq>" and, like every path and URL,
is computed from category and sequence rather than stored.

# Allocation

NextSequence recomputes the next number from the directory contents on
every call. Any numeric file name in any of the three directories counts,
as do tombstones, so sequences are monotonic and never reused.

# Locking

Each category has a gofrs/flock lock file. Writers (ingest, remove) take it
exclusively around allocation and the multi-file write; the catalog builder
takes it shared while scanning.
*/
package store
