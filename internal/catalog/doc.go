/*
Package catalog derives the published JSON documents from the category
store.

Nothing is read from previously generated documents: every build scans the
store, computes IDs and URLs from category and sequence, and renders:

	all.json                 every entry, ordered by category then sequence
	categories.json          directory of non-empty categories
	categories/<cat>.json    entries of one category
	pages/all/<k>.json       pages over all.json
	pages/<cat>/<k>.json     pages over one category
	featured.json            newest entries by added_at
	stats.json               counts, sizes, popular tags, integrity

Every document is an envelope {"meta": {...}, "data": ...}. With a fixed
clock two builds of the same store are byte-identical; otherwise only
generated_at differs.

Assets missing a file or with an unreadable sidecar are reported as
IntegrityIssue values and left out, so one bad asset never prevents a
build. Each build writes a new generation directory beside the output
path, which is a symlink; one rename of a fresh link publishes the new
generation, so readers never find the path missing.
*/
package catalog
