// Command catalog maintains a categorized wallpaper collection and the static
// JSON catalog derived from it.
//
// Usage:
//
//	catalog ingest <category> <file>... [--hints f.json] [--title t] [--tags a,b] [--update] [--build]
//	catalog remove <asset-id>...
//	catalog build
//	catalog check
//	catalog registry rebuild
//	catalog registry verify
//	catalog serve [--port 8080]
//	catalog publish [--assets]
//
// Global flags:
//
//	--config            path to a catalog.yaml (default: ./catalog.yaml, $HOME/.catalog/catalog.yaml)
//	--root              collection root (default: collection)
//	--output-dir        derived document tree (default: <root>/api/v1)
//	--registry-path     hash registry database (default: <root>/registry/hashes.db)
//	--base-url          URL prefix for image and thumbnail links
//	--duplicate-scope   global or category
//	--metrics-textfile  write Prometheus metrics here on exit
//	--log-level         debug, info, warn or error
//
// Every setting can also come from the environment as CATALOG_<KEY>, with
// dashes replaced by underscores.
package main
