/*
Package workers sizes and runs the catalog's bounded worker pools.

Worker counts derive from GOMAXPROCS rather than runtime.NumCPU, so a
container limited to 2 CPUs on a 64-core host gets 2 decode workers, not 64.

	// decoding and re-encoding images
	n := workers.ForCPU(8)

	// reading sidecars, hashing stored files
	n := workers.ForIO(16)

CATALOG_WORKERS pins the count for every pool (still capped by each pool's
limit):

	CATALOG_WORKERS=4 catalog build

ForEach runs an indexed loop on an errgroup with that many goroutines. The
builder uses it to read sidecars and the registry uses it to re-hash the
collection during rebuild. Callers write results into a pre-sized slice at
index i, which keeps output order independent of scheduling.
*/
package workers
