/*
Package ingest turns candidate image files into stored assets.

A candidate goes through five steps:

 1. Validate: supported format (JPEG, PNG, WebP), minimum dimensions,
    file size band and pixel budget.
 2. Normalize: decode, orient, flatten, downscale to the mobile cap and
    re-encode as JPEG.
 3. Deduplicate: hash the normalized bytes and consult the registry. A
    candidate with no exact match is also a duplicate when the registry
    holds a near perceptual hash whose stored image looks the same, which
    catches lossy re-compressions.
 4. Accept gate: run the caller's AcceptFunc on the normalized image.
 5. Commit: under the category's exclusive lock, repeat the perceptual
    check, allocate the next sequence, write image, thumbnail and sidecar,
    then register both hashes.

Steps 1 to 4 produce a Rejection inside the Result rather than an error.
A failure in step 5 removes every file already written for the asset and
returns a *WriteError, so the catalog builder never sees a half-written
asset and the sequence is free again.

With Request.Update set, a duplicate does not reject: the owning asset's
sidecar is rewritten from the new hints and its ID is kept.

Remove deletes an asset under the same lock. It leaves a tombstone so the
sequence number is never handed out again.
*/
package ingest
