// Package media validates candidate images and produces the normalized
// JPEG and thumbnail stored for each asset.
//
// Supported inputs are JPEG, PNG and WebP. Normalization decodes with EXIF
// auto-orientation, flattens transparency onto white, downscales to fit the
// target box (never upscales) and re-encodes at a fixed JPEG quality. The
// output depends only on the decoded pixels, so pixel-identical inputs
// produce byte-identical output and hash to the same content hash.
//
// Lossy re-encodes do not survive that hash, so PerceptualHash gives a
// difference hash of the normalized pixels and SameImage confirms a near
// hash by comparing both images at a small scale.
package media
