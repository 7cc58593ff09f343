// Package publish uploads the collection to S3 so clients can fetch images
// and derived documents straight from a bucket (or a CDN in front of it).
//
// Image and thumbnail trees are uploaded with an immutable cache policy,
// since a sequence number is never reused. Documents get a short max-age.
package publish
