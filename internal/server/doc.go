// Package server is the optional read-only HTTP front for a built catalog.
//
// Routes:
//   - GET /api/v1/{path}.json            derived documents from the output dir
//   - GET /wallpapers/{category}/{NNN}.jpg  normalized images
//   - GET /thumbnails/{category}/{NNN}.jpg  thumbnails
//   - GET /healthz                        ready once all.json exists
//   - GET /metrics                        Prometheus exposition
//
// Requests are access-logged in W3C Extended Log Format and JSON documents
// are gzip-compressed when the client accepts it. The server never writes to
// the store; the build and ingest commands remain the only writers.
package server
