// Package http holds the gin.HandlerFunc handlers that build and run
// pipelines on behalf of an HTTP caller, following the teacher's
// internal/api/http handler shape (a Handlers struct wrapping the
// dependencies a route needs, one method per route).
package http
