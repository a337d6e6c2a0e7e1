// Package endpoint models the typed input/output endpoints a PipelineEngine
// feeds from and drains to: None, Fd, File (optionally gzip-compressed),
// Bytes, and Callback. Each of Input and Output has exactly one
// configuration; a second Set* call after the first is a caller bug and
// panics rather than silently overwriting the first.
package endpoint
