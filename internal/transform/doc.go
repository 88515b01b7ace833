// Package transform rewrites responses after dispatch.
//
// Gzip compresses the whole body when the request accepts gzip. The body is
// fully buffered first, so streaming responses lose incremental delivery
// when compression is negotiated. Without negotiation the response passes
// through untouched.
package transform
