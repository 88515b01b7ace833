// Package middleware provides the gin middleware wrapped around the request
// pipeline: panic recovery, request ids, the logging boundary, request
// metrics, body size limits and per-client rate limiting.
package middleware
