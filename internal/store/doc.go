// Package store is the Redis adapter used by the service.
//
// Every call runs under a per-operation timeout, is wrapped in an
// OpenTelemetry client span, is timed in Prometheus and optionally passes
// through a circuit breaker. Idempotent reads are retried on connection
// errors with exponential backoff. All failures surface as util.KindStore
// errors.
//
// Keys are namespaced with a configurable prefix:
//
//	<prefix>.users          hash   user token -> user record
//	<prefix>.user:<owner>   hash   pixel token -> token record
//	<prefix>.token:<token>  list   tracked events, newest first
package store
