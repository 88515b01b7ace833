// Package health serves the liveness and readiness probes of the admin
// listener. Readiness runs the registered dependency checks concurrently
// under a deadline.
package health
