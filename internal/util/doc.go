// Package util provides shared error kinds and request-scoped context
// helpers for the mpix service.
//
// # Error Conventions
//
// Every failure that crosses a package boundary is a *Error carrying one
// Kind from a small closed set. The pipeline is the only place that maps a
// Kind to an HTTP status:
//
//	KindValidation   -> 400
//	KindUnauthorized -> 401
//	KindNotFound     -> 404
//	everything else  -> 500
//
// Callers test for a kind with errors.Is against the exported sentinels
// (ErrStore, ErrValidation, ...) or with KindOf.
//
// # Context Helpers
//
//	ctx = util.ContextWithRequestID(ctx, "req-123")
//	requestID := util.RequestIDFromContext(ctx)
package util
