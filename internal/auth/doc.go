// Package auth decides per request whether a caller identity is required and
// validates it against the registered users in the store.
//
// Exempt paths (exact matches on the normalised path) and exempt prefixes
// bypass authentication entirely: no header is read and the store is not
// contacted. Every other request must carry a token in the auth header that
// is present in the users hash. A missing or unknown token, a lookup error
// and a lookup timeout all result in an unauthorized outcome.
package auth
