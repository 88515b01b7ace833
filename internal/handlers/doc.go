// Package handlers implements the business endpoints of the tracking pixel
// service and the ordered route table that binds them.
package handlers
