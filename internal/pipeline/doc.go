// Package pipeline sequences the processing of one request:
//
//	Auth Gate -> Route + Dispatch -> Response Transform -> Respond
//
// A rejected credential short-circuits to a 401 response and skips dispatch
// and transform. Any error raised by a later stage, including a handler
// failure, is mapped to a fixed status and body here and nowhere else; the
// full error is logged server side only.
package pipeline
