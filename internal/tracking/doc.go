// Package tracking records pixel events and manages the pixel tokens owned
// by users.
//
// Each pixel token has a bounded history of at most HistoryLimit events,
// newest first. Appending an event and trimming the history is a single
// atomic store operation, so the returned count is always
// min(total appends, HistoryLimit) and readers never see an over-full list.
package tracking
