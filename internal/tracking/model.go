package tracking

import "time"

// HistoryLimit is the maximum number of events kept per pixel token.
const HistoryLimit = 200

// TrackedEvent is one retrieval of a tracking pixel.
type TrackedEvent struct {
	Created time.Time `json:"created"`
}

// NewEvent returns an event stamped with the current time.
func NewEvent() TrackedEvent {
	return TrackedEvent{Created: time.Now()}
}

// Token is a pixel token owned by a user.
type Token struct {
	Token       string    `json:"token"`
	Description string    `json:"description"`
	Created     time.Time `json:"created"`
}

// TokenStats is a token together with its current event count.
type TokenStats struct {
	Token
	Count int64 `json:"count"`
}
