package tracking

import (
	"context"
	"encoding/json"

	"github.com/vyrodovalexey/mpix/internal/observability"
	"github.com/vyrodovalexey/mpix/internal/store"
	"github.com/vyrodovalexey/mpix/internal/util"
)

// HistoryStore is the bounded-list primitive the recorder needs.
type HistoryStore interface {
	PushTrim(ctx context.Context, key, value string, limit int64) (int64, error)
	Range(ctx context.Context, key string, limit int64) ([]string, error)
}

// Recorder appends events to per-token histories.
type Recorder struct {
	store   HistoryStore
	keys    store.Keys
	metrics *observability.Metrics
}

// NewRecorder creates a recorder. metrics may be nil.
func NewRecorder(s HistoryStore, keys store.Keys, metrics *observability.Metrics) *Recorder {
	return &Recorder{store: s, keys: keys, metrics: metrics}
}

// Record prepends event to the history of token and returns the history
// length after trimming.
func (r *Recorder) Record(ctx context.Context, token string, event TrackedEvent) (int64, error) {
	data, err := json.Marshal(event)
	if err != nil {
		return 0, util.NewSerializationError("encode event", err)
	}

	count, err := r.store.PushTrim(ctx, r.keys.Token(token), string(data), HistoryLimit)
	if err != nil {
		return 0, err
	}
	r.metrics.RecordEvent()
	return count, nil
}

// History returns the events of token, newest first.
func (r *Recorder) History(ctx context.Context, token string) ([]TrackedEvent, error) {
	values, err := r.store.Range(ctx, r.keys.Token(token), HistoryLimit)
	if err != nil {
		return nil, err
	}

	events := make([]TrackedEvent, 0, len(values))
	for _, v := range values {
		var ev TrackedEvent
		if err := json.Unmarshal([]byte(v), &ev); err != nil {
			return nil, util.NewSerializationError("decode event", err)
		}
		events = append(events, ev)
	}
	return events, nil
}
