package tracking

import (
	"context"
	"encoding/json"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/vyrodovalexey/mpix/internal/store"
	"github.com/vyrodovalexey/mpix/internal/util"
)

// TokenStore is the hash and list access the registry needs.
type TokenStore interface {
	HSet(ctx context.Context, key, field, value string) error
	HGetAll(ctx context.Context, key string) (map[string]string, error)
	HExists(ctx context.Context, key, field string) (bool, error)
	LLenMany(ctx context.Context, keys []string) ([]int64, error)
}

// Registry manages the pixel tokens owned by users.
type Registry struct {
	store TokenStore
	keys  store.Keys
	now   func() time.Time
}

// NewRegistry creates a registry.
func NewRegistry(s TokenStore, keys store.Keys) *Registry {
	return &Registry{store: s, keys: keys, now: time.Now}
}

// NewTokenID returns a fresh token: a random UUID as 32 lowercase hex digits.
func NewTokenID() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")
}

// Create issues a new token for owner.
func (r *Registry) Create(ctx context.Context, owner, description string) (*Token, error) {
	token := &Token{
		Token:       NewTokenID(),
		Description: description,
		Created:     r.now(),
	}

	data, err := json.Marshal(token)
	if err != nil {
		return nil, util.NewSerializationError("encode token", err)
	}
	if err := r.store.HSet(ctx, r.keys.User(owner), token.Token, string(data)); err != nil {
		return nil, err
	}
	return token, nil
}

// List returns the tokens of owner with their event counts, newest first.
func (r *Registry) List(ctx context.Context, owner string) ([]TokenStats, error) {
	values, err := r.store.HGetAll(ctx, r.keys.User(owner))
	if err != nil {
		return nil, err
	}

	stats := make([]TokenStats, 0, len(values))
	for field, v := range values {
		var t Token
		if err := json.Unmarshal([]byte(v), &t); err != nil {
			return nil, util.NewSerializationError("decode token "+field, err)
		}
		if t.Token == "" {
			t.Token = field
		}
		stats = append(stats, TokenStats{Token: t})
	}

	sort.Slice(stats, func(i, j int) bool {
		if !stats[i].Created.Equal(stats[j].Created) {
			return stats[i].Created.After(stats[j].Created)
		}
		return stats[i].Token.Token < stats[j].Token.Token
	})

	keys := make([]string, len(stats))
	for i := range stats {
		keys[i] = r.keys.Token(stats[i].Token.Token)
	}
	counts, err := r.store.LLenMany(ctx, keys)
	if err != nil {
		return nil, err
	}
	for i := range stats {
		stats[i].Count = counts[i]
	}
	return stats, nil
}

// Owns reports whether token belongs to owner.
func (r *Registry) Owns(ctx context.Context, owner, token string) (bool, error) {
	return r.store.HExists(ctx, r.keys.User(owner), token)
}
