package auth

import (
	"context"
	"encoding/json"

	"github.com/vyrodovalexey/mpix/internal/store"
	"github.com/vyrodovalexey/mpix/internal/util"
)

// UserLookup checks whether a user token is registered.
type UserLookup interface {
	UserExists(ctx context.Context, token string) (bool, error)
}

// UserStore is the hash access needed to look up and register users.
type UserStore interface {
	HGet(ctx context.Context, key, field string) (string, bool, error)
	HSetNX(ctx context.Context, key, field, value string) (bool, error)
}

// User is the record stored for a registered user token.
type User struct {
	Name string `json:"name"`
}

// Users is the registry of user tokens kept in the users hash.
type Users struct {
	store UserStore
	keys  store.Keys
}

// NewUsers creates a user registry.
func NewUsers(s UserStore, keys store.Keys) *Users {
	return &Users{store: s, keys: keys}
}

// UserExists performs a single point lookup of token. Only presence matters;
// the stored record is not inspected.
func (u *Users) UserExists(ctx context.Context, token string) (bool, error) {
	_, found, err := u.store.HGet(ctx, u.keys.Users(), token)
	return found, err
}

// Register adds token with user unless it is already registered, and
// reports whether it was added.
func (u *Users) Register(ctx context.Context, token string, user User) (bool, error) {
	if token == "" {
		return false, util.NewValidationError("user token must not be empty")
	}
	data, err := json.Marshal(user)
	if err != nil {
		return false, util.NewSerializationError("encode user", err)
	}
	return u.store.HSetNX(ctx, u.keys.Users(), token, string(data))
}
