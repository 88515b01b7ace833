package store

// Keys builds namespaced store keys.
type Keys struct {
	prefix string
}

// NewKeys returns a key builder for prefix.
func NewKeys(prefix string) Keys {
	return Keys{prefix: prefix}
}

// Users is the hash of registered user tokens.
func (k Keys) Users() string {
	return k.prefix + ".users"
}

// User is the hash of pixel tokens owned by owner.
func (k Keys) User(owner string) string {
	return k.prefix + ".user:" + owner
}

// Token is the event history list of a pixel token.
func (k Keys) Token(token string) string {
	return k.prefix + ".token:" + token
}
