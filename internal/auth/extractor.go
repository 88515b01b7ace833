package auth

import (
	"errors"
	"net/http"
)

// Token extraction errors.
var (
	ErrMissingHeader  = errors.New("missing auth header")
	ErrEmptyToken     = errors.New("empty auth token")
	ErrMalformedToken = errors.New("malformed auth token")
)

// HeaderExtractor extracts the user token from a fixed request header.
type HeaderExtractor struct {
	header string
}

// NewHeaderExtractor creates a new header extractor.
// If header is empty, it defaults to DefaultHeader.
func NewHeaderExtractor(header string) *HeaderExtractor {
	if header == "" {
		header = DefaultHeader
	}
	return &HeaderExtractor{header: http.CanonicalHeaderKey(header)}
}

// Extract returns the token carried by r. The header value is used as is;
// surrounding whitespace makes the token malformed.
func (e *HeaderExtractor) Extract(r *http.Request) (string, error) {
	values, ok := r.Header[e.header]
	if !ok || len(values) == 0 {
		return "", ErrMissingHeader
	}

	token := values[0]
	if token == "" {
		return "", ErrEmptyToken
	}
	for i := 0; i < len(token); i++ {
		if c := token[i]; c <= ' ' || c >= 0x7f {
			return "", ErrMalformedToken
		}
	}
	return token, nil
}
