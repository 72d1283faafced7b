package tokenstore

import (
	"context"
	"errors"
)

// ErrNotFound is returned by Read when no token is stored.
var ErrNotFound = errors.New("token not found")

// TokenStore reads, writes and removes the single bearer token.
type TokenStore interface {
	// Read returns the stored token, or ErrNotFound if none is stored.
	Read(ctx context.Context) (string, error)

	// Write persists the token, replacing any previous value.
	Write(ctx context.Context, token string) error

	// Remove deletes the stored token. Removing an absent token is not an error.
	Remove(ctx context.Context) error
}

// IsNotFound reports whether err means no token is stored.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}
