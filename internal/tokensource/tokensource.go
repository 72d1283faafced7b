package tokensource

import (
	"context"
	"fmt"

	"golang.org/x/oauth2"

	"github.com/careerhub/hubclient/internal/tokenstore"
)

// TokenType is the authorization scheme of every issued token.
const TokenType = "Bearer"

// StoreTokenSource reads the bearer token from a TokenStore on every call.
type StoreTokenSource struct {
	store tokenstore.TokenStore
}

// Compile-time check to ensure StoreTokenSource implements oauth2.TokenSource
var _ oauth2.TokenSource = (*StoreTokenSource)(nil)

// New creates a StoreTokenSource backed by store.
func New(store tokenstore.TokenStore) *StoreTokenSource {
	return &StoreTokenSource{store: store}
}

// Token implements oauth2.TokenSource. oauth2.TokenSource has no context
// parameter, so background context is used; prefer TokenContext.
func (s *StoreTokenSource) Token() (*oauth2.Token, error) {
	return s.TokenContext(context.Background())
}

// TokenContext returns the stored token. The error wraps tokenstore.ErrNotFound
// when no session exists.
func (s *StoreTokenSource) TokenContext(ctx context.Context) (*oauth2.Token, error) {
	raw, err := s.store.Read(ctx)
	if err != nil {
		return nil, fmt.Errorf("reading stored token: %w", err)
	}
	return FromString(raw), nil
}

// FromString wraps a raw token string as a bearer oauth2.Token without expiry.
func FromString(raw string) *oauth2.Token {
	return &oauth2.Token{
		AccessToken: raw,
		TokenType:   TokenType,
	}
}
