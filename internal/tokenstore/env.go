package tokenstore

import (
	"context"
	"fmt"
	"os"
	"sync"
)

// EnvStore seeds the token from an environment variable. Writes and removals
// live in process memory and shadow the variable from then on, so a token
// issued by the backend replaces the seed and a 401 clears it.
type EnvStore struct {
	envKey string

	mu      sync.RWMutex
	shadow  bool
	current string
}

// Compile-time check to ensure EnvStore implements TokenStore
var _ TokenStore = (*EnvStore)(nil)

// NewEnvStore creates an EnvStore for the given environment variable.
func NewEnvStore(envKey string) (*EnvStore, error) {
	if envKey == "" {
		return nil, fmt.Errorf("environment key cannot be empty")
	}

	return &EnvStore{
		envKey: envKey,
	}, nil
}

// Read returns the latest written token, or the environment variable until
// the first Write or Remove. ErrNotFound when neither holds a token.
func (e *EnvStore) Read(ctx context.Context) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	e.mu.RLock()
	shadow, token := e.shadow, e.current
	e.mu.RUnlock()

	if !shadow {
		token = os.Getenv(e.envKey)
	}
	if token == "" {
		return "", fmt.Errorf("environment variable %s: %w", e.envKey, ErrNotFound)
	}
	return token, nil
}

// Write replaces the token for the rest of the process. The environment is not modified.
func (e *EnvStore) Write(ctx context.Context, token string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	e.mu.Lock()
	e.shadow, e.current = true, token
	e.mu.Unlock()
	return nil
}

// Remove clears the token for the rest of the process, hiding the environment value.
func (e *EnvStore) Remove(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	e.mu.Lock()
	e.shadow, e.current = true, ""
	e.mu.Unlock()
	return nil
}
