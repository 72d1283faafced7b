// Package tokenstore persists the API bearer token between runs.
//
// Backends:
//   - File: token file with 0600 permissions, written atomically
//   - Keyring: OS credential store (macOS Keychain, Windows Credential Manager, Secret Service)
//   - Env: seeded from a variable set by external secret management, updated in memory
//   - Memory: process-local, for tests and one-shot commands
//
// A missing token is reported as ErrNotFound so callers can tell "no session"
// apart from a broken backend.
package tokenstore
