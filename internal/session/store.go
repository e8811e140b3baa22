// Package session keeps per-browser state for the portal: the auth token
// issued at login and the pending-submission locks.
package session

import (
	"context"
	"errors"
	"time"
)

// ErrNoToken is returned when the session has no stored token.
var ErrNoToken = errors.New("session: no token")

// Store persists session-scoped values. Implementations must be safe for concurrent use.
type Store interface {
	Token(ctx context.Context, sessionID string) (string, error)
	SetToken(ctx context.Context, sessionID, token string) error
	ClearToken(ctx context.Context, sessionID string) error
	// TryLock acquires the named lock unless it is already held and returns the
	// owner id of the new holder. The lock expires after ttl.
	TryLock(ctx context.Context, sessionID, name string, ttl time.Duration) (string, bool, error)
	// Unlock releases the lock only while owner still holds it.
	Unlock(ctx context.Context, sessionID, name, owner string) error
}

// Context is the session handle passed to components that need authentication state.
type Context struct {
	id    string
	store Store
}

// NewContext binds a session id to its backing store.
func NewContext(id string, store Store) *Context {
	return &Context{id: id, store: store}
}

// ID returns the session identifier.
func (c *Context) ID() string {
	return c.id
}

// Token returns the stored auth token or ErrNoToken.
func (c *Context) Token(ctx context.Context) (string, error) {
	return c.store.Token(ctx, c.id)
}

// StoreToken overwrites the auth token for this session.
func (c *Context) StoreToken(ctx context.Context, token string) error {
	return c.store.SetToken(ctx, c.id, token)
}

// ClearToken removes the auth token. Clearing an absent token is not an error.
func (c *Context) ClearToken(ctx context.Context) error {
	return c.store.ClearToken(ctx, c.id)
}

// TryLock acquires a session-scoped lock. The returned owner is passed back to Unlock.
func (c *Context) TryLock(ctx context.Context, name string, ttl time.Duration) (string, bool, error) {
	return c.store.TryLock(ctx, c.id, name, ttl)
}

// Unlock releases a session-scoped lock held by owner. A lock that expired and
// was taken by another attempt is left alone.
func (c *Context) Unlock(ctx context.Context, name, owner string) error {
	return c.store.Unlock(ctx, c.id, name, owner)
}
