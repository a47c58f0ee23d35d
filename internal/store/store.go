// Package store keeps short-lived authentication state: revoked token IDs
// and failed sign-in counters. Redis backs it in production; the in-memory
// implementation serves single-instance deployments and tests.
package store

import (
	"context"
	"time"
)

// TokenDenylist remembers revoked token IDs until the token would have expired anyway.
type TokenDenylist interface {
	Revoke(ctx context.Context, tokenID string, expiresAt time.Time) error
	IsRevoked(ctx context.Context, tokenID string) (bool, error)
}

// LoginThrottle counts failed sign-ins per key inside a fixed window.
type LoginThrottle interface {
	// Locked reports whether key has reached the failure limit in the current window.
	Locked(ctx context.Context, key string) (bool, error)
	// RegisterFailure records a failed attempt. The window starts at the first failure.
	RegisterFailure(ctx context.Context, key string) error
	// Reset forgets all failures for key.
	Reset(ctx context.Context, key string) error
}
