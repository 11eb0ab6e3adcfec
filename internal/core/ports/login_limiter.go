package ports

import "context"

// LoginLimiter tracks failed login attempts per account key.
type LoginLimiter interface {
	// Blocked reports whether key has exhausted its failed attempts.
	Blocked(ctx context.Context, key string) (bool, error)
	RecordFailure(ctx context.Context, key string) error
	Reset(ctx context.Context, key string) error
}
