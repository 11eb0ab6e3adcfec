package redis

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/smart-inventory/inventory-api/internal/core/ports"
)

const (
	defaultMaxAttempts = 5
	defaultLockout     = 15 * time.Minute
)

// LoginThrottle counts failed logins per account in Redis and blocks further
// attempts once MaxAttempts is reached, until the counter expires.
// Key format: login:failures:<sha256(email)>
type LoginThrottle struct {
	client      redis.Cmdable
	maxAttempts int64
	lockout     time.Duration
}

var _ ports.LoginLimiter = (*LoginThrottle)(nil)

// NewLoginThrottle wraps client. Non-positive limits fall back to 5 attempts
// per 15 minutes.
func NewLoginThrottle(client redis.Cmdable, maxAttempts int, lockout time.Duration) *LoginThrottle {
	if maxAttempts <= 0 {
		maxAttempts = defaultMaxAttempts
	}
	if lockout <= 0 {
		lockout = defaultLockout
	}
	return &LoginThrottle{client: client, maxAttempts: int64(maxAttempts), lockout: lockout}
}

// Blocked reports whether key has used up its failed attempts.
func (t *LoginThrottle) Blocked(ctx context.Context, key string) (bool, error) {
	n, err := t.client.Get(ctx, t.key(key)).Int64()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("throttle check: %w", err)
	}
	return n >= t.maxAttempts, nil
}

// RecordFailure increments the failure counter. The lockout window starts at
// the first failure and is not extended by later ones.
func (t *LoginThrottle) RecordFailure(ctx context.Context, key string) error {
	k := t.key(key)
	_, err := t.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Incr(ctx, k)
		pipe.ExpireNX(ctx, k, t.lockout)
		return nil
	})
	if err != nil {
		return fmt.Errorf("throttle record: %w", err)
	}
	return nil
}

// Reset clears the counter after a successful login.
func (t *LoginThrottle) Reset(ctx context.Context, key string) error {
	if err := t.client.Del(ctx, t.key(key)).Err(); err != nil {
		return fmt.Errorf("throttle reset: %w", err)
	}
	return nil
}

// key hashes the account identifier so email addresses are not stored in
// Redis in clear text.
func (t *LoginThrottle) key(account string) string {
	sum := sha256.Sum256([]byte(account))
	return "login:failures:" + hex.EncodeToString(sum[:])
}
