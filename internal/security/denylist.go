package security

import (
	"context"
	"errors"
	"fmt"
	"time"

	"rental-marketplace-backend/internal/logger"

	"github.com/redis/go-redis/v9"
)

// Denylist records revoked access-token IDs until the token would have expired anyway
type Denylist interface {
	Revoke(ctx context.Context, jti string, ttl time.Duration) error
	IsRevoked(ctx context.Context, jti string) (bool, error)
}

type redisDenylist struct {
	rdb *redis.Client
}

func NewRedisDenylist(rdb *redis.Client) Denylist {
	return &redisDenylist{rdb: rdb}
}

func denylistKey(jti string) string { return fmt.Sprintf("auth:revoked:%s", jti) }

func (d *redisDenylist) Revoke(ctx context.Context, jti string, ttl time.Duration) error {
	if jti == "" || ttl <= 0 {
		return nil
	}
	logger.ExternalServiceCall("redis", "SET", "key", denylistKey(jti), "ttl", ttl)
	err := d.rdb.Set(ctx, denylistKey(jti), 1, ttl).Err()
	logger.ExternalServiceResult("redis", "SET", err)
	return err
}

func (d *redisDenylist) IsRevoked(ctx context.Context, jti string) (bool, error) {
	if jti == "" {
		return false, nil
	}
	err := d.rdb.Get(ctx, denylistKey(jti)).Err()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

type noopDenylist struct{}

// NewNoopDenylist is used when Redis is not configured; nothing is ever revoked
func NewNoopDenylist() Denylist { return noopDenylist{} }

func (noopDenylist) Revoke(context.Context, string, time.Duration) error { return nil }
func (noopDenylist) IsRevoked(context.Context, string) (bool, error)     { return false, nil }
