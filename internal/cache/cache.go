package cache

import (
	"context"
	"time"
)

type Cache interface {
	GetJSON(ctx context.Context, key string, dst any) (hit bool, err error)
	SetJSON(ctx context.Context, key string, val any, ttl time.Duration) error
	Del(ctx context.Context, keys ...string) error
}

// StudentKey is the cache key of a stored student profile.
func StudentKey(studentID string) string {
	return "student:" + studentID + ":profile"
}
