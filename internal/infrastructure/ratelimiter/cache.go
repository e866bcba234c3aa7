package ratelimiter

import (
	"errors"
	"time"
)

var ErrCacheMiss = errors.New("cache miss")

// GetterSetter is the counter cache behind the limiter. The in-memory
// implementation is the default; a shared cache lets multiple instances
// limit the same source together.
type GetterSetter interface {
	Get(key string) (int, error)
	Set(key string, value int) error
	SetWithExpiration(key string, value int, expiration time.Duration) error
	Close() error
}
