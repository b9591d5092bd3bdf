package session

import (
	"fmt"

	"github.com/jrsteele09/go-storefront-client/internal/config"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// NewFromConfig builds the Store selected by SESSION_BACKEND. The returned close
// function releases backend resources and is never nil.
func NewFromConfig(cfg config.SessionConfig, logger zerolog.Logger) (Store, func() error, error) {
	noop := func() error { return nil }

	switch cfg.GetSessionBackend() {
	case config.SessionBackendMemory:
		return NewMemoryStore(), noop, nil
	case config.SessionBackendFile:
		return NewFileStore(cfg.GetSessionFile(), WithFileLogger(logger)), noop, nil
	case config.SessionBackendRedis:
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.GetRedisAddr(),
			Password: cfg.GetRedisPassword(),
			DB:       cfg.GetRedisDB(),
		})
		return NewRedisStore(rdb, WithKeyPrefix(cfg.GetRedisPrefix()), WithRedisLogger(logger)), rdb.Close, nil
	default:
		return nil, noop, fmt.Errorf("[session NewFromConfig] unknown backend %q", cfg.GetSessionBackend())
	}
}
