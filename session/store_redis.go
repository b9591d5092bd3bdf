package session

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

const defaultRedisTimeout = 2 * time.Second

var _ Store = (*RedisStore)(nil)

// RedisStore keeps the token pair in two Redis string keys, <prefix>accessToken and
// <prefix>refreshToken, so several client processes can share one session.
type RedisStore struct {
	rdb     redis.UniversalClient
	prefix  string
	timeout time.Duration
	logger  zerolog.Logger
}

type RedisStoreOption func(*RedisStore)

// WithKeyPrefix namespaces both keys, e.g. "storefront:alice:"
func WithKeyPrefix(prefix string) RedisStoreOption {
	return func(rs *RedisStore) {
		rs.prefix = prefix
	}
}

// WithRedisTimeout bounds each Redis round trip
func WithRedisTimeout(timeout time.Duration) RedisStoreOption {
	return func(rs *RedisStore) {
		rs.timeout = timeout
	}
}

func WithRedisLogger(logger zerolog.Logger) RedisStoreOption {
	return func(rs *RedisStore) {
		rs.logger = logger
	}
}

// NewRedisStore creates a session store on top of an existing Redis client
func NewRedisStore(rdb redis.UniversalClient, opts ...RedisStoreOption) *RedisStore {
	rs := &RedisStore{
		rdb:     rdb,
		timeout: defaultRedisTimeout,
		logger:  log.Logger,
	}
	for _, opt := range opts {
		opt(rs)
	}
	return rs
}

func (rs *RedisStore) accessKey() string {
	return rs.prefix + AccessTokenKey
}

func (rs *RedisStore) refreshKey() string {
	return rs.prefix + RefreshTokenKey
}

func (rs *RedisStore) Get(ctx context.Context) Session {
	ctx, cancel := context.WithTimeout(ctx, rs.timeout)
	defer cancel()

	values, err := rs.rdb.MGet(ctx, rs.accessKey(), rs.refreshKey()).Result()
	if err != nil {
		rs.logger.Warn().Err(errors.Wrap(err, "RedisStore MGet")).Msg("Failed to read session")
		return Session{}
	}

	var s Session
	if len(values) == 2 {
		s.AccessToken, _ = values[0].(string)
		s.RefreshToken, _ = values[1].(string)
	}
	return s
}

func (rs *RedisStore) Set(ctx context.Context, accessToken, refreshToken string) {
	ctx, cancel := context.WithTimeout(ctx, rs.timeout)
	defer cancel()

	_, err := rs.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		rs.setOrDelete(ctx, pipe, rs.accessKey(), accessToken)
		rs.setOrDelete(ctx, pipe, rs.refreshKey(), refreshToken)
		return nil
	})
	if err != nil {
		rs.logger.Error().Err(errors.Wrap(err, "RedisStore Set")).Msg("Failed to write session")
	}
}

func (rs *RedisStore) SetAccessToken(ctx context.Context, accessToken string) {
	ctx, cancel := context.WithTimeout(ctx, rs.timeout)
	defer cancel()

	_, err := rs.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		rs.setOrDelete(ctx, pipe, rs.accessKey(), accessToken)
		return nil
	})
	if err != nil {
		rs.logger.Error().Err(errors.Wrap(err, "RedisStore SetAccessToken")).Msg("Failed to write access token")
	}
}

func (rs *RedisStore) Clear(ctx context.Context) {
	ctx, cancel := context.WithTimeout(ctx, rs.timeout)
	defer cancel()

	if err := rs.rdb.Del(ctx, rs.accessKey(), rs.refreshKey()).Err(); err != nil {
		rs.logger.Error().Err(errors.Wrap(err, "RedisStore Clear")).Msg("Failed to clear session")
	}
}

// setOrDelete stores value under key, or removes the key for an empty value so
// that an absent token never reads back as "".
func (rs *RedisStore) setOrDelete(ctx context.Context, pipe redis.Pipeliner, key, value string) {
	if value == "" {
		pipe.Del(ctx, key)
		return
	}
	pipe.Set(ctx, key, value, 0)
}
