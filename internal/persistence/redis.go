package persistence

import (
	"context"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/spec-kit/helpdesk-dashboard/internal/config"
)

// Redis wraps the go-redis client. Client is nil when no address was
// configured; the view cache and notification fan-out are then disabled.
type Redis struct {
	Client    *redis.Client
	KeyPrefix string
}

// NewRedis connects to Redis using the provided configuration.
func NewRedis(cfg config.RedisConfig, logger *zap.Logger) *Redis {
	if cfg.Addr == "" {
		logger.Warn("REDIS_ADDR not provided; view cache and notification fan-out disabled")
		return &Redis{KeyPrefix: cfg.KeyPrefix}
	}
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	if err := client.Ping(context.Background()).Err(); err != nil {
		logger.Warn("unable to reach redis", zap.Error(err))
	} else {
		logger.Info("connected to redis")
	}

	return &Redis{Client: client, KeyPrefix: cfg.KeyPrefix}
}

// Enabled reports whether a client is available.
func (r *Redis) Enabled() bool {
	return r != nil && r.Client != nil
}

// Key namespaces a key with the configured prefix.
func (r *Redis) Key(parts ...string) string {
	key := ""
	if r != nil {
		key = r.KeyPrefix
	}
	for _, part := range parts {
		if key != "" {
			key += ":"
		}
		key += part
	}
	return key
}

// Close closes the client.
func (r *Redis) Close() {
	if r != nil && r.Client != nil {
		_ = r.Client.Close()
	}
}

// Ping verifies Redis connectivity.
func (r *Redis) Ping(ctx context.Context) error {
	if !r.Enabled() {
		return ErrNotConfigured
	}
	return r.Client.Ping(ctx).Err()
}
