package cache

import (
	"context"
	"fmt"

	"github.com/aigate/backend/internal/domain/account"
	"github.com/aigate/backend/internal/infrastructure/config"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// EndpointTallyFactory selects the endpoint tally backend from configuration.
// With Redis enabled tallies go to a shared hash; otherwise the database tally is used.
type EndpointTallyFactory struct {
	redisConfig   config.RedisConfig
	fallback      account.EndpointTally
	logger        *zap.Logger
	allowFallback bool
}

// EndpointTallyFactoryOption is a functional option for configuring the factory
type EndpointTallyFactoryOption func(*EndpointTallyFactory)

// WithLogger sets the logger for the factory
func WithLogger(logger *zap.Logger) EndpointTallyFactoryOption {
	return func(f *EndpointTallyFactory) {
		f.logger = logger
	}
}

// WithFallback controls whether an unreachable Redis falls back to the database tally.
// Default is true.
func WithFallback(allow bool) EndpointTallyFactoryOption {
	return func(f *EndpointTallyFactory) {
		f.allowFallback = allow
	}
}

// NewEndpointTallyFactory creates a new factory; fallback is the database-backed tally
func NewEndpointTallyFactory(cfg config.RedisConfig, fallback account.EndpointTally, opts ...EndpointTallyFactoryOption) *EndpointTallyFactory {
	f := &EndpointTallyFactory{
		redisConfig:   cfg,
		fallback:      fallback,
		logger:        zap.NewNop(),
		allowFallback: true,
	}
	for _, opt := range opts {
		opt(f)
	}
	if f.fallback == nil {
		f.fallback = NewInMemoryEndpointTally()
	}
	return f
}

// Create returns the tally backend and the Redis client it owns, if any.
// The caller closes the client on shutdown.
func (f *EndpointTallyFactory) Create(ctx context.Context) (account.EndpointTally, *redis.Client, error) {
	if !f.redisConfig.Enabled {
		f.logger.Info("using database endpoint tally")
		return f.fallback, nil, nil
	}

	client, err := NewRedisClient(ctx, f.redisConfig)
	if err == nil {
		f.logger.Info("using Redis endpoint tally", zap.String("addr", f.redisConfig.Addr()))
		return NewRedisEndpointTally(client, DefaultTallyKey), client, nil
	}

	if !f.allowFallback {
		return nil, nil, fmt.Errorf("Redis required for endpoint tally but unavailable: %w", err)
	}

	f.logger.Warn("Redis unavailable, falling back to database endpoint tally", zap.Error(err))
	return f.fallback, nil, nil
}
