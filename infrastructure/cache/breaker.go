package cache

import (
	"context"
	"errors"
	"time"

	"github.com/sony/gobreaker"
	"go.uber.org/zap"

	"mentorconnect-backend/application/ports"
	apperrors "mentorconnect-backend/pkg/errors"
)

// BreakerConfig tunes the circuit breaker around a cache backend.
type BreakerConfig struct {
	Name             string
	MaxRequests      uint32
	Interval         time.Duration
	Timeout          time.Duration
	FailureThreshold float64
	MinRequests      uint32
}

// DefaultBreakerConfig returns the settings used for the Redis backend.
func DefaultBreakerConfig(name string) BreakerConfig {
	return BreakerConfig{
		Name:             name,
		MaxRequests:      5,
		Interval:         30 * time.Second,
		Timeout:          60 * time.Second,
		FailureThreshold: 0.6,
		MinRequests:      5,
	}
}

// BreakerCache wraps a cache backend with a circuit breaker so a dead or
// slow backend fails fast instead of adding its timeout to every read. A
// tripped breaker surfaces the same cache-unavailable error the services
// already absorb, so reads keep flowing from the store.
type BreakerCache struct {
	inner   ports.Cache
	breaker *gobreaker.CircuitBreaker
	logger  *zap.Logger
}

// NewBreakerCache decorates inner with a circuit breaker.
func NewBreakerCache(inner ports.Cache, cfg BreakerConfig, logger *zap.Logger) *BreakerCache {
	if logger == nil {
		logger = zap.NewNop()
	}
	breaker := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        cfg.Name,
		MaxRequests: cfg.MaxRequests,
		Interval:    cfg.Interval,
		Timeout:     cfg.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < cfg.MinRequests {
				return false
			}
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return failureRatio >= cfg.FailureThreshold
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("cache circuit breaker state change",
				zap.String("breaker", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()),
			)
		},
	})
	return &BreakerCache{inner: inner, breaker: breaker, logger: logger}
}

type getResult struct {
	value []byte
	found bool
}

// Get passes through to the backend while the breaker is closed.
func (c *BreakerCache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	result, err := c.breaker.Execute(func() (any, error) {
		value, found, err := c.inner.Get(ctx, key)
		if err != nil {
			return nil, err
		}
		return getResult{value: value, found: found}, nil
	})
	if err != nil {
		return nil, false, c.wrapBreakerError("get", err)
	}
	res := result.(getResult)
	return res.value, res.found, nil
}

// Set passes through to the backend while the breaker is closed.
func (c *BreakerCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	_, err := c.breaker.Execute(func() (any, error) {
		return nil, c.inner.Set(ctx, key, value, ttl)
	})
	if err != nil {
		return c.wrapBreakerError("set", err)
	}
	return nil
}

// Delete passes through to the backend while the breaker is closed.
func (c *BreakerCache) Delete(ctx context.Context, key string) error {
	_, err := c.breaker.Execute(func() (any, error) {
		return nil, c.inner.Delete(ctx, key)
	})
	if err != nil {
		return c.wrapBreakerError("delete", err)
	}
	return nil
}

// Ping forwards to the backend when it supports connectivity checks. The
// breaker is bypassed so a readiness probe reports the backend's real state.
func (c *BreakerCache) Ping(ctx context.Context) error {
	if p, ok := c.inner.(interface{ Ping(context.Context) error }); ok {
		return p.Ping(ctx)
	}
	return nil
}

func (c *BreakerCache) wrapBreakerError(op string, err error) error {
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return apperrors.NewCacheUnavailableError("cache circuit breaker open", err)
	}
	if apperrors.IsCacheUnavailable(err) {
		return err
	}
	return apperrors.NewCacheUnavailableError("cache "+op+" failed", err)
}
