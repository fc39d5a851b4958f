// Package di wires the application together with google/wire.
package di

import (
	"context"
	"net/http"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	awsdynamodb "github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"mentorconnect-backend/application/ports"
	"mentorconnect-backend/application/services"
	"mentorconnect-backend/infrastructure/assets"
	"mentorconnect-backend/infrastructure/cache"
	"mentorconnect-backend/infrastructure/config"
	"mentorconnect-backend/infrastructure/persistence/dynamodb"
	"mentorconnect-backend/interfaces/http/rest"
	"mentorconnect-backend/interfaces/http/rest/handlers"
	"mentorconnect-backend/pkg/auth"
	apperrors "mentorconnect-backend/pkg/errors"
	"mentorconnect-backend/pkg/observability"
)

// ProvideLogger creates the application logger.
func ProvideLogger(cfg *config.Config) (*zap.Logger, error) {
	var zapCfg zap.Config
	if cfg.IsProduction() {
		zapCfg = zap.NewProductionConfig()
	} else {
		zapCfg = zap.NewDevelopmentConfig()
	}
	if level, err := zapcore.ParseLevel(cfg.LogLevel); err == nil {
		zapCfg.Level = zap.NewAtomicLevelAt(level)
	}
	return zapCfg.Build()
}

// ProvideAWSConfig loads AWS configuration.
func ProvideAWSConfig(ctx context.Context, cfg *config.Config) (aws.Config, error) {
	return awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithRegion(cfg.AWSRegion),
	)
}

// ProvideDynamoDBClient creates a DynamoDB client.
func ProvideDynamoDBClient(awsCfg aws.Config) *awsdynamodb.Client {
	return awsdynamodb.NewFromConfig(awsCfg)
}

// ProvideThreadRepository creates the thread repository.
func ProvideThreadRepository(client *awsdynamodb.Client, cfg *config.Config, logger *zap.Logger) ports.ThreadRepository {
	return dynamodb.NewThreadRepository(client, cfg.DynamoDBTable, logger)
}

// ProvideMessageRepository creates the message repository.
func ProvideMessageRepository(client *awsdynamodb.Client, cfg *config.Config, logger *zap.Logger) ports.MessageRepository {
	return dynamodb.NewMessageRepository(client, cfg.DynamoDBTable, logger)
}

// ProvideUserRepository creates the user repository.
func ProvideUserRepository(client *awsdynamodb.Client, cfg *config.Config, logger *zap.Logger) ports.UserRepository {
	return dynamodb.NewUserRepository(client, cfg.DynamoDBTable, logger)
}

// ProvideProfileRepository creates the student profile repository.
func ProvideProfileRepository(client *awsdynamodb.Client, cfg *config.Config, logger *zap.Logger) ports.StudentProfileRepository {
	return dynamodb.NewStudentProfileRepository(client, cfg.DynamoDBTable, logger)
}

// ProvideCache selects the cache backend from configuration and optionally
// wraps it with the circuit breaker.
func ProvideCache(cfg *config.Config, logger *zap.Logger) ports.Cache {
	var backend ports.Cache
	switch cfg.CacheBackend {
	case config.CacheBackendRedis:
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		backend = cache.NewRedisCache(client, logger)
	default:
		backend = cache.NewMemoryCache(cfg.CacheMaxItems, cfg.CacheMaxMemory, logger)
	}

	if cfg.CacheBreakerOn {
		return cache.NewBreakerCache(backend, cache.DefaultBreakerConfig("thread-cache"), logger)
	}
	return backend
}

// ProvideRegistry creates the Prometheus registry, or nil when metrics are
// disabled.
func ProvideRegistry(cfg *config.Config) *prometheus.Registry {
	if !cfg.EnableMetrics {
		return nil
	}
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return registry
}

// ProvideCacheMetrics creates the cache counters, or a nil recorder when
// metrics are disabled.
func ProvideCacheMetrics(cfg *config.Config, registry *prometheus.Registry) *observability.CacheMetrics {
	if registry == nil {
		return nil
	}
	return observability.NewCacheMetrics(registry)
}

// ProvideAssetStorage returns the configured asset host. Only the disabled
// implementation ships; profile photos must arrive as hosted URLs.
func ProvideAssetStorage() ports.AssetStorage {
	return assets.NewDisabledStorage()
}

// ProvideThreadService creates the thread service.
func ProvideThreadService(
	threads ports.ThreadRepository,
	messages ports.MessageRepository,
	users ports.UserRepository,
	threadCache ports.Cache,
	cfg *config.Config,
	metrics *observability.CacheMetrics,
	logger *zap.Logger,
) *services.ThreadService {
	return services.NewThreadService(threads, messages, users, threadCache, cfg.CacheTTL, metrics, logger)
}

// ProvideStudentService creates the student service.
func ProvideStudentService(
	profiles ports.StudentProfileRepository,
	users ports.UserRepository,
	storage ports.AssetStorage,
	logger *zap.Logger,
) *services.StudentService {
	return services.NewStudentService(profiles, users, storage, logger)
}

// ProvideJWTValidator creates the bearer token validator.
func ProvideJWTValidator(cfg *config.Config) (*auth.JWTValidator, error) {
	secret := cfg.JWTSecret
	if secret == "" && !cfg.IsProduction() {
		secret = "development-secret-change-in-production"
	}
	return auth.NewJWTValidator(auth.JWTConfig{
		SecretKey: secret,
		Issuer:    cfg.JWTIssuer,
	})
}

// ProvideErrorHandler creates the shared HTTP error handler.
func ProvideErrorHandler(logger *zap.Logger) *apperrors.ErrorHandler {
	return apperrors.NewErrorHandler(logger)
}

// ProvideThreadHandler creates the thread handler.
func ProvideThreadHandler(threads *services.ThreadService, errHandler *apperrors.ErrorHandler, logger *zap.Logger) *handlers.ThreadHandler {
	return handlers.NewThreadHandler(threads, errHandler, logger)
}

// ProvideStudentHandler creates the student handler.
func ProvideStudentHandler(students *services.StudentService, errHandler *apperrors.ErrorHandler, logger *zap.Logger) *handlers.StudentHandler {
	return handlers.NewStudentHandler(students, errHandler, logger)
}

// ProvideRouter creates the REST router.
func ProvideRouter(
	cfg *config.Config,
	threads *handlers.ThreadHandler,
	students *handlers.StudentHandler,
	validator *auth.JWTValidator,
	registry *prometheus.Registry,
	threadCache ports.Cache,
	logger *zap.Logger,
) *rest.Router {
	return rest.NewRouter(cfg, threads, students, validator, registry, threadCache, logger)
}

// ProvideHTTPHandler builds the finished handler tree.
func ProvideHTTPHandler(router *rest.Router) http.Handler {
	return router.Setup()
}
