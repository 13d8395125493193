package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/cors"
	httpSwagger "github.com/swaggo/http-swagger/v2"

	"github.com/tair/hiking-store/docs"
	"github.com/tair/hiking-store/internal/config"
	"github.com/tair/hiking-store/internal/store"
	httpDelivery "github.com/tair/hiking-store/internal/store/delivery/http"
	"github.com/tair/hiking-store/internal/store/domain"
	"github.com/tair/hiking-store/internal/store/repository"
	"github.com/tair/hiking-store/kafka"
	"github.com/tair/hiking-store/pkg/auth"
	"github.com/tair/hiking-store/pkg/database"
	"github.com/tair/hiking-store/pkg/logger"
	"github.com/tair/hiking-store/pkg/tracing"
)

func main() {
	cfg := config.Load()

	// Initialize logger
	logger.Init(cfg.ServiceName, cfg.IsDevelopment())
	logger.SetLevel(cfg.LogLevel)

	logger.Logger.Info().
		Str("service", cfg.ServiceName).
		Str("environment", cfg.Environment).
		Str("log_level", cfg.LogLevel).
		Msg("Starting store service")

	// Initialize tracing
	if cfg.Tracing.Enabled {
		tp, err := tracing.InitTracer(tracing.Config{
			ServiceName:    cfg.ServiceName,
			JaegerEndpoint: cfg.Tracing.JaegerEndpoint,
			SampleRatio:    cfg.Tracing.SampleRatio,
		})
		if err != nil {
			logger.Logger.Warn().Err(err).Msg("Failed to initialize tracer, continuing without tracing")
		} else {
			defer func() {
				ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				if err := tracing.Shutdown(ctx, tp); err != nil {
					logger.Logger.Error().Err(err).Msg("Failed to shutdown tracer")
				}
			}()
		}
	}

	ctx := context.Background()

	// MongoDB is the only hard dependency
	mongoClient, db, err := database.NewMongoConnection(ctx, database.MongoConfig{
		URI:      cfg.Mongo.URI,
		Database: cfg.Mongo.Database,
	})
	if err != nil {
		logger.Logger.Fatal().Err(err).Msg("Failed to connect to MongoDB")
	}
	defer func() {
		if err := mongoClient.Disconnect(context.Background()); err != nil {
			logger.Logger.Error().Err(err).Msg("Failed to disconnect MongoDB")
		}
	}()

	redisClient, err := database.NewRedisClient(ctx, database.RedisConfig{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	if err != nil {
		logger.Logger.Warn().Err(err).Str("redis_addr", cfg.Redis.Addr).Msg("Redis unavailable, recently viewed tracking degraded")
	}
	defer redisClient.Close()

	esClient, err := database.NewElasticsearchClient(ctx, database.ElasticsearchConfig{
		Addresses: cfg.Elasticsearch.Addresses,
		Username:  cfg.Elasticsearch.Username,
		Password:  cfg.Elasticsearch.Password,
		Timeout:   cfg.Elasticsearch.Timeout,
	})
	if err != nil {
		logger.Logger.Warn().Err(err).Msg("Elasticsearch unavailable, search will fall back to collection scans")
	}

	var publisher domain.EventPublisher = domain.NopPublisher{}
	if cfg.Kafka.Enabled() {
		kp, err := kafka.NewPublisher(cfg.Kafka.Brokers)
		if err != nil {
			logger.Logger.Warn().Err(err).Msg("Kafka unavailable, store events disabled")
		} else {
			publisher = kp
			defer kp.Close()
		}
	}

	// Initialize store with Wire DI
	svc, err := store.InitializeService(cfg, db, redisClient, esClient, publisher)
	if err != nil {
		logger.Logger.Fatal().Err(err).Msg("Failed to initialize store service")
	}

	if cfg.Auth.JWTSecret == "" {
		logger.Logger.Warn().Msg("JWT_SECRET is empty, every authenticated request will be rejected")
	}
	validator := auth.NewTokenValidator(cfg.Auth.JWTSecret, 24*time.Hour)

	var limiter *httpDelivery.RateLimiter
	if cfg.RateLimitPerMinute > 0 {
		limiter = httpDelivery.NewRateLimiter(redisClient, cfg.RateLimitPerMinute, time.Minute)
	}

	health := httpDelivery.NewHealthChecker(cfg.ServiceName).
		Register("mongodb", repository.NewMongoProductRepository(db), true).
		Register("redis", repository.NewRedisRecentStore(redisClient, cfg.Recent.Limit, cfg.Recent.TTL), false).
		Register("elasticsearch", repository.NewElasticSearchIndex(esClient, cfg.Elasticsearch.Index), false)

	server := &http.Server{
		Addr:              ":" + cfg.HTTPPort,
		Handler:           newRouter(cfg, svc, validator, limiter, health),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Logger.Info().
			Str("port", cfg.HTTPPort).
			Str("metrics_endpoint", "/metrics").
			Str("swagger", "/swagger/index.html").
			Msg("HTTP server started")

		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Logger.Fatal().Err(err).Msg("Failed to start HTTP server")
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Logger.Info().Msg("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Logger.Error().Err(err).Msg("Server forced to shutdown")
	}
}

func newRouter(
	cfg *config.Config,
	svc *store.Service,
	validator *auth.TokenValidator,
	limiter *httpDelivery.RateLimiter,
	health *httpDelivery.HealthChecker,
) http.Handler {
	router := mux.NewRouter()

	// Health, metrics and docs stay outside the rate limiter
	health.RegisterRoutes(router)
	router.Handle("/metrics", promhttp.Handler())
	docs.SwaggerInfo.Host = "localhost:" + cfg.HTTPPort
	httpDelivery.RegisterSwaggerDocs(router, httpSwagger.Handler(
		httpSwagger.URL("/swagger/doc.json"),
	))

	api := router.PathPrefix("/").Subrouter()
	mw := httpDelivery.DefaultMiddlewareConfig(validator, svc.Users, limiter)
	httpDelivery.RegisterMiddlewares(api, mw)
	svc.Handler.RegisterRoutes(api, mw)

	c := cors.New(cors.Options{
		AllowedOrigins:   cfg.CORSAllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"*"},
		AllowCredentials: true,
	})

	return c.Handler(router)
}
