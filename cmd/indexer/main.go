package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/tair/hiking-store/internal/config"
	"github.com/tair/hiking-store/internal/store"
	"github.com/tair/hiking-store/internal/store/usecase/command"
	"github.com/tair/hiking-store/kafka"
	"github.com/tair/hiking-store/pkg/database"
	"github.com/tair/hiking-store/pkg/logger"
	"github.com/tair/hiking-store/pkg/tracing"
)

func main() {
	cfg := config.Load()
	cfg.ServiceName = getEnv("OTEL_SERVICE_NAME", "store-indexer")

	logger.Init(cfg.ServiceName, cfg.IsDevelopment())
	logger.SetLevel(cfg.LogLevel)

	if !cfg.Kafka.Enabled() {
		logger.Logger.Fatal().Msg("KAFKA_BROKERS is required for the indexer")
	}

	if cfg.Tracing.Enabled {
		tp, err := tracing.InitTracer(tracing.Config{
			ServiceName:    cfg.ServiceName,
			JaegerEndpoint: cfg.Tracing.JaegerEndpoint,
			SampleRatio:    cfg.Tracing.SampleRatio,
		})
		if err != nil {
			logger.Logger.Warn().Err(err).Msg("Failed to initialize tracer, continuing without tracing")
		} else {
			defer tracing.Shutdown(context.Background(), tp)
		}
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	mongoClient, db, err := database.NewMongoConnection(ctx, database.MongoConfig{
		URI:      cfg.Mongo.URI,
		Database: cfg.Mongo.Database,
	})
	if err != nil {
		logger.Logger.Fatal().Err(err).Msg("Failed to connect to MongoDB")
	}
	defer mongoClient.Disconnect(context.Background())

	esClient, err := database.NewElasticsearchClient(ctx, database.ElasticsearchConfig{
		Addresses: cfg.Elasticsearch.Addresses,
		Username:  cfg.Elasticsearch.Username,
		Password:  cfg.Elasticsearch.Password,
		Timeout:   cfg.Elasticsearch.Timeout,
	})
	if err != nil {
		// events keep arriving; each one retries the rebuild
		logger.Logger.Warn().Err(err).Msg("Elasticsearch unavailable at startup")
	}

	reindex, err := store.InitializeReindexHandler(cfg, db, esClient)
	if err != nil {
		logger.Logger.Fatal().Err(err).Msg("Failed to initialize reindex handler")
	}

	consumer, err := kafka.NewConsumer(cfg.Kafka.Brokers, cfg.Kafka.GroupID, []string{kafka.TopicCatalogUpdated})
	if err != nil {
		logger.Logger.Fatal().Err(err).Msg("Failed to create Kafka consumer")
	}
	defer consumer.Close()

	consumer.RegisterHandler(kafka.EventTypeCatalogUpdated, func(ctx context.Context, event kafka.CatalogUpdatedEvent) error {
		ctx, cancel := context.WithTimeout(ctx, 5*time.Minute)
		defer cancel()

		result, err := reindex.Handle(ctx, command.ReindexCommand{})
		if err != nil {
			return err
		}
		logger.Info(ctx).
			Str("event_id", event.EventID).
			Int("total_indexed", result.TotalIndexed).
			Msg("Search index rebuilt from catalog event")
		return nil
	})

	if err := consumer.Start(ctx); err != nil {
		logger.Logger.Fatal().Err(err).Msg("Failed to start Kafka consumer")
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Logger.Info().Msg("Shutting down indexer...")
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
