//go:build wireinject
// +build wireinject

package store

import (
	"github.com/elastic/go-elasticsearch/v8"
	"github.com/google/wire"
	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/tair/hiking-store/internal/config"
	"github.com/tair/hiking-store/internal/store/domain"
	"github.com/tair/hiking-store/internal/store/usecase/command"
)

// InitializeService initializes the store service with all dependencies
func InitializeService(
	cfg *config.Config,
	db *mongo.Database,
	redisClient *redis.Client,
	esClient *elasticsearch.Client,
	publisher domain.EventPublisher,
) (*Service, error) {
	wire.Build(
		AllHandlersSet,
		wire.Struct(new(Service), "*"),
	)
	return nil, nil
}

// InitializeReindexHandler builds the rebuild use case for the indexer
func InitializeReindexHandler(
	cfg *config.Config,
	db *mongo.Database,
	esClient *elasticsearch.Client,
) (*command.ReindexHandler, error) {
	wire.Build(
		ProvideProductRepository,
		ProvideSearchIndex,
		command.NewReindexHandler,
	)
	return nil, nil
}
