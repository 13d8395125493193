package store

import (
	"github.com/elastic/go-elasticsearch/v8"
	"github.com/google/wire"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/tair/hiking-store/internal/config"
	"github.com/tair/hiking-store/internal/store/delivery/http"
	"github.com/tair/hiking-store/internal/store/domain"
	"github.com/tair/hiking-store/internal/store/repository"
	"github.com/tair/hiking-store/internal/store/usecase/command"
	"github.com/tair/hiking-store/internal/store/usecase/query"
)

// Service is everything the HTTP entrypoint needs from the store graph
type Service struct {
	Handler *http.StoreHandler
	Users   domain.UserRepository
}

// ProvideProductRepository provides the product repository
func ProvideProductRepository(db *mongo.Database) domain.ProductRepository {
	return repository.NewMongoProductRepository(db)
}

// ProvideUserRepository provides the user repository
func ProvideUserRepository(db *mongo.Database) domain.UserRepository {
	return repository.NewMongoUserRepository(db)
}

// ProvideRecentStore provides the recently viewed store with the configured retention
func ProvideRecentStore(client *redis.Client, cfg *config.Config) domain.RecentStore {
	return repository.NewRedisRecentStore(client, cfg.Recent.Limit, cfg.Recent.TTL)
}

// ProvideSearchIndex provides the search index
func ProvideSearchIndex(client *elasticsearch.Client, cfg *config.Config) domain.SearchIndex {
	return repository.NewElasticSearchIndex(client, cfg.Elasticsearch.Index)
}

// ProvideMetrics registers store metrics with the default registry
func ProvideMetrics() *http.Metrics {
	return http.NewMetrics(prometheus.DefaultRegisterer)
}

// ProvideRecorder exposes the HTTP metrics to the use cases
func ProvideRecorder(m *http.Metrics) domain.Recorder {
	return m
}

// Wire sets
var RepositorySet = wire.NewSet(
	ProvideProductRepository,
	ProvideUserRepository,
	ProvideRecentStore,
	ProvideSearchIndex,
)

var MetricsSet = wire.NewSet(
	ProvideMetrics,
	ProvideRecorder,
)

var CommandHandlerSet = wire.NewSet(
	command.NewRecordViewHandler,
	command.NewToggleFavoriteHandler,
	command.NewReindexHandler,
	command.NewBackfillThumbnailsHandler,
)

var QueryHandlerSet = wire.NewSet(
	query.NewListCategoryHandler,
	query.NewListRecentHandler,
	query.NewListFavoritesHandler,
	query.NewSearchProductsHandler,
)

var AllHandlersSet = wire.NewSet(
	RepositorySet,
	MetricsSet,
	CommandHandlerSet,
	QueryHandlerSet,
	http.NewStoreHandler,
)
