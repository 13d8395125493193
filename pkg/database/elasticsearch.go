package database

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/elastic/go-elasticsearch/v8"

	"github.com/tair/hiking-store/pkg/logger"
)

// ElasticsearchConfig holds search cluster settings
type ElasticsearchConfig struct {
	Addresses []string
	Username  string
	Password  string
	Timeout   time.Duration
}

// NewElasticsearchClient builds a client with retries disabled: a failing
// search backend must surface immediately so the caller can fall back.
// A failed health check is returned alongside a usable client.
func NewElasticsearchClient(ctx context.Context, cfg ElasticsearchConfig) (*elasticsearch.Client, error) {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 5 * time.Second
	}

	client, err := elasticsearch.NewClient(elasticsearch.Config{
		Addresses:    cfg.Addresses,
		Username:     cfg.Username,
		Password:     cfg.Password,
		DisableRetry: true,
		Transport: &http.Transport{
			ResponseHeaderTimeout: cfg.Timeout,
			MaxIdleConnsPerHost:   10,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create elasticsearch client: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	res, err := client.Cluster.Health(client.Cluster.Health.WithContext(pingCtx))
	if err != nil {
		return client, fmt.Errorf("elasticsearch health check failed: %w", err)
	}
	defer res.Body.Close()
	if res.IsError() {
		return client, fmt.Errorf("elasticsearch health check failed: %s", res.Status())
	}

	logger.Logger.Info().
		Strs("addresses", cfg.Addresses).
		Msg("Connected to Elasticsearch")

	return client, nil
}
