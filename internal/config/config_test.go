package config_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/tair/hiking-store/internal/config"
)

func TestLoad_Defaults(t *testing.T) {
	for _, key := range []string{"HTTP_PORT", "RECENT_TTL", "RECENT_LIMIT", "KAFKA_BROKERS", "SEARCH_INDEX"} {
		t.Setenv(key, "")
	}

	cfg := config.Load()

	assert.Equal(t, "3006", cfg.HTTPPort)
	assert.Equal(t, 5, cfg.Recent.Limit)
	assert.Equal(t, 24*time.Hour, cfg.Recent.TTL)
	assert.Equal(t, "products", cfg.Elasticsearch.Index)
	assert.False(t, cfg.Kafka.Enabled())
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("HTTP_PORT", "8090")
	t.Setenv("RECENT_TTL", "30m")
	t.Setenv("RECENT_LIMIT", "7")
	t.Setenv("KAFKA_BROKERS", "kafka-1:9092, ,kafka-2:9092")
	t.Setenv("ELASTICSEARCH_URL", "http://es-a:9200,http://es-b:9200")

	cfg := config.Load()

	assert.Equal(t, "8090", cfg.HTTPPort)
	assert.Equal(t, 30*time.Minute, cfg.Recent.TTL)
	assert.Equal(t, 7, cfg.Recent.Limit)
	assert.Equal(t, []string{"kafka-1:9092", "kafka-2:9092"}, cfg.Kafka.Brokers)
	assert.Equal(t, []string{"http://es-a:9200", "http://es-b:9200"}, cfg.Elasticsearch.Addresses)
	assert.True(t, cfg.Kafka.Enabled())
}

func TestLoad_InvalidValuesFallBack(t *testing.T) {
	t.Setenv("RECENT_TTL", "forever")
	t.Setenv("RECENT_LIMIT", "five")

	cfg := config.Load()

	assert.Equal(t, 24*time.Hour, cfg.Recent.TTL)
	assert.Equal(t, 5, cfg.Recent.Limit)
}
