// Package testutils starts throwaway MongoDB and Redis containers for
// integration tests. Containers are terminated when the test finishes.
package testutils

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	tc "github.com/testcontainers/testcontainers-go"
	tcmongo "github.com/testcontainers/testcontainers-go/modules/mongodb"
	tcredis "github.com/testcontainers/testcontainers-go/modules/redis"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// TestEnvironment wraps the running containers and their clients
type TestEnvironment struct {
	MongoClient    *mongo.Client
	MongoDB        *mongo.Database
	RedisClient    *redis.Client
	MongoContainer tc.Container
	RedisContainer tc.Container
}

// SetupTestEnvironment starts MongoDB and Redis. Tests calling it should
// skip under -short.
//
//	func TestSomething(t *testing.T) {
//	    if testing.Short() {
//	        t.Skip("integration test")
//	    }
//	    env := testutils.SetupTestEnvironment(t)
//	}
func SetupTestEnvironment(t testing.TB) *TestEnvironment {
	t.Helper()

	env := &TestEnvironment{}
	t.Cleanup(env.Cleanup)

	env.setupMongo(t)
	env.setupRedis(t)
	return env
}

func (env *TestEnvironment) setupMongo(t testing.TB) {
	t.Helper()
	ctx := context.Background()

	container, err := tcmongo.Run(ctx, "mongo:7")
	if err != nil {
		t.Fatalf("failed to start mongodb container: %v", err)
	}
	env.MongoContainer = container

	uri, err := container.ConnectionString(ctx)
	if err != nil {
		t.Fatalf("failed to get mongodb connection string: %v", err)
	}

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		t.Fatalf("failed to connect to mongodb: %v", err)
	}
	env.MongoClient = client
	env.MongoDB = client.Database(fmt.Sprintf("store_test_%d", time.Now().UnixNano()))

	pingCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx, nil); err != nil {
		t.Fatalf("failed to ping mongodb: %v", err)
	}
}

func (env *TestEnvironment) setupRedis(t testing.TB) {
	t.Helper()
	ctx := context.Background()

	container, err := tcredis.Run(ctx, "redis:7-alpine")
	if err != nil {
		t.Fatalf("failed to start redis container: %v", err)
	}
	env.RedisContainer = container

	endpoint, err := container.Endpoint(ctx, "")
	if err != nil {
		t.Fatalf("failed to get redis endpoint: %v", err)
	}

	env.RedisClient = redis.NewClient(&redis.Options{
		Addr:        endpoint,
		DialTimeout: 5 * time.Second,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := env.RedisClient.Ping(pingCtx).Err(); err != nil {
		t.Fatalf("failed to ping redis: %v", err)
	}
}

// Cleanup closes clients and terminates containers
func (env *TestEnvironment) Cleanup() {
	ctx := context.Background()

	if env.RedisClient != nil {
		_ = env.RedisClient.Close()
	}
	if env.MongoClient != nil {
		_ = env.MongoClient.Disconnect(ctx)
	}
	if env.RedisContainer != nil {
		_ = env.RedisContainer.Terminate(ctx)
	}
	if env.MongoContainer != nil {
		_ = env.MongoContainer.Terminate(ctx)
	}
}

// FlushRedis empties the Redis database between tests
func (env *TestEnvironment) FlushRedis(t testing.TB) {
	t.Helper()
	if err := env.RedisClient.FlushDB(context.Background()).Err(); err != nil {
		t.Fatalf("failed to flush redis: %v", err)
	}
}
