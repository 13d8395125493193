package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel/attribute"
)

const recentKeyPrefix = "recent:products:"

// recordViewScript upserts the member with its view time, trims the set to
// the newest ARGV[3] members and refreshes the expiry. A view never scores
// below the current newest one, so views landing in the same millisecond
// keep their call order.
//
// KEYS[1] set key
// ARGV[1] product id, ARGV[2] score (unix ms), ARGV[3] capacity, ARGV[4] ttl (ms)
var recordViewScript = redis.NewScript(`
local score = tonumber(ARGV[2])
local newest = redis.call('ZREVRANGE', KEYS[1], 0, 0, 'WITHSCORES')
if newest[1] then
	local top = tonumber(newest[2])
	if newest[1] == ARGV[1] then
		score = math.max(score, top)
	elseif score <= top then
		score = top + 1
	end
end
redis.call('ZADD', KEYS[1], score, ARGV[1])
local excess = redis.call('ZCARD', KEYS[1]) - tonumber(ARGV[3])
if excess > 0 then
	redis.call('ZREMRANGEBYRANK', KEYS[1], 0, excess - 1)
end
redis.call('PEXPIRE', KEYS[1], ARGV[4])
return 1
`)

// RedisRecentStore keeps recently viewed product ids in a sorted set per
// user, scored by view time
type RedisRecentStore struct {
	client *redis.Client
	limit  int
	ttl    time.Duration
}

// NewRedisRecentStore creates a recent-view store holding at most limit ids
// per user for ttl after the last view
func NewRedisRecentStore(client *redis.Client, limit int, ttl time.Duration) *RedisRecentStore {
	return &RedisRecentStore{client: client, limit: limit, ttl: ttl}
}

func recentKey(userID string) string {
	return recentKeyPrefix + userID
}

func (s *RedisRecentStore) Add(ctx context.Context, userID, productID string, viewedAt time.Time) (err error) {
	ctx, span := startSpan(ctx, "repository.AddRecent", "redis",
		attribute.String("user.id", userID),
		attribute.String("product.id", productID),
	)
	defer func() { endSpan(span, err) }()

	err = recordViewScript.Run(ctx, s.client,
		[]string{recentKey(userID)},
		productID,
		viewedAt.UnixMilli(),
		s.limit,
		s.ttl.Milliseconds(),
	).Err()
	if err != nil {
		return fmt.Errorf("failed to record view: %w", err)
	}
	return nil
}

func (s *RedisRecentStore) List(ctx context.Context, userID string) (_ []string, err error) {
	ctx, span := startSpan(ctx, "repository.ListRecent", "redis", attribute.String("user.id", userID))
	defer func() { endSpan(span, err) }()

	ids, err := s.client.ZRevRange(ctx, recentKey(userID), 0, int64(s.limit-1)).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list recent views: %w", err)
	}
	span.SetAttributes(attribute.Int("result.count", len(ids)))
	return ids, nil
}

func (s *RedisRecentStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}
