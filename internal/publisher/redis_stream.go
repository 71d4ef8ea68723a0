package publisher

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/fortuna/matchnarrator/internal/narrative"
)

const (
	// DefaultStream receives every generated narrative
	DefaultStream = "narratives.generated.soccer"

	defaultMaxLen = 10000
)

// RedisStreamPublisher publishes generated narratives to a Redis stream
type RedisStreamPublisher struct {
	client *redis.Client
	stream string
	maxLen int64
}

// NewRedisStreamPublisher creates a new Redis stream publisher from existing client
func NewRedisStreamPublisher(client *redis.Client, stream string) *RedisStreamPublisher {
	if stream == "" {
		stream = DefaultStream
	}
	return &RedisStreamPublisher{
		client: client,
		stream: stream,
		maxLen: defaultMaxLen,
	}
}

// NewRedisPublisher connects to redisURL and returns a publisher on stream
func NewRedisPublisher(redisURL, stream string) (*RedisStreamPublisher, error) {
	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, err
	}

	client := redis.NewClient(opt)

	// Test connection
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, err
	}

	return NewRedisStreamPublisher(client, stream), nil
}

// Stream returns the stream name
func (rsp *RedisStreamPublisher) Stream() string {
	return rsp.stream
}

// Close closes the Redis connection
func (rsp *RedisStreamPublisher) Close() error {
	return rsp.client.Close()
}

// Announce appends a narrative to the stream
func (rsp *RedisStreamPublisher) Announce(ctx context.Context, n narrative.Narrative) error {
	data, err := json.Marshal(n)
	if err != nil {
		return fmt.Errorf("marshaling narrative: %w", err)
	}

	err = rsp.client.XAdd(ctx, &redis.XAddArgs{
		Stream: rsp.stream,
		MaxLen: rsp.maxLen,
		Approx: true,
		Values: map[string]interface{}{
			"kind":      string(n.Kind),
			"match_id":  strconv.Itoa(n.MatchID),
			"data":      string(data),
			"timestamp": n.GeneratedAt.Unix(),
		},
	}).Err()
	if err != nil {
		return fmt.Errorf("publishing to %s: %w", rsp.stream, err)
	}
	return nil
}
