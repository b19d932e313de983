package lead

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"os"

	"github.com/redis/go-redis/v9"
)

// RedisSink appends completed leads to a Redis list, one CSV row per
// entry.
type RedisSink struct {
	client *redis.Client
	key    string
}

// NewRedisSink connects to the Redis instance named by REDIS_URL.
func NewRedisSink(ctx context.Context, key string) (*RedisSink, error) {
	redisURL := os.Getenv("REDIS_URL")
	if redisURL == "" {
		return nil, fmt.Errorf("REDIS_URL environment variable is required")
	}

	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse REDIS_URL: %w", err)
	}

	client := redis.NewClient(opts)

	// Test connection
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return &RedisSink{client: client, key: key}, nil
}

func (s *RedisSink) Save(ctx context.Context, rec Record) error {
	row, err := csvRow(rec)
	if err != nil {
		return err
	}
	if err := s.client.RPush(ctx, s.key, row).Err(); err != nil {
		return fmt.Errorf("error appending lead to redis: %v", err)
	}
	return nil
}

// Close releases the underlying Redis connection.
func (s *RedisSink) Close() error {
	return s.client.Close()
}

func csvRow(rec Record) (string, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write(rec.Row()); err != nil {
		return "", fmt.Errorf("error encoding lead row: %v", err)
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return "", fmt.Errorf("error encoding lead row: %v", err)
	}
	return buf.String(), nil
}
