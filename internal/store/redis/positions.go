// Package redis persists open positions to Redis so the bot can pick
// them up again after a restart.
package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	goredis "github.com/go-redis/redis/v8"

	"tradebotv1/internal/model"
)

const positionsKey = "tradebot:positions"

// Config configures the Redis position store.
type Config struct {
	Addr     string // Redis address, e.g. "localhost:6379"
	Password string
	DB       int
}

// PositionStore keeps open positions in a Redis hash keyed by product
// ID, with JSON-encoded values. It implements portfolio.Store.
type PositionStore struct {
	client *goredis.Client
}

// Client returns the underlying Redis client for health checks.
func (s *PositionStore) Client() *goredis.Client { return s.client }

// New creates a position store and pings the server.
func New(cfg Config) (*PositionStore, error) {
	client := goredis.NewClient(&goredis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("redis ping: %w", err)
	}

	log.Printf("[redis] connected to %s", cfg.Addr)
	return &PositionStore{client: client}, nil
}

// Save writes (or overwrites) the position for its product.
func (s *PositionStore) Save(ctx context.Context, pos model.Position) error {
	return s.client.HSet(ctx, positionsKey, pos.ProductID, pos.JSON()).Err()
}

// Delete removes the position for the product. Deleting a missing entry
// is not an error.
func (s *PositionStore) Delete(ctx context.Context, productID string) error {
	return s.client.HDel(ctx, positionsKey, productID).Err()
}

// Load returns every persisted position. Entries that fail to decode
// are logged and skipped.
func (s *PositionStore) Load(ctx context.Context) ([]model.Position, error) {
	entries, err := s.client.HGetAll(ctx, positionsKey).Result()
	if err != nil {
		return nil, fmt.Errorf("redis hgetall: %w", err)
	}

	out := make([]model.Position, 0, len(entries))
	for productID, raw := range entries {
		var pos model.Position
		if err := json.Unmarshal([]byte(raw), &pos); err != nil {
			log.Printf("[redis] corrupt position entry for %s, skipping: %v", productID, err)
			continue
		}
		out = append(out, pos)
	}
	return out, nil
}

// Close releases the Redis connection.
func (s *PositionStore) Close() error {
	return s.client.Close()
}
