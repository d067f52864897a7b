// Package cache wraps Redis for the dashboard stats cache and domain event fan-out.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"time"

	"medtrack/internal/config"

	"github.com/go-redis/redis/v8"
)

// EventChannelPrefix is prepended to the event type to form the pub/sub channel.
const EventChannelPrefix = "medtrack:events:"

func NewRedisClient(cfg config.RedisConfig) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:         cfg.Addr,
		Password:     cfg.Password,
		DB:           cfg.DB,
		PoolSize:     10,
		MinIdleConns: 2,
		MaxRetries:   3,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	pong, err := rdb.Ping(ctx).Result()
	if err != nil {
		rdb.Close()
		return nil, err
	}
	log.Printf("Redis connected: %s", pong)
	return rdb, nil
}

// Store implements services.StatsCache and services.EventPublisher.
type Store struct {
	rdb redis.UniversalClient
}

func NewStore(rdb redis.UniversalClient) *Store {
	return &Store{rdb: rdb}
}

// GetJSON decodes the cached value into dest. A miss returns false, nil.
func (s *Store) GetJSON(ctx context.Context, key string, dest any) (bool, error) {
	data, err := s.rdb.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if err := json.Unmarshal(data, dest); err != nil {
		return false, err
	}
	return true, nil
}

func (s *Store) SetJSON(ctx context.Context, key string, value any, ttl time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		return err
	}
	return s.rdb.Set(ctx, key, data, ttl).Err()
}

type event struct {
	Type      string    `json:"type"`
	Payload   any       `json:"payload"`
	Timestamp time.Time `json:"timestamp"`
}

// Publish is fire-and-forget; failures are logged and never reach the caller.
func (s *Store) Publish(ctx context.Context, eventType string, payload any) {
	data, err := json.Marshal(event{Type: eventType, Payload: payload, Timestamp: time.Now()})
	if err != nil {
		log.Printf("Failed to marshal %s event: %v", eventType, err)
		return
	}
	if err := s.rdb.Publish(ctx, EventChannelPrefix+eventType, data).Err(); err != nil {
		log.Printf("Failed to publish %s event: %v", eventType, err)
	}
}
