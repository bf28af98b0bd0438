// Package store persists the global item catalog in Redis: every item ever
// submitted across all rooms, used to serve random suggestions. Rooms degrade
// gracefully when Redis is absent or unhealthy.
package store

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/RoseWrightdev/Rank-It/internal/v1/metrics"
	"github.com/redis/go-redis/v9"
	"github.com/sony/gobreaker"
)

// itemsKey is the Redis set holding every recorded item as a JSON entry.
const itemsKey = "rankit:v1:items"

// Entry is one catalog row.
type Entry struct {
	Text  string `json:"text"`
	Emoji string `json:"emoji"`
}

// Service handles all interaction with the Redis item catalog. A nil Service
// is valid and behaves as an empty, write-discarding store.
type Service struct {
	client *redis.Client
	cb     *gobreaker.CircuitBreaker
}

// Client returns the underlying Redis client.
func (s *Service) Client() *redis.Client {
	if s == nil {
		return nil
	}
	return s.client
}

// NewService creates a robust Redis connection with automatic retries.
func NewService(addr, password string) (*Service, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:         addr,
		Password:     password,
		DB:           0, // Default DB
		DialTimeout:  10 * time.Second,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		PoolSize:     10,
		MinIdleConns: 2,
	})

	// Ping to verify connection immediately
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	st := gobreaker.Settings{
		Name:        "redis",
		MaxRequests: 5,
		Interval:    1 * time.Minute,
		Timeout:     15 * time.Second,
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			var stateVal float64
			switch to {
			case gobreaker.StateClosed:
				stateVal = 0
			case gobreaker.StateOpen:
				stateVal = 1
			case gobreaker.StateHalfOpen:
				stateVal = 2
			}
			metrics.CircuitBreakerState.WithLabelValues("redis").Set(stateVal)
		},
	}

	slog.Info("Connected to Redis item store", "addr", addr)
	return &Service{
		client: rdb,
		cb:     gobreaker.NewCircuitBreaker(st),
	}, nil
}

// Add records a submitted item in the global catalog. Implements
// game.ItemRecorder. Duplicate text+emoji pairs collapse into one set member.
func (s *Service) Add(ctx context.Context, text, emoji string) error {
	if s == nil || s.client == nil {
		return nil // No Redis configured, catalog disabled
	}

	_, err := s.cb.Execute(func() (interface{}, error) {
		data, err := json.Marshal(Entry{Text: text, Emoji: emoji})
		if err != nil {
			return nil, fmt.Errorf("failed to marshal catalog entry: %w", err)
		}
		return nil, s.client.SAdd(ctx, itemsKey, data).Err()
	})

	if err != nil {
		if err == gobreaker.ErrOpenState {
			metrics.CircuitBreakerFailures.WithLabelValues("redis").Inc()
			slog.Warn("Redis Circuit Breaker Open: dropping catalog write", "text", text)
			return nil // Graceful degradation: the room never depends on the catalog
		}
		slog.Error("Redis catalog Add failed", "text", text, "error", err)
		return fmt.Errorf("failed to add catalog entry: %w", err)
	}
	return nil
}

// Sample returns up to n random catalog entries. An empty or unavailable
// catalog yields an empty result, never an error the caller must branch on.
func (s *Service) Sample(ctx context.Context, n int) ([]Entry, error) {
	if s == nil || s.client == nil || n < 1 {
		return nil, nil
	}

	res, err := s.cb.Execute(func() (interface{}, error) {
		return s.client.SRandMemberN(ctx, itemsKey, int64(n)).Result()
	})

	if err != nil {
		if err == redis.Nil {
			return nil, nil // Empty catalog
		}
		if err == gobreaker.ErrOpenState {
			metrics.CircuitBreakerFailures.WithLabelValues("redis").Inc()
			slog.Warn("Redis Circuit Breaker Open: no suggestions available")
			return nil, nil // Graceful degradation
		}
		slog.Error("Redis catalog Sample failed", "error", err)
		return nil, fmt.Errorf("failed to sample catalog: %w", err)
	}

	raws, ok := res.([]string)
	if !ok {
		return nil, nil
	}
	entries := make([]Entry, 0, len(raws))
	for _, raw := range raws {
		var entry Entry
		if err := json.Unmarshal([]byte(raw), &entry); err != nil {
			slog.Error("Failed to unmarshal catalog entry", "error", err, "raw", raw)
			continue
		}
		entries = append(entries, entry)
	}
	return entries, nil
}

// Count reports the catalog size.
func (s *Service) Count(ctx context.Context) (int64, error) {
	if s == nil || s.client == nil {
		return 0, nil
	}

	res, err := s.cb.Execute(func() (interface{}, error) {
		return s.client.SCard(ctx, itemsKey).Result()
	})
	if err != nil {
		if err == gobreaker.ErrOpenState {
			metrics.CircuitBreakerFailures.WithLabelValues("redis").Inc()
			return 0, nil
		}
		return 0, fmt.Errorf("failed to count catalog: %w", err)
	}
	return res.(int64), nil
}

// Ping checks Redis connectivity using the PING command.
// Used by health checks to verify Redis is reachable.
func (s *Service) Ping(ctx context.Context) error {
	if s == nil || s.client == nil {
		return nil // No Redis configured
	}

	_, err := s.cb.Execute(func() (interface{}, error) {
		return nil, s.client.Ping(ctx).Err()
	})

	if err != nil {
		if err == gobreaker.ErrOpenState {
			metrics.CircuitBreakerFailures.WithLabelValues("redis").Inc()
		}
		return err
	}
	return nil
}

// Close gracefully shuts down the Redis connection.
func (s *Service) Close() error {
	if s == nil || s.client == nil {
		return nil
	}
	return s.client.Close()
}
