// Package cache keeps recently fetched stream histories in Redis.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/mtlprog/dripstat/internal/domain"
)

const keyPrefix = "dripstat:history:"

// EventSource defines the upstream history source being cached.
type EventSource interface {
	FetchRateChangeEvents(ctx context.Context, payer, accountID, receiver string) ([]domain.DripHistoryEvent, error)
}

// HistoryCache is a read-through Redis cache in front of an EventSource.
type HistoryCache struct {
	rdb    *redis.Client
	source EventSource
	ttl    time.Duration
}

// Connect creates a Redis client and verifies the connection.
func Connect(ctx context.Context, addr string) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{Addr: addr})
	if err := rdb.Ping(ctx).Err(); err != nil {
		rdb.Close()
		return nil, fmt.Errorf("pinging redis at %s: %w", addr, err)
	}
	return rdb, nil
}

// NewHistoryCache wraps source with a cache whose entries expire after ttl.
func NewHistoryCache(rdb *redis.Client, source EventSource, ttl time.Duration) *HistoryCache {
	return &HistoryCache{rdb: rdb, source: source, ttl: ttl}
}

func historyKey(payer, accountID, receiver string) string {
	return keyPrefix + strings.ToLower(payer) + ":" + accountID + ":" + strings.ToLower(receiver)
}

// FetchRateChangeEvents returns the cached history or loads and stores it.
// Redis failures fall back to the source.
func (c *HistoryCache) FetchRateChangeEvents(ctx context.Context, payer, accountID, receiver string) ([]domain.DripHistoryEvent, error) {
	key := historyKey(payer, accountID, receiver)

	raw, err := c.rdb.Get(ctx, key).Bytes()
	switch {
	case err == nil:
		var history []domain.DripHistoryEvent
		if err := json.Unmarshal(raw, &history); err == nil {
			return history, nil
		}
		slog.Warn("HistoryCache: dropping undecodable entry", "key", key)
	case !errors.Is(err, redis.Nil):
		slog.Warn("HistoryCache: redis get failed", "key", key, "error", err)
	}

	history, err := c.source.FetchRateChangeEvents(ctx, payer, accountID, receiver)
	if err != nil {
		return nil, err
	}

	data, err := json.Marshal(history)
	if err != nil {
		return nil, fmt.Errorf("encoding history: %w", err)
	}
	if err := c.rdb.Set(ctx, key, data, c.ttl).Err(); err != nil {
		slog.Warn("HistoryCache: redis set failed", "key", key, "error", err)
	}
	return history, nil
}

// Invalidate drops the cached history of one stream.
func (c *HistoryCache) Invalidate(ctx context.Context, payer, accountID, receiver string) error {
	if err := c.rdb.Del(ctx, historyKey(payer, accountID, receiver)).Err(); err != nil {
		return fmt.Errorf("deleting cached history: %w", err)
	}
	return nil
}
