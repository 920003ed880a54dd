package redisstore

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"evmalert/backend/services/alert-service/internal/models"
)

const keyPrefix = "alerts:suppression:"

// SuppressionStore keeps the last notification time per condition and device.
type SuppressionStore struct {
	client *redis.Client
	ttl    time.Duration
}

// NewSuppressionStore returns redis-backed store.
func NewSuppressionStore(client *redis.Client, ttl time.Duration) *SuppressionStore {
	return &SuppressionStore{client: client, ttl: ttl}
}

func key(k models.SuppressionKey) string {
	return keyPrefix + k.String()
}

// parseKey reverses key. Condition names never contain a colon, device ids may.
func parseKey(raw string) (models.SuppressionKey, bool) {
	rest, ok := strings.CutPrefix(raw, keyPrefix)
	if !ok {
		return models.SuppressionKey{}, false
	}
	condition, device, ok := strings.Cut(rest, ":")
	if !ok || condition == "" || device == "" {
		return models.SuppressionKey{}, false
	}
	return models.SuppressionKey{Condition: models.ConditionType(condition), DeviceID: device}, true
}

// Save stores the entry with the configured TTL.
func (s *SuppressionStore) Save(ctx context.Context, entry models.SuppressionEntry) error {
	value := entry.LastNotifiedAt.UTC().Format(time.RFC3339Nano)
	return s.client.Set(ctx, key(entry.SuppressionKey), value, s.ttl).Err()
}

// Load returns every stored entry. Keys that expire between scan and read are skipped.
func (s *SuppressionStore) Load(ctx context.Context) ([]models.SuppressionEntry, error) {
	var entries []models.SuppressionEntry
	iter := s.client.Scan(ctx, 0, keyPrefix+"*", 100).Iterator()
	for iter.Next(ctx) {
		raw := iter.Val()
		k, ok := parseKey(raw)
		if !ok {
			continue
		}
		value, err := s.client.Get(ctx, raw).Result()
		if errors.Is(err, redis.Nil) {
			continue
		}
		if err != nil {
			return nil, err
		}
		at, err := time.Parse(time.RFC3339Nano, value)
		if err != nil {
			return nil, fmt.Errorf("suppression key %s: %w", raw, err)
		}
		entries = append(entries, models.SuppressionEntry{SuppressionKey: k, LastNotifiedAt: at})
	}
	if err := iter.Err(); err != nil {
		return nil, err
	}
	return entries, nil
}
