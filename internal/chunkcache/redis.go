package chunkcache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/fintrace/fintrace/models"
)

const chunkKeyPrefix = "chunk:"

// Conn opens and pings a redis client.
func Conn(ctx context.Context, host, port, pass string, db int, timeout time.Duration) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:        fmt.Sprintf("%s:%s", host, port),
		DialTimeout: timeout,
		Password:    pass,
		DB:          db,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("redis connection failed (%s:%s): %w", host, port, err)
	}
	return client, nil
}

// Cache is a read-through JSON cache for chunk records in front of the
// Postgres store. Entries expire; the store stays authoritative.
type Cache struct {
	client *redis.Client
	ttl    time.Duration
}

func New(client *redis.Client, ttl time.Duration) *Cache {
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &Cache{client: client, ttl: ttl}
}

// Get returns the cached record, or nil on a miss.
func (c *Cache) Get(ctx context.Context, id string) (*models.ChunkRecord, error) {
	val, err := c.client.Get(ctx, chunkKeyPrefix+id).Result()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var rec models.ChunkRecord
	if err := json.Unmarshal([]byte(val), &rec); err != nil {
		return nil, err
	}
	return &rec, nil
}

// GetMany returns the cached subset and the IDs that missed.
func (c *Cache) GetMany(ctx context.Context, ids []string) (map[string]models.ChunkRecord, []string, error) {
	if len(ids) == 0 {
		return map[string]models.ChunkRecord{}, nil, nil
	}
	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = chunkKeyPrefix + id
	}
	vals, err := c.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, nil, err
	}

	hits := make(map[string]models.ChunkRecord, len(ids))
	var misses []string
	for i, v := range vals {
		s, ok := v.(string)
		if !ok {
			misses = append(misses, ids[i])
			continue
		}
		var rec models.ChunkRecord
		if err := json.Unmarshal([]byte(s), &rec); err != nil {
			misses = append(misses, ids[i])
			continue
		}
		hits[ids[i]] = rec
	}
	return hits, misses, nil
}

// Set stores one record with the cache TTL.
func (c *Cache) Set(ctx context.Context, rec models.ChunkRecord) error {
	data, err := json.Marshal(rec)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, chunkKeyPrefix+rec.ID, data, c.ttl).Err()
}

// SetMany stores records pipelined.
func (c *Cache) SetMany(ctx context.Context, recs map[string]models.ChunkRecord) error {
	if len(recs) == 0 {
		return nil
	}
	pipe := c.client.Pipeline()
	for id, rec := range recs {
		data, err := json.Marshal(rec)
		if err != nil {
			return err
		}
		pipe.Set(ctx, chunkKeyPrefix+id, data, c.ttl)
	}
	_, err := pipe.Exec(ctx)
	return err
}
