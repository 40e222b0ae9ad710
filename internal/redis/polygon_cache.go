package redis

import (
	"context"
	"fmt"

	"github.com/bytedance/sonic"
	"github.com/go-logr/logr"
	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"

	"polyring/internal/model"
)

// PolygonKeyPrefix namespaces polygon blobs: polygon:<id>
const PolygonKeyPrefix = "polygon"

const scanBatch = 100

// PolygonCache keeps the latest polygon records as JSON blobs
type PolygonCache struct {
	client redis.Cmdable
	log    logr.Logger
}

func NewPolygonCache(client redis.Cmdable, log logr.Logger) *PolygonCache {
	return &PolygonCache{client: client, log: log}
}

func polygonKey(id string) string {
	return fmt.Sprintf("%s:%s", PolygonKeyPrefix, id)
}

// LoadAll scans every polygon key and decodes the blobs.
// Blobs that fail to decode are skipped.
func (c *PolygonCache) LoadAll(ctx context.Context) (map[string]*model.PolygonRecord, error) {
	var cursor uint64
	var keys []string
	pattern := fmt.Sprintf("%s:*", PolygonKeyPrefix)

	for {
		batch, next, err := c.client.Scan(ctx, cursor, pattern, scanBatch).Result()
		if err != nil {
			return nil, errors.Wrap(err, "scan polygon keys")
		}
		keys = append(keys, batch...)
		cursor = next
		if cursor == 0 {
			break
		}
	}

	records := make(map[string]*model.PolygonRecord, len(keys))
	if len(keys) == 0 {
		return records, nil
	}

	values, err := c.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, errors.Wrap(err, "mget polygons")
	}

	for i, v := range values {
		s, ok := v.(string)
		if !ok || s == "" {
			continue
		}
		rec := &model.PolygonRecord{}
		if err := sonic.UnmarshalString(s, rec); err != nil {
			c.log.Error(err, "skipping undecodable polygon blob", "key", keys[i])
			continue
		}
		records[rec.ID] = rec
	}
	return records, nil
}

// SaveMany writes records in a single pipeline
func (c *PolygonCache) SaveMany(ctx context.Context, records []*model.PolygonRecord) error {
	if len(records) == 0 {
		return nil
	}

	pipe := c.client.Pipeline()
	for _, rec := range records {
		blob, err := sonic.Marshal(rec)
		if err != nil {
			return errors.Wrapf(err, "encode polygon %s", rec.ID)
		}
		pipe.Set(ctx, polygonKey(rec.ID), blob, 0)
	}

	if _, err := pipe.Exec(ctx); err != nil {
		return errors.Wrap(err, "write polygons")
	}
	return nil
}

// Delete removes the polygon blob
func (c *PolygonCache) Delete(ctx context.Context, id string) error {
	return errors.Wrapf(c.client.Del(ctx, polygonKey(id)).Err(), "delete polygon %s", id)
}
