package redis

import (
	"context"
	"errors"
	"fmt"

	goredis "github.com/redis/go-redis/v9"

	"github.com/nguyendangtritoan/german-note/internal/adapter/docjson"
	"github.com/nguyendangtritoan/german-note/internal/domain"
)

// DictCache is the dictionary cache on Redis. Values never expire and are
// written with SETNX so the first writer wins.
type DictCache struct {
	rdb    goredis.UniversalClient
	prefix string
}

// NewDictCache creates a dictionary cache storing keys under prefix.
func NewDictCache(rdb goredis.UniversalClient, prefix string) *DictCache {
	return &DictCache{rdb: rdb, prefix: prefix}
}

// Lookup returns the cached analysis for key or domain.ErrNotFound.
func (c *DictCache) Lookup(ctx context.Context, key string) (*domain.CachedAnalysis, error) {
	raw, err := c.rdb.Get(ctx, c.prefix+key).Bytes()
	if errors.Is(err, goredis.Nil) {
		return nil, fmt.Errorf("dictionary_entry %s: %w", key, domain.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("dictionary_entry %s: redis get: %w", key, err)
	}
	return docjson.UnmarshalCached(key, raw)
}

// Store writes the analysis under key unless it already exists and reports
// whether this call created it.
func (c *DictCache) Store(ctx context.Context, key string, entry domain.CachedAnalysis) (bool, error) {
	raw, err := docjson.MarshalCached(entry)
	if err != nil {
		return false, err
	}
	created, err := c.rdb.SetNX(ctx, c.prefix+key, raw, 0).Result()
	if err != nil {
		return false, fmt.Errorf("dictionary_entry %s: redis setnx: %w", key, err)
	}
	return created, nil
}
