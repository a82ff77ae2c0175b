package biz

import (
	"context"

	"guildguard/internal/pkg/hash"
	"guildguard/internal/pkg/telemetry"

	"github.com/go-kratos/kratos/v2/log"
)

// RequestHashCache memoizes one guild's blocklist for the length of a single
// operation. It is not safe for concurrent use.
type RequestHashCache struct {
	guild   Snowflake
	store   *BlocklistUsecase
	images  ImageHashRepo
	metrics *telemetry.Metrics
	log     *log.Helper

	loaded bool
	hashes HashSet
}

// Get returns the blocklist, loading it on first use. A failed load is
// logged and reported as no blocklist.
func (c *RequestHashCache) Get(ctx context.Context) (HashSet, bool) {
	if !c.loaded {
		c.loaded = true
		hashes, err := c.store.Load(ctx, c.guild)
		if err != nil {
			c.log.WithContext(ctx).Warnf("failed to load blocklist of guild %s: %v", c.guild, err)
		} else {
			c.hashes = hashes
		}
	}
	return c.hashes, c.hashes != nil
}

// Check hashes the image at url and returns the hash when it is blocked.
// An empty url is never fetched. Fetch and decode failures count as not blocked.
func (c *RequestHashCache) Check(ctx context.Context, url string) (hash.FixedHash, bool) {
	if url == "" {
		return hash.FixedHash{}, false
	}
	h, err := c.images.HashURL(ctx, url)
	if err != nil {
		c.metrics.ObserveCheck("error")
		c.log.WithContext(ctx).Warnf("failed to hash %s: %v", url, err)
		return hash.FixedHash{}, false
	}
	hashes, ok := c.Get(ctx)
	if !ok || !hashes.Contains(h) {
		c.metrics.ObserveCheck("miss")
		return hash.FixedHash{}, false
	}
	c.metrics.ObserveCheck("hit")
	return h, true
}

// Retrieve forces the load and returns the final set, nil if none.
func (c *RequestHashCache) Retrieve(ctx context.Context) HashSet {
	hashes, _ := c.Get(ctx)
	return hashes
}
