package data

import (
	"context"
	"time"

	"guildguard/internal/biz"
	"guildguard/internal/conf"
	"guildguard/internal/pkg/fetch"
	"guildguard/internal/pkg/hash"
	pkgredis "guildguard/internal/pkg/redis"

	"github.com/go-kratos/kratos/v2/log"
)

const (
	hashCacheKeyPrefix  = "guildguard:phash:"
	defaultHashCacheTTL = 24 * time.Hour
)

// imageHashRepo fetches and hashes remote images, memoizing URL to hash in Redis.
type imageHashRepo struct {
	cache   pkgredis.Cache
	fetcher *fetch.Client
	hasher  *hash.PerceptualHasher
	ttl     time.Duration
	log     *log.Helper
}

// NewImageHashRepo creates a new image hash repository.
func NewImageHashRepo(cache pkgredis.Cache, fetcher *fetch.Client, hasher *hash.PerceptualHasher,
	c *conf.Data, logger log.Logger) biz.ImageHashRepo {
	ttl := defaultHashCacheTTL
	if c != nil && c.Redis != nil && c.Redis.HashCacheTTL.AsDuration() > 0 {
		ttl = c.Redis.HashCacheTTL.AsDuration()
	}
	return &imageHashRepo{
		cache:   cache,
		fetcher: fetcher,
		hasher:  hasher,
		ttl:     ttl,
		log:     log.NewHelper(logger),
	}
}

// HashURL implements biz.ImageHashRepo.
func (r *imageHashRepo) HashURL(ctx context.Context, url string) (hash.FixedHash, error) {
	key := hashCacheKeyPrefix + hash.FastHash(url)

	if r.cache != nil {
		cached, err := r.cache.GetBytes(ctx, key)
		switch {
		case err == nil:
			if h, err := hash.Decode(cached); err == nil {
				return h, nil
			}
			r.log.WithContext(ctx).Warnf("discarding malformed cached hash for %s", url)
		case !pkgredis.IsNil(err):
			r.log.WithContext(ctx).Warnf("hash cache lookup failed: %v", err)
		}
	}

	body, err := r.fetcher.Fetch(ctx, url)
	if err != nil {
		return hash.FixedHash{}, biz.ErrImageFetch.WithCause(err)
	}
	h, err := r.hasher.ComputeHashFromBytes(body)
	if err != nil {
		return hash.FixedHash{}, biz.ErrImageDecode.WithCause(err)
	}

	if r.cache != nil {
		if err := r.cache.SetBytes(ctx, key, h.Bytes(), r.ttl); err != nil {
			r.log.WithContext(ctx).Warnf("failed to cache hash for %s: %v", url, err)
		}
	}
	return h, nil
}
