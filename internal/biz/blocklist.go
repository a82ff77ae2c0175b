package biz

import (
	"context"
	"fmt"

	"guildguard/internal/conf"
	"guildguard/internal/pkg/hash"
	"guildguard/internal/pkg/telemetry"

	"github.com/go-kratos/kratos/v2/log"
)

const defaultMergeRetries = 3

// HashSet is a set of perceptual hashes. A nil HashSet is empty.
type HashSet map[hash.FixedHash]struct{}

// NewHashSet builds a set from hashes.
func NewHashSet(hashes ...hash.FixedHash) HashSet {
	s := make(HashSet, len(hashes))
	for _, h := range hashes {
		s[h] = struct{}{}
	}
	return s
}

// Contains reports whether h is in the set.
func (s HashSet) Contains(h hash.FixedHash) bool {
	_, ok := s[h]
	return ok
}

// Len returns the number of hashes in the set.
func (s HashSet) Len() int {
	return len(s)
}

// DecodeBlocklist splits a stored blob into hashes, keeping stored order.
func DecodeBlocklist(blob []byte) ([]hash.FixedHash, error) {
	if len(blob)%hash.Size != 0 {
		return nil, ErrBlocklistCorrupt.WithCause(
			fmt.Errorf("blob length %d is not a multiple of %d", len(blob), hash.Size))
	}
	hashes := make([]hash.FixedHash, 0, len(blob)/hash.Size)
	for off := 0; off < len(blob); off += hash.Size {
		h, err := hash.Decode(blob[off : off+hash.Size])
		if err != nil {
			return nil, ErrBlocklistCorrupt.WithCause(err)
		}
		hashes = append(hashes, h)
	}
	return hashes, nil
}

// EncodeBlocklist concatenates hashes without delimiters.
func EncodeBlocklist(hashes []hash.FixedHash) []byte {
	blob := make([]byte, 0, len(hashes)*hash.Size)
	for _, h := range hashes {
		blob = append(blob, h.Bytes()...)
	}
	return blob
}

// Blocklist is a decoded guild blocklist in stored order.
type Blocklist struct {
	Hashes   []hash.FixedHash
	Revision int64
}

// Set returns the membership view of the blocklist.
func (b *Blocklist) Set() HashSet {
	return NewHashSet(b.Hashes...)
}

// ImageHashRepo turns an image URL into its perceptual hash.
// Failures are ErrImageFetch or ErrImageDecode.
type ImageHashRepo interface {
	HashURL(ctx context.Context, url string) (hash.FixedHash, error)
}

// BlocklistUsecase loads and merges guild blocklists.
type BlocklistUsecase struct {
	repo    GuildProfileRepo
	images  ImageHashRepo
	retries int
	metrics *telemetry.Metrics
	log     *log.Helper
}

// NewBlocklistUsecase new a Blocklist usecase.
func NewBlocklistUsecase(repo GuildProfileRepo, images ImageHashRepo, c *conf.Blocklist,
	metrics *telemetry.Metrics, logger log.Logger) *BlocklistUsecase {
	retries := defaultMergeRetries
	if c != nil && c.MergeRetries > 0 {
		retries = c.MergeRetries
	}
	return &BlocklistUsecase{
		repo:    repo,
		images:  images,
		retries: retries,
		metrics: metrics,
		log:     log.NewHelper(logger),
	}
}

// Fetch reads and decodes the blocklist of guild. An absent blob is empty.
func (uc *BlocklistUsecase) Fetch(ctx context.Context, guild Snowflake) (*Blocklist, error) {
	rec, err := uc.repo.GetBlocklist(ctx, guild)
	uc.metrics.ObserveLoad(err)
	if err != nil {
		return nil, storageError(err)
	}
	hashes, err := DecodeBlocklist(rec.Blob)
	if err != nil {
		return nil, err
	}
	return &Blocklist{Hashes: hashes, Revision: rec.Revision}, nil
}

// Load returns the blocklist of guild as a set.
func (uc *BlocklistUsecase) Load(ctx context.Context, guild Snowflake) (HashSet, error) {
	b, err := uc.Fetch(ctx, guild)
	if err != nil {
		return nil, err
	}
	return b.Set(), nil
}

// MergeAndSave adds newHashes to the stored blocklist of guild and returns
// how many were not already present. The blob is written as the new hashes
// in input order followed by the stored ones. Nothing is written when no hash
// is new. A concurrent writer causes a re-read and retry.
func (uc *BlocklistUsecase) MergeAndSave(ctx context.Context, guild Snowflake, newHashes []hash.FixedHash) (int, error) {
	for attempt := 0; attempt <= uc.retries; attempt++ {
		current, err := uc.Fetch(ctx, guild)
		if err != nil {
			uc.metrics.ObserveMerge(err)
			return 0, err
		}
		existing := current.Set()

		added := make([]hash.FixedHash, 0, len(newHashes))
		for _, h := range newHashes {
			if existing.Contains(h) {
				continue
			}
			existing[h] = struct{}{}
			added = append(added, h)
		}
		if len(added) == 0 {
			return 0, nil
		}

		merged := append(added, current.Hashes...)
		ok, err := uc.repo.UpdateBlocklist(ctx, guild, EncodeBlocklist(merged), current.Revision)
		if err != nil {
			err = storageError(err)
			uc.metrics.ObserveMerge(err)
			return 0, err
		}
		if ok {
			uc.metrics.ObserveMerge(nil)
			return len(added), nil
		}
		uc.log.WithContext(ctx).Warnf("blocklist of guild %s changed during merge (revision %d), retrying",
			guild, current.Revision)
	}
	uc.metrics.ObserveMerge(ErrRevisionConflict)
	return 0, ErrRevisionConflict
}

// NewRequestCache returns a cache scoped to one filtering pass or workflow.
func (uc *BlocklistUsecase) NewRequestCache(guild Snowflake) *RequestHashCache {
	return &RequestHashCache{
		guild:   guild,
		store:   uc,
		images:  uc.images,
		metrics: uc.metrics,
		log:     uc.log,
	}
}

// Lookup hashes url and reports whether guild blocks it. Unlike the passive
// filters it returns fetch and storage failures.
func (uc *BlocklistUsecase) Lookup(ctx context.Context, guild Snowflake, url string) (hash.FixedHash, bool, error) {
	h, err := uc.images.HashURL(ctx, url)
	if err != nil {
		return hash.FixedHash{}, false, err
	}
	set, err := uc.Load(ctx, guild)
	if err != nil {
		return h, false, err
	}
	return h, set.Contains(h), nil
}
