package data

import (
	"context"
	"errors"

	"guildguard/internal/biz"
	"guildguard/internal/data/postgres/sqlc"

	"github.com/go-kratos/kratos/v2/log"
	"github.com/jackc/pgx/v5"
)

type guildProfileRepo struct {
	data *Data
	log  *log.Helper
}

// NewGuildProfileRepo creates a new guild profile repository.
func NewGuildProfileRepo(data *Data, logger log.Logger) biz.GuildProfileRepo {
	return &guildProfileRepo{
		data: data,
		log:  log.NewHelper(logger),
	}
}

// GetProfile implements biz.GuildProfileRepo.
func (r *guildProfileRepo) GetProfile(ctx context.Context, guild biz.Snowflake) (*biz.GuildProfile, error) {
	result, err := r.data.Queries.GetGuildProfile(ctx, toKey(guild))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, biz.ErrGuildNotFound
		}
		return nil, err
	}
	return toBizGuildProfile(result), nil
}

// UpsertProfile implements biz.GuildProfileRepo.
func (r *guildProfileRepo) UpsertProfile(ctx context.Context, p *biz.GuildProfile) (*biz.GuildProfile, error) {
	result, err := r.data.Queries.UpsertGuildProfile(ctx, sqlc.UpsertGuildProfileParams{
		ID:         toKey(p.ID),
		ModRole:    toKey(p.ModRole),
		ModChannel: toKey(p.ModChannel),
	})
	if err != nil {
		return nil, err
	}
	return toBizGuildProfile(result), nil
}

// GetBlocklist implements biz.GuildProfileRepo.
func (r *guildProfileRepo) GetBlocklist(ctx context.Context, guild biz.Snowflake) (*biz.BlocklistRecord, error) {
	result, err := r.data.Queries.GetGuildBlocklist(ctx, toKey(guild))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, biz.ErrGuildNotFound
		}
		return nil, err
	}
	return &biz.BlocklistRecord{
		Blob:     result.BlockedImages,
		Revision: result.BlocklistRevision,
	}, nil
}

// UpdateBlocklist implements biz.GuildProfileRepo.
func (r *guildProfileRepo) UpdateBlocklist(ctx context.Context, guild biz.Snowflake, blob []byte, revision int64) (bool, error) {
	rows, err := r.data.Queries.UpdateGuildBlocklist(ctx, sqlc.UpdateGuildBlocklistParams{
		ID:                toKey(guild),
		BlockedImages:     blob,
		BlocklistRevision: revision,
	})
	if err != nil {
		return false, err
	}
	if rows == 0 {
		// Either the revision moved or the row is gone.
		if _, err := r.GetBlocklist(ctx, guild); err != nil {
			return false, err
		}
		return false, nil
	}
	return true, nil
}

// toKey stores the unsigned identifier bit-for-bit in a BIGINT column.
func toKey(s biz.Snowflake) int64 {
	return int64(s)
}

func fromKey(k int64) biz.Snowflake {
	return biz.Snowflake(uint64(k))
}

func toBizGuildProfile(p sqlc.GuildProfile) *biz.GuildProfile {
	return &biz.GuildProfile{
		ID:            fromKey(p.ID),
		ModRole:       fromKey(p.ModRole),
		ModChannel:    fromKey(p.ModChannel),
		BlockedImages: p.BlockedImages,
		Revision:      p.BlocklistRevision,
	}
}
