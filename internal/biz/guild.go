package biz

import (
	"context"
	"slices"
	"strconv"

	"github.com/go-kratos/kratos/v2/errors"
	"github.com/go-kratos/kratos/v2/log"
)

// Snowflake is a 64-bit platform identifier.
type Snowflake uint64

func (s Snowflake) String() string {
	return strconv.FormatUint(uint64(s), 10)
}

// ParseSnowflake parses a decimal identifier.
func ParseSnowflake(s string) (Snowflake, error) {
	v, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return 0, err
	}
	return Snowflake(v), nil
}

// Mention renders a user mention.
func (s Snowflake) Mention() string {
	return "<@" + s.String() + ">"
}

// GuildProfile is the per-guild moderation settings row.
type GuildProfile struct {
	ID            Snowflake
	ModRole       Snowflake
	ModChannel    Snowflake
	BlockedImages []byte
	Revision      int64
}

// BlocklistRecord is the blocklist column of a guild profile together with
// the revision it was read at.
type BlocklistRecord struct {
	Blob     []byte
	Revision int64
}

// GuildProfileRepo is a guild profile repo.
type GuildProfileRepo interface {
	// GetProfile returns ErrGuildNotFound when the guild has no row.
	GetProfile(ctx context.Context, guild Snowflake) (*GuildProfile, error)
	// UpsertProfile writes the role and channel settings, leaving the blocklist untouched.
	UpsertProfile(ctx context.Context, p *GuildProfile) (*GuildProfile, error)
	// GetBlocklist returns ErrGuildNotFound when the guild has no row.
	GetBlocklist(ctx context.Context, guild Snowflake) (*BlocklistRecord, error)
	// UpdateBlocklist replaces the blob only when the stored revision still
	// equals revision, and reports whether it did.
	UpdateBlocklist(ctx context.Context, guild Snowflake, blob []byte, revision int64) (bool, error)
}

// GuildUsecase manages guild profiles.
type GuildUsecase struct {
	repo GuildProfileRepo
	log  *log.Helper
}

// NewGuildUsecase new a GuildProfile usecase.
func NewGuildUsecase(repo GuildProfileRepo, logger log.Logger) *GuildUsecase {
	return &GuildUsecase{repo: repo, log: log.NewHelper(logger)}
}

// Setup creates or updates the moderation settings of a guild.
func (uc *GuildUsecase) Setup(ctx context.Context, guild, modRole, modChannel Snowflake) (*GuildProfile, error) {
	uc.log.WithContext(ctx).Infof("Setup: guild=%s mod_role=%s mod_channel=%s", guild, modRole, modChannel)
	p, err := uc.repo.UpsertProfile(ctx, &GuildProfile{
		ID:         guild,
		ModRole:    modRole,
		ModChannel: modChannel,
	})
	if err != nil {
		return nil, storageError(err)
	}
	return p, nil
}

// Profile returns the profile of a guild.
func (uc *GuildUsecase) Profile(ctx context.Context, guild Snowflake) (*GuildProfile, error) {
	p, err := uc.repo.GetProfile(ctx, guild)
	if err != nil {
		return nil, storageError(err)
	}
	return p, nil
}

// Authorize succeeds when roles contain the guild's moderator role.
func (uc *GuildUsecase) Authorize(ctx context.Context, guild Snowflake, roles []Snowflake) error {
	p, err := uc.Profile(ctx, guild)
	if err != nil {
		return err
	}
	if p.ModRole == 0 || !slices.Contains(roles, p.ModRole) {
		return ErrNotAuthorized
	}
	return nil
}

// storageError keeps domain errors and wraps everything else as ErrStorage.
func storageError(err error) error {
	if err == nil {
		return nil
	}
	if e := errors.FromError(err); e != nil && e.Reason != "" {
		return err
	}
	return ErrStorage.WithCause(err)
}
