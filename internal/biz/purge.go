package biz

import (
	"context"

	"guildguard/internal/conf"
	"guildguard/internal/pkg/batch"

	"github.com/go-kratos/kratos/v2/log"
)

const ReplyPurged = "Purged messages."

// PurgeUsecase deletes a channel's messages back to a chosen message.
type PurgeUsecase struct {
	platform Platform
	limit    int
	log      *log.Helper
}

// NewPurgeUsecase new a Purge usecase.
func NewPurgeUsecase(platform Platform, c *conf.Blocklist, logger log.Logger) *PurgeUsecase {
	limit := batch.DefaultSize
	if c != nil && c.BulkDeleteLimit > 0 && c.BulkDeleteLimit < batch.DefaultSize {
		limit = c.BulkDeleteLimit
	}
	return &PurgeUsecase{platform: platform, limit: limit, log: log.NewHelper(logger)}
}

// PurgeTo deletes every message after target and then target itself, and
// returns how many messages were deleted.
func (uc *PurgeUsecase) PurgeTo(ctx context.Context, channel, target Snowflake) (int, error) {
	var ids []Snowflake
	after := target
	for {
		page, err := uc.platform.MessagesAfter(ctx, channel, after, uc.limit)
		if err != nil {
			return 0, err
		}
		for _, id := range page {
			ids = append(ids, id)
			if id > after {
				after = id
			}
		}
		if len(page) < uc.limit {
			break
		}
	}

	err := batch.Delete(ctx, ids, uc.limit,
		func(ctx context.Context, chunk []Snowflake) error {
			return uc.platform.BulkDeleteMessages(ctx, channel, chunk)
		},
		func(ctx context.Context, id Snowflake) error {
			return uc.platform.DeleteMessage(ctx, channel, id)
		})
	if err != nil {
		return 0, err
	}
	if err := uc.platform.DeleteMessage(ctx, channel, target); err != nil {
		return len(ids), err
	}
	uc.log.WithContext(ctx).Infof("Purged %d messages from channel %s", len(ids)+1, channel)
	return len(ids) + 1, nil
}
