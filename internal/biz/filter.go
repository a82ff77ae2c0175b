package biz

import (
	"context"

	"guildguard/internal/pkg/hash"
	"guildguard/internal/pkg/telemetry"

	"github.com/go-kratos/kratos/v2/log"
)

const triggerPassive = "passive"

// FilterUsecase checks event content against the guild blocklist and
// remediates the first blocked image it finds.
type FilterUsecase struct {
	blocklist *BlocklistUsecase
	platform  Platform
	metrics   *telemetry.Metrics
	log       *log.Helper
}

// NewFilterUsecase new a Filter usecase.
func NewFilterUsecase(blocklist *BlocklistUsecase, platform Platform, metrics *telemetry.Metrics,
	logger log.Logger) *FilterUsecase {
	return &FilterUsecase{
		blocklist: blocklist,
		platform:  platform,
		metrics:   metrics,
		log:       log.NewHelper(logger),
	}
}

// FilterMessage deletes m and posts a notice when any of its images is
// blocked, and reports whether it did.
func (uc *FilterUsecase) FilterMessage(ctx context.Context, m *Message) (bool, error) {
	if m.Guild == 0 {
		return false, nil
	}
	cache := uc.blocklist.NewRequestCache(m.Guild)
	for _, src := range m.Sources() {
		h, ok := cache.Check(ctx, src.Resolve())
		if !ok {
			continue
		}
		err := uc.platform.DeleteMessage(ctx, m.Channel, m.ID)
		if err == nil {
			err = uc.platform.SendMessage(ctx, m.Channel, DeletedNotice(m.Author))
		}
		uc.metrics.ObserveRemediation(src.Kind.String(), triggerPassive, err)
		if err != nil {
			return false, ErrRemediation.WithCause(err)
		}
		uc.log.WithContext(ctx).Infof("Deleted blocked image from %s in guild %s (hash: %s)",
			m.Author, m.Guild, h.Base64())
		return true, nil
	}
	return false, nil
}

// FilterStickers checks a guild's full sticker list.
func (uc *FilterUsecase) FilterStickers(ctx context.Context, guild Snowflake, stickers []StickerRef) (bool, error) {
	sources := make([]Source, 0, len(stickers))
	for _, s := range stickers {
		sources = append(sources, StickerSource(s))
	}
	return uc.remediateFirst(ctx, sources, RemediationContext{Guild: guild})
}

// FilterEmojis checks a guild's full custom emoji list.
func (uc *FilterUsecase) FilterEmojis(ctx context.Context, guild Snowflake, emojis []Snowflake) (bool, error) {
	sources := make([]Source, 0, len(emojis))
	for _, id := range emojis {
		sources = append(sources, EmojiSource(id))
	}
	return uc.remediateFirst(ctx, sources, RemediationContext{Guild: guild})
}

// FilterMember kicks a member whose profile picture is blocked.
func (uc *FilterUsecase) FilterMember(ctx context.Context, m *Member) (bool, error) {
	return uc.remediateFirst(ctx, []Source{DirectSource(m.AvatarURL)},
		RemediationContext{Guild: m.Guild, User: m.User})
}

// FilterGuild clears a blocked icon, or else a blocked banner.
func (uc *FilterUsecase) FilterGuild(ctx context.Context, guild Snowflake, iconURL, bannerURL string) (bool, error) {
	return uc.remediateFirst(ctx, []Source{IconSource(iconURL), BannerSource(bannerURL)},
		RemediationContext{Guild: guild})
}

// FilterReaction removes a blocked custom emoji reaction from its message.
func (uc *FilterUsecase) FilterReaction(ctx context.Context, r *Reaction) (bool, error) {
	if r.Guild == 0 || !r.Emoji.Custom() {
		return false, nil
	}
	return uc.remediateFirst(ctx, []Source{ReactionSource(r.Emoji)},
		RemediationContext{Guild: r.Guild, Channel: r.Channel, Message: r.Message})
}

func (uc *FilterUsecase) remediateFirst(ctx context.Context, sources []Source, rc RemediationContext) (bool, error) {
	if rc.Guild == 0 || len(sources) == 0 {
		return false, nil
	}
	cache := uc.blocklist.NewRequestCache(rc.Guild)
	for _, src := range sources {
		h, ok := cache.Check(ctx, src.Resolve())
		if !ok {
			continue
		}
		out, err := src.Remediate(ctx, uc.platform, rc)
		uc.metrics.ObserveRemediation(src.Kind.String(), triggerPassive, err)
		uc.logOutcome(ctx, src, h, out, err)
		if err != nil {
			return false, err
		}
		return true, nil
	}
	return false, nil
}

func (uc *FilterUsecase) logOutcome(ctx context.Context, src Source, h hash.FixedHash, out Outcome, err error) {
	l := uc.log.WithContext(ctx)
	for _, t := range out.Tolerated {
		l.Warnf("tolerated failure while remediating %s: %v", src.Kind, t)
	}
	switch {
	case err != nil:
		l.Errorf("failed to remediate blocked %s (hash: %s): %v", src.Kind, h.Base64(), err)
	case out.Kicked:
		l.Infof("Kicked user for image (hash: %s)", h.Base64())
	default:
		l.Infof("Remediated blocked %s (hash: %s)", src.Kind, h.Base64())
	}
}
