package service

import (
	"context"

	"guildguard/internal/biz"
	"guildguard/internal/pkg/discord"

	"github.com/bwmarrin/discordgo"
	"github.com/go-kratos/kratos/v2/log"
)

// EventService feeds gateway events into the passive filters. Failures are
// logged and never propagate to the gateway.
type EventService struct {
	filter *biz.FilterUsecase
	log    *log.Helper
}

// NewEventService creates a new EventService.
func NewEventService(filter *biz.FilterUsecase, logger log.Logger) *EventService {
	return &EventService{filter: filter, log: log.NewHelper(logger)}
}

// MessageCreate filters a new guild message not sent by self.
func (s *EventService) MessageCreate(ctx context.Context, self string, m *discordgo.Message) {
	if m == nil || m.GuildID == "" || m.Author == nil || m.Author.ID == self {
		return
	}
	s.filterMessage(ctx, discord.ToMessage(m))
}

// MessageUpdate filters an edited guild message. fetch is used when the
// partial payload carries no author.
func (s *EventService) MessageUpdate(ctx context.Context, self string, m *discordgo.Message,
	fetch func(ctx context.Context, channel, id string) (*discordgo.Message, error)) {
	if m == nil || m.GuildID == "" {
		return
	}
	if m.Author == nil {
		full, err := fetch(ctx, m.ChannelID, m.ID)
		if err != nil {
			s.log.WithContext(ctx).Warnf("failed to fetch updated message %s: %v", m.ID, err)
			return
		}
		full.GuildID = m.GuildID
		m = full
	}
	if m.Author == nil || m.Author.ID == self {
		return
	}
	s.filterMessage(ctx, discord.ToMessage(m))
}

func (s *EventService) filterMessage(ctx context.Context, m *biz.Message) {
	if _, err := s.filter.FilterMessage(ctx, m); err != nil {
		s.log.WithContext(ctx).Errorf("failed to filter message %s (guild: %s): %v", m.ID, m.Guild, err)
	}
}

// StickersUpdate filters a guild's sticker set from a raw gateway event.
// Other event types are ignored.
func (s *EventService) StickersUpdate(ctx context.Context, e *discordgo.Event) {
	u, ok, err := discord.DecodeStickersUpdate(e)
	if !ok {
		return
	}
	if err != nil {
		s.log.WithContext(ctx).Warnf("%v", err)
		return
	}
	guild, err := biz.ParseSnowflake(u.GuildID)
	if err != nil {
		return
	}
	if _, err := s.filter.FilterStickers(ctx, guild, discord.ToStickers(u.Stickers)); err != nil {
		s.log.WithContext(ctx).Errorf("failed to filter stickers (guild: %s): %v", guild, err)
	}
}

// EmojisUpdate filters a guild's emoji set.
func (s *EventService) EmojisUpdate(ctx context.Context, e *discordgo.GuildEmojisUpdate) {
	guild, err := biz.ParseSnowflake(e.GuildID)
	if err != nil {
		return
	}
	if _, err := s.filter.FilterEmojis(ctx, guild, discord.ToEmojiIDs(e.Emojis)); err != nil {
		s.log.WithContext(ctx).Errorf("failed to filter emojis (guild: %s): %v", guild, err)
	}
}

// MemberUpdate filters the profile picture of a joining or updated member.
func (s *EventService) MemberUpdate(ctx context.Context, m *discordgo.Member) {
	member := discord.ToMember(m)
	if member == nil {
		return
	}
	if _, err := s.filter.FilterMember(ctx, member); err != nil {
		s.log.WithContext(ctx).Errorf("failed to filter member %s (guild: %s): %v", member.User, member.Guild, err)
	}
}

// GuildUpdate filters the icon and banner of an updated guild.
func (s *EventService) GuildUpdate(ctx context.Context, g *discordgo.Guild) {
	if g == nil {
		return
	}
	guild, err := biz.ParseSnowflake(g.ID)
	if err != nil {
		return
	}
	if _, err := s.filter.FilterGuild(ctx, guild, discord.GuildIconURL(g), discord.GuildBannerURL(g)); err != nil {
		s.log.WithContext(ctx).Errorf("failed to filter guild images (guild: %s): %v", guild, err)
	}
}

// ReactionAdd filters a reaction added in a guild.
func (s *EventService) ReactionAdd(ctx context.Context, r *discordgo.MessageReaction) {
	if r == nil || r.GuildID == "" {
		return
	}
	reaction := discord.ToReaction(r)
	if _, err := s.filter.FilterReaction(ctx, reaction); err != nil {
		s.log.WithContext(ctx).Errorf("failed to filter reaction on %s (guild: %s): %v",
			reaction.Message, reaction.Guild, err)
	}
}
