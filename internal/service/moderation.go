package service

import (
	"context"
	"fmt"
	"time"

	"guildguard/internal/biz"
	"guildguard/internal/conf"
	"guildguard/internal/pkg/cooldown"

	"github.com/go-kratos/kratos/v2/errors"
	"github.com/go-kratos/kratos/v2/log"
)

const (
	defaultCommandCooldown = 5 * time.Second

	ReplyNotAuthorized = "You do not have authorization to access this command."
	ReplyNotSetUp      = "This server is not set up yet. An administrator must run /blocklist_setup first."
	ReplyCooldown      = "Please wait a few seconds before using another command."
	ReplyError         = "Sorry, an error occurred."
	ReplyNoImages      = "No image(s) found!"
)

// Responder answers one moderator command.
type Responder interface {
	biz.ModeratorSession
	// Defer acknowledges the command before any reply is sent.
	Defer(ctx context.Context) error
}

// GuildImageSource looks up the current icon and banner of a guild.
type GuildImageSource interface {
	GuildImages(ctx context.Context, guild biz.Snowflake) (icon, banner string, err error)
}

// Invocation describes who ran a command and where.
type Invocation struct {
	Command string
	Guild   biz.Snowflake
	Channel biz.Snowflake
	User    biz.Snowflake
	Roles   []biz.Snowflake
	Admin   bool
}

type access int

const (
	accessModerator access = iota
	accessAdmin
)

// ModerationService implements the moderator commands.
type ModerationService struct {
	guild    *biz.GuildUsecase
	confirm  *biz.ConfirmUsecase
	purge    *biz.PurgeUsecase
	images   GuildImageSource
	cooldown *cooldown.Tracker[biz.Snowflake]
	log      *log.Helper
}

// NewCommandCooldown creates the per-user command cooldown.
func NewCommandCooldown(c *conf.Blocklist) *cooldown.Tracker[biz.Snowflake] {
	d := defaultCommandCooldown
	if c != nil && c.CommandCooldown.AsDuration() > 0 {
		d = c.CommandCooldown.AsDuration()
	}
	return cooldown.New[biz.Snowflake](d)
}

// NewModerationService creates a new ModerationService.
func NewModerationService(guild *biz.GuildUsecase, confirm *biz.ConfirmUsecase, purge *biz.PurgeUsecase,
	images GuildImageSource, tracker *cooldown.Tracker[biz.Snowflake], logger log.Logger) *ModerationService {
	return &ModerationService{
		guild:    guild,
		confirm:  confirm,
		purge:    purge,
		images:   images,
		cooldown: tracker,
		log:      log.NewHelper(logger),
	}
}

// BlockMessage offers every image of m for blocking.
func (s *ModerationService) BlockMessage(ctx context.Context, inv Invocation, r Responder, m *biz.Message) {
	s.run(ctx, inv, r, accessModerator, func(ctx context.Context) error {
		return s.confirmBlocks(ctx, r, biz.BlockTarget{
			Guild:   inv.Guild,
			Channel: m.Channel,
			Message: m.ID,
			Author:  m.Author,
		}, m.BlockCandidates())
	})
}

// BlockAvatar offers a member's profile picture for blocking. Blocking it
// kicks the member.
func (s *ModerationService) BlockAvatar(ctx context.Context, inv Invocation, r Responder, user biz.Snowflake,
	avatarURL string) {
	s.run(ctx, inv, r, accessModerator, func(ctx context.Context) error {
		var candidates []biz.Source
		if avatarURL != "" {
			candidates = append(candidates, biz.DirectSource(avatarURL))
		}
		return s.confirmBlocks(ctx, r, biz.BlockTarget{
			Guild:   inv.Guild,
			Channel: inv.Channel,
			User:    user,
		}, candidates)
	})
}

// BlockIcon offers the guild icon and banner for blocking.
func (s *ModerationService) BlockIcon(ctx context.Context, inv Invocation, r Responder) {
	s.run(ctx, inv, r, accessModerator, func(ctx context.Context) error {
		icon, banner, err := s.images.GuildImages(ctx, inv.Guild)
		if err != nil {
			return err
		}
		var candidates []biz.Source
		if icon != "" {
			candidates = append(candidates, biz.IconSource(icon))
		}
		if banner != "" {
			candidates = append(candidates, biz.BannerSource(banner))
		}
		return s.confirmBlocks(ctx, r, biz.BlockTarget{Guild: inv.Guild, Channel: inv.Channel}, candidates)
	})
}

// PurgeTo deletes every message of channel after target, and target.
func (s *ModerationService) PurgeTo(ctx context.Context, inv Invocation, r Responder, channel, target biz.Snowflake) {
	s.run(ctx, inv, r, accessModerator, func(ctx context.Context) error {
		n, err := s.purge.PurgeTo(ctx, channel, target)
		if err != nil {
			return err
		}
		s.log.WithContext(ctx).Infof("Purged %d messages (moderator: %s) (channel: %s)", n, inv.User, channel)
		return r.Reply(ctx, biz.ReplyPurged)
	})
}

// Setup stores the moderator role and channel of the guild.
func (s *ModerationService) Setup(ctx context.Context, inv Invocation, r Responder, modRole, modChannel biz.Snowflake) {
	s.run(ctx, inv, r, accessAdmin, func(ctx context.Context) error {
		if _, err := s.guild.Setup(ctx, inv.Guild, modRole, modChannel); err != nil {
			return err
		}
		return r.Reply(ctx, fmt.Sprintf("Blocklist set up. Moderator role: <@&%s>, moderator channel: <#%s>.",
			modRole, modChannel))
	})
}

func (s *ModerationService) confirmBlocks(ctx context.Context, r Responder, target biz.BlockTarget,
	candidates []biz.Source) error {
	if len(candidates) == 0 {
		return r.Reply(ctx, ReplyNoImages)
	}
	res, err := s.confirm.ConfirmBlocks(ctx, r, target, candidates)
	if err != nil {
		return err
	}
	if res.Prompted == 0 {
		return r.Reply(ctx, ReplyNoImages)
	}
	return nil
}

// run defers the command, checks access and cooldown, and replies with a
// generic message when fn fails.
func (s *ModerationService) run(ctx context.Context, inv Invocation, r Responder, need access,
	fn func(context.Context) error) {
	l := s.log.WithContext(ctx)
	if err := r.Defer(ctx); err != nil {
		l.Errorf("failed to defer command %q: %v", inv.Command, err)
		return
	}

	if reply := s.authorize(ctx, inv, need); reply != "" {
		s.reply(ctx, r, reply)
		return
	}
	if !s.cooldown.TryActivate(inv.User) {
		s.reply(ctx, r, ReplyCooldown)
		return
	}

	if err := fn(ctx); err != nil {
		l.Errorf("command %q failed (guild: %s) (user: %s): %v", inv.Command, inv.Guild, inv.User, err)
		s.reply(ctx, r, ReplyError)
	}
}

// authorize returns the refusal to send, or "" when inv may proceed.
func (s *ModerationService) authorize(ctx context.Context, inv Invocation, need access) string {
	l := s.log.WithContext(ctx)
	if need == accessAdmin {
		if inv.Admin {
			return ""
		}
		l.Infof("User %s attempted to access privileged command %q in guild %s", inv.User, inv.Command, inv.Guild)
		return ReplyNotAuthorized
	}

	err := s.guild.Authorize(ctx, inv.Guild, inv.Roles)
	switch {
	case err == nil:
		return ""
	case errors.Is(err, biz.ErrNotAuthorized):
		l.Infof("User %s attempted to access privileged command %q in guild %s", inv.User, inv.Command, inv.Guild)
		return ReplyNotAuthorized
	case errors.Is(err, biz.ErrGuildNotFound):
		return ReplyNotSetUp
	default:
		l.Errorf("failed to authorize command %q (guild: %s): %v", inv.Command, inv.Guild, err)
		return ReplyError
	}
}

func (s *ModerationService) reply(ctx context.Context, r Responder, content string) {
	if err := r.Reply(ctx, content); err != nil {
		s.log.WithContext(ctx).Errorf("failed to reply: %v", err)
	}
}
