package service

import (
	"context"

	"guildguard/internal/biz"
	"guildguard/internal/conf"
	"guildguard/internal/pkg/discord"

	"github.com/bwmarrin/discordgo"
	"github.com/go-kratos/kratos/v2/log"
)

// Command names as registered with the platform.
const (
	CommandBlockMessage = "Block Image(s) or Reaction(s)"
	CommandBlockAvatar  = "Block Profile Picture"
	CommandBlockIcon    = "block_icon"
	CommandPurgeTo      = "Purge To"
	CommandSetup        = "blocklist_setup"

	optionModRole    = "mod_role"
	optionModChannel = "mod_channel"
)

// Commands returns the application commands served by InteractionService.
func Commands() []*discordgo.ApplicationCommand {
	guildOnly := false
	admin := int64(discordgo.PermissionAdministrator)
	return []*discordgo.ApplicationCommand{
		{Type: discordgo.MessageApplicationCommand, Name: CommandBlockMessage, DMPermission: &guildOnly},
		{Type: discordgo.UserApplicationCommand, Name: CommandBlockAvatar, DMPermission: &guildOnly},
		{
			Type:         discordgo.ChatApplicationCommand,
			Name:         CommandBlockIcon,
			Description:  "Block the server icon or banner",
			DMPermission: &guildOnly,
		},
		{Type: discordgo.MessageApplicationCommand, Name: CommandPurgeTo, DMPermission: &guildOnly},
		{
			Type:                     discordgo.ChatApplicationCommand,
			Name:                     CommandSetup,
			Description:              "Set the moderator role and channel of the image blocklist",
			DMPermission:             &guildOnly,
			DefaultMemberPermissions: &admin,
			Options: []*discordgo.ApplicationCommandOption{
				{
					Type:        discordgo.ApplicationCommandOptionRole,
					Name:        optionModRole,
					Description: "Role allowed to block images",
					Required:    true,
				},
				{
					Type:        discordgo.ApplicationCommandOptionChannel,
					Name:        optionModChannel,
					Description: "Channel for moderator notices",
					Required:    true,
				},
			},
		},
	}
}

// InteractionService routes gateway interactions to the moderator commands
// and to pending confirmation prompts.
type InteractionService struct {
	moderation *ModerationService
	waiter     *discord.Waiter
	ephemeral  bool
	log        *log.Helper
}

// NewInteractionService creates a new InteractionService.
func NewInteractionService(moderation *ModerationService, waiter *discord.Waiter, c *conf.Discord,
	logger log.Logger) *InteractionService {
	return &InteractionService{
		moderation: moderation,
		waiter:     waiter,
		ephemeral:  c != nil && c.Ephemeral,
		log:        log.NewHelper(logger),
	}
}

// Handle processes one interaction.
func (s *InteractionService) Handle(ctx context.Context, sess *discordgo.Session, i *discordgo.Interaction) {
	switch i.Type {
	case discordgo.InteractionMessageComponent:
		if !s.waiter.Dispatch(i) {
			return
		}
		err := sess.InteractionRespond(i, &discordgo.InteractionResponse{
			Type: discordgo.InteractionResponseDeferredMessageUpdate,
		}, discordgo.WithContext(ctx))
		if err != nil {
			s.log.WithContext(ctx).Warnf("failed to acknowledge component: %v", err)
		}
	case discordgo.InteractionApplicationCommand:
		if i.GuildID == "" || i.Member == nil {
			return
		}
		s.command(ctx, sess, i)
	}
}

func (s *InteractionService) command(ctx context.Context, sess *discordgo.Session, i *discordgo.Interaction) {
	data := i.ApplicationCommandData()
	inv := invocation(i, data.Name)
	r := discord.NewInteractionSession(sess, s.waiter, i, s.ephemeral)

	switch data.Name {
	case CommandBlockMessage:
		m := resolvedMessage(data)
		if m == nil {
			s.log.WithContext(ctx).Warnf("command %q without a resolved message", data.Name)
			return
		}
		m.Guild = inv.Guild
		if m.Channel == 0 {
			m.Channel = inv.Channel
		}
		s.moderation.BlockMessage(ctx, inv, r, m)
	case CommandBlockAvatar:
		user, avatar := resolvedAvatar(data, i.GuildID)
		s.moderation.BlockAvatar(ctx, inv, r, user, avatar)
	case CommandBlockIcon:
		s.moderation.BlockIcon(ctx, inv, r)
	case CommandPurgeTo:
		target, err := biz.ParseSnowflake(data.TargetID)
		if err != nil {
			s.log.WithContext(ctx).Warnf("command %q with invalid target %q", data.Name, data.TargetID)
			return
		}
		s.moderation.PurgeTo(ctx, inv, r, inv.Channel, target)
	case CommandSetup:
		role, channel := setupOptions(data)
		s.moderation.Setup(ctx, inv, r, role, channel)
	default:
		s.log.WithContext(ctx).Warnf("unknown command %q", data.Name)
	}
}

func invocation(i *discordgo.Interaction, command string) Invocation {
	inv := Invocation{Command: command}
	inv.Guild, _ = biz.ParseSnowflake(i.GuildID)
	inv.Channel, _ = biz.ParseSnowflake(i.ChannelID)
	if i.Member == nil {
		return inv
	}
	if i.Member.User != nil {
		inv.User, _ = biz.ParseSnowflake(i.Member.User.ID)
	}
	for _, role := range i.Member.Roles {
		if id, err := biz.ParseSnowflake(role); err == nil {
			inv.Roles = append(inv.Roles, id)
		}
	}
	inv.Admin = i.Member.Permissions&discordgo.PermissionAdministrator != 0
	return inv
}

func resolvedMessage(data discordgo.ApplicationCommandInteractionData) *biz.Message {
	if data.Resolved == nil {
		return nil
	}
	return discord.ToMessage(data.Resolved.Messages[data.TargetID])
}

// resolvedAvatar prefers the member's guild avatar over the global one.
func resolvedAvatar(data discordgo.ApplicationCommandInteractionData, guildID string) (biz.Snowflake, string) {
	id, _ := biz.ParseSnowflake(data.TargetID)
	if data.Resolved == nil {
		return id, ""
	}
	u := data.Resolved.Users[data.TargetID]
	if u == nil {
		return id, ""
	}
	if m := data.Resolved.Members[data.TargetID]; m != nil && m.Avatar != "" {
		member := *m
		member.User = u
		member.GuildID = guildID
		if bm := discord.ToMember(&member); bm != nil {
			return id, bm.AvatarURL
		}
	}
	return id, discord.UserAvatarURL(u)
}

func setupOptions(data discordgo.ApplicationCommandInteractionData) (role, channel biz.Snowflake) {
	for _, o := range data.Options {
		if o == nil {
			continue
		}
		switch {
		case o.Name == optionModRole && o.Type == discordgo.ApplicationCommandOptionRole:
			role, _ = biz.ParseSnowflake(o.RoleValue(nil, "").ID)
		case o.Name == optionModChannel && o.Type == discordgo.ApplicationCommandOptionChannel:
			channel, _ = biz.ParseSnowflake(o.ChannelValue(nil).ID)
		}
	}
	return role, channel
}
