// Package discord adapts a discordgo session to the blocklist's platform
// and moderator-session interfaces.
package discord

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"guildguard/internal/biz"
	"guildguard/internal/conf"

	"github.com/bwmarrin/discordgo"
)

// Intents requested on the gateway.
const Intents = discordgo.IntentsGuilds |
	discordgo.IntentsGuildMembers |
	discordgo.IntentsGuildEmojis |
	discordgo.IntentsGuildMessages |
	discordgo.IntentsGuildMessageReactions |
	discordgo.IntentsMessageContent

// NewSession creates an unopened bot session.
func NewSession(c *conf.Discord) (*discordgo.Session, error) {
	if c == nil || c.Token == "" {
		return nil, errors.New("discord token is not configured")
	}
	s, err := discordgo.New("Bot " + c.Token)
	if err != nil {
		return nil, fmt.Errorf("failed to create discord session: %w", err)
	}
	s.Identify.Intents = Intents
	return s, nil
}

// Client implements biz.Platform over the REST API.
type Client struct {
	s *discordgo.Session
}

// NewClient creates a new platform client.
func NewClient(s *discordgo.Session) *Client {
	return &Client{s: s}
}

// NewPlatform exposes the client as biz.Platform.
func NewPlatform(c *Client) biz.Platform {
	return c
}

// Session returns the underlying discordgo session.
func (c *Client) Session() *discordgo.Session {
	return c.s
}

// SendMessage posts content to a channel.
func (c *Client) SendMessage(ctx context.Context, channel biz.Snowflake, content string) error {
	_, err := c.s.ChannelMessageSend(channel.String(), content, discordgo.WithContext(ctx))
	return mapError(err)
}

// DeleteMessage deletes one message.
func (c *Client) DeleteMessage(ctx context.Context, channel, message biz.Snowflake) error {
	return mapError(c.s.ChannelMessageDelete(channel.String(), message.String(), discordgo.WithContext(ctx)))
}

// BulkDeleteMessages deletes up to 100 messages in one call.
func (c *Client) BulkDeleteMessages(ctx context.Context, channel biz.Snowflake, messages []biz.Snowflake) error {
	ids := make([]string, len(messages))
	for i, m := range messages {
		ids[i] = m.String()
	}
	return mapError(c.s.ChannelMessagesBulkDelete(channel.String(), ids, discordgo.WithContext(ctx)))
}

// MessagesAfter lists up to limit message IDs newer than after.
func (c *Client) MessagesAfter(ctx context.Context, channel, after biz.Snowflake, limit int) ([]biz.Snowflake, error) {
	msgs, err := c.s.ChannelMessages(channel.String(), limit, "", after.String(), "", discordgo.WithContext(ctx))
	if err != nil {
		return nil, mapError(err)
	}
	ids := make([]biz.Snowflake, 0, len(msgs))
	for _, m := range msgs {
		ids = append(ids, snowflake(m.ID))
	}
	return ids, nil
}

// DeleteEmoji deletes a guild emoji. An unknown emoji maps to biz.ErrUnknownEmoji.
func (c *Client) DeleteEmoji(ctx context.Context, guild, emoji biz.Snowflake) error {
	return mapError(c.s.GuildEmojiDelete(guild.String(), emoji.String(), discordgo.WithContext(ctx)))
}

// DeleteSticker deletes a guild sticker. An unknown sticker maps to biz.ErrUnknownSticker.
func (c *Client) DeleteSticker(ctx context.Context, guild, sticker biz.Snowflake) error {
	bucket := discordgo.EndpointGuild(guild.String())
	_, err := c.s.RequestWithBucketID(http.MethodDelete, bucket+"/stickers/"+sticker.String(), nil, bucket,
		discordgo.WithContext(ctx))
	return mapError(err)
}

// DeleteReactionEmoji removes every reaction of emoji from a message.
func (c *Client) DeleteReactionEmoji(ctx context.Context, channel, message biz.Snowflake, emoji biz.EmojiRef) error {
	return mapError(c.s.MessageReactionsRemoveEmoji(channel.String(), message.String(), APIName(emoji),
		discordgo.WithContext(ctx)))
}

// ClearGuildIcon removes the guild icon.
func (c *Client) ClearGuildIcon(ctx context.Context, guild biz.Snowflake) error {
	return c.patchGuild(ctx, guild, map[string]any{"icon": nil})
}

// ClearGuildBanner removes the guild banner.
func (c *Client) ClearGuildBanner(ctx context.Context, guild biz.Snowflake) error {
	return c.patchGuild(ctx, guild, map[string]any{"banner": nil})
}

// patchGuild sends explicit nulls, which GuildParams cannot express.
func (c *Client) patchGuild(ctx context.Context, guild biz.Snowflake, body map[string]any) error {
	endpoint := discordgo.EndpointGuild(guild.String())
	_, err := c.s.RequestWithBucketID(http.MethodPatch, endpoint, body, endpoint, discordgo.WithContext(ctx))
	return mapError(err)
}

// SendDirectMessage opens a DM channel with user and posts content.
func (c *Client) SendDirectMessage(ctx context.Context, user biz.Snowflake, content string) error {
	ch, err := c.s.UserChannelCreate(user.String(), discordgo.WithContext(ctx))
	if err != nil {
		return mapError(err)
	}
	_, err = c.s.ChannelMessageSend(ch.ID, content, discordgo.WithContext(ctx))
	return mapError(err)
}

// KickMember kicks user with an audit log reason.
func (c *Client) KickMember(ctx context.Context, guild, user biz.Snowflake, reason string) error {
	return mapError(c.s.GuildMemberDeleteWithReason(guild.String(), user.String(), reason,
		discordgo.WithContext(ctx)))
}

// GuildName returns the guild's display name.
func (c *Client) GuildName(ctx context.Context, guild biz.Snowflake) (string, error) {
	if c.s.State != nil {
		if g, err := c.s.State.Guild(guild.String()); err == nil {
			return g.Name, nil
		}
	}
	g, err := c.s.Guild(guild.String(), discordgo.WithContext(ctx))
	if err != nil {
		return "", mapError(err)
	}
	return g.Name, nil
}

// GuildImages returns the icon and banner URLs of a guild, empty when unset.
func (c *Client) GuildImages(ctx context.Context, guild biz.Snowflake) (string, string, error) {
	g, err := c.s.Guild(guild.String(), discordgo.WithContext(ctx))
	if err != nil {
		return "", "", mapError(err)
	}
	return GuildIconURL(g), GuildBannerURL(g), nil
}

// mapError turns "already gone" REST errors into biz sentinels.
func mapError(err error) error {
	if err == nil {
		return nil
	}
	var rest *discordgo.RESTError
	if errors.As(err, &rest) && rest.Message != nil {
		switch rest.Message.Code {
		case discordgo.ErrCodeUnknownEmoji:
			return biz.ErrUnknownEmoji.WithCause(err)
		case discordgo.ErrCodeUnknownSticker:
			return biz.ErrUnknownSticker.WithCause(err)
		case discordgo.ErrCodeUnknownMember:
			return biz.ErrUnknownMember.WithCause(err)
		}
	}
	return err
}
