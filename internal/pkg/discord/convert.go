package discord

import (
	"strconv"

	"guildguard/internal/biz"

	"github.com/bwmarrin/discordgo"
)

func snowflake(id string) biz.Snowflake {
	v, err := strconv.ParseUint(id, 10, 64)
	if err != nil {
		return 0
	}
	return biz.Snowflake(v)
}

// APIName renders an emoji the way reaction endpoints expect it.
func APIName(e biz.EmojiRef) string {
	if !e.Custom() {
		return e.Name
	}
	return e.Name + ":" + e.ID.String()
}

func toEmojiRef(e *discordgo.Emoji) biz.EmojiRef {
	if e == nil {
		return biz.EmojiRef{}
	}
	return biz.EmojiRef{ID: snowflake(e.ID), Name: e.Name, Animated: e.Animated}
}

// ToMessage converts a gateway or REST message. Fields missing from a
// partial update payload stay empty.
func ToMessage(m *discordgo.Message) *biz.Message {
	if m == nil {
		return nil
	}
	out := &biz.Message{
		ID:      snowflake(m.ID),
		Guild:   snowflake(m.GuildID),
		Channel: snowflake(m.ChannelID),
		Content: m.Content,
	}
	if m.Author != nil {
		out.Author = snowflake(m.Author.ID)
	}
	for _, a := range m.Attachments {
		if a != nil && a.URL != "" {
			out.Attachments = append(out.Attachments, a.URL)
		}
	}
	for _, e := range m.Embeds {
		if e == nil {
			continue
		}
		var embed biz.Embed
		if e.Author != nil {
			embed.AuthorIconURL = e.Author.IconURL
		}
		if e.Image != nil {
			embed.ImageURL = e.Image.URL
		}
		if e.Footer != nil {
			embed.FooterIconURL = e.Footer.IconURL
		}
		if e.Thumbnail != nil {
			embed.ThumbnailURL = e.Thumbnail.URL
		}
		out.Embeds = append(out.Embeds, embed)
	}
	for _, s := range m.StickerItems {
		if s != nil {
			out.Stickers = append(out.Stickers, biz.StickerRef{
				ID:     snowflake(s.ID),
				Name:   s.Name,
				Format: biz.StickerFormat(s.FormatType),
			})
		}
	}
	for _, r := range m.Reactions {
		if r != nil && r.Emoji != nil {
			out.Reactions = append(out.Reactions, toEmojiRef(r.Emoji))
		}
	}
	return out
}

// ToStickers converts a guild's sticker list.
func ToStickers(stickers []*discordgo.Sticker) []biz.StickerRef {
	out := make([]biz.StickerRef, 0, len(stickers))
	for _, s := range stickers {
		if s != nil {
			out = append(out, biz.StickerRef{
				ID:     snowflake(s.ID),
				Name:   s.Name,
				Format: biz.StickerFormat(s.FormatType),
			})
		}
	}
	return out
}

// ToEmojiIDs converts a guild's emoji list.
func ToEmojiIDs(emojis []*discordgo.Emoji) []biz.Snowflake {
	out := make([]biz.Snowflake, 0, len(emojis))
	for _, e := range emojis {
		if e != nil && e.ID != "" {
			out = append(out, snowflake(e.ID))
		}
	}
	return out
}

// ToMember converts a guild member, using the guild avatar when one is set.
func ToMember(m *discordgo.Member) *biz.Member {
	if m == nil || m.User == nil {
		return nil
	}
	return &biz.Member{
		Guild:     snowflake(m.GuildID),
		User:      snowflake(m.User.ID),
		AvatarURL: m.AvatarURL(""),
	}
}

// ToReaction converts a reaction-add payload.
func ToReaction(r *discordgo.MessageReaction) *biz.Reaction {
	if r == nil {
		return nil
	}
	return &biz.Reaction{
		Guild:   snowflake(r.GuildID),
		Channel: snowflake(r.ChannelID),
		Message: snowflake(r.MessageID),
		User:    snowflake(r.UserID),
		Emoji:   toEmojiRef(&r.Emoji),
	}
}

// GuildIconURL returns "" when the guild has no icon.
func GuildIconURL(g *discordgo.Guild) string {
	if g == nil || g.Icon == "" {
		return ""
	}
	return g.IconURL("")
}

// GuildBannerURL returns "" when the guild has no banner.
func GuildBannerURL(g *discordgo.Guild) string {
	if g == nil || g.Banner == "" {
		return ""
	}
	return g.BannerURL("")
}

// UserAvatarURL returns the global avatar of a user, or the default one.
func UserAvatarURL(u *discordgo.User) string {
	if u == nil {
		return ""
	}
	return u.AvatarURL("")
}
