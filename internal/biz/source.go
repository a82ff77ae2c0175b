package biz

import (
	"context"
	"fmt"

	"github.com/go-kratos/kratos/v2/errors"
)

const (
	emojiURLFormat   = "https://cdn.discordapp.com/emojis/%s.png"
	stickerURLFormat = "https://media.discordapp.net/stickers/%s.%s"

	// KickReason is the audit log reason for profile picture kicks.
	KickReason = "Blocked image in profile picture"
)

// SourceKind discriminates the content an image came from.
type SourceKind int

const (
	SourceDirect SourceKind = iota
	SourceEmoji
	SourceSticker
	SourceReaction
	SourceIcon
	SourceBanner
)

func (k SourceKind) String() string {
	switch k {
	case SourceDirect:
		return "direct"
	case SourceEmoji:
		return "emoji"
	case SourceSticker:
		return "sticker"
	case SourceReaction:
		return "reaction"
	case SourceIcon:
		return "icon"
	case SourceBanner:
		return "banner"
	default:
		return "unknown"
	}
}

// StickerFormat uses the platform's numeric format types.
type StickerFormat int

const (
	StickerFormatPNG    StickerFormat = 1
	StickerFormatAPNG   StickerFormat = 2
	StickerFormatLottie StickerFormat = 3
	StickerFormatGIF    StickerFormat = 4
)

// StickerRef identifies a sticker.
type StickerRef struct {
	ID     Snowflake
	Name   string
	Format StickerFormat
}

// EmojiRef identifies an emoji. ID is zero for built-in unicode emoji.
type EmojiRef struct {
	ID       Snowflake
	Name     string
	Animated bool
}

// Custom reports whether the emoji was uploaded to a guild.
func (e EmojiRef) Custom() bool {
	return e.ID != 0
}

// Source is an image-bearing piece of content. Which fields are set depends
// on Kind: URL for Direct, Icon and Banner, Emoji for Emoji and Reaction,
// Sticker for Sticker.
type Source struct {
	Kind    SourceKind
	URL     string
	Emoji   EmojiRef
	Sticker StickerRef
}

// DirectSource is an attachment, embed image or avatar at url.
func DirectSource(url string) Source { return Source{Kind: SourceDirect, URL: url} }

// IconSource is a guild icon at url.
func IconSource(url string) Source { return Source{Kind: SourceIcon, URL: url} }

// BannerSource is a guild banner at url.
func BannerSource(url string) Source { return Source{Kind: SourceBanner, URL: url} }

// EmojiSource is a guild custom emoji.
func EmojiSource(id Snowflake) Source {
	return Source{Kind: SourceEmoji, Emoji: EmojiRef{ID: id}}
}

// StickerSource is a guild sticker.
func StickerSource(ref StickerRef) Source {
	return Source{Kind: SourceSticker, Sticker: ref}
}

// ReactionSource is a reaction on a message; unicode emoji never resolve.
func ReactionSource(emoji EmojiRef) Source {
	return Source{Kind: SourceReaction, Emoji: emoji}
}

// Resolve returns the URL the image can be fetched from, or "" when the
// source has no hashable image.
func (s Source) Resolve() string {
	switch s.Kind {
	case SourceDirect, SourceIcon, SourceBanner:
		return s.URL
	case SourceEmoji:
		return emojiURL(s.Emoji.ID)
	case SourceSticker:
		switch s.Sticker.Format {
		case StickerFormatPNG, StickerFormatAPNG:
			return fmt.Sprintf(stickerURLFormat, s.Sticker.ID, "png")
		case StickerFormatGIF:
			return fmt.Sprintf(stickerURLFormat, s.Sticker.ID, "gif")
		default:
			return ""
		}
	case SourceReaction:
		if !s.Emoji.Custom() {
			return ""
		}
		return emojiURL(s.Emoji.ID)
	default:
		return ""
	}
}

func emojiURL(id Snowflake) string {
	if id == 0 {
		return ""
	}
	return fmt.Sprintf(emojiURLFormat, id)
}

// RemediationContext locates the content a source was found in.
// Message is zero when the source is not message-borne; User is set when
// the source is a member's profile picture.
type RemediationContext struct {
	Guild   Snowflake
	Channel Snowflake
	Message Snowflake
	User    Snowflake
}

// Outcome reports what a remediation did.
type Outcome struct {
	// DeleteMessage asks the caller to delete the hosting message.
	DeleteMessage bool
	Kicked        bool
	// Tolerated holds failures that did not stop the remediation.
	Tolerated []error
}

// Remediate removes the source from the guild. Platform failures other
// than "already gone" are returned as ErrRemediation.
func (s Source) Remediate(ctx context.Context, p Platform, rc RemediationContext) (Outcome, error) {
	var out Outcome
	switch s.Kind {
	case SourceDirect:
		out.DeleteMessage = rc.Message != 0
		if rc.User != 0 {
			kicked, tolerated, err := kickBlockedUser(ctx, p, rc.Guild, rc.User)
			out.Kicked = kicked
			out.Tolerated = tolerated
			if err != nil {
				return out, err
			}
		}
	case SourceEmoji:
		if err := p.DeleteEmoji(ctx, rc.Guild, s.Emoji.ID); err != nil {
			if !errors.Is(err, ErrUnknownEmoji) {
				return out, ErrRemediation.WithCause(err)
			}
			out.Tolerated = append(out.Tolerated, err)
		}
	case SourceSticker:
		if err := p.DeleteSticker(ctx, rc.Guild, s.Sticker.ID); err != nil {
			if !errors.Is(err, ErrUnknownSticker) {
				return out, ErrRemediation.WithCause(err)
			}
			out.Tolerated = append(out.Tolerated, err)
		}
	case SourceReaction:
		if rc.Message == 0 {
			return out, nil
		}
		if err := p.DeleteReactionEmoji(ctx, rc.Channel, rc.Message, s.Emoji); err != nil {
			return out, ErrRemediation.WithCause(err)
		}
	case SourceIcon:
		if err := p.ClearGuildIcon(ctx, rc.Guild); err != nil {
			return out, ErrRemediation.WithCause(err)
		}
	case SourceBanner:
		if err := p.ClearGuildBanner(ctx, rc.Guild); err != nil {
			return out, ErrRemediation.WithCause(err)
		}
	default:
		return out, ErrRemediation.WithCause(fmt.Errorf("unknown source kind %d", s.Kind))
	}
	return out, nil
}

// kickBlockedUser notifies the user then removes them. A failed DM or a
// user who already left is tolerated.
func kickBlockedUser(ctx context.Context, p Platform, guild, user Snowflake) (bool, []error, error) {
	var tolerated []error
	name, err := p.GuildName(ctx, guild)
	if err != nil || name == "" {
		name = "the server"
	}
	notice := fmt.Sprintf("%s, you have been kicked from %s for having a blocked image in your profile picture. "+
		"Please change your profile and reapply.", user.Mention(), name)
	if err := p.SendDirectMessage(ctx, user, notice); err != nil {
		tolerated = append(tolerated, fmt.Errorf("direct message to %s: %w", user, err))
	}
	if err := p.KickMember(ctx, guild, user, KickReason); err != nil {
		if errors.Is(err, ErrUnknownMember) {
			return false, append(tolerated, err), nil
		}
		return false, tolerated, ErrRemediation.WithCause(err)
	}
	return true, tolerated, nil
}
