package biz

import (
	"context"
)

// Platform is the chat platform capability surface used for remediation.
//
// Implementations translate the platform's "already gone" conditions into
// ErrUnknownEmoji, ErrUnknownSticker and ErrUnknownMember.
type Platform interface {
	SendMessage(ctx context.Context, channel Snowflake, content string) error
	DeleteMessage(ctx context.Context, channel, message Snowflake) error
	// BulkDeleteMessages deletes between 2 and 100 messages in one call.
	BulkDeleteMessages(ctx context.Context, channel Snowflake, messages []Snowflake) error
	// MessagesAfter returns up to limit message IDs posted after the given message.
	MessagesAfter(ctx context.Context, channel, after Snowflake, limit int) ([]Snowflake, error)

	DeleteEmoji(ctx context.Context, guild, emoji Snowflake) error
	DeleteSticker(ctx context.Context, guild, sticker Snowflake) error
	// DeleteReactionEmoji removes every reaction of emoji from a message.
	DeleteReactionEmoji(ctx context.Context, channel, message Snowflake, emoji EmojiRef) error

	ClearGuildIcon(ctx context.Context, guild Snowflake) error
	ClearGuildBanner(ctx context.Context, guild Snowflake) error

	SendDirectMessage(ctx context.Context, user Snowflake, content string) error
	KickMember(ctx context.Context, guild, user Snowflake, reason string) error
	GuildName(ctx context.Context, guild Snowflake) (string, error)
}
