package biz

import (
	"regexp"
	"strconv"
)

var customEmojiPattern = regexp.MustCompile(`<(a?):([\w_]+):(\d+)>`)

// Embed holds the image URLs of a rich embed. Empty fields are absent.
type Embed struct {
	AuthorIconURL string
	ImageURL      string
	FooterIconURL string
	ThumbnailURL  string
}

// Message is the part of a chat message the blocklist inspects. For update
// events only the fields present in the partial payload are set.
type Message struct {
	ID          Snowflake
	Guild       Snowflake
	Channel     Snowflake
	Author      Snowflake
	Content     string
	Attachments []string
	Embeds      []Embed
	Stickers    []StickerRef
	Reactions   []EmojiRef
}

// Sources returns the images passively checked for a message: custom emoji
// in the text, then attachments, then embed images.
func (m *Message) Sources() []Source {
	var sources []Source
	for _, match := range customEmojiPattern.FindAllStringSubmatch(m.Content, -1) {
		id, err := strconv.ParseUint(match[3], 10, 64)
		if err != nil {
			continue
		}
		sources = append(sources, EmojiSource(Snowflake(id)))
	}
	for _, url := range m.Attachments {
		sources = append(sources, DirectSource(url))
	}
	for _, e := range m.Embeds {
		for _, url := range []string{e.AuthorIconURL, e.ImageURL, e.FooterIconURL, e.ThumbnailURL} {
			if url != "" {
				sources = append(sources, DirectSource(url))
			}
		}
	}
	return sources
}

// BlockCandidates returns every image a moderator may block from a message:
// its passive sources, its stickers and its custom emoji reactions.
func (m *Message) BlockCandidates() []Source {
	sources := m.Sources()
	for _, s := range m.Stickers {
		sources = append(sources, StickerSource(s))
	}
	for _, r := range m.Reactions {
		if r.Custom() {
			sources = append(sources, ReactionSource(r))
		}
	}
	return sources
}

// Member is a guild member whose profile picture is checked.
type Member struct {
	Guild     Snowflake
	User      Snowflake
	AvatarURL string
}

// Reaction is a reaction added to a message in a guild.
type Reaction struct {
	Guild   Snowflake
	Channel Snowflake
	Message Snowflake
	User    Snowflake
	Emoji   EmojiRef
}

// DeletedNotice is posted in place of a message removed for a blocked image.
func DeletedNotice(author Snowflake) string {
	return "Deleted message from " + author.Mention() + " (reason: blocked image)"
}
