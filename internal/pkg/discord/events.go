package discord

import (
	"encoding/json"
	"fmt"

	"github.com/bwmarrin/discordgo"
)

// EventGuildStickersUpdate has no typed handler in discordgo and arrives as
// a raw *discordgo.Event.
const EventGuildStickersUpdate = "GUILD_STICKERS_UPDATE"

// GuildStickersUpdate is the payload of EventGuildStickersUpdate.
type GuildStickersUpdate struct {
	GuildID  string               `json:"guild_id"`
	Stickers []*discordgo.Sticker `json:"stickers"`
}

// DecodeStickersUpdate reports ok=false for any other event type.
func DecodeStickersUpdate(e *discordgo.Event) (*GuildStickersUpdate, bool, error) {
	if e == nil || e.Type != EventGuildStickersUpdate {
		return nil, false, nil
	}
	var u GuildStickersUpdate
	if err := json.Unmarshal(e.RawData, &u); err != nil {
		return nil, true, fmt.Errorf("failed to decode %s: %w", e.Type, err)
	}
	return &u, true, nil
}
