package service

import (
	"guildguard/internal/pkg/discord"

	"github.com/google/wire"
)

// ProviderSet is service providers.
var ProviderSet = wire.NewSet(
	NewCommandCooldown,
	NewModerationService,
	NewInteractionService,
	NewEventService,
	NewAdminService,
	discord.NewWaiter,
	wire.Bind(new(GuildImageSource), new(*discord.Client)),
)
