// Package mod provides moderation commands organized as subcommands under /mod.
// Each command is in its own file.
package mod

import (
	"github.com/PancyStudios/PancyGuard/pkg/discord"
)

// RegisterModCommands registers all moderation commands as /mod subcommands
func RegisterModCommands(client *discord.ExtendedClient) {
	modGroup := client.CommandHandler.BuildCommandGroup(
		"mod",
		"Comandos de moderación",
		createWarnCommand(),
		createTimeoutCommand(),
		createUntimeoutCommand(),
		createKickCommand(),
		createBanCommand(),
		createUnbanCommand(),
		createHistoryCommand(),
		createCaseCommand(),
		createRecentCommand(),
	)

	client.CommandHandler.AddGlobalCommand(modGroup)
}
