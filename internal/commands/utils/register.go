package utils

import (
	"github.com/PancyStudios/PancyGuard/pkg/discord"
)

// RegisterUtilsCommands registers the /utils subcommands
func RegisterUtilsCommands(client *discord.ExtendedClient) {
	group := client.CommandHandler.BuildCommandGroup(
		"utils",
		"Comandos de utilidad",
		createPingCommand(),
		createStatusCommand(),
		createStatsCommand(),
		createHelpCommand(),
	)

	client.CommandHandler.AddGlobalCommand(group)
}
