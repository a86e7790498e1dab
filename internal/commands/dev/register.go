// Package dev provides maintenance commands registered only in the development guild
package dev

import (
	"github.com/PancyStudios/PancyGuard/pkg/discord"
)

// Register registers the /dev command group as a dev-only command
func Register(client *discord.ExtendedClient) {
	group := client.CommandHandler.BuildCommandGroup(
		"dev",
		"Comandos de mantenimiento",
		createSyncCommand(),
		createSweepCommand(),
		createRaidsCommand(),
	)

	client.CommandHandler.AddDevCommand(group)
}
