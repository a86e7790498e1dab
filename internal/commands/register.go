// Package commands registers every command category with the Discord client.
// Commands are organized in subdirectories by category.
package commands

import (
	"github.com/PancyStudios/PancyGuard/internal/commands/dev"
	"github.com/PancyStudios/PancyGuard/internal/commands/mod"
	"github.com/PancyStudios/PancyGuard/internal/commands/protection"
	"github.com/PancyStudios/PancyGuard/internal/commands/utils"
	"github.com/PancyStudios/PancyGuard/pkg/discord"
)

// RegisterAll registers all commands with the Discord client
func RegisterAll(client *discord.ExtendedClient) {
	// /utils ping, status, stats, help
	utils.RegisterUtilsCommands(client)

	// /mod warn, timeout, untimeout, kick, ban, unban, history, case, recent
	mod.RegisterModCommands(client)

	// /automod, /escalation, /raid
	protection.RegisterProtectionCommands(client)

	// /dev (development guild only)
	dev.Register(client)
}
