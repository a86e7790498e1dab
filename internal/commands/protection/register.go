// Package protection provides the /automod, /escalation, /raid and /auditlog configuration commands
package protection

import (
	"github.com/PancyStudios/PancyGuard/pkg/discord"
)

// RegisterProtectionCommands registers the configuration command groups
func RegisterProtectionCommands(client *discord.ExtendedClient) {
	handler := client.CommandHandler
	handler.AddGlobalCommand(handler.BuildCommandGroup("automod", "Configuración de la automoderación", automodSubcommands()...))
	handler.AddGlobalCommand(handler.BuildCommandGroup("escalation", "Escalada automática de advertencias", escalationSubcommands()...))
	handler.AddGlobalCommand(handler.BuildCommandGroup("raid", "Protección contra raids", raidSubcommands()...))
	handler.AddGlobalCommand(handler.BuildCommandGroup("auditlog", "Registro de auditoría del servidor", auditLogSubcommands()...))
}
