package discord

import (
	"errors"
	"time"

	"github.com/bwmarrin/discordgo"
)

var (
	errGuildOnly         = errors.New("command used outside a guild")
	errMissingPermission = errors.New("missing user permissions")
)

// HasPermissions reports whether granted covers every bit of required. Administrators pass always.
func HasPermissions(granted, required int64) bool {
	if granted&discordgo.PermissionAdministrator != 0 {
		return true
	}
	return granted&required == required
}

// checkAccess rejects commands used outside guilds or by members lacking permissions
func (c *ExtendedClient) checkAccess(ctx *CommandContext, cmd *Command) error {
	if cmd.GuildOnly && ctx.Interaction.GuildID == "" {
		ctx.ReplyEphemeral("❌ Este comando solo puede usarse en un servidor.")
		return errGuildOnly
	}

	if cmd.UserPermissions == 0 {
		return nil
	}
	member := ctx.Member()
	if member == nil || !HasPermissions(member.Permissions, cmd.UserPermissions) {
		ctx.ReplyEphemeralEmbed(&discordgo.MessageEmbed{
			Title:       "🚫 Acceso Denegado",
			Description: "No tienes los permisos necesarios para usar este comando.",
			Color:       0xFF0000,
			Timestamp:   time.Now().Format(time.RFC3339),
		})
		return errMissingPermission
	}
	return nil
}
