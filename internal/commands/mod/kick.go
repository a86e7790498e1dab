// Package mod - /mod kick command
package mod

import (
	"context"
	"fmt"

	"github.com/PancyStudios/PancyGuard/internal/commands/shared"
	"github.com/PancyStudios/PancyGuard/internal/enforcement"
	"github.com/PancyStudios/PancyGuard/internal/services"
	"github.com/PancyStudios/PancyGuard/pkg/discord"
	"github.com/bwmarrin/discordgo"
)

// createKickCommand creates the /mod kick subcommand
func createKickCommand() *discord.Command {
	return discord.NewCommand(
		"kick",
		"Expulsa a un usuario del servidor",
		"mod",
		kickHandler,
	).WithOptions(
		userOption("Usuario a expulsar"),
		reasonOption("Razón de la expulsión", false),
	).WithUserPermissions(discordgo.PermissionKickMembers).InGuildOnly()
}

// kickHandler handles the /mod kick command
func kickHandler(ctx *discord.CommandContext) error {
	return shared.Deferred(ctx, func(reqCtx context.Context, c *services.Container) (*discordgo.MessageEmbed, error) {
		user, err := requireUser(ctx)
		if err != nil {
			return nil, err
		}
		target, err := resolveTarget(reqCtx, ctx, c, user, "expulsar", true)
		if err != nil {
			return nil, err
		}

		reason := shared.Reason(ctx)
		out, err := c.Executor.Apply(reqCtx, target, shared.Moderator(ctx), enforcement.Action{
			Kind:   enforcement.KindKick,
			Reason: reason,
			Notice: fmt.Sprintf("Has sido expulsado de **%s**.\nRazón: %s", ctx.GuildName(), reason),
		})
		if err != nil {
			return nil, err
		}
		return shared.SuccessEmbed(
			fmt.Sprintf("Usuario expulsado | Caso #%d", out.Case.ID),
			fmt.Sprintf("**%s** ha sido expulsado.\n**Razón:** %s%s", target.Tag, reason, shared.NotifyNote(out.Notify)),
		), nil
	})
}
