// Package mod - /mod timeout and /mod untimeout commands
package mod

import (
	"context"
	"fmt"

	"github.com/PancyStudios/PancyGuard/internal/commands/shared"
	"github.com/PancyStudios/PancyGuard/internal/durations"
	"github.com/PancyStudios/PancyGuard/internal/enforcement"
	"github.com/PancyStudios/PancyGuard/internal/services"
	"github.com/PancyStudios/PancyGuard/pkg/discord"
	"github.com/bwmarrin/discordgo"
)

// createTimeoutCommand creates the /mod timeout subcommand
func createTimeoutCommand() *discord.Command {
	return discord.NewCommand(
		"timeout",
		"Silencia temporalmente a un usuario",
		"mod",
		timeoutHandler,
	).WithOptions(
		userOption("Usuario a silenciar"),
		&discordgo.ApplicationCommandOption{
			Type:        discordgo.ApplicationCommandOptionString,
			Name:        "duracion",
			Description: "Duración (10s, 5m, 1h, 1d). Máximo 28 días",
			Required:    true,
		},
		reasonOption("Razón del silencio", false),
	).WithUserPermissions(discordgo.PermissionModerateMembers).InGuildOnly()
}

func timeoutHandler(ctx *discord.CommandContext) error {
	return shared.Deferred(ctx, func(reqCtx context.Context, c *services.Container) (*discordgo.MessageEmbed, error) {
		d, err := durations.Parse(ctx.GetStringOption("duracion"))
		if err != nil {
			return nil, err
		}
		user, err := requireUser(ctx)
		if err != nil {
			return nil, err
		}
		target, err := resolveTarget(reqCtx, ctx, c, user, "silenciar", true)
		if err != nil {
			return nil, err
		}

		reason := shared.Reason(ctx)
		out, err := c.Executor.Apply(reqCtx, target, shared.Moderator(ctx), enforcement.Action{
			Kind:     enforcement.KindTimeout,
			Reason:   reason,
			Duration: d,
			Notice: fmt.Sprintf("Has sido silenciado en **%s** durante %s.\nRazón: %s",
				ctx.GuildName(), durations.Format(d), reason),
		})
		if err != nil {
			return nil, err
		}
		return shared.SuccessEmbed(
			fmt.Sprintf("Usuario silenciado | Caso #%d", out.Case.ID),
			fmt.Sprintf("**%s** ha sido silenciado durante %s.\n**Razón:** %s%s",
				target.Tag, durations.Format(d), reason, shared.NotifyNote(out.Notify)),
		), nil
	})
}

// createUntimeoutCommand creates the /mod untimeout subcommand
func createUntimeoutCommand() *discord.Command {
	return discord.NewCommand(
		"untimeout",
		"Retira el silencio de un usuario",
		"mod",
		untimeoutHandler,
	).WithOptions(
		userOption("Usuario a desilenciar"),
		reasonOption("Razón", false),
	).WithUserPermissions(discordgo.PermissionModerateMembers).InGuildOnly()
}

func untimeoutHandler(ctx *discord.CommandContext) error {
	return shared.Deferred(ctx, func(reqCtx context.Context, c *services.Container) (*discordgo.MessageEmbed, error) {
		user, err := requireUser(ctx)
		if err != nil {
			return nil, err
		}
		target, err := resolveTarget(reqCtx, ctx, c, user, "desilenciar", true)
		if err != nil {
			return nil, err
		}

		reason := shared.Reason(ctx)
		out, err := c.Executor.Apply(reqCtx, target, shared.Moderator(ctx), enforcement.Action{
			Kind:   enforcement.KindUntimeout,
			Reason: reason,
			Notice: fmt.Sprintf("Tu silencio en **%s** ha sido retirado.", ctx.GuildName()),
		})
		if err != nil {
			return nil, err
		}
		return shared.SuccessEmbed(
			fmt.Sprintf("Silencio retirado | Caso #%d", out.Case.ID),
			fmt.Sprintf("**%s** ya puede hablar de nuevo.\n**Razón:** %s", target.Tag, reason),
		), nil
	})
}
