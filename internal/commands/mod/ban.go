// Package mod - /mod ban and /mod unban commands
package mod

import (
	"context"
	"fmt"
	"strings"

	"github.com/PancyStudios/PancyGuard/internal/commands/shared"
	"github.com/PancyStudios/PancyGuard/internal/enforcement"
	"github.com/PancyStudios/PancyGuard/internal/services"
	"github.com/PancyStudios/PancyGuard/pkg/discord"
	"github.com/bwmarrin/discordgo"
)

// createBanCommand creates the /mod ban subcommand
func createBanCommand() *discord.Command {
	return discord.NewCommand(
		"ban",
		"Banea a un usuario del servidor",
		"mod",
		banHandler,
	).WithOptions(
		userOption("Usuario a banear"),
		reasonOption("Razón del baneo", false),
		&discordgo.ApplicationCommandOption{
			Type:        discordgo.ApplicationCommandOptionInteger,
			Name:        "dias",
			Description: "Días de mensajes a eliminar (0-7)",
			MinValue:    shared.Float(0),
			MaxValue:    7,
		},
	).WithUserPermissions(discordgo.PermissionBanMembers).InGuildOnly()
}

// banHandler handles the /mod ban command
func banHandler(ctx *discord.CommandContext) error {
	return shared.Deferred(ctx, func(reqCtx context.Context, c *services.Container) (*discordgo.MessageEmbed, error) {
		user, err := requireUser(ctx)
		if err != nil {
			return nil, err
		}
		// Users outside the guild can still be banned
		target, err := resolveTarget(reqCtx, ctx, c, user, "banear", false)
		if err != nil {
			return nil, err
		}

		reason := shared.Reason(ctx)
		out, err := c.Executor.Apply(reqCtx, target, shared.Moderator(ctx), enforcement.Action{
			Kind:              enforcement.KindBan,
			Reason:            reason,
			DeleteMessageDays: int(ctx.GetIntOption("dias")),
			Notice:            fmt.Sprintf("Has sido baneado de **%s**.\nRazón: %s", ctx.GuildName(), reason),
		})
		if err != nil {
			return nil, err
		}
		return shared.SuccessEmbed(
			fmt.Sprintf("Usuario baneado | Caso #%d", out.Case.ID),
			fmt.Sprintf("**%s** ha sido baneado.\n**Razón:** %s%s", target.Tag, reason, shared.NotifyNote(out.Notify)),
		), nil
	})
}

// createUnbanCommand creates the /mod unban subcommand
func createUnbanCommand() *discord.Command {
	return discord.NewCommand(
		"unban",
		"Retira el baneo de un usuario por su ID",
		"mod",
		unbanHandler,
	).WithOptions(
		&discordgo.ApplicationCommandOption{
			Type:        discordgo.ApplicationCommandOptionString,
			Name:        "id",
			Description: "ID del usuario baneado",
			Required:    true,
		},
		reasonOption("Razón", false),
	).WithUserPermissions(discordgo.PermissionBanMembers).InGuildOnly()
}

func unbanHandler(ctx *discord.CommandContext) error {
	return shared.Deferred(ctx, func(reqCtx context.Context, c *services.Container) (*discordgo.MessageEmbed, error) {
		userID, err := parseSnowflake(ctx.GetStringOption("id"))
		if err != nil {
			return nil, err
		}

		tag := userID
		if u, err := ctx.Session.User(userID, discordgo.WithContext(reqCtx)); err == nil {
			tag = u.String()
		}
		target := enforcement.Target{GuildID: ctx.Interaction.GuildID, UserID: userID, Tag: tag}

		reason := shared.Reason(ctx)
		out, err := c.Executor.Apply(reqCtx, target, shared.Moderator(ctx), enforcement.Action{
			Kind:   enforcement.KindUnban,
			Reason: reason,
		})
		if err != nil {
			return nil, err
		}
		return shared.SuccessEmbed(
			fmt.Sprintf("Baneo retirado | Caso #%d", out.Case.ID),
			fmt.Sprintf("**%s** ya puede volver a unirse.\n**Razón:** %s", tag, reason),
		), nil
	})
}

// parseSnowflake accepts a raw ID or a user mention
func parseSnowflake(input string) (string, error) {
	id := strings.TrimSpace(input)
	id = strings.TrimPrefix(strings.TrimSuffix(id, ">"), "<@")
	id = strings.TrimPrefix(id, "!")
	if len(id) < 17 || len(id) > 20 {
		return "", shared.Refuse("`%s` no es un ID de usuario válido.", input)
	}
	for _, r := range id {
		if r < '0' || r > '9' {
			return "", shared.Refuse("`%s` no es un ID de usuario válido.", input)
		}
	}
	return id, nil
}
