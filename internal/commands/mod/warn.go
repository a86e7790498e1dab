// Package mod - /mod warn command
package mod

import (
	"context"
	"fmt"

	"github.com/PancyStudios/PancyGuard/internal/commands/shared"
	"github.com/PancyStudios/PancyGuard/internal/escalation"
	"github.com/PancyStudios/PancyGuard/internal/services"
	"github.com/PancyStudios/PancyGuard/pkg/discord"
	"github.com/PancyStudios/PancyGuard/pkg/models"
	"github.com/bwmarrin/discordgo"
)

// createWarnCommand creates the /mod warn subcommand
func createWarnCommand() *discord.Command {
	return discord.NewCommand(
		"warn",
		"Advierte a un usuario",
		"mod",
		warnHandler,
	).WithOptions(
		userOption("Usuario a advertir"),
		reasonOption("Razón de la advertencia", true),
	).WithUserPermissions(discordgo.PermissionModerateMembers).InGuildOnly()
}

// warnHandler handles the /mod warn command
func warnHandler(ctx *discord.CommandContext) error {
	return shared.Deferred(ctx, func(reqCtx context.Context, c *services.Container) (*discordgo.MessageEmbed, error) {
		user, err := requireUser(ctx)
		if err != nil {
			return nil, err
		}
		target, err := resolveTarget(reqCtx, ctx, c, user, "advertir", false)
		if err != nil {
			return nil, err
		}

		res, err := c.Escalation.Warn(reqCtx, escalation.WarnRequest{
			Target:    target,
			GuildName: ctx.GuildName(),
			Moderator: shared.Moderator(ctx),
			Reason:    shared.Reason(ctx),
		})
		if err != nil {
			return nil, err
		}
		return warnEmbed(target.Tag, res), nil
	})
}

func warnEmbed(tag string, res escalation.WarnResult) *discordgo.MessageEmbed {
	embed := &discordgo.MessageEmbed{
		Title: fmt.Sprintf("⚠️ Advertencia | Caso #%d", res.Case.ID),
		Description: fmt.Sprintf("**%s** ha sido advertido.\n**Razón:** %s\n**Advertencias totales:** %d%s",
			tag, res.Case.Reason, res.WarnCount, shared.NotifyNote(res.Notify)),
		Color: shared.ColorWarning,
	}
	if res.Escalation != nil {
		embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{
			Name:  "Escalada automática",
			Value: escalationLine(res.Escalation),
		})
	}
	return embed
}

func escalationLine(esc *escalation.Escalated) string {
	if esc.Err != nil {
		return fmt.Sprintf("❌ No se pudo aplicar **%s**: %s", esc.Rule.Action, shared.ErrorMessage(esc.Err))
	}
	line := fmt.Sprintf("Se aplicó **%s** al alcanzar %d advertencias", esc.Rule.Action, esc.Rule.WarnThreshold)
	if esc.Rule.Action == models.EnforceTimeout {
		line += fmt.Sprintf(" (%s)", shared.FormatMs(escalation.RuleTimeout(esc.Rule).Milliseconds()))
	}
	if esc.Case != nil {
		line += fmt.Sprintf(" | Caso #%d", esc.Case.ID)
	}
	return line
}
