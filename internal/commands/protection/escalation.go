package protection

import (
	"context"
	"fmt"

	"github.com/PancyStudios/PancyGuard/internal/commands/shared"
	"github.com/PancyStudios/PancyGuard/internal/services"
	"github.com/PancyStudios/PancyGuard/pkg/discord"
	"github.com/PancyStudios/PancyGuard/pkg/models"
	"github.com/bwmarrin/discordgo"
)

func escalationCommand(name, description string, run discord.CommandRunFunc, opts ...*discordgo.ApplicationCommandOption) *discord.Command {
	return discord.NewCommand(name, description, "escalation", run).
		WithOptions(opts...).
		WithUserPermissions(adminOnly).
		InGuildOnly()
}

func warnsOption() *discordgo.ApplicationCommandOption {
	opt := intOption(optWarns, "Número de advertencias", 1, 50)
	opt.Required = true
	return opt
}

func escalationSubcommands() []*discord.Command {
	action := actionOption(string(models.EnforceTimeout), string(models.EnforceKick), string(models.EnforceBan))
	action.Required = true

	return []*discord.Command{
		escalationCommand("status", "Muestra las reglas de escalada", escalationStatusHandler),
		escalationCommand("toggle", "Activa o desactiva la escalada automática", escalationToggleHandler, enabledOption(true)),
		escalationCommand("set", "Crea o reemplaza una regla de escalada", escalationSetHandler,
			warnsOption(),
			action,
			stringOption(optDuration, "Duración del silencio (12h, 3d). Por defecto 1h", false),
		),
		escalationCommand("remove", "Elimina una regla de escalada", escalationRemoveHandler, warnsOption()),
		escalationCommand("reset", "Restaura las reglas por defecto", escalationResetHandler),
	}
}

func escalationStatusHandler(ctx *discord.CommandContext) error {
	return shared.DeferredEphemeral(ctx, func(reqCtx context.Context, c *services.Container) (*discordgo.MessageEmbed, error) {
		p, err := c.Policies.Escalation(reqCtx, ctx.Interaction.GuildID)
		if err != nil {
			return nil, err
		}
		return escalationEmbed(p), nil
	})
}

func escalationToggleHandler(ctx *discord.CommandContext) error {
	return shared.DeferredEphemeral(ctx, func(reqCtx context.Context, c *services.Container) (*discordgo.MessageEmbed, error) {
		p, err := c.Policies.SetEscalationEnabled(reqCtx, ctx.Interaction.GuildID, ctx.GetBoolOption(optEnabled))
		if err != nil {
			return nil, err
		}
		return escalationEmbed(p), nil
	})
}

func escalationSetHandler(ctx *discord.CommandContext) error {
	return shared.DeferredEphemeral(ctx, func(reqCtx context.Context, c *services.Container) (*discordgo.MessageEmbed, error) {
		rule, err := escalationRule(ctx)
		if err != nil {
			return nil, err
		}
		p, err := c.Policies.SetEscalationRule(reqCtx, ctx.Interaction.GuildID, rule)
		if err != nil {
			return nil, err
		}
		embed := escalationEmbed(p)
		embed.Title = fmt.Sprintf("✅ Regla para %d advertencias guardada", rule.WarnThreshold)
		return embed, nil
	})
}

func escalationRemoveHandler(ctx *discord.CommandContext) error {
	return shared.DeferredEphemeral(ctx, func(reqCtx context.Context, c *services.Container) (*discordgo.MessageEmbed, error) {
		warns := int(ctx.GetIntOption(optWarns))
		p, err := c.Policies.RemoveEscalationRule(reqCtx, ctx.Interaction.GuildID, warns)
		if err != nil {
			return nil, err
		}
		embed := escalationEmbed(p)
		embed.Title = fmt.Sprintf("✅ Regla para %d advertencias eliminada", warns)
		return embed, nil
	})
}

func escalationResetHandler(ctx *discord.CommandContext) error {
	return shared.DeferredEphemeral(ctx, func(reqCtx context.Context, c *services.Container) (*discordgo.MessageEmbed, error) {
		p, err := c.Policies.ResetEscalationRules(reqCtx, ctx.Interaction.GuildID)
		if err != nil {
			return nil, err
		}
		embed := escalationEmbed(p)
		embed.Title = "✅ Reglas de escalada restauradas"
		return embed, nil
	})
}
