package protection

import (
	"context"

	"github.com/PancyStudios/PancyGuard/internal/commands/shared"
	"github.com/PancyStudios/PancyGuard/internal/services"
	"github.com/PancyStudios/PancyGuard/pkg/discord"
	"github.com/PancyStudios/PancyGuard/pkg/models"
	"github.com/bwmarrin/discordgo"
)

func raidCommand(name, description string, run discord.CommandRunFunc, opts ...*discordgo.ApplicationCommandOption) *discord.Command {
	return discord.NewCommand(name, description, "raid", run).
		WithOptions(opts...).
		WithUserPermissions(adminOnly).
		InGuildOnly()
}

func raidSubcommands() []*discord.Command {
	return []*discord.Command{
		raidCommand("status", "Muestra el estado de la protección contra raids", raidStatusHandler),
		raidCommand("config", "Configura la protección contra raids", raidConfigHandler,
			enabledOption(false),
			intOption(optThreshold, "Ingresos que activan el modo raid", 3, 50),
			intOption(optWindow, "Ventana en segundos", 5, 60),
			actionOption(string(models.EnforceKick), string(models.EnforceBan), string(models.EnforceQuarantine)),
			roleOption("Rol de cuarentena", false),
			intOption(optMinAge, "Cuentas más nuevas que estos días son manejadas durante un raid", 0, 365),
			&discordgo.ApplicationCommandOption{
				Type:         discordgo.ApplicationCommandOptionChannel,
				Name:         optChannel,
				Description:  "Canal para las alertas de raid",
				ChannelTypes: []discordgo.ChannelType{discordgo.ChannelTypeGuildText},
			},
			&discordgo.ApplicationCommandOption{
				Type:        discordgo.ApplicationCommandOptionBoolean,
				Name:        optLockdown,
				Description: "Bloquear el servidor durante un raid",
			},
		),
		raidCommand("end", "Finaliza el modo raid", raidEndHandler),
	}
}

func raidStatusHandler(ctx *discord.CommandContext) error {
	return shared.DeferredEphemeral(ctx, func(reqCtx context.Context, c *services.Container) (*discordgo.MessageEmbed, error) {
		status, err := c.Raid.Status(reqCtx, ctx.Interaction.GuildID)
		if err != nil {
			return nil, err
		}
		return raidEmbed(status, c.Clock.Now()), nil
	})
}

func raidConfigHandler(ctx *discord.CommandContext) error {
	return shared.DeferredEphemeral(ctx, func(reqCtx context.Context, c *services.Container) (*discordgo.MessageEmbed, error) {
		if _, err := c.Policies.UpdateRaid(reqCtx, ctx.Interaction.GuildID, raidPatch(ctx)); err != nil {
			return nil, err
		}
		status, err := c.Raid.Status(reqCtx, ctx.Interaction.GuildID)
		if err != nil {
			return nil, err
		}
		embed := raidEmbed(status, c.Clock.Now())
		embed.Title = "✅ Protección contra raids actualizada"
		embed.Description += quarantineNote(status.Policy.Action, status.Policy.QuarantineRoleID)
		return embed, nil
	})
}

func raidEndHandler(ctx *discord.CommandContext) error {
	return shared.Deferred(ctx, func(reqCtx context.Context, c *services.Container) (*discordgo.MessageEmbed, error) {
		summary, err := c.Raid.End(reqCtx, ctx.Interaction.GuildID)
		if err != nil {
			return nil, err
		}
		return raidSummaryEmbed(summary), nil
	})
}
