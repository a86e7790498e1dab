package protection

import (
	"context"
	"fmt"
	"strings"

	"github.com/PancyStudios/PancyGuard/internal/commands/shared"
	"github.com/PancyStudios/PancyGuard/internal/services"
	"github.com/PancyStudios/PancyGuard/pkg/discord"
	"github.com/PancyStudios/PancyGuard/pkg/models"
	"github.com/bwmarrin/discordgo"
)

const optEvent = "evento"

var auditEventLabels = map[models.AuditEventKind]string{
	models.AuditMessageEdit:      "Mensajes editados",
	models.AuditMessageDelete:    "Mensajes eliminados",
	models.AuditMemberJoin:       "Ingresos de miembros",
	models.AuditMemberLeave:      "Salidas de miembros",
	models.AuditMemberBan:        "Baneos",
	models.AuditMemberUnban:      "Desbaneos",
	models.AuditRoleCreate:       "Roles creados",
	models.AuditRoleDelete:       "Roles eliminados",
	models.AuditMemberRoleUpdate: "Cambios de roles de miembros",
	models.AuditNicknameChange:   "Cambios de apodo",
	models.AuditVoiceStateUpdate: "Canales de voz",
}

func auditEventLabel(k models.AuditEventKind) string {
	if l, ok := auditEventLabels[k]; ok {
		return l
	}
	return string(k)
}

func auditEventChoices() []*discordgo.ApplicationCommandOptionChoice {
	choices := make([]*discordgo.ApplicationCommandOptionChoice, len(models.AuditEventKinds))
	for i, k := range models.AuditEventKinds {
		choices[i] = &discordgo.ApplicationCommandOptionChoice{Name: auditEventLabel(k), Value: string(k)}
	}
	return choices
}

func auditLogCommand(name, description string, run discord.CommandRunFunc, opts ...*discordgo.ApplicationCommandOption) *discord.Command {
	return discord.NewCommand(name, description, "auditlog", run).
		WithOptions(opts...).
		WithUserPermissions(adminOnly).
		InGuildOnly()
}

func auditLogSubcommands() []*discord.Command {
	return []*discord.Command{
		auditLogCommand("enable", "Activa el registro de auditoría", auditLogEnableHandler,
			&discordgo.ApplicationCommandOption{
				Type:         discordgo.ApplicationCommandOptionChannel,
				Name:         optChannel,
				Description:  "Canal para el registro de auditoría",
				Required:     true,
				ChannelTypes: []discordgo.ChannelType{discordgo.ChannelTypeGuildText},
			}),
		auditLogCommand("disable", "Desactiva el registro de auditoría", auditLogDisableHandler),
		auditLogCommand("status", "Muestra la configuración del registro de auditoría", auditLogStatusHandler),
		auditLogCommand("toggle", "Activa o desactiva un tipo de evento", auditLogToggleHandler,
			&discordgo.ApplicationCommandOption{
				Type:        discordgo.ApplicationCommandOptionString,
				Name:        optEvent,
				Description: "Evento a alternar",
				Required:    true,
				Choices:     auditEventChoices(),
			}),
	}
}

func auditLogEnableHandler(ctx *discord.CommandContext) error {
	return shared.DeferredEphemeral(ctx, func(reqCtx context.Context, c *services.Container) (*discordgo.MessageEmbed, error) {
		channelID := ctx.GetIDOption(optChannel)
		if _, err := c.AuditLog.Enable(reqCtx, ctx.Interaction.GuildID, channelID); err != nil {
			return nil, err
		}
		return shared.SuccessEmbed("Registro de auditoría activado",
			fmt.Sprintf("Los registros se enviarán a <#%s>.", channelID)), nil
	})
}

func auditLogDisableHandler(ctx *discord.CommandContext) error {
	return shared.DeferredEphemeral(ctx, func(reqCtx context.Context, c *services.Container) (*discordgo.MessageEmbed, error) {
		if _, err := c.AuditLog.Disable(reqCtx, ctx.Interaction.GuildID); err != nil {
			return nil, err
		}
		return shared.SuccessEmbed("Registro de auditoría desactivado", ""), nil
	})
}

func auditLogStatusHandler(ctx *discord.CommandContext) error {
	return shared.DeferredEphemeral(ctx, func(reqCtx context.Context, c *services.Container) (*discordgo.MessageEmbed, error) {
		cfg, err := c.AuditLog.Config(reqCtx, ctx.Interaction.GuildID)
		if err != nil {
			return nil, err
		}
		return auditLogEmbed(cfg), nil
	})
}

func auditLogToggleHandler(ctx *discord.CommandContext) error {
	return shared.DeferredEphemeral(ctx, func(reqCtx context.Context, c *services.Container) (*discordgo.MessageEmbed, error) {
		kind := models.AuditEventKind(ctx.GetStringOption(optEvent))
		_, on, err := c.AuditLog.Toggle(reqCtx, ctx.Interaction.GuildID, kind)
		if err != nil {
			return nil, err
		}
		return shared.SuccessEmbed("Registro de auditoría actualizado",
			fmt.Sprintf("%s: **%s**", auditEventLabel(kind), shared.OnOff(on))), nil
	})
}

func auditLogEmbed(cfg models.AuditLogConfig) *discordgo.MessageEmbed {
	var on, off []string
	for _, k := range models.AuditEventKinds {
		if cfg.Events[k] {
			on = append(on, auditEventLabel(k))
		} else {
			off = append(off, auditEventLabel(k))
		}
	}
	list := func(labels []string) string {
		if len(labels) == 0 {
			return "*Ninguno*"
		}
		return strings.Join(labels, "\n")
	}

	header := "❌ **Desactivado**"
	if cfg.Enabled {
		header = "✅ **Activado** en " + orNone(channelMention(cfg.ChannelID))
	}
	return &discordgo.MessageEmbed{
		Title:       "📜 Registro de auditoría",
		Description: header,
		Color:       stateColor(cfg.Enabled),
		Fields: []*discordgo.MessageEmbedField{
			{Name: "Eventos activos", Value: list(on), Inline: true},
			{Name: "Eventos inactivos", Value: list(off), Inline: true},
		},
	}
}
