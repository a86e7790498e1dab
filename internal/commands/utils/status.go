package utils

import (
	"context"
	"fmt"
	"time"

	"github.com/PancyStudios/PancyGuard/internal/commands/shared"
	"github.com/PancyStudios/PancyGuard/internal/services"
	"github.com/PancyStudios/PancyGuard/pkg/discord"
	"github.com/bwmarrin/discordgo"
)

// createStatusCommand creates the /utils status subcommand
func createStatusCommand() *discord.Command {
	return discord.NewCommand(
		"status",
		"Muestra el estado del bot y de la protección",
		"utils",
		statusHandler,
	)
}

// statusReport is what /utils status shows
type statusReport struct {
	Storage       string
	StorageOnline bool
	Guilds        int
	Latency       time.Duration
	TrackedUsers  int
	AutomodOn     bool
	RaidActive    bool
	InGuild       bool
}

func online(v bool) string {
	if v {
		return "🟢 Online"
	}
	return "🔴 Offline"
}

func statusEmbed(r statusReport) *discordgo.MessageEmbed {
	fields := []*discordgo.MessageEmbedField{
		{Name: "Bot", Value: online(true), Inline: true},
		{Name: "Base de datos", Value: fmt.Sprintf("%s (%s)", online(r.StorageOnline), r.Storage), Inline: true},
		{Name: "Servidores", Value: fmt.Sprintf("%d", r.Guilds), Inline: true},
		{Name: "Latencia", Value: fmt.Sprintf("%dms", r.Latency.Milliseconds()), Inline: true},
		{Name: "Usuarios vigilados", Value: fmt.Sprintf("%d", r.TrackedUsers), Inline: true},
	}
	if r.InGuild {
		raid := "🟢 Sin raid"
		if r.RaidActive {
			raid = "🚨 Raid activo"
		}
		fields = append(fields,
			&discordgo.MessageEmbedField{Name: "AutoMod", Value: shared.OnOff(r.AutomodOn), Inline: true},
			&discordgo.MessageEmbedField{Name: "Raid", Value: raid, Inline: true},
		)
	}
	return &discordgo.MessageEmbed{
		Title:     "📊 Estado del Bot",
		Color:     shared.ColorInfo,
		Fields:    fields,
		Timestamp: time.Now().Format(time.RFC3339),
	}
}

// statusHandler handles the /utils status command
func statusHandler(ctx *discord.CommandContext) error {
	return shared.Deferred(ctx, func(reqCtx context.Context, c *services.Container) (*discordgo.MessageEmbed, error) {
		report := statusReport{
			Storage:       c.Store.Name(),
			StorageOnline: c.Store.Ping(reqCtx) == nil,
			Guilds:        ctx.Client.GuildCount(),
			Latency:       ctx.Client.Latency(),
			TrackedUsers:  c.Automod.Tracker().Size(),
		}

		if guildID := ctx.Interaction.GuildID; guildID != "" {
			report.InGuild = true
			automod, err := c.Policies.Automod(reqCtx, guildID)
			if err != nil {
				return nil, err
			}
			raid, err := c.Raid.Status(reqCtx, guildID)
			if err != nil {
				return nil, err
			}
			report.AutomodOn = automod.Enabled
			report.RaidActive = raid.State.Active
		}
		return statusEmbed(report), nil
	})
}
