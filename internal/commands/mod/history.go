// Package mod - /mod history, /mod case and /mod recent commands
package mod

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/PancyStudios/PancyGuard/internal/commands/shared"
	"github.com/PancyStudios/PancyGuard/internal/durations"
	"github.com/PancyStudios/PancyGuard/internal/ledger"
	"github.com/PancyStudios/PancyGuard/internal/services"
	"github.com/PancyStudios/PancyGuard/pkg/discord"
	"github.com/PancyStudios/PancyGuard/pkg/models"
	"github.com/bwmarrin/discordgo"
)

const (
	historyLimit    = 10
	reasonPreview   = 50
	cleanColor      = 0x28a745
	historyDateForm = "02/01/2006"
)

var countLabels = map[models.ActionKind][2]string{
	models.ActionWarn:      {"advertencia", "advertencias"},
	models.ActionTimeout:   {"silencio", "silencios"},
	models.ActionKick:      {"expulsión", "expulsiones"},
	models.ActionBan:       {"baneo", "baneos"},
	models.ActionUntimeout: {"silencio retirado", "silencios retirados"},
	models.ActionUnban:     {"desbaneo", "desbaneos"},
}

// createHistoryCommand creates the /mod history subcommand
func createHistoryCommand() *discord.Command {
	return discord.NewCommand(
		"history",
		"Muestra el historial de moderación de un usuario",
		"mod",
		historyHandler,
	).WithOptions(
		userOption("Usuario a consultar"),
	).WithUserPermissions(discordgo.PermissionModerateMembers).InGuildOnly()
}

func historyHandler(ctx *discord.CommandContext) error {
	return shared.Deferred(ctx, func(reqCtx context.Context, c *services.Container) (*discordgo.MessageEmbed, error) {
		user, err := requireUser(ctx)
		if err != nil {
			return nil, err
		}
		cases, err := c.Ledger.UserCases(reqCtx, ctx.Interaction.GuildID, user.ID)
		if err != nil {
			return nil, err
		}
		embed := historyEmbed(user.String(), user.ID, cases)
		embed.Thumbnail = &discordgo.MessageEmbedThumbnail{URL: user.AvatarURL("")}
		return embed, nil
	})
}

// historySummary lists the non-zero counts in display order
func historySummary(counts map[models.ActionKind]int) string {
	var parts []string
	for _, kind := range models.ActionKinds {
		n := counts[kind]
		if n == 0 {
			continue
		}
		label := countLabels[kind][0]
		if n > 1 {
			label = countLabels[kind][1]
		}
		parts = append(parts, fmt.Sprintf("%d %s", n, label))
	}
	return strings.Join(parts, ", ")
}

// caseLine renders one case of a list
func caseLine(c models.ModerationCase) string {
	duration := ""
	if c.DurationSeconds > 0 {
		duration = fmt.Sprintf(" (%s)", durations.Format(time.Duration(c.DurationSeconds)*time.Second))
	}
	return fmt.Sprintf("%s **#%d** %s%s - %s\n└ %s",
		discord.ActionEmoji(c.Action), c.ID, strings.ToUpper(string(c.Action)), duration,
		c.CreatedAt.Format(historyDateForm), shared.Truncate(c.Reason, reasonPreview))
}

func historyEmbed(tag, userID string, cases []models.ModerationCase) *discordgo.MessageEmbed {
	embed := &discordgo.MessageEmbed{
		Title:  "Historial de moderación: " + tag,
		Color:  cleanColor,
		Footer: &discordgo.MessageEmbedFooter{Text: "ID de usuario: " + userID},
	}
	if len(cases) == 0 {
		embed.Description = "**Sin historial de moderación.** Este usuario tiene un expediente limpio."
		return embed
	}

	counts := make(map[models.ActionKind]int)
	for _, c := range cases {
		counts[c.Action]++
	}
	embed.Color = shared.ColorWarning
	embed.Description = "**Resumen:** " + historySummary(counts)

	recent := ledger.Newest(cases, historyLimit)
	lines := make([]string, len(recent))
	for i, c := range recent {
		lines[i] = caseLine(c)
	}
	embed.Fields = []*discordgo.MessageEmbedField{{
		Name:  fmt.Sprintf("Casos recientes (%d en total)", len(cases)),
		Value: strings.Join(lines, "\n\n"),
	}}
	return embed
}

// createCaseCommand creates the /mod case subcommand
func createCaseCommand() *discord.Command {
	return discord.NewCommand(
		"case",
		"Muestra un caso de moderación",
		"mod",
		caseHandler,
	).WithOptions(
		&discordgo.ApplicationCommandOption{
			Type:        discordgo.ApplicationCommandOptionInteger,
			Name:        "id",
			Description: "Número del caso",
			Required:    true,
			MinValue:    shared.Float(1),
		},
	).WithUserPermissions(discordgo.PermissionModerateMembers).InGuildOnly()
}

func caseHandler(ctx *discord.CommandContext) error {
	return shared.Deferred(ctx, func(reqCtx context.Context, c *services.Container) (*discordgo.MessageEmbed, error) {
		mc, err := c.Ledger.Case(reqCtx, ctx.Interaction.GuildID, int(ctx.GetIntOption("id")))
		if err != nil {
			return nil, err
		}
		return discord.CaseEmbed(mc), nil
	})
}

// createRecentCommand creates the /mod recent subcommand
func createRecentCommand() *discord.Command {
	return discord.NewCommand(
		"recent",
		"Muestra los últimos casos del servidor",
		"mod",
		recentHandler,
	).WithUserPermissions(discordgo.PermissionModerateMembers).InGuildOnly()
}

func recentHandler(ctx *discord.CommandContext) error {
	return shared.Deferred(ctx, func(reqCtx context.Context, c *services.Container) (*discordgo.MessageEmbed, error) {
		cases, err := c.Ledger.RecentCases(reqCtx, ctx.Interaction.GuildID, historyLimit)
		if err != nil {
			return nil, err
		}
		return recentEmbed(cases), nil
	})
}

func recentEmbed(cases []models.ModerationCase) *discordgo.MessageEmbed {
	embed := &discordgo.MessageEmbed{Title: "📋 Casos recientes", Color: shared.ColorInfo}
	if len(cases) == 0 {
		embed.Description = "Todavía no hay casos en este servidor."
		return embed
	}
	lines := make([]string, len(cases))
	for i, c := range cases {
		lines[i] = caseLine(c) + fmt.Sprintf(" | <@%s>", c.TargetUserID)
	}
	embed.Description = strings.Join(lines, "\n\n")
	return embed
}
