package utils

import (
	"fmt"
	"sort"
	"strings"

	"github.com/PancyStudios/PancyGuard/pkg/discord"
	"github.com/PancyStudios/PancyGuard/pkg/errors"
	"github.com/bwmarrin/discordgo"
)

// createHelpCommand creates the /utils help subcommand
func createHelpCommand() *discord.Command {
	return discord.NewCommand(
		"help",
		"Muestra los comandos disponibles",
		"utils",
		helpHandler,
	)
}

var categoryTitles = map[string]string{
	"mod":        "🔨 Moderación",
	"automod":    "🛡️ AutoMod",
	"escalation": "📈 Escalada",
	"raid":       "🚨 Raids",
	"auditlog":   "📜 Auditoría",
	"utils":      "🔧 Utilidades",
}

// helpFields lists the registered commands grouped by category
func helpFields(commands map[string]*discord.Command) []*discordgo.MessageEmbedField {
	byCategory := make(map[string][]string)
	for name, cmd := range commands {
		if cmd.IsDev {
			continue
		}
		full := "/" + strings.ReplaceAll(name, ".", " ")
		byCategory[cmd.Category] = append(byCategory[cmd.Category], fmt.Sprintf("`%s` - %s", full, cmd.Description))
	}

	categories := make([]string, 0, len(byCategory))
	for c := range byCategory {
		categories = append(categories, c)
	}
	sort.Strings(categories)

	fields := make([]*discordgo.MessageEmbedField, 0, len(categories))
	for _, c := range categories {
		lines := byCategory[c]
		sort.Strings(lines)
		title, ok := categoryTitles[c]
		if !ok {
			title = c
		}
		fields = append(fields, &discordgo.MessageEmbedField{Name: title, Value: strings.Join(lines, "\n")})
	}
	return fields
}

// helpHandler handles the /utils help command
func helpHandler(ctx *discord.CommandContext) error {
	go func() {
		defer errors.RecoverMiddleware()()
		ctx.ReplyEphemeralEmbed(&discordgo.MessageEmbed{
			Title:  "📖 Ayuda de PancyGuard",
			Color:  0x5865f2,
			Fields: helpFields(ctx.Client.Commands.All()),
		})
	}()
	return nil
}
