package events

import (
	"fmt"
	"time"

	"github.com/PancyStudios/PancyGuard/pkg/discord"
	"github.com/PancyStudios/PancyGuard/pkg/logger"
	"github.com/bwmarrin/discordgo"
)

// RegisterGuildEvents registers all guild-related event handlers
func RegisterGuildEvents(client *discord.ExtendedClient) {
	client.EventHandler.OnGuildCreate(onGuildCreate)
	client.EventHandler.RegisterEvent("GuildDelete", onGuildDelete)
}

// joinedRecently separates a new installation from the GuildCreate burst sent at connect
func joinedRecently(joinedAt, now time.Time) bool {
	return !joinedAt.IsZero() && now.Sub(joinedAt) < 10*time.Second
}

// onGuildCreate is called when a guild becomes available or the bot joins a server
func onGuildCreate(s *discordgo.Session, g *discordgo.GuildCreate) {
	if !joinedRecently(g.JoinedAt, time.Now()) {
		return
	}

	logger.Info(fmt.Sprintf("➕ Bot agregado a servidor: %s (ID: %s)", g.Name, g.ID), "Guild")
	logger.Debug(fmt.Sprintf("   Miembros: %d | Canales: %d", g.MemberCount, len(g.Channels)), "Guild")

	if g.SystemChannelID == "" {
		return
	}
	welcome := &discordgo.MessageEmbed{
		Title:       "🛡️ ¡Gracias por agregarme!",
		Description: "Soy **PancyGuard**. AutoMod, escalada y protección contra raids vienen desactivados hasta que un administrador los configure.",
		Color:       0x5865f2,
		Fields: []*discordgo.MessageEmbedField{
			{Name: "🛡️ AutoMod", Value: "`/automod status`", Inline: true},
			{Name: "🚨 Raids", Value: "`/raid status`", Inline: true},
			{Name: "🔨 Moderación", Value: "`/mod warn`, `/mod history`", Inline: true},
		},
		Timestamp: time.Now().Format(time.RFC3339),
	}
	if _, err := s.ChannelMessageSendEmbed(g.SystemChannelID, welcome); err != nil {
		logger.Debug(fmt.Sprintf("No se pudo enviar la bienvenida a %s: %v", g.ID, err), "Guild")
	}
}

// onGuildDelete is called when the bot is removed from a server
func onGuildDelete(s *discordgo.Session, g *discordgo.GuildDelete) {
	if g.Unavailable {
		logger.Warn(fmt.Sprintf("Servidor no disponible: %s", g.ID), "Guild")
		return
	}
	logger.Info(fmt.Sprintf("➖ Bot removido del servidor ID: %s", g.ID), "Guild")
}
