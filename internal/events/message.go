package events

import (
	"context"
	"fmt"

	"github.com/PancyStudios/PancyGuard/internal/automod"
	"github.com/PancyStudios/PancyGuard/internal/services"
	"github.com/PancyStudios/PancyGuard/pkg/discord"
	"github.com/PancyStudios/PancyGuard/pkg/errors"
	"github.com/PancyStudios/PancyGuard/pkg/logger"
	"github.com/bwmarrin/discordgo"
)

// RegisterMessageEvents registers all message-related event handlers
func RegisterMessageEvents(client *discord.ExtendedClient) {
	client.EventHandler.OnMessageCreate(onMessageCreate)
}

// guildName resolves a guild name from the state cache, falling back to the ID
func guildName(state *discordgo.State, guildID string) string {
	if state != nil {
		if g, err := state.Guild(guildID); err == nil && g.Name != "" {
			return g.Name
		}
	}
	return guildID
}

// messageFrom converts a gateway message into the automod input
func messageFrom(m *discordgo.MessageCreate, guild string) automod.Message {
	msg := automod.Message{
		GuildID:   m.GuildID,
		GuildName: guild,
		ChannelID: m.ChannelID,
		MessageID: m.ID,
		Content:   m.Content,
	}
	if m.Author != nil {
		msg.AuthorID = m.Author.ID
		msg.AuthorTag = m.Author.String()
		msg.Bot = m.Author.Bot
	}
	if m.WebhookID != "" {
		msg.Bot = true
	}
	return msg
}

// onMessageCreate runs automod over every guild message
func onMessageCreate(s *discordgo.Session, m *discordgo.MessageCreate) {
	defer errors.RecoverMiddleware()()

	if m.GuildID == "" || m.Author == nil || m.Author.Bot {
		return
	}

	msg := messageFrom(m, guildName(s.State, m.GuildID))
	withServices(func(ctx context.Context, c *services.Container) {
		violation, err := c.Automod.HandleMessage(ctx, msg)
		if err != nil {
			logger.Error(fmt.Sprintf("Error procesando mensaje de %s en %s: %v", msg.AuthorTag, msg.GuildID, err), "Message")
			return
		}
		if violation != nil {
			logger.Debug(fmt.Sprintf("AutoMod: %s | %s (%s)", msg.AuthorTag, violation.Rule, violation.Action), "Message")
		}
	})
}
