package events

import (
	"fmt"

	"github.com/PancyStudios/PancyGuard/pkg/discord"
	"github.com/PancyStudios/PancyGuard/pkg/errors"
	"github.com/PancyStudios/PancyGuard/pkg/logger"
	"github.com/bwmarrin/discordgo"
)

// RegisterReadyEvent registers the ready event handler
func RegisterReadyEvent(client *discord.ExtendedClient) {
	client.EventHandler.OnReady(onReady)
}

func presence(guilds int) string {
	if guilds == 1 {
		return "🛡️ Protegiendo 1 servidor"
	}
	return fmt.Sprintf("🛡️ Protegiendo %d servidores", guilds)
}

// onReady is called when the bot successfully connects to Discord
func onReady(s *discordgo.Session, r *discordgo.Ready) {
	defer errors.RecoverMiddleware()()

	logger.Success(fmt.Sprintf("✅ Bot conectado: %s", r.User.String()), "Ready")
	logger.Info(fmt.Sprintf("📊 Conectado a %d servidores", len(r.Guilds)), "Ready")

	if err := s.UpdateWatchStatus(0, presence(len(r.Guilds))); err != nil {
		logger.Error(fmt.Sprintf("Error estableciendo estado: %v", err), "Ready")
	}
}
