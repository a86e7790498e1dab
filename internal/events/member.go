package events

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/PancyStudios/PancyGuard/internal/automod"
	"github.com/PancyStudios/PancyGuard/internal/enforcement"
	"github.com/PancyStudios/PancyGuard/internal/raid"
	"github.com/PancyStudios/PancyGuard/internal/services"
	"github.com/PancyStudios/PancyGuard/pkg/discord"
	boterrors "github.com/PancyStudios/PancyGuard/pkg/errors"
	"github.com/PancyStudios/PancyGuard/pkg/logger"
	"github.com/bwmarrin/discordgo"
)

// RegisterMemberEvents registers all member-related event handlers
func RegisterMemberEvents(client *discord.ExtendedClient) {
	client.EventHandler.OnGuildMemberAdd(onGuildMemberAdd)
}

// accountCreated reads the creation time encoded in a user snowflake
func accountCreated(userID string) time.Time {
	t, err := discordgo.SnowflakeTimestamp(userID)
	if err != nil {
		return time.Time{}
	}
	return t
}

// joinFrom converts a gateway join into the automod and raid inputs
func joinFrom(m *discordgo.GuildMemberAdd, guild string) (automod.Join, raid.Join) {
	created := accountCreated(m.User.ID)
	tag := m.User.String()
	return automod.Join{GuildID: m.GuildID, GuildName: guild, UserID: m.User.ID, Tag: tag, CreatedAt: created},
		raid.Join{GuildID: m.GuildID, UserID: m.User.ID, Tag: tag, CreatedAt: created}
}

// onGuildMemberAdd feeds raid protection and the account age gate. Both apply to the
// same member; a gate action on a member the raid already removed fails as not found.
func onGuildMemberAdd(s *discordgo.Session, m *discordgo.GuildMemberAdd) {
	defer boterrors.RecoverMiddleware()()

	if m.Member == nil || m.User == nil || m.User.Bot {
		return
	}

	gateJoin, raidJoin := joinFrom(m, guildName(s.State, m.GuildID))
	withServices(func(ctx context.Context, c *services.Container) {
		result, err := c.Raid.HandleJoin(ctx, raidJoin)
		if err != nil {
			logger.Error(fmt.Sprintf("Error en protección de raids para %s: %v", raidJoin.Tag, err), "Member")
		}

		_, err = c.Automod.HandleJoin(ctx, gateJoin)
		switch {
		case err == nil:
		case result.Handled && errors.Is(err, enforcement.ErrMemberNotFound):
			logger.Debug(fmt.Sprintf("%s ya fue manejado por la protección de raids", gateJoin.Tag), "Member")
		default:
			logger.Error(fmt.Sprintf("Error verificando antigüedad de %s: %v", gateJoin.Tag, err), "Member")
		}
	})
}
