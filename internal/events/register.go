// Package events wires gateway events into the moderation services.
// Events are organized by category (guild, member, message, shard, audit).
package events

import (
	"context"
	"time"

	"github.com/PancyStudios/PancyGuard/internal/services"
	"github.com/PancyStudios/PancyGuard/pkg/discord"
	"github.com/PancyStudios/PancyGuard/pkg/logger"
)

// handlerTimeout bounds the platform and storage calls of one event
const handlerTimeout = 15 * time.Second

// RegisterAll registers all events with the Discord client
func RegisterAll(client *discord.ExtendedClient) {
	logger.System("📋 Registrando eventos del bot...", "Events")

	// Ready event (bot startup)
	RegisterReadyEvent(client)

	// Guild events (server join/leave)
	RegisterGuildEvents(client)

	// Member events (raid protection, account age)
	RegisterMemberEvents(client)

	// Message events (automod)
	RegisterMessageEvents(client)

	// Shard events (disconnect/resume)
	RegisterShardEvents(client)

	// Server audit log (edits, deletes, bans, roles, voice)
	RegisterAuditEvents(client)

	logger.Success("✅ Todos los eventos registrados correctamente", "Events")
}

// withServices runs fn with the container and a bounded context. Events that arrive
// before the container is ready are dropped.
func withServices(fn func(ctx context.Context, c *services.Container)) {
	c := services.Get()
	if c == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), handlerTimeout)
	defer cancel()
	fn(ctx, c)
}
