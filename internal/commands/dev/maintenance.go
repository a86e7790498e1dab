package dev

import (
	"context"
	"fmt"
	"strings"

	"github.com/PancyStudios/PancyGuard/internal/commands/shared"
	"github.com/PancyStudios/PancyGuard/internal/services"
	"github.com/PancyStudios/PancyGuard/pkg/config"
	"github.com/PancyStudios/PancyGuard/pkg/discord"
	"github.com/PancyStudios/PancyGuard/pkg/logger"
	"github.com/bwmarrin/discordgo"
)

// guard rejects users that are not configured developers
func guard(cfg *config.Config, userID string) error {
	if cfg == nil || !cfg.IsDeveloper(userID) {
		return shared.Refuse("**Acceso denegado:** este comando es solo para desarrolladores.")
	}
	return nil
}

// devOnly wraps a handler with the developer check and an ephemeral deferred reply
func devOnly(h shared.Handler) discord.CommandRunFunc {
	return func(ctx *discord.CommandContext) error {
		if err := guard(ctx.Client.GetConfig(), ctx.User().ID); err != nil {
			return ctx.ReplyEphemeral("❌ " + err.Error())
		}
		logger.Info(fmt.Sprintf("Comando de desarrollo usado por %s", ctx.User().ID), "Dev")
		return shared.DeferredEphemeral(ctx, h)
	}
}

func createSyncCommand() *discord.Command {
	return discord.NewCommand(
		"sync",
		"Vuelve a registrar los comandos slash",
		"dev",
		func(ctx *discord.CommandContext) error {
			return devOnly(func(_ context.Context, _ *services.Container) (*discordgo.MessageEmbed, error) {
				guildID := ctx.GetStringOption("servidor")
				if err := ctx.Client.CommandHandler.SyncCommands(guildID); err != nil {
					return nil, err
				}
				target := "globalmente"
				if guildID != "" {
					target = "en " + guildID
				}
				global, devCmds := ctx.Client.CommandHandler.Definitions()
				return shared.SuccessEmbed("Comandos sincronizados",
					fmt.Sprintf("%d comandos globales y %d de desarrollo registrados %s.", len(global), len(devCmds), target)), nil
			})(ctx)
		},
	).WithOptions(&discordgo.ApplicationCommandOption{
		Type:        discordgo.ApplicationCommandOptionString,
		Name:        "servidor",
		Description: "ID del servidor donde registrar (vacío para global)",
	}).AsDev()
}

func createSweepCommand() *discord.Command {
	return discord.NewCommand(
		"sweep",
		"Limpia ahora los rastreadores de mensajes e ingresos",
		"dev",
		devOnly(func(_ context.Context, c *services.Container) (*discordgo.MessageEmbed, error) {
			messages := c.Automod.Tracker().Sweep()
			joins := c.Raid.Joins().Sweep()
			return shared.SuccessEmbed("Rastreadores limpiados",
				fmt.Sprintf("Entradas de mensajes eliminadas: %d\nServidores de ingresos olvidados: %d\nUsuarios vigilados: %d",
					messages, joins, c.Automod.Tracker().Size())), nil
		}),
	).AsDev()
}

func createRaidsCommand() *discord.Command {
	return discord.NewCommand(
		"raids",
		"Lista los servidores con modo raid activo",
		"dev",
		devOnly(func(ctx context.Context, c *services.Container) (*discordgo.MessageEmbed, error) {
			active, err := c.Raid.ActiveGuilds(ctx)
			if err != nil {
				return nil, err
			}
			return activeRaidsEmbed(active), nil
		}),
	).AsDev()
}

func activeRaidsEmbed(guildIDs []string) *discordgo.MessageEmbed {
	if len(guildIDs) == 0 {
		return &discordgo.MessageEmbed{Description: "🟢 Ningún servidor está en modo raid.", Color: shared.ColorSuccess}
	}
	return &discordgo.MessageEmbed{
		Title:       fmt.Sprintf("🚨 Raids activos (%d)", len(guildIDs)),
		Description: "`" + strings.Join(guildIDs, "`\n`") + "`",
		Color:       shared.ColorError,
	}
}
