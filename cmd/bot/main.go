// Package main is the entry point for PancyGuard.
// It initializes all systems and starts the Discord bot.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/PancyStudios/PancyGuard/internal/commands"
	"github.com/PancyStudios/PancyGuard/internal/enforcement"
	"github.com/PancyStudios/PancyGuard/internal/events"
	"github.com/PancyStudios/PancyGuard/internal/policy"
	"github.com/PancyStudios/PancyGuard/internal/services"
	"github.com/PancyStudios/PancyGuard/pkg/config"
	"github.com/PancyStudios/PancyGuard/pkg/database"
	"github.com/PancyStudios/PancyGuard/pkg/discord"
	"github.com/PancyStudios/PancyGuard/pkg/errors"
	"github.com/PancyStudios/PancyGuard/pkg/logger"
	"github.com/PancyStudios/PancyGuard/pkg/mqtt"
	"github.com/PancyStudios/PancyGuard/pkg/web"
)

const shutdownTimeout = 10 * time.Second

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("Error loading configuration: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	log := logger.Init(cfg.LogsDir, cfg.ErrorWebhook, cfg.LogsWebhook)
	defer log.Close()

	logger.System("Iniciando PancyGuard...", "Main")
	logger.Info(fmt.Sprintf("Directorio de trabajo: %s | Entorno: %s | Versión: %s", getCurrentDir(), cfg.Environment, config.Version), "Main")

	// Initialize error handler
	var discordClient *discord.ExtendedClient
	errors.Init(cfg.ErrorWebhook, func() {
		if discordClient != nil {
			_ = discordClient.Stop()
		}
	})

	// Storage
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	store, err := services.OpenStore(ctx, cfg)
	cancel()
	if err != nil {
		logger.Critical(fmt.Sprintf("Error abriendo el almacenamiento: %v", err), "Main")
		os.Exit(1)
	}
	logger.Success(fmt.Sprintf("Almacenamiento listo: %s", store.Name()), "Main")

	cache, err := database.NewCache(0)
	if err != nil {
		logger.Critical(err.Error(), "Main")
		os.Exit(1)
	}
	defer cache.Close()

	defaults, err := policy.LoadDefaults(cfg.PolicyDefaultsFile)
	if err != nil {
		logger.Warn(fmt.Sprintf("Usando políticas por defecto integradas: %v", err), "Main")
	}

	// Initialize Discord client
	discordClient, err = discord.Init(cfg.BotToken)
	if err != nil {
		logger.Critical(fmt.Sprintf("Error creating Discord client: %v", err), "Main")
		os.Exit(1)
	}

	// Audit sinks: mod log channel, websocket hub and, when enabled, the MQTT bus
	hub := web.NewAuditHub()
	auditors := enforcement.MultiAuditor{discord.NewModLog(discordClient, cfg.ModLogChannelID), hub}

	var mqttClient *mqtt.MqttCommunicator
	if cfg.MQTTEnabled {
		mqttClientID := "pancyguard"
		if !cfg.IsProd() {
			mqttClientID = "pancyguard_canary"
		}
		mqttClient = mqtt.Init(cfg.MQTTHost, cfg.MQTTPort, cfg.MQTTUser, cfg.MQTTPassword, mqttClientID)
		defer mqttClient.Destroy()
		auditors = append(auditors, mqtt.NewAuditor(mqttClient))
	}

	container := services.Init(services.Deps{
		Store:     store,
		Cache:     cache,
		Options:   database.DataManagerOptions{TTL: cfg.CacheTTL},
		Defaults:  defaults,
		Platform:  discord.NewPlatform(discordClient),
		Auditor:   auditors,
		Poster:    discord.NewChannelPoster(discordClient),
		BotUserID: discordClient.BotUserID,
	})
	container.StartSweepers(cfg)
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := container.Close(ctx); err != nil {
			logger.Error(fmt.Sprintf("Error cerrando el almacenamiento: %v", err), "Main")
		}
	}()

	if mqttClient != nil {
		bridge := &mqtt.Bridge{
			Cases: container.Ledger.UserCases,
			Raid: func(ctx context.Context, guildID string) (interface{}, error) {
				return container.Raid.Status(ctx, guildID)
			},
		}
		bridge.Register(mqttClient)
	}

	// Initialize web server
	webServer := web.Init(web.Options{APIToken: cfg.APIToken, WebhookURL: cfg.LogsWebhook})
	web.SetupAPIRoutes(webServer, &web.API{
		Cases:    container.Ledger,
		Raids:    container.Raid,
		Policies: container.Policies,
		Hub:      hub,
		Status: func(ctx context.Context) web.BotStatus {
			return botStatus(ctx, discordClient, container, hub)
		},
	})
	webServer.StartAsync(cfg.Port)

	// Register commands and events
	commands.RegisterAll(discordClient)
	events.RegisterAll(discordClient)

	// Start the bot
	if err := discordClient.Start(); err != nil {
		logger.Critical(fmt.Sprintf("Error starting Discord client: %v", err), "Main")
		os.Exit(1)
	}

	reportActiveRaids(container)
	logger.Success("PancyGuard iniciado correctamente!", "Main")

	// Wait for interrupt signal
	sc := make(chan os.Signal, 1)
	signal.Notify(sc, syscall.SIGINT, syscall.SIGTERM, os.Interrupt)
	<-sc

	logger.System("Apagando PancyGuard...", "Main")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer shutdownCancel()
	if err := webServer.Shutdown(shutdownCtx); err != nil {
		logger.Error(fmt.Sprintf("Error deteniendo el servidor web: %v", err), "Main")
	}
	if err := discordClient.Stop(); err != nil {
		logger.Error(fmt.Sprintf("Error cerrando la sesión de Discord: %v", err), "Main")
	}
}

// botStatus builds the /api/status snapshot
func botStatus(ctx context.Context, client *discord.ExtendedClient, c *services.Container, hub *web.AuditHub) web.BotStatus {
	status := web.BotStatus{
		Ready:        client.IsReady(),
		Guilds:       client.GuildCount(),
		LatencyMs:    client.Latency().Milliseconds(),
		Storage:      c.Store.Name(),
		Version:      config.Version,
		AuditClients: hub.Subscribers(),
		TrackedUsers: c.Automod.Tracker().Size(),
	}
	if !client.StartTime.IsZero() {
		status.Uptime = time.Since(client.StartTime).Round(time.Second).String()
	}
	status.StorageOnline = c.Store.Ping(ctx) == nil
	return status
}

// reportActiveRaids logs the guilds that were left in raid mode by a previous run
func reportActiveRaids(c *services.Container) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	active, err := c.Raid.ActiveGuilds(ctx)
	if err != nil {
		logger.Warn(fmt.Sprintf("No se pudieron leer los raids activos: %v", err), "Main")
		return
	}
	if len(active) > 0 {
		logger.Warn(fmt.Sprintf("Modo raid sigue activo en: %s. Usa /raid end para finalizarlo.", strings.Join(active, ", ")), "Main")
	}
}

// getCurrentDir returns the current working directory
func getCurrentDir() string {
	dir, err := os.Getwd()
	if err != nil {
		return "unknown"
	}
	return dir
}
