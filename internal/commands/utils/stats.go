package utils

import (
	"fmt"
	"runtime"
	"strings"
	"time"

	"github.com/PancyStudios/PancyGuard/internal/commands/shared"
	"github.com/PancyStudios/PancyGuard/pkg/config"
	"github.com/PancyStudios/PancyGuard/pkg/discord"
	"github.com/PancyStudios/PancyGuard/pkg/errors"
	"github.com/bwmarrin/discordgo"
)

// createStatsCommand creates the /utils stats subcommand
func createStatsCommand() *discord.Command {
	return discord.NewCommand(
		"stats",
		"Muestra estadísticas del proceso",
		"utils",
		statsHandler,
	)
}

// processStats is a snapshot of the running process
type processStats struct {
	Version    string
	GoVersion  string
	HeapMB     float64
	Goroutines int
	CPUs       int
	Uptime     time.Duration
	Guilds     int
	Members    int
	Commands   int
}

func readProcessStats(c *discord.ExtendedClient) processStats {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)

	members := 0
	for _, g := range c.Session.State.Guilds {
		members += g.MemberCount
	}

	return processStats{
		Version:    config.Version,
		GoVersion:  strings.TrimPrefix(runtime.Version(), "go"),
		HeapMB:     float64(m.Alloc) / 1024 / 1024,
		Goroutines: runtime.NumGoroutine(),
		CPUs:       runtime.NumCPU(),
		Uptime:     time.Since(c.StartTime),
		Guilds:     c.GuildCount(),
		Members:    members,
		Commands:   c.Commands.Size(),
	}
}

func statsEmbed(s processStats) *discordgo.MessageEmbed {
	return &discordgo.MessageEmbed{
		Title: "📊 Estadísticas de PancyGuard",
		Color: shared.ColorInfo,
		Fields: []*discordgo.MessageEmbedField{
			{Name: "🤖 Versión", Value: s.Version, Inline: true},
			{Name: "🐹 Go", Value: s.GoVersion, Inline: true},
			{Name: "📚 DiscordGo", Value: discordgo.VERSION, Inline: true},
			{Name: "🖥 Memoria", Value: fmt.Sprintf("%.2f MB", s.HeapMB), Inline: true},
			{Name: "⚙️ Goroutines", Value: fmt.Sprintf("%d / %d CPUs", s.Goroutines, s.CPUs), Inline: true},
			{Name: "⏱ Uptime", Value: formatUptime(s.Uptime), Inline: true},
			{Name: "🏠 Servidores", Value: fmt.Sprintf("%d", s.Guilds), Inline: true},
			{Name: "👥 Miembros", Value: fmt.Sprintf("%d", s.Members), Inline: true},
			{Name: "⌨️ Comandos", Value: fmt.Sprintf("%d", s.Commands), Inline: true},
		},
		Footer:    &discordgo.MessageEmbedFooter{Text: "💫 - Developed by PancyStudios"},
		Timestamp: time.Now().Format(time.RFC3339),
	}
}

// statsHandler handles the /utils stats command
func statsHandler(ctx *discord.CommandContext) error {
	go func() {
		defer errors.RecoverMiddleware()()
		ctx.ReplyEmbed(statsEmbed(readProcessStats(ctx.Client)))
	}()
	return nil
}

// formatUptime renders a duration as days, hours, minutes and seconds
func formatUptime(d time.Duration) string {
	units := []struct {
		size time.Duration
		name string
	}{
		{24 * time.Hour, "días"},
		{time.Hour, "horas"},
		{time.Minute, "minutos"},
		{time.Second, "segundos"},
	}

	var parts []string
	for _, u := range units {
		if n := d / u.size; n > 0 {
			parts = append(parts, fmt.Sprintf("%d %s", n, u.name))
			d -= n * u.size
		}
	}
	if len(parts) == 0 {
		return "0 segundos"
	}
	return strings.Join(parts, ", ")
}
