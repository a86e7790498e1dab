package utils

import (
	"strings"
	"testing"
	"time"

	"github.com/PancyStudios/PancyGuard/pkg/discord"
)

func TestFormatUptime(t *testing.T) {
	tests := []struct {
		in   time.Duration
		want string
	}{
		{0, "0 segundos"},
		{45 * time.Second, "45 segundos"},
		{time.Hour + 30*time.Second, "1 horas, 30 segundos"},
		{50*time.Hour + 2*time.Minute, "2 días, 2 horas, 2 minutos"},
	}
	for _, tt := range tests {
		t.Run(tt.in.String(), func(t *testing.T) {
			if got := formatUptime(tt.in); got != tt.want {
				t.Errorf("formatUptime(%s) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestHelpFields(t *testing.T) {
	noop := func(*discord.CommandContext) error { return nil }
	dev := discord.NewCommand("sync", "Sincroniza", "dev", noop).AsDev()

	fields := helpFields(map[string]*discord.Command{
		"mod.warn":   discord.NewCommand("warn", "Advierte", "mod", noop),
		"mod.ban":    discord.NewCommand("ban", "Banea", "mod", noop),
		"utils.ping": discord.NewCommand("ping", "Latencia", "utils", noop),
		"dev.sync":   dev,
	})

	if len(fields) != 2 {
		t.Fatalf("fields = %d, want 2 (dev commands hidden)", len(fields))
	}
	if fields[0].Name != "🔨 Moderación" {
		t.Errorf("first category = %q", fields[0].Name)
	}
	if !strings.HasPrefix(fields[0].Value, "`/mod ban` - Banea\n`/mod warn`") {
		t.Errorf("mod field = %q", fields[0].Value)
	}
}

func TestStatusEmbed(t *testing.T) {
	embed := statusEmbed(statusReport{Storage: "redis", StorageOnline: false, Guilds: 2, InGuild: true, RaidActive: true})
	if len(embed.Fields) != 7 {
		t.Fatalf("fields = %d, want 7", len(embed.Fields))
	}
	if embed.Fields[1].Value != "🔴 Offline (redis)" {
		t.Errorf("storage = %q", embed.Fields[1].Value)
	}
	if embed.Fields[6].Value != "🚨 Raid activo" {
		t.Errorf("raid = %q", embed.Fields[6].Value)
	}

	dm := statusEmbed(statusReport{Storage: "memory", StorageOnline: true})
	if len(dm.Fields) != 5 {
		t.Errorf("fields outside a guild = %d, want 5", len(dm.Fields))
	}
}
