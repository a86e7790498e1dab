package protection

import (
	"fmt"
	"strings"
	"time"

	"github.com/PancyStudios/PancyGuard/internal/commands/shared"
	"github.com/PancyStudios/PancyGuard/internal/escalation"
	"github.com/PancyStudios/PancyGuard/internal/raid"
	"github.com/PancyStudios/PancyGuard/pkg/models"
	"github.com/bwmarrin/discordgo"
)

func stateColor(enabled bool) int {
	if enabled {
		return shared.ColorSuccess
	}
	return shared.ColorError
}

func blocked(v bool) string {
	if v {
		return "Bloqueadas"
	}
	return "Permitidas"
}

func orNone(s string) string {
	if s == "" {
		return "Ninguno"
	}
	return s
}

func channelMention(id string) string {
	if id == "" {
		return ""
	}
	return "<#" + id + ">"
}

func roleMention(id string) string {
	if id == "" {
		return ""
	}
	return "<@&" + id + ">"
}

func automodEmbed(p models.AutomodPolicy) *discordgo.MessageEmbed {
	section := func(enabled bool, lines ...string) string {
		if !enabled {
			return shared.OnOff(false)
		}
		return shared.OnOff(true) + "\n• " + strings.Join(lines, "\n• ")
	}

	header := "❌ **AutoMod está DESACTIVADO**"
	if p.Enabled {
		header = "✅ **AutoMod está ACTIVADO**"
	}

	spam := []string{
		fmt.Sprintf("Máx. %d mensajes / %s", p.AntiSpam.MaxMessages, shared.FormatMs(p.AntiSpam.TimeWindowMs)),
		fmt.Sprintf("Duplicados: %d", p.AntiSpam.DuplicateThreshold),
		"Acción: " + string(p.AntiSpam.Action),
	}
	if p.AntiSpam.Action == models.EnforceTimeout {
		spam = append(spam, "Silencio: "+shared.FormatMs(p.AntiSpam.TimeoutDurationMs))
	}

	domains := "Ninguno"
	if len(p.LinkFilter.AllowedDomains) > 0 {
		domains = strings.Join(p.LinkFilter.AllowedDomains, ", ")
	}

	return &discordgo.MessageEmbed{
		Title:       "🛡️ Configuración de AutoMod",
		Description: header,
		Color:       stateColor(p.Enabled),
		Fields: []*discordgo.MessageEmbedField{
			{Name: "🚫 Anti-Spam", Value: section(p.AntiSpam.Enabled, spam...), Inline: true},
			{Name: "🔗 Filtro de enlaces", Value: section(p.LinkFilter.Enabled,
				"Invitaciones: "+blocked(p.LinkFilter.BlockInvites),
				"Todos los enlaces: "+blocked(p.LinkFilter.BlockAllLinks),
				"Dominios permitidos: "+domains,
				"Acción: "+string(p.LinkFilter.Action),
			), Inline: true},
			{Name: "💬 Filtro de palabras", Value: section(p.WordFilter.Enabled,
				fmt.Sprintf("%d palabras", len(p.WordFilter.Words)),
				"Acción: "+string(p.WordFilter.Action),
			), Inline: true},
			{Name: "📅 Antigüedad de cuenta", Value: section(p.AccountAge.Enabled,
				fmt.Sprintf("Mínimo: %d días", p.AccountAge.MinAgeDays),
				"Acción: "+string(p.AccountAge.Action),
				"Rol de cuarentena: "+orNone(roleMention(p.AccountAge.QuarantineRoleID)),
			), Inline: true},
			{Name: "🛡️ Roles exentos", Value: shared.RoleList(p.ExemptRoleIDs, "Ninguno (solo administradores)")},
		},
		Timestamp: time.Now().Format(time.RFC3339),
	}
}

func escalationEmbed(p models.EscalationPolicy) *discordgo.MessageEmbed {
	lines := make([]string, 0, len(p.Rules))
	for _, rule := range p.Rules {
		line := fmt.Sprintf("**%d** advertencias → %s", rule.WarnThreshold, rule.Action)
		if rule.Action == models.EnforceTimeout {
			line += fmt.Sprintf(" (%s)", shared.FormatMs(escalation.RuleTimeout(rule).Milliseconds()))
		}
		lines = append(lines, line)
	}
	rules := "Sin reglas configuradas."
	if len(lines) > 0 {
		rules = strings.Join(lines, "\n")
	}

	return &discordgo.MessageEmbed{
		Title:       "📈 Escalada de advertencias",
		Description: "Estado: **" + shared.OnOff(p.Enabled) + "**",
		Color:       stateColor(p.Enabled),
		Fields:      []*discordgo.MessageEmbedField{{Name: "Reglas", Value: rules}},
	}
}

func raidEmbed(s raid.Status, now time.Time) *discordgo.MessageEmbed {
	p := s.Policy
	state := "🟢 Inactivo"
	color := stateColor(p.Enabled)
	if s.State.Active {
		state = fmt.Sprintf("🚨 **RAID ACTIVO** desde hace %s | %d miembros manejados",
			shared.FormatMs(now.Sub(s.State.StartedAt).Milliseconds()), s.State.HandledCount)
		color = shared.ColorError
	}

	return &discordgo.MessageEmbed{
		Title:       "🛡️ Protección contra raids",
		Description: fmt.Sprintf("Protección: **%s**\nEstado: %s", shared.OnOff(p.Enabled), state),
		Color:       color,
		Fields: []*discordgo.MessageEmbedField{
			{Name: "Umbral", Value: fmt.Sprintf("%d ingresos en %s", p.JoinThreshold, shared.FormatMs(p.TimeWindowMs)), Inline: true},
			{Name: "Ingresos recientes", Value: fmt.Sprintf("%d", s.RecentJoins), Inline: true},
			{Name: "Acción", Value: string(p.Action), Inline: true},
			{Name: "Antigüedad mínima", Value: fmt.Sprintf("%d días", p.MinAccountAgeDays), Inline: true},
			{Name: "Rol de cuarentena", Value: orNone(roleMention(p.QuarantineRoleID)), Inline: true},
			{Name: "Canal de alertas", Value: orNone(channelMention(p.AlertChannelID)), Inline: true},
			{Name: "Bloqueo en raid", Value: shared.OnOff(p.LockdownOnRaid), Inline: true},
		},
	}
}

func raidSummaryEmbed(summary models.RaidSummary) *discordgo.MessageEmbed {
	return shared.SuccessEmbed("Modo raid finalizado", fmt.Sprintf("Duración: %s\nMiembros manejados: %d",
		shared.FormatMs(summary.DurationMs), summary.HandledCount))
}
