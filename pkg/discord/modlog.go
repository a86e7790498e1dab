package discord

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/PancyStudios/PancyGuard/internal/durations"
	"github.com/PancyStudios/PancyGuard/internal/enforcement"
	"github.com/PancyStudios/PancyGuard/pkg/models"
	"github.com/bwmarrin/discordgo"
)

const (
	colorDefault = 0x5865f2
	colorRaid    = 0xed4245
	colorRaidEnd = 0x57f287
)

var actionColors = map[models.ActionKind]int{
	models.ActionBan:       0xdc3545,
	models.ActionKick:      0xfd7e14,
	models.ActionTimeout:   0xffc107,
	models.ActionWarn:      0xffc107,
	models.ActionUnban:     0x28a745,
	models.ActionUntimeout: 0x28a745,
}

var actionEmoji = map[models.ActionKind]string{
	models.ActionBan:       "🔨",
	models.ActionKick:      "👢",
	models.ActionTimeout:   "🔇",
	models.ActionWarn:      "⚠️",
	models.ActionUnban:     "🔓",
	models.ActionUntimeout: "🔊",
}

// ActionColor returns the embed color used for an action
func ActionColor(a models.ActionKind) int {
	if c, ok := actionColors[a]; ok {
		return c
	}
	return colorDefault
}

// ActionEmoji returns the emoji used for an action
func ActionEmoji(a models.ActionKind) string {
	if e, ok := actionEmoji[a]; ok {
		return e
	}
	return "📋"
}

type messageSender interface {
	ChannelMessageSendComplex(channelID string, data *discordgo.MessageSend, options ...discordgo.RequestOption) (*discordgo.Message, error)
}

// ModLog posts audit events to Discord channels. An empty channel disables case posts.
type ModLog struct {
	sender    messageSender
	channelID string
}

// NewModLog creates the mod-log auditor
func NewModLog(c *ExtendedClient, channelID string) *ModLog {
	return &ModLog{sender: c.Session, channelID: channelID}
}

func (m *ModLog) Audit(ctx context.Context, event enforcement.AuditEvent) error {
	var (
		channelID string
		msg       *discordgo.MessageSend
	)

	switch event.Type {
	case enforcement.EventCase:
		if event.Case == nil {
			return nil
		}
		channelID = m.channelID
		msg = &discordgo.MessageSend{Embeds: []*discordgo.MessageEmbed{CaseEmbed(*event.Case)}}
	case enforcement.EventRaidStarted, enforcement.EventRaidEnded:
		if event.Raid == nil {
			return nil
		}
		channelID = event.Raid.AlertChannelID
		if channelID == "" {
			channelID = m.channelID
		}
		msg = RaidMessage(event)
	default:
		return nil
	}

	if channelID == "" || msg == nil {
		return nil
	}
	if _, err := m.sender.ChannelMessageSendComplex(channelID, msg, discordgo.WithContext(ctx)); err != nil {
		return fmt.Errorf("mod log %s: %w", channelID, err)
	}
	return nil
}

// ChannelPoster sends single embeds to any channel, as the server audit log needs
type ChannelPoster struct {
	sender messageSender
}

// NewChannelPoster creates a ChannelPoster on the client session
func NewChannelPoster(c *ExtendedClient) *ChannelPoster {
	return &ChannelPoster{sender: c.Session}
}

func (p *ChannelPoster) Post(ctx context.Context, channelID string, embed *discordgo.MessageEmbed) error {
	msg := &discordgo.MessageSend{
		Embeds:          []*discordgo.MessageEmbed{embed},
		AllowedMentions: &discordgo.MessageAllowedMentions{},
	}
	if _, err := p.sender.ChannelMessageSendComplex(channelID, msg, discordgo.WithContext(ctx)); err != nil {
		return fmt.Errorf("audit log %s: %w", channelID, err)
	}
	return nil
}

// CaseEmbed renders a moderation case
func CaseEmbed(c models.ModerationCase) *discordgo.MessageEmbed {
	reason := c.Reason
	if reason == "" {
		reason = "Sin razón especificada"
	}
	moderator := c.ModeratorTag
	if c.ModeratorUserID != "" {
		moderator = fmt.Sprintf("<@%s> (%s)", c.ModeratorUserID, c.ModeratorTag)
	}

	embed := &discordgo.MessageEmbed{
		Title: fmt.Sprintf("%s %s | Caso #%d", ActionEmoji(c.Action), strings.ToUpper(string(c.Action)), c.ID),
		Color: ActionColor(c.Action),
		Fields: []*discordgo.MessageEmbedField{
			{Name: "Usuario", Value: fmt.Sprintf("<@%s> (%s)", c.TargetUserID, c.TargetTag), Inline: true},
			{Name: "Moderador", Value: moderator, Inline: true},
			{Name: "Razón", Value: reason},
		},
		Footer:    &discordgo.MessageEmbedFooter{Text: "ID de usuario: " + c.TargetUserID},
		Timestamp: c.CreatedAt.Format(time.RFC3339),
	}
	if c.DurationSeconds > 0 {
		embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{
			Name:   "Duración",
			Value:  durations.Format(time.Duration(c.DurationSeconds) * time.Second),
			Inline: true,
		})
	}
	return embed
}

// RaidMessage renders a raid transition. Activation pings @here.
func RaidMessage(event enforcement.AuditEvent) *discordgo.MessageSend {
	notice := event.Raid
	if notice == nil {
		return nil
	}

	switch event.Type {
	case enforcement.EventRaidStarted:
		return &discordgo.MessageSend{
			Content: "@here Raid detected!",
			Embeds: []*discordgo.MessageEmbed{{
				Title: "🚨 RAID DETECTED",
				Color: colorRaid,
				Description: fmt.Sprintf("**%d miembros** se unieron en rápida sucesión.\n\n"+
					"El modo de protección contra raids está activo. Los nuevos miembros se gestionarán automáticamente (acción: %s).\n\n"+
					"Usa `/raid end` para desactivarlo cuando el raid termine.", notice.JoinCount, notice.Action),
				Timestamp: event.At.Format(time.RFC3339),
			}},
			AllowedMentions: &discordgo.MessageAllowedMentions{
				Parse: []discordgo.AllowedMentionType{discordgo.AllowedMentionTypeEveryone},
			},
		}
	case enforcement.EventRaidEnded:
		embed := &discordgo.MessageEmbed{
			Title:     "✅ Modo raid finalizado",
			Color:     colorRaidEnd,
			Timestamp: event.At.Format(time.RFC3339),
		}
		if s := notice.Summary; s != nil {
			embed.Fields = []*discordgo.MessageEmbedField{
				{Name: "Duración", Value: durations.Format(time.Duration(s.DurationMs) * time.Millisecond), Inline: true},
				{Name: "Miembros gestionados", Value: fmt.Sprintf("%d", s.HandledCount), Inline: true},
			}
		}
		return &discordgo.MessageSend{Embeds: []*discordgo.MessageEmbed{embed}}
	}
	return nil
}
