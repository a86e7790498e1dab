package events

import (
	"context"
	"fmt"
	"time"

	"github.com/PancyStudios/PancyGuard/internal/auditlog"
	"github.com/PancyStudios/PancyGuard/internal/services"
	"github.com/PancyStudios/PancyGuard/pkg/discord"
	boterrors "github.com/PancyStudios/PancyGuard/pkg/errors"
	"github.com/PancyStudios/PancyGuard/pkg/logger"
	"github.com/PancyStudios/PancyGuard/pkg/models"
	"github.com/bwmarrin/discordgo"
)

// RegisterAuditEvents registers the server audit log handlers
func RegisterAuditEvents(client *discord.ExtendedClient) {
	eh := client.EventHandler
	eh.RegisterEvent("MessageUpdate", onAuditMessageUpdate)
	eh.RegisterEvent("MessageDelete", onAuditMessageDelete)
	eh.RegisterEvent("GuildMemberAdd", onAuditMemberAdd)
	eh.RegisterEvent("GuildMemberRemove", onAuditMemberRemove)
	eh.RegisterEvent("GuildMemberUpdate", onAuditMemberUpdate)
	eh.RegisterEvent("GuildBanAdd", onAuditBanAdd)
	eh.RegisterEvent("GuildBanRemove", onAuditBanRemove)
	eh.RegisterEvent("GuildRoleCreate", onAuditRoleCreate)
	eh.RegisterEvent("GuildRoleDelete", onAuditRoleDelete)
	eh.RegisterEvent("VoiceStateUpdate", onAuditVoiceStateUpdate)
}

// recordAudit posts one entry to the guild audit log when the guild logs kind
func recordAudit(guildID string, kind models.AuditEventKind, build func(ctx context.Context) *discordgo.MessageEmbed) {
	if guildID == "" {
		return
	}
	withServices(func(ctx context.Context, c *services.Container) {
		err := c.AuditLog.Record(ctx, guildID, kind, func() *discordgo.MessageEmbed {
			return build(ctx)
		})
		if err != nil {
			logger.Debug(fmt.Sprintf("Registro de auditoría %s en %s: %v", kind, guildID, err), "AuditLog")
		}
	})
}

// memberCount reads the cached member count of a guild
func memberCount(state *discordgo.State, guildID string) int {
	if state == nil {
		return 0
	}
	g, err := state.Guild(guildID)
	if err != nil {
		return 0
	}
	return g.MemberCount
}

func onAuditMessageUpdate(s *discordgo.Session, m *discordgo.MessageUpdate) {
	defer boterrors.RecoverMiddleware()()
	if m.Message == nil {
		return
	}
	recordAudit(m.GuildID, models.AuditMessageEdit, func(context.Context) *discordgo.MessageEmbed {
		return auditlog.MessageEdited(m.BeforeUpdate, m.Message)
	})
}

func onAuditMessageDelete(s *discordgo.Session, m *discordgo.MessageDelete) {
	defer boterrors.RecoverMiddleware()()
	if m.Message == nil {
		return
	}
	recordAudit(m.GuildID, models.AuditMessageDelete, func(context.Context) *discordgo.MessageEmbed {
		return auditlog.MessageDeleted(m.BeforeDelete, m.ChannelID)
	})
}

func onAuditMemberAdd(s *discordgo.Session, m *discordgo.GuildMemberAdd) {
	defer boterrors.RecoverMiddleware()()
	if m.Member == nil {
		return
	}
	recordAudit(m.GuildID, models.AuditMemberJoin, func(context.Context) *discordgo.MessageEmbed {
		return auditlog.MemberJoined(m.Member, time.Now(), memberCount(s.State, m.GuildID))
	})
}

func onAuditMemberRemove(s *discordgo.Session, m *discordgo.GuildMemberRemove) {
	defer boterrors.RecoverMiddleware()()
	if m.Member == nil {
		return
	}
	recordAudit(m.GuildID, models.AuditMemberLeave, func(context.Context) *discordgo.MessageEmbed {
		return auditlog.MemberLeft(m.Member, memberCount(s.State, m.GuildID))
	})
}

// onAuditMemberUpdate logs nickname and role changes as separate entries
func onAuditMemberUpdate(s *discordgo.Session, m *discordgo.GuildMemberUpdate) {
	defer boterrors.RecoverMiddleware()()
	if m.Member == nil || m.BeforeUpdate == nil {
		return
	}
	recordAudit(m.GuildID, models.AuditNicknameChange, func(context.Context) *discordgo.MessageEmbed {
		return auditlog.NicknameChanged(m.BeforeUpdate, m.Member)
	})
	recordAudit(m.GuildID, models.AuditMemberRoleUpdate, func(context.Context) *discordgo.MessageEmbed {
		return auditlog.MemberRolesChanged(m.BeforeUpdate, m.Member)
	})
}

// onAuditBanAdd looks the reason up only when the guild logs bans
func onAuditBanAdd(s *discordgo.Session, b *discordgo.GuildBanAdd) {
	defer boterrors.RecoverMiddleware()()
	if b.User == nil {
		return
	}
	recordAudit(b.GuildID, models.AuditMemberBan, func(ctx context.Context) *discordgo.MessageEmbed {
		reason := ""
		if ban, err := s.GuildBan(b.GuildID, b.User.ID, discordgo.WithContext(ctx)); err == nil {
			reason = ban.Reason
		}
		return auditlog.MemberBanned(b.User, reason)
	})
}

func onAuditBanRemove(s *discordgo.Session, b *discordgo.GuildBanRemove) {
	defer boterrors.RecoverMiddleware()()
	recordAudit(b.GuildID, models.AuditMemberUnban, func(context.Context) *discordgo.MessageEmbed {
		return auditlog.MemberUnbanned(b.User)
	})
}

func onAuditRoleCreate(s *discordgo.Session, r *discordgo.GuildRoleCreate) {
	defer boterrors.RecoverMiddleware()()
	if r.GuildRole == nil {
		return
	}
	recordAudit(r.GuildID, models.AuditRoleCreate, func(context.Context) *discordgo.MessageEmbed {
		return auditlog.RoleCreated(r.Role)
	})
}

func onAuditRoleDelete(s *discordgo.Session, r *discordgo.GuildRoleDelete) {
	defer boterrors.RecoverMiddleware()()
	recordAudit(r.GuildID, models.AuditRoleDelete, func(context.Context) *discordgo.MessageEmbed {
		return auditlog.RoleDeleted(r.RoleID)
	})
}

// voiceChannels returns the channel before and after a voice update. An uncached
// previous state counts as not connected.
func voiceChannels(v *discordgo.VoiceStateUpdate) (before, after string) {
	if v.BeforeUpdate != nil {
		before = v.BeforeUpdate.ChannelID
	}
	if v.VoiceState != nil {
		after = v.ChannelID
	}
	return before, after
}

func onAuditVoiceStateUpdate(s *discordgo.Session, v *discordgo.VoiceStateUpdate) {
	defer boterrors.RecoverMiddleware()()
	if v.VoiceState == nil || v.Member == nil {
		return
	}
	before, after := voiceChannels(v)
	recordAudit(v.GuildID, models.AuditVoiceStateUpdate, func(context.Context) *discordgo.MessageEmbed {
		return auditlog.VoiceMoved(before, after, v.Member.User)
	})
}
