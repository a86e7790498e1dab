package models

// AuditEventKind identifica un tipo de evento del registro de auditoría del servidor
type AuditEventKind string

const (
	AuditMessageEdit      AuditEventKind = "messageEdit"
	AuditMessageDelete    AuditEventKind = "messageDelete"
	AuditMemberJoin       AuditEventKind = "memberJoin"
	AuditMemberLeave      AuditEventKind = "memberLeave"
	AuditMemberBan        AuditEventKind = "memberBan"
	AuditMemberUnban      AuditEventKind = "memberUnban"
	AuditRoleCreate       AuditEventKind = "roleCreate"
	AuditRoleDelete       AuditEventKind = "roleDelete"
	AuditMemberRoleUpdate AuditEventKind = "memberRoleUpdate"
	AuditNicknameChange   AuditEventKind = "nicknameChange"
	AuditVoiceStateUpdate AuditEventKind = "voiceStateUpdate"
)

// AuditEventKinds lists every kind in display order
var AuditEventKinds = []AuditEventKind{
	AuditMessageEdit,
	AuditMessageDelete,
	AuditMemberJoin,
	AuditMemberLeave,
	AuditMemberBan,
	AuditMemberUnban,
	AuditRoleCreate,
	AuditRoleDelete,
	AuditMemberRoleUpdate,
	AuditNicknameChange,
	AuditVoiceStateUpdate,
}

// Valid reports whether k is a known event kind
func (k AuditEventKind) Valid() bool {
	for _, known := range AuditEventKinds {
		if k == known {
			return true
		}
	}
	return false
}

// AuditLogConfig configura el registro de auditoría de un servidor
type AuditLogConfig struct {
	GuildID   string                  `json:"guildId"`
	Enabled   bool                    `json:"enabled"`
	ChannelID string                  `json:"channelId,omitempty"`
	Events    map[AuditEventKind]bool `json:"events"`
}

// Logs reports whether events of kind k are posted
func (c AuditLogConfig) Logs(k AuditEventKind) bool {
	return c.Enabled && c.ChannelID != "" && c.Events[k]
}
