package auditlog

import (
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/bwmarrin/discordgo"
)

const fieldLimit = 1024

const (
	colorEdit   = 0xf39c12
	colorRemove = 0xe74c3c
	colorAdd    = 0x2ecc71
	colorBan    = 0x992d22
	colorRole   = 0x3498db
	colorNick   = 0x9b59b6
)

func truncate(s string, max int) string {
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	return string(r[:max-3]) + "..."
}

func orPlaceholder(s, placeholder string) string {
	if strings.TrimSpace(s) == "" {
		return placeholder
	}
	return s
}

func tag(u *discordgo.User) string {
	if u == nil {
		return "Desconocido"
	}
	return u.String()
}

func author(u *discordgo.User) *discordgo.MessageEmbedAuthor {
	if u == nil {
		return &discordgo.MessageEmbedAuthor{Name: "Desconocido"}
	}
	return &discordgo.MessageEmbedAuthor{Name: u.String(), IconURL: u.AvatarURL("64")}
}

func thumbnail(u *discordgo.User) *discordgo.MessageEmbedThumbnail {
	if u == nil {
		return nil
	}
	return &discordgo.MessageEmbedThumbnail{URL: u.AvatarURL("128")}
}

func footer(label, id string) *discordgo.MessageEmbedFooter {
	if id == "" {
		return nil
	}
	return &discordgo.MessageEmbedFooter{Text: label + ": " + id}
}

func roleMentions(ids []string) string {
	if len(ids) == 0 {
		return "Ninguno"
	}
	mentions := make([]string, len(ids))
	for i, id := range ids {
		mentions[i] = "<@&" + id + ">"
	}
	return truncate(strings.Join(mentions, ", "), fieldLimit)
}

func yesNo(v bool) string {
	if v {
		return "Sí"
	}
	return "No"
}

func messageAuthor(msgs ...*discordgo.Message) *discordgo.User {
	for _, m := range msgs {
		if m != nil && m.Author != nil {
			return m.Author
		}
	}
	return nil
}

// MessageEdited renders a content edit. Without the cached previous version an edit
// cannot be told apart from a link preview update, so nothing is logged.
func MessageEdited(before, after *discordgo.Message) *discordgo.MessageEmbed {
	if before == nil || after == nil || before.Content == after.Content {
		return nil
	}
	user := messageAuthor(after, before)
	if user != nil && user.Bot {
		return nil
	}

	guildID := after.GuildID
	if guildID == "" {
		guildID = before.GuildID
	}
	userID := ""
	if user != nil {
		userID = user.ID
	}
	return &discordgo.MessageEmbed{
		Title:  "✏️ Mensaje editado",
		Color:  colorEdit,
		Author: author(user),
		Fields: []*discordgo.MessageEmbedField{
			{Name: "Antes", Value: truncate(orPlaceholder(before.Content, "*Sin contenido*"), fieldLimit)},
			{Name: "Después", Value: truncate(orPlaceholder(after.Content, "*Sin contenido*"), fieldLimit)},
			{Name: "Canal", Value: "<#" + after.ChannelID + ">", Inline: true},
			{Name: "Mensaje", Value: fmt.Sprintf("[Ir al mensaje](https://discord.com/channels/%s/%s/%s)", guildID, after.ChannelID, after.ID), Inline: true},
		},
		Footer: footer("ID de usuario", userID),
	}
}

// MessageDeleted renders a deletion. before is the cached message and may be nil.
func MessageDeleted(before *discordgo.Message, channelID string) *discordgo.MessageEmbed {
	user := messageAuthor(before)
	if user != nil && user.Bot {
		return nil
	}

	content := "*Contenido no disponible*"
	if before != nil {
		content = orPlaceholder(before.Content, "*Sin contenido o solo embeds*")
	}
	userID := ""
	if user != nil {
		userID = user.ID
	}
	embed := &discordgo.MessageEmbed{
		Title:  "🗑️ Mensaje eliminado",
		Color:  colorRemove,
		Author: author(user),
		Fields: []*discordgo.MessageEmbedField{
			{Name: "Contenido", Value: truncate(content, fieldLimit)},
			{Name: "Canal", Value: "<#" + channelID + ">", Inline: true},
		},
		Footer: footer("ID de usuario", userID),
	}
	if before != nil && len(before.Attachments) > 0 {
		urls := make([]string, 0, len(before.Attachments))
		for _, a := range before.Attachments {
			urls = append(urls, a.URL)
		}
		embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{
			Name:  "Adjuntos",
			Value: truncate(strings.Join(urls, "\n"), fieldLimit),
		})
	}
	return embed
}

// MemberJoined renders a join with the account age in days
func MemberJoined(m *discordgo.Member, now time.Time, memberCount int) *discordgo.MessageEmbed {
	if m == nil || m.User == nil {
		return nil
	}
	age := "Desconocida"
	if created, err := discordgo.SnowflakeTimestamp(m.User.ID); err == nil {
		age = fmt.Sprintf("%d días", int(now.Sub(created).Hours()/24))
	}
	return &discordgo.MessageEmbed{
		Title:     "📥 Miembro unido",
		Color:     colorAdd,
		Thumbnail: thumbnail(m.User),
		Fields: []*discordgo.MessageEmbedField{
			{Name: "Usuario", Value: fmt.Sprintf("<@%s> (%s)", m.User.ID, m.User.String()), Inline: true},
			{Name: "Edad de la cuenta", Value: age, Inline: true},
			{Name: "Miembros", Value: fmt.Sprintf("%d", memberCount), Inline: true},
		},
		Footer: footer("ID de usuario", m.User.ID),
	}
}

// MemberLeft renders a departure. Roles are only known when the member was cached.
func MemberLeft(m *discordgo.Member, memberCount int) *discordgo.MessageEmbed {
	if m == nil || m.User == nil {
		return nil
	}
	return &discordgo.MessageEmbed{
		Title:     "📤 Miembro salió",
		Color:     colorRemove,
		Thumbnail: thumbnail(m.User),
		Fields: []*discordgo.MessageEmbedField{
			{Name: "Usuario", Value: fmt.Sprintf("<@%s> (%s)", m.User.ID, m.User.String()), Inline: true},
			{Name: "Miembros", Value: fmt.Sprintf("%d", memberCount), Inline: true},
			{Name: "Roles", Value: roleMentions(m.Roles)},
		},
		Footer: footer("ID de usuario", m.User.ID),
	}
}

// MemberBanned renders a ban. reason may be empty.
func MemberBanned(u *discordgo.User, reason string) *discordgo.MessageEmbed {
	if u == nil {
		return nil
	}
	return &discordgo.MessageEmbed{
		Title:     "🔨 Miembro baneado",
		Color:     colorBan,
		Thumbnail: thumbnail(u),
		Fields: []*discordgo.MessageEmbedField{
			{Name: "Usuario", Value: tag(u), Inline: true},
			{Name: "Razón", Value: truncate(orPlaceholder(reason, "Sin razón especificada"), fieldLimit), Inline: true},
		},
		Footer: footer("ID de usuario", u.ID),
	}
}

// MemberUnbanned renders an unban
func MemberUnbanned(u *discordgo.User) *discordgo.MessageEmbed {
	if u == nil {
		return nil
	}
	return &discordgo.MessageEmbed{
		Title:     "🔓 Miembro desbaneado",
		Color:     colorAdd,
		Thumbnail: thumbnail(u),
		Fields: []*discordgo.MessageEmbedField{
			{Name: "Usuario", Value: tag(u), Inline: true},
		},
		Footer: footer("ID de usuario", u.ID),
	}
}

// RoleCreated renders a new role
func RoleCreated(r *discordgo.Role) *discordgo.MessageEmbed {
	if r == nil {
		return nil
	}
	return &discordgo.MessageEmbed{
		Title: "➕ Rol creado",
		Color: colorRole,
		Fields: []*discordgo.MessageEmbedField{
			{Name: "Nombre", Value: r.Name, Inline: true},
			{Name: "Color", Value: fmt.Sprintf("#%06x", r.Color), Inline: true},
			{Name: "Separado", Value: yesNo(r.Hoist), Inline: true},
		},
		Footer: footer("ID del rol", r.ID),
	}
}

// RoleDeleted renders a removed role. The gateway only sends its ID.
func RoleDeleted(roleID string) *discordgo.MessageEmbed {
	if roleID == "" {
		return nil
	}
	return &discordgo.MessageEmbed{
		Title:  "➖ Rol eliminado",
		Color:  colorRemove,
		Footer: footer("ID del rol", roleID),
	}
}

// NicknameChanged renders a nickname change. before must be the cached member.
func NicknameChanged(before, after *discordgo.Member) *discordgo.MessageEmbed {
	if before == nil || after == nil || after.User == nil || before.Nick == after.Nick {
		return nil
	}
	return &discordgo.MessageEmbed{
		Title:  "🏷️ Apodo cambiado",
		Color:  colorNick,
		Author: author(after.User),
		Fields: []*discordgo.MessageEmbedField{
			{Name: "Antes", Value: orPlaceholder(before.Nick, "*Sin apodo*"), Inline: true},
			{Name: "Después", Value: orPlaceholder(after.Nick, "*Sin apodo*"), Inline: true},
		},
		Footer: footer("ID de usuario", after.User.ID),
	}
}

// RoleDiff returns the role IDs present only in after and only in before
func RoleDiff(before, after []string) (added, removed []string) {
	for _, id := range after {
		if !slices.Contains(before, id) {
			added = append(added, id)
		}
	}
	for _, id := range before {
		if !slices.Contains(after, id) {
			removed = append(removed, id)
		}
	}
	return added, removed
}

// MemberRolesChanged renders added and removed roles. before must be the cached member.
func MemberRolesChanged(before, after *discordgo.Member) *discordgo.MessageEmbed {
	if before == nil || after == nil || after.User == nil {
		return nil
	}
	added, removed := RoleDiff(before.Roles, after.Roles)
	if len(added) == 0 && len(removed) == 0 {
		return nil
	}

	embed := &discordgo.MessageEmbed{
		Title:  "🎭 Roles actualizados",
		Color:  colorRole,
		Author: author(after.User),
		Footer: footer("ID de usuario", after.User.ID),
	}
	if len(added) > 0 {
		embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{Name: "Añadidos", Value: roleMentions(added), Inline: true})
	}
	if len(removed) > 0 {
		embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{Name: "Quitados", Value: roleMentions(removed), Inline: true})
	}
	return embed
}

// VoiceMoved renders a voice channel join, leave or move. Mute and deafen changes are ignored.
func VoiceMoved(beforeChannelID, afterChannelID string, u *discordgo.User) *discordgo.MessageEmbed {
	if u == nil || u.Bot || beforeChannelID == afterChannelID {
		return nil
	}

	embed := &discordgo.MessageEmbed{
		Author: author(u),
		Footer: footer("ID de usuario", u.ID),
	}
	switch {
	case beforeChannelID == "":
		embed.Title, embed.Color = "🔊 Entró a un canal de voz", colorAdd
		embed.Description = "Entró a <#" + afterChannelID + ">"
	case afterChannelID == "":
		embed.Title, embed.Color = "🔇 Salió de un canal de voz", colorRemove
		embed.Description = "Salió de <#" + beforeChannelID + ">"
	default:
		embed.Title, embed.Color = "🔀 Cambió de canal de voz", colorEdit
		embed.Description = fmt.Sprintf("<#%s> → <#%s>", beforeChannelID, afterChannelID)
	}
	return embed
}
