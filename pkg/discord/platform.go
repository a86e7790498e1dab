package discord

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/PancyStudios/PancyGuard/internal/enforcement"
	"github.com/PancyStudios/PancyGuard/pkg/logger"
	"github.com/bwmarrin/discordgo"
)

// Platform adapts a discordgo session to the moderation capability interfaces
type Platform struct {
	session *discordgo.Session
}

var (
	_ enforcement.Enforcer  = (*Platform)(nil)
	_ enforcement.Notifier  = (*Platform)(nil)
	_ enforcement.Directory = (*Platform)(nil)
)

// NewPlatform wraps the client session
func NewPlatform(c *ExtendedClient) *Platform {
	return &Platform{session: c.Session}
}

// classify maps Discord REST failures onto the enforcement sentinel errors
func classify(err error) error {
	if err == nil {
		return nil
	}
	var rest *discordgo.RESTError
	if !errors.As(err, &rest) {
		return err
	}
	if rest.Message != nil {
		switch rest.Message.Code {
		case discordgo.ErrCodeMissingPermissions, discordgo.ErrCodeMissingAccess:
			return fmt.Errorf("%w: %v", enforcement.ErrPermissionDenied, err)
		case discordgo.ErrCodeUnknownMember, discordgo.ErrCodeUnknownUser:
			return fmt.Errorf("%w: %v", enforcement.ErrMemberNotFound, err)
		}
	}
	if rest.Response != nil && rest.Response.StatusCode == http.StatusForbidden {
		return fmt.Errorf("%w: %v", enforcement.ErrPermissionDenied, err)
	}
	return err
}

func withContext(ctx context.Context, reason string) []discordgo.RequestOption {
	opts := []discordgo.RequestOption{discordgo.WithContext(ctx)}
	if reason != "" {
		opts = append(opts, discordgo.WithAuditLogReason(reason))
	}
	return opts
}

// Member resolves a guild member, preferring the state cache
func (p *Platform) Member(ctx context.Context, guildID, userID string) (enforcement.Member, error) {
	m, err := p.session.State.Member(guildID, userID)
	if err != nil {
		m, err = p.session.GuildMember(guildID, userID, discordgo.WithContext(ctx))
		if err != nil {
			return enforcement.Member{}, classify(err)
		}
	}

	created, _ := discordgo.SnowflakeTimestamp(userID)
	out := enforcement.Member{
		GuildID:       guildID,
		UserID:        userID,
		RoleIDs:       m.Roles,
		Administrator: p.isAdministrator(guildID, userID, m.Roles),
		CreatedAt:     created,
	}
	if m.User != nil {
		out.Tag = m.User.String()
		out.Bot = m.User.Bot
	}
	return out, nil
}

// isAdministrator reports guild ownership or any role granting Administrator
func (p *Platform) isAdministrator(guildID, userID string, roleIDs []string) bool {
	guild, err := p.session.State.Guild(guildID)
	if err != nil {
		return false
	}
	if guild.OwnerID == userID {
		return true
	}
	for _, id := range roleIDs {
		role, err := p.session.State.Role(guildID, id)
		if err != nil {
			continue
		}
		if role.Permissions&discordgo.PermissionAdministrator != 0 {
			return true
		}
	}
	return false
}

func (p *Platform) DeleteMessage(ctx context.Context, channelID, messageID string) error {
	return classify(p.session.ChannelMessageDelete(channelID, messageID, discordgo.WithContext(ctx)))
}

func (p *Platform) Timeout(ctx context.Context, guildID, userID string, until time.Time, reason string) error {
	return classify(p.session.GuildMemberTimeout(guildID, userID, &until, withContext(ctx, reason)...))
}

func (p *Platform) RemoveTimeout(ctx context.Context, guildID, userID string) error {
	return classify(p.session.GuildMemberTimeout(guildID, userID, nil, discordgo.WithContext(ctx)))
}

func (p *Platform) Kick(ctx context.Context, guildID, userID, reason string) error {
	return classify(p.session.GuildMemberDeleteWithReason(guildID, userID, reason, discordgo.WithContext(ctx)))
}

func (p *Platform) Ban(ctx context.Context, guildID, userID, reason string, deleteMessageDays int) error {
	return classify(p.session.GuildBanCreateWithReason(guildID, userID, reason, deleteMessageDays, discordgo.WithContext(ctx)))
}

func (p *Platform) Unban(ctx context.Context, guildID, userID string) error {
	return classify(p.session.GuildBanDelete(guildID, userID, discordgo.WithContext(ctx)))
}

func (p *Platform) AddRole(ctx context.Context, guildID, userID, roleID string) error {
	return classify(p.session.GuildMemberRoleAdd(guildID, userID, roleID, discordgo.WithContext(ctx)))
}

func (p *Platform) RemoveRole(ctx context.Context, guildID, userID, roleID string) error {
	return classify(p.session.GuildMemberRoleRemove(guildID, userID, roleID, discordgo.WithContext(ctx)))
}

// Notify opens a DM channel and sends content. Closed DMs are reported, never returned.
func (p *Platform) Notify(ctx context.Context, userID, content string) enforcement.NotifyResult {
	channel, err := p.session.UserChannelCreate(userID, discordgo.WithContext(ctx))
	if err == nil {
		_, err = p.session.ChannelMessageSend(channel.ID, content, discordgo.WithContext(ctx))
	}
	if err == nil {
		return enforcement.NotifyDelivered
	}

	var rest *discordgo.RESTError
	if errors.As(err, &rest) && rest.Message != nil && rest.Message.Code == discordgo.ErrCodeCannotSendMessagesToThisUser {
		return enforcement.NotifyUndeliverable
	}
	logger.Debug(fmt.Sprintf("DM a %s falló: %v", userID, err), "Platform")
	return enforcement.NotifyUnknown
}
