// Package enforcement applies moderation decisions against the chat platform.
// The platform is reached only through the capability interfaces declared here.
package enforcement

import (
	"context"
	"errors"
	"time"
)

var (
	// ErrPermissionDenied is returned by platform calls the bot lacks permissions for
	ErrPermissionDenied = errors.New("permission denied")
	// ErrMemberNotFound is returned when the user is not a member of the guild
	ErrMemberNotFound = errors.New("member not found")
)

// Member is the directory view of a guild member
type Member struct {
	GuildID       string
	UserID        string
	Tag           string
	RoleIDs       []string
	Administrator bool
	Bot           bool
	CreatedAt     time.Time
}

// Directory resolves guild members
type Directory interface {
	Member(ctx context.Context, guildID, userID string) (Member, error)
}

// Enforcer exposes the moderation primitives of the platform
type Enforcer interface {
	DeleteMessage(ctx context.Context, channelID, messageID string) error
	Timeout(ctx context.Context, guildID, userID string, until time.Time, reason string) error
	RemoveTimeout(ctx context.Context, guildID, userID string) error
	Kick(ctx context.Context, guildID, userID, reason string) error
	Ban(ctx context.Context, guildID, userID, reason string, deleteMessageDays int) error
	Unban(ctx context.Context, guildID, userID string) error
	AddRole(ctx context.Context, guildID, userID, roleID string) error
	RemoveRole(ctx context.Context, guildID, userID, roleID string) error
}

// NotifyResult classifies a direct message attempt
type NotifyResult int

const (
	NotifyUnknown NotifyResult = iota
	NotifyDelivered
	NotifyUndeliverable
)

func (r NotifyResult) String() string {
	switch r {
	case NotifyDelivered:
		return "delivered"
	case NotifyUndeliverable:
		return "undeliverable"
	default:
		return "unknown"
	}
}

// Notifier sends direct messages. It never fails, the result says what happened.
type Notifier interface {
	Notify(ctx context.Context, userID, content string) NotifyResult
}
