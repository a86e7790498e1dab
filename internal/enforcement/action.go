package enforcement

import (
	"fmt"
	"time"

	"github.com/PancyStudios/PancyGuard/internal/ledger"
	"github.com/PancyStudios/PancyGuard/pkg/models"
)

// Kind is the closed set of actions the executor knows how to apply
type Kind int

const (
	KindDelete Kind = iota + 1
	KindWarn
	KindTimeout
	KindUntimeout
	KindKick
	KindBan
	KindUnban
	KindQuarantine
)

func (k Kind) String() string {
	switch k {
	case KindDelete:
		return "delete"
	case KindWarn:
		return "warn"
	case KindTimeout:
		return "timeout"
	case KindUntimeout:
		return "untimeout"
	case KindKick:
		return "kick"
	case KindBan:
		return "ban"
	case KindUnban:
		return "unban"
	case KindQuarantine:
		return "quarantine"
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// caseAction is the ledger action recorded for the kind, if any
func (k Kind) caseAction() (models.ActionKind, bool) {
	switch k {
	case KindWarn:
		return models.ActionWarn, true
	case KindTimeout:
		return models.ActionTimeout, true
	case KindUntimeout:
		return models.ActionUntimeout, true
	case KindKick:
		return models.ActionKick, true
	case KindBan:
		return models.ActionBan, true
	case KindUnban:
		return models.ActionUnban, true
	}
	return "", false
}

// KindFor maps a configured policy action to an executor kind
func KindFor(a models.EnforcementAction) (Kind, bool) {
	switch a {
	case models.EnforceDelete:
		return KindDelete, true
	case models.EnforceWarn:
		return KindWarn, true
	case models.EnforceTimeout:
		return KindTimeout, true
	case models.EnforceKick:
		return KindKick, true
	case models.EnforceBan:
		return KindBan, true
	case models.EnforceQuarantine:
		return KindQuarantine, true
	}
	return 0, false
}

// Action is one moderation decision
type Action struct {
	Kind     Kind
	Reason   string
	Duration time.Duration
	RoleID   string
	// Notice is sent to the target by DM. Empty skips the DM.
	Notice            string
	DeleteMessageDays int
}

// Target is the member (and optionally the message) an action applies to
type Target struct {
	GuildID   string
	UserID    string
	Tag       string
	ChannelID string
	MessageID string
}

func (t Target) hasMessage() bool {
	return t.ChannelID != "" && t.MessageID != ""
}

func (t Target) party() ledger.Party {
	return ledger.Party{ID: t.UserID, Tag: t.Tag}
}

// Synthetic moderators used for automatic cases
var (
	AutoMod          = ledger.Party{Tag: "AutoMod"}
	StrikeEscalation = ledger.Party{Tag: "StrikeEscalation"}
	RaidProtection   = ledger.Party{Tag: "RaidProtection"}
)

// System returns a synthetic moderator acting through the bot account
func System(p ledger.Party, botUserID string) ledger.Party {
	p.ID = botUserID
	return p
}
