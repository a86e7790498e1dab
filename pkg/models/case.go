package models

import "time"

// ActionKind identifica el tipo de acción registrada en un caso
type ActionKind string

const (
	ActionBan       ActionKind = "ban"
	ActionKick      ActionKind = "kick"
	ActionTimeout   ActionKind = "timeout"
	ActionWarn      ActionKind = "warn"
	ActionUnban     ActionKind = "unban"
	ActionUntimeout ActionKind = "untimeout"
)

// ActionKinds lists every recordable action in display order
var ActionKinds = []ActionKind{ActionWarn, ActionTimeout, ActionKick, ActionBan, ActionUntimeout, ActionUnban}

// Valid reports whether a is a known action kind
func (a ActionKind) Valid() bool {
	switch a {
	case ActionBan, ActionKick, ActionTimeout, ActionWarn, ActionUnban, ActionUntimeout:
		return true
	}
	return false
}

// ModerationCase representa una acción de moderación inmutable
type ModerationCase struct {
	ID              int        `json:"id"`
	GuildID         string     `json:"guildId"`
	TargetUserID    string     `json:"targetUserId"`
	TargetTag       string     `json:"targetTag"`
	ModeratorUserID string     `json:"moderatorUserId"`
	ModeratorTag    string     `json:"moderatorTag"`
	Action          ActionKind `json:"action"`
	Reason          string     `json:"reason"`
	DurationSeconds int64      `json:"durationSeconds,omitempty"`
	CreatedAt       time.Time  `json:"createdAt"`
}

// CaseLedger es el documento persistido por servidor: contador y casos en orden de creación
type CaseLedger struct {
	GuildID    string           `json:"guildId"`
	LastCaseID int              `json:"lastCaseId"`
	Cases      []ModerationCase `json:"cases"`
}
