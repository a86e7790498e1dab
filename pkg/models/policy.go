package models

import "time"

// EnforcementAction is the configured response of a policy rule
type EnforcementAction string

const (
	EnforceDelete     EnforcementAction = "delete"
	EnforceWarn       EnforcementAction = "warn"
	EnforceTimeout    EnforcementAction = "timeout"
	EnforceKick       EnforcementAction = "kick"
	EnforceBan        EnforcementAction = "ban"
	EnforceQuarantine EnforcementAction = "quarantine"
)

// AntiSpamPolicy configura la detección de spam y mensajes duplicados
type AntiSpamPolicy struct {
	Enabled            bool              `json:"enabled" yaml:"enabled"`
	MaxMessages        int               `json:"maxMessages" yaml:"maxMessages"`
	TimeWindowMs       int64             `json:"timeWindowMs" yaml:"timeWindowMs"`
	DuplicateThreshold int               `json:"duplicateThreshold" yaml:"duplicateThreshold"`
	Action             EnforcementAction `json:"action" yaml:"action"`
	TimeoutDurationMs  int64             `json:"timeoutDurationMs" yaml:"timeoutDurationMs"`
}

// TimeWindow returns the window as a time.Duration
func (p AntiSpamPolicy) TimeWindow() time.Duration {
	return time.Duration(p.TimeWindowMs) * time.Millisecond
}

// TimeoutDuration returns the timeout length as a time.Duration
func (p AntiSpamPolicy) TimeoutDuration() time.Duration {
	return time.Duration(p.TimeoutDurationMs) * time.Millisecond
}

// LinkFilterPolicy configura el filtro de enlaces
type LinkFilterPolicy struct {
	Enabled        bool              `json:"enabled" yaml:"enabled"`
	BlockInvites   bool              `json:"blockInvites" yaml:"blockInvites"`
	BlockAllLinks  bool              `json:"blockAllLinks" yaml:"blockAllLinks"`
	AllowedDomains []string          `json:"allowedDomains" yaml:"allowedDomains"`
	Action         EnforcementAction `json:"action" yaml:"action"`
}

// WordFilterPolicy configura el filtro de palabras
type WordFilterPolicy struct {
	Enabled bool              `json:"enabled" yaml:"enabled"`
	Words   []string          `json:"words" yaml:"words"`
	Action  EnforcementAction `json:"action" yaml:"action"`
}

// AccountAgePolicy configura el filtro de cuentas nuevas al unirse
type AccountAgePolicy struct {
	Enabled          bool              `json:"enabled" yaml:"enabled"`
	MinAgeDays       int               `json:"minAgeDays" yaml:"minAgeDays"`
	Action           EnforcementAction `json:"action" yaml:"action"`
	QuarantineRoleID string            `json:"quarantineRoleId,omitempty" yaml:"quarantineRoleId"`
}

// AutomodPolicy agrupa la configuración de automoderación de un servidor
type AutomodPolicy struct {
	GuildID       string           `json:"guildId" yaml:"-"`
	Enabled       bool             `json:"enabled" yaml:"enabled"`
	AntiSpam      AntiSpamPolicy   `json:"antiSpam" yaml:"antiSpam"`
	LinkFilter    LinkFilterPolicy `json:"linkFilter" yaml:"linkFilter"`
	WordFilter    WordFilterPolicy `json:"wordFilter" yaml:"wordFilter"`
	AccountAge    AccountAgePolicy `json:"accountAge" yaml:"accountAge"`
	ExemptRoleIDs []string         `json:"exemptRoleIds" yaml:"exemptRoleIds"`
}

// EscalationRule promotes a warning count into a stronger action
type EscalationRule struct {
	WarnThreshold     int               `json:"warnThreshold" yaml:"warnThreshold"`
	Action            EnforcementAction `json:"action" yaml:"action"`
	TimeoutDurationMs int64             `json:"timeoutDurationMs,omitempty" yaml:"timeoutDurationMs"`
}

// EscalationPolicy holds the per-guild strike rules, sorted by threshold
type EscalationPolicy struct {
	GuildID string           `json:"guildId" yaml:"-"`
	Enabled bool             `json:"enabled" yaml:"enabled"`
	Rules   []EscalationRule `json:"rules" yaml:"rules"`
}

// RaidPolicy configura la protección contra raids
type RaidPolicy struct {
	GuildID           string            `json:"guildId" yaml:"-"`
	Enabled           bool              `json:"enabled" yaml:"enabled"`
	JoinThreshold     int               `json:"joinThreshold" yaml:"joinThreshold"`
	TimeWindowMs      int64             `json:"timeWindowMs" yaml:"timeWindowMs"`
	Action            EnforcementAction `json:"action" yaml:"action"`
	QuarantineRoleID  string            `json:"quarantineRoleId,omitempty" yaml:"quarantineRoleId"`
	MinAccountAgeDays int               `json:"minAccountAgeDays" yaml:"minAccountAgeDays"`
	LockdownOnRaid    bool              `json:"lockdownOnRaid" yaml:"lockdownOnRaid"`
	AlertChannelID    string            `json:"alertChannelId,omitempty" yaml:"alertChannelId"`
}

// TimeWindow returns the join window as a time.Duration
func (p RaidPolicy) TimeWindow() time.Duration {
	return time.Duration(p.TimeWindowMs) * time.Millisecond
}

// RaidState is the durable raid status of a guild. Active=false is Idle.
type RaidState struct {
	GuildID      string    `json:"guildId"`
	Active       bool      `json:"active"`
	StartedAt    time.Time `json:"startedAt"`
	HandledCount int       `json:"handledCount"`
}

// RaidSummary is returned when an active raid is ended
type RaidSummary struct {
	DurationMs   int64 `json:"durationMs"`
	HandledCount int   `json:"handledCount"`
}
