package policy

import (
	"errors"
	"fmt"

	"github.com/PancyStudios/PancyGuard/pkg/models"
)

var (
	// ErrInvalidPolicy is returned when a patch would leave a policy out of range
	ErrInvalidPolicy = errors.New("invalid policy value")
	// ErrRuleNotFound is returned when removing an escalation rule that does not exist
	ErrRuleNotFound = errors.New("escalation rule not found")
	// ErrInvalidDomain is returned for domains that are not plain host names
	ErrInvalidDomain = errors.New("invalid domain")
)

// Ptr returns a pointer to v, handy for building patches
func Ptr[T any](v T) *T {
	return &v
}

// A nil field in a patch leaves the stored value untouched

type AntiSpamPatch struct {
	Enabled            *bool                     `json:"enabled,omitempty"`
	MaxMessages        *int                      `json:"maxMessages,omitempty"`
	TimeWindowMs       *int64                    `json:"timeWindowMs,omitempty"`
	DuplicateThreshold *int                      `json:"duplicateThreshold,omitempty"`
	Action             *models.EnforcementAction `json:"action,omitempty"`
	TimeoutDurationMs  *int64                    `json:"timeoutDurationMs,omitempty"`
}

type LinkFilterPatch struct {
	Enabled        *bool                     `json:"enabled,omitempty"`
	BlockInvites   *bool                     `json:"blockInvites,omitempty"`
	BlockAllLinks  *bool                     `json:"blockAllLinks,omitempty"`
	AllowedDomains *[]string                 `json:"allowedDomains,omitempty"`
	Action         *models.EnforcementAction `json:"action,omitempty"`
}

type WordFilterPatch struct {
	Enabled *bool                     `json:"enabled,omitempty"`
	Words   *[]string                 `json:"words,omitempty"`
	Action  *models.EnforcementAction `json:"action,omitempty"`
}

type AccountAgePatch struct {
	Enabled          *bool                     `json:"enabled,omitempty"`
	MinAgeDays       *int                      `json:"minAgeDays,omitempty"`
	Action           *models.EnforcementAction `json:"action,omitempty"`
	QuarantineRoleID *string                   `json:"quarantineRoleId,omitempty"`
}

// AutomodPatch is a partial AutomodPolicy. Nested patches merge field by field.
type AutomodPatch struct {
	Enabled       *bool            `json:"enabled,omitempty"`
	AntiSpam      *AntiSpamPatch   `json:"antiSpam,omitempty"`
	LinkFilter    *LinkFilterPatch `json:"linkFilter,omitempty"`
	WordFilter    *WordFilterPatch `json:"wordFilter,omitempty"`
	AccountAge    *AccountAgePatch `json:"accountAge,omitempty"`
	ExemptRoleIDs *[]string        `json:"exemptRoleIds,omitempty"`
}

// RaidPatch is a partial RaidPolicy
type RaidPatch struct {
	Enabled           *bool                     `json:"enabled,omitempty"`
	JoinThreshold     *int                      `json:"joinThreshold,omitempty"`
	TimeWindowMs      *int64                    `json:"timeWindowMs,omitempty"`
	Action            *models.EnforcementAction `json:"action,omitempty"`
	QuarantineRoleID  *string                   `json:"quarantineRoleId,omitempty"`
	MinAccountAgeDays *int                      `json:"minAccountAgeDays,omitempty"`
	LockdownOnRaid    *bool                     `json:"lockdownOnRaid,omitempty"`
	AlertChannelID    *string                   `json:"alertChannelId,omitempty"`
}

func set[T any](dst *T, src *T) {
	if src != nil {
		*dst = *src
	}
}

func setSlice(dst *[]string, src *[]string) {
	if src != nil {
		*dst = cloneStrings(*src)
	}
}

// Apply merges the patch into p
func (patch AutomodPatch) Apply(p *models.AutomodPolicy) {
	set(&p.Enabled, patch.Enabled)
	if s := patch.AntiSpam; s != nil {
		set(&p.AntiSpam.Enabled, s.Enabled)
		set(&p.AntiSpam.MaxMessages, s.MaxMessages)
		set(&p.AntiSpam.TimeWindowMs, s.TimeWindowMs)
		set(&p.AntiSpam.DuplicateThreshold, s.DuplicateThreshold)
		set(&p.AntiSpam.Action, s.Action)
		set(&p.AntiSpam.TimeoutDurationMs, s.TimeoutDurationMs)
	}
	if l := patch.LinkFilter; l != nil {
		set(&p.LinkFilter.Enabled, l.Enabled)
		set(&p.LinkFilter.BlockInvites, l.BlockInvites)
		set(&p.LinkFilter.BlockAllLinks, l.BlockAllLinks)
		setSlice(&p.LinkFilter.AllowedDomains, l.AllowedDomains)
		set(&p.LinkFilter.Action, l.Action)
	}
	if w := patch.WordFilter; w != nil {
		set(&p.WordFilter.Enabled, w.Enabled)
		setSlice(&p.WordFilter.Words, w.Words)
		set(&p.WordFilter.Action, w.Action)
	}
	if a := patch.AccountAge; a != nil {
		set(&p.AccountAge.Enabled, a.Enabled)
		set(&p.AccountAge.MinAgeDays, a.MinAgeDays)
		set(&p.AccountAge.Action, a.Action)
		set(&p.AccountAge.QuarantineRoleID, a.QuarantineRoleID)
	}
	setSlice(&p.ExemptRoleIDs, patch.ExemptRoleIDs)
}

// Apply merges the patch into p
func (patch RaidPatch) Apply(p *models.RaidPolicy) {
	set(&p.Enabled, patch.Enabled)
	set(&p.JoinThreshold, patch.JoinThreshold)
	set(&p.TimeWindowMs, patch.TimeWindowMs)
	set(&p.Action, patch.Action)
	set(&p.QuarantineRoleID, patch.QuarantineRoleID)
	set(&p.MinAccountAgeDays, patch.MinAccountAgeDays)
	set(&p.LockdownOnRaid, patch.LockdownOnRaid)
	set(&p.AlertChannelID, patch.AlertChannelID)
}

func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidPolicy, fmt.Sprintf(format, args...))
}

func oneOf(action models.EnforcementAction, allowed ...models.EnforcementAction) bool {
	for _, a := range allowed {
		if action == a {
			return true
		}
	}
	return false
}

func validateAutomod(p models.AutomodPolicy) error {
	messageActions := []models.EnforcementAction{models.EnforceDelete, models.EnforceWarn, models.EnforceTimeout, models.EnforceKick}

	if p.AntiSpam.MaxMessages < 1 {
		return invalid("antiSpam.maxMessages debe ser mayor que 0")
	}
	if p.AntiSpam.TimeWindowMs < 1 {
		return invalid("antiSpam.timeWindowMs debe ser mayor que 0")
	}
	if p.AntiSpam.DuplicateThreshold < 1 {
		return invalid("antiSpam.duplicateThreshold debe ser mayor que 0")
	}
	if p.AntiSpam.TimeoutDurationMs < 0 {
		return invalid("antiSpam.timeoutDurationMs no puede ser negativo")
	}
	if !oneOf(p.AntiSpam.Action, messageActions...) {
		return invalid("antiSpam.action %q", p.AntiSpam.Action)
	}
	if !oneOf(p.LinkFilter.Action, messageActions...) {
		return invalid("linkFilter.action %q", p.LinkFilter.Action)
	}
	if !oneOf(p.WordFilter.Action, messageActions...) {
		return invalid("wordFilter.action %q", p.WordFilter.Action)
	}
	if p.AccountAge.MinAgeDays < 0 {
		return invalid("accountAge.minAgeDays no puede ser negativo")
	}
	if !oneOf(p.AccountAge.Action, models.EnforceKick, models.EnforceQuarantine) {
		return invalid("accountAge.action %q", p.AccountAge.Action)
	}
	return nil
}

func validateRaid(p models.RaidPolicy) error {
	if p.JoinThreshold < 1 {
		return invalid("raid.joinThreshold debe ser mayor que 0")
	}
	if p.TimeWindowMs < 1 {
		return invalid("raid.timeWindowMs debe ser mayor que 0")
	}
	if p.MinAccountAgeDays < 0 {
		return invalid("raid.minAccountAgeDays no puede ser negativo")
	}
	if !oneOf(p.Action, models.EnforceKick, models.EnforceBan, models.EnforceQuarantine) {
		return invalid("raid.action %q", p.Action)
	}
	return nil
}

func validateRule(rule models.EscalationRule) error {
	if rule.WarnThreshold < 1 {
		return invalid("warnThreshold debe ser mayor que 0")
	}
	if !oneOf(rule.Action, models.EnforceTimeout, models.EnforceKick, models.EnforceBan) {
		return invalid("escalation action %q", rule.Action)
	}
	if rule.TimeoutDurationMs < 0 {
		return invalid("timeoutDurationMs no puede ser negativo")
	}
	return nil
}
