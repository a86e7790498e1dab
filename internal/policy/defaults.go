// Package policy stores the per-guild automod, escalation and raid configuration.
// Reads never fail for a guild without a record: stored fields are laid over defaults.
package policy

import (
	"fmt"
	"os"
	"time"

	"github.com/PancyStudios/PancyGuard/pkg/models"
	"gopkg.in/yaml.v3"
)

// Defaults is the policy set used for guilds that have not configured a field
type Defaults struct {
	Automod    models.AutomodPolicy    `yaml:"automod"`
	Escalation models.EscalationPolicy `yaml:"escalation"`
	Raid       models.RaidPolicy       `yaml:"raid"`
}

// BuiltinDefaults returns the compiled-in defaults
func BuiltinDefaults() Defaults {
	return Defaults{
		Automod: models.AutomodPolicy{
			Enabled: false,
			AntiSpam: models.AntiSpamPolicy{
				Enabled:            true,
				MaxMessages:        5,
				TimeWindowMs:       5000,
				DuplicateThreshold: 3,
				Action:             models.EnforceTimeout,
				TimeoutDurationMs:  int64(5 * time.Minute / time.Millisecond),
			},
			LinkFilter: models.LinkFilterPolicy{
				Enabled:        false,
				BlockInvites:   true,
				BlockAllLinks:  false,
				AllowedDomains: []string{},
				Action:         models.EnforceDelete,
			},
			WordFilter: models.WordFilterPolicy{
				Enabled: false,
				Words:   []string{},
				Action:  models.EnforceDelete,
			},
			AccountAge: models.AccountAgePolicy{
				Enabled:    false,
				MinAgeDays: 7,
				Action:     models.EnforceKick,
			},
			ExemptRoleIDs: []string{},
		},
		Escalation: models.EscalationPolicy{
			Enabled: false,
			Rules: []models.EscalationRule{
				{WarnThreshold: 3, Action: models.EnforceTimeout, TimeoutDurationMs: int64(time.Hour / time.Millisecond)},
				{WarnThreshold: 5, Action: models.EnforceTimeout, TimeoutDurationMs: int64(24 * time.Hour / time.Millisecond)},
				{WarnThreshold: 7, Action: models.EnforceKick},
				{WarnThreshold: 10, Action: models.EnforceBan},
			},
		},
		Raid: models.RaidPolicy{
			Enabled:           false,
			JoinThreshold:     10,
			TimeWindowMs:      10000,
			Action:            models.EnforceKick,
			MinAccountAgeDays: 7,
			LockdownOnRaid:    false,
		},
	}
}

// LoadDefaults overlays a YAML file on the builtin defaults. An empty path returns the builtins.
func LoadDefaults(path string) (Defaults, error) {
	defaults := BuiltinDefaults()
	if path == "" {
		return defaults, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return defaults, fmt.Errorf("reading policy defaults: %w", err)
	}
	if err := yaml.Unmarshal(data, &defaults); err != nil {
		return BuiltinDefaults(), fmt.Errorf("parsing policy defaults: %w", err)
	}

	if err := validateAutomod(defaults.Automod); err != nil {
		return BuiltinDefaults(), err
	}
	if err := validateRaid(defaults.Raid); err != nil {
		return BuiltinDefaults(), err
	}
	for _, rule := range defaults.Escalation.Rules {
		if err := validateRule(rule); err != nil {
			return BuiltinDefaults(), err
		}
	}
	defaults.Escalation.Rules = normalizeRules(defaults.Escalation.Rules)
	return defaults, nil
}

// The functions below hand out deep copies so callers can mutate freely

func (d Defaults) automod() models.AutomodPolicy {
	p := d.Automod
	p.LinkFilter.AllowedDomains = cloneStrings(p.LinkFilter.AllowedDomains)
	p.WordFilter.Words = cloneStrings(p.WordFilter.Words)
	p.ExemptRoleIDs = cloneStrings(p.ExemptRoleIDs)
	return p
}

func (d Defaults) escalation() models.EscalationPolicy {
	p := d.Escalation
	p.Rules = append([]models.EscalationRule{}, p.Rules...)
	return p
}

func (d Defaults) raid() models.RaidPolicy {
	return d.Raid
}

func cloneStrings(in []string) []string {
	return append([]string{}, in...)
}
