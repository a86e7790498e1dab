package policy

import (
	"context"
	"fmt"
	"regexp"
	"slices"
	"sort"
	"strings"

	"github.com/PancyStudios/PancyGuard/pkg/database"
	"github.com/PancyStudios/PancyGuard/pkg/models"
	"github.com/dgraph-io/ristretto"
)

// Collection names used in the document store
const (
	AutomodCollection    = "automod_config"
	EscalationCollection = "escalation_config"
	RaidCollection       = "raid_config"
)

var domainPattern = regexp.MustCompile(`^([a-z0-9]([a-z0-9-]*[a-z0-9])?\.)+[a-z][a-z0-9-]*[a-z0-9]$`)

// Store is the guild policy store
type Store struct {
	automod    *database.DataManager[models.AutomodPolicy]
	escalation *database.DataManager[models.EscalationPolicy]
	raid       *database.DataManager[models.RaidPolicy]
	defaults   Defaults
}

// NewStore creates a Store over a document store. cache may be nil.
func NewStore(store database.DocumentStore, cache *ristretto.Cache, opts database.DataManagerOptions, defaults Defaults) *Store {
	return &Store{
		automod:    database.NewDataManager[models.AutomodPolicy](AutomodCollection, store, cache, opts),
		escalation: database.NewDataManager[models.EscalationPolicy](EscalationCollection, store, cache, opts),
		raid:       database.NewDataManager[models.RaidPolicy](RaidCollection, store, cache, opts),
		defaults:   defaults,
	}
}

// Defaults returns the defaults the store falls back to
func (s *Store) Defaults() Defaults {
	return s.defaults
}

func (s *Store) automodDefaults(guildID string) func() models.AutomodPolicy {
	return func() models.AutomodPolicy {
		p := s.defaults.automod()
		p.GuildID = guildID
		return p
	}
}

func (s *Store) escalationDefaults(guildID string) func() models.EscalationPolicy {
	return func() models.EscalationPolicy {
		p := s.defaults.escalation()
		p.GuildID = guildID
		return p
	}
}

func (s *Store) raidDefaults(guildID string) func() models.RaidPolicy {
	return func() models.RaidPolicy {
		p := s.defaults.raid()
		p.GuildID = guildID
		return p
	}
}

// Automod returns the automod policy of a guild
func (s *Store) Automod(ctx context.Context, guildID string) (models.AutomodPolicy, error) {
	return s.automod.Get(ctx, guildID, s.automodDefaults(guildID))
}

// UpdateAutomod deep-merges patch into the stored policy. Invalid results are not saved.
func (s *Store) UpdateAutomod(ctx context.Context, guildID string, patch AutomodPatch) (models.AutomodPolicy, error) {
	return s.mutateAutomod(ctx, guildID, func(p *models.AutomodPolicy) error {
		patch.Apply(p)
		return nil
	})
}

func (s *Store) mutateAutomod(ctx context.Context, guildID string, mutate func(p *models.AutomodPolicy) error) (models.AutomodPolicy, error) {
	return s.automod.Update(ctx, guildID, s.automodDefaults(guildID), func(p *models.AutomodPolicy) error {
		if err := mutate(p); err != nil {
			return err
		}
		p.GuildID = guildID
		return validateAutomod(*p)
	})
}

// AddFilteredWord adds a lowercased word. Returns false when it was already present.
func (s *Store) AddFilteredWord(ctx context.Context, guildID, word string) (bool, error) {
	word = strings.ToLower(strings.TrimSpace(word))
	if word == "" {
		return false, invalid("la palabra no puede estar vacía")
	}
	added := false
	_, err := s.mutateAutomod(ctx, guildID, func(p *models.AutomodPolicy) error {
		p.WordFilter.Words, added = addUnique(p.WordFilter.Words, word)
		return nil
	})
	return added, err
}

// RemoveFilteredWord removes a word. Returns false when it was not present.
func (s *Store) RemoveFilteredWord(ctx context.Context, guildID, word string) (bool, error) {
	word = strings.ToLower(strings.TrimSpace(word))
	removed := false
	_, err := s.mutateAutomod(ctx, guildID, func(p *models.AutomodPolicy) error {
		p.WordFilter.Words, removed = remove(p.WordFilter.Words, word)
		return nil
	})
	return removed, err
}

// NormalizeDomain lowercases a domain and checks that it is a bare host name
func NormalizeDomain(domain string) (string, error) {
	d := strings.TrimSuffix(strings.ToLower(strings.TrimSpace(domain)), ".")
	if len(d) > 253 || !domainPattern.MatchString(d) {
		return "", fmt.Errorf("%w: %q", ErrInvalidDomain, domain)
	}
	return d, nil
}

// AddAllowedDomain adds a domain to the link filter allow list
func (s *Store) AddAllowedDomain(ctx context.Context, guildID, domain string) (bool, error) {
	d, err := NormalizeDomain(domain)
	if err != nil {
		return false, err
	}
	added := false
	_, err = s.mutateAutomod(ctx, guildID, func(p *models.AutomodPolicy) error {
		p.LinkFilter.AllowedDomains, added = addUnique(p.LinkFilter.AllowedDomains, d)
		return nil
	})
	return added, err
}

// RemoveAllowedDomain removes a domain from the allow list
func (s *Store) RemoveAllowedDomain(ctx context.Context, guildID, domain string) (bool, error) {
	d := strings.TrimSuffix(strings.ToLower(strings.TrimSpace(domain)), ".")
	removed := false
	_, err := s.mutateAutomod(ctx, guildID, func(p *models.AutomodPolicy) error {
		p.LinkFilter.AllowedDomains, removed = remove(p.LinkFilter.AllowedDomains, d)
		return nil
	})
	return removed, err
}

// AddExemptRole exempts a role from automod
func (s *Store) AddExemptRole(ctx context.Context, guildID, roleID string) (bool, error) {
	added := false
	_, err := s.mutateAutomod(ctx, guildID, func(p *models.AutomodPolicy) error {
		p.ExemptRoleIDs, added = addUnique(p.ExemptRoleIDs, roleID)
		return nil
	})
	return added, err
}

// RemoveExemptRole removes an automod exemption
func (s *Store) RemoveExemptRole(ctx context.Context, guildID, roleID string) (bool, error) {
	removed := false
	_, err := s.mutateAutomod(ctx, guildID, func(p *models.AutomodPolicy) error {
		p.ExemptRoleIDs, removed = remove(p.ExemptRoleIDs, roleID)
		return nil
	})
	return removed, err
}

// Escalation returns the escalation policy of a guild, rules sorted by threshold
func (s *Store) Escalation(ctx context.Context, guildID string) (models.EscalationPolicy, error) {
	p, err := s.escalation.Get(ctx, guildID, s.escalationDefaults(guildID))
	if err != nil {
		return p, err
	}
	p.Rules = normalizeRules(p.Rules)
	return p, nil
}

func (s *Store) mutateEscalation(ctx context.Context, guildID string, mutate func(p *models.EscalationPolicy) error) (models.EscalationPolicy, error) {
	return s.escalation.Update(ctx, guildID, s.escalationDefaults(guildID), func(p *models.EscalationPolicy) error {
		if err := mutate(p); err != nil {
			return err
		}
		p.GuildID = guildID
		p.Rules = normalizeRules(p.Rules)
		return nil
	})
}

// SetEscalationEnabled toggles strike escalation
func (s *Store) SetEscalationEnabled(ctx context.Context, guildID string, enabled bool) (models.EscalationPolicy, error) {
	return s.mutateEscalation(ctx, guildID, func(p *models.EscalationPolicy) error {
		p.Enabled = enabled
		return nil
	})
}

// SetEscalationRule adds a rule or replaces the one with the same threshold
func (s *Store) SetEscalationRule(ctx context.Context, guildID string, rule models.EscalationRule) (models.EscalationPolicy, error) {
	if err := validateRule(rule); err != nil {
		return models.EscalationPolicy{}, err
	}
	if rule.Action != models.EnforceTimeout {
		rule.TimeoutDurationMs = 0
	}
	return s.mutateEscalation(ctx, guildID, func(p *models.EscalationPolicy) error {
		p.Rules = slices.DeleteFunc(p.Rules, func(r models.EscalationRule) bool {
			return r.WarnThreshold == rule.WarnThreshold
		})
		p.Rules = append(p.Rules, rule)
		return nil
	})
}

// RemoveEscalationRule deletes the rule for a threshold or returns ErrRuleNotFound
func (s *Store) RemoveEscalationRule(ctx context.Context, guildID string, warnThreshold int) (models.EscalationPolicy, error) {
	return s.mutateEscalation(ctx, guildID, func(p *models.EscalationPolicy) error {
		before := len(p.Rules)
		p.Rules = slices.DeleteFunc(p.Rules, func(r models.EscalationRule) bool {
			return r.WarnThreshold == warnThreshold
		})
		if len(p.Rules) == before {
			return fmt.Errorf("%w: %d advertencias", ErrRuleNotFound, warnThreshold)
		}
		return nil
	})
}

// ResetEscalationRules restores the default rules, keeping the enabled flag
func (s *Store) ResetEscalationRules(ctx context.Context, guildID string) (models.EscalationPolicy, error) {
	return s.mutateEscalation(ctx, guildID, func(p *models.EscalationPolicy) error {
		p.Rules = s.defaults.escalation().Rules
		return nil
	})
}

// Raid returns the raid policy of a guild
func (s *Store) Raid(ctx context.Context, guildID string) (models.RaidPolicy, error) {
	return s.raid.Get(ctx, guildID, s.raidDefaults(guildID))
}

// UpdateRaid merges patch into the stored raid policy
func (s *Store) UpdateRaid(ctx context.Context, guildID string, patch RaidPatch) (models.RaidPolicy, error) {
	return s.raid.Update(ctx, guildID, s.raidDefaults(guildID), func(p *models.RaidPolicy) error {
		patch.Apply(p)
		p.GuildID = guildID
		return validateRaid(*p)
	})
}

func normalizeRules(rules []models.EscalationRule) []models.EscalationRule {
	out := append([]models.EscalationRule{}, rules...)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].WarnThreshold < out[j].WarnThreshold
	})
	return out
}

func addUnique(list []string, value string) ([]string, bool) {
	if slices.Contains(list, value) {
		return list, false
	}
	return append(list, value), true
}

func remove(list []string, value string) ([]string, bool) {
	before := len(list)
	list = slices.DeleteFunc(list, func(v string) bool { return v == value })
	return list, len(list) != before
}
