package policy

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/PancyStudios/PancyGuard/pkg/database"
	"github.com/PancyStudios/PancyGuard/pkg/models"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	cache, err := database.NewCache(1 << 20)
	if err != nil {
		t.Fatalf("NewCache() error = %v", err)
	}
	t.Cleanup(cache.Close)
	return NewStore(database.NewMemoryStore(), cache, database.DefaultDataManagerOptions(), BuiltinDefaults())
}

func TestMissingGuildGetsDefaults(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	p, err := s.Automod(ctx, "g1")
	if err != nil {
		t.Fatalf("Automod() error = %v", err)
	}
	if p.GuildID != "g1" || p.Enabled {
		t.Errorf("unexpected policy header %+v", p)
	}
	want := models.AntiSpamPolicy{Enabled: true, MaxMessages: 5, TimeWindowMs: 5000, DuplicateThreshold: 3, Action: models.EnforceTimeout, TimeoutDurationMs: 300000}
	if p.AntiSpam != want {
		t.Errorf("AntiSpam = %+v, want %+v", p.AntiSpam, want)
	}
	if !p.LinkFilter.BlockInvites || p.LinkFilter.Action != models.EnforceDelete {
		t.Errorf("LinkFilter = %+v", p.LinkFilter)
	}
	if p.AccountAge.MinAgeDays != 7 || p.AccountAge.Action != models.EnforceKick {
		t.Errorf("AccountAge = %+v", p.AccountAge)
	}

	esc, err := s.Escalation(ctx, "g1")
	if err != nil {
		t.Fatalf("Escalation() error = %v", err)
	}
	if len(esc.Rules) != 4 || esc.Rules[0].WarnThreshold != 3 || esc.Rules[3].Action != models.EnforceBan {
		t.Errorf("Rules = %+v", esc.Rules)
	}

	raid, err := s.Raid(ctx, "g1")
	if err != nil {
		t.Fatalf("Raid() error = %v", err)
	}
	if raid.JoinThreshold != 10 || raid.TimeWindowMs != 10000 || raid.MinAccountAgeDays != 7 {
		t.Errorf("Raid = %+v", raid)
	}
}

func TestNestedPatchKeepsSiblingFields(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	if _, err := s.UpdateAutomod(ctx, "g1", AutomodPatch{AntiSpam: &AntiSpamPatch{MaxMessages: Ptr(8)}}); err != nil {
		t.Fatalf("UpdateAutomod() error = %v", err)
	}
	p, err := s.UpdateAutomod(ctx, "g1", AutomodPatch{AntiSpam: &AntiSpamPatch{Enabled: Ptr(false)}})
	if err != nil {
		t.Fatalf("UpdateAutomod() error = %v", err)
	}

	if p.AntiSpam.Enabled {
		t.Error("antiSpam.enabled should be false")
	}
	if p.AntiSpam.MaxMessages != 8 || p.AntiSpam.TimeWindowMs != 5000 || p.AntiSpam.DuplicateThreshold != 3 {
		t.Errorf("sibling fields changed: %+v", p.AntiSpam)
	}
	if !p.LinkFilter.BlockInvites {
		t.Error("unrelated sub-policy changed")
	}
}

func TestIndependentPatchesCommute(t *testing.T) {
	a := AutomodPatch{Enabled: Ptr(true), WordFilter: &WordFilterPatch{Action: Ptr(models.EnforceWarn)}}
	b := AutomodPatch{LinkFilter: &LinkFilterPatch{BlockAllLinks: Ptr(true)}, AntiSpam: &AntiSpamPatch{TimeWindowMs: Ptr(int64(8000))}}

	ctx := context.Background()
	s1 := newTestStore(t)
	s2 := newTestStore(t)

	for _, patch := range []AutomodPatch{a, b} {
		if _, err := s1.UpdateAutomod(ctx, "g", patch); err != nil {
			t.Fatal(err)
		}
	}
	for _, patch := range []AutomodPatch{b, a} {
		if _, err := s2.UpdateAutomod(ctx, "g", patch); err != nil {
			t.Fatal(err)
		}
	}

	p1, _ := s1.Automod(ctx, "g")
	p2, _ := s2.Automod(ctx, "g")
	if !reflect.DeepEqual(p1, p2) {
		t.Errorf("patch order changed the result:\n%+v\n%+v", p1, p2)
	}
	if !p1.Enabled || p1.WordFilter.Action != models.EnforceWarn || !p1.LinkFilter.BlockAllLinks || p1.AntiSpam.TimeWindowMs != 8000 {
		t.Errorf("patches not applied: %+v", p1)
	}
}

func TestInvalidPatchIsNotSaved(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	_, err := s.UpdateAutomod(ctx, "g1", AutomodPatch{AntiSpam: &AntiSpamPatch{MaxMessages: Ptr(0)}})
	if !errors.Is(err, ErrInvalidPolicy) {
		t.Fatalf("error = %v, want ErrInvalidPolicy", err)
	}
	p, _ := s.Automod(ctx, "g1")
	if p.AntiSpam.MaxMessages != 5 {
		t.Errorf("MaxMessages = %d, want 5", p.AntiSpam.MaxMessages)
	}

	if _, err := s.UpdateRaid(ctx, "g1", RaidPatch{Action: Ptr(models.EnforceWarn)}); !errors.Is(err, ErrInvalidPolicy) {
		t.Errorf("raid warn action error = %v, want ErrInvalidPolicy", err)
	}
}

func TestWordList(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	added, err := s.AddFilteredWord(ctx, "g1", "  BadWord ")
	if err != nil || !added {
		t.Fatalf("AddFilteredWord() = %v, %v", added, err)
	}
	if added, _ := s.AddFilteredWord(ctx, "g1", "badword"); added {
		t.Error("duplicate word was added")
	}
	p, _ := s.Automod(ctx, "g1")
	if len(p.WordFilter.Words) != 1 || p.WordFilter.Words[0] != "badword" {
		t.Errorf("Words = %v", p.WordFilter.Words)
	}

	if removed, _ := s.RemoveFilteredWord(ctx, "g1", "BADWORD"); !removed {
		t.Error("word was not removed")
	}
	if removed, _ := s.RemoveFilteredWord(ctx, "g1", "badword"); removed {
		t.Error("second removal reported success")
	}
}

func TestNormalizeDomain(t *testing.T) {
	tests := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{"YouTube.com", "youtube.com", false},
		{"sub.example.co.uk.", "sub.example.co.uk", false},
		{"  discord.gg ", "discord.gg", false},
		{"https://youtube.com", "", true},
		{"youtube", "", true},
		{"you tube.com", "", true},
		{"-bad.com", "", true},
		{"", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := NormalizeDomain(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("NormalizeDomain(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			}
			if err != nil && !errors.Is(err, ErrInvalidDomain) {
				t.Errorf("error %v is not ErrInvalidDomain", err)
			}
			if got != tt.want {
				t.Errorf("NormalizeDomain(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestAllowedDomainsAndExemptRoles(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	if _, err := s.AddAllowedDomain(ctx, "g1", "not a domain"); !errors.Is(err, ErrInvalidDomain) {
		t.Errorf("error = %v, want ErrInvalidDomain", err)
	}
	if added, err := s.AddAllowedDomain(ctx, "g1", "YouTube.com"); err != nil || !added {
		t.Fatalf("AddAllowedDomain() = %v, %v", added, err)
	}
	if _, err := s.AddExemptRole(ctx, "g1", "role-1"); err != nil {
		t.Fatal(err)
	}

	p, _ := s.Automod(ctx, "g1")
	if len(p.LinkFilter.AllowedDomains) != 1 || p.LinkFilter.AllowedDomains[0] != "youtube.com" {
		t.Errorf("AllowedDomains = %v", p.LinkFilter.AllowedDomains)
	}
	if len(p.ExemptRoleIDs) != 1 {
		t.Errorf("ExemptRoleIDs = %v", p.ExemptRoleIDs)
	}

	if removed, _ := s.RemoveAllowedDomain(ctx, "g1", "youtube.com"); !removed {
		t.Error("domain not removed")
	}
	if removed, _ := s.RemoveExemptRole(ctx, "g1", "role-2"); removed {
		t.Error("unknown role reported as removed")
	}
}

func TestEscalationRules(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	p, err := s.SetEscalationRule(ctx, "g1", models.EscalationRule{WarnThreshold: 2, Action: models.EnforceKick, TimeoutDurationMs: 99})
	if err != nil {
		t.Fatalf("SetEscalationRule() error = %v", err)
	}
	if len(p.Rules) != 5 || p.Rules[0].WarnThreshold != 2 || p.Rules[0].TimeoutDurationMs != 0 {
		t.Errorf("Rules = %+v", p.Rules)
	}

	p, err = s.SetEscalationRule(ctx, "g1", models.EscalationRule{WarnThreshold: 5, Action: models.EnforceBan})
	if err != nil {
		t.Fatal(err)
	}
	if len(p.Rules) != 5 {
		t.Errorf("replacing a threshold changed the rule count: %+v", p.Rules)
	}
	for i := 1; i < len(p.Rules); i++ {
		if p.Rules[i-1].WarnThreshold >= p.Rules[i].WarnThreshold {
			t.Fatalf("rules not sorted: %+v", p.Rules)
		}
	}

	if _, err := s.RemoveEscalationRule(ctx, "g1", 42); !errors.Is(err, ErrRuleNotFound) {
		t.Errorf("error = %v, want ErrRuleNotFound", err)
	}
	if _, err := s.SetEscalationRule(ctx, "g1", models.EscalationRule{WarnThreshold: 4, Action: models.EnforceWarn}); !errors.Is(err, ErrInvalidPolicy) {
		t.Errorf("warn action error = %v, want ErrInvalidPolicy", err)
	}

	if _, err := s.SetEscalationEnabled(ctx, "g1", true); err != nil {
		t.Fatal(err)
	}
	p, err = s.ResetEscalationRules(ctx, "g1")
	if err != nil {
		t.Fatal(err)
	}
	if !p.Enabled || len(p.Rules) != 4 || p.Rules[1].Action != models.EnforceTimeout {
		t.Errorf("after reset: %+v", p)
	}
}

func TestTimeoutRuleWithoutDurationStaysDefault(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	if _, err := s.SetEscalationRule(ctx, "g1", models.EscalationRule{WarnThreshold: 4, Action: models.EnforceTimeout}); err != nil {
		t.Fatalf("SetEscalationRule() error = %v", err)
	}
	// Reading back decodes the stored document over the defaults
	p, err := s.Escalation(ctx, "g1")
	if err != nil {
		t.Fatal(err)
	}
	found := false
	for _, r := range p.Rules {
		if r.WarnThreshold == 4 {
			found = true
			if r.TimeoutDurationMs != 0 {
				t.Errorf("rule 4 duration = %dms, want 0 (1h default)", r.TimeoutDurationMs)
			}
		}
	}
	if !found || len(p.Rules) != 5 {
		t.Errorf("rules = %+v", p.Rules)
	}
}

func TestLoadDefaultsOverlay(t *testing.T) {
	path := filepath.Join(t.TempDir(), "defaults.yaml")
	yaml := `
automod:
  antiSpam:
    maxMessages: 7
raid:
  joinThreshold: 20
`
	if err := os.WriteFile(path, []byte(yaml), 0o644); err != nil {
		t.Fatal(err)
	}

	d, err := LoadDefaults(path)
	if err != nil {
		t.Fatalf("LoadDefaults() error = %v", err)
	}
	if d.Automod.AntiSpam.MaxMessages != 7 || d.Automod.AntiSpam.TimeWindowMs != 5000 {
		t.Errorf("AntiSpam = %+v", d.Automod.AntiSpam)
	}
	if d.Raid.JoinThreshold != 20 || d.Raid.Action != models.EnforceKick {
		t.Errorf("Raid = %+v", d.Raid)
	}
	if len(d.Escalation.Rules) != 4 {
		t.Errorf("Rules = %+v", d.Escalation.Rules)
	}
}

func TestLoadDefaultsRejectsInvalidValues(t *testing.T) {
	path := filepath.Join(t.TempDir(), "defaults.yaml")
	if err := os.WriteFile(path, []byte("raid:\n  action: warn\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadDefaults(path); !errors.Is(err, ErrInvalidPolicy) {
		t.Errorf("error = %v, want ErrInvalidPolicy", err)
	}

	d, err := LoadDefaults("")
	if err != nil || d.Raid.JoinThreshold != 10 {
		t.Errorf("LoadDefaults(\"\") = %+v, %v", d.Raid, err)
	}
}

func TestBuiltinDefaultsAreIndependent(t *testing.T) {
	a := BuiltinDefaults()
	a.Escalation.Rules[0].WarnThreshold = 99
	a.Automod.WordFilter.Words = append(a.Automod.WordFilter.Words, "x")

	b := BuiltinDefaults()
	if b.Escalation.Rules[0].WarnThreshold != 3 || len(b.Automod.WordFilter.Words) != 0 {
		t.Error("BuiltinDefaults shares state between calls")
	}
}
