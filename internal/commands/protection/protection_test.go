package protection

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/PancyStudios/PancyGuard/internal/durations"
	"github.com/PancyStudios/PancyGuard/internal/policy"
	"github.com/PancyStudios/PancyGuard/internal/raid"
	"github.com/PancyStudios/PancyGuard/pkg/models"
)

// options is an in-memory option set
type options map[string]any

func (o options) HasOption(name string) bool { _, ok := o[name]; return ok }

func (o options) GetStringOption(name string) string { s, _ := o[name].(string); return s }

func (o options) GetIntOption(name string) int64 { n, _ := o[name].(int); return int64(n) }

func (o options) GetBoolOption(name string) bool { b, _ := o[name].(bool); return b }

func (o options) GetIDOption(name string) string { return o.GetStringOption(name) }

func TestSpamPatch(t *testing.T) {
	t.Run("only supplied fields", func(t *testing.T) {
		patch, err := spamPatch(options{optMax: 8, optWindow: 10})
		if err != nil {
			t.Fatalf("spamPatch() error = %v", err)
		}
		p := patch.AntiSpam
		if p == nil || p.MaxMessages == nil || *p.MaxMessages != 8 {
			t.Fatalf("MaxMessages = %+v, want 8", p)
		}
		if p.TimeWindowMs == nil || *p.TimeWindowMs != 10_000 {
			t.Errorf("TimeWindowMs = %v, want 10000", p.TimeWindowMs)
		}
		if p.Enabled != nil || p.Action != nil || p.DuplicateThreshold != nil || p.TimeoutDurationMs != nil {
			t.Errorf("unset options produced values: %+v", p)
		}
		if patch.Enabled != nil || patch.LinkFilter != nil {
			t.Errorf("patch touches other sections: %+v", patch)
		}
	})

	t.Run("timeout duration", func(t *testing.T) {
		patch, err := spamPatch(options{optDuration: "10m", optAction: "timeout"})
		if err != nil {
			t.Fatalf("spamPatch() error = %v", err)
		}
		if got := *patch.AntiSpam.TimeoutDurationMs; got != 600_000 {
			t.Errorf("TimeoutDurationMs = %d, want 600000", got)
		}
		if *patch.AntiSpam.Action != models.EnforceTimeout {
			t.Errorf("Action = %q", *patch.AntiSpam.Action)
		}
	})

	t.Run("invalid duration", func(t *testing.T) {
		_, err := spamPatch(options{optDuration: "10 minutes"})
		if !errors.Is(err, durations.ErrInvalidDuration) {
			t.Errorf("spamPatch() error = %v, want ErrInvalidDuration", err)
		}
	})
}

func TestSectionPatches(t *testing.T) {
	links := linksPatch(options{optEnabled: false, optInvites: true})
	if links.LinkFilter == nil || *links.LinkFilter.Enabled || !*links.LinkFilter.BlockInvites || links.LinkFilter.BlockAllLinks != nil {
		t.Errorf("linksPatch() = %+v", links.LinkFilter)
	}

	words := wordsPatch(options{optAction: "delete"})
	if words.WordFilter == nil || words.WordFilter.Enabled != nil || *words.WordFilter.Action != models.EnforceDelete {
		t.Errorf("wordsPatch() = %+v", words.WordFilter)
	}

	age := accountAgePatch(options{optMinDays: 0, optRole: "r1", optAction: "quarantine"})
	if age.AccountAge == nil || *age.AccountAge.MinAgeDays != 0 || *age.AccountAge.QuarantineRoleID != "r1" {
		t.Errorf("accountAgePatch() = %+v", age.AccountAge)
	}
}

func TestRaidPatchAppliesToPolicy(t *testing.T) {
	p := policy.BuiltinDefaults().Raid
	before := p

	raidPatch(options{optThreshold: 20, optWindow: 30, optChannel: "c1"}).Apply(&p)

	if p.JoinThreshold != 20 || p.TimeWindowMs != 30_000 || p.AlertChannelID != "c1" {
		t.Errorf("policy = %+v, want threshold 20, window 30000, channel c1", p)
	}
	if p.Action != before.Action || p.MinAccountAgeDays != before.MinAccountAgeDays || p.Enabled != before.Enabled {
		t.Errorf("untouched fields changed: %+v vs %+v", p, before)
	}
}

func TestEscalationRule(t *testing.T) {
	tests := []struct {
		name    string
		opts    options
		want    models.EscalationRule
		wantErr bool
	}{
		{"timeout with days", options{optWarns: 3, optAction: "timeout", optDuration: "2d"},
			models.EscalationRule{WarnThreshold: 3, Action: models.EnforceTimeout, TimeoutDurationMs: 172_800_000}, false},
		{"timeout default", options{optWarns: 3, optAction: "timeout"},
			models.EscalationRule{WarnThreshold: 3, Action: models.EnforceTimeout}, false},
		{"kick ignores duration", options{optWarns: 5, optAction: "kick", optDuration: "bogus"},
			models.EscalationRule{WarnThreshold: 5, Action: models.EnforceKick}, false},
		{"minutes rejected", options{optWarns: 3, optAction: "timeout", optDuration: "30m"}, models.EscalationRule{}, true},
		{"over 28 days", options{optWarns: 3, optAction: "timeout", optDuration: "29d"}, models.EscalationRule{}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := escalationRule(tt.opts)
			if tt.wantErr {
				if !errors.Is(err, durations.ErrInvalidDuration) {
					t.Errorf("escalationRule() error = %v, want ErrInvalidDuration", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("escalationRule() error = %v", err)
			}
			if got != tt.want {
				t.Errorf("escalationRule() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestQuarantineNote(t *testing.T) {
	if quarantineNote(models.EnforceQuarantine, "") == "" {
		t.Error("quarantine without role should produce a note")
	}
	if quarantineNote(models.EnforceQuarantine, "r1") != "" || quarantineNote(models.EnforceKick, "") != "" {
		t.Error("unexpected note")
	}
}

func TestAutomodEmbed(t *testing.T) {
	p := policy.BuiltinDefaults().Automod
	p.Enabled = true
	p.LinkFilter.Enabled = true
	p.LinkFilter.AllowedDomains = []string{"youtube.com"}
	p.ExemptRoleIDs = []string{"r1"}

	embed := automodEmbed(p)
	if !strings.Contains(embed.Description, "ACTIVADO") {
		t.Errorf("description = %q", embed.Description)
	}
	if len(embed.Fields) != 5 {
		t.Fatalf("fields = %d, want 5", len(embed.Fields))
	}
	if !strings.Contains(embed.Fields[1].Value, "youtube.com") {
		t.Errorf("link field = %q", embed.Fields[1].Value)
	}
	if embed.Fields[4].Value != "<@&r1>" {
		t.Errorf("exempt field = %q", embed.Fields[4].Value)
	}
}

func TestEscalationEmbed(t *testing.T) {
	embed := escalationEmbed(models.EscalationPolicy{
		Enabled: true,
		Rules: []models.EscalationRule{
			{WarnThreshold: 3, Action: models.EnforceTimeout},
			{WarnThreshold: 5, Action: models.EnforceKick},
		},
	})
	rules := embed.Fields[0].Value
	if !strings.Contains(rules, "**3** advertencias → timeout (1h)") || !strings.Contains(rules, "**5** advertencias → kick") {
		t.Errorf("rules = %q", rules)
	}

	empty := escalationEmbed(models.EscalationPolicy{})
	if empty.Fields[0].Value != "Sin reglas configuradas." {
		t.Errorf("empty rules = %q", empty.Fields[0].Value)
	}
}

func TestRaidEmbed(t *testing.T) {
	now := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)
	status := raid.Status{
		Policy:      models.RaidPolicy{Enabled: true, JoinThreshold: 10, TimeWindowMs: 10_000, Action: models.EnforceKick},
		State:       models.RaidState{Active: true, StartedAt: now.Add(-5 * time.Minute), HandledCount: 4},
		RecentJoins: 12,
	}

	embed := raidEmbed(status, now)
	if !strings.Contains(embed.Description, "RAID ACTIVO") || !strings.Contains(embed.Description, "5m") {
		t.Errorf("description = %q", embed.Description)
	}
	if embed.Fields[1].Value != "12" {
		t.Errorf("recent joins = %q, want 12", embed.Fields[1].Value)
	}
}

func TestAuditLogEmbed(t *testing.T) {
	cfg := models.AuditLogConfig{
		Enabled:   true,
		ChannelID: "c1",
		Events:    map[models.AuditEventKind]bool{models.AuditMemberBan: true},
	}
	embed := auditLogEmbed(cfg)
	if !strings.Contains(embed.Description, "<#c1>") {
		t.Errorf("description = %q", embed.Description)
	}
	if embed.Fields[0].Value != "Baneos" {
		t.Errorf("active events = %q, want only Baneos", embed.Fields[0].Value)
	}
	if n := strings.Count(embed.Fields[1].Value, "\n") + 1; n != len(models.AuditEventKinds)-1 {
		t.Errorf("inactive events = %d, want %d", n, len(models.AuditEventKinds)-1)
	}

	off := auditLogEmbed(models.AuditLogConfig{})
	if !strings.Contains(off.Description, "Desactivado") || off.Fields[0].Value != "*Ninguno*" {
		t.Errorf("disabled embed = %+v", off)
	}
}

func TestAuditEventChoicesCoverEveryKind(t *testing.T) {
	choices := auditEventChoices()
	if len(choices) != len(models.AuditEventKinds) || len(choices) > 25 {
		t.Fatalf("choices = %d", len(choices))
	}
	for _, c := range choices {
		kind := models.AuditEventKind(c.Value.(string))
		if !kind.Valid() || c.Name == string(kind) {
			t.Errorf("choice %+v has no label or an unknown value", c)
		}
	}
}
