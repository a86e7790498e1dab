package escalation

import (
	"context"
	"errors"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/PancyStudios/PancyGuard/internal/enforcement"
	"github.com/PancyStudios/PancyGuard/internal/enforcement/enforcementtest"
	"github.com/PancyStudios/PancyGuard/internal/ledger"
	"github.com/PancyStudios/PancyGuard/pkg/clock"
	"github.com/PancyStudios/PancyGuard/pkg/models"
)

type staticPolicy models.EscalationPolicy

func (p staticPolicy) Escalation(context.Context, string) (models.EscalationPolicy, error) {
	return models.EscalationPolicy(p), nil
}

func rules() []models.EscalationRule {
	return []models.EscalationRule{
		{WarnThreshold: 3, Action: models.EnforceTimeout, TimeoutDurationMs: 3600000},
		{WarnThreshold: 5, Action: models.EnforceTimeout},
		{WarnThreshold: 7, Action: models.EnforceKick},
		{WarnThreshold: 10, Action: models.EnforceBan},
	}
}

func TestEvaluateExactMatch(t *testing.T) {
	p := models.EscalationPolicy{Enabled: true, Rules: rules()}

	tests := []struct {
		count int
		want  models.EnforcementAction
	}{
		{1, ""}, {2, ""}, {3, models.EnforceTimeout}, {4, ""},
		{5, models.EnforceTimeout}, {7, models.EnforceKick}, {8, ""}, {10, models.EnforceBan}, {11, ""},
	}
	for _, tt := range tests {
		rule, ok := Evaluate(p, tt.count)
		if tt.want == "" {
			if ok {
				t.Errorf("Evaluate(%d) fired %+v", tt.count, rule)
			}
			continue
		}
		if !ok || rule.Action != tt.want {
			t.Errorf("Evaluate(%d) = %+v, %v; want %s", tt.count, rule, ok, tt.want)
		}
	}

	p.Enabled = false
	if _, ok := Evaluate(p, 3); ok {
		t.Error("disabled policy fired")
	}
}

func TestRuleTimeoutDefault(t *testing.T) {
	if got := RuleTimeout(models.EscalationRule{Action: models.EnforceTimeout}); got != time.Hour {
		t.Errorf("RuleTimeout() = %v, want 1h", got)
	}
	if got := RuleTimeout(models.EscalationRule{TimeoutDurationMs: 86400000}); got != 24*time.Hour {
		t.Errorf("RuleTimeout() = %v, want 24h", got)
	}
}

type fixture struct {
	svc      *Service
	platform *enforcementtest.Platform
	ledger   *ledger.Ledger
}

func newFixture(p models.EscalationPolicy) *fixture {
	clk := clock.NewManual(time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC))
	platform := enforcementtest.New()
	l := enforcementtest.NewLedger(clk)
	exec := enforcement.NewExecutor(platform, platform, l, nil, clk)
	return &fixture{
		svc:      NewService(staticPolicy(p), l, exec, func() string { return "bot" }),
		platform: platform,
		ledger:   l,
	}
}

func warn(t *testing.T, f *fixture) WarnResult {
	t.Helper()
	res, err := f.svc.Warn(context.Background(), WarnRequest{
		Target:    enforcement.Target{GuildID: "g1", UserID: "u1", Tag: "user#1"},
		GuildName: "Guild",
		Moderator: ledger.Party{ID: "m1", Tag: "mod#1"},
		Reason:    "spam",
	})
	if err != nil {
		t.Fatalf("Warn() error = %v", err)
	}
	return res
}

func TestEscalationFiresOnceAtThreshold(t *testing.T) {
	f := newFixture(models.EscalationPolicy{Enabled: true, Rules: rules()})

	for i := 1; i <= 4; i++ {
		res := warn(t, f)
		if res.WarnCount != i {
			t.Fatalf("WarnCount = %d, want %d", res.WarnCount, i)
		}
		if (res.Escalation != nil) != (i == 3) {
			t.Fatalf("warn %d escalation = %+v", i, res.Escalation)
		}
	}

	if f.platform.Count("timeout") != 1 {
		t.Errorf("timeouts = %d, want 1", f.platform.Count("timeout"))
	}
	cases, _ := f.ledger.UserCases(context.Background(), "g1", "u1")
	if len(cases) != 5 {
		t.Fatalf("cases = %d, want 4 warns + 1 timeout", len(cases))
	}
	esc := cases[3]
	if esc.Action != models.ActionTimeout || esc.ModeratorTag != "StrikeEscalation" || esc.DurationSeconds != 3600 {
		t.Errorf("escalation case = %+v", esc)
	}
	if dms := f.platform.DMs("u1"); len(dms) != 5 {
		t.Errorf("DMs = %d, want 5", len(dms))
	}
}

func TestEscalationFailureKeepsWarning(t *testing.T) {
	f := newFixture(models.EscalationPolicy{Enabled: true, Rules: []models.EscalationRule{{WarnThreshold: 1, Action: models.EnforceBan}}})
	f.platform.Deny["ban"] = true

	res := warn(t, f)
	if res.Escalation == nil || !errors.Is(res.Escalation.Err, enforcement.ErrPermissionDenied) {
		t.Fatalf("escalation = %+v", res.Escalation)
	}
	cases, _ := f.ledger.UserCases(context.Background(), "g1", "u1")
	if len(cases) != 1 || cases[0].Action != models.ActionWarn {
		t.Errorf("cases = %+v, want only the warning", cases)
	}
}

func TestDisabledEscalationOnlyWarns(t *testing.T) {
	f := newFixture(models.EscalationPolicy{Enabled: false, Rules: rules()})
	for i := 0; i < 3; i++ {
		if res := warn(t, f); res.Escalation != nil {
			t.Fatal("disabled escalation fired")
		}
	}
	if f.platform.Count("timeout") != 0 {
		t.Error("unexpected timeout")
	}
}

func TestConcurrentWarningsEscalateOnce(t *testing.T) {
	f := newFixture(models.EscalationPolicy{Enabled: true, Rules: []models.EscalationRule{{WarnThreshold: 2, Action: models.EnforceKick}}})

	const n = 8
	counts := make([]int, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			res, err := f.svc.Warn(context.Background(), WarnRequest{
				Target:    enforcement.Target{GuildID: "g1", UserID: "u1", Tag: "user#1"},
				GuildName: "Guild",
				Moderator: ledger.Party{ID: "m1", Tag: "mod#1"},
				Reason:    "spam",
			})
			if err != nil {
				t.Errorf("Warn() error = %v", err)
				return
			}
			counts[i] = res.WarnCount
		}(i)
	}
	wg.Wait()

	sort.Ints(counts)
	for i, c := range counts {
		if c != i+1 {
			t.Fatalf("warn counts = %v, want 1..%d each once", counts, n)
		}
	}
	if got := f.platform.Count("kick"); got != 1 {
		t.Errorf("kicks = %d, want 1", got)
	}
}
