package enforcement_test

import (
	"context"
	"errors"
	"reflect"
	"testing"
	"time"

	"github.com/PancyStudios/PancyGuard/internal/durations"
	"github.com/PancyStudios/PancyGuard/internal/enforcement"
	"github.com/PancyStudios/PancyGuard/internal/enforcement/enforcementtest"
	"github.com/PancyStudios/PancyGuard/internal/ledger"
	"github.com/PancyStudios/PancyGuard/pkg/clock"
	"github.com/PancyStudios/PancyGuard/pkg/models"
)

var (
	mod        = ledger.Party{ID: "mod-1", Tag: "mod#0001"}
	fromMsg    = enforcement.Target{GuildID: "g1", UserID: "u1", Tag: "user#0001", ChannelID: "c1", MessageID: "m1"}
	withoutMsg = enforcement.Target{GuildID: "g1", UserID: "u1", Tag: "user#0001"}
)

type fixture struct {
	platform *enforcementtest.Platform
	audit    *enforcementtest.Recorder
	ledger   *ledger.Ledger
	exec     *enforcement.Executor
	clock    *clock.Manual
}

func newFixture() *fixture {
	f := &fixture{
		platform: enforcementtest.New(),
		audit:    &enforcementtest.Recorder{},
		clock:    clock.NewManual(time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)),
	}
	f.ledger = enforcementtest.NewLedger(f.clock)
	f.exec = enforcement.NewExecutor(f.platform, f.platform, f.ledger, f.audit, f.clock)
	return f
}

func TestApplyStepOrder(t *testing.T) {
	tests := []struct {
		name     string
		target   enforcement.Target
		action   enforcement.Action
		wantOps  []string
		wantCase models.ActionKind
	}{
		{"delete", fromMsg, enforcement.Action{Kind: enforcement.KindDelete, Notice: "x"}, []string{"delete"}, ""},
		{"warn", fromMsg, enforcement.Action{Kind: enforcement.KindWarn, Notice: "x"}, []string{"delete", "dm"}, models.ActionWarn},
		{"timeout", fromMsg, enforcement.Action{Kind: enforcement.KindTimeout, Duration: 5 * time.Minute, Notice: "x"}, []string{"delete", "timeout", "dm"}, models.ActionTimeout},
		{"kick", fromMsg, enforcement.Action{Kind: enforcement.KindKick, Notice: "x"}, []string{"delete", "dm", "kick"}, models.ActionKick},
		{"ban", withoutMsg, enforcement.Action{Kind: enforcement.KindBan, Notice: "x", DeleteMessageDays: 1}, []string{"dm", "ban"}, models.ActionBan},
		{"unban", withoutMsg, enforcement.Action{Kind: enforcement.KindUnban}, []string{"unban"}, models.ActionUnban},
		{"untimeout", withoutMsg, enforcement.Action{Kind: enforcement.KindUntimeout}, []string{"untimeout"}, models.ActionUntimeout},
		{"quarantine", withoutMsg, enforcement.Action{Kind: enforcement.KindQuarantine, RoleID: "r1", Notice: "x"}, []string{"addrole", "dm"}, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture()
			out, err := f.exec.Apply(context.Background(), tt.target, mod, tt.action)
			if err != nil {
				t.Fatalf("Apply() error = %v", err)
			}
			if got := f.platform.Ops(); !reflect.DeepEqual(got, tt.wantOps) {
				t.Errorf("ops = %v, want %v", got, tt.wantOps)
			}
			if !out.Enforced {
				t.Error("outcome not marked as enforced")
			}

			cases, _ := f.ledger.UserCases(context.Background(), "g1", "u1")
			if tt.wantCase == "" {
				if len(cases) != 0 || out.Case != nil {
					t.Errorf("unexpected cases %+v", cases)
				}
				return
			}
			if len(cases) != 1 || cases[0].Action != tt.wantCase {
				t.Fatalf("cases = %+v, want one %s", cases, tt.wantCase)
			}
			if out.Case == nil || out.Case.ID != 1 {
				t.Errorf("outcome case = %+v", out.Case)
			}
			if events := f.audit.Events(); len(events) != 1 || events[0].Type != enforcement.EventCase {
				t.Errorf("audit events = %+v", events)
			}
		})
	}
}

func TestTimeoutRecordsDuration(t *testing.T) {
	f := newFixture()
	out, err := f.exec.Apply(context.Background(), withoutMsg, mod, enforcement.Action{
		Kind:     enforcement.KindTimeout,
		Duration: time.Hour,
		Reason:   "spam",
	})
	if err != nil {
		t.Fatal(err)
	}
	if out.Case.DurationSeconds != 3600 {
		t.Errorf("DurationSeconds = %d, want 3600", out.Case.DurationSeconds)
	}
	want := "timeout:g1,u1,2026-01-01T13:00:00Z"
	if calls := f.platform.Calls(); len(calls) != 1 || calls[0] != want {
		t.Errorf("calls = %v, want [%s]", calls, want)
	}
}

func TestPermissionDeniedStopsBeforeCase(t *testing.T) {
	f := newFixture()
	f.platform.Deny["kick"] = true

	out, err := f.exec.Apply(context.Background(), fromMsg, mod, enforcement.Action{Kind: enforcement.KindKick, Notice: "bye"})
	if !errors.Is(err, enforcement.ErrPermissionDenied) {
		t.Fatalf("error = %v, want ErrPermissionDenied", err)
	}
	if !out.PermissionDenied() || out.Enforced || out.Case != nil {
		t.Errorf("outcome = %+v", out)
	}
	if !out.Deleted || out.Notify != enforcement.NotifyDelivered {
		t.Errorf("independent steps did not run: %+v", out)
	}
	if cases, _ := f.ledger.UserCases(context.Background(), "g1", "u1"); len(cases) != 0 {
		t.Errorf("case written for a failed kick: %+v", cases)
	}
}

func TestDeleteFailureDoesNotBlockWarn(t *testing.T) {
	f := newFixture()
	f.platform.Deny["delete"] = true

	out, err := f.exec.Apply(context.Background(), fromMsg, mod, enforcement.Action{Kind: enforcement.KindWarn, Notice: "x"})
	if err != nil {
		t.Fatalf("Apply() error = %v", err)
	}
	if out.Deleted || out.Case == nil || len(out.Failures) != 1 || out.Failures[0].Step != enforcement.StepDelete {
		t.Errorf("outcome = %+v", out)
	}
}

func TestUndeliverableNotice(t *testing.T) {
	f := newFixture()
	f.platform.ClosedDMs["u1"] = true

	out, err := f.exec.Apply(context.Background(), withoutMsg, mod, enforcement.Action{Kind: enforcement.KindWarn, Notice: "x"})
	if err != nil {
		t.Fatal(err)
	}
	if out.Notify != enforcement.NotifyUndeliverable {
		t.Errorf("Notify = %v, want undeliverable", out.Notify)
	}
	if out.Case == nil {
		t.Error("undeliverable DM must not prevent the case")
	}
}

func TestInvalidActionsRejectedBeforeSideEffects(t *testing.T) {
	tests := []struct {
		name   string
		action enforcement.Action
		want   error
	}{
		{"zero timeout", enforcement.Action{Kind: enforcement.KindTimeout}, durations.ErrInvalidDuration},
		{"timeout too long", enforcement.Action{Kind: enforcement.KindTimeout, Duration: 29 * 24 * time.Hour}, durations.ErrInvalidDuration},
		{"quarantine without role", enforcement.Action{Kind: enforcement.KindQuarantine}, enforcement.ErrInvalidAction},
		{"unknown kind", enforcement.Action{Kind: enforcement.Kind(99)}, enforcement.ErrInvalidAction},
		{"ban delete days", enforcement.Action{Kind: enforcement.KindBan, DeleteMessageDays: 8}, enforcement.ErrInvalidAction},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture()
			_, err := f.exec.Apply(context.Background(), fromMsg, mod, tt.action)
			if !errors.Is(err, tt.want) {
				t.Errorf("error = %v, want %v", err, tt.want)
			}
			if ops := f.platform.Ops(); len(ops) != 0 {
				t.Errorf("side effects ran: %v", ops)
			}
		})
	}
}

func TestMultiAuditorFansOut(t *testing.T) {
	a, b := &enforcementtest.Recorder{}, &enforcementtest.Recorder{}
	failing := enforcement.AuditFunc(func(context.Context, enforcement.AuditEvent) error {
		return errors.New("sink down")
	})

	m := enforcement.MultiAuditor{a, nil, failing, b}
	err := m.Audit(context.Background(), enforcement.NewRaidEvent(enforcement.EventRaidStarted, "g1", time.Now(), enforcement.RaidNotice{JoinCount: 10}))
	if err == nil {
		t.Error("expected the failing sink error")
	}
	if len(a.Events()) != 1 || len(b.Events()) != 1 {
		t.Errorf("events a=%d b=%d, want 1 each", len(a.Events()), len(b.Events()))
	}
}

func TestKindFor(t *testing.T) {
	for _, a := range []models.EnforcementAction{models.EnforceDelete, models.EnforceWarn, models.EnforceTimeout, models.EnforceKick, models.EnforceBan, models.EnforceQuarantine} {
		k, ok := enforcement.KindFor(a)
		if !ok || k.String() != string(a) {
			t.Errorf("KindFor(%q) = %v, %v", a, k, ok)
		}
	}
	if _, ok := enforcement.KindFor("explode"); ok {
		t.Error("unknown action mapped to a kind")
	}
}
