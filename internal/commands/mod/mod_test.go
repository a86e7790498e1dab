package mod

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/PancyStudios/PancyGuard/internal/commands/shared"
	"github.com/PancyStudios/PancyGuard/internal/enforcement"
	"github.com/PancyStudios/PancyGuard/internal/escalation"
	"github.com/PancyStudios/PancyGuard/pkg/models"
	"github.com/bwmarrin/discordgo"
)

func TestRefuseTarget(t *testing.T) {
	h := guildHierarchy(&discordgo.Guild{
		OwnerID: "owner",
		Roles: []*discordgo.Role{
			{ID: "admin", Position: 10},
			{ID: "mod", Position: 5},
			{ID: "member", Position: 1},
		},
	})

	tests := []struct {
		name       string
		actor      rank
		target     rank
		checkRoles bool
		want       string
	}{
		{"lower target", h.rank("m1", []string{"mod"}), h.rank("u1", []string{"member"}), true, ""},
		{"self", h.rank("m1", []string{"mod"}), h.rank("m1", []string{"mod"}), true, "a ti mismo"},
		{"bot", h.rank("m1", []string{"mod"}), h.rank("bot", nil), true, "a mí mismo"},
		{"owner target", h.rank("m1", []string{"admin"}), h.rank("owner", nil), true, "propietario"},
		{"equal role", h.rank("m1", []string{"mod"}), h.rank("u1", []string{"mod", "member"}), true, "igual o superior"},
		{"higher role", h.rank("m1", []string{"mod"}), h.rank("u1", []string{"admin"}), true, "igual o superior"},
		{"owner actor", h.rank("owner", nil), h.rank("u1", []string{"admin"}), true, ""},
		{"roles unchecked", h.rank("m1", nil), h.rank("u1", []string{"admin"}), false, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := refuseTarget("banear", "bot", tt.actor, tt.target, tt.checkRoles)
			if tt.want == "" {
				if err != nil {
					t.Fatalf("refuseTarget() = %v, want nil", err)
				}
				return
			}
			var refusal shared.Refusal
			if !errors.As(err, &refusal) {
				t.Fatalf("refuseTarget() = %v, want a Refusal", err)
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("refuseTarget() = %q, want it to contain %q", err, tt.want)
			}
		})
	}
}

func TestUnknownGuildHierarchy(t *testing.T) {
	h := guildHierarchy(nil)
	if h.Known {
		t.Fatal("nil guild should give an unknown hierarchy")
	}
	if r := h.rank("u1", []string{"x"}); r.Highest != 0 || r.Owner {
		t.Errorf("rank = %+v, want zero rank", r)
	}
}

func TestParseSnowflake(t *testing.T) {
	tests := []struct {
		input   string
		want    string
		wantErr bool
	}{
		{"123456789012345678", "123456789012345678", false},
		{" <@123456789012345678> ", "123456789012345678", false},
		{"<@!123456789012345678>", "123456789012345678", false},
		{"12345", "", true},
		{"12345678901234567a", "", true},
		{"", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := parseSnowflake(tt.input)
			if (err != nil) != tt.wantErr {
				t.Fatalf("parseSnowflake(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("parseSnowflake(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestHistorySummary(t *testing.T) {
	got := historySummary(map[models.ActionKind]int{
		models.ActionBan:     1,
		models.ActionWarn:    3,
		models.ActionTimeout: 1,
	})
	want := "3 advertencias, 1 silencio, 1 baneo"
	if got != want {
		t.Errorf("historySummary() = %q, want %q", got, want)
	}
}

func TestHistoryEmbed(t *testing.T) {
	t.Run("clean record", func(t *testing.T) {
		embed := historyEmbed("user#0001", "u1", nil)
		if embed.Color != cleanColor || len(embed.Fields) != 0 {
			t.Errorf("embed = %+v, want clean record", embed)
		}
	})

	t.Run("newest first and capped", func(t *testing.T) {
		var cases []models.ModerationCase
		created := time.Date(2026, 1, 2, 0, 0, 0, 0, time.UTC)
		for i := 1; i <= 12; i++ {
			cases = append(cases, models.ModerationCase{ID: i, Action: models.ActionWarn, Reason: "spam", CreatedAt: created})
		}

		embed := historyEmbed("user#0001", "u1", cases)
		if len(embed.Fields) != 1 {
			t.Fatalf("fields = %d, want 1", len(embed.Fields))
		}
		field := embed.Fields[0]
		if !strings.Contains(field.Name, "12 en total") {
			t.Errorf("field name = %q, want total of 12", field.Name)
		}
		lines := strings.Split(field.Value, "\n\n")
		if len(lines) != historyLimit {
			t.Fatalf("lines = %d, want %d", len(lines), historyLimit)
		}
		if !strings.Contains(lines[0], "**#12**") || !strings.Contains(lines[9], "**#3**") {
			t.Errorf("order = %q ... %q, want #12 first and #3 last", lines[0], lines[9])
		}
		if !strings.Contains(embed.Description, "12 advertencias") {
			t.Errorf("description = %q", embed.Description)
		}
	})
}

func TestCaseLine(t *testing.T) {
	c := models.ModerationCase{
		ID:              7,
		Action:          models.ActionTimeout,
		Reason:          strings.Repeat("a", 60),
		DurationSeconds: 3600,
		CreatedAt:       time.Date(2026, 3, 4, 0, 0, 0, 0, time.UTC),
	}
	line := caseLine(c)

	for _, want := range []string{"**#7** TIMEOUT", "(1h)", "04/03/2026", strings.Repeat("a", 47) + "..."} {
		if !strings.Contains(line, want) {
			t.Errorf("caseLine() = %q, want it to contain %q", line, want)
		}
	}
	if strings.Contains(line, strings.Repeat("a", 48)) {
		t.Errorf("caseLine() = %q, reason not truncated", line)
	}
}

func TestWarnEmbed(t *testing.T) {
	res := escalation.WarnResult{
		Case:      models.ModerationCase{ID: 4, Reason: "flood"},
		WarnCount: 3,
		Notify:    enforcement.NotifyUndeliverable,
		Escalation: &escalation.Escalated{
			Rule: models.EscalationRule{WarnThreshold: 3, Action: models.EnforceTimeout, TimeoutDurationMs: 3_600_000},
			Case: &models.ModerationCase{ID: 5},
		},
	}

	embed := warnEmbed("user#0001", res)
	if !strings.Contains(embed.Title, "Caso #4") {
		t.Errorf("title = %q", embed.Title)
	}
	if !strings.Contains(embed.Description, "mensaje directo") {
		t.Errorf("description = %q, want undelivered DM note", embed.Description)
	}
	if len(embed.Fields) != 1 || !strings.Contains(embed.Fields[0].Value, "(1h) | Caso #5") {
		t.Errorf("fields = %+v, want escalation line", embed.Fields)
	}
}

func TestEscalationLineFailure(t *testing.T) {
	line := escalationLine(&escalation.Escalated{
		Rule: models.EscalationRule{WarnThreshold: 5, Action: models.EnforceBan},
		Err:  enforcement.ErrPermissionDenied,
	})
	if !strings.HasPrefix(line, "❌") || !strings.Contains(line, "permisos") {
		t.Errorf("escalationLine() = %q", line)
	}
}
