package shared

import (
	"fmt"
	"strings"
	"testing"

	"github.com/PancyStudios/PancyGuard/internal/auditlog"
	"github.com/PancyStudios/PancyGuard/internal/enforcement"
	"github.com/PancyStudios/PancyGuard/internal/ledger"
	"github.com/PancyStudios/PancyGuard/internal/policy"
)

type reasonOnly string

func (r reasonOnly) HasOption(string) bool { return r != "" }
func (r reasonOnly) GetStringOption(string) string { return string(r) }
func (r reasonOnly) GetIntOption(string) int64 { return 0 }
func (r reasonOnly) GetBoolOption(string) bool { return false }
func (r reasonOnly) GetIDOption(string) string { return "" }

func TestErrorMessage(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"refusal shown as is", Refuse("No puedes %s a ti mismo.", "banear"), "No puedes banear a ti mismo."},
		{"wrapped permission", fmt.Errorf("kick: %w", enforcement.ErrPermissionDenied), "No tengo permisos"},
		{"case not found", ledger.ErrCaseNotFound, "No existe un caso"},
		{"policy detail", fmt.Errorf("%w: %s", policy.ErrInvalidPolicy, "joinThreshold debe estar entre 3 y 50"), "joinThreshold debe estar entre 3 y 50"},
		{"audit event", fmt.Errorf("%w: %q", auditlog.ErrUnknownEvent, "typing"), "evento desconocido"},
		{"unknown", fmt.Errorf("mongo: connection reset"), "error inesperado"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ErrorMessage(tt.err); !strings.Contains(got, tt.want) {
				t.Errorf("ErrorMessage() = %q, want it to contain %q", got, tt.want)
			}
		})
	}
}

func TestTruncate(t *testing.T) {
	tests := []struct {
		in   string
		max  int
		want string
	}{
		{"corto", 10, "corto"},
		{"una razón bastante larga", 10, "una raz..."},
		{"ñññññ", 4, "ñ..."},
		{"abcdef", 2, "ab"},
	}
	for _, tt := range tests {
		if got := Truncate(tt.in, tt.max); got != tt.want {
			t.Errorf("Truncate(%q, %d) = %q, want %q", tt.in, tt.max, got, tt.want)
		}
	}
}

func TestReason(t *testing.T) {
	if got := Reason(reasonOnly("  spam  ")); got != "spam" {
		t.Errorf("Reason() = %q", got)
	}
	if got := Reason(reasonOnly("")); got != "Sin razón especificada" {
		t.Errorf("Reason(empty) = %q", got)
	}
}

func TestFormatting(t *testing.T) {
	if got := FormatMs(90_000); got != "1m" {
		t.Errorf("FormatMs(90000) = %q", got)
	}
	if got := RoleList([]string{"r1", "r2"}, "-"); got != "<@&r1>, <@&r2>" {
		t.Errorf("RoleList() = %q", got)
	}
	if got := RoleList(nil, "Ninguno"); got != "Ninguno" {
		t.Errorf("RoleList(nil) = %q", got)
	}
	if NotifyNote(enforcement.NotifyDelivered) != "" || NotifyNote(enforcement.NotifyUndeliverable) == "" {
		t.Error("NotifyNote() mismatch")
	}
}
