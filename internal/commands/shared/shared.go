// Package shared holds the helpers every command category uses:
// deferred execution, option readers, error messages and embed builders.
package shared

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/PancyStudios/PancyGuard/internal/auditlog"
	"github.com/PancyStudios/PancyGuard/internal/durations"
	"github.com/PancyStudios/PancyGuard/internal/enforcement"
	"github.com/PancyStudios/PancyGuard/internal/ledger"
	"github.com/PancyStudios/PancyGuard/internal/policy"
	"github.com/PancyStudios/PancyGuard/internal/raid"
	"github.com/PancyStudios/PancyGuard/internal/services"
	"github.com/PancyStudios/PancyGuard/pkg/discord"
	boterrors "github.com/PancyStudios/PancyGuard/pkg/errors"
	"github.com/PancyStudios/PancyGuard/pkg/logger"
	"github.com/bwmarrin/discordgo"
)

// Embed colors
const (
	ColorSuccess = 0x57f287
	ColorError   = 0xed4245
	ColorInfo    = 0x5865f2
	ColorWarning = 0xffc107
)

// Options is the read side of a command's options
type Options interface {
	HasOption(name string) bool
	GetStringOption(name string) string
	GetIntOption(name string) int64
	GetBoolOption(name string) bool
	GetIDOption(name string) string
}

// Handler does the work of a command once the reply is deferred
type Handler func(ctx context.Context, c *services.Container) (*discordgo.MessageEmbed, error)

// Deferred acknowledges the interaction and runs h in its own goroutine.
// Errors are turned into a user-facing embed.
func Deferred(ctx *discord.CommandContext, h Handler) error {
	return deferred(ctx, ctx.Defer, h)
}

// DeferredEphemeral is Deferred with a reply only the invoking user sees
func DeferredEphemeral(ctx *discord.CommandContext, h Handler) error {
	return deferred(ctx, ctx.DeferEphemeral, h)
}

func deferred(ctx *discord.CommandContext, ack func() error, h Handler) error {
	c := services.Get()
	if c == nil {
		return ctx.ReplyEphemeral("❌ El sistema de moderación aún no está listo.")
	}
	if err := ack(); err != nil {
		return err
	}

	go func() {
		defer boterrors.RecoverMiddleware()()

		reqCtx, cancel := ctx.Context()
		defer cancel()

		embed, err := h(reqCtx, c)
		if err != nil {
			var refusal Refusal
			if !errors.As(err, &refusal) {
				logger.Warn(fmt.Sprintf("Comando fallido en %s: %v", ctx.Interaction.GuildID, err), "Commands")
			}
			embed = ErrorEmbed(ErrorMessage(err))
		}
		if err := ctx.EditReplyEmbed(embed); err != nil {
			logger.Error("Error editando respuesta: "+err.Error(), "Commands")
		}
	}()
	return nil
}

// Refusal is a precondition failure whose text is shown as is
type Refusal string

func (r Refusal) Error() string { return string(r) }

// Refuse formats a Refusal
func Refuse(format string, args ...any) error {
	return Refusal(fmt.Sprintf(format, args...))
}

// ErrorMessage maps domain errors onto messages for moderators
func ErrorMessage(err error) string {
	var refusal Refusal
	switch {
	case errors.As(err, &refusal):
		return string(refusal)
	case errors.Is(err, enforcement.ErrPermissionDenied):
		return "No tengo permisos suficientes para hacer eso. Revisa mis permisos y la jerarquía de roles."
	case errors.Is(err, enforcement.ErrMemberNotFound):
		return "El usuario no está en este servidor."
	case errors.Is(err, durations.ErrInvalidDuration):
		return "Duración inválida. Usa un número seguido de s, m, h o d (por ejemplo `30m`). Máximo 28 días."
	case errors.Is(err, ledger.ErrCaseNotFound):
		return "No existe un caso con ese ID en este servidor."
	case errors.Is(err, policy.ErrRuleNotFound):
		return "No hay una regla de escalada para ese número de advertencias."
	case errors.Is(err, policy.ErrInvalidDomain):
		return "Dominio inválido. Usa un nombre de host como `youtube.com`."
	case errors.Is(err, policy.ErrInvalidPolicy):
		return "Valor de configuración fuera de rango: " + unwrapDetail(err)
	case errors.Is(err, raid.ErrNoActiveRaid):
		return "No hay un raid activo en este servidor."
	case errors.Is(err, enforcement.ErrInvalidAction):
		return "Acción inválida: " + unwrapDetail(err)
	case errors.Is(err, auditlog.ErrUnknownEvent):
		return "Tipo de evento desconocido."
	case errors.Is(err, auditlog.ErrMissingChannel):
		return "Debes indicar un canal para el registro de auditoría."
	}
	return "Ocurrió un error inesperado. Inténtalo de nuevo más tarde."
}

// unwrapDetail returns the text after the last sentinel prefix
func unwrapDetail(err error) string {
	msg := err.Error()
	if i := strings.LastIndex(msg, ": "); i >= 0 {
		return msg[i+2:]
	}
	return msg
}

// ErrorEmbed builds a red error embed
func ErrorEmbed(msg string) *discordgo.MessageEmbed {
	return &discordgo.MessageEmbed{
		Description: "❌ " + msg,
		Color:       ColorError,
	}
}

// SuccessEmbed builds a green confirmation embed
func SuccessEmbed(title, description string) *discordgo.MessageEmbed {
	return &discordgo.MessageEmbed{
		Title:       "✅ " + title,
		Description: description,
		Color:       ColorSuccess,
		Timestamp:   time.Now().Format(time.RFC3339),
	}
}

// Moderator is the invoking user as a ledger party
func Moderator(ctx *discord.CommandContext) ledger.Party {
	u := ctx.User()
	return ledger.Party{ID: u.ID, Tag: u.String()}
}

// Reason returns the reason option or the default text
func Reason(opts Options) string {
	if r := strings.TrimSpace(opts.GetStringOption("razon")); r != "" {
		return r
	}
	return "Sin razón especificada"
}

// OnOff renders a boolean as Activado/Desactivado
func OnOff(v bool) string {
	if v {
		return "Activado"
	}
	return "Desactivado"
}

// FormatMs renders a millisecond duration with its largest unit
func FormatMs(ms int64) string {
	return durations.Format(time.Duration(ms) * time.Millisecond)
}

// Truncate cuts s to max runes, ending in "..." when shortened
func Truncate(s string, max int) string {
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	if max <= 3 {
		return string(r[:max])
	}
	return string(r[:max-3]) + "..."
}

// RoleList renders role mentions or a placeholder
func RoleList(ids []string, empty string) string {
	if len(ids) == 0 {
		return empty
	}
	mentions := make([]string, len(ids))
	for i, id := range ids {
		mentions[i] = "<@&" + id + ">"
	}
	return strings.Join(mentions, ", ")
}

// NotifyNote describes an undelivered DM, empty otherwise
func NotifyNote(r enforcement.NotifyResult) string {
	if r == enforcement.NotifyUndeliverable {
		return "\n*No se pudo enviar un mensaje directo al usuario.*"
	}
	return ""
}

// Choices builds string option choices from values
func Choices(values ...string) []*discordgo.ApplicationCommandOptionChoice {
	out := make([]*discordgo.ApplicationCommandOptionChoice, len(values))
	for i, v := range values {
		out[i] = &discordgo.ApplicationCommandOptionChoice{Name: v, Value: v}
	}
	return out
}

// Float returns a pointer for option MinValue
func Float(v float64) *float64 {
	return &v
}
