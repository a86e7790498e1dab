package protection

import (
	"time"

	"github.com/PancyStudios/PancyGuard/internal/commands/shared"
	"github.com/PancyStudios/PancyGuard/internal/durations"
	"github.com/PancyStudios/PancyGuard/internal/policy"
	"github.com/PancyStudios/PancyGuard/pkg/models"
)

// Option names shared by the configuration subcommands
const (
	optEnabled   = "activado"
	optAction    = "accion"
	optRole      = "rol"
	optChannel   = "canal"
	optDuration  = "duracion"
	optWarns     = "advertencias"
	optMax       = "max_mensajes"
	optWindow    = "ventana"
	optDupes     = "duplicados"
	optInvites   = "invitaciones"
	optAllLinks  = "todos_los_enlaces"
	optMinDays   = "dias_minimos"
	optThreshold = "umbral"
	optMinAge    = "edad_minima"
	optLockdown  = "bloqueo"
)

func optBool(o shared.Options, name string) *bool {
	if !o.HasOption(name) {
		return nil
	}
	return policy.Ptr(o.GetBoolOption(name))
}

func optInt(o shared.Options, name string) *int {
	if !o.HasOption(name) {
		return nil
	}
	return policy.Ptr(int(o.GetIntOption(name)))
}

// optSecondsMs reads a seconds option as milliseconds
func optSecondsMs(o shared.Options, name string) *int64 {
	if !o.HasOption(name) {
		return nil
	}
	return policy.Ptr(o.GetIntOption(name) * int64(time.Second/time.Millisecond))
}

func actionValue(o shared.Options) *models.EnforcementAction {
	if !o.HasOption(optAction) {
		return nil
	}
	return policy.Ptr(models.EnforcementAction(o.GetStringOption(optAction)))
}

func optID(o shared.Options, name string) *string {
	if !o.HasOption(name) {
		return nil
	}
	return policy.Ptr(o.GetIDOption(name))
}

// spamPatch builds the /automod spam update
func spamPatch(o shared.Options) (policy.AutomodPatch, error) {
	p := &policy.AntiSpamPatch{
		Enabled:            optBool(o, optEnabled),
		MaxMessages:        optInt(o, optMax),
		TimeWindowMs:       optSecondsMs(o, optWindow),
		DuplicateThreshold: optInt(o, optDupes),
		Action:             actionValue(o),
	}
	if o.HasOption(optDuration) {
		d, err := durations.Parse(o.GetStringOption(optDuration))
		if err != nil {
			return policy.AutomodPatch{}, err
		}
		p.TimeoutDurationMs = policy.Ptr(d.Milliseconds())
	}
	return policy.AutomodPatch{AntiSpam: p}, nil
}

// linksPatch builds the /automod links update
func linksPatch(o shared.Options) policy.AutomodPatch {
	return policy.AutomodPatch{LinkFilter: &policy.LinkFilterPatch{
		Enabled:       optBool(o, optEnabled),
		BlockInvites:  optBool(o, optInvites),
		BlockAllLinks: optBool(o, optAllLinks),
		Action:        actionValue(o),
	}}
}

// wordsPatch builds the /automod words update
func wordsPatch(o shared.Options) policy.AutomodPatch {
	return policy.AutomodPatch{WordFilter: &policy.WordFilterPatch{
		Enabled: optBool(o, optEnabled),
		Action:  actionValue(o),
	}}
}

// accountAgePatch builds the /automod account-age update
func accountAgePatch(o shared.Options) policy.AutomodPatch {
	return policy.AutomodPatch{AccountAge: &policy.AccountAgePatch{
		Enabled:          optBool(o, optEnabled),
		MinAgeDays:       optInt(o, optMinDays),
		Action:           actionValue(o),
		QuarantineRoleID: optID(o, optRole),
	}}
}

// raidPatch builds the /raid config update
func raidPatch(o shared.Options) policy.RaidPatch {
	return policy.RaidPatch{
		Enabled:           optBool(o, optEnabled),
		JoinThreshold:     optInt(o, optThreshold),
		TimeWindowMs:      optSecondsMs(o, optWindow),
		Action:            actionValue(o),
		QuarantineRoleID:  optID(o, optRole),
		MinAccountAgeDays: optInt(o, optMinAge),
		LockdownOnRaid:    optBool(o, optLockdown),
		AlertChannelID:    optID(o, optChannel),
	}
}

// quarantineNote warns about a quarantine action with no role to assign
func quarantineNote(action models.EnforcementAction, roleID string) string {
	if action == models.EnforceQuarantine && roleID == "" {
		return "\n⚠️ La acción `quarantine` necesita un rol. Indícalo con la opción `" + optRole + "`."
	}
	return ""
}

// escalationRule builds the /escalation set rule. Durations use hours or days.
func escalationRule(o shared.Options) (models.EscalationRule, error) {
	rule := models.EscalationRule{
		WarnThreshold: int(o.GetIntOption(optWarns)),
		Action:        models.EnforcementAction(o.GetStringOption(optAction)),
	}
	if rule.Action == models.EnforceTimeout && o.HasOption(optDuration) {
		d, err := durations.ParseCoarse(o.GetStringOption(optDuration))
		if err != nil {
			return rule, err
		}
		if d > durations.MaxTimeout {
			return rule, durations.ErrInvalidDuration
		}
		rule.TimeoutDurationMs = d.Milliseconds()
	}
	return rule, nil
}
