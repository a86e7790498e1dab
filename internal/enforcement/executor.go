package enforcement

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/PancyStudios/PancyGuard/internal/durations"
	"github.com/PancyStudios/PancyGuard/internal/ledger"
	"github.com/PancyStudios/PancyGuard/pkg/clock"
	"github.com/PancyStudios/PancyGuard/pkg/logger"
	"github.com/PancyStudios/PancyGuard/pkg/metrics"
	"github.com/PancyStudios/PancyGuard/pkg/models"
)

// ErrInvalidAction is returned for actions missing required parameters
var ErrInvalidAction = errors.New("invalid action")

// Steps an action can be made of
const (
	StepDelete    = "delete"
	StepTimeout   = "timeout"
	StepUntimeout = "untimeout"
	StepKick      = "kick"
	StepBan       = "ban"
	StepUnban     = "unban"
	StepRole      = "role"
	StepCase      = "case"
)

// StepFailure records a step that did not complete
type StepFailure struct {
	Step string
	Err  error
}

// Outcome reports what Apply actually did
type Outcome struct {
	Kind        Kind
	Deleted     bool
	Enforced    bool
	Case        *models.ModerationCase
	// ActionCount is how many cases of this kind the target has, this one included
	ActionCount int
	Notify      NotifyResult
	Failures    []StepFailure
}

// PermissionDenied reports whether any step failed for lack of permissions
func (o Outcome) PermissionDenied() bool {
	for _, f := range o.Failures {
		if errors.Is(f.Err, ErrPermissionDenied) {
			return true
		}
	}
	return false
}

// Executor applies actions in a fixed order per kind:
//
//	delete:     delete
//	warn:       delete, case, DM
//	timeout:    delete, timeout, case, DM
//	untimeout:  remove timeout, case, DM
//	kick:       delete, DM, kick, case
//	ban:        delete, DM, ban, case
//	unban:      unban, case
//	quarantine: add role, DM
//
// A failed platform step is recorded and stops the action before its case is written.
// Message deletion and DMs are best effort.
type Executor struct {
	enforcer    Enforcer
	notifier    Notifier
	ledger      *ledger.Ledger
	auditor     Auditor
	clock       clock.Clock
	callTimeout time.Duration
}

// NewExecutor creates an Executor. auditor may be nil.
func NewExecutor(enforcer Enforcer, notifier Notifier, l *ledger.Ledger, auditor Auditor, clk clock.Clock) *Executor {
	return &Executor{
		enforcer:    enforcer,
		notifier:    notifier,
		ledger:      l,
		auditor:     auditor,
		clock:       clk,
		callTimeout: 10 * time.Second,
	}
}

func (a Action) validate() error {
	switch a.Kind {
	case KindDelete, KindWarn, KindUntimeout, KindKick, KindBan, KindUnban:
	case KindTimeout:
		if a.Duration <= 0 || a.Duration > durations.MaxTimeout {
			return fmt.Errorf("%w: timeout de %s", durations.ErrInvalidDuration, a.Duration)
		}
	case KindQuarantine:
		if a.RoleID == "" {
			return fmt.Errorf("%w: quarantine sin rol", ErrInvalidAction)
		}
	default:
		return fmt.Errorf("%w: %s", ErrInvalidAction, a.Kind)
	}
	if a.DeleteMessageDays < 0 || a.DeleteMessageDays > 7 {
		return fmt.Errorf("%w: deleteMessageDays %d", ErrInvalidAction, a.DeleteMessageDays)
	}
	return nil
}

// Apply runs the action against target on behalf of moderator. The returned error is
// set when the primary step or the case write failed; the outcome is always filled in.
func (e *Executor) Apply(ctx context.Context, target Target, moderator ledger.Party, action Action) (Outcome, error) {
	out := Outcome{Kind: action.Kind}
	if err := action.validate(); err != nil {
		return out, err
	}

	// Once started an action runs to the end even if the caller goes away
	ctx = context.WithoutCancel(ctx)

	if target.hasMessage() {
		err := e.call(ctx, func(ctx context.Context) error {
			return e.enforcer.DeleteMessage(ctx, target.ChannelID, target.MessageID)
		})
		if err != nil {
			out.fail(StepDelete, err)
		} else {
			out.Deleted = true
		}
	}

	var err error
	switch action.Kind {
	case KindDelete:
		out.Enforced = out.Deleted

	case KindWarn:
		if err = e.record(ctx, &out, target, moderator, action); err == nil {
			e.notify(ctx, &out, target, action)
		}

	case KindTimeout:
		until := e.clock.Now().Add(action.Duration)
		if err = e.enforce(ctx, &out, StepTimeout, func(ctx context.Context) error {
			return e.enforcer.Timeout(ctx, target.GuildID, target.UserID, until, action.Reason)
		}); err == nil {
			if err = e.record(ctx, &out, target, moderator, action); err == nil {
				e.notify(ctx, &out, target, action)
			}
		}

	case KindUntimeout:
		if err = e.enforce(ctx, &out, StepUntimeout, func(ctx context.Context) error {
			return e.enforcer.RemoveTimeout(ctx, target.GuildID, target.UserID)
		}); err == nil {
			if err = e.record(ctx, &out, target, moderator, action); err == nil {
				e.notify(ctx, &out, target, action)
			}
		}

	case KindKick:
		e.notify(ctx, &out, target, action)
		if err = e.enforce(ctx, &out, StepKick, func(ctx context.Context) error {
			return e.enforcer.Kick(ctx, target.GuildID, target.UserID, action.Reason)
		}); err == nil {
			err = e.record(ctx, &out, target, moderator, action)
		}

	case KindBan:
		e.notify(ctx, &out, target, action)
		if err = e.enforce(ctx, &out, StepBan, func(ctx context.Context) error {
			return e.enforcer.Ban(ctx, target.GuildID, target.UserID, action.Reason, action.DeleteMessageDays)
		}); err == nil {
			err = e.record(ctx, &out, target, moderator, action)
		}

	case KindUnban:
		if err = e.enforce(ctx, &out, StepUnban, func(ctx context.Context) error {
			return e.enforcer.Unban(ctx, target.GuildID, target.UserID)
		}); err == nil {
			err = e.record(ctx, &out, target, moderator, action)
		}

	case KindQuarantine:
		if err = e.enforce(ctx, &out, StepRole, func(ctx context.Context) error {
			return e.enforcer.AddRole(ctx, target.GuildID, target.UserID, action.RoleID)
		}); err == nil {
			e.notify(ctx, &out, target, action)
		}
	}

	if err != nil {
		logger.Error(fmt.Sprintf("Acción %s sobre %s (%s) fallida: %v", action.Kind, target.Tag, target.UserID, err), "Enforcement")
		return out, err
	}
	logger.Info(fmt.Sprintf("Acción: %s | Usuario: %s | Razón: %s", action.Kind, target.Tag, action.Reason), "Enforcement")
	return out, nil
}

func (e *Executor) call(ctx context.Context, fn func(ctx context.Context) error) error {
	callCtx, cancel := context.WithTimeout(ctx, e.callTimeout)
	defer cancel()
	return fn(callCtx)
}

func (o *Outcome) fail(step string, err error) {
	o.Failures = append(o.Failures, StepFailure{Step: step, Err: err})
	metrics.EnforcementFailures.WithLabelValues(step).Inc()
	if errors.Is(err, ErrPermissionDenied) {
		logger.Warn(fmt.Sprintf("Sin permisos para el paso %s: %v", step, err), "Enforcement")
	}
}

// enforce runs the primary platform step of an action
func (e *Executor) enforce(ctx context.Context, out *Outcome, step string, fn func(ctx context.Context) error) error {
	if err := e.call(ctx, fn); err != nil {
		out.fail(step, err)
		return fmt.Errorf("%s: %w", step, err)
	}
	out.Enforced = true
	return nil
}

func (e *Executor) record(ctx context.Context, out *Outcome, target Target, moderator ledger.Party, action Action) error {
	caseAction, ok := action.Kind.caseAction()
	if !ok {
		return nil
	}

	rec, err := e.ledger.RecordCase(ctx, ledger.NewCase{
		GuildID:         target.GuildID,
		Target:          target.party(),
		Moderator:       moderator,
		Action:          caseAction,
		Reason:          action.Reason,
		DurationSeconds: int64(action.Duration / time.Second),
	})
	if err != nil {
		out.fail(StepCase, err)
		return err
	}
	if action.Kind == KindWarn {
		out.Enforced = true
	}
	c := rec.Case
	out.Case = &c
	out.ActionCount = rec.ActionCount
	metrics.CasesCreated.WithLabelValues(string(c.Action)).Inc()

	Emit(ctx, e.auditor, NewCaseEvent(c))
	return nil
}

func (e *Executor) notify(ctx context.Context, out *Outcome, target Target, action Action) {
	if action.Notice == "" {
		return
	}
	out.Notify = e.Notify(ctx, target.UserID, action.Notice)
}

// Notify sends a standalone DM, for notices that depend on the recorded case
func (e *Executor) Notify(ctx context.Context, userID, content string) NotifyResult {
	if e.notifier == nil {
		return NotifyUnknown
	}
	callCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), e.callTimeout)
	defer cancel()

	result := e.notifier.Notify(callCtx, userID, content)
	metrics.Notifications.WithLabelValues(result.String()).Inc()
	return result
}
