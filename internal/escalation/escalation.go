// Package escalation turns warning counts into stronger actions.
package escalation

import (
	"context"
	"fmt"
	"time"

	"github.com/PancyStudios/PancyGuard/internal/durations"
	"github.com/PancyStudios/PancyGuard/internal/enforcement"
	"github.com/PancyStudios/PancyGuard/internal/ledger"
	"github.com/PancyStudios/PancyGuard/pkg/logger"
	"github.com/PancyStudios/PancyGuard/pkg/models"
)

// DefaultTimeout applies to timeout rules without a duration
const DefaultTimeout = time.Hour

// Evaluate returns the rule whose threshold equals warnCount exactly
func Evaluate(p models.EscalationPolicy, warnCount int) (models.EscalationRule, bool) {
	if !p.Enabled {
		return models.EscalationRule{}, false
	}
	for _, rule := range p.Rules {
		if rule.WarnThreshold == warnCount {
			return rule, true
		}
	}
	return models.EscalationRule{}, false
}

// RuleTimeout is the timeout length of a rule
func RuleTimeout(rule models.EscalationRule) time.Duration {
	if rule.TimeoutDurationMs <= 0 {
		return DefaultTimeout
	}
	return time.Duration(rule.TimeoutDurationMs) * time.Millisecond
}

// PolicySource reads escalation policies
type PolicySource interface {
	Escalation(ctx context.Context, guildID string) (models.EscalationPolicy, error)
}

// WarnRequest is a moderator warning a member
type WarnRequest struct {
	Target    enforcement.Target
	GuildName string
	Moderator ledger.Party
	Reason    string
}

// Escalated describes an escalation that fired
type Escalated struct {
	Rule models.EscalationRule
	Case *models.ModerationCase
	Err  error
}

// WarnResult is what a warning produced
type WarnResult struct {
	Case       models.ModerationCase
	WarnCount  int
	Notify     enforcement.NotifyResult
	Escalation *Escalated
}

// Service records warnings and escalates on exact thresholds
type Service struct {
	policies  PolicySource
	ledger    *ledger.Ledger
	executor  *enforcement.Executor
	botUserID func() string
}

// NewService creates an escalation Service
func NewService(policies PolicySource, l *ledger.Ledger, executor *enforcement.Executor, botUserID func() string) *Service {
	return &Service{policies: policies, ledger: l, executor: executor, botUserID: botUserID}
}

// Warn records a warning, notifies the member and runs escalation.
// A failed escalation is reported in the result and never undoes the warning.
func (s *Service) Warn(ctx context.Context, req WarnRequest) (WarnResult, error) {
	var result WarnResult

	out, err := s.executor.Apply(ctx, req.Target, req.Moderator, enforcement.Action{
		Kind:   enforcement.KindWarn,
		Reason: req.Reason,
	})
	if err != nil {
		return result, err
	}
	result.Case = *out.Case
	// Counted in the same write as the case so concurrent warnings see distinct counts
	result.WarnCount = out.ActionCount

	result.Notify = s.executor.Notify(ctx, req.Target.UserID, fmt.Sprintf(
		"Has recibido una advertencia en **%s**.\nRazón: %s\nAdvertencias totales: %d",
		req.GuildName, req.Reason, result.WarnCount))

	policy, err := s.policies.Escalation(ctx, req.Target.GuildID)
	if err != nil {
		logger.Warn(fmt.Sprintf("No se pudo leer la escalada de %s: %v", req.Target.GuildID, err), "Escalation")
		return result, nil
	}
	rule, ok := Evaluate(policy, result.WarnCount)
	if !ok {
		return result, nil
	}

	result.Escalation = s.escalate(ctx, req, rule, result.WarnCount)
	return result, nil
}

func (s *Service) escalate(ctx context.Context, req WarnRequest, rule models.EscalationRule, warnCount int) *Escalated {
	esc := &Escalated{Rule: rule}
	action := enforcement.Action{
		Reason: fmt.Sprintf("Escalado automático: %d advertencias alcanzadas", warnCount),
	}
	switch rule.Action {
	case models.EnforceTimeout:
		action.Kind = enforcement.KindTimeout
		action.Duration = RuleTimeout(rule)
		action.Notice = fmt.Sprintf("Has sido silenciado en **%s** durante %s por alcanzar %d advertencias.",
			req.GuildName, durations.Format(action.Duration), warnCount)
	case models.EnforceKick:
		action.Kind = enforcement.KindKick
		action.Notice = fmt.Sprintf("Has sido expulsado de **%s** por alcanzar %d advertencias.", req.GuildName, warnCount)
	case models.EnforceBan:
		action.Kind = enforcement.KindBan
		action.Notice = fmt.Sprintf("Has sido baneado de **%s** por alcanzar %d advertencias.", req.GuildName, warnCount)
	default:
		esc.Err = fmt.Errorf("%w: %s", enforcement.ErrInvalidAction, rule.Action)
		return esc
	}

	botID := ""
	if s.botUserID != nil {
		botID = s.botUserID()
	}
	target := req.Target
	target.ChannelID, target.MessageID = "", ""

	out, err := s.executor.Apply(ctx, target, enforcement.System(enforcement.StrikeEscalation, botID), action)
	esc.Case = out.Case
	if err != nil {
		esc.Err = err
		logger.Warn(fmt.Sprintf("Escalada fallida para %s: %v", req.Target.Tag, err), "Escalation")
	}
	return esc
}
