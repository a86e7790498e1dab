// Package raid detects join bursts and handles suspicious members while raid mode is on.
package raid

import (
	"context"
	"fmt"
	"time"

	"github.com/PancyStudios/PancyGuard/internal/enforcement"
	"github.com/PancyStudios/PancyGuard/pkg/clock"
	"github.com/PancyStudios/PancyGuard/pkg/logger"
	"github.com/PancyStudios/PancyGuard/pkg/metrics"
	"github.com/PancyStudios/PancyGuard/pkg/models"
)

// HandlingReason is the audit reason for members handled during a raid
const HandlingReason = "Raid protection: New account during raid"

// PolicySource reads raid policies
type PolicySource interface {
	Raid(ctx context.Context, guildID string) (models.RaidPolicy, error)
}

// Join is a member joining a guild
type Join struct {
	GuildID   string
	UserID    string
	Tag       string
	CreatedAt time.Time
}

// JoinResult tells what a join did to the raid state
type JoinResult struct {
	RecentJoins int
	Activated   bool
	Active      bool
	Handled     bool
}

// Status is the raid view shown to operators
type Status struct {
	Policy      models.RaidPolicy `json:"policy"`
	State       models.RaidState  `json:"state"`
	RecentJoins int               `json:"recentJoins"`
}

// Service couples the join tracker with the durable raid state
type Service struct {
	policies  PolicySource
	joins     *JoinTracker
	states    *StateMachine
	executor  *enforcement.Executor
	auditor   enforcement.Auditor
	clock     clock.Clock
	botUserID func() string
}

// NewService creates a raid Service. auditor may be nil.
func NewService(policies PolicySource, joins *JoinTracker, states *StateMachine, executor *enforcement.Executor, auditor enforcement.Auditor, clk clock.Clock, botUserID func() string) *Service {
	return &Service{
		policies:  policies,
		joins:     joins,
		states:    states,
		executor:  executor,
		auditor:   auditor,
		clock:     clk,
		botUserID: botUserID,
	}
}

// Joins returns the join tracker
func (s *Service) Joins() *JoinTracker {
	return s.joins
}

// HandleJoin records a join, activates raid mode on a burst and handles young accounts while active
func (s *Service) HandleJoin(ctx context.Context, join Join) (JoinResult, error) {
	var result JoinResult

	policy, err := s.policies.Raid(ctx, join.GuildID)
	if err != nil {
		return result, fmt.Errorf("loading raid policy: %w", err)
	}
	if !policy.Enabled {
		return result, nil
	}

	now := s.clock.Now()
	result.RecentJoins = s.joins.Record(join.GuildID, policy.TimeWindow())

	state, err := s.states.State(ctx, join.GuildID)
	if err != nil {
		return result, err
	}

	if !state.Active && result.RecentJoins >= policy.JoinThreshold {
		state, result.Activated, err = s.states.Activate(ctx, join.GuildID, now)
		if err != nil {
			return result, err
		}
		if result.Activated {
			metrics.RaidsActivated.Inc()
			logger.Warn(fmt.Sprintf("Raid detectado en %s: %d uniones rápidas", join.GuildID, result.RecentJoins), "RaidProtection")
			enforcement.Emit(ctx, s.auditor, enforcement.NewRaidEvent(enforcement.EventRaidStarted, join.GuildID, now, enforcement.RaidNotice{
				JoinCount:      result.RecentJoins,
				WindowMs:       policy.TimeWindowMs,
				Action:         string(policy.Action),
				AlertChannelID: policy.AlertChannelID,
			}))
		}
	}
	result.Active = state.Active
	if !state.Active {
		return result, nil
	}

	handled, err := s.handleMember(ctx, policy, join, now)
	result.Handled = handled
	return result, err
}

func (s *Service) handleMember(ctx context.Context, policy models.RaidPolicy, join Join, now time.Time) (bool, error) {
	if policy.MinAccountAgeDays <= 0 {
		return false, nil
	}
	if now.Sub(join.CreatedAt) >= time.Duration(policy.MinAccountAgeDays)*24*time.Hour {
		return false, nil
	}

	action := enforcement.Action{Reason: HandlingReason}
	switch policy.Action {
	case models.EnforceKick:
		action.Kind = enforcement.KindKick
		action.Notice = "Has sido expulsado automáticamente durante un evento de protección contra raids. Intenta unirte de nuevo más tarde."
	case models.EnforceBan:
		action.Kind = enforcement.KindBan
		action.Notice = "Has sido baneado automáticamente durante un evento de protección contra raids. Si fue un error, contacta al staff del servidor."
	case models.EnforceQuarantine:
		if policy.QuarantineRoleID == "" {
			logger.Warn(fmt.Sprintf("Cuarentena de raid sin rol configurado en %s", join.GuildID), "RaidProtection")
			return false, nil
		}
		action.Kind = enforcement.KindQuarantine
		action.RoleID = policy.QuarantineRoleID
		action.Notice = "Has sido puesto en cuarentena por un evento de protección contra raids. Un moderador te verificará en breve."
	default:
		return false, nil
	}

	botID := ""
	if s.botUserID != nil {
		botID = s.botUserID()
	}
	target := enforcement.Target{GuildID: join.GuildID, UserID: join.UserID, Tag: join.Tag}
	if _, err := s.executor.Apply(ctx, target, enforcement.System(enforcement.RaidProtection, botID), action); err != nil {
		logger.Error(fmt.Sprintf("No se pudo manejar al miembro %s durante el raid: %v", join.Tag, err), "RaidProtection")
		return false, err
	}

	if _, err := s.states.RecordHandled(ctx, join.GuildID); err != nil {
		return true, err
	}
	metrics.RaidMembersHandled.WithLabelValues(string(policy.Action)).Inc()
	logger.Info(fmt.Sprintf("Miembro manejado durante el raid: %s (acción: %s)", join.Tag, policy.Action), "RaidProtection")
	return true, nil
}

// End deactivates raid mode and returns its summary
func (s *Service) End(ctx context.Context, guildID string) (models.RaidSummary, error) {
	now := s.clock.Now()
	summary, err := s.states.End(ctx, guildID, now)
	if err != nil {
		return summary, err
	}

	logger.Info(fmt.Sprintf("Modo raid finalizado en %s: %d miembros manejados", guildID, summary.HandledCount), "RaidProtection")
	enforcement.Emit(ctx, s.auditor, enforcement.NewRaidEvent(enforcement.EventRaidEnded, guildID, now, enforcement.RaidNotice{Summary: &summary}))
	return summary, nil
}

// ActiveGuilds lists the guilds currently in raid mode
func (s *Service) ActiveGuilds(ctx context.Context) ([]string, error) {
	return s.states.ActiveGuilds(ctx)
}

// Status returns the policy, durable state and recent join count of a guild
func (s *Service) Status(ctx context.Context, guildID string) (Status, error) {
	policy, err := s.policies.Raid(ctx, guildID)
	if err != nil {
		return Status{}, err
	}
	state, err := s.states.State(ctx, guildID)
	if err != nil {
		return Status{}, err
	}
	return Status{Policy: policy, State: state, RecentJoins: s.joins.Recent(guildID)}, nil
}
