package automod

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/PancyStudios/PancyGuard/internal/enforcement"
	"github.com/PancyStudios/PancyGuard/internal/ledger"
	"github.com/PancyStudios/PancyGuard/pkg/clock"
	"github.com/PancyStudios/PancyGuard/pkg/logger"
	"github.com/PancyStudios/PancyGuard/pkg/metrics"
	"github.com/PancyStudios/PancyGuard/pkg/models"
)

const defaultFilterTimeout = 5 * time.Minute

// PolicySource reads automod policies
type PolicySource interface {
	Automod(ctx context.Context, guildID string) (models.AutomodPolicy, error)
}

// Message is an inbound guild message
type Message struct {
	GuildID   string
	GuildName string
	ChannelID string
	MessageID string
	AuthorID  string
	AuthorTag string
	Bot       bool
	Content   string
}

// Join is a member joining a guild
type Join struct {
	GuildID   string
	GuildName string
	UserID    string
	Tag       string
	CreatedAt time.Time
}

// Service runs automod over messages and joins
type Service struct {
	policies  PolicySource
	tracker   *Tracker
	executor  *enforcement.Executor
	directory enforcement.Directory
	clock     clock.Clock
	botUserID func() string
}

// NewService wires the automod pipeline. botUserID resolves the bot account used as case moderator.
func NewService(policies PolicySource, tracker *Tracker, executor *enforcement.Executor, directory enforcement.Directory, clk clock.Clock, botUserID func() string) *Service {
	return &Service{
		policies:  policies,
		tracker:   tracker,
		executor:  executor,
		directory: directory,
		clock:     clk,
		botUserID: botUserID,
	}
}

// Tracker returns the rate tracker
func (s *Service) Tracker() *Tracker {
	return s.tracker
}

func (s *Service) moderator() ledger.Party {
	id := ""
	if s.botUserID != nil {
		id = s.botUserID()
	}
	return enforcement.System(enforcement.AutoMod, id)
}

// HandleMessage evaluates a message and enforces the first violation found
func (s *Service) HandleMessage(ctx context.Context, msg Message) (*Violation, error) {
	if msg.GuildID == "" || msg.Bot {
		return nil, nil
	}

	policy, err := s.policies.Automod(ctx, msg.GuildID)
	if err != nil {
		return nil, fmt.Errorf("loading automod policy: %w", err)
	}
	if !policy.Enabled {
		return nil, nil
	}

	member, err := s.directory.Member(ctx, msg.GuildID, msg.AuthorID)
	switch {
	case err == nil:
		if IsExempt(policy, member.RoleIDs, member.Administrator) {
			return nil, nil
		}
	case !errors.Is(err, enforcement.ErrMemberNotFound):
		logger.Debug(fmt.Sprintf("No se pudo resolver al miembro %s: %v", msg.AuthorID, err), "AutoMod")
	}

	var obs Observation
	if policy.AntiSpam.Enabled {
		obs = s.tracker.Observe(msg.GuildID, msg.AuthorID, msg.Content, policy.AntiSpam.TimeWindow())
	}

	violation, found := Evaluate(policy, msg.Content, obs)
	if !found {
		return nil, nil
	}
	metrics.AutomodViolations.WithLabelValues(string(violation.Rule), string(violation.Action)).Inc()

	kind, ok := enforcement.KindFor(violation.Action)
	if !ok {
		kind = enforcement.KindDelete
	}
	action := enforcement.Action{
		Kind:   kind,
		Reason: "[AutoMod] " + violation.Reason,
	}
	switch kind {
	case enforcement.KindWarn:
		action.Notice = fmt.Sprintf("⚠️ Recibiste una advertencia automática en **%s**\nRazón: %s", msg.GuildName, violation.Reason)
	case enforcement.KindTimeout:
		action.Duration = violation.TimeoutDuration
		if action.Duration <= 0 {
			action.Duration = defaultFilterTimeout
		}
		action.Notice = fmt.Sprintf("⏰ Fuiste silenciado en **%s** durante %d minutos\nRazón: %s",
			msg.GuildName, int(action.Duration.Round(time.Minute)/time.Minute), violation.Reason)
	case enforcement.KindKick:
		action.Notice = fmt.Sprintf("👢 Fuiste expulsado de **%s**\nRazón: %s", msg.GuildName, violation.Reason)
	case enforcement.KindDelete:
	default:
		// ban and quarantine are not message actions
		action.Kind = enforcement.KindDelete
	}

	target := enforcement.Target{
		GuildID:   msg.GuildID,
		UserID:    msg.AuthorID,
		Tag:       msg.AuthorTag,
		ChannelID: msg.ChannelID,
		MessageID: msg.MessageID,
	}
	if _, err := s.executor.Apply(ctx, target, s.moderator(), action); err != nil {
		return &violation, err
	}
	return &violation, nil
}

// AccountAgeReason describes a rejected account
func AccountAgeReason(ageDays, minDays int) string {
	return fmt.Sprintf("Cuenta demasiado nueva (%d días, mínimo %d días requeridos)", ageDays, minDays)
}

// HandleJoin applies the account age gate. It reports whether the member was acted on.
func (s *Service) HandleJoin(ctx context.Context, join Join) (bool, error) {
	policy, err := s.policies.Automod(ctx, join.GuildID)
	if err != nil {
		return false, fmt.Errorf("loading automod policy: %w", err)
	}
	gate := policy.AccountAge
	if !policy.Enabled || !gate.Enabled {
		return false, nil
	}

	age := s.clock.Now().Sub(join.CreatedAt)
	if age >= time.Duration(gate.MinAgeDays)*24*time.Hour {
		return false, nil
	}
	ageDays := int(age / (24 * time.Hour))
	reason := AccountAgeReason(ageDays, gate.MinAgeDays)
	target := enforcement.Target{GuildID: join.GuildID, UserID: join.UserID, Tag: join.Tag}

	switch gate.Action {
	case models.EnforceKick:
		notice := fmt.Sprintf("Tu cuenta es demasiado nueva para unirte a **%s**.\nEdad requerida: %d días\nEdad de tu cuenta: %d días\n\nInténtalo de nuevo más tarde.",
			join.GuildName, gate.MinAgeDays, ageDays)
		if _, err := s.executor.Apply(ctx, target, s.moderator(), enforcement.Action{
			Kind:   enforcement.KindKick,
			Reason: "[AutoMod] " + reason,
			Notice: notice,
		}); err != nil {
			return false, err
		}
		logger.Info(fmt.Sprintf("Cuenta nueva expulsada: %s (%d días)", join.Tag, ageDays), "AutoMod")
		return true, nil

	case models.EnforceQuarantine:
		if gate.QuarantineRoleID == "" {
			logger.Warn(fmt.Sprintf("Cuarentena sin rol configurado en %s", join.GuildID), "AutoMod")
			return false, nil
		}
		notice := fmt.Sprintf("¡Bienvenido a **%s**!\n\nTu cuenta es nueva (%d días), así que has sido puesto en cuarentena.\nUn moderador te verificará en breve.",
			join.GuildName, ageDays)
		if _, err := s.executor.Apply(ctx, target, s.moderator(), enforcement.Action{
			Kind:   enforcement.KindQuarantine,
			RoleID: gate.QuarantineRoleID,
			Reason: "[AutoMod] " + reason,
			Notice: notice,
		}); err != nil {
			return false, err
		}
		logger.Info(fmt.Sprintf("Cuenta nueva en cuarentena: %s (%d días)", join.Tag, ageDays), "AutoMod")
		return true, nil
	}
	return false, nil
}
