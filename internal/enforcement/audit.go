package enforcement

import (
	"context"
	"fmt"
	"time"

	"github.com/PancyStudios/PancyGuard/pkg/logger"
	"github.com/PancyStudios/PancyGuard/pkg/models"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

// Audit event types
const (
	EventCase        = "case"
	EventRaidStarted = "raid_started"
	EventRaidEnded   = "raid_ended"
)

// RaidNotice describes a raid transition
type RaidNotice struct {
	JoinCount      int                 `json:"joinCount,omitempty"`
	WindowMs       int64               `json:"windowMs,omitempty"`
	Action         string              `json:"action,omitempty"`
	AlertChannelID string              `json:"alertChannelId,omitempty"`
	Summary        *models.RaidSummary `json:"summary,omitempty"`
}

// AuditEvent is what operator-facing sinks receive
type AuditEvent struct {
	ID      string                 `json:"id"`
	Type    string                 `json:"type"`
	GuildID string                 `json:"guildId"`
	At      time.Time              `json:"at"`
	Case    *models.ModerationCase `json:"case,omitempty"`
	Raid    *RaidNotice            `json:"raid,omitempty"`
}

// NewCaseEvent wraps a created case
func NewCaseEvent(c models.ModerationCase) AuditEvent {
	return AuditEvent{
		ID:      uuid.NewString(),
		Type:    EventCase,
		GuildID: c.GuildID,
		At:      c.CreatedAt,
		Case:    &c,
	}
}

// NewRaidEvent wraps a raid transition
func NewRaidEvent(eventType, guildID string, at time.Time, notice RaidNotice) AuditEvent {
	return AuditEvent{
		ID:      uuid.NewString(),
		Type:    eventType,
		GuildID: guildID,
		At:      at,
		Raid:    &notice,
	}
}

// Auditor is a sink for audit events. Sinks without a destination do nothing.
type Auditor interface {
	Audit(ctx context.Context, event AuditEvent) error
}

// AuditFunc adapts a function to Auditor
type AuditFunc func(ctx context.Context, event AuditEvent) error

func (f AuditFunc) Audit(ctx context.Context, event AuditEvent) error {
	return f(ctx, event)
}

// MultiAuditor fans an event out to every sink concurrently
type MultiAuditor []Auditor

func (m MultiAuditor) Audit(ctx context.Context, event AuditEvent) error {
	var g errgroup.Group
	for _, a := range m {
		if a == nil {
			continue
		}
		a := a
		g.Go(func() error {
			return a.Audit(ctx, event)
		})
	}
	return g.Wait()
}

// Emit posts an event and logs failures. Audit output is best effort.
func Emit(ctx context.Context, auditor Auditor, event AuditEvent) {
	if auditor == nil {
		return
	}
	if err := auditor.Audit(ctx, event); err != nil {
		logger.Warn(fmt.Sprintf("No se pudo publicar el evento %s de %s: %v", event.Type, event.GuildID, err), "Audit")
	}
}
