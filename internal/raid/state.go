package raid

import (
	"context"
	"errors"
	"time"

	"github.com/PancyStudios/PancyGuard/pkg/database"
	"github.com/PancyStudios/PancyGuard/pkg/models"
)

// StateCollection holds the durable raid state per guild
const StateCollection = "raid_state"

// ErrNoActiveRaid is returned when ending a raid in a guild that is idle
var ErrNoActiveRaid = errors.New("no active raid")

// StateMachine moves guilds between Idle and Active. Transitions are serialized per guild.
type StateMachine struct {
	docs *database.DataManager[models.RaidState]
}

// NewStateMachine creates a StateMachine over a raid state DataManager
func NewStateMachine(docs *database.DataManager[models.RaidState]) *StateMachine {
	return &StateMachine{docs: docs}
}

func idle(guildID string) func() models.RaidState {
	return func() models.RaidState {
		return models.RaidState{GuildID: guildID}
	}
}

// State returns the current state of a guild
func (m *StateMachine) State(ctx context.Context, guildID string) (models.RaidState, error) {
	return m.docs.Get(ctx, guildID, idle(guildID))
}

// Activate moves an idle guild to Active. It reports false when a raid was already active.
func (m *StateMachine) Activate(ctx context.Context, guildID string, now time.Time) (models.RaidState, bool, error) {
	activated := false
	state, err := m.docs.Update(ctx, guildID, idle(guildID), func(s *models.RaidState) error {
		if s.Active {
			return nil
		}
		*s = models.RaidState{GuildID: guildID, Active: true, StartedAt: now.UTC()}
		activated = true
		return nil
	})
	return state, activated, err
}

// RecordHandled increments the handled count of an active raid
func (m *StateMachine) RecordHandled(ctx context.Context, guildID string) (models.RaidState, error) {
	return m.docs.Update(ctx, guildID, idle(guildID), func(s *models.RaidState) error {
		if s.Active {
			s.HandledCount++
		}
		return nil
	})
}

// End returns an active guild to Idle
func (m *StateMachine) End(ctx context.Context, guildID string, now time.Time) (models.RaidSummary, error) {
	var summary models.RaidSummary
	_, err := m.docs.Update(ctx, guildID, idle(guildID), func(s *models.RaidState) error {
		if !s.Active {
			return ErrNoActiveRaid
		}
		elapsed := now.Sub(s.StartedAt)
		if elapsed < 0 {
			elapsed = 0
		}
		summary = models.RaidSummary{DurationMs: elapsed.Milliseconds(), HandledCount: s.HandledCount}
		*s = models.RaidState{GuildID: guildID}
		return nil
	})
	return summary, err
}

// ActiveGuilds lists guilds whose raid mode is on
func (m *StateMachine) ActiveGuilds(ctx context.Context) ([]string, error) {
	keys, err := m.docs.Keys(ctx)
	if err != nil {
		return nil, err
	}
	var active []string
	for _, key := range keys {
		s, err := m.State(ctx, key)
		if err != nil {
			return nil, err
		}
		if s.Active {
			active = append(active, key)
		}
	}
	return active, nil
}
