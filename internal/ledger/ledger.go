// Package ledger is the append-only record of moderation cases.
// Each guild owns one document holding its case counter and its cases in creation order.
package ledger

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/PancyStudios/PancyGuard/pkg/clock"
	"github.com/PancyStudios/PancyGuard/pkg/database"
	"github.com/PancyStudios/PancyGuard/pkg/models"
)

// Collection is the storage collection holding case ledgers
const Collection = "cases"

var (
	ErrCaseNotFound = errors.New("case not found")
	ErrInvalidCase  = errors.New("invalid case")
)

// Party identifies the target or the moderator of a case
type Party struct {
	ID  string
	Tag string
}

// NewCase describes a case to be recorded
type NewCase struct {
	GuildID         string
	Target          Party
	Moderator       Party
	Action          models.ActionKind
	Reason          string
	DurationSeconds int64
}

// Ledger creates and reads moderation cases
type Ledger struct {
	docs  *database.DataManager[models.CaseLedger]
	clock clock.Clock
}

// New creates a Ledger on top of a case DataManager
func New(docs *database.DataManager[models.CaseLedger], clk clock.Clock) *Ledger {
	return &Ledger{docs: docs, clock: clk}
}

func emptyLedger() models.CaseLedger {
	return models.CaseLedger{Cases: []models.ModerationCase{}}
}

func (c NewCase) validate() error {
	switch {
	case c.GuildID == "":
		return fmt.Errorf("%w: missing guild", ErrInvalidCase)
	case c.Target.ID == "":
		return fmt.Errorf("%w: missing target", ErrInvalidCase)
	case !c.Action.Valid():
		return fmt.Errorf("%w: unknown action %q", ErrInvalidCase, c.Action)
	case c.DurationSeconds < 0:
		return fmt.Errorf("%w: negative duration", ErrInvalidCase)
	}
	return nil
}

// Recorded is a new case plus the number of cases of the same action the
// target has, counted in the same write that appended it
type Recorded struct {
	Case        models.ModerationCase
	ActionCount int
}

// CreateCase assigns the next case number of the guild and appends the case
func (l *Ledger) CreateCase(ctx context.Context, nc NewCase) (models.ModerationCase, error) {
	rec, err := l.RecordCase(ctx, nc)
	return rec.Case, err
}

// RecordCase is CreateCase that also reports the target's running count for the action.
// Concurrent records for the same user observe distinct counts.
func (l *Ledger) RecordCase(ctx context.Context, nc NewCase) (Recorded, error) {
	if err := nc.validate(); err != nil {
		return Recorded{}, err
	}

	var (
		created models.ModerationCase
		count   int
	)
	_, err := l.docs.Update(ctx, nc.GuildID, emptyLedger, func(doc *models.CaseLedger) error {
		doc.GuildID = nc.GuildID
		doc.LastCaseID++

		created = models.ModerationCase{
			ID:              doc.LastCaseID,
			GuildID:         nc.GuildID,
			TargetUserID:    nc.Target.ID,
			TargetTag:       nc.Target.Tag,
			ModeratorUserID: nc.Moderator.ID,
			ModeratorTag:    nc.Moderator.Tag,
			Action:          nc.Action,
			Reason:          nc.Reason,
			CreatedAt:       l.clock.Now().UTC(),
		}
		if nc.Action == models.ActionTimeout {
			created.DurationSeconds = nc.DurationSeconds
		}

		doc.Cases = append(doc.Cases, created)

		count = 0
		for _, c := range doc.Cases {
			if c.TargetUserID == nc.Target.ID && c.Action == nc.Action {
				count++
			}
		}
		return nil
	})
	if err != nil {
		return Recorded{}, fmt.Errorf("recording %s case: %w", nc.Action, err)
	}
	return Recorded{Case: created, ActionCount: count}, nil
}

// UserCases returns the cases of a user in creation order
func (l *Ledger) UserCases(ctx context.Context, guildID, userID string) ([]models.ModerationCase, error) {
	doc, err := l.docs.Get(ctx, guildID, emptyLedger)
	if err != nil {
		return nil, err
	}

	cases := make([]models.ModerationCase, 0)
	for _, c := range doc.Cases {
		if c.TargetUserID == userID {
			cases = append(cases, c)
		}
	}
	return cases, nil
}

// CountByAction counts the cases of a user per action kind
func (l *Ledger) CountByAction(ctx context.Context, guildID, userID string) (map[models.ActionKind]int, error) {
	cases, err := l.UserCases(ctx, guildID, userID)
	if err != nil {
		return nil, err
	}

	counts := make(map[models.ActionKind]int)
	for _, c := range cases {
		counts[c.Action]++
	}
	return counts, nil
}

// Case returns a single case by number
func (l *Ledger) Case(ctx context.Context, guildID string, id int) (models.ModerationCase, error) {
	doc, err := l.docs.Get(ctx, guildID, emptyLedger)
	if err != nil {
		return models.ModerationCase{}, err
	}

	// IDs are dense and ordered, so the index is a good first guess
	if id >= 1 && id <= len(doc.Cases) && doc.Cases[id-1].ID == id {
		return doc.Cases[id-1], nil
	}
	for _, c := range doc.Cases {
		if c.ID == id {
			return c, nil
		}
	}
	return models.ModerationCase{}, fmt.Errorf("%w: #%d", ErrCaseNotFound, id)
}

// RecentCases returns up to limit cases of the guild, newest first
func (l *Ledger) RecentCases(ctx context.Context, guildID string, limit int) ([]models.ModerationCase, error) {
	doc, err := l.docs.Get(ctx, guildID, emptyLedger)
	if err != nil {
		return nil, err
	}
	return Newest(doc.Cases, limit), nil
}

// Newest sorts a copy of cases by ID descending and keeps at most limit of them
func Newest(cases []models.ModerationCase, limit int) []models.ModerationCase {
	sorted := append([]models.ModerationCase(nil), cases...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].ID > sorted[j].ID })
	if limit > 0 && len(sorted) > limit {
		sorted = sorted[:limit]
	}
	return sorted
}
