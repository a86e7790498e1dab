// Package enforcementtest provides an in-memory platform for exercising moderation flows in tests.
package enforcementtest

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/PancyStudios/PancyGuard/internal/enforcement"
)

// Platform implements Enforcer, Notifier and Directory and records every call
// as "<op>:<args>" in order.
type Platform struct {
	mu      sync.Mutex
	calls   []string
	members map[string]enforcement.Member
	dms     map[string][]string

	// Deny makes the named operations fail with ErrPermissionDenied
	Deny map[string]bool
	// ClosedDMs lists users whose DMs are undeliverable
	ClosedDMs map[string]bool
}

// New creates an empty Platform
func New() *Platform {
	return &Platform{
		members:   make(map[string]enforcement.Member),
		dms:       make(map[string][]string),
		Deny:      make(map[string]bool),
		ClosedDMs: make(map[string]bool),
	}
}

// AddMember registers a member for Directory lookups
func (p *Platform) AddMember(m enforcement.Member) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.members[m.GuildID+"/"+m.UserID] = m
}

func (p *Platform) record(op string, args ...string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.calls = append(p.calls, op+":"+strings.Join(args, ","))
	if p.Deny[op] {
		return fmt.Errorf("%s: %w", op, enforcement.ErrPermissionDenied)
	}
	return nil
}

// Calls returns the recorded calls
func (p *Platform) Calls() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]string(nil), p.calls...)
}

// Ops returns only the operation names of the recorded calls
func (p *Platform) Ops() []string {
	calls := p.Calls()
	ops := make([]string, len(calls))
	for i, c := range calls {
		ops[i], _, _ = strings.Cut(c, ":")
	}
	return ops
}

// Count returns how many times op was called
func (p *Platform) Count(op string) int {
	n := 0
	for _, o := range p.Ops() {
		if o == op {
			n++
		}
	}
	return n
}

// DMs returns the direct messages sent to a user
func (p *Platform) DMs(userID string) []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]string(nil), p.dms[userID]...)
}

func (p *Platform) Member(_ context.Context, guildID, userID string) (enforcement.Member, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	m, ok := p.members[guildID+"/"+userID]
	if !ok {
		return enforcement.Member{}, enforcement.ErrMemberNotFound
	}
	return m, nil
}

func (p *Platform) DeleteMessage(_ context.Context, channelID, messageID string) error {
	return p.record("delete", channelID, messageID)
}

func (p *Platform) Timeout(_ context.Context, guildID, userID string, until time.Time, _ string) error {
	return p.record("timeout", guildID, userID, until.UTC().Format(time.RFC3339))
}

func (p *Platform) RemoveTimeout(_ context.Context, guildID, userID string) error {
	return p.record("untimeout", guildID, userID)
}

func (p *Platform) Kick(_ context.Context, guildID, userID, _ string) error {
	return p.record("kick", guildID, userID)
}

func (p *Platform) Ban(_ context.Context, guildID, userID, _ string, deleteMessageDays int) error {
	return p.record("ban", guildID, userID, fmt.Sprint(deleteMessageDays))
}

func (p *Platform) Unban(_ context.Context, guildID, userID string) error {
	return p.record("unban", guildID, userID)
}

func (p *Platform) AddRole(_ context.Context, guildID, userID, roleID string) error {
	return p.record("addrole", guildID, userID, roleID)
}

func (p *Platform) RemoveRole(_ context.Context, guildID, userID, roleID string) error {
	return p.record("removerole", guildID, userID, roleID)
}

func (p *Platform) Notify(_ context.Context, userID, content string) enforcement.NotifyResult {
	_ = p.record("dm", userID)
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.ClosedDMs[userID] {
		return enforcement.NotifyUndeliverable
	}
	p.dms[userID] = append(p.dms[userID], content)
	return enforcement.NotifyDelivered
}

// Recorder is an Auditor that keeps every event
type Recorder struct {
	mu     sync.Mutex
	events []enforcement.AuditEvent
}

func (r *Recorder) Audit(_ context.Context, event enforcement.AuditEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, event)
	return nil
}

// Events returns the recorded events
func (r *Recorder) Events() []enforcement.AuditEvent {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]enforcement.AuditEvent(nil), r.events...)
}
