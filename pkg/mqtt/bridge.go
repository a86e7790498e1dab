package mqtt

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/PancyStudios/PancyGuard/internal/enforcement"
	boterrors "github.com/PancyStudios/PancyGuard/pkg/errors"
	"github.com/PancyStudios/PancyGuard/pkg/models"
)

// Event and request topics
const (
	TopicCaseEvents = "pancyguard/events/case"
	TopicRaidEvents = "pancyguard/events/raid"

	RequestUserCases  = "cases.user"
	RequestRaidStatus = "raid.status"
)

const queryTimeout = 10 * time.Second

var (
	errMissingField = errors.New("campo requerido ausente")
	errPanicked     = errors.New("error interno")
)

// EventTopic returns the topic an audit event is published on
func EventTopic(event enforcement.AuditEvent) string {
	if event.Type == enforcement.EventCase {
		return TopicCaseEvents
	}
	return TopicRaidEvents
}

// Publisher is the subset of the communicator the auditor needs
type Publisher interface {
	Publish(topic string, payload interface{}) error
}

// Auditor publishes audit events on the bus
type Auditor struct {
	pub Publisher
}

// NewAuditor creates an audit publisher
func NewAuditor(pub Publisher) *Auditor {
	return &Auditor{pub: pub}
}

func (a *Auditor) Audit(_ context.Context, event enforcement.AuditEvent) error {
	return a.pub.Publish(EventTopic(event), event)
}

// CaseLookup returns the cases of a user in a guild
type CaseLookup func(ctx context.Context, guildID, userID string) ([]models.ModerationCase, error)

// RaidLookup returns the raid status of a guild
type RaidLookup func(ctx context.Context, guildID string) (interface{}, error)

// Bridge answers bus queries against the moderation services
type Bridge struct {
	Cases CaseLookup
	Raid  RaidLookup
}

func stringField(payload map[string]interface{}, name string) (string, error) {
	v, _ := payload[name].(string)
	if v == "" {
		return "", fmt.Errorf("%w: %s", errMissingField, name)
	}
	return v, nil
}

// UserCases handles cases.user: {"guildId", "userId"}
func (b *Bridge) UserCases(payload map[string]interface{}) (interface{}, error) {
	guildID, err := stringField(payload, "guildId")
	if err != nil {
		return nil, err
	}
	userID, err := stringField(payload, "userId")
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(context.Background(), queryTimeout)
	defer cancel()
	cases, err := b.Cases(ctx, guildID, userID)
	if err != nil {
		return nil, err
	}
	return map[string]interface{}{"guildId": guildID, "userId": userID, "cases": cases}, nil
}

// RaidStatus handles raid.status: {"guildId"}
func (b *Bridge) RaidStatus(payload map[string]interface{}) (interface{}, error) {
	guildID, err := stringField(payload, "guildId")
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(context.Background(), queryTimeout)
	defer cancel()
	return b.Raid(ctx, guildID)
}

// Register subscribes the bridge handlers. Handlers run under the crash guard.
func (b *Bridge) Register(mc *MqttCommunicator) {
	mc.On(RequestUserCases, guarded(b.UserCases))
	mc.On(RequestRaidStatus, guarded(b.RaidStatus))
}

func guarded(h RequestHandler) RequestHandler {
	return func(payload map[string]interface{}) (data interface{}, err error) {
		err = errPanicked
		defer boterrors.RecoverMiddleware()()
		return h(payload)
	}
}
