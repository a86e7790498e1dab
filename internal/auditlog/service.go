// Package auditlog posts server activity (message edits and deletes, membership,
// bans, roles, nicknames and voice moves) to a per-guild channel.
package auditlog

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/PancyStudios/PancyGuard/pkg/clock"
	"github.com/PancyStudios/PancyGuard/pkg/database"
	"github.com/PancyStudios/PancyGuard/pkg/logger"
	"github.com/PancyStudios/PancyGuard/pkg/metrics"
	"github.com/PancyStudios/PancyGuard/pkg/models"
	"github.com/bwmarrin/discordgo"
)

// Collection holds the audit log configuration per guild
const Collection = "audit_log_config"

var (
	ErrUnknownEvent   = errors.New("unknown audit event")
	ErrMissingChannel = errors.New("missing audit log channel")
)

// Poster delivers an embed to a channel
type Poster interface {
	Post(ctx context.Context, channelID string, embed *discordgo.MessageEmbed) error
}

// Service reads the per-guild configuration and posts entries for the enabled kinds
type Service struct {
	configs *database.DataManager[models.AuditLogConfig]
	poster  Poster
	clock   clock.Clock
}

// NewService creates an audit log Service. A nil poster disables posting.
func NewService(configs *database.DataManager[models.AuditLogConfig], poster Poster, clk clock.Clock) *Service {
	if clk == nil {
		clk = clock.Real{}
	}
	return &Service{configs: configs, poster: poster, clock: clk}
}

// Defaults is the configuration of a guild that never ran /auditlog: off, every kind selected
func Defaults(guildID string) func() models.AuditLogConfig {
	return func() models.AuditLogConfig {
		events := make(map[models.AuditEventKind]bool, len(models.AuditEventKinds))
		for _, k := range models.AuditEventKinds {
			events[k] = true
		}
		return models.AuditLogConfig{GuildID: guildID, Events: events}
	}
}

// Config returns the configuration of a guild
func (s *Service) Config(ctx context.Context, guildID string) (models.AuditLogConfig, error) {
	return s.configs.Get(ctx, guildID, Defaults(guildID))
}

func (s *Service) update(ctx context.Context, guildID string, mutate func(c *models.AuditLogConfig) error) (models.AuditLogConfig, error) {
	return s.configs.Update(ctx, guildID, Defaults(guildID), func(c *models.AuditLogConfig) error {
		if err := mutate(c); err != nil {
			return err
		}
		c.GuildID = guildID
		return nil
	})
}

// Enable turns logging on and points it at channelID
func (s *Service) Enable(ctx context.Context, guildID, channelID string) (models.AuditLogConfig, error) {
	if channelID == "" {
		return models.AuditLogConfig{}, ErrMissingChannel
	}
	return s.update(ctx, guildID, func(c *models.AuditLogConfig) error {
		c.Enabled = true
		c.ChannelID = channelID
		return nil
	})
}

// Disable turns logging off and keeps the channel and event selection
func (s *Service) Disable(ctx context.Context, guildID string) (models.AuditLogConfig, error) {
	return s.update(ctx, guildID, func(c *models.AuditLogConfig) error {
		c.Enabled = false
		return nil
	})
}

// Toggle flips one event kind and returns its new value
func (s *Service) Toggle(ctx context.Context, guildID string, kind models.AuditEventKind) (models.AuditLogConfig, bool, error) {
	if !kind.Valid() {
		return models.AuditLogConfig{}, false, fmt.Errorf("%w: %q", ErrUnknownEvent, kind)
	}
	var now bool
	cfg, err := s.update(ctx, guildID, func(c *models.AuditLogConfig) error {
		if c.Events == nil {
			c.Events = make(map[models.AuditEventKind]bool)
		}
		now = !c.Events[kind]
		c.Events[kind] = now
		return nil
	})
	return cfg, now, err
}

// Record posts the embed built by build when the guild logs kind. build runs only in that
// case and may return nil when there is nothing worth logging.
func (s *Service) Record(ctx context.Context, guildID string, kind models.AuditEventKind, build func() *discordgo.MessageEmbed) error {
	if s.poster == nil || guildID == "" {
		return nil
	}
	cfg, err := s.Config(ctx, guildID)
	if err != nil {
		return err
	}
	if !cfg.Logs(kind) {
		return nil
	}
	embed := build()
	if embed == nil {
		return nil
	}
	if embed.Timestamp == "" {
		embed.Timestamp = s.clock.Now().Format(time.RFC3339)
	}

	if err := s.poster.Post(ctx, cfg.ChannelID, embed); err != nil {
		metrics.AuditLogPosts.WithLabelValues(string(kind), "error").Inc()
		logger.Warn(fmt.Sprintf("No se pudo publicar %s en el registro de %s: %v", kind, guildID, err), "AuditLog")
		return err
	}
	metrics.AuditLogPosts.WithLabelValues(string(kind), "ok").Inc()
	return nil
}
