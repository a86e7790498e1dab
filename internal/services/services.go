// Package services wires the moderation components into a single container
// shared by commands, gateway events and the operator surfaces.
package services

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/PancyStudios/PancyGuard/internal/auditlog"
	"github.com/PancyStudios/PancyGuard/internal/automod"
	"github.com/PancyStudios/PancyGuard/internal/enforcement"
	"github.com/PancyStudios/PancyGuard/internal/escalation"
	"github.com/PancyStudios/PancyGuard/internal/ledger"
	"github.com/PancyStudios/PancyGuard/internal/policy"
	"github.com/PancyStudios/PancyGuard/internal/raid"
	"github.com/PancyStudios/PancyGuard/pkg/clock"
	"github.com/PancyStudios/PancyGuard/pkg/config"
	"github.com/PancyStudios/PancyGuard/pkg/database"
	"github.com/PancyStudios/PancyGuard/pkg/logger"
	"github.com/PancyStudios/PancyGuard/pkg/models"
	"github.com/dgraph-io/ristretto"
)

// Platform is everything the container needs from the chat platform
type Platform interface {
	enforcement.Enforcer
	enforcement.Notifier
	enforcement.Directory
}

// Deps are the inputs of New
type Deps struct {
	Store     database.DocumentStore
	Cache     *ristretto.Cache
	Options   database.DataManagerOptions
	Defaults  policy.Defaults
	Platform  Platform
	Auditor   enforcement.Auditor
	Poster    auditlog.Poster
	Clock     clock.Clock
	BotUserID func() string
}

// Container holds the moderation services
type Container struct {
	Store      database.DocumentStore
	Policies   *policy.Store
	Ledger     *ledger.Ledger
	Executor   *enforcement.Executor
	Automod    *automod.Service
	Raid       *raid.Service
	Escalation *escalation.Service
	AuditLog   *auditlog.Service
	Directory  enforcement.Directory
	Clock      clock.Clock
}

// New builds the container from its dependencies
func New(d Deps) *Container {
	if d.Clock == nil {
		d.Clock = clock.Real{}
	}
	if d.BotUserID == nil {
		d.BotUserID = func() string { return "" }
	}

	policies := policy.NewStore(d.Store, d.Cache, d.Options, d.Defaults)
	l := ledger.New(database.NewDataManager[models.CaseLedger](ledger.Collection, d.Store, d.Cache, d.Options), d.Clock)
	exec := enforcement.NewExecutor(d.Platform, d.Platform, l, d.Auditor, d.Clock)
	states := raid.NewStateMachine(database.NewDataManager[models.RaidState](raid.StateCollection, d.Store, d.Cache, d.Options))

	return &Container{
		Store:      d.Store,
		Policies:   policies,
		Ledger:     l,
		Executor:   exec,
		Automod:    automod.NewService(policies, automod.NewTracker(d.Clock), exec, d.Platform, d.Clock, d.BotUserID),
		Raid:       raid.NewService(policies, raid.NewJoinTracker(d.Clock), states, exec, d.Auditor, d.Clock, d.BotUserID),
		Escalation: escalation.NewService(policies, l, exec, d.BotUserID),
		AuditLog:   auditlog.NewService(database.NewDataManager[models.AuditLogConfig](auditlog.Collection, d.Store, d.Cache, d.Options), d.Poster, d.Clock),
		Directory:  d.Platform,
		Clock:      d.Clock,
	}
}

var (
	container *Container
	once      sync.Once
)

// Init sets the global container once
func Init(d Deps) *Container {
	once.Do(func() {
		container = New(d)
	})
	return container
}

// Get returns the global container, nil before Init
func Get() *Container {
	return container
}

// OpenStore connects the storage backend selected in the configuration
func OpenStore(ctx context.Context, cfg *config.Config) (database.DocumentStore, error) {
	switch cfg.StorageBackend {
	case config.StorageMongo:
		db := database.NewDatabase()
		if err := db.Connect(ctx, cfg.MongoDBURL, cfg.DBName); err != nil {
			return nil, fmt.Errorf("mongo: %w", err)
		}
		return database.NewMongoStore(db), nil
	case config.StorageRedis:
		store, err := database.NewRedisStore(ctx, database.RedisOptions{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		if err != nil {
			return nil, err
		}
		return store, nil
	case config.StorageFile:
		store, err := database.NewFileStore(cfg.DataDir)
		if err != nil {
			return nil, err
		}
		return store, nil
	case config.StorageMemory:
		logger.Warn("Almacenamiento en memoria: los datos se perderán al reiniciar", "Storage")
		return database.NewMemoryStore(), nil
	}
	return nil, fmt.Errorf("backend de almacenamiento desconocido: %q", cfg.StorageBackend)
}

// StartSweepers starts the periodic tracker eviction
func (c *Container) StartSweepers(cfg *config.Config) {
	c.Automod.Tracker().StartSweeper(positive(cfg.AutomodSweepInterval, 30*time.Second))
	c.Raid.Joins().StartSweeper(positive(cfg.RaidSweepInterval, time.Minute))
}

func positive(d, fallback time.Duration) time.Duration {
	if d <= 0 {
		return fallback
	}
	return d
}

// Close stops the sweepers and closes the store
func (c *Container) Close(ctx context.Context) error {
	c.Automod.Tracker().StopSweeper()
	c.Raid.Joins().StopSweeper()
	return c.Store.Close(ctx)
}
