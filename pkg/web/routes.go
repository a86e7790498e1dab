package web

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/PancyStudios/PancyGuard/internal/ledger"
	"github.com/PancyStudios/PancyGuard/internal/raid"
	"github.com/PancyStudios/PancyGuard/pkg/logger"
	"github.com/PancyStudios/PancyGuard/pkg/models"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const requestTimeout = 10 * time.Second

// CaseReader reads the moderation ledger
type CaseReader interface {
	UserCases(ctx context.Context, guildID, userID string) ([]models.ModerationCase, error)
	Case(ctx context.Context, guildID string, id int) (models.ModerationCase, error)
}

// RaidController reads and ends raid mode
type RaidController interface {
	Status(ctx context.Context, guildID string) (raid.Status, error)
	End(ctx context.Context, guildID string) (models.RaidSummary, error)
}

// PolicyReader reads the per-guild policies
type PolicyReader interface {
	Automod(ctx context.Context, guildID string) (models.AutomodPolicy, error)
	Escalation(ctx context.Context, guildID string) (models.EscalationPolicy, error)
	Raid(ctx context.Context, guildID string) (models.RaidPolicy, error)
}

// BotStatus is the process snapshot served by /api/status
type BotStatus struct {
	Ready         bool   `json:"ready"`
	Guilds        int    `json:"guilds"`
	LatencyMs     int64  `json:"latencyMs"`
	Uptime        string `json:"uptime"`
	Storage       string `json:"storage"`
	StorageOnline bool   `json:"storageOnline"`
	Version       string `json:"version"`
	AuditClients  int    `json:"auditClients"`
	TrackedUsers  int    `json:"trackedUsers"`
}

// API groups the dependencies of the operator routes
type API struct {
	Cases    CaseReader
	Raids    RaidController
	Policies PolicyReader
	Status   func(ctx context.Context) BotStatus
	Hub      *AuditHub
}

// SetupAPIRoutes sets up the API routes
func SetupAPIRoutes(s *Server, api *API) {
	s.engine.GET("/api/health", healthHandler)
	s.engine.GET("/metrics", gin.WrapH(promhttp.Handler()))

	group := s.Group("/api", authMiddleware(s.opts.APIToken))
	{
		group.GET("/status", api.statusHandler)
		group.GET("/guilds/:guildId/users/:userId/cases", api.userCasesHandler)
		group.GET("/guilds/:guildId/cases/:caseId", api.caseHandler)
		group.GET("/guilds/:guildId/raid", api.raidHandler)
		group.POST("/guilds/:guildId/raid/end", api.endRaidHandler)
		group.GET("/guilds/:guildId/policy", api.policyHandler)
		if api.Hub != nil {
			group.GET("/ws/audit", api.Hub.ServeWS)
		}
	}
}

func requestContext(c *gin.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(c.Request.Context(), requestTimeout)
}

func internalError(c *gin.Context, err error) {
	logger.Error("Error en la API: "+err.Error(), "WebServer")
	c.JSON(http.StatusInternalServerError, gin.H{
		"error":   "Internal Server Error",
		"message": "No se pudo completar la solicitud.",
	})
}

// healthHandler returns a simple health check response
func healthHandler(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "healthy",
		"message": "PancyGuard is running",
	})
}

func (api *API) statusHandler(c *gin.Context) {
	ctx, cancel := requestContext(c)
	defer cancel()

	status := BotStatus{}
	if api.Status != nil {
		status = api.Status(ctx)
	}
	if api.Hub != nil {
		status.AuditClients = api.Hub.Subscribers()
	}
	c.JSON(http.StatusOK, status)
}

func (api *API) userCasesHandler(c *gin.Context) {
	ctx, cancel := requestContext(c)
	defer cancel()

	cases, err := api.Cases.UserCases(ctx, c.Param("guildId"), c.Param("userId"))
	if err != nil {
		internalError(c, err)
		return
	}

	counts := make(map[models.ActionKind]int)
	for _, mc := range cases {
		counts[mc.Action]++
	}
	c.JSON(http.StatusOK, gin.H{"cases": cases, "counts": counts, "total": len(cases)})
}

func (api *API) caseHandler(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("caseId"))
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Bad Request",
			"message": "El ID del caso debe ser un entero positivo.",
		})
		return
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	mc, err := api.Cases.Case(ctx, c.Param("guildId"), id)
	if errors.Is(err, ledger.ErrCaseNotFound) {
		c.JSON(http.StatusNotFound, gin.H{
			"error":   "Not Found",
			"message": "El caso solicitado no existe.",
		})
		return
	}
	if err != nil {
		internalError(c, err)
		return
	}
	c.JSON(http.StatusOK, mc)
}

func (api *API) raidHandler(c *gin.Context) {
	ctx, cancel := requestContext(c)
	defer cancel()

	status, err := api.Raids.Status(ctx, c.Param("guildId"))
	if err != nil {
		internalError(c, err)
		return
	}
	c.JSON(http.StatusOK, status)
}

func (api *API) endRaidHandler(c *gin.Context) {
	ctx, cancel := requestContext(c)
	defer cancel()

	summary, err := api.Raids.End(ctx, c.Param("guildId"))
	if errors.Is(err, raid.ErrNoActiveRaid) {
		c.JSON(http.StatusConflict, gin.H{
			"error":   "Conflict",
			"message": "No hay un raid activo en este servidor.",
		})
		return
	}
	if err != nil {
		internalError(c, err)
		return
	}
	c.JSON(http.StatusOK, summary)
}

func (api *API) policyHandler(c *gin.Context) {
	ctx, cancel := requestContext(c)
	defer cancel()
	guildID := c.Param("guildId")

	automod, err := api.Policies.Automod(ctx, guildID)
	if err != nil {
		internalError(c, err)
		return
	}
	escalation, err := api.Policies.Escalation(ctx, guildID)
	if err != nil {
		internalError(c, err)
		return
	}
	raidPolicy, err := api.Policies.Raid(ctx, guildID)
	if err != nil {
		internalError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"automod":    automod,
		"escalation": escalation,
		"raid":       raidPolicy,
	})
}
