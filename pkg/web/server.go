// Package web provides the operator HTTP API.
// It uses Gin for routing with token auth, per-IP rate limiting and a websocket audit stream.
package web

import (
	"bytes"
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/PancyStudios/PancyGuard/pkg/clock"
	"github.com/PancyStudios/PancyGuard/pkg/logger"
	"github.com/gin-gonic/gin"
	"github.com/goccy/go-json"
	"github.com/puzpuzpuz/xsync/v3"
)

// Options configures the server
type Options struct {
	// APIToken enables bearer auth on /api routes except health. Empty disables auth.
	APIToken   string
	WebhookURL string
	RateLimit  RateLimitConfig
	Clock      clock.Clock
}

// RateLimitConfig holds rate limiting configuration
type RateLimitConfig struct {
	Window      time.Duration
	MaxRequests int
}

// DefaultRateLimit allows 100 requests per minute per IP
func DefaultRateLimit() RateLimitConfig {
	return RateLimitConfig{Window: time.Minute, MaxRequests: 100}
}

// Server represents the web server
type Server struct {
	engine *gin.Engine
	http   *http.Server
	opts   Options
}

var server *Server

// Init initializes the global web server
func Init(opts Options) *Server {
	server = NewServer(opts)
	return server
}

// Get returns the global web server
func Get() *Server {
	return server
}

// NewServer creates a new web server
func NewServer(opts Options) *Server {
	if opts.Clock == nil {
		opts.Clock = clock.Real{}
	}
	if opts.RateLimit.MaxRequests <= 0 {
		opts.RateLimit = DefaultRateLimit()
	}

	gin.SetMode(gin.ReleaseMode)

	engine := gin.New()
	engine.Use(gin.Recovery())

	s := &Server{engine: engine, opts: opts}

	s.engine.Use(s.logsMiddleware())
	s.engine.Use(rateLimitMiddleware(opts.RateLimit, opts.Clock))

	s.setupErrorHandlers()

	return s
}

// Engine returns the underlying Gin engine
func (s *Server) Engine() *gin.Engine {
	return s.engine
}

// logsMiddleware logs every request and reports rejected ones to the webhook
func (s *Server) logsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		status := c.Writer.Status()
		msg := fmt.Sprintf("%s %s -> %d (%v) | %s", c.Request.Method, c.Request.URL.Path, status, time.Since(start), c.ClientIP())
		switch {
		case status == http.StatusUnauthorized || status == http.StatusTooManyRequests:
			logger.Warn("[LOG] Solicitud rechazada: "+msg, "WebServer")
			go s.sendLogToWebhook(c.Request.Method, c.Request.URL.Path, c.ClientIP(), status)
		case status >= 500:
			logger.Error("[LOG] "+msg, "WebServer")
		default:
			logger.Debug("[LOG] "+msg, "WebServer")
		}
	}
}

// sendLogToWebhook posts a rejected request to the logs webhook
func (s *Server) sendLogToWebhook(method, path, ip string, status int) {
	if s.opts.WebhookURL == "" {
		return
	}

	embed := map[string]interface{}{
		"title":       fmt.Sprintf("💫 | Solicitud rechazada: %s %s", method, path),
		"description": fmt.Sprintf("> **Ruta:** `%s`\n> **IP:** `%s`\n> **Estado:** `%d`", path, ip, status),
		"color":       0xFFA500,
		"timestamp":   time.Now().Format(time.RFC3339),
	}

	jsonData, err := json.Marshal(map[string]interface{}{"embeds": []interface{}{embed}})
	if err != nil {
		return
	}

	req, err := http.NewRequest(http.MethodPost, s.opts.WebhookURL, bytes.NewBuffer(jsonData))
	if err != nil {
		return
	}
	req.Header.Set("Content-Type", "application/json")

	client := &http.Client{Timeout: 5 * time.Second}
	resp, err := client.Do(req)
	if err != nil {
		return
	}
	resp.Body.Close()
}

type rateWindow struct {
	count   int
	resetAt time.Time
}

// rateLimitMiddleware counts requests per client IP in fixed windows
func rateLimitMiddleware(cfg RateLimitConfig, clk clock.Clock) gin.HandlerFunc {
	clients := xsync.NewMapOf[string, rateWindow]()

	return func(c *gin.Context) {
		now := clk.Now()

		w, _ := clients.Compute(c.ClientIP(), func(old rateWindow, loaded bool) (rateWindow, bool) {
			if !loaded || !now.Before(old.resetAt) {
				return rateWindow{count: 1, resetAt: now.Add(cfg.Window)}, false
			}
			old.count++
			return old, false
		})

		if w.count > cfg.MaxRequests {
			c.Header("Retry-After", fmt.Sprintf("%d", int(w.resetAt.Sub(now).Seconds())+1))
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"error": "Demasiadas solicitudes, por favor intente de nuevo más tarde.",
			})
			return
		}

		c.Next()
	}
}

// authMiddleware requires "Authorization: Bearer <token>" or ?token= for websocket clients
func authMiddleware(token string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if token == "" {
			c.Next()
			return
		}

		got := strings.TrimPrefix(c.GetHeader("Authorization"), "Bearer ")
		if got == "" {
			got = c.Query("token")
		}
		if subtle.ConstantTimeCompare([]byte(got), []byte(token)) != 1 {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error":   "Unauthorized",
				"message": "Token de API inválido o ausente.",
			})
			return
		}
		c.Next()
	}
}

// setupErrorHandlers sets up error handling routes
func (s *Server) setupErrorHandlers() {
	s.engine.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{
			"error":   "Not Found",
			"message": "La ruta solicitada no existe.",
			"status":  404,
		})
	})

	s.engine.HandleMethodNotAllowed = true
	s.engine.NoMethod(func(c *gin.Context) {
		c.JSON(http.StatusMethodNotAllowed, gin.H{
			"error":   "Method Not Allowed",
			"message": "El método HTTP no está permitido para esta ruta.",
			"status":  405,
		})
	})
}

// StartAsync starts the web server in a goroutine
func (s *Server) StartAsync(port string) {
	s.http = &http.Server{
		Addr:              ":" + port,
		Handler:           s.engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info(fmt.Sprintf("🚀 Servidor escuchando en http://localhost:%s", port), "WebServer")
		if err := s.http.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error(fmt.Sprintf("Error starting web server: %v", err), "WebServer")
		}
	}()
}

// Shutdown stops accepting requests and waits for in-flight ones
func (s *Server) Shutdown(ctx context.Context) error {
	if s.http == nil {
		return nil
	}
	return s.http.Shutdown(ctx)
}

// Group creates a new router group
func (s *Server) Group(path string, handlers ...gin.HandlerFunc) *gin.RouterGroup {
	return s.engine.Group(path, handlers...)
}
