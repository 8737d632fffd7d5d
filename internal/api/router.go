package api

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/leadbook/leadbook/internal/middleware"
	"github.com/leadbook/leadbook/internal/ws"
)

// RouterDeps holds all dependencies needed by the router.
type RouterDeps struct {
	Log         *logrus.Logger
	Pool        HealthPool
	Hub         *ws.Hub // nil disables the WebSocket endpoint
	Leads       LeadService
	History     HistoryService
	Audit       AuditRepository
	UserLookup  middleware.UserLookup
	CORSOrigins []string
	Version     string
}

// Router-level limits.
const (
	maxBodySize = 2 << 20 // 2 MB
	rateLimit   = 50      // requests per second per IP
	rateBurst   = 100     // token bucket burst size
)

// setupMiddleware configures all middleware on the Gin engine.
func setupMiddleware(ctx context.Context, r *gin.Engine, deps *RouterDeps) {
	r.SetTrustedProxies(nil) //nolint:errcheck // nil always succeeds.
	r.Use(middleware.RequestID(deps.Log))
	r.Use(middleware.RequestLogger(deps.Log))
	r.Use(gin.Recovery())
	r.Use(middleware.SecurityHeaders())
	r.Use(middleware.MaxBodySize(maxBodySize))
	r.Use(cors.New(cors.Config{
		AllowOrigins:     deps.CORSOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Content-Type", "Authorization"},
		ExposeHeaders:    []string{middleware.RequestIDHeader, "Content-Disposition", ExportTruncatedHeader},
		MaxAge:           1 * time.Hour,
		AllowCredentials: false,
	}))
	r.Use(middleware.NewRateLimiter(ctx, rateLimit, rateBurst).Handler())
	r.Use(middleware.PrometheusMiddleware())
}

// registerRoutes sets up all API route handlers on the given router group.
func registerRoutes(ctx context.Context, api *gin.RouterGroup, deps *RouterDeps) {
	log := deps.Log

	health := NewHealthHandler(deps.Pool, deps.Hub, log, deps.Version)
	leads := NewLeadHandler(deps.Leads, log)
	transfer := NewImportExportHandler(deps.Leads, log)
	history := NewHistoryHandler(deps.History, log)
	audit := NewAuditHandler(deps.Audit, log)

	// Health and readiness are unauthenticated.
	api.GET("/health", health.Liveness)
	api.GET("/ready", health.Readiness)

	// All other API routes require authentication.
	lookup := middleware.NewCachedUserLookup(ctx, deps.UserLookup)
	bfGuard := middleware.NewBruteForceGuard(ctx, log)
	api.Use(middleware.BruteForceMiddleware(bfGuard))
	api.Use(middleware.AuthMiddleware(lookup, log, bfGuard))

	// Leads. Static segments are registered before :id.
	api.GET("/leads", leads.List)
	api.POST("/leads", leads.Create)
	api.GET("/leads/export", transfer.Export)
	api.POST("/leads/import", transfer.Import)
	api.GET("/leads/:id", leads.Get)
	api.PUT("/leads/:id", leads.Update)
	api.PATCH("/leads/:id", leads.Update)
	api.DELETE("/leads/:id", leads.Delete)
	api.GET("/leads/:id/history", history.GetHistory)

	// Audit.
	api.GET("/audit", audit.Query)
	api.DELETE("/audit", audit.Purge)

	// WebSocket endpoint.
	if deps.Hub != nil {
		api.GET("/ws", wsHandler(ctx, log, deps.Hub, deps.CORSOrigins, lookup))
	}
}

// NewRouter creates and configures the Gin engine with all middleware and routes.
// Prometheus metrics are served on a separate listener.
func NewRouter(ctx context.Context, deps *RouterDeps) http.Handler {
	r := gin.New()
	setupMiddleware(ctx, r, deps)
	registerRoutes(ctx, r.Group("/api/v1"), deps)

	return r
}
