// internal/app/router.go
package app

import (
	"net/http"
	"time"

	requestHandler "assistance-gateway/internal/handlers/request"
	wsHandler "assistance-gateway/internal/handlers/websocket"
	wizardHandler "assistance-gateway/internal/handlers/wizard"
	"assistance-gateway/internal/middleware"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type Handlers struct {
	WizardHandler  *wizardHandler.WizardHandler
	RequestHandler *requestHandler.RequestHandler
	WSHandler      *wsHandler.WebSocketHandler
	Verifier       middleware.TokenVerifier
	Limits         RateLimits
}

// RateLimits caps wizard starts and submissions per owner. A nil Limiter
// disables limiting.
type RateLimits struct {
	Limiter middleware.RateLimiter
	Start   int64
	Submit  int64
	Window  time.Duration
}

func (l RateLimits) handler(endpoint string, max int64, logger *zap.Logger) gin.HandlerFunc {
	if l.Limiter == nil {
		return func(c *gin.Context) { c.Next() }
	}
	return middleware.RateLimit(l.Limiter, endpoint, max, l.Window, logger)
}

func SetupRouter(r *gin.Engine, logger *zap.Logger, h *Handlers) {
	api := r.Group("/api/v1")

	// ==================== Health Check ====================
	api.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "version": "1.0.0"})
	})

	// ==================== WebSocket ====================
	r.GET("/ws", h.WSHandler.HandleConnection)

	protected := api.Group("")
	protected.Use(middleware.Identity(h.Verifier))

	// ==================== Request Wizard ====================
	sessions := protected.Group("/wizard/sessions")
	{
		sessions.POST("", h.Limits.handler("wizard_start", h.Limits.Start, logger), h.WizardHandler.StartSession)
		sessions.GET("/:id", h.WizardHandler.GetSession)
		sessions.DELETE("/:id", h.WizardHandler.DiscardSession)
		sessions.GET("/:id/catalog", h.WizardHandler.GetCatalog)
		sessions.PUT("/:id/service", h.WizardHandler.SelectService)
		sessions.PUT("/:id/location", h.WizardHandler.SetLocation)
		sessions.POST("/:id/location/locate", h.WizardHandler.Locate)
		sessions.POST("/:id/location/lookup", h.WizardHandler.LookupAddress)
		sessions.PUT("/:id/form", h.WizardHandler.UpdateForm)
		sessions.PUT("/:id/details", h.WizardHandler.UpdateDetails)
		sessions.POST("/:id/advance", h.WizardHandler.Advance)
		sessions.POST("/:id/back", h.WizardHandler.Back)
		sessions.POST("/:id/submit", h.Limits.handler("wizard_submit", h.Limits.Submit, logger), h.WizardHandler.Submit)
	}

	// ==================== Requests & Tracking ====================
	requests := protected.Group("/requests")
	{
		requests.GET("", h.RequestHandler.ListMyRequests)
		requests.POST("/:id/cancel", h.RequestHandler.CancelRequest)
		requests.GET("/:id/tracking", h.RequestHandler.GetTracking)
		requests.GET("/:id/timeline", h.RequestHandler.GetTimeline)
	}

	protected.GET("/submissions", h.RequestHandler.ListSubmissions)
	protected.GET("/ws/stats", h.WSHandler.GetStats)

	logger.Info("routes registered", zap.Int("count", len(r.Routes())))
}
