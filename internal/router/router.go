package router

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/stemsi/interview-sim/internal/config"
	"github.com/stemsi/interview-sim/internal/handler"
	"github.com/stemsi/interview-sim/internal/middleware"
	"github.com/stemsi/interview-sim/internal/response"
)

// Handlers groups all handler instances for route setup.
type Handlers struct {
	Interview *handler.InterviewHandler
	Result    *handler.ResultHandler
	WS        *handler.WSHandler
	System    *handler.SystemHandler
}

// SetupRouter configures all Gin route groups with appropriate middlewares.
// limiter guards the routes that end in a model call; nil disables it.
func SetupRouter(
	handlers *Handlers,
	cfg *config.Config,
	log zerolog.Logger,
	limiter *middleware.RateLimiter,
) *gin.Engine {
	gin.SetMode(cfg.GinMode)
	router := gin.New()
	router.Use(gin.Recovery())

	// ─── CORS ──────────────────────────────────────────────────────────
	// If AllowedOrigins is set in config, restrict to that list;
	// otherwise allow all (*) so dev works without extra config.
	corsConfig := cors.DefaultConfig()
	if len(cfg.AllowedOrigins) > 0 {
		corsConfig.AllowOrigins = cfg.AllowedOrigins
	} else {
		corsConfig.AllowAllOrigins = true
	}
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Type", "X-Request-ID"}
	corsConfig.ExposeHeaders = []string{"X-Request-ID"}
	corsConfig.MaxAge = 12 * time.Hour
	router.Use(cors.New(corsConfig))

	// Request ID first so the access log and every envelope carry it.
	router.Use(response.RequestIDMiddleware())
	router.Use(response.AccessLog(log))
	router.Use(middleware.Brotli())

	router.NoRoute(func(c *gin.Context) {
		response.Fail(c, http.StatusNotFound, response.ErrNotFound)
	})

	rateLimited := func(c *gin.Context) { c.Next() }
	if limiter != nil {
		rateLimited = limiter.Middleware()
	}

	// Health check.
	router.GET("/health", handlers.System.Health)

	// ─── 1. Candidates ─────────────────────────────────────────────────
	api := router.Group("/api/v1")
	api.Use(middleware.NoStore())

	candidates := api.Group("/candidates")
	{
		candidates.POST("", handlers.Interview.CreateCandidate)
		candidates.GET("", handlers.Interview.ListCandidates)
		candidates.GET("/:id", rateLimited, handlers.Interview.ObserveCandidate)
		candidates.DELETE("/:id", handlers.Interview.DeleteCandidate)
		candidates.PUT("/:id/draft", handlers.Interview.UpdateDraft)
		candidates.POST("/:id/answers", rateLimited, handlers.Interview.SubmitAnswer)
		candidates.POST("/:id/pause", handlers.Interview.TogglePause)
		candidates.POST("/:id/reset", handlers.Interview.ResetInterview)
		candidates.DELETE("/:id/session", handlers.Interview.DetachSession)
	}

	// ─── 2. Results archive ────────────────────────────────────────────
	api.GET("/results", handlers.Result.ListResults)

	// ─── 3. WebSocket ──────────────────────────────────────────────────
	ws := router.Group("/ws/v1")
	{
		ws.GET("/candidates/:id/stream", rateLimited, handlers.WS.CandidateStream)
	}

	return router
}
