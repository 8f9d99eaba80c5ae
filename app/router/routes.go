// Package router provides HTTP routing, middleware configuration, and server setup for the web application
package router

import (
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"log"
	"time"

	"github.com/StevenOng97/backend-saas/app/dto"
	"github.com/StevenOng97/backend-saas/app/handlers"
	"github.com/StevenOng97/backend-saas/app/middleware"
	"github.com/StevenOng97/backend-saas/config"
	"github.com/StevenOng97/backend-saas/utils"
	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/adaptor"
	"github.com/gofiber/fiber/v3/middleware/compress"
	"github.com/gofiber/fiber/v3/middleware/cors"
	"github.com/gofiber/fiber/v3/middleware/limiter"
	"github.com/gofiber/fiber/v3/middleware/logger"
	"github.com/gofiber/fiber/v3/middleware/recover"
	"github.com/gofiber/fiber/v3/middleware/requestid"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Router interface for HTTP routing
type Router interface {
	SetupRoutes()
	Start(address string) error
	GetApp() *fiber.App
}

// FiberRouter implements Router using Fiber v3
type FiberRouter struct {
	app             *fiber.App
	cfg             *config.ProductionConfig
	inviteHandler   handlers.InviteHandlerInterface
	rateHandler     handlers.RateHandlerInterface
	webhookHandler  handlers.WebhookHandlerInterface
	healthHandler   handlers.HealthHandlerInterface
	businessHandler handlers.BusinessHandlerInterface
}

// NewFiberRouter creates a new Fiber router
func NewFiberRouter(
	cfg *config.ProductionConfig,
	inviteHandler handlers.InviteHandlerInterface,
	rateHandler handlers.RateHandlerInterface,
	webhookHandler handlers.WebhookHandlerInterface,
	healthHandler handlers.HealthHandlerInterface,
	businessHandler handlers.BusinessHandlerInterface,
) Router {
	app := fiber.New(fiber.Config{
		AppName:      "Review Invites API",
		ServerHeader: "review-invites",
		ErrorHandler: errorHandler,
		BodyLimit:    cfg.Server.BodyLimit,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
		ProxyHeader:  cfg.Server.ProxyHeader,
		JSONEncoder:  json.Marshal,
		JSONDecoder:  json.Unmarshal,
	})

	return &FiberRouter{
		app:             app,
		cfg:             cfg,
		inviteHandler:   inviteHandler,
		rateHandler:     rateHandler,
		webhookHandler:  webhookHandler,
		healthHandler:   healthHandler,
		businessHandler: businessHandler,
	}
}

// SetupRoutes configures all application routes
func (r *FiberRouter) SetupRoutes() {
	log.Println("Setting up routes...")

	// Global middleware
	r.setupMiddleware()

	if r.cfg.Metrics.Enabled {
		r.app.Get(r.cfg.Metrics.Path, adaptor.HTTPHandler(promhttp.Handler()))
	}

	// Provider callbacks live outside the versioned API and outside the
	// public rate limits; Twilio retries on failure
	webhooks := r.app.Group("/webhooks/twilio")
	if r.cfg.Security.WebhookAuthToken != "" {
		webhooks.Use(r.webhookAuth)
	}
	webhooks.Post("/status", r.webhookHandler.StatusCallback)
	webhooks.Post("/inbound", r.webhookHandler.InboundMessage)

	// API routes
	api := r.app.Group("/api/v1")

	// Health check routes (no rate limiting)
	api.Get("/health", r.healthHandler.Health)
	api.Get("/health/queue", r.healthHandler.QueueHealth)

	// Apply general rate limiting to all API routes
	api.Use(limiter.New(limiter.Config{
		Max:          r.cfg.Security.GlobalRateLimit,
		Expiration:   r.cfg.Security.RateLimitWindow,
		KeyGenerator: rateLimitKey,
		LimitReached: rateLimitReached,
		Next: func(c fiber.Ctx) bool {
			return c.Path() == "/api/v1/health" || c.Path() == "/api/v1/health/queue"
		},
	}))

	// Invite endpoints
	api.Post("/invites", r.inviteHandler.CreateInvite)
	api.Post("/invites/batch", r.inviteHandler.CreateBatch)

	// Business endpoints
	api.Get("/businesses/:businessId/feedback", r.rateHandler.ListFeedback)
	api.Post("/businesses/:businessId/registration-check", r.businessHandler.ScheduleRegistrationCheck)

	// Public rating endpoints with stricter rate limiting; these are hit
	// from customer phones via the short link
	public := api.Group("")
	public.Use(limiter.New(limiter.Config{
		Max:          r.cfg.Security.PublicRateLimit,
		Expiration:   r.cfg.Security.RateLimitWindow,
		KeyGenerator: rateLimitKey,
		LimitReached: rateLimitReached,
	}))
	public.Get("/rate/:shortId", r.rateHandler.GetRatingPage)
	public.Post("/rate/:shortId", r.rateHandler.SubmitRating)
	public.Post("/feedback/:ratingId", r.rateHandler.SubmitFeedback)

	// Not found handler
	r.app.Use(r.notFoundHandler)

	log.Println("Routes configured successfully")
}

// setupMiddleware configures global middleware
func (r *FiberRouter) setupMiddleware() {
	// Request ID middleware - must be first
	r.app.Use(requestid.New(requestid.Config{
		Header: "X-Request-ID",
		Generator: func() string {
			return generateRequestID()
		},
	}))

	// CORS middleware
	r.app.Use(cors.New(cors.Config{
		AllowOrigins:     r.cfg.Security.AllowedOrigins,
		AllowMethods:     r.cfg.Security.AllowedMethods,
		AllowHeaders:     r.cfg.Security.AllowedHeaders,
		ExposeHeaders:    []string{"X-Request-ID"},
		AllowCredentials: r.cfg.Security.AllowCredentials,
		MaxAge:           r.cfg.Security.CORSMaxAge,
	}))

	// Compression middleware
	if r.cfg.Server.EnableCompression {
		r.app.Use(compress.New(compress.Config{
			Level: compress.LevelBestSpeed,
		}))
	}

	// Prometheus HTTP metrics
	if r.cfg.Metrics.Enabled {
		r.app.Use(middleware.Metrics())
	}

	// Structured request logging
	r.app.Use(logger.New(logger.Config{
		Format:     `{"time":"${time}","request_id":"${locals:requestid}","level":"info","method":"${method}","path":"${path}","ip":"${ip}","user_agent":"${ua}","status":${status},"latency":"${latency}","bytes_in":${bytesReceived},"bytes_out":${bytesSent}}` + "\n",
		TimeFormat: time.RFC3339,
		TimeZone:   "UTC",
		Next: func(c fiber.Ctx) bool {
			return c.Path() == "/api/v1/health"
		},
	}))

	// Recovery middleware with panic logging
	r.app.Use(recover.New(recover.Config{
		EnableStackTrace: true,
		StackTraceHandler: func(c fiber.Ctx, e interface{}) {
			log.Printf(`{"time":"%s","level":"error","request_id":"%s","event":"panic","error":"%v","path":"%s","method":"%s","ip":"%s"}`,
				utils.UTCNow().Format(time.RFC3339),
				c.Locals("requestid"),
				e,
				c.Path(),
				c.Method(),
				c.IP(),
			)
		},
	}))
}

// Start starts the HTTP server
func (r *FiberRouter) Start(address string) error {
	log.Printf("Starting server on %s", address)
	return r.app.Listen(address)
}

// GetApp returns the Fiber app instance
func (r *FiberRouter) GetApp() *fiber.App {
	return r.app
}

// Not found handler
func (r *FiberRouter) notFoundHandler(c fiber.Ctx) error {
	return c.Status(fiber.StatusNotFound).JSON(dto.APIResponse{
		Success: false,
		Message: "The requested resource was not found",
		Error: dto.ErrorDetail{
			Code: "NOT_FOUND",
			Details: fiber.Map{
				"path":       c.Path(),
				"method":     c.Method(),
				"request_id": c.Locals("requestid"),
			},
		},
	})
}

// Global error handler
func errorHandler(c fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	if e, ok := err.(*fiber.Error); ok {
		code = e.Code
	}

	log.Printf("Error %d: %v", code, err)

	return c.Status(code).JSON(dto.APIResponse{
		Success: false,
		Message: "An internal server error occurred",
		Error: dto.ErrorDetail{
			Code: "INTERNAL_ERROR",
			Details: fiber.Map{
				"timestamp":  utils.UTCNow().Unix(),
				"request_id": c.Locals("requestid"),
			},
		},
	})
}

// webhookAuth guards provider callbacks with the shared token configured
// in the Twilio console callback URLs (?token=...)
func (r *FiberRouter) webhookAuth(c fiber.Ctx) error {
	if c.Query("token") != r.cfg.Security.WebhookAuthToken {
		return c.Status(fiber.StatusForbidden).JSON(dto.APIResponse{
			Success: false,
			Message: "Invalid webhook token",
			Error: dto.ErrorDetail{
				Code: "WEBHOOK_FORBIDDEN",
			},
		})
	}
	return c.Next()
}

func rateLimitKey(c fiber.Ctx) string {
	return c.IP()
}

func rateLimitReached(c fiber.Ctx) error {
	return c.Status(fiber.StatusTooManyRequests).JSON(dto.APIResponse{
		Success: false,
		Message: "Too many requests. Please try again later.",
		Error: dto.ErrorDetail{
			Code: "RATE_LIMIT_EXCEEDED",
		},
	})
}

// generateRequestID creates a unique request ID
func generateRequestID() string {
	bytes := make([]byte, 8)
	rand.Read(bytes)
	return hex.EncodeToString(bytes)
}
