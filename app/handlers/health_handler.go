package handlers

import (
	"context"
	"log"

	"github.com/StevenOng97/backend-saas/app/dto"
	"github.com/StevenOng97/backend-saas/app/worker"
	"github.com/StevenOng97/backend-saas/utils"
	"github.com/gofiber/fiber/v3"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// QueueStats exposes queue depth for operational checks
type QueueStats interface {
	Counts(ctx context.Context) (*worker.Counts, error)
}

// HealthHandlerInterface defines the contract for health endpoints
type HealthHandlerInterface interface {
	Health(c fiber.Ctx) error
	QueueHealth(c fiber.Ctx) error
}

// HealthHandler reports service and dependency health
type HealthHandler struct {
	db    *gorm.DB
	rdb   *redis.Client
	queue QueueStats
}

// NewHealthHandler creates a new health handler
func NewHealthHandler(db *gorm.DB, rdb *redis.Client, queue QueueStats) *HealthHandler {
	return &HealthHandler{db: db, rdb: rdb, queue: queue}
}

// Health reports overall service health including database and redis
// @Summary Health Check
// @Tags Health
// @Produce json
// @Success 200 {object} dto.APIResponse "Service is healthy"
// @Failure 503 {object} dto.APIResponse "A dependency is unavailable"
// @Router /api/v1/health [get]
func (h *HealthHandler) Health(c fiber.Ctx) error {
	ctx, cancel := createRequestContext(c, defaultHandlerTimeout)
	defer cancel()

	checks := fiber.Map{
		"database": "ok",
		"redis":    "ok",
	}
	healthy := true

	if h.db != nil {
		if sqlDB, err := h.db.DB(); err != nil || sqlDB.PingContext(ctx) != nil {
			checks["database"] = "unavailable"
			healthy = false
		}
	}
	if h.rdb != nil {
		if err := h.rdb.Ping(ctx).Err(); err != nil {
			checks["redis"] = "unavailable"
			healthy = false
		}
	}

	status := fiber.StatusOK
	message := "Service is healthy"
	if !healthy {
		status = fiber.StatusServiceUnavailable
		message = "Service is degraded"
	}

	return c.Status(status).JSON(dto.APIResponse{
		Success: healthy,
		Message: message,
		Data: fiber.Map{
			"status":    checks,
			"timestamp": utils.UTCNow().Unix(),
		},
	})
}

// QueueHealth reports dispatch queue depth
// @Summary Queue Health
// @Tags Health
// @Produce json
// @Success 200 {object} dto.APIResponse{data=worker.Counts} "Queue counts"
// @Failure 503 {object} dto.APIResponse "Queue is unavailable"
// @Router /api/v1/health/queue [get]
func (h *HealthHandler) QueueHealth(c fiber.Ctx) error {
	ctx, cancel := createRequestContext(c, defaultHandlerTimeout)
	defer cancel()

	counts, err := h.queue.Counts(ctx)
	if err != nil {
		log.Println("Queue health check failed", err)
		return c.Status(fiber.StatusServiceUnavailable).JSON(dto.APIResponse{
			Success: false,
			Message: "Queue is unavailable",
			Error:   dto.ErrorDetail{Code: "QUEUE_UNAVAILABLE"},
		})
	}

	return c.Status(fiber.StatusOK).JSON(dto.APIResponse{
		Success: true,
		Message: "Queue is healthy",
		Data:    counts,
	})
}
