package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gofiber/fiber/v3"
	"go.uber.org/zap"
)

// ============================================================
// Health Check Handlers
// ============================================================

type Pinger interface {
	Ping(ctx context.Context) error
}

type HealthHandler struct {
	db       Pinger
	sessions interface{ Count() int }
	log      *zap.SugaredLogger
}

func NewHealthHandler(db Pinger, sessions interface{ Count() int }, log *zap.SugaredLogger) *HealthHandler {
	return &HealthHandler{db: db, sessions: sessions, log: log}
}

// Live reports that the process is serving requests.
func (h *HealthHandler) Live(c fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"status": "alive",
	})
}

// Ready reports whether the room database answers.
func (h *HealthHandler) Ready(c fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	if err := h.db.Ping(ctx); err != nil {
		h.log.Warnw("readiness check failed", "error", err)
		return c.Status(http.StatusServiceUnavailable).JSON(fiber.Map{
			"status": "unavailable",
		})
	}
	return c.JSON(fiber.Map{
		"status":   "ready",
		"sessions": h.sessions.Count(),
	})
}
