package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/PKartavkin/slack-bot/internal/bot"
	"github.com/PKartavkin/slack-bot/internal/store"
)

// HealthHandler reports liveness of the service and its dependencies.
type HealthHandler struct {
	store store.Store
	queue bot.TaskQueue
}

func NewHealthHandler(st store.Store, queue bot.TaskQueue) *HealthHandler {
	return &HealthHandler{store: st, queue: queue}
}

// CheckHealth handles GET /health.
func (h *HealthHandler) CheckHealth(c *gin.Context) {
	overall := "healthy"

	storageStatus := "ok"
	if err := h.store.Ping(c.Request.Context()); err != nil {
		storageStatus = "error: " + err.Error()
		overall = "unhealthy"
	}

	queueMode := "sync"
	if h.queue != nil && h.queue.IsAsync() {
		queueMode = "async (Redis)"
	}

	c.JSON(200, gin.H{
		"status":  overall,
		"service": "slack-bot",
		"components": gin.H{
			"storage":    storageStatus,
			"queue_mode": queueMode,
		},
	})
}
