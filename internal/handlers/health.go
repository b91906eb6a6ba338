package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// WorkerStatusProvider reports whether each background worker is running
type WorkerStatusProvider interface {
	GetWorkerStatus() map[string]bool
}

type HealthHandler struct {
	workers WorkerStatusProvider
}

func NewHealthHandler(workers WorkerStatusProvider) *HealthHandler {
	return &HealthHandler{workers: workers}
}

// HealthCheck reports service liveness and worker state
func (h *HealthHandler) HealthCheck(c *gin.Context) {
	status := "ok"
	workers := map[string]bool{}
	if h.workers != nil {
		workers = h.workers.GetWorkerStatus()
	}
	for _, running := range workers {
		if !running {
			status = "degraded"
			break
		}
	}

	c.JSON(http.StatusOK, gin.H{
		"status":    status,
		"workers":   workers,
		"timestamp": time.Now().UTC(),
	})
}
