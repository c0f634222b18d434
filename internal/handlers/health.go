package handlers

import (
	"net/http"

	"golivehub/internal/worker"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// HealthHandler reports service and worker health
type HealthHandler struct {
	db            *gorm.DB
	workerService *worker.WorkerService
}

// NewHealthHandler creates a new health handler
func NewHealthHandler(db *gorm.DB, workerService *worker.WorkerService) *HealthHandler {
	return &HealthHandler{db: db, workerService: workerService}
}

// HealthCheck handles GET /health
func (h *HealthHandler) HealthCheck(c *gin.Context) {
	status := gin.H{
		"status":  "healthy",
		"service": "golivehub",
	}

	if h.db != nil {
		sqlDB, err := h.db.DB()
		if err == nil {
			err = sqlDB.PingContext(c.Request.Context())
		}
		if err != nil {
			status["status"] = "degraded"
			status["database"] = err.Error()
			c.JSON(http.StatusServiceUnavailable, status)
			return
		}
	}

	c.JSON(http.StatusOK, status)
}

// WorkerStatus handles GET /api/worker/status
func (h *HealthHandler) WorkerStatus(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"worker_status": h.workerService.GetStatus(),
	})
}
