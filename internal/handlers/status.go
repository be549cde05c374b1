package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	v1 "github.com/kubev2v/priority-scheduler/api/v1"
)

// GetSchedulerStatus returns the scheduler counters and the number of chat connections
// (GET /api/v1/scheduler)
func (h *Handler) GetSchedulerStatus(c *gin.Context) {
	c.JSON(http.StatusOK, v1.NewStatusFromModel(h.statusSrv.Status()))
}
