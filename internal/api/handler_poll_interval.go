package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

type putPollIntervalRequest struct {
	Seconds int `json:"seconds" binding:"required,gt=0"`
}

// PutPollInterval handles the PUT /api/poll_interval request. The new
// interval applies to each device's next poll; a tick already scheduled is
// not rescheduled.
func (h *Handler) PutPollInterval(c *gin.Context) {
	var req putPollIntervalRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	h.registry.SetPollInterval(req.Seconds)
	c.JSON(http.StatusOK, gin.H{"seconds": req.Seconds})
}
