package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// GetDiagnostics handles the GET /api/diagnostics request. It reports the
// daily outbound call counts, fixture status and any devices whose polling
// died on an authentication failure.
func (h *Handler) GetDiagnostics(c *gin.Context) {
	counter := h.client.Counter()
	c.JSON(http.StatusOK, gin.H{
		"apiCallsToday": counter.Today(),
		"apiCallsByDay": counter.Snapshot(),
		"devices":       len(h.registry.Devices()),
		"fixtureActive": h.client.FixtureActive(),
		"authFailed":    h.registry.AuthFailed(),
	})
}
