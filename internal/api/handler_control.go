package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"govee-cloud-bridge/internal/capability"
	"govee-cloud-bridge/internal/client"
	"govee-cloud-bridge/internal/registry"
)

// controlRequest accepts either a preset name or a raw capability command.
type controlRequest struct {
	Preset   string          `json:"preset"`
	Type     capability.Type `json:"type"`
	Instance string          `json:"instance"`
	Value    any             `json:"value"`
}

// ControlDevice handles the POST /api/devices/{device_id}/control request.
func (h *Handler) ControlDevice(c *gin.Context) {
	id := c.Param("device_id")

	var req controlRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var (
		result *client.ControlResult
		err    error
	)
	switch {
	case req.Preset != "" && (req.Type != "" || req.Instance != ""):
		c.JSON(http.StatusBadRequest, gin.H{"error": "specify either preset or type/instance/value, not both"})
		return
	case req.Preset != "":
		result, err = h.registry.ControlPreset(c.Request.Context(), id, req.Preset)
	case req.Type != "" && req.Instance != "":
		cmd := capability.Command{Type: req.Type, Instance: req.Instance, Value: req.Value}
		result, err = h.registry.Control(c.Request.Context(), id, cmd)
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": "preset or type/instance/value is required"})
		return
	}

	if err != nil {
		h.writeControlError(c, result, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// writeControlError maps the control error taxonomy onto HTTP statuses:
// caller mistakes are 4xx, vendor rejections and transport trouble are 502.
func (h *Handler) writeControlError(c *gin.Context, result *client.ControlResult, err error) {
	if errors.Is(err, registry.ErrUnknownDevice) {
		c.JSON(http.StatusNotFound, gin.H{"error": "unknown device"})
		return
	}
	if registry.IsValidationError(err) {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if client.IsAuthError(err) {
		c.JSON(http.StatusBadGateway, gin.H{"error": "vendor authentication failed - reauthentication required"})
		return
	}

	var cmdErr *client.CommandError
	if errors.As(err, &cmdErr) {
		c.JSON(http.StatusBadGateway, gin.H{
			"error":     cmdErr.Error(),
			"errorCode": cmdErr.Code,
			"result":    result,
		})
		return
	}

	c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
}
