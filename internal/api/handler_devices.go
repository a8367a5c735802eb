package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"govee-cloud-bridge/internal/capability"
)

// DeviceSummary is the API representation of one registered device.
type DeviceSummary struct {
	Device       string   `json:"device"`
	SKU          string   `json:"sku"`
	Name         string   `json:"name"`
	Type         string   `json:"type"`
	Online       bool     `json:"online"`
	AuthFailed   bool     `json:"authFailed"`
	Presets      []string `json:"presets,omitempty"`
	ActivePreset string   `json:"activePreset,omitempty"`
}

// GetDevices handles the GET /api/devices request.
func (h *Handler) GetDevices(c *gin.Context) {
	failed := make(map[string]bool)
	for _, id := range h.registry.AuthFailed() {
		failed[id] = true
	}

	devices := h.registry.Devices()
	responses := make([]DeviceSummary, 0, len(devices))
	for _, d := range devices {
		summary := DeviceSummary{
			Device:     d.ID,
			SKU:        d.SKU,
			Name:       d.Name,
			Type:       d.Type,
			AuthFailed: failed[d.ID],
		}
		if state, ok := h.registry.CachedState(d.ID); ok {
			summary.Online = state.Online()
		}
		if table, ok := h.registry.ModeTable(d.ID); ok {
			summary.Presets = table.Presets()
			summary.ActivePreset = h.activePreset(d.ID)
		}
		responses = append(responses, summary)
	}
	c.JSON(http.StatusOK, responses)
}

// activePreset maps the cached work-mode value back to its preset name.
// Empty when the device has no cached work mode or reports an unregistered
// combination.
func (h *Handler) activePreset(deviceID string) string {
	table, ok := h.registry.ModeTable(deviceID)
	if !ok {
		return ""
	}
	raw, ok := h.registry.CachedValue(deviceID, capability.TypeWorkMode, capability.InstanceWorkMode)
	if !ok {
		return ""
	}
	wm, err := capability.ParseWorkModeValue(raw)
	if err != nil {
		return ""
	}
	name, _ := table.PresetFor(wm)
	return name
}

// GetDeviceState handles the GET /api/devices/{device_id}/state request. It
// serves the last polled state; it never triggers an upstream call.
func (h *Handler) GetDeviceState(c *gin.Context) {
	id := c.Param("device_id")
	if _, ok := h.registry.Device(id); !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "unknown device"})
		return
	}

	state, ok := h.registry.CachedState(id)
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "no state cached yet for device"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"device":       id,
		"online":       state.Online(),
		"capabilities": state.Capabilities,
	})
}

// GetCapabilityValue handles the GET
// /api/devices/{device_id}/state/{type}/{instance} request.
func (h *Handler) GetCapabilityValue(c *gin.Context) {
	id := c.Param("device_id")
	if _, ok := h.registry.Device(id); !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "unknown device"})
		return
	}

	typ := capability.Type(c.Param("type"))
	instance := c.Param("instance")
	value, ok := h.registry.CachedValue(id, typ, instance)
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "no cached value for capability"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"device":   id,
		"type":     typ,
		"instance": instance,
		"value":    value,
	})
}

// GetPresets handles the GET /api/devices/{device_id}/presets request.
func (h *Handler) GetPresets(c *gin.Context) {
	id := c.Param("device_id")
	if _, ok := h.registry.Device(id); !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "unknown device"})
		return
	}

	table, ok := h.registry.ModeTable(id)
	if !ok {
		c.JSON(http.StatusOK, gin.H{"device": id, "presets": []string{}})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"device":       id,
		"presets":      table.Presets(),
		"activePreset": h.activePreset(id),
	})
}
