package api

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/patrickmn/go-cache"
	"golang.org/x/time/rate"

	"govee-cloud-bridge/config"
	"govee-cloud-bridge/internal/mw"
)

// NewRouter creates and configures a new Gin router.
func NewRouter(cfg *config.ServerConfig, h *Handler) *gin.Engine {
	r := gin.Default()

	rateLimiter := mw.RateLimiter(rate.Limit(cfg.RateLimitPerSec), cfg.RateLimitBurst)

	// Read-side responses change on every poll tick, so the cache TTL stays
	// in the seconds range and only absorbs bursts of identical reads.
	ttl := time.Duration(cfg.CacheTTLSeconds) * time.Second
	cacheStore := cache.New(ttl, 10*ttl)
	caching := mw.ResponseCache(cacheStore, ttl)

	api := r.Group("/api")
	api.Use(rateLimiter)
	{
		api.GET("/devices", caching, h.GetDevices)
		api.GET("/devices/:device_id/state", caching, h.GetDeviceState)
		api.GET("/devices/:device_id/state/:type/:instance", caching, h.GetCapabilityValue)
		api.GET("/devices/:device_id/presets", caching, h.GetPresets)
		api.POST("/devices/:device_id/control", h.ControlDevice)

		api.PUT("/poll_interval", h.PutPollInterval)
		api.GET("/diagnostics", h.GetDiagnostics)

		api.GET("/subscriptions", h.GetSubscription)
		api.PUT("/subscriptions", h.PutSubscription)
		api.DELETE("/subscriptions", h.DeleteSubscription)
		api.GET("/vapid_public_key", h.GetVAPIDPublicKey)
	}

	return r
}
