package api

import (
	"github.com/SherClockHolmes/webpush-go"
	"gorm.io/gorm"

	"govee-cloud-bridge/internal/client"
	"govee-cloud-bridge/internal/registry"
)

// Handler holds shared dependencies for API handlers.
type Handler struct {
	registry *registry.Registry
	client   *client.Client
	db       *gorm.DB
	webpush  *webpush.Options
}

// NewHandler creates a new API handler.
func NewHandler(reg *registry.Registry, cl *client.Client, db *gorm.DB, webpushOptions *webpush.Options) *Handler {
	return &Handler{
		registry: reg,
		client:   cl,
		db:       db,
		webpush:  webpushOptions,
	}
}
