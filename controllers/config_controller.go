package controllers

import (
	"github.com/gin-gonic/gin"

	"github.com/linkup-social/linkup/config"
	"github.com/linkup-social/linkup/services"
	"github.com/linkup-social/linkup/utils"
)

// ConfigController serves client-facing limits derived from configuration.
type ConfigController struct{}

func NewConfigController() *ConfigController { return &ConfigController{} }

// GetClientConfig returns upload and paging limits so clients can validate before sending.
func (c *ConfigController) GetClientConfig(ctx *gin.Context) {
	cfg := config.Get()
	utils.Success(ctx, gin.H{
		"media": gin.H{
			"maxBytes":       cfg.MediaMaxBytes,
			"maxFiles":       maxFilesPerRequest,
			"acceptedTypes":  []string{"image/*", "video/*"},
			"storageEnabled": cfg.StorageConfigured(),
		},
		"feed": gin.H{
			"defaultLimit": services.DefaultFeedLimit,
			"maxLimit":     services.MaxFeedLimit,
		},
		"trending": gin.H{
			"defaultLimit": services.DefaultTrendingLimit,
			"maxLimit":     services.MaxTrendingLimit,
		},
	})
}
