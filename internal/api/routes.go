package api

import (
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	"github.com/taoyao-code/radiacode-server/internal/api/middleware"
	"github.com/taoyao-code/radiacode-server/internal/session"
	"github.com/taoyao-code/radiacode-server/internal/storage"
	redisstore "github.com/taoyao-code/radiacode-server/internal/storage/redis"
)

// RegisterRoutes 注册查询与控制路由
func RegisterRoutes(
	r *gin.Engine,
	repo storage.CoreRepo,
	cache *redisstore.Cache,
	sess *session.Manager,
	cmd DeviceCommander,
	authCfg middleware.AuthConfig,
	logger *zap.Logger,
) {
	if r == nil || repo == nil || sess == nil {
		return
	}

	readonly := NewReadOnlyHandler(repo, cache, sess, logger)

	// 快速就绪检查与接口文档(无需认证)
	r.GET("/ready", readonly.Ready)
	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	// API路由组(需要认证)
	apiGroup := r.Group("/api")
	if authCfg.Enabled {
		apiGroup.Use(middleware.APIKeyAuth(authCfg, logger))
		logger.Info("api authentication enabled", zap.Int("api_keys_count", len(authCfg.APIKeys)))
	} else {
		logger.Warn("api authentication disabled - only for development!")
	}

	// 仪器查询
	apiGroup.GET("/devices", readonly.ListDevices)
	apiGroup.GET("/devices/:serial", readonly.GetDevice)
	apiGroup.GET("/devices/:serial/latest", readonly.GetLatestReading)
	apiGroup.GET("/devices/:serial/samples", readonly.ListSamples)
	apiGroup.GET("/devices/:serial/events", readonly.ListEvents)
	apiGroup.GET("/devices/:serial/spectrum", readonly.GetSpectrum)

	// 仪器控制
	if cmd != nil {
		control := NewControlHandler(cmd, logger)
		apiGroup.POST("/devices/:serial/sound", control.SetSound)
		apiGroup.POST("/devices/:serial/vibro", control.SetVibro)
		apiGroup.POST("/devices/:serial/display", control.SetDisplay)
		apiGroup.POST("/devices/:serial/language", control.SetLanguage)
		apiGroup.POST("/devices/:serial/dose/reset", control.DoseReset)
		apiGroup.POST("/devices/:serial/spectrum/reset", control.SpectrumReset)
		apiGroup.POST("/devices/:serial/poweroff", control.PowerOff)
	}

	logger.Info("api routes registered")
}
