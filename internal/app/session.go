package app

import (
	"go.uber.org/zap"

	cfgpkg "github.com/taoyao-code/radiacode-server/internal/config"
	"github.com/taoyao-code/radiacode-server/internal/session"
)

// NewSessionManager 构造仪器会话管理器，离线阈值取自采集配置
func NewSessionManager(cfg cfgpkg.PollConfig, logger *zap.Logger) *session.Manager {
	mgr := session.New(cfg.OfflineAfter)
	logger.Info("session manager initialized",
		zap.Duration("offline_after", cfg.OfflineAfter))
	return mgr
}
