package app

import (
	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/taoyao-code/radiacode-server/internal/health"
	"github.com/taoyao-code/radiacode-server/internal/session"
)

// NewReady 创建就绪状态聚合
func NewReady() *health.Readiness {
	return health.New()
}

// NewHealthAggregator 创建健康检查聚合器
func NewHealthAggregator(dbpool *pgxpool.Pool) *health.Aggregator {
	// 初始时只添加数据库检查器
	return health.NewAggregator(
		health.NewDatabaseChecker(dbpool),
	)
}

// RegisterHealthRoutes 注册健康检查HTTP路由
func RegisterHealthRoutes(r *gin.Engine, aggregator *health.Aggregator) {
	health.RegisterHTTPRoutes(r, aggregator)
}

// AddDeviceChecker 机队接入完成后把仪器在线率检查器挂入聚合器
func AddDeviceChecker(aggregator *health.Aggregator, sess *session.Manager, configured int) {
	aggregator.AddChecker(health.NewDeviceChecker(sess, configured))
}
