package app

import (
	"go.uber.org/zap"

	cfgpkg "github.com/taoyao-code/radiacode-server/internal/config"
	"github.com/taoyao-code/radiacode-server/internal/health"
	redisstorage "github.com/taoyao-code/radiacode-server/internal/storage/redis"
)

// NewRedisClient 创建Redis客户端；未配置地址时返回 nil，调用方按可选依赖处理
func NewRedisClient(cfg cfgpkg.RedisConfig, logger *zap.Logger) (*redisstorage.Client, error) {
	if cfg.Addr == "" {
		logger.Info("redis is not configured, skipping initialization")
		return nil, nil
	}

	client, err := redisstorage.NewClient(cfg)
	if err != nil {
		return nil, err
	}

	logger.Info("redis client initialized", zap.String("addr", cfg.Addr))
	return client, nil
}

// NewReadingCache 基于Redis客户端创建最新读数缓存与报警发布器
func NewReadingCache(client *redisstorage.Client) *redisstorage.Cache {
	if client == nil {
		return nil
	}
	return redisstorage.NewCache(client)
}

// AddRedisChecker 添加Redis检查器到聚合器
func AddRedisChecker(aggregator *health.Aggregator, redisClient *redisstorage.Client) {
	if redisClient != nil {
		aggregator.AddChecker(health.NewRedisChecker(redisClient))
	}
}
