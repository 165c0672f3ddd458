package app

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	cfgpkg "github.com/taoyao-code/radiacode-server/internal/config"
	"github.com/taoyao-code/radiacode-server/internal/migrate"
	pgstorage "github.com/taoyao-code/radiacode-server/internal/storage/pg"
)

// ConnectDBAndMigrate 建立数据库连接并按需执行迁移
func ConnectDBAndMigrate(ctx context.Context, cfg cfgpkg.DatabaseConfig, migrateDir string, log *zap.Logger) (*pgxpool.Pool, error) {
	dbpool, err := pgstorage.NewPool(ctx, cfg.DSN, cfg.MaxOpenConns, cfg.MaxIdleConns, cfg.ConnMaxLifetime, log)
	if err != nil {
		if log != nil {
			log.Error("db connect error", zap.Error(err))
		}
		return nil, err
	}
	if cfg.AutoMigrate {
		if err = (migrate.Runner{Dir: migrateDir}).Up(ctx, dbpool); err != nil {
			if log != nil {
				log.Error("db migrate error", zap.Error(err))
			}
			return dbpool, err
		}
		if log != nil {
			log.Info("db migrations applied")
		}
	}
	return dbpool, nil
}

// OpenGormDB 打开仓储层使用的 GORM 连接。
// SQL 追踪已由 pgx 连接池承担，GORM 侧仅保留告警级日志。
func OpenGormDB(cfg cfgpkg.DatabaseConfig) (*gorm.DB, error) {
	return gorm.Open(postgres.Open(cfg.DSN), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Warn),
	})
}
