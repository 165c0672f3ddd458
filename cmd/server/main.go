package main

import (
	"flag"

	"go.uber.org/zap"

	"github.com/taoyao-code/radiacode-server/internal/app/bootstrap"
	cfgpkg "github.com/taoyao-code/radiacode-server/internal/config"
	"github.com/taoyao-code/radiacode-server/internal/logging"
)

func main() {
	configPath := flag.String("config", "", "配置文件路径，缺省时读取 RADIACODE_CONFIG 或 configs/example.yaml")
	flag.Parse()

	// 1) 加载配置
	cfg, err := cfgpkg.Load(*configPath)
	if err != nil {
		panic(err)
	}

	// 2) 初始化日志
	logger, err := logging.InitLogger(cfg.Logging)
	if err != nil {
		panic(err)
	}
	defer func() { _ = logger.Sync() }()
	zap.ReplaceGlobals(logger)
	log := zap.L()

	// 3) 启动采集服务
	if err := bootstrap.Run(cfg, log); err != nil {
		log.Fatal("server exited with error", zap.Error(err))
	}
}
