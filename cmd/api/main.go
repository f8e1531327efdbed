package main

import (
	"context"
	"flag"
	"time"

	"github.com/sirupsen/logrus"

	"soundcheck/internal/api"
	"soundcheck/internal/config"
	"soundcheck/internal/history"
	"soundcheck/internal/shutdown"
)

var (
	configPath = flag.String("config", "configs/config.yaml", "配置文件路径")
	port       = flag.Int("port", 0, "API 服务端口（0表示使用配置值）")
	verbose    = flag.Bool("verbose", false, "详细输出")
)

func main() {
	flag.Parse()

	logger := logrus.New()
	logger.SetFormatter(&logrus.TextFormatter{
		FullTimestamp: true,
	})
	if *verbose {
		logger.SetLevel(logrus.DebugLevel)
	} else {
		logger.SetLevel(logrus.InfoLevel)
	}

	// 自动检测并加载配置
	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		logger.Fatalf("加载配置失败: %v", err)
	}
	if err := config.ValidateConfig(cfg); err != nil {
		logger.Fatalf("配置校验失败: %v", err)
	}

	listenPort := cfg.API.Port
	if *port != 0 {
		listenPort = *port
	}

	// 打开承诺历史库
	var store *history.Store
	if cfg.History != nil && cfg.History.Enabled {
		store, err = history.NewStore(cfg.History.Path, logger)
		if err != nil {
			logger.Fatalf("打开历史库失败: %v", err)
		}
	}

	server, err := api.NewServer(cfg, store, logger, listenPort)
	if err != nil {
		logger.Fatalf("创建API服务器失败: %v", err)
	}

	// 优雅停机: 先关HTTP服务器，再关历史库
	manager := shutdown.NewManager(30*time.Second, logger)
	manager.Register("api-server", 1, func(ctx context.Context) error {
		return server.Stop(ctx)
	})
	if store != nil {
		manager.Register("history-store", 2, func(ctx context.Context) error {
			return store.Close()
		})
	}
	manager.Start()

	go func() {
		if err := server.Start(); err != nil {
			logger.Errorf("启动服务器失败: %v", err)
			manager.Shutdown()
		}
	}()

	manager.Wait()
	logger.Info("服务器已关闭")
}
