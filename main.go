package main

import (
	"context"
	"flag"
	"fmt"
	"log"

	"T2I/controller"
	"T2I/dao/store"
	"T2I/logger"
	"T2I/logic"
	"T2I/pkg/transport"
	"T2I/provider"
	"T2I/settings"
	"T2I/task"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

func main() {
	configFile := flag.String("config", "", "config file path (optional)")
	flag.Parse()

	if err := settings.Init(*configFile); err != nil {
		log.Fatalf("Failed to init settings: %v", err)
	}
	if err := logger.Init(settings.Conf.Mode); err != nil {
		log.Fatalf("Failed to init logger: %v", err)
	}
	defer zap.L().Sync()

	// 历史索引是尽力而为的：Redis不可用时照常启动，索引停用
	if err := store.Init(settings.Conf.RedisAddr); err != nil {
		zap.L().Warn("redis unavailable, history index disabled",
			zap.String("addr", settings.Conf.RedisAddr), zap.Error(err))
	}

	registry := task.NewRegistry()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go registry.RunSweeper(ctx, settings.Conf.SweepEvery, settings.Conf.TaskMaxAge)

	client := transport.New()
	adapter := provider.NewAdapter(client)
	optimizer := logic.NewPromptService(client)
	history := logic.NewHistorySink(settings.Conf.HistoryDir)
	driver := logic.NewDriver(registry, adapter, optimizer, history)
	chat := logic.NewChatService(client)
	h := controller.NewHandler(registry, driver, chat)

	if settings.Conf.Mode != "debug" {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.Default()

	r.GET("/api/health", h.HealthCheck)
	r.POST("/api/generate", h.SubmitGenerateTask)
	r.GET("/api/tasks/:task_id", h.GetTaskResult)
	r.POST("/api/chat", h.ChatHandler)
	r.GET("/api/history", h.GetHistory)
	r.Static("/static/history", settings.Conf.HistoryDir)

	addr := fmt.Sprintf(":%d", settings.Conf.Port)
	zap.L().Info("server starting", zap.String("addr", addr))
	if err := r.Run(addr); err != nil {
		zap.L().Fatal("server exited", zap.Error(err))
	}
}
