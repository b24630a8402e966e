package main

import (
	"log"
	"os"
	"os/signal"
	"syscall"

	"techniknet-backend/internal/config"
	"techniknet-backend/internal/database"
	"techniknet-backend/internal/logger"
	"techniknet-backend/internal/router"

	"go.uber.org/zap"
)

func main() {
	cfg := config.Load()
	if err := logger.Init(cfg.LogLevel, cfg.LogProduction); err != nil {
		log.Fatal(err)
	}
	defer logger.Sync()

	database.Init(cfg)

	app := router.New(cfg)

	go func() {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
		<-quit
		logger.L.Info("shutting down")
		if err := app.Shutdown(); err != nil {
			logger.L.Error("shutdown failed", zap.Error(err))
		}
	}()

	logger.L.Info("server listening", zap.String("port", cfg.HTTPPort))
	if err := app.Listen(":" + cfg.HTTPPort); err != nil {
		logger.L.Fatal("server stopped", zap.Error(err))
	}
}
