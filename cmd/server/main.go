package main

import (
	"context"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/lcharier/gestibat/internal/config"
	"github.com/lcharier/gestibat/internal/db"
	"github.com/lcharier/gestibat/internal/server"
)

var migrateOnlyFlag = flag.Bool("migrate-only", false, "Run DB migrations and exit")

func initLogger(cfg config.Config) (*zap.Logger, error) {
	var zapLevel zapcore.Level
	switch cfg.LogLevel {
	case "debug":
		zapLevel = zapcore.DebugLevel
	case "info", "":
		zapLevel = zapcore.InfoLevel
	case "warn", "warning":
		zapLevel = zapcore.WarnLevel
	case "error":
		zapLevel = zapcore.ErrorLevel
	default:
		zapLevel = zapcore.InfoLevel
	}
	var zcfg zap.Config
	if cfg.LogFormat == "json" {
		zcfg = zap.NewProductionConfig()
	} else {
		zcfg = zap.NewDevelopmentConfig()
	}
	zcfg.Level = zap.NewAtomicLevelAt(zapLevel)
	return zcfg.Build()
}

func main() {
	flag.Parse()
	_ = godotenv.Load()
	cfg := config.Load()

	logger, err := initLogger(cfg)
	if err != nil {
		log.Fatalf("logger init failed: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	if *migrateOnlyFlag {
		if _, err := db.ConnectAndMigrate(cfg.DatabaseDSN); err != nil {
			logger.Fatal("migrate-only failed", zap.Error(err))
		}
		logger.Info("migrations completed; exiting as requested")
		return
	}

	dbConn, err := db.ConnectAndMigrate(cfg.DatabaseDSN)
	if err != nil {
		logger.Fatal("database connection failed", zap.Error(err))
	}
	logger.Info("starting server", zap.String("env", cfg.Env), zap.String("port", cfg.Port))

	handler := server.New(dbConn, cfg, logger)
	srv := &http.Server{Addr: ":" + cfg.Port, Handler: handler}

	go func() {
		logger.Info("server listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("server error", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("shutdown signal received")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("error during shutdown", zap.Error(err))
	}
	logger.Info("server gracefully stopped")
}
