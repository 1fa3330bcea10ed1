package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"chatbook/internal/config"
	"chatbook/internal/console"
	"chatbook/internal/handlers"
	"chatbook/internal/logger"
	"chatbook/internal/observability"
	"chatbook/internal/rabbitmq"
	"chatbook/internal/services"
	"chatbook/internal/telemetry"
	"chatbook/internal/tracing"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	mode := logger.DevelopmentMode
	if cfg.Environment == logger.ProductionMode {
		mode = logger.ProductionMode
		gin.SetMode(gin.ReleaseMode)
	}
	lg, err := logger.Initialize(cfg.LogLevel, mode)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}

	os.Exit(exitCode(lg, run(cfg, lg)))
}

// exitCode logs a failed run and flushes the logger before the process exits,
// since os.Exit skips deferred calls.
func exitCode(lg *zap.Logger, err error) int {
	code := 0
	if err != nil {
		lg.Error("chatbook stopped", zap.Error(err))
		code = 1
	}
	_ = lg.Sync()
	return code
}

func run(cfg *config.Config, lg *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	lg.Info("starting chatbook",
		zap.String("service", cfg.ServiceName),
		zap.String("environment", cfg.Environment),
		zap.Strings("env_files", cfg.EnvFiles),
	)

	shutdownTracing, err := tracing.Setup(ctx, cfg)
	if err != nil {
		return err
	}

	publisher := rabbitmq.NewPublisher(cfg.AMQPURL, cfg.AMQPExchange, lg)
	lg.Info("event publisher ready",
		zap.String("mode", rabbitmq.PublisherMode(publisher)),
		zap.String("noop_reason", rabbitmq.PublisherNoopReason(publisher)),
	)

	emitter := telemetry.NewEventEmitter(publisher, cfg.ServiceName, cfg.Environment, lg)
	chatService := services.NewChatService(emitter, lg)
	observability.ExportStoreSize(chatService)

	var opsServer *http.Server
	if cfg.OpsAddr != "" {
		router := handlers.NewRouter(handlers.NewOpsHandler(chatService), cfg.ServiceName, lg)
		handlers.RegisterDebugRoutes(router, emitter, cfg.DebugRoutes)
		opsServer = &http.Server{Addr: cfg.OpsAddr, Handler: router}

		go func() {
			lg.Info("ops server listening", zap.String("addr", cfg.OpsAddr))
			if err := opsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				lg.Error("ops server error", zap.Error(err))
				stop()
			}
		}()
	}

	consoleDone := make(chan error, 1)
	go func() {
		consoleDone <- console.New(chatService, lg).Run(ctx, os.Stdin, os.Stdout)
	}()

	var runErr error
	select {
	case <-ctx.Done():
		lg.Info("shutdown signal received")
	case runErr = <-consoleDone:
		lg.Info("console closed")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.ShutdownTimeoutSec)*time.Second)
	defer cancel()

	if opsServer != nil {
		if err := opsServer.Shutdown(shutdownCtx); err != nil {
			lg.Warn("ops server shutdown", zap.Error(err))
		}
	}
	if err := publisher.Close(); err != nil {
		lg.Warn("publisher close", zap.Error(err))
	}
	if err := shutdownTracing(shutdownCtx); err != nil {
		lg.Warn("tracing shutdown", zap.Error(err))
	}
	return runErr
}
