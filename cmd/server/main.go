package main

import (
	"context"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	ordersapp "github.com/retailops/core/internal/application/orders"
	"github.com/retailops/core/internal/infrastructure/auth"
	"github.com/retailops/core/internal/infrastructure/cache"
	"github.com/retailops/core/internal/infrastructure/config"
	"github.com/retailops/core/internal/infrastructure/ledger"
	"github.com/retailops/core/internal/infrastructure/logger"
	"github.com/retailops/core/internal/infrastructure/remote"
	"github.com/retailops/core/internal/interfaces/http/handler"
	"github.com/retailops/core/internal/interfaces/http/middleware"
	"github.com/retailops/core/internal/interfaces/http/router"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	log, err := logger.New(&logger.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		Output: cfg.Log.Output,
	})
	if err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}
	defer func() {
		_ = log.Sync()
	}()

	log.Info("Starting order gateway",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
		zap.String("backend", cfg.Backend.BaseURL))

	backend, err := remote.NewClient(remote.Config{
		BaseURL:        cfg.Backend.BaseURL,
		APIToken:       cfg.Backend.APIToken,
		TimeoutSeconds: cfg.Backend.TimeoutSeconds,
	}, log)
	if err != nil {
		log.Fatal("Failed to create backend client", zap.Error(err))
	}

	orderLedger := ledger.NewMemoryLedger()
	idempotencyStore := cache.NewIdempotencyStore(cfg, log)
	defer func() {
		if err := idempotencyStore.Close(); err != nil {
			log.Error("Error closing idempotency store", zap.Error(err))
		}
	}()

	orderService := ordersapp.NewOrderService(
		orderLedger, backend, backend, log, cfg.Orders.MinimumPaymentPercentage)

	if cfg.Backend.WarmLedger {
		warmCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		count, err := orderService.WarmLedger(warmCtx)
		cancel()
		if err != nil {
			log.Warn("Ledger warm-up failed, continuing with an empty ledger", zap.Error(err))
		} else {
			log.Info("Ledger warmed", zap.Int("orders", count))
		}
	}

	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	engine := gin.New()
	engine.Use(
		logger.RequestID(),
		logger.GinMiddleware(log),
		logger.Recovery(log),
	)
	if len(cfg.HTTP.TrustedProxies) > 0 {
		if err := engine.SetTrustedProxies(cfg.HTTP.TrustedProxies); err != nil {
			log.Fatal("Invalid trusted proxies", zap.Error(err))
		}
	}

	validator := auth.NewTokenValidator(cfg.JWT)
	idempotency := middleware.Idempotency(idempotencyStore, cfg.Orders.IdempotencyTTL, log)

	router.NewRouter(engine,
		router.WithGroupMiddleware(middleware.SessionAuth(validator, log))).
		RegisterOpen(handler.NewSystemHandler(cfg.App.Name)).
		Register(handler.NewOrderHandler(orderService, idempotency)).
		Setup()

	server := &http.Server{
		Addr:           ":" + cfg.App.Port,
		Handler:        engine,
		ReadTimeout:    cfg.HTTP.ReadTimeout,
		WriteTimeout:   cfg.HTTP.WriteTimeout,
		IdleTimeout:    cfg.HTTP.IdleTimeout,
		MaxHeaderBytes: cfg.HTTP.MaxHeaderBytes,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		log.Info("HTTP server listening", zap.String("addr", server.Addr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("HTTP server failed", zap.Error(err))
		}
	}()

	<-ctx.Done()
	log.Info("Shutdown signal received, draining connections")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("Graceful shutdown failed", zap.Error(err))
	}

	log.Info("Server stopped")
}
