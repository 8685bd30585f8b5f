package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"
	_ "time/tzdata"

	"github.com/jackc/pgx/v5/pgxpool"

	"wholesale-backend/internal/auth"
	"wholesale-backend/internal/cache"
	"wholesale-backend/internal/config"
	"wholesale-backend/internal/database"
	"wholesale-backend/internal/db"
	"wholesale-backend/internal/handlers"
	"wholesale-backend/internal/health"
	h "wholesale-backend/internal/http"
	"wholesale-backend/internal/logger"
	"wholesale-backend/internal/middleware"
	"wholesale-backend/internal/repositories"
	"wholesale-backend/internal/services"
	"wholesale-backend/internal/store"
	"wholesale-backend/internal/store/memory"
	"wholesale-backend/internal/timeutil"
	"wholesale-backend/migrations"
)

func main() {
	log := logger.For("main")

	cfg, err := config.Load()
	if err != nil {
		log.WithError(err).Fatal("Failed to load config")
	}
	if err := logger.Configure(cfg.Log.Level, cfg.Log.Format); err != nil {
		log.WithError(err).Fatal("Invalid log settings")
	}
	if err := timeutil.SetLocation(cfg.Business.Timezone); err != nil {
		log.WithError(err).Fatal("Invalid business timezone")
	}
	vatRate, err := cfg.VatRate()
	if err != nil {
		log.WithError(err).Fatal("Invalid VAT rate")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Storage: PostgreSQL, or the in-memory store for demos and local runs
	var (
		st   store.Store
		pool *pgxpool.Pool
	)
	switch cfg.Database.Driver {
	case "memory":
		log.Warn("Using in-memory store; data is lost on restart")
		st = memory.New()
	default:
		pool, err = db.Connect(ctx, cfg)
		if err != nil {
			log.WithError(err).Fatal("Database connection failed")
		}
		defer pool.Close()

		if err := database.NewMigrator(pool, migrations.FS).RunMigrations(ctx); err != nil {
			log.WithError(err).Fatal("Migrations failed")
		}
		st = repositories.NewPostgresStore(pool)
	}

	// Redis is optional: balance cache and the closing lock degrade to no-ops
	if cfg.Redis.Enabled {
		if err := cache.Init(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB); err != nil {
			log.WithError(err).Warn("Redis unavailable, continuing without cache")
		} else {
			log.WithField("addr", cfg.Redis.Addr).Info("Redis connected")
			defer cache.Close()
		}
	}

	pricing := services.NewPricing(vatRate)
	hs := h.Handlers{
		Catalog:  handlers.NewCatalogHandler(services.NewCatalogService(st)),
		Orders:   handlers.NewOrderHandler(services.NewOrderService(st, pricing)),
		Delivery: handlers.NewDeliveryHandler(services.NewDeliveryService(st)),
		Returns:  handlers.NewReturnHandler(services.NewReturnService(st, pricing)),
		Stock:    handlers.NewStockHandler(services.NewStockService(st)),
		Ledger:   handlers.NewLedgerHandler(services.NewLedgerService(st)),
		Closings: handlers.NewClosingHandler(services.NewClosingService(st)),
		Health:   handlers.NewHealthHandler(health.NewHealthChecker(pool, cache.GetClient())),
	}

	authMiddleware := middleware.NewAuthMiddleware(auth.NewJWTManager(cfg))
	router := h.NewRouter(hs, authMiddleware)

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:           middleware.NewCORS(cfg)(router),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	go func() {
		log.WithField("addr", srv.Addr).Info("Server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.WithError(err).Fatal("Server failed")
		}
	}()

	<-ctx.Done()
	log.Info("Shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Error("Graceful shutdown failed")
	}
}
