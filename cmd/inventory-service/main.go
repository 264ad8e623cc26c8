package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/medflow/pharmacy-inventory/internal/inventory/consumers"
	"github.com/medflow/pharmacy-inventory/internal/inventory/events"
	"github.com/medflow/pharmacy-inventory/internal/inventory/handler"
	"github.com/medflow/pharmacy-inventory/internal/inventory/migrations"
	"github.com/medflow/pharmacy-inventory/internal/inventory/repository"
	"github.com/medflow/pharmacy-inventory/internal/inventory/service"
	"github.com/medflow/pharmacy-inventory/pkg/actor"
	"github.com/medflow/pharmacy-inventory/pkg/config"
	"github.com/medflow/pharmacy-inventory/pkg/database"
	"github.com/medflow/pharmacy-inventory/pkg/httputil"
	"github.com/medflow/pharmacy-inventory/pkg/lease"
	"github.com/medflow/pharmacy-inventory/pkg/logger"
	"github.com/medflow/pharmacy-inventory/pkg/messaging"
)

const serviceName = "inventory-service"

func main() {
	// Load configuration with validation (fails fast in production if required config is missing)
	cfg, err := config.LoadWithValidation(serviceName)
	if err != nil {
		fmt.Fprintf(os.Stderr, "configuration error: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	log := logger.New(serviceName, cfg.Server.Environment)
	log.Info().Msg("starting Inventory Service")

	loc, err := cfg.Inventory.Location()
	if err != nil {
		log.Fatal().Err(err).Msg("invalid inventory timezone")
	}

	// Connect to database
	db, err := database.New(&cfg.Database, log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer db.Close()

	if cfg.Database.AutoMigrate {
		if err := database.Migrate(cfg.Database.MigrationURL(), migrations.FS, migrations.Dir, log); err != nil {
			log.Fatal().Err(err).Msg("failed to migrate database")
		}
	}

	store := repository.NewPostgresStore(db)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// RabbitMQ is optional in development; without it events are dropped
	var publisher service.EventPublisher
	var rmq *messaging.RabbitMQ
	if cfg.RabbitMQ.URL != "" {
		rmq, err = messaging.New(&cfg.RabbitMQ, log)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to connect to RabbitMQ")
		}
		defer rmq.Close()

		if err := rmq.DeclareDeadLetterQueue(serviceName); err != nil {
			log.Fatal().Err(err).Msg("failed to declare dead letter queue")
		}

		eventPublisher, err := events.NewInventoryEventPublisher(rmq, log)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to create event publisher")
		}
		publisher = eventPublisher

		catalogConsumer, err := consumers.NewCatalogEventConsumer(rmq, store, log)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to create catalog event consumer")
		}
		if err := catalogConsumer.Start(ctx); err != nil {
			log.Fatal().Err(err).Msg("failed to start catalog event consumer")
		}

		go rmq.Watch(ctx, func() {
			if err := catalogConsumer.Start(ctx); err != nil {
				log.Error().Err(err).Msg("failed to restart catalog event consumer")
			}
		})
	} else {
		log.Warn().Msg("RabbitMQ disabled, inventory events will not be published")
	}

	// Initialize service
	inventoryService := service.NewInventoryService(
		store,
		publisher,
		service.SystemClock(loc),
		service.SweeperConfig{
			RetentionDays: cfg.Inventory.AuditRetentionDays,
			ProtectDays:   cfg.Inventory.AuditProtectDays,
		},
		log,
	)

	// Replicas coordinate the sweep through Redis when configured
	var sweepLease lease.Lease = lease.NewLocalLease()
	if cfg.Redis.Addr != "" {
		redisClient := lease.NewRedisClient(&cfg.Redis)
		defer redisClient.Close()

		redisLease := lease.NewRedisLease(redisClient, serviceName)
		if err := redisLease.Ping(ctx); err != nil {
			log.Fatal().Err(err).Msg("failed to connect to Redis")
		}
		sweepLease = redisLease
	}

	var scheduler *service.SweepScheduler
	if cfg.Inventory.SweepInterval > 0 {
		scheduler = service.NewSweepScheduler(inventoryService.Sweeper(), sweepLease,
			cfg.Inventory.SweepInterval, cfg.Inventory.SweepLeaseTTL, log)
		scheduler.Start(ctx)
	}

	// Create router
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RealIP)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.Server.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type", "X-Request-ID", actor.HeaderUserID, actor.HeaderUserEmail, actor.HeaderUserRole},
		ExposedHeaders:   []string{"X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           300,
	}))
	r.Use(httputil.RequestID)
	r.Use(httputil.Actor)
	r.Use(httputil.Logger(log))
	r.Use(httputil.Recoverer(log))

	// Health check
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		health := map[string]interface{}{
			"status":   "healthy",
			"service":  serviceName,
			"database": db.Health(r.Context()),
		}
		if rmq != nil {
			health["rabbitmq"] = rmq.Health()
		}
		httputil.JSON(w, http.StatusOK, health)
	})

	// API routes
	r.Route("/api/v1/inventory", func(r chi.Router) {
		handler.Routes(r, inventoryService, log)
	})

	// Create server
	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	// Start server
	go func() {
		log.Info().Str("addr", addr).Msg("server listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("server error")
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down server")

	// Cancel context to stop consumers and the sweeper
	cancel()
	if scheduler != nil {
		scheduler.Stop()
	}

	// Graceful shutdown
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("server forced to shutdown")
	}

	log.Info().Msg("server stopped")
}
