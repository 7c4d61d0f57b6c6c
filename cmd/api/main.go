package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/pricepilot/pricepilot-backend/api/controllers"
	"github.com/pricepilot/pricepilot-backend/api/routes"
	authsvc "github.com/pricepilot/pricepilot-backend/internal/auth"
	"github.com/pricepilot/pricepilot-backend/internal/entity"
	listsvc "github.com/pricepilot/pricepilot-backend/internal/lists"
	pricesvc "github.com/pricepilot/pricepilot-backend/internal/prices"
	productsvc "github.com/pricepilot/pricepilot-backend/internal/products"
	"github.com/pricepilot/pricepilot-backend/internal/storage"
	"github.com/pricepilot/pricepilot-backend/internal/storage/docstore"
	"github.com/pricepilot/pricepilot-backend/internal/storage/gitstore"
	"github.com/pricepilot/pricepilot-backend/internal/storage/memstore"
	storesvc "github.com/pricepilot/pricepilot-backend/internal/stores"
	usersvc "github.com/pricepilot/pricepilot-backend/internal/users"
	"github.com/pricepilot/pricepilot-backend/pkg/auth/session"
	"github.com/pricepilot/pricepilot-backend/pkg/config"
	"github.com/pricepilot/pricepilot-backend/pkg/db"
	"github.com/pricepilot/pricepilot-backend/pkg/logger"
	"github.com/pricepilot/pricepilot-backend/pkg/metrics"
	"github.com/pricepilot/pricepilot-backend/pkg/migrate"
	"github.com/pricepilot/pricepilot-backend/pkg/openfoodfacts"
	"github.com/pricepilot/pricepilot-backend/pkg/redis"
)

func main() {
	logg := logger.New(logger.Options{ServiceName: "api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "api",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	redisClient, err := redis.New(context.Background(), cfg.Redis, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap redis", err)
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing redis", err)
		}
	}()

	storageMetrics := metrics.NewStorageMetrics(prometheus.DefaultRegisterer)

	var backend storage.Backend
	var backendPinger controllers.Pinger

	switch cfg.Storage.Backend {
	case config.StorageBackendDocstore:
		dbClient, err := db.New(context.Background(), cfg.DB, logg)
		if err != nil {
			logg.Error(context.Background(), "failed to bootstrap database", err)
			os.Exit(1)
		}
		defer func() {
			if err := dbClient.Close(); err != nil {
				logg.Error(context.Background(), "error closing database", err)
			}
		}()

		if err := migrate.MaybeRunDev(context.Background(), cfg, logg, dbClient); err != nil {
			logg.Error(context.Background(), "failed to run dev migrations", err)
			os.Exit(1)
		}

		store := docstore.New(dbClient.DB(), storageMetrics)
		backend = store
		backendPinger = store
	case config.StorageBackendGitstore:
		store := gitstore.New(cfg.GitHub, redisClient, logg, storageMetrics)
		backend = store
		backendPinger = store
	case config.StorageBackendMemory:
		store := memstore.New()
		backend = store
		backendPinger = store
	default:
		logg.Error(context.Background(), "unknown storage backend "+cfg.Storage.Backend, nil)
		os.Exit(1)
	}

	sessionManager, err := session.NewManager(redisClient, cfg.JWT)
	if err != nil {
		logg.Error(context.Background(), "failed to create session manager", err)
		os.Exit(1)
	}

	clients := entity.NewClients(backend, logg)

	authService, err := authsvc.NewService(clients.Users, sessionManager, cfg.JWT, cfg.Password)
	if err != nil {
		logg.Error(context.Background(), "failed to create auth service", err)
		os.Exit(1)
	}
	productService, err := productsvc.NewService(clients.Products, openfoodfacts.New(cfg.Lookup))
	if err != nil {
		logg.Error(context.Background(), "failed to create product service", err)
		os.Exit(1)
	}
	priceService, err := pricesvc.NewService(clients.Prices)
	if err != nil {
		logg.Error(context.Background(), "failed to create price service", err)
		os.Exit(1)
	}
	storeService, err := storesvc.NewService(clients.Stores, clients.Prices, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create store service", err)
		os.Exit(1)
	}
	listService, err := listsvc.NewService(clients.Lists)
	if err != nil {
		logg.Error(context.Background(), "failed to create list service", err)
		os.Exit(1)
	}
	userService, err := usersvc.NewService(clients.Users)
	if err != nil {
		logg.Error(context.Background(), "failed to create user service", err)
		os.Exit(1)
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	ctx := logg.WithFields(context.Background(), map[string]any{
		"env":     cfg.App.Env,
		"addr":    addr,
		"backend": backend.Name(),
	})
	logg.Info(ctx, "starting api server")

	server := &http.Server{
		Addr: addr,
		Handler: routes.NewRouter(cfg, logg, backendPinger, redisClient, sessionManager, routes.Services{
			Auth:     authService,
			Products: productService,
			Prices:   priceService,
			Stores:   storeService,
			Lists:    listService,
			Users:    userService,
		}),
	}

	runCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if err != nil && err != http.ErrServerClosed {
			logg.Error(ctx, "api server stopped unexpectedly", err)
			os.Exit(1)
		}
	case <-runCtx.Done():
		logg.Info(ctx, "shutting down api server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logg.Error(ctx, "graceful shutdown failed", err)
		}
	}
}
