package main

import (
	"context"
	"fmt"
	"os"

	"github.com/joho/godotenv"

	"github.com/pricepilot/pricepilot-backend/pkg/config"
	"github.com/pricepilot/pricepilot-backend/pkg/db"
	"github.com/pricepilot/pricepilot-backend/pkg/logger"
	"github.com/pricepilot/pricepilot-backend/pkg/migrate"
)

// Applies the embedded goose migrations against the configured database.
// The docstore backend is the only one with relational state; gitstore and
// memory deployments never need this.
func main() {
	ctx := context.Background()
	logg := logger.New(logger.Options{ServiceName: "migrate"})

	_ = godotenv.Load()

	cfg, err := config.Load()
	requireResource(ctx, logg, "config", err)

	logg = logger.New(logger.Options{
		ServiceName: "migrate",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	dbClient, err := db.New(ctx, cfg.DB, logg)
	requireResource(ctx, logg, "database", err)
	defer dbClient.Close()

	sqlDB, err := dbClient.DB().DB()
	requireResource(ctx, logg, "sql database", err)

	ctx = logg.WithField(ctx, "env", cfg.App.Env)
	logg.Info(ctx, "running goose migrations")

	if err := migrate.Up(ctx, sqlDB); err != nil {
		fmt.Fprintf(os.Stderr, "goose up failed: %v\n", err)
		os.Exit(1)
	}

	logg.Info(ctx, "goose migrations completed")
}

func requireResource(ctx context.Context, logg *logger.Logger, resource string, err error) {
	if err == nil {
		return
	}
	logg.Error(ctx, fmt.Sprintf("resource not working: %s", resource), err)
	os.Exit(1)
}
