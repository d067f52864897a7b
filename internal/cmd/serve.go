package cmd

import (
	"context"
	"fmt"
	"log"
	"os/signal"
	"syscall"

	"medtrack/internal/auth"
	"medtrack/internal/cache"
	"medtrack/internal/config"
	"medtrack/internal/database"
	"medtrack/internal/server"
	"medtrack/internal/services"

	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the MedTrack API server",
	Long: `Start the MedTrack API server. The database schema is migrated on startup.
When REDIS_ADDR is set, dashboard stats are cached and domain events are
published to Redis.`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	db, err := database.Connect(cfg.DB)
	if err != nil {
		return err
	}
	defer database.Close(db)

	if err := database.Migrate(db); err != nil {
		return fmt.Errorf("failed to migrate database: %w", err)
	}

	opts := services.Options{
		DefaultCountry: cfg.DefaultCountry,
		CacheTTL:       cfg.DashboardCacheTTL,
	}
	if cfg.Redis.Enabled() {
		rdb, err := cache.NewRedisClient(cfg.Redis)
		if err != nil {
			return fmt.Errorf("failed to connect to redis: %w", err)
		}
		defer rdb.Close()
		store := cache.NewStore(rdb)
		opts.Cache = store
		opts.Events = store
	} else {
		log.Println("REDIS_ADDR not set, dashboard cache and events disabled")
	}

	tokens := auth.NewTokenManager(cfg.JWT.Secret, cfg.JWT.TTL)
	svc := services.New(db, tokens, opts)

	srv, err := server.NewServer(cfg, db, svc, tokens)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(background(cmd), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	return srv.Run(ctx, cfg.Server.Addr)
}

// background is used by commands that have no cobra context.
func background(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}
