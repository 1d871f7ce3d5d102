package main

import (
	"context"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/victorivanov/chatsync/internal/api"
	"github.com/victorivanov/chatsync/internal/config"
	"github.com/victorivanov/chatsync/internal/consistency"
	"github.com/victorivanov/chatsync/internal/database"
	"github.com/victorivanov/chatsync/internal/gateway"
	redisclient "github.com/victorivanov/chatsync/internal/redis"
	"github.com/victorivanov/chatsync/internal/snowflake"
)

func main() {
	cfg := config.Load()
	ctx := context.Background()

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.LogLevel}))
	slog.SetDefault(logger)

	// --- Infrastructure ---

	pool, err := database.NewPostgresPool(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("postgres: %v", err)
	}
	defer pool.Close()

	rdb, err := redisclient.NewClient(cfg.RedisURL)
	if err != nil {
		log.Fatalf("redis: %v", err)
	}
	defer rdb.Close()

	sf, err := snowflake.NewGenerator(1, 1)
	if err != nil {
		log.Fatalf("snowflake: %v", err)
	}

	// --- Repositories ---

	channels := database.NewChannelRepository(pool)
	messages := database.NewMessageRepository(pool)
	aggregates := database.NewAggregateRepository(pool)

	// --- Engine and gateway ---

	engine := consistency.NewEngine(channels, aggregates, rdb, logger)
	gwManager := gateway.NewManager(rdb, logger)

	// --- Handlers ---

	deps := &api.Dependencies{
		Channels:    api.NewChannelHandler(channels, sf),
		Messages:    api.NewMessageHandler(messages, channels),
		Consistency: api.NewConsistencyHandler(engine),
		Gateway:     gwManager,
	}

	// --- Echo ---

	e := echo.New()
	e.HidePort = true
	e.HideBanner = true
	e.Use(middleware.Logger())
	e.Use(middleware.Recover())

	api.SetupRouter(e, deps)

	// --- Start ---

	sigCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		if err := gwManager.Run(sigCtx); err != nil && err != context.Canceled {
			logger.Error("gateway fan-out stopped", "error", err)
		}
	}()

	go runConsistencyLoop(sigCtx, engine, cfg.ConsistencyInterval, logger)

	go func() {
		log.Printf("chatsync starting on %s", cfg.ServerAddr)
		if err := e.Start(cfg.ServerAddr); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server error: %v", err)
		}
	}()

	<-sigCtx.Done()
	log.Println("shutting down...")
	if err := e.Shutdown(context.Background()); err != nil {
		log.Fatalf("shutdown error: %v", err)
	}
}

// runConsistencyLoop reconciles once at startup and then on every tick
// until the context is cancelled.
func runConsistencyLoop(ctx context.Context, engine *consistency.Engine, interval time.Duration, logger *slog.Logger) {
	runOnce := func() {
		deltas, err := engine.EnsureConsistency(ctx)
		if err != nil {
			logger.Error("consistency pass failed", "error", err)
			return
		}
		if len(deltas) > 0 {
			logger.Info("consistency pass corrected counters", "channels", len(deltas))
		}
	}

	runOnce()

	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			runOnce()
		}
	}
}
