package main

import (
	"context"
	"database/sql"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
	goredis "github.com/redis/go-redis/v9"

	"github.com/ocx/rmos/internal/config"
	"github.com/ocx/rmos/internal/events"
	"github.com/ocx/rmos/internal/feasibility"
	"github.com/ocx/rmos/internal/httpapi"
	"github.com/ocx/rmos/internal/kernel"
	"github.com/ocx/rmos/internal/registry"
	"github.com/ocx/rmos/internal/store"
	"github.com/ocx/rmos/internal/workflow"
)

func main() {
	if err := godotenv.Load(); err != nil {
		slog.Info("no .env file found, relying on process environment")
	}

	cfg := config.Get()

	reg, err := loadRegistry(cfg)
	if err != nil {
		if cfg.Server.StrictStartup {
			log.Fatalf("registry load failed: %v", err)
		}
		slog.Warn("registry load failed, starting with empty registry", "error", err)
		reg, _ = registry.NewFromEntries(nil, nil, nil)
	}
	slog.Info("registry loaded", "snapshot_hash", reg.SnapshotHash())

	engine := feasibility.NewEngine(reg)

	runs, err := store.New(cfg.Store.ArtifactsRoot)
	if err != nil {
		log.Fatalf("run artifact store init failed: %v", err)
	}

	db, err := sql.Open("postgres", cfg.Workflow.DatabaseDSN)
	if err != nil {
		log.Fatalf("workflow database connection failed: %v", err)
	}
	defer db.Close()

	workflowStore := workflow.NewStore(db)
	if err := workflowStore.EnsureSchema(); err != nil {
		log.Fatalf("workflow schema migration failed: %v", err)
	}
	overrides := workflow.NewOverrideIssuer(cfg.Security.OverrideHMACSecret, time.Duration(cfg.Workflow.OverrideTokenTTLSec)*time.Second)
	machine := workflow.NewMachine(workflowStore, overrides)

	pool := kernel.NewWorkerPool(4)

	var metrics *httpapi.Metrics
	if cfg.Metrics.Enabled {
		metrics = httpapi.NewMetrics()
	}

	runEvents := buildRunEvents(cfg)

	server := httpapi.NewServer(reg, engine, runs, machine, pool, metrics, runEvents)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	slog.Info("rmos-server starting", "port", cfg.Server.Port, "env", cfg.Server.Env)
	if err := server.Run(ctx, ":"+cfg.Server.Port); err != nil {
		log.Fatalf("server failed: %v", err)
	}
	slog.Info("rmos-server stopped")
}

func loadRegistry(cfg *config.Config) (*registry.Registry, error) {
	return registry.Load(cfg.Registry.CatalogPath)
}

func buildRunEvents(cfg *config.Config) *httpapi.RunEventEmitter {
	if !cfg.Redis.Enabled {
		return httpapi.NewRunEventEmitter(events.NewEventBus())
	}
	client := goredis.NewClient(&goredis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	bus := httpapi.NewRedisRunEventBus(client, cfg.Redis.EventChannelPrefix)
	return httpapi.NewRunEventEmitter(bus)
}
