package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/udisondev/la2go/internal/bus"
	"github.com/udisondev/la2go/internal/combat"
	"github.com/udisondev/la2go/internal/command"
	"github.com/udisondev/la2go/internal/config"
	"github.com/udisondev/la2go/internal/constants"
	"github.com/udisondev/la2go/internal/registry"
	"github.com/udisondev/la2go/internal/store"
	"github.com/udisondev/la2go/internal/worldmgr"
)

const ConfigPath = "config/zoneserver.yaml"

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		slog.Info("shutting down", "signal", sig)
		cancel()
	}()

	if err := run(ctx); err != nil {
		slog.Error("fatal", "err", err)
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	cfgPath := ConfigPath
	if p := os.Getenv("LA2GO_ZONE_CONFIG"); p != "" {
		cfgPath = p
	}
	cfg, err := config.LoadZoneServer(cfgPath)
	if err != nil {
		return fmt.Errorf("loading zone server config: %w", err)
	}

	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: parseLogLevel(cfg.LogLevel),
	})))

	if cfg.ServerID == "" {
		return fmt.Errorf("SERVER_ID must be set")
	}
	if cfg.TickRate <= 0 {
		cfg.TickRate = constants.DefaultTickRateZone
	}

	slog.Info("zone server starting",
		"server_id", cfg.ServerID, "tick_rate", cfg.TickRate, "assigned_zones", cfg.AssignedZones)

	if err := store.Migrate(ctx, cfg.Database.DSN()); err != nil {
		return fmt.Errorf("running migrations: %w", err)
	}
	slog.Info("database migrations applied")

	pg, err := store.Open(ctx, cfg.Database.DSN())
	if err != nil {
		return fmt.Errorf("connecting to database: %w", err)
	}
	defer pg.Close()
	slog.Info("database connected")

	b, err := bus.NewRedisBus(ctx, cfg.Bus.URL)
	if err != nil {
		return fmt.Errorf("connecting to bus: %w", err)
	}
	defer b.Close()
	slog.Info("bus connected", "url", cfg.Bus.URL)

	reg := registry.New(b, cfg.ServerID, cfg.ServerID)
	reg.StartHeartbeat(ctx, cfg.HeartbeatEvery, cfg.HeartbeatTTL)
	defer reg.StopHeartbeat()

	catalog := combat.NewCatalog(pg.Abilities())

	cmdRegistry := command.NewRegistry()
	if err := command.RegisterBuiltins(cmdRegistry); err != nil {
		return fmt.Errorf("registering builtin commands: %w", err)
	}
	executor := command.NewExecutor(cmdRegistry, b)

	mgr := worldmgr.New(b, reg, pg, catalog, executor, cfg.TickRate)
	if err := mgr.Start(ctx, cfg.AssignedZones); err != nil {
		return fmt.Errorf("starting world manager: %w", err)
	}
	slog.Info("world manager started", "zones", cfg.AssignedZones)

	<-ctx.Done()

	shutdownCtx := context.Background()
	mgr.Stop(shutdownCtx)
	reg.UnassignAll(shutdownCtx)

	return nil
}

// parseLogLevel converts string log level to slog.Level.
// Defaults to Info if invalid or empty.
func parseLogLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
