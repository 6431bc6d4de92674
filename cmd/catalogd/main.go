// Command catalogd wires the catalog core's components together and
// runs its scan/watch lifecycle. It carries no wire protocol: no HTTP
// listener, no CLI surface beyond a config path (spec §1's exclusion
// of the transport and command-line front end — those belong to an
// external collaborator embedding this module).
//
// Grounded on catalog-api/main.go's wiring order (logger, config, db
// connection, migrations, services, graceful shutdown on
// SIGINT/SIGTERM), adapted to this module's components in place of
// gin handlers.
package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"mediacatalog/config"
	"mediacatalog/database"
	"mediacatalog/internal/catalog"
	"mediacatalog/internal/eventbus"
	"mediacatalog/internal/fixup"
	"mediacatalog/internal/ingest"
	"mediacatalog/internal/watch"
	"mediacatalog/models"
)

func main() {
	configPath := flag.String("config", "./catalog.json", "Path to JSON configuration file")
	flag.Parse()

	logger, err := zap.NewProduction()
	if err != nil {
		log.Fatalf("failed to initialize logger: %v", err)
	}
	defer logger.Sync()

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		logger.Fatal("failed to load configuration", zap.Error(err))
	}

	db, err := database.NewConnection(cfg)
	if err != nil {
		logger.Fatal("failed to connect to database", zap.Error(err))
	}
	defer db.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := db.RunMigrations(ctx); err != nil {
		logger.Fatal("failed to run database migrations", zap.Error(err))
	}

	bus := eventbus.New(logger, 256)
	bus.Start()
	defer bus.Stop()

	policy := fixup.Policy{
		CompilationArtist: cfg.Library.CompilationArtist,
		OnlyFirstGenre:    cfg.Library.OnlyFirstGenre,
	}
	store := catalog.New(db, bus, logger, policy)

	registry := ingest.NewRegistry(
		ingest.NewFilesSource(cfg.Library, store, logger),
		ingest.NewRSSSource(cfg.RSS, store, logger),
		ingest.NewITunesSource(cfg.Library, store, logger),
		ingest.NewSpotifySource(store, logger),
	)

	pipeline := ingest.NewPipeline(registry, store, bus, logger, cfg.Library.ScannerConcurrency, 2*time.Second)
	pipeline.Start(ctx)
	defer pipeline.Stop()

	watchStore := watch.NewStore(db)
	watcher, err := watch.New(logger, watchStore, 500*time.Millisecond, 5*time.Second, func(ev watch.Event) {
		handleWatchEvent(pipeline, registry, ev, logger)
	})
	if err != nil {
		logger.Fatal("failed to start filesystem watcher", zap.Error(err))
	}
	for _, dir := range cfg.Library.Directories {
		if err := watcher.AddRecursive(dir); err != nil {
			logger.Warn("failed to watch directory", zap.String("dir", dir), zap.Error(err))
		}
	}
	watcher.Start()
	defer watcher.Stop()

	if err := pipeline.RunScan(ctx, ingest.PhaseInitScan); err != nil {
		logger.Error("initial scan failed", zap.Error(err))
	}

	rescanTicker := time.NewTicker(time.Duration(cfg.RSS.SyncPeriodMinutes) * time.Minute)
	defer rescanTicker.Stop()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	logger.Info("catalog core running", zap.String("db_path", cfg.General.DBPath))

	for {
		select {
		case <-sigCh:
			logger.Info("shutting down")
			cancel()
			return
		case <-rescanTicker.C:
			if err := pipeline.RunScan(ctx, ingest.PhaseRescan); err != nil {
				logger.Error("periodic rescan failed", zap.Error(err))
			}
		case <-ctx.Done():
			return
		}
	}
}

// handleWatchEvent bridges C7's debounced filesystem events to C4's
// on-demand rescan hook (spec §4.8: a correlated event feeds back into
// the files source without a full directory walk).
func handleWatchEvent(pipeline *ingest.Pipeline, registry *ingest.Registry, ev watch.Event, logger *zap.Logger) {
	src := registry.ByScanKind(models.ScanKindFiles)
	if src == nil {
		return
	}
	rescanner, ok := src.(ingest.PathRescanner)
	if !ok {
		return
	}
	pipeline.ExecAsync(func(ctx context.Context) {
		switch ev.Kind {
		case watch.EventCreate, watch.EventWrite, watch.EventRestore:
			if err := rescanner.RescanPath(ctx, ev.Path); err != nil {
				logger.Warn("watch: rescan path failed", zap.String("path", ev.Path), zap.Error(err))
			}
		}
	})
}
