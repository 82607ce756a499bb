package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"cardiai/artifacts"
	"cardiai/config"
	"cardiai/db"
	qhttp "cardiai/http"
	"cardiai/logging"
	"cardiai/monitoring"
	"cardiai/pipeline"
	"cardiai/predictor"
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to the YAML config file")
	flag.Parse()

	// 1. Load config
	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger, err := logging.New(cfg.Log)
	if err != nil {
		log.Fatalf("Failed to build logger: %v", err)
	}
	defer logger.Sync()

	// 2. Load artifacts; any failure aborts startup
	source, dirSource, closeSource := openSource(cfg, logger)
	defer closeSource()

	set, err := artifacts.Load(source, logger)
	if err != nil {
		logger.Fatal("failed to load artifacts", zap.Error(err))
	}

	assembler, err := pipeline.NewAssembler(set.Schema())
	if err != nil {
		logger.Fatal("failed to build feature assembler", zap.Error(err))
	}
	if err := assembler.Check(); err != nil {
		logger.Error("artifacts are inconsistent; requests will fail with SchemaMismatch", zap.Error(err))
	}

	service := predictor.NewService(set, assembler, logger, monitoring.NewPredictionMetrics())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if cfg.Artifacts.Watch && dirSource != nil {
		watcher, err := artifacts.NewWatcher(dirSource, logger, nil)
		if err != nil {
			logger.Warn("artifact watcher disabled", zap.Error(err))
		} else {
			go watcher.Run(ctx)
		}
	}

	// 3. Start HTTP server
	server, err := qhttp.NewServer(cfg.Http, service, logger)
	if err != nil {
		logger.Fatal("failed to build HTTP server", zap.Error(err))
	}
	go func() {
		if err := server.Start(); err != nil {
			logger.Fatal("HTTP server failed", zap.Error(err))
		}
	}()

	// 4. Handle graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("shutting down")
	cancel()

	if err := server.Stop(); err != nil {
		logger.Error("server forced to shutdown", zap.Error(err))
	}

	logger.Info("exiting")
}

// openSource returns the configured artifact source. dirSource is nil for
// the SQLite registry, which has nothing to watch.
func openSource(cfg *config.Config, logger *zap.Logger) (artifacts.Source, *artifacts.DirSource, func()) {
	switch cfg.Artifacts.Source {
	case config.SourceSQLite:
		registry, err := db.OpenRegistry(cfg.Artifacts.RegistryPath)
		if err != nil {
			logger.Fatal("failed to open artifact registry",
				zap.String("path", cfg.Artifacts.RegistryPath),
				zap.Error(err),
			)
		}
		return artifacts.NewRegistrySource(registry, cfg.Artifacts.RegistryPath), nil, func() { registry.Close() }
	default:
		dir := artifacts.NewDirSource(cfg.Artifacts.Dir, cfg.Artifacts.Files)
		return dir, dir, func() {}
	}
}
