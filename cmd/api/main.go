package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"github.com/rzzdr/var-engine/config"
	"github.com/rzzdr/var-engine/internal/risk"
	"github.com/rzzdr/var-engine/internal/store"
	"github.com/rzzdr/var-engine/internal/websocket"
	"github.com/rzzdr/var-engine/pkg/api"
	"github.com/rzzdr/var-engine/pkg/metrics"
	"github.com/rzzdr/var-engine/pkg/utils/logger"
)

func main() {
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		os.Stderr.WriteString("failed to load configuration: " + err.Error() + "\n")
		os.Exit(1)
	}

	logger.Init(cfg.App.LogLevel, cfg.App.Environment)
	log := logger.GetLogger("api.main")
	log.Infow("starting var engine api", "app", cfg.App.Name)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	recorder := metrics.NewRecorder()

	datasets, err := store.NewDatasetStore(cfg.Data)
	if err != nil {
		log.Fatalf("failed to create dataset store: %v", err)
	}

	hub := websocket.NewHub()
	go hub.Run(ctx)

	engine := risk.NewEngine(cfg.Risk)
	greeks := risk.NewGreeksService()

	server := api.NewServer(cfg.API, engine, greeks, datasets, hub, recorder)

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Start()
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		log.Infow("shutdown signal received", "signal", sig.String())
	case err := <-errCh:
		if err != nil {
			log.Errorf("server failed: %v", err)
		}
	}
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.API.ShutdownTimeout)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Errorf("shutdown failed: %v", err)
	}

	log.Info("api server stopped")
}
