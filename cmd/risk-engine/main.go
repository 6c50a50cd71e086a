package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/rzzdr/var-engine/config"
	"github.com/rzzdr/var-engine/internal/kafka"
	"github.com/rzzdr/var-engine/internal/risk"
	"github.com/rzzdr/var-engine/internal/store"
	"github.com/rzzdr/var-engine/internal/worker"
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
	log := logger.GetLogger("risk-engine.main")
	log.Infow("starting var engine worker", "app", cfg.App.Name)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	recorder := metrics.NewRecorder()

	datasets, err := store.NewDatasetStore(cfg.Data)
	if err != nil {
		log.Fatalf("failed to create dataset store: %v", err)
	}

	client := kafka.NewClient(cfg.Kafka)
	consumer := client.NewConsumer(cfg.Kafka.Topics.VaRRequests)
	defer consumer.Close()
	producer := client.NewProducer(cfg.Kafka.Topics.VaRResults)
	defer producer.Close()

	engine := risk.NewEngine(cfg.Risk)
	w := worker.New(engine, datasets, consumer, producer, recorder)

	if cfg.Metrics.Prometheus.Enabled {
		go serveMetrics(cfg.Metrics.Prometheus.Port, log)
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- w.Run(ctx)
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		log.Infow("shutdown signal received", "signal", sig.String())
		cancel()
		<-errCh
	case err := <-errCh:
		if err != nil && err != context.Canceled {
			log.Errorf("worker failed: %v", err)
		}
	}

	log.Info("risk engine stopped")
}

func serveMetrics(port int, log *logger.Logger) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())

	addr := fmt.Sprintf(":%d", port)
	log.Infow("serving metrics", "addr", addr)
	if err := http.ListenAndServe(addr, mux); err != nil {
		log.Errorf("metrics server failed: %v", err)
	}
}
