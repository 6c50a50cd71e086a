package api

import (
	"context"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/rzzdr/var-engine/config"
	"github.com/rzzdr/var-engine/internal/risk"
	"github.com/rzzdr/var-engine/internal/store"
	"github.com/rzzdr/var-engine/internal/websocket"
	"github.com/rzzdr/var-engine/pkg/metrics"
	"github.com/rzzdr/var-engine/pkg/utils/logger"
)

// Server is the HTTP surface of the risk engine.
type Server struct {
	cfg      config.APIConfig
	engine   *risk.Engine
	greeks   *risk.GreeksService
	datasets *store.DatasetStore
	hub      *websocket.Hub
	recorder *metrics.Recorder
	router   *gin.Engine
	srv      *http.Server
	log      *logger.Logger
}

// NewServer wires the HTTP server. The hub must already be running.
func NewServer(cfg config.APIConfig, engine *risk.Engine, greeks *risk.GreeksService, datasets *store.DatasetStore, hub *websocket.Hub, recorder *metrics.Recorder) *Server {
	s := &Server{
		cfg:      cfg,
		engine:   engine,
		greeks:   greeks,
		datasets: datasets,
		hub:      hub,
		recorder: recorder,
		router:   gin.New(),
		log:      logger.GetLogger("api.server"),
	}
	s.setupRoutes()

	s.srv = &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Handler:      s.router,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}
	return s
}

func (s *Server) setupRoutes() {
	s.router.Use(LoggingMiddleware())
	s.router.Use(MetricsMiddleware(s.recorder))
	s.router.Use(RecoveryMiddleware())
	s.router.Use(CORSMiddleware(s.cfg.CORS))

	s.router.GET("/health", s.handleHealth)
	s.router.GET("/metrics", gin.WrapH(promhttp.Handler()))
	s.router.GET("/ws", func(c *gin.Context) {
		s.hub.HandleWebSocket(c.Writer, c.Request)
	})

	v1 := s.router.Group("/api/v1")

	v1.POST("/var/:model/calculate", s.handleCalculateVaR)
	v1.POST("/greeks/report", s.handleGreeksReport)

	datasets := v1.Group("/datasets")
	datasets.GET("", s.handleListDatasets)
	datasets.POST("", s.handleUploadDataset)
	datasets.GET("/:name", s.handleGetDataset)
	datasets.DELETE("/:name", s.handleDeleteDataset)
}

// Start serves until the listener fails or Shutdown is called.
func (s *Server) Start() error {
	s.log.Infow("starting api server", "addr", s.srv.Addr)
	if err := s.srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Shutdown drains in-flight requests.
func (s *Server) Shutdown(ctx context.Context) error {
	s.log.Info("shutting down api server")
	return s.srv.Shutdown(ctx)
}

// Router exposes the handler for tests.
func (s *Server) Router() http.Handler {
	return s.router
}
