package http

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/priyanshu1258/Hackathon/services/api/config"
	"github.com/priyanshu1258/Hackathon/services/api/metrics"
	"github.com/priyanshu1258/Hackathon/services/api/reading"
)

// Reader is the read side of the persistence gateway.
type Reader interface {
	ReadLatestAll(ctx context.Context) (map[reading.Category]map[reading.Building]reading.Snapshot, error)
	ReadLatest(ctx context.Context, c reading.Category) (map[reading.Building]reading.Snapshot, error)
	ReadRecent(ctx context.Context, c reading.Category, b reading.Building, limit int) ([]reading.Entry, error)
}

// Server bundles router and dependencies for the REST API.
type Server struct {
	cfg    config.Config
	store  Reader
	push   http.Handler
	log    *slog.Logger
	engine *gin.Engine
}

// New constructs a server with routes and middleware. push serves the
// websocket channel and may be nil.
func New(cfg config.Config, store Reader, push http.Handler, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.StoreTimeout <= 0 {
		cfg.StoreTimeout = 5 * time.Second
	}

	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()
	engine.Use(gin.Recovery())
	engine.Use(gin.Logger())
	engine.Use(corsMiddleware())
	engine.Use(metricsMiddleware())

	server := &Server{cfg: cfg, store: store, push: push, log: logger, engine: engine}
	server.registerRoutes()
	return server
}

// Engine exposes the underlying gin engine (for tests).
func (s *Server) Engine() *gin.Engine {
	return s.engine
}

// Run starts the HTTP server and blocks until shutdown.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.cfg.ListenAddr(),
		Handler:           s.engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}

func (s *Server) registerRoutes() {
	s.engine.GET("/", s.handleIndex)
	s.engine.GET("/metrics", gin.WrapH(promhttp.Handler()))
	if s.push != nil {
		s.engine.GET("/ws", gin.WrapH(s.push))
	}
	s.registerAPIRoutes()
}

func (s *Server) handleIndex(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"message": "Campus resource monitor API",
		"endpoints": gin.H{
			"latest":           "/api/latest",
			"latestByCategory": "/api/latest/:category",
			"readings":         "/api/readings/:category/:building?limit=50",
			"health":           "/api/health",
			"ws":               "/ws",
			"metrics":          "/metrics",
		},
	})
}

func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}

// metricsMiddleware labels requests by route template so path parameters
// do not explode the series count.
func metricsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		metrics.ObserveHTTPRequest(c.FullPath(), c.Request.Method, c.Writer.Status(), time.Since(start))
	}
}

func (s *Server) fail(c *gin.Context, op string, err error) {
	s.log.Error("query failed", "op", op, "path", c.Request.URL.Path, "err", err)
	c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch data"})
}

func parseLimit(raw string, def, max int) (int, bool) {
	if raw == "" {
		return def, true
	}
	limit, err := strconv.Atoi(raw)
	if err != nil || limit <= 0 {
		return 0, false
	}
	if limit > max {
		limit = max
	}
	return limit, true
}
