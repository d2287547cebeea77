// Package api serves the read/query HTTP surface over the trade and
// fundamental repositories.
package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"fxbot/internal/logger"
	"fxbot/internal/market"
	"fxbot/internal/trader"
)

// ServerConfig describes the HTTP server dependencies.
type ServerConfig struct {
	Addr   string
	Runner trader.ScopeRunner
	// Running reports whether the event bus loop is alive.
	Running func() bool
	Cache   *market.CandleCache
}

type Server struct {
	addr   string
	router *gin.Engine
}

func NewServer(cfg ServerConfig) (*Server, error) {
	if cfg.Runner == nil {
		return nil, errors.New("http server requires a scope runner")
	}
	if cfg.Addr == "" {
		cfg.Addr = ":8080"
	}
	if cfg.Running == nil {
		cfg.Running = func() bool { return false }
	}
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery(), requestLogger())

	router.GET("/healthz", func(c *gin.Context) {
		running := cfg.Running()
		status := http.StatusOK
		if !running {
			status = http.StatusServiceUnavailable
		}
		c.JSON(status, gin.H{"status": statusText(running), "bus_running": running})
	})
	NewRouter(cfg.Runner, cfg.Cache).Register(router.Group("/api"))
	return &Server{addr: cfg.Addr, router: router}, nil
}

func statusText(running bool) string {
	if running {
		return "ok"
	}
	return "degraded"
}

func requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		if q := c.Request.URL.RawQuery; q != "" {
			path += "?" + q
		}
		c.Next()
		logger.Debugf("HTTP %s %s status=%d ip=%s dur=%s", c.Request.Method, path, c.Writer.Status(), c.ClientIP(), time.Since(start))
	}
}

// Handler exposes the router for tests and embedding.
func (s *Server) Handler() http.Handler { return s.router }

func (s *Server) Addr() string {
	if s == nil {
		return ""
	}
	return s.addr
}

// Start serves until ctx is cancelled or the listener fails.
func (s *Server) Start(ctx context.Context) error {
	if s == nil {
		return nil
	}
	srv := &http.Server{Addr: s.addr, Handler: s.router, ReadHeaderTimeout: 10 * time.Second}
	errCh := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()
	logger.Infof("http: listening on %s", s.addr)

	select {
	case <-ctx.Done():
		shCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shCtx)
		return nil
	case err := <-errCh:
		return err
	}
}
