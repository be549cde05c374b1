package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	ginzap "github.com/gin-contrib/zap"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	v1 "github.com/kubev2v/priority-scheduler/api/v1"
	"github.com/kubev2v/priority-scheduler/internal/config"
)

const (
	serverModeProd = "prod"
	metricsPath    = "/metrics"
)

type Server struct {
	srv    *http.Server
	engine *gin.Engine
}

// NewServer builds the HTTP server. registerHandlerFn receives the root router
// group; /metrics and the JSON 404 fallback are mounted by the server itself.
func NewServer(cfg *config.Configuration, registerHandlerFn func(router *gin.RouterGroup)) (*Server, error) {
	if cfg == nil {
		return nil, errors.New("configuration is nil")
	}
	if registerHandlerFn == nil {
		return nil, errors.New("handler registration function is nil")
	}

	if cfg.Server.ServerMode == serverModeProd {
		gin.SetMode(gin.ReleaseMode)
	}

	engine := gin.New()
	engine.Use(
		ginzap.Ginzap(zap.L(), time.RFC3339, true),
		ginzap.RecoveryWithZap(zap.L(), true),
	)

	engine.GET(metricsPath, gin.WrapH(promhttp.Handler()))
	registerHandlerFn(&engine.RouterGroup)

	engine.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, v1.ErrorResponse{Error: "not found"})
	})

	return &Server{
		engine: engine,
		srv: &http.Server{
			Addr:              fmt.Sprintf(":%d", cfg.Server.HTTPPort),
			Handler:           engine,
			ReadHeaderTimeout: 10 * time.Second,
		},
	}, nil
}

// Handler returns the router, for serving through another listener.
func (s *Server) Handler() http.Handler {
	return s.engine
}

// Start blocks serving requests until Stop is called or the listener fails.
// It returns http.ErrServerClosed after a graceful stop.
func (s *Server) Start(ctx context.Context) error {
	s.srv.BaseContext = func(net.Listener) context.Context { return ctx }

	zap.S().Named("server").Infow("http server listening", "addr", s.srv.Addr)
	return s.srv.ListenAndServe()
}

// Stop waits for in-flight requests until ctx ends. Hijacked websocket
// connections are not tracked and must be closed by their owners.
func (s *Server) Stop(ctx context.Context) error {
	zap.S().Named("server").Info("stopping http server")
	return s.srv.Shutdown(ctx)
}
