// Package server provides the HTTP server for the priority-scheduler.
//
// The server uses the Gin web framework. It serves the websocket endpoints,
// the JSON status API and the Prometheus exposition endpoint on one port.
//
// # Architecture Overview
//
//	┌───────────────────────────────────────────────────────────────┐
//	│                         HTTP Server                           │
//	│                         :HTTPPort                             │
//	├───────────────────────────────────────────────────────────────┤
//	│                       Middleware Stack                        │
//	│  ┌─────────────────────────────────────────────────────────┐  │
//	│  │  Logger   (ginzap.Ginzap, request/response logging)     │  │
//	│  │  Recovery (ginzap.RecoveryWithZap, 500 on panic)        │  │
//	│  └─────────────────────────────────────────────────────────┘  │
//	├───────────────────────────────────────────────────────────────┤
//	│                       Router                                  │
//	│  ┌─────────────────────────────────────────────────────────┐  │
//	│  │  /metrics   promhttp.Handler()                          │  │
//	│  │  Handlers (registered via callback)                     │  │
//	│  │  NoRoute    {"error": "not found"}                      │  │
//	│  └─────────────────────────────────────────────────────────┘  │
//	└───────────────────────────────────────────────────────────────┘
//
// # Server Modes
//
// Development Mode (ServerMode = "dev"):
//   - Gin runs in debug mode and prints registered routes
//
// Production Mode (ServerMode = "prod"):
//   - Gin runs in release mode
//
// # Server Lifecycle
//
// Creation:
//
//	srv, err := server.NewServer(cfg, func(router *gin.RouterGroup) {
//	    handler.RegisterRoutes(router)
//	})
//
// Starting:
//
//	// Blocks until error or shutdown
//	err := srv.Start(ctx)
//
// Stopping:
//
//	srv.Stop(ctx)
//
// Stop performs a graceful shutdown bounded by ctx. Websocket connections are
// hijacked from net/http and are not waited for; the hub closes them.
//
// # Usage Example
//
//	g, ctx := errgroup.WithContext(ctx)
//	g.Go(func() error {
//	    if err := srv.Start(ctx); !errors.Is(err, http.ErrServerClosed) {
//	        return err
//	    }
//	    return nil
//	})
//
//	<-ctx.Done()
//	srv.Stop(shutdownCtx)
package server
