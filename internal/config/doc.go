// Package config defines the configuration structure for the priority-scheduler.
//
// Configuration is organized into logical sections (Server, Scheduler, Hub)
// plus logging settings. Defaults are declared with `default` struct tags and
// applied by github.com/creasty/defaults; the CLI overrides them from flags and
// PRIORITY_SCHEDULER_* environment variables through viper.
//
// # Configuration Structure
//
//	Configuration
//	├── Server         - HTTP server settings
//	├── Scheduler      - Execution mode and worker pool size
//	├── Hub            - Websocket message priorities and limits
//	├── LogFormat      - Logging format
//	└── LogLevel       - Logging verbosity
//
// # Server Configuration
//
//	┌──────────────────┬─────────┬────────────────────────────────────────┐
//	│ Field            │ Default │ Description                            │
//	├──────────────────┼─────────┼────────────────────────────────────────┤
//	│ ServerMode       │ "dev"   │ Server mode: "prod" or "dev"           │
//	│ HTTPPort         │ 8080    │ HTTP server listen port                │
//	│ ShutdownTimeout  │ 10s     │ Graceful HTTP shutdown bound           │
//	└──────────────────┴─────────┴────────────────────────────────────────┘
//
// # Scheduler Configuration
//
//	┌─────────────┬───────────────┬──────────────────────────────────────────┐
//	│ Field       │ Default       │ Description                              │
//	├─────────────┼───────────────┼──────────────────────────────────────────┤
//	│ Mode        │ "worker-pool" │ "worker-pool" or "async-dispatch"        │
//	│ Workers     │ 4             │ Worker count (worker-pool mode only)     │
//	│ StopTimeout │ 30s           │ Bound on draining queued tasks at exit   │
//	└─────────────┴───────────────┴──────────────────────────────────────────┘
//
// # Hub Configuration
//
//	┌───────────────────┬─────────┬────────────────────────────────────────┐
//	│ Field             │ Default │ Description                            │
//	├───────────────────┼─────────┼────────────────────────────────────────┤
//	│ EchoPriority      │ 1       │ Priority of echo replies               │
//	│ BroadcastPriority │ 5       │ Priority of chat broadcasts            │
//	│ MaxMessageSize    │ 65536   │ Websocket read limit in bytes          │
//	│ WriteTimeout      │ 10s     │ Bound on a single write to a client    │
//	└───────────────────┴─────────┴────────────────────────────────────────┘
//
// # Usage Example
//
//	cfg := config.NewConfigurationWithOptionsAndDefaults(
//	    config.WithScheduler(config.Scheduler{
//	        Mode:    "async-dispatch",
//	        Workers: 1,
//	    }),
//	    config.WithLogLevel("info"),
//	)
//	if err := cfg.Validate(); err != nil {
//	    return err
//	}
//
// # Debug Logging
//
// DebugMap flattens every field tagged `debugmap:"visible"` into kebab-cased
// keys such as "server.http-port"; fields tagged "sensitive" are masked.
//
//	zap.S().Infow("configuration loaded", "config", cfg.DebugMap())
package config
