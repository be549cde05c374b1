package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"go.uber.org/multierr"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/kubev2v/priority-scheduler/internal/config"
	"github.com/kubev2v/priority-scheduler/internal/handlers"
	"github.com/kubev2v/priority-scheduler/internal/hub"
	"github.com/kubev2v/priority-scheduler/internal/metrics"
	"github.com/kubev2v/priority-scheduler/internal/server"
	"github.com/kubev2v/priority-scheduler/internal/services"
	"github.com/kubev2v/priority-scheduler/pkg/scheduler"
)

const schedulerName = "default"

func NewRunCommand(cfg *config.Configuration) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Serve the websocket endpoints backed by the priority scheduler",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return run(ctx, cfg)
		},
	}

	registerRunFlags(cmd.Flags(), cfg)
	return cmd
}

func registerRunFlags(flags *pflag.FlagSet, cfg *config.Configuration) {
	flags.StringVar(&cfg.Server.ServerMode, "server-mode", cfg.Server.ServerMode, "Server mode: dev or prod")
	flags.IntVar(&cfg.Server.HTTPPort, "http-port", cfg.Server.HTTPPort, "HTTP listen port")
	flags.DurationVar(&cfg.Server.ShutdownTimeout, "shutdown-timeout", cfg.Server.ShutdownTimeout, "Bound on graceful HTTP shutdown")

	flags.StringVar(&cfg.Scheduler.Mode, "mode", cfg.Scheduler.Mode, "Scheduler mode: worker-pool or async-dispatch")
	flags.IntVar(&cfg.Scheduler.Workers, "workers", cfg.Scheduler.Workers, "Number of workers in worker-pool mode")
	flags.DurationVar(&cfg.Scheduler.StopTimeout, "stop-timeout", cfg.Scheduler.StopTimeout, "Bound on draining queued tasks at shutdown")

	flags.IntVar(&cfg.Hub.EchoPriority, "echo-priority", cfg.Hub.EchoPriority, "Priority of echo replies")
	flags.IntVar(&cfg.Hub.BroadcastPriority, "broadcast-priority", cfg.Hub.BroadcastPriority, "Priority of chat broadcasts")
	flags.Int64Var(&cfg.Hub.MaxMessageSize, "max-message-size", cfg.Hub.MaxMessageSize, "Maximum websocket message size in bytes")
	flags.DurationVar(&cfg.Hub.WriteTimeout, "write-timeout", cfg.Hub.WriteTimeout, "Bound on a single websocket write")
}

func run(ctx context.Context, cfg *config.Configuration) error {
	if err := cfg.Validate(); err != nil {
		return err
	}

	log := zap.S().Named("run")
	log.Infow("configuration loaded", "config", cfg.DebugMap())

	mode, err := scheduler.ParseMode(cfg.Scheduler.Mode)
	if err != nil {
		return err
	}

	exporter, err := metrics.NewExporter("", schedulerName, nil)
	if err != nil {
		return fmt.Errorf("failed to register metrics: %w", err)
	}

	sched, err := scheduler.New(
		scheduler.WithName(schedulerName),
		scheduler.WithMode(mode),
		scheduler.WithWorkers(cfg.Scheduler.Workers),
		scheduler.WithObserver(exporter),
	)
	if err != nil {
		return err
	}
	if err := exporter.Watch(sched); err != nil {
		return fmt.Errorf("failed to register scheduler gauges: %w", err)
	}
	defer exporter.Unwatch()

	chatRegistry := hub.NewRegistry(hub.WithWriteTimeout(cfg.Hub.WriteTimeout))
	echoRegistry := hub.NewRegistry(hub.WithWriteTimeout(cfg.Hub.WriteTimeout))
	h := handlers.New(
		services.NewEchoService(sched, echoRegistry, cfg.Hub.EchoPriority),
		services.NewChatService(sched, chatRegistry, cfg.Hub.BroadcastPriority),
		services.NewStatusService(sched, chatRegistry, echoRegistry),
		cfg.Hub.MaxMessageSize,
	)

	srv, err := server.NewServer(cfg, h.RegisterRoutes)
	if err != nil {
		return fmt.Errorf("failed to create http server: %w", err)
	}

	if err := sched.Start(); err != nil {
		return err
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		if err := srv.Start(gctx); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server failed: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		log.Info("shutting down")
		return shutdown(cfg, srv, sched, chatRegistry, echoRegistry)
	})

	if err := g.Wait(); err != nil {
		log.Errorw("shutdown finished with errors", "error", err)
		return err
	}

	log.Info("shutdown complete")
	return nil
}

// shutdown stops accepting connections, drains the scheduler and then closes
// the remaining clients. Queued replies are still delivered while draining.
func shutdown(cfg *config.Configuration, srv *server.Server, sched *scheduler.Scheduler, registries ...*hub.Registry) error {
	var errs error

	httpCtx, cancelHTTP := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancelHTTP()
	if err := srv.Stop(httpCtx); err != nil {
		errs = multierr.Append(errs, fmt.Errorf("failed to stop http server: %w", err))
	}

	stopCtx, cancelStop := context.WithTimeout(context.Background(), cfg.Scheduler.StopTimeout)
	defer cancelStop()
	if err := sched.Shutdown(stopCtx); err != nil {
		errs = multierr.Append(errs, fmt.Errorf("scheduler did not drain within %s: %w", cfg.Scheduler.StopTimeout, err))
	}

	for _, registry := range registries {
		if err := registry.CloseAll(); err != nil {
			errs = multierr.Append(errs, fmt.Errorf("failed to close clients: %w", err))
		}
	}

	return errs
}
