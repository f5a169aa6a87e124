package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/c360studio/semcite/config"
	"github.com/c360studio/semcite/service"
)

const shutdownTimeout = 10 * time.Second

// serveCmd runs the HTTP resolution service.
func serveCmd() *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP resolution service",
		Long: `Serve exposes CURIE resolution over HTTP:

  GET /resolve?curie=doi:10.1038/nbt1156
  GET /inspect?curie=clinicaltrials:NCT04280705
  GET /healthz
  GET /metrics

With nats configured, every successful resolution is published as an
event. With server.watch_snapshot enabled, the resolver is rebuilt when
the registry snapshot file changes on disk.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			if addr != "" {
				cfg.Server.Addr = addr
			}
			return runServe(cmd.Context(), cfg)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "Listen address (overrides server.addr)")
	return cmd
}

func runServe(ctx context.Context, cfg *config.Config) error {
	logger := slog.Default()

	handler, _, err := buildHandler(ctx, cfg)
	if err != nil {
		return fmt.Errorf("load registry: %w", err)
	}

	events, cleanup, err := setupEvents(cfg, logger)
	if err != nil {
		return err
	}
	defer cleanup()

	srv := service.NewServer(handler, service.NewMetrics(), events, logger)
	mux := http.NewServeMux()
	srv.RegisterHTTPHandlers(mux)

	signalCtx, signalCancel := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer signalCancel()

	if cfg.Server.WatchSnapshot && cfg.Registry.SnapshotPath != "" {
		watcher, err := service.NewSnapshotWatcher(
			cfg.Registry.SnapshotPath,
			cfg.Registry.CompilePatterns,
			srv.Swap,
			logger,
		)
		if err != nil {
			return fmt.Errorf("create snapshot watcher: %w", err)
		}
		if err := watcher.Start(signalCtx); err != nil {
			return fmt.Errorf("start snapshot watcher: %w", err)
		}
		defer watcher.Stop()
	}

	httpServer := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("Resolution service listening",
			"addr", cfg.Server.Addr,
			"prefixes", handler.Index().Len())
		errCh <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("serve: %w", err)
		}
	case <-signalCtx.Done():
		logger.Info("Received shutdown signal")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("Error shutting down HTTP server", "error", err)
	}

	logger.Info("Resolution service stopped")
	return nil
}

// setupEvents builds the resolution-event publisher, starting an
// embedded NATS server when configured. The returned cleanup is always
// safe to call.
func setupEvents(cfg *config.Config, logger *slog.Logger) (*service.EventPublisher, func(), error) {
	cleanup := func() {}

	url := cfg.NATS.URL
	if cfg.NATS.Embedded {
		ns, clientURL, err := service.StartEmbeddedNATS(5 * time.Second)
		if err != nil {
			return nil, cleanup, fmt.Errorf("start embedded NATS: %w", err)
		}
		logger.Info("Embedded NATS server started", "url", clientURL)
		url = clientURL
		cleanup = func() {
			ns.Shutdown()
			ns.WaitForShutdown()
		}
	}

	events, err := service.NewEventPublisher(url, cfg.NATS.SubjectPrefix, logger)
	if err != nil {
		cleanup()
		return nil, func() {}, err
	}

	prev := cleanup
	cleanup = func() {
		events.Close()
		prev()
	}
	return events, cleanup, nil
}
