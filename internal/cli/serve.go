package cli

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/Protagonist888/schwab-earnings-batch/internal/api"
	"github.com/Protagonist888/schwab-earnings-batch/internal/kafka"
)

const shutdownTimeout = 10 * time.Second

func newServeCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Serve the read API and metrics, consume refresh requests, and run periodic batches",
		Long: `serve starts the HTTP API on SERVER_HOST:SERVER_PORT. When KAFKA_ENABLED is
set it also consumes refresh requests, and when BATCH_INTERVAL is non-zero
it runs a full batch on that interval.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return app.serve(ctx)
		},
	}
}

func (app *App) serve(ctx context.Context) error {
	cfg := app.Config
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	c, err := app.connect(ctx)
	if err != nil {
		return err
	}
	defer c.Close()

	// Assigned only when present so the handler sees untyped nils
	var runs api.RunReader
	if c.db != nil {
		runs = c.db
	}
	var refresher api.RefreshPublisher
	if c.producer != nil {
		refresher = c.producer
	}

	handler := api.NewHandler(c.store, runs, refresher, app.Metrics, app.Logger)
	server := &http.Server{
		Addr:              cfg.Server.Address(),
		Handler:           api.SetupRoutes(handler, app.Registry),
		ReadHeaderTimeout: 10 * time.Second,
	}

	var wg sync.WaitGroup

	if cfg.Kafka.Enabled {
		consumer := kafka.NewConsumer(cfg.Kafka, c.processor, app.Logger)
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := consumer.Start(ctx); err != nil {
				app.Logger.Error().Err(err).Msg("refresh consumer stopped")
			}
		}()
	}

	if interval := cfg.Batch.Interval; interval > 0 {
		runner := app.runner(c, 0)
		wg.Add(1)
		go func() {
			defer wg.Done()
			app.Logger.Info().Dur("interval", interval).Msg("periodic batch runs enabled")
			runner.Schedule(ctx, interval)
		}()
	}

	serverErr := make(chan error, 1)
	go func() {
		app.Logger.Info().Str("addr", server.Addr).Msg("http server listening")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
		close(serverErr)
	}()

	select {
	case <-ctx.Done():
	case err := <-serverErr:
		if err != nil {
			cancel()
			wg.Wait()
			return err
		}
	}

	app.Logger.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		app.Logger.Error().Err(err).Msg("http server shutdown failed")
	}

	wg.Wait()
	return nil
}
