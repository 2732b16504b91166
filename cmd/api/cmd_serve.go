package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"med-reminder/internal/adapters/storage"
	"med-reminder/internal/domain/adherence"
	"med-reminder/internal/platform/config"
	"med-reminder/internal/platform/logger"
	"med-reminder/internal/router"
	"med-reminder/internal/scheduler"

	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(serveCmd)
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API and the missed-dose sweeper",
	RunE:  runServe,
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	log := logger.NewFromEnv()

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	store, closeStore, err := storage.Open(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer func() {
		if err := closeStore(); err != nil {
			log.Warn("closing store", map[string]any{"error": err})
		}
	}()

	sweeper, err := newSweeper(cfg, store, log)
	if err != nil {
		return err
	}

	var sched *scheduler.Scheduler
	if cfg.Sweeper.Enabled {
		sched = scheduler.New(log)
		if err := sched.Every("missed_dose_sweep", cfg.Sweeper.Interval, sweeper.Run); err != nil {
			return err
		}
		sched.Start()
	} else {
		log.Warn("missed dose sweeper disabled", nil)
	}

	srv := &http.Server{
		Addr: cfg.Addr(),
		Handler: router.NewRouter(router.Options{
			Store:       store,
			Sweeper:     sweeper,
			Logger:      log,
			CORSOrigins: cfg.CORSOrigins,
			Swagger:     cfg.Swagger,
		}),
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 60 * time.Second, // check-missed corre un ciclo completo
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("starting server", map[string]any{
			"addr":     srv.Addr,
			"driver":   cfg.DBDriver,
			"sweeper":  cfg.Sweeper.Enabled,
			"interval": cfg.Sweeper.Interval.String(),
		})
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server error: %w", err)
		}
	case <-ctx.Done():
		log.Info("shutting down", nil)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if sched != nil {
		if err := sched.Stop(shutdownCtx); err != nil {
			log.Warn("scheduler did not stop in time", map[string]any{"error": err})
		}
	}
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}
	return nil
}

func newSweeper(cfg config.Config, store adherence.Store, log logger.Logger) (*adherence.Sweeper, error) {
	loc, err := cfg.Sweeper.Location()
	if err != nil {
		return nil, err
	}
	return adherence.NewSweeper(store, log, adherence.Options{
		Policy: adherence.Policy{
			Grace:  cfg.Sweeper.Grace,
			Window: cfg.Sweeper.Window,
		},
		Location:     loc,
		Workers:      cfg.Sweeper.Workers,
		StoreTimeout: cfg.Sweeper.StoreTimeout,
	}), nil
}
