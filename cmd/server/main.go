package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"er-patient-tracking/internal/client"
	"er-patient-tracking/internal/config"
	"er-patient-tracking/internal/logger"
	"er-patient-tracking/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

const serviceName = "er-patient-tracking"

func main() {
	rootCmd := &cobra.Command{
		Use:   "er-server",
		Short: "Emergency room patient tracking simulator",
	}

	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(seedCmd())
	rootCmd.AddCommand(driveCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the tracking API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer()
		},
	}
}

func seedCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Wipe the store and generate a fresh dataset",
		RunE: func(cmd *cobra.Command, args []string) error {
			count, _ := cmd.Flags().GetInt("count")

			cfg, log, err := setup()
			if err != nil {
				return err
			}
			defer func() { _ = log.Sync() }()

			a, err := newApp(cfg, log)
			if err != nil {
				return err
			}
			defer a.Close()

			stats, _, err := a.simulation.Reset(count)
			if err != nil {
				return fmt.Errorf("seed failed: %w", err)
			}
			fmt.Printf("Seeded %d patients, %d studies, %d events.\n", stats.Patients, stats.Studies, stats.Events)
			return nil
		},
	}
	cmd.Flags().Int("count", service.DefaultDatasetSize, "Number of patients to generate")
	return cmd
}

func driveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "drive",
		Short: "Tick a running server's simulation at its configured pace",
		RunE: func(cmd *cobra.Command, args []string) error {
			url, _ := cmd.Flags().GetString("url")
			interval, _ := cmd.Flags().GetDuration("interval")

			_, log, err := setup()
			if err != nil {
				return err
			}
			defer func() { _ = log.Sync() }()

			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			err = client.NewSimulationClient(url, log).Drive(ctx, interval)
			if errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		},
	}
	cmd.Flags().String("url", "http://localhost:8080", "Base URL of the tracking server")
	cmd.Flags().Duration("interval", 5*time.Second, "Poll interval while the server config is unavailable")
	return cmd
}

// setup loads and validates configuration and builds the logger
func setup() (*config.Config, *zap.Logger, error) {
	cfg := config.LoadConfig()
	if err := cfg.Validate(); err != nil {
		return nil, nil, fmt.Errorf("invalid configuration: %w", err)
	}
	log, err := logger.NewLogger(cfg.Log.Level, cfg.Log.Format, serviceName)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create logger: %w", err)
	}
	return cfg, log, nil
}

func runServer() error {
	// 1. Configuration and logger
	cfg, log, err := setup()
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()

	// 2. Stores, engine and services
	a, err := newApp(cfg, log)
	if err != nil {
		return err
	}
	defer a.Close()

	if seeded, err := a.simulation.SeedIfEmpty(cfg.Simulation.SeedOnStart); err != nil {
		log.Warn("failed to seed store", zap.Error(err))
	} else if seeded {
		log.Info("store seeded on start", zap.Int("patients", cfg.Simulation.SeedOnStart))
	}

	// 3. Background worker
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if cfg.Simulation.ServerTicker {
		go service.NewWorkerService(a.simulation, log).Start(ctx)
	}

	// 4. Router
	gin.SetMode(cfg.Server.GinMode)
	srv := &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           a.Router(cfg),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Info("server starting",
			zap.String("port", cfg.Server.Port),
			zap.String("storage", cfg.Storage.Driver),
			zap.Bool("server_ticker", cfg.Simulation.ServerTicker),
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("failed to start server", zap.Error(err))
		}
	}()

	// 5. Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("shutting down server")

	cancel()
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}
	log.Info("server stopped")
	return nil
}
