package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/goodtune/sessiontimer/internal/api"
	"github.com/goodtune/sessiontimer/internal/metrics"
	"github.com/goodtune/sessiontimer/internal/systemd"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the HTTP API and metrics",
	Long:  `Serve the JSON API on server.api_port and Prometheus metrics on server.metrics_port.`,
	Args:  cobra.NoArgs,
	RunE:  runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	a, err := openApp(true, os.Stdout)
	if err != nil {
		return err
	}
	defer a.Close()

	cfg := a.cfg
	logger := a.logger
	log.Logger = logger

	logger.Info().
		Str("version", version).
		Str("config", configPath).
		Str("storage", cfg.Storage.Type).
		Msg("Starting SessionTimer")

	sockets, err := systemd.Inherit()
	if err != nil {
		return err
	}
	if sockets.Activated() {
		logger.Info().Msg("Running with systemd socket activation")
	}

	// Reflect a timer left running by an earlier process
	if a.tracker.ActiveSession(cmd.Context()) != nil {
		metrics.ActiveSession.Set(1)
	}

	apiAddr := fmt.Sprintf("%s:%d", cfg.Server.BindAddress, cfg.Server.APIPort)
	apiServer := api.NewServer(api.Config{
		ListenAddr:   apiAddr,
		Location:     a.location,
		RecentLimit:  cfg.Display.RecentLimit,
		DefaultRange: cfg.Display.DefaultRange,
	}, a.tracker, logger)
	if ln := sockets.Listener(systemd.APISocket); ln != nil {
		apiServer.SetListener(ln)
		apiAddr = ln.Addr().String()
	}
	if err := apiServer.Start(); err != nil {
		return fmt.Errorf("failed to start API server: %w", err)
	}

	var metricsServer *metrics.Server
	metricsListener := sockets.Listener(systemd.MetricsSocket)
	if cfg.Server.MetricsPort > 0 || metricsListener != nil {
		metricsAddr := fmt.Sprintf("%s:%d", cfg.Server.BindAddress, cfg.Server.MetricsPort)
		metricsServer = metrics.NewServer(metricsAddr, logger)
		if metricsListener != nil {
			metricsServer.SetListener(metricsListener)
			metricsAddr = metricsListener.Addr().String()
		}
		if err := metricsServer.Start(); err != nil {
			return fmt.Errorf("failed to start metrics server: %w", err)
		}
		logger.Info().Msgf("Metrics: http://%s/metrics", metricsAddr)
	}

	logger.Info().Msgf("API: http://%s/api", apiAddr)

	if err := systemd.Ready("API on " + apiAddr); err != nil {
		logger.Warn().Err(err).Msg("Failed to send systemd ready notification")
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	select {
	case <-sigChan:
		logger.Info().Msg("Shutdown signal received, gracefully stopping...")
	case <-cmd.Context().Done():
	}

	if err := systemd.Stopping(); err != nil {
		logger.Warn().Err(err).Msg("Failed to send systemd stopping notification")
	}

	if err := apiServer.Stop(); err != nil {
		logger.Error().Err(err).Msg("Error stopping API server")
	}
	if metricsServer != nil {
		if err := metricsServer.Stop(); err != nil {
			logger.Error().Err(err).Msg("Error stopping metrics server")
		}
	}

	logger.Info().Msg("SessionTimer stopped")
	return nil
}
