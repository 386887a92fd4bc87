package cmd

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/davefn/mailburst/internal/campaign"
	"github.com/davefn/mailburst/internal/logging"
	"github.com/davefn/mailburst/internal/server"
)

const (
	defaultAddr            = ":5000"
	defaultShutdownTimeout = 30 * time.Second
)

// MetricsConfig holds configuration for the metrics server
type MetricsConfig struct {
	// Enabled determines whether to start the metrics server (default: true)
	Enabled bool

	// Addr is the address for the metrics server (e.g., ":9090")
	Addr string
}

func newServeCmd() *cobra.Command {
	var (
		debugMode       bool
		jsonLogs        bool
		addr            string
		baseURL         string
		uploadsDir      string
		clientSecret    string
		tokenFile       string
		allowDuplicates bool
		strategy        string
		metricsEnabled  bool
		metricsAddr     string
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the campaign web server",
		Long: `Start the mailburst web server.

The server exposes the campaign form on the main address and Prometheus
metrics on a dedicated address. Credentials are uploaded through the
form; no Google configuration is needed up front.

Configuration precedence is flags, then environment variables
(MAILBURST_ADDR, MAILBURST_BASE_URL, MAILBURST_UPLOADS_DIR,
METRICS_ENABLED, METRICS_ADDR), then defaults. A .env file in the
working directory is loaded if present.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			// Environment variables apply only when the flag was not set
			if !cmd.Flags().Changed("addr") {
				if v := os.Getenv("MAILBURST_ADDR"); v != "" {
					addr = v
				}
			}
			if !cmd.Flags().Changed("base-url") {
				if v := os.Getenv("MAILBURST_BASE_URL"); v != "" {
					baseURL = v
				}
			}
			if !cmd.Flags().Changed("uploads-dir") {
				if v := os.Getenv("MAILBURST_UPLOADS_DIR"); v != "" {
					uploadsDir = v
				}
			}
			if !cmd.Flags().Changed("metrics-enabled") {
				if os.Getenv("METRICS_ENABLED") == "false" {
					metricsEnabled = false
				}
			}
			if !cmd.Flags().Changed("metrics-addr") {
				if v := os.Getenv("METRICS_ADDR"); v != "" {
					metricsAddr = v
				}
			}

			cfg := server.Config{
				Addr:             addr,
				BaseURL:          baseURL,
				UploadsDir:       uploadsDir,
				ClientSecretPath: clientSecret,
				TokenPath:        tokenFile,
				AllowDuplicates:  allowDuplicates,
				Strategy:         campaign.Strategy(strategy),
			}
			metricsConfig := MetricsConfig{
				Enabled: metricsEnabled,
				Addr:    metricsAddr,
			}

			return runServe(cfg, metricsConfig, debugMode, jsonLogs)
		},
	}

	cmd.Flags().BoolVar(&debugMode, "debug", false, "Enable debug logging")
	cmd.Flags().BoolVar(&jsonLogs, "json-logs", false, "Emit logs as JSON instead of text")
	cmd.Flags().StringVar(&addr, "addr", defaultAddr, "HTTP server address. Can also use MAILBURST_ADDR env var.")
	cmd.Flags().StringVar(&baseURL, "base-url", "", "Public base URL used for the OAuth redirect. Can also use MAILBURST_BASE_URL env var. Example: https://mail.example.com")
	cmd.Flags().StringVar(&uploadsDir, "uploads-dir", "uploads", "Directory for uploaded files and generated attachments. Can also use MAILBURST_UPLOADS_DIR env var.")
	cmd.Flags().StringVar(&clientSecret, "client-secret", "", "Path to the OAuth client secret file (default: <uploads-dir>/client_secret.json)")
	cmd.Flags().StringVar(&tokenFile, "token-file", "", "Path to the stored OAuth token (default: <uploads-dir>/token.json)")
	cmd.Flags().BoolVar(&allowDuplicates, "allow-duplicates", true, "Keep repeated recipient addresses in campaigns")
	cmd.Flags().StringVar(&strategy, "strategy", string(campaign.StrategyRandom), "Variant selection strategy: random or round-robin")
	cmd.Flags().BoolVar(&metricsEnabled, "metrics-enabled", true, "Enable the metrics server on a dedicated port. Can also use METRICS_ENABLED env var.")
	cmd.Flags().StringVar(&metricsAddr, "metrics-addr", server.DefaultMetricsAddr, "Metrics server address. Can also use METRICS_ADDR env var.")

	return cmd
}

func runServe(cfg server.Config, metricsConfig MetricsConfig, debugMode, jsonLogs bool) error {
	shutdownCtx, cancel := signal.NotifyContext(context.Background(),
		os.Interrupt, syscall.SIGTERM)
	defer cancel()

	logger := logging.Setup(debugMode, jsonLogs)

	app, err := server.New(cfg, nil, logger)
	if err != nil {
		return fmt.Errorf("failed to create server: %w", err)
	}

	// Start the metrics server if enabled
	var metricsServer *server.MetricsServer
	if metricsConfig.Enabled {
		metricsServer = server.NewMetricsServer(server.MetricsServerConfig{
			Addr: metricsConfig.Addr,
		})
		go func() {
			if err := metricsServer.Start(); err != nil && err != http.ErrServerClosed {
				logger.Error("metrics server failed", logging.Err(err))
			}
		}()
	}

	httpServer := &http.Server{
		Addr:              cfg.Addr,
		Handler:           app.Router(),
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	serverDone := make(chan error, 1)
	go func() {
		defer close(serverDone)
		logger.Info("starting server", "addr", cfg.Addr, "version", version)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverDone <- err
		}
	}()

	select {
	case <-shutdownCtx.Done():
		logger.Info("shutdown signal received, stopping server")
		ctx, cancel := context.WithTimeout(context.Background(), defaultShutdownTimeout)
		defer cancel()

		if metricsServer != nil {
			if err := metricsServer.Shutdown(ctx); err != nil {
				logger.Warn("metrics server shutdown error", logging.Err(err))
			}
		}
		if err := httpServer.Shutdown(ctx); err != nil {
			return fmt.Errorf("error shutting down server: %w", err)
		}
	case err := <-serverDone:
		if err != nil {
			return fmt.Errorf("server stopped with error: %w", err)
		}
	}

	logger.Info("server stopped")
	return nil
}
