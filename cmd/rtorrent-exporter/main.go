// Copyright (c) 2025, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package main

import (
	"context"
	"fmt"
	"net/http"
	_ "net/http/pprof"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/autobrr/rtorrent-exporter/internal/api"
	"github.com/autobrr/rtorrent-exporter/internal/buildinfo"
	"github.com/autobrr/rtorrent-exporter/internal/config"
	"github.com/autobrr/rtorrent-exporter/internal/metrics"
	"github.com/autobrr/rtorrent-exporter/internal/metrics/collector"
	"github.com/autobrr/rtorrent-exporter/internal/rtorrent"
	"github.com/autobrr/rtorrent-exporter/internal/web/swagger"
	"github.com/autobrr/rtorrent-exporter/pkg/redact"
)

func main() {
	var rootCmd = &cobra.Command{
		Use:   "rtorrent-exporter",
		Short: "Prometheus exporter for rTorrent",
		Long: `rtorrent-exporter - Publishes rTorrent transfer totals and torrent
state counts as an OpenMetrics endpoint for Prometheus.`,
	}

	// Initialize logger
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	rootCmd.Version = buildinfo.Version

	rootCmd.AddCommand(RunServeCommand())
	rootCmd.AddCommand(RunVersionCommand())
	rootCmd.AddCommand(RunGenerateConfigCommand())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func RunServeCommand() *cobra.Command {
	var configDir string

	var command = &cobra.Command{
		Use:   "serve",
		Short: "Start the exporter",
	}

	// flags other than config-dir are bound to config keys and take
	// precedence over the config file and environment when set
	command.Flags().StringVar(&configDir, "config-dir", "", "config directory path (default is OS-specific: ~/.config/rtorrent-exporter/ or %APPDATA%\\rtorrent-exporter\\). Can also be a direct path to a .toml file")
	command.Flags().StringP("address", "a", "", "listen address (default 127.0.0.1:9091)")
	command.Flags().StringP("rtorrent", "r", "", "rTorrent XML-RPC url (default http://127.0.0.1:5000/RPC2)")
	command.Flags().String("view", "", "rTorrent view to compute torrent counts over (default \"default\")")
	command.Flags().Int("rpc-timeout", 0, "timeout in seconds for each rTorrent call, 0 disables")
	command.Flags().String("log-path", "", "log file path (default is stderr only)")
	command.Flags().String("log-level", "", "log level: ERROR, WARN, INFO, DEBUG, TRACE")
	command.Flags().Bool("pprof", false, "enable pprof server on :6060")

	command.RunE = func(cmd *cobra.Command, args []string) error {
		app := NewApplication(configDir, cmd.Flags())
		app.runServer()
		return nil
	}

	return command
}

func RunVersionCommand() *cobra.Command {
	var command = &cobra.Command{
		Use:   "version",
		Short: "Print the version number of rtorrent-exporter",
		Run: func(cmd *cobra.Command, args []string) {
			cmd.Print(buildinfo.String())
		},
	}

	return command
}

// resolveConfigPath mirrors config.New: .toml paths and existing files are
// used as is, anything else is treated as a directory.
func resolveConfigPath(configDir string) string {
	if configDir == "" {
		return filepath.Join(config.GetDefaultConfigDir(), "config.toml")
	}
	if strings.HasSuffix(strings.ToLower(configDir), ".toml") {
		return configDir
	}
	if info, err := os.Stat(configDir); err == nil && !info.IsDir() {
		return configDir
	}
	return filepath.Join(configDir, "config.toml")
}

func RunGenerateConfigCommand() *cobra.Command {
	var configDir string

	command := &cobra.Command{
		Use:   "generate-config",
		Short: "Generate a default configuration file",
		Long: `Generate a default configuration file without starting the exporter.

If no --config-dir is specified, uses the OS-specific default location:
- Linux/macOS: ~/.config/rtorrent-exporter/config.toml
- Windows: %APPDATA%\rtorrent-exporter\config.toml

You can specify either a directory path or a direct file path:
- Directory: rtorrent-exporter generate-config --config-dir /path/to/config/
- File: rtorrent-exporter generate-config --config-dir /path/to/myconfig.toml`,
		RunE: func(cmd *cobra.Command, args []string) error {
			configPath := resolveConfigPath(configDir)

			if _, err := os.Stat(configPath); err == nil {
				cmd.Printf("Configuration file already exists at: %s\n", configPath)
				cmd.Println("Skipping generation to avoid overwriting existing configuration.")
				return nil
			}

			if err := config.WriteDefaultConfig(configPath); err != nil {
				return fmt.Errorf("failed to create configuration file: %w", err)
			}

			cmd.Printf("Configuration file created successfully at: %s\n", configPath)
			return nil
		},
	}

	command.Flags().StringVar(&configDir, "config-dir", "",
		"config directory or file path (defaults to OS-specific location)")

	return command
}

type Application struct {
	configDir string
	flags     *pflag.FlagSet
}

func NewApplication(configDir string, flags *pflag.FlagSet) *Application {
	return &Application{
		configDir: configDir,
		flags:     flags,
	}
}

// detectDialect probes the client version once. A failure keeps the
// multicall2 dialect so scrapes still run against current rTorrent releases.
func detectDialect(client *rtorrent.Client) *rtorrent.Client {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	detected, version, err := rtorrent.Detect(ctx, client)
	if err != nil {
		log.Warn().Err(err).Str("dialect", client.Dialect().Name).Msg("Failed to detect rTorrent version, using default dialect")
		return client
	}

	log.Info().Str("version", version).Str("dialect", detected.Dialect().Name).Msg("Connected to rTorrent")
	return detected
}

func (app *Application) runServer() {
	log.Info().Str("version", buildinfo.Version).Msg("Starting rtorrent-exporter")

	// Initialize configuration
	cfg, err := config.New(app.configDir, config.WithFlags(app.flags))
	if err != nil {
		log.Fatal().Err(redact.URLError(err)).Msg("Failed to initialize configuration")
	}

	if err := cfg.ApplyLogConfig(); err != nil {
		log.Fatal().Err(err).Msg("Failed to apply log configuration")
	}
	cfg.WatchConfig()

	client, err := rtorrent.NewClient(cfg.Config.RTorrentURL, rtorrent.WithTimeout(cfg.RPCTimeout()))
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create rTorrent client")
	}
	log.Info().
		Str("url", client.URL()).
		Str("view", cfg.Config.View).
		Dur("rpcTimeout", cfg.RPCTimeout()).
		Msg("Using rTorrent endpoint")

	client = detectDialect(client)

	metricsManager := metrics.NewManager(client, collector.Build(cfg.Config.View))

	swaggerHandler, err := swagger.NewHandler()
	if err != nil {
		log.Warn().Err(err).Msg("Failed to initialize OpenAPI handler")
	}

	deps := &api.Dependencies{
		Config:         cfg,
		MetricsManager: metricsManager,
		SwaggerHandler: swaggerHandler,
	}

	router := api.NewRouter(deps)

	// Create HTTP server with configurable timeouts
	readTimeout := time.Duration(cfg.Config.HTTPTimeouts.ReadTimeout) * time.Second
	writeTimeout := time.Duration(cfg.Config.HTTPTimeouts.WriteTimeout) * time.Second
	idleTimeout := time.Duration(cfg.Config.HTTPTimeouts.IdleTimeout) * time.Second

	// Use defaults if not configured
	if readTimeout == 0 {
		readTimeout = 60 * time.Second
	}
	if writeTimeout == 0 {
		writeTimeout = 120 * time.Second
	}
	if idleTimeout == 0 {
		idleTimeout = 180 * time.Second
	}

	srv := &http.Server{
		Addr:         cfg.Config.Address,
		Handler:      router,
		ReadTimeout:  readTimeout,
		WriteTimeout: writeTimeout,
		IdleTimeout:  idleTimeout,
	}

	// Start server in goroutine
	go func() {
		log.Info().
			Str("address", srv.Addr).
			Dur("readTimeout", readTimeout).
			Dur("writeTimeout", writeTimeout).
			Dur("idleTimeout", idleTimeout).
			Msg("Starting HTTP server")

		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Server failed")
		}
	}()

	// Start profiling server if enabled
	if cfg.Config.PprofEnabled {
		go func() {
			log.Info().Msg("Starting pprof server on :6060")
			log.Info().Msg("Access profiling at: http://localhost:6060/debug/pprof/")
			if err := http.ListenAndServe(":6060", nil); err != nil {
				log.Error().Err(err).Msg("Profiling server failed")
			}
		}()
	}

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info().Msg("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal().Err(err).Msg("Server forced to shutdown")
	}

	log.Info().Msg("Server stopped")
}
