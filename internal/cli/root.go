// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

// Package cli implements the envmon command-line interface.
//
//	envmon              - same as "envmon run"
//	envmon run          - sample, display, indicate and serve the web page
//	envmon console      - print the monitor's MQTT state stream
//	envmon version      - print build information
package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/relabs-tech/envmon/internal/config"
	"github.com/relabs-tech/envmon/internal/logger"
)

const defaultConfigPath = "./envmon_config.env"

var (
	configPath    string
	logLevelFlag  string
	logFormatFlag string
)

var rootCmd = &cobra.Command{
	Use:   "envmon",
	Short: "Environmental monitor for a BME280 sensor node",
	Long: `envmon samples temperature, humidity and pressure every couple of
seconds, shows the latest reading on a small display, drives a green or
red status LED against operator-set thresholds and serves a web page with
the recent history and a form to change the thresholds.

Configuration is read from a KEY=VALUE file (see --config); environment
variables with the same names take precedence.`,
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runCommand(cmd.Context())
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", defaultConfigPath, "path to the KEY=VALUE config file")
	rootCmd.PersistentFlags().StringVar(&logLevelFlag, "log-level", "", "override LOG_LEVEL (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&logFormatFlag, "log-format", "", "override LOG_FORMAT (text, json)")
}

// Execute runs the root command and exits non-zero on failure.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		stop()
		os.Exit(1)
	}
}

// setup loads the global config and builds the process logger.
func setup() (*config.Config, *slog.Logger, error) {
	if err := config.InitGlobal(configPath); err != nil {
		return nil, nil, fmt.Errorf("failed to load config: %w", err)
	}
	cfg := config.Get()

	level, format := cfg.LogLevel, cfg.LogFormat
	if logLevelFlag != "" {
		level = logLevelFlag
	}
	if logFormatFlag != "" {
		format = logFormatFlag
	}
	log := logger.Setup(level, format)
	slog.SetDefault(log)
	return cfg, log, nil
}
