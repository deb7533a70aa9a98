package main

import (
	"context"
	"fmt"

	"github.com/chambridge/pure-monitor/internal/config"
	"github.com/chambridge/pure-monitor/internal/frames"
	"github.com/chambridge/pure-monitor/internal/log"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	configFile string
)

var rootCmd = &cobra.Command{
	Use:          "puremon",
	Short:        "Pure Storage FlashArray capacity collection and status reporting",
	SilenceUsage: true,
}

func init() {
	rootCmd.AddCommand(capacityCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(migrateCmd)
	rootCmd.AddCommand(pruneCmd)
	rootCmd.AddCommand(importCmd)
	rootCmd.AddCommand(serveCmd)

	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "", "Path to configuration file")
}

// setup loads and validates configuration and builds the logger.
func setup() (*config.Config, *zap.Logger, error) {
	cfg, err := config.LoadConfig(configFile)
	if err != nil {
		return nil, nil, fmt.Errorf("reading configuration: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, log.InitLog(cfg.LogLevel), nil
}

func loadFrames(cfg *config.Config) ([]string, *frames.TokenMap, error) {
	frameList, err := frames.LoadFrameList(cfg.FrameListPath)
	if err != nil {
		return nil, nil, err
	}
	tokens, err := frames.LoadTokenMap(cfg.TokenFilePath)
	if err != nil {
		return nil, nil, err
	}
	return frameList, tokens, nil
}

func openPool(ctx context.Context, cfg *config.Config) (*pgxpool.Pool, error) {
	pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	return pool, nil
}
