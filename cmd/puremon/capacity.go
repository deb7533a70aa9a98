package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/chambridge/pure-monitor/internal/capacity"
	"github.com/chambridge/pure-monitor/internal/db"
	"github.com/chambridge/pure-monitor/internal/flasharray"
	"github.com/chambridge/pure-monitor/internal/metrics"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var capacityCmd = &cobra.Command{
	Use:   "capacity",
	Short: "Sample array capacity for every frame and store it",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, log, err := setup()
		if err != nil {
			return err
		}
		defer log.Sync() //nolint:errcheck

		frameList, tokens, err := loadFrames(cfg)
		if err != nil {
			return err
		}

		ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer cancel()

		pool, err := openPool(ctx, cfg)
		if err != nil {
			return err
		}
		defer pool.Close()

		recorder := metrics.NewRecorder(cfg.PushgatewayURL, metrics.JobCapacity, log)
		collector := &capacity.Collector{
			Frames: frameList,
			Tokens: tokens,
			Connector: flasharray.NewRESTConnector(flasharray.RESTConfig{
				APIVersion: cfg.APIVersion,
				Timeout:    cfg.APITimeout,
				VerifySSL:  cfg.TLSVerify,
			}, log),
			Store:           db.NewRepository(pool),
			Out:             cmd.OutOrStdout(),
			Now:             time.Now,
			Log:             log.Named("capacity"),
			Metrics:         recorder,
			IsolateFailures: cfg.IsolateFailures,
		}

		report, runErr := collector.Run(ctx)
		_ = recorder.Push(ctx, time.Now())
		if runErr != nil {
			log.Error("capacity collection failed", zap.String("run_id", report.ID), zap.Error(runErr))
		}
		return runErr
	},
}
