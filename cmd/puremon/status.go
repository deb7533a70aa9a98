package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/chambridge/pure-monitor/internal/config"
	"github.com/chambridge/pure-monitor/internal/flasharray"
	"github.com/chambridge/pure-monitor/internal/health"
	"github.com/chambridge/pure-monitor/internal/metrics"
	"github.com/chambridge/pure-monitor/internal/report"
	"github.com/chambridge/pure-monitor/internal/status"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Check frame health and regenerate the HTML status page",
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

		recorder := metrics.NewRecorder(cfg.PushgatewayURL, metrics.JobStatus, log)
		generator := &status.Generator{
			Frames:          frameList,
			Tokens:          tokens,
			Prober:          health.NewTCPProber(cfg.ProbePort, cfg.ProbeTimeout),
			Connector:       healthConnector(cfg, log),
			Out:             cmd.OutOrStdout(),
			Now:             time.Now,
			Log:             log.Named("status"),
			Metrics:         recorder,
			IsolateFailures: cfg.IsolateFailures,
		}

		statuses, run, runErr := generator.Run(ctx)
		_ = recorder.Push(ctx, time.Now())
		if runErr != nil && !cfg.IsolateFailures {
			log.Error("status refresh failed", zap.String("run_id", run.ID), zap.Error(runErr))
			return runErr
		}

		hostname, err := os.Hostname()
		if err != nil {
			hostname = "unknown"
		}
		page := report.Page{Statuses: statuses, Hostname: hostname, Generated: time.Now()}
		if err := report.WriteFile(cfg.OutputPath, page); err != nil {
			return err
		}
		log.Info("wrote status page", zap.String("path", cfg.OutputPath), zap.String("run_id", run.ID))

		return runErr
	},
}

func healthConnector(cfg *config.Config, log *zap.Logger) flasharray.HealthConnector {
	if cfg.HealthBackend == config.BackendSSH {
		return flasharray.NewSSHConnector(flasharray.SSHConfig{
			User:           cfg.SSHUser,
			KeyFile:        cfg.SSHKeyFile,
			KnownHostsFile: cfg.SSHKnownHosts,
			Port:           cfg.ProbePort,
			Timeout:        cfg.SSHTimeout,
		}, log)
	}
	return flasharray.NewRESTConnector(flasharray.RESTConfig{
		APIVersion: cfg.APIVersion,
		Timeout:    cfg.APITimeout,
		VerifySSL:  cfg.TLSVerify,
	}, log)
}
