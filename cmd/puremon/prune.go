package main

import (
	"context"
	"fmt"
	"time"

	"github.com/chambridge/pure-monitor/internal/db"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var pruneDays int

var pruneCmd = &cobra.Command{
	Use:   "prune",
	Short: "Delete capacity samples older than --days",
	RunE: func(cmd *cobra.Command, args []string) error {
		if pruneDays <= 0 {
			return fmt.Errorf("--days must be positive, got %d", pruneDays)
		}

		cfg, log, err := setup()
		if err != nil {
			return err
		}
		defer log.Sync() //nolint:errcheck

		ctx := context.Background()
		pool, err := openPool(ctx, cfg)
		if err != nil {
			return err
		}
		defer pool.Close()

		cutoff := time.Now().AddDate(0, 0, -pruneDays)
		removed, err := db.NewRepository(pool).PruneBefore(ctx, cutoff)
		if err != nil {
			return err
		}
		log.Info("pruned capacity samples",
			zap.Int64("removed", removed),
			zap.String("cutoff", cutoff.Format(db.TimestampLayout)))
		return nil
	},
}

func init() {
	pruneCmd.Flags().IntVar(&pruneDays, "days", 730, "Keep samples from the last N days")
}
