package main

import (
	"context"
	"encoding/csv"
	"fmt"
	"os"
	"strings"

	"github.com/chambridge/pure-monitor/internal/db"
	"github.com/chambridge/pure-monitor/internal/processor"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var importCmd = &cobra.Command{
	Use:   "import FILE",
	Short: "Backfill capacity samples from a CSV export or tar.gz bundle",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
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

		repo := db.NewRepository(pool)
		path := args[0]

		var result processor.Result
		if strings.HasSuffix(path, ".tar.gz") || strings.HasSuffix(path, ".tgz") {
			result, err = processor.ProcessTar(ctx, path, repo, log.Named("import"))
		} else {
			f, openErr := os.Open(path)
			if openErr != nil {
				return fmt.Errorf("failed to open %s: %w", path, openErr)
			}
			defer f.Close()
			result, err = processor.ProcessCSV(ctx, repo, csv.NewReader(f), log.Named("import"))
		}
		if err != nil {
			return err
		}

		log.Info("import finished", zap.String("file", path),
			zap.Int("inserted", result.Inserted), zap.Int("skipped", result.Skipped))
		return nil
	},
}
