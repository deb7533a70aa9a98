// Package capacity samples array space figures for each configured frame, prints
// them as a tab-delimited table and stores them in the capacity history table.
package capacity

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/chambridge/pure-monitor/internal/db"
	"github.com/chambridge/pure-monitor/internal/flasharray"
	"github.com/chambridge/pure-monitor/internal/frames"
	"github.com/chambridge/pure-monitor/internal/run"
	"go.uber.org/zap"
)

const (
	tebibyte = 1 << 40

	Header     = "Frame\t\t\tCapacity(TB)\tTotal(TB)\tData Reduction Ratio\tTotal Reduction Ratio\tDate/Time"
	lineFormat = "%s\t\t%.02f\t\t%.02f\t\t%.01f\t\t\t%.01f\t\t\t%s\n"
)

type Store interface {
	InsertCapacitySample(ctx context.Context, sample db.CapacitySample) error
}

// Sink receives every stored sample and every frame failure.
type Sink interface {
	ObserveCapacity(frame string, capacityTB, totalTB, dataReduction, totalReduction float64)
	ObserveError(frame string)
}

type Collector struct {
	Frames    []string
	Tokens    *frames.TokenMap
	Connector flasharray.Connector
	Store     Store
	Out       io.Writer
	Now       func() time.Time
	Log       *zap.Logger
	Metrics   Sink

	// IsolateFailures keeps going after a frame fails and reports all failures
	// at the end. When false the first failure ends the run.
	IsolateFailures bool
}

// Run samples every frame in list order. All rows of one run share a timestamp.
func (c *Collector) Run(ctx context.Context) (*run.Report, error) {
	now := time.Now
	if c.Now != nil {
		now = c.Now
	}
	log := c.Log
	if log == nil {
		log = zap.NewNop()
	}

	timestamp := now()
	report := run.NewReport(timestamp)
	log = log.With(zap.String("run_id", report.ID))
	log.Info("starting capacity collection", zap.Int("frames", len(c.Frames)))

	fmt.Fprintln(c.Out, Header)
	for _, frame := range c.Frames {
		if err := ctx.Err(); err != nil {
			return report, err
		}
		if err := c.collectFrame(ctx, log, frame, timestamp); err != nil {
			fe := report.Fail(frame, err)
			if c.Metrics != nil {
				c.Metrics.ObserveError(frame)
			}
			if !c.IsolateFailures {
				return report, fe
			}
			log.Error("frame capacity collection failed", zap.String("frame", frame), zap.Error(err))
			continue
		}
		report.Success(frame)
	}

	log.Info("capacity collection finished",
		zap.Int("succeeded", len(report.Succeeded)),
		zap.Int("failed", len(report.Failed)))
	return report, report.Err()
}

func (c *Collector) collectFrame(ctx context.Context, log *zap.Logger, frame string, timestamp time.Time) error {
	creds, err := frames.Resolve(frame, c.Tokens)
	if err != nil {
		return err
	}

	array, err := c.Connector.Connect(ctx, creds)
	if err != nil {
		return err
	}
	defer func() {
		if err := array.Close(ctx); err != nil {
			log.Warn("failed to close array session", zap.String("frame", frame), zap.Error(err))
		}
	}()

	space, err := array.SpaceSummary(ctx)
	if err != nil {
		return fmt.Errorf("failed to read space summary: %w", err)
	}

	sample := db.CapacitySample{
		Frame:               frame,
		Capacity:            float64(space.CapacityBytes) / tebibyte,
		Total:               float64(space.TotalBytes) / tebibyte,
		DataReductionRatio:  space.DataReduction,
		TotalReductionRatio: space.TotalReduction,
		Timestamp:           timestamp,
	}

	fmt.Fprintf(c.Out, lineFormat, sample.Frame, sample.Capacity, sample.Total,
		sample.DataReductionRatio, sample.TotalReductionRatio, timestamp.Format(db.TimestampLayout))

	if err := c.Store.InsertCapacitySample(ctx, sample); err != nil {
		return fmt.Errorf("failed to store capacity sample: %w", err)
	}
	if c.Metrics != nil {
		c.Metrics.ObserveCapacity(frame, sample.Capacity, sample.Total,
			sample.DataReductionRatio, sample.TotalReductionRatio)
	}
	log.Debug("stored capacity sample", zap.String("frame", frame), zap.String("array", creds.FullName))
	return nil
}
