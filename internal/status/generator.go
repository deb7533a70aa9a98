// Package status determines reachability and hardware/drive health for each frame.
package status

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/chambridge/pure-monitor/internal/flasharray"
	"github.com/chambridge/pure-monitor/internal/frames"
	"github.com/chambridge/pure-monitor/internal/health"
	"github.com/chambridge/pure-monitor/internal/run"
	"go.uber.org/zap"
)

const lineFormat = "Pure Frame: %s\t\t[ Status: %s\tFailed Drives: %d ]\n"

// FrameStatus is the health of one frame for a single run.
type FrameStatus struct {
	Frame          string
	Connectivity   health.Connectivity
	Status         health.Status
	HardwareStatus health.Status
	DriveStatus    health.Status
	FailedDrives   int
	HardwareDetail []string
	DriveDetail    []string
	Err            string
}

// HasIssue reports whether the frame gets a detail table on the status page.
func (s FrameStatus) HasIssue() bool {
	return s.HardwareStatus == health.StatusIssue || s.FailedDrives > 0 || s.Status == health.StatusError
}

// Sink receives per-frame health results.
type Sink interface {
	ObserveStatus(frame string, online, issue bool, failedDrives int)
	ObserveError(frame string)
}

type Generator struct {
	Frames    []string
	Tokens    *frames.TokenMap
	Prober    health.Prober
	Connector flasharray.HealthConnector
	Out       io.Writer
	Now       func() time.Time
	Log       *zap.Logger
	Metrics   Sink

	IsolateFailures bool
}

// Run probes every frame first, then queries the reachable ones. Results are in
// frame list order.
func (g *Generator) Run(ctx context.Context) ([]FrameStatus, *run.Report, error) {
	now := time.Now
	if g.Now != nil {
		now = g.Now
	}
	log := g.Log
	if log == nil {
		log = zap.NewNop()
	}

	report := run.NewReport(now())
	log = log.With(zap.String("run_id", report.ID))
	log.Info("starting status refresh", zap.Int("frames", len(g.Frames)))

	connectivity := make(map[string]health.Connectivity, len(g.Frames))
	for _, frame := range g.Frames {
		connectivity[frame] = g.Prober.Probe(ctx, frame)
		log.Debug("probed frame", zap.String("frame", frame), zap.String("connectivity", string(connectivity[frame])))
	}

	statuses := make([]FrameStatus, 0, len(g.Frames))
	for _, frame := range g.Frames {
		if err := ctx.Err(); err != nil {
			return statuses, report, err
		}

		if connectivity[frame] != health.Online {
			st := FrameStatus{
				Frame:          frame,
				Connectivity:   health.Offline,
				Status:         health.StatusInaccessible,
				HardwareStatus: health.StatusInaccessible,
				DriveStatus:    health.StatusInaccessible,
			}
			statuses = append(statuses, st)
			g.observe(st)
			report.Success(frame)
			continue
		}

		st, err := g.checkFrame(ctx, log, frame)
		if err != nil {
			fe := report.Fail(frame, err)
			if g.Metrics != nil {
				g.Metrics.ObserveError(frame)
			}
			if !g.IsolateFailures {
				return statuses, report, fe
			}
			log.Error("frame status check failed", zap.String("frame", frame), zap.Error(err))
			statuses = append(statuses, FrameStatus{
				Frame:          frame,
				Connectivity:   health.Online,
				Status:         health.StatusError,
				HardwareStatus: health.StatusError,
				DriveStatus:    health.StatusError,
				Err:            err.Error(),
			})
			continue
		}

		fmt.Fprintf(g.Out, lineFormat, frame, st.Status, st.FailedDrives)
		statuses = append(statuses, st)
		g.observe(st)
		report.Success(frame)
	}

	log.Info("status refresh finished",
		zap.Int("succeeded", len(report.Succeeded)),
		zap.Int("failed", len(report.Failed)))
	return statuses, report, report.Err()
}

func (g *Generator) checkFrame(ctx context.Context, log *zap.Logger, frame string) (FrameStatus, error) {
	creds, err := frames.Resolve(frame, g.Tokens)
	if err != nil {
		return FrameStatus{}, err
	}

	source, err := g.Connector.ConnectHealth(ctx, creds)
	if err != nil {
		return FrameStatus{}, err
	}
	defer func() {
		if err := source.Close(ctx); err != nil {
			log.Warn("failed to close array session", zap.String("frame", frame), zap.Error(err))
		}
	}()

	hardware, err := source.ListHardware(ctx)
	if err != nil {
		return FrameStatus{}, fmt.Errorf("failed to list hardware: %w", err)
	}
	drives, err := source.ListDrives(ctx)
	if err != nil {
		return FrameStatus{}, fmt.Errorf("failed to list drives: %w", err)
	}

	hwStatus, badHardware := health.ClassifyHardware(hardware)
	driveStatus, failed, badDrives := health.ClassifyDrives(drives)

	st := FrameStatus{
		Frame:          frame,
		Connectivity:   health.Online,
		Status:         health.StatusOK,
		HardwareStatus: hwStatus,
		DriveStatus:    driveStatus,
		FailedDrives:   failed,
	}
	if hwStatus == health.StatusIssue || driveStatus == health.StatusIssue {
		st.Status = health.StatusIssue
	}

	var hwHeader, driveHeader string
	if hs, ok := source.(flasharray.HeaderSource); ok {
		hwHeader, driveHeader = hs.HardwareHeader(), hs.DriveHeader()
	}
	st.HardwareDetail = detailLines(hwHeader, badHardware)
	st.DriveDetail = detailLines(driveHeader, badDrives)
	return st, nil
}

func (g *Generator) observe(st FrameStatus) {
	if g.Metrics == nil {
		return
	}
	g.Metrics.ObserveStatus(st.Frame, st.Connectivity == health.Online, st.Status == health.StatusIssue, st.FailedDrives)
}

func detailLines(header string, components []flasharray.Component) []string {
	if len(components) == 0 {
		return nil
	}
	lines := make([]string, 0, len(components)+1)
	if header != "" {
		lines = append(lines, header)
	}
	for _, c := range components {
		lines = append(lines, c.Line)
	}
	return lines
}
