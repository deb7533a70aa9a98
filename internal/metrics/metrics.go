// Package metrics records per-run gauges and pushes them to a Prometheus
// Pushgateway, the usual sink for short-lived batch jobs.
package metrics

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/push"
	"go.uber.org/zap"
)

const (
	JobCapacity = "pure_capacity"
	JobStatus   = "pure_status"
)

type Recorder struct {
	url      string
	job      string
	log      *zap.Logger
	registry *prometheus.Registry

	capacity       *prometheus.GaugeVec
	total          *prometheus.GaugeVec
	dataReduction  *prometheus.GaugeVec
	totalReduction *prometheus.GaugeVec
	frameUp        *prometheus.GaugeVec
	frameIssue     *prometheus.GaugeVec
	failedDrives   *prometheus.GaugeVec
	frameErrors    *prometheus.GaugeVec
	lastRun        prometheus.Gauge
}

// NewRecorder returns a recorder on a private registry. An empty url disables Push.
func NewRecorder(url, job string, log *zap.Logger) *Recorder {
	if log == nil {
		log = zap.NewNop()
	}
	gauge := func(name, help string) *prometheus.GaugeVec {
		return prometheus.NewGaugeVec(prometheus.GaugeOpts{Name: name, Help: help}, []string{"frame"})
	}

	r := &Recorder{
		url:            url,
		job:            job,
		log:            log.Named("metrics"),
		registry:       prometheus.NewRegistry(),
		capacity:       gauge("pure_capacity_tebibytes", "Array capacity in TiB"),
		total:          gauge("pure_total_tebibytes", "Array total physical space used in TiB"),
		dataReduction:  gauge("pure_data_reduction_ratio", "Data reduction ratio"),
		totalReduction: gauge("pure_total_reduction_ratio", "Total reduction ratio"),
		frameUp:        gauge("pure_frame_up", "1 when the frame answered the reachability probe"),
		frameIssue:     gauge("pure_frame_issue", "1 when hardware or drives report a problem"),
		failedDrives:   gauge("pure_failed_drives", "Drives neither healthy nor unused"),
		frameErrors:    gauge("pure_frame_collection_error", "1 when collection for the frame failed"),
		lastRun: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "pure_last_run_timestamp_seconds",
			Help: "Unix time of the last completed run",
		}),
	}
	r.registry.MustRegister(r.capacity, r.total, r.dataReduction, r.totalReduction,
		r.frameUp, r.frameIssue, r.failedDrives, r.frameErrors, r.lastRun)
	return r
}

func (r *Recorder) ObserveCapacity(frame string, capacityTB, totalTB, dataReduction, totalReduction float64) {
	r.capacity.WithLabelValues(frame).Set(capacityTB)
	r.total.WithLabelValues(frame).Set(totalTB)
	r.dataReduction.WithLabelValues(frame).Set(dataReduction)
	r.totalReduction.WithLabelValues(frame).Set(totalReduction)
}

func (r *Recorder) ObserveStatus(frame string, online, issue bool, failedDrives int) {
	r.frameUp.WithLabelValues(frame).Set(boolValue(online))
	r.frameIssue.WithLabelValues(frame).Set(boolValue(issue))
	r.failedDrives.WithLabelValues(frame).Set(float64(failedDrives))
}

func (r *Recorder) ObserveError(frame string) {
	r.frameErrors.WithLabelValues(frame).Set(1)
}

// Push sends the registry to the Pushgateway, replacing the job's previous
// metrics. Failures are logged and returned but are never fatal to a run.
func (r *Recorder) Push(ctx context.Context, now time.Time) error {
	if r.url == "" {
		return nil
	}
	r.lastRun.Set(float64(now.Unix()))

	err := push.New(r.url, r.job).Gatherer(r.registry).PushContext(ctx)
	if err != nil {
		r.log.Warn("failed to push metrics", zap.String("url", r.url), zap.Error(err))
		return err
	}
	r.log.Debug("pushed metrics", zap.String("job", r.job))
	return nil
}

func boolValue(b bool) float64 {
	if b {
		return 1
	}
	return 0
}
