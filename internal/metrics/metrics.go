package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/loganalyzer/internal/analyzer"
)

// Run results recorded in RunsTotal.
const (
	ResultOK        = "ok"
	ResultNoLogs    = "no_logs"
	ResultNoRecords = "no_records"
	ResultExists    = "exists"
	ResultError     = "error"
)

// Registry holds the metrics of this process only, without Go runtime
// collectors, so the textfile stays small.
var Registry = prometheus.NewRegistry()

var (
	LinesProcessed = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "loganalyzer_lines_processed_total",
			Help: "Log lines processed, by parse status",
		},
		[]string{"status"},
	)

	URLs = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "loganalyzer_urls",
			Help: "Distinct URLs in the last analyzed log",
		},
	)

	RequestTime = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "loganalyzer_request_time_seconds",
			Help: "Summed request time of valid records in the last analyzed log",
		},
	)

	RunsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "loganalyzer_runs_total",
			Help: "Analyzer runs, by result",
		},
		[]string{"result"},
	)

	RunDuration = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "loganalyzer_run_duration_seconds",
			Help: "Wall time of the last run",
		},
	)

	LastSuccess = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "loganalyzer_last_success_timestamp_seconds",
			Help: "Unix time of the last run that wrote a report",
		},
	)
)

func init() {
	Registry.MustRegister(LinesProcessed)
	Registry.MustRegister(URLs)
	Registry.MustRegister(RequestTime)
	Registry.MustRegister(RunsTotal)
	Registry.MustRegister(RunDuration)
	Registry.MustRegister(LastSuccess)
}

// ObserveReport records the counts of one aggregation pass.
func ObserveReport(r analyzer.Report) {
	LinesProcessed.WithLabelValues("valid").Add(float64(r.CountValid))
	LinesProcessed.WithLabelValues("invalid").Add(float64(r.CountInvalid))
	URLs.Set(float64(r.URLs))
	RequestTime.Set(r.TimeTotal)
}

// ObserveRun records the outcome of a run that started at start.
func ObserveRun(result string, start time.Time) {
	RunsTotal.WithLabelValues(result).Inc()
	RunDuration.Set(time.Since(start).Seconds())
	if result == ResultOK {
		LastSuccess.SetToCurrentTime()
	}
}

// WriteTextfile writes all metrics to path in the text exposition format,
// for the node_exporter textfile collector.
func WriteTextfile(path string) error {
	return prometheus.WriteToTextfile(path, Registry)
}
