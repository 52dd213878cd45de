package metrics

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/loganalyzer/internal/analyzer"
)

func TestObserveReport(t *testing.T) {
	validBefore := testutil.ToFloat64(LinesProcessed.WithLabelValues("valid"))
	invalidBefore := testutil.ToFloat64(LinesProcessed.WithLabelValues("invalid"))

	ObserveReport(analyzer.Report{CountValid: 8, CountInvalid: 4, TimeTotal: 3.4, URLs: 3})

	if got := testutil.ToFloat64(LinesProcessed.WithLabelValues("valid")) - validBefore; got != 8 {
		t.Errorf("valid lines delta = %v, want 8", got)
	}
	if got := testutil.ToFloat64(LinesProcessed.WithLabelValues("invalid")) - invalidBefore; got != 4 {
		t.Errorf("invalid lines delta = %v, want 4", got)
	}
	if got := testutil.ToFloat64(URLs); got != 3 {
		t.Errorf("URLs = %v, want 3", got)
	}
	if got := testutil.ToFloat64(RequestTime); got != 3.4 {
		t.Errorf("RequestTime = %v, want 3.4", got)
	}
}

func TestObserveRun(t *testing.T) {
	before := testutil.ToFloat64(RunsTotal.WithLabelValues(ResultNoLogs))
	ObserveRun(ResultNoLogs, time.Now())
	if got := testutil.ToFloat64(RunsTotal.WithLabelValues(ResultNoLogs)) - before; got != 1 {
		t.Errorf("runs delta = %v, want 1", got)
	}

	ObserveRun(ResultOK, time.Now().Add(-time.Second))
	if got := testutil.ToFloat64(LastSuccess); got <= 0 {
		t.Errorf("LastSuccess = %v, want a timestamp", got)
	}
	if got := testutil.ToFloat64(RunDuration); got < 1 {
		t.Errorf("RunDuration = %v, want >= 1", got)
	}
}

func TestWriteTextfile(t *testing.T) {
	ObserveRun(ResultOK, time.Now())

	path := filepath.Join(t.TempDir(), "loganalyzer.prom")
	if err := WriteTextfile(path); err != nil {
		t.Fatalf("WriteTextfile error: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), `loganalyzer_runs_total{result="ok"}`) {
		t.Errorf("textfile missing runs counter:\n%s", data)
	}
}
