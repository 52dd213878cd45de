package analyzer

import (
	"errors"
	"fmt"
	"slices"
	"sort"

	"github.com/loganalyzer/internal/locator"
	"github.com/loganalyzer/internal/parser"
)

// ErrTooManyInvalid is returned when the share of unparsable lines exceeds the
// allowed part.
var ErrTooManyInvalid = errors.New("too many invalid records")

// URLStat holds time statistics for one requested URL.
type URLStat struct {
	URL       string  `json:"url"`
	Count     int     `json:"count"`
	CountPerc float64 `json:"count_perc"`
	TimeSum   float64 `json:"time_sum"`
	TimePerc  float64 `json:"time_perc"`
	TimeAvg   float64 `json:"time_avg"`
	TimeMax   float64 `json:"time_max"`
	TimeMed   float64 `json:"time_med"`
}

// Report is the result of one pass over a log file.
type Report struct {
	// Stats is ordered by TimeSum descending and truncated to the report size.
	Stats        []URLStat
	CountValid   int
	CountInvalid int
	// TimeTotal is the summed request time of all valid records.
	TimeTotal float64
	// URLs is the number of distinct URLs before truncation.
	URLs int
}

// Options controls aggregation.
type Options struct {
	// ReportSize is the number of URLs kept after ranking.
	ReportSize int
	// AllowedInvalidPart is the largest tolerated invalid/(valid+invalid) ratio.
	AllowedInvalidPart float64
	// OpenOptions are passed through to parser.Open.
	OpenOptions []parser.OpenOption
}

// Source is a single-pass sequence of parsed lines. *parser.Reader implements it.
type Source interface {
	Scan() bool
	Record() (parser.Record, bool)
	Err() error
}

// Analyze opens the log described by h and aggregates it.
func Analyze(h locator.Handle, opts Options) (Report, error) {
	r, err := parser.Open(h, opts.OpenOptions...)
	if err != nil {
		return Report{}, err
	}
	defer r.Close()

	return Compute(r, opts)
}

// Compute consumes src and returns per-URL statistics. File-level faults from
// src are returned as is; the invalid ratio is checked only after src is
// exhausted.
func Compute(src Source, opts Options) (Report, error) {
	acc := newAccumulator()
	for src.Scan() {
		rec, ok := src.Record()
		if !ok {
			acc.markInvalid()
			continue
		}
		acc.add(rec)
	}
	if err := src.Err(); err != nil {
		return Report{}, err
	}

	if ratio := acc.invalidRatio(); ratio > opts.AllowedInvalidPart {
		return Report{}, fmt.Errorf("%w: %d of %d lines (%.4f > %.4f)",
			ErrTooManyInvalid, acc.invalid, acc.invalid+acc.valid, ratio, opts.AllowedInvalidPart)
	}

	return acc.snapshot(opts.ReportSize), nil
}

type accumulator struct {
	valid     int
	invalid   int
	timeTotal float64
	// order keeps URLs by first appearance so ties in TimeSum are stable.
	order []string
	times map[string][]float64
}

func newAccumulator() *accumulator {
	return &accumulator{times: make(map[string][]float64)}
}

func (a *accumulator) add(rec parser.Record) {
	a.valid++
	a.timeTotal += rec.Time
	ts, seen := a.times[rec.URL]
	if !seen {
		a.order = append(a.order, rec.URL)
	}
	a.times[rec.URL] = append(ts, rec.Time)
}

func (a *accumulator) markInvalid() {
	a.invalid++
}

// invalidRatio is 0 for an empty file.
func (a *accumulator) invalidRatio() float64 {
	total := a.valid + a.invalid
	if total == 0 {
		return 0
	}
	return float64(a.invalid) / float64(total)
}

func (a *accumulator) snapshot(size int) Report {
	report := Report{
		CountValid:   a.valid,
		CountInvalid: a.invalid,
		TimeTotal:    a.timeTotal,
		URLs:         len(a.order),
	}
	if a.valid == 0 {
		return report
	}

	stats := make([]URLStat, 0, len(a.order))
	for _, url := range a.order {
		ts := a.times[url]
		var sum float64
		for _, t := range ts {
			sum += t
		}
		sorted := slices.Clone(ts)
		slices.Sort(sorted)

		stats = append(stats, URLStat{
			URL:       url,
			Count:     len(ts),
			CountPerc: pct(float64(len(ts)), float64(a.valid)),
			TimeSum:   sum,
			TimePerc:  pct(sum, a.timeTotal),
			TimeAvg:   sum / float64(len(ts)),
			TimeMax:   sorted[len(sorted)-1],
			TimeMed:   medianSorted(sorted),
		})
	}

	report.Stats = topN(stats, size)
	return report
}

func pct(part, total float64) float64 {
	if total == 0 {
		return 0
	}
	return 100 * part / total
}

// topN orders stats by TimeSum descending, keeping input order for ties.
func topN(stats []URLStat, n int) []URLStat {
	sort.SliceStable(stats, func(i, j int) bool {
		return stats[i].TimeSum > stats[j].TimeSum
	})
	if n < 0 {
		n = 0
	}
	if len(stats) > n {
		stats = stats[:n]
	}
	return stats
}

// Median returns the median of values without modifying them. It panics if
// values is empty.
func Median(values []float64) float64 {
	sorted := slices.Clone(values)
	slices.Sort(sorted)
	return medianSorted(sorted)
}

func medianSorted(sorted []float64) float64 {
	n := len(sorted)
	if n == 0 {
		panic("analyzer: median of empty list")
	}
	return 0.5 * (sorted[(n-1)/2] + sorted[n/2])
}
