package output

import (
	"encoding/csv"
	"io"
	"strconv"

	"github.com/loganalyzer/internal/analyzer"
)

// WriteCSV writes stats as CSV to w, one row per URL.
func WriteCSV(w io.Writer, stats []analyzer.URLStat) error {
	cw := csv.NewWriter(w)

	header := []string{
		"url", "count", "count_perc", "time_sum", "time_perc",
		"time_avg", "time_max", "time_med",
	}
	if err := cw.Write(header); err != nil {
		return err
	}

	for _, s := range stats {
		row := []string{
			s.URL,
			strconv.Itoa(s.Count),
			ftoa(s.CountPerc),
			ftoa(s.TimeSum),
			ftoa(s.TimePerc),
			ftoa(s.TimeAvg),
			ftoa(s.TimeMax),
			ftoa(s.TimeMed),
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}

	cw.Flush()
	return cw.Error()
}

func ftoa(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}
