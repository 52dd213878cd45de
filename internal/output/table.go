package output

import (
	"fmt"
	"io"
	"strings"

	"github.com/loganalyzer/internal/analyzer"
	"github.com/loganalyzer/internal/locator"
)

// WriteTable writes a ranked text table of report to w.
func WriteTable(w io.Writer, h locator.Handle, report analyzer.Report) {
	line := strings.Repeat("=", 110)
	thinLine := strings.Repeat("-", 110)

	fmt.Fprintf(w, "\n%s\n  File: %s\n%s\n", line, h.Path, line)
	fmt.Fprintf(w, "  %-30s %s\n", "Date:", h.Date.Format("2006-01-02"))
	fmt.Fprintf(w, "  %-30s %s\n", "Compression:", h.Compression)

	fmt.Fprintf(w, "\n  Summary\n%s\n", thinLine)
	fmt.Fprintf(w, "  %-30s %d\n", "Valid records:", report.CountValid)
	fmt.Fprintf(w, "  %-30s %d\n", "Invalid (skipped) lines:", report.CountInvalid)
	fmt.Fprintf(w, "  %-30s %d\n", "Distinct URLs:", report.URLs)
	fmt.Fprintf(w, "  %-30s %.3f\n", "Total request time (s):", report.TimeTotal)

	if len(report.Stats) > 0 {
		fmt.Fprintf(w, "\n  Top %d URLs by Total Time\n%s\n", len(report.Stats), thinLine)
		fmt.Fprintf(w, "  %-5s %8s %7s %10s %7s %8s %8s %8s  %s\n",
			"Rank", "Count", "Count%", "Sum(s)", "Time%", "Avg", "Max", "Med", "URL")
		fmt.Fprintf(w, "  %-5s %8s %7s %10s %7s %8s %8s %8s  %s\n",
			"----", "-----", "------", "------", "-----", "---", "---", "---", "---")
		for i, s := range report.Stats {
			url := s.URL
			if len(url) > 50 {
				url = url[:47] + "..."
			}
			fmt.Fprintf(w, "  %-5d %8d %6.2f%% %10.3f %6.2f%% %8.3f %8.3f %8.3f  %s\n",
				i+1, s.Count, s.CountPerc, s.TimeSum, s.TimePerc, s.TimeAvg, s.TimeMax, s.TimeMed, url)
		}
	}

	fmt.Fprintln(w)
}
