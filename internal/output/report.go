package output

import (
	_ "embed"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/loganalyzer/internal/analyzer"
)

//go:embed templates/report.html
var reportTemplate string

const placeholder = "table_json"

// ReportPath returns the report location for a log dated date.
func ReportPath(dir string, date time.Time) string {
	return filepath.Join(dir, date.Format("report-2006.01.02.html"))
}

// RenderReport substitutes the stats table into the report template. Only
// $table_json and ${table_json} are replaced; any other $ text is kept.
func RenderReport(w io.Writer, stats []analyzer.URLStat) error {
	table, err := MarshalStats(stats)
	if err != nil {
		return fmt.Errorf("encode stats: %w", err)
	}
	r := strings.NewReplacer(
		"${"+placeholder+"}", string(table),
		"$"+placeholder, string(table),
	)
	_, err = r.WriteString(w, reportTemplate)
	return err
}

// WriteReport renders the report to path. The file appears only once fully
// written.
func WriteReport(path string, stats []analyzer.URLStat) (err error) {
	tmp, err := os.CreateTemp(filepath.Dir(path), ".report-*.tmp")
	if err != nil {
		return fmt.Errorf("create report: %w", err)
	}
	defer func() {
		if err != nil {
			tmp.Close()
			os.Remove(tmp.Name())
		}
	}()

	if err = RenderReport(tmp, stats); err != nil {
		return fmt.Errorf("write report: %w", err)
	}
	if err = tmp.Chmod(0644); err != nil {
		return fmt.Errorf("write report: %w", err)
	}
	if err = tmp.Close(); err != nil {
		return fmt.Errorf("write report: %w", err)
	}
	if err = os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("write report: %w", err)
	}
	return nil
}
