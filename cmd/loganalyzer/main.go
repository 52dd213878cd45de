package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/loganalyzer/internal/analyzer"
	"github.com/loganalyzer/internal/config"
	"github.com/loganalyzer/internal/locator"
	"github.com/loganalyzer/internal/logging"
	"github.com/loganalyzer/internal/metrics"
	"github.com/loganalyzer/internal/output"
	"github.com/loganalyzer/internal/parser"
)

const version = "1.0.0"

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	v := viper.New()

	cmd := &cobra.Command{
		Use:   "loganalyzer",
		Short: "Report the slowest URLs of the latest nginx UI access log",
		Long: `Finds the most recent nginx-access-ui.log-YYYYMMDD.(log|gz) in the log
directory, aggregates request time per URL and writes
REPORT_DIR/report-YYYY.MM.DD.html.

Settings come from the [main] section of an ini config file, LOGANALYZER_MAIN_*
environment variables (a .env file is loaded if present) and flags.

Examples:
  loganalyzer
  loganalyzer --config /etc/loganalyzer/config.ini
  loganalyzer --log-dir /var/log/nginx --report-size 100 --print table`,
		Version:       version,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfgPath, _ := cmd.Flags().GetString("config")
			cfg, err := config.Load(v, cfgPath, cmd.Flags().Changed("config"))
			if err != nil {
				return err
			}

			printFmt, _ := cmd.Flags().GetString("print")
			if err := validatePrint(printFmt); err != nil {
				return err
			}
			progress, _ := cmd.Flags().GetBool("progress")

			if _, err := logging.Setup(logging.Options{
				Level: cfg.LogLevel,
				File:  cfg.LogFile,
				Out:   cmd.ErrOrStderr(),
			}); err != nil {
				return fmt.Errorf("setup logger: %w", err)
			}

			start := time.Now()
			result, err := run(cfg, runOptions{
				Print:    printFmt,
				Progress: progress,
				Stdout:   cmd.OutOrStdout(),
				Stderr:   cmd.ErrOrStderr(),
			})
			metrics.ObserveRun(result, start)
			if cfg.MetricsFile != "" {
				if merr := metrics.WriteTextfile(cfg.MetricsFile); merr != nil {
					log.Warn().Err(merr).Str("path", cfg.MetricsFile).Msg("cannot write metrics")
				}
			}
			if err != nil {
				log.Error().Err(err).Msg("analysis failed")
				return err
			}
			return nil
		},
	}

	// Flags.
	f := cmd.Flags()
	f.String("config", config.DefaultPath, "path to ini config file")
	f.String("log-dir", "./log", "directory with nginx UI access logs")
	f.String("report-dir", "./reports", "directory for HTML reports")
	f.Int("report-size", 1000, "number of URLs in the report")
	f.Float64("allowed-invalid-part", 0.2, "largest tolerated share of unparsable lines")
	f.String("log-level", "INFO", "log level: debug, info, warning, error")
	f.String("log-file", "", "write the log to a rotating file instead of stderr")
	f.String("metrics-file", "", "write run metrics to a Prometheus textfile")
	f.String("print", "none", "also print the stats to stdout: none, table, json, csv")
	f.Bool("progress", false, "show a progress bar while reading the log")

	_ = v.BindPFlag(config.KeyLogDir, f.Lookup("log-dir"))
	_ = v.BindPFlag(config.KeyReportDir, f.Lookup("report-dir"))
	_ = v.BindPFlag(config.KeyReportSize, f.Lookup("report-size"))
	_ = v.BindPFlag(config.KeyAllowedInvalidPart, f.Lookup("allowed-invalid-part"))
	_ = v.BindPFlag(config.KeyLogging, f.Lookup("log-level"))
	_ = v.BindPFlag(config.KeyLogFile, f.Lookup("log-file"))
	_ = v.BindPFlag(config.KeyMetricsFile, f.Lookup("metrics-file"))

	return cmd
}

func validatePrint(format string) error {
	switch strings.ToLower(format) {
	case "", "none", "table", "json", "csv":
		return nil
	}
	return fmt.Errorf("invalid --print format %q: want none, table, json or csv", format)
}

type runOptions struct {
	Print    string
	Progress bool
	Stdout   io.Writer
	Stderr   io.Writer
}

// run performs one analysis and returns the metrics result label. Benign
// outcomes (no logs, report exists, no valid records) return a nil error.
func run(cfg config.Config, opts runOptions) (string, error) {
	if err := os.MkdirAll(cfg.ReportDir, 0755); err != nil {
		return metrics.ResultError, fmt.Errorf("create report directory: %w", err)
	}

	h, ok, err := locator.Locate(cfg.LogDir)
	if err != nil {
		return metrics.ResultError, err
	}
	if !ok {
		log.Info().Str("log_dir", cfg.LogDir).Msg("there are no valid logs in the directory")
		return metrics.ResultNoLogs, nil
	}
	log.Debug().
		Str("path", h.Path).
		Str("compression", h.Compression.String()).
		Str("date", h.Date.Format("2006-01-02")).
		Msg("found the most recent log")

	reportPath := output.ReportPath(cfg.ReportDir, h.Date)
	if _, err := os.Stat(reportPath); err == nil {
		log.Info().Str("report", reportPath).Msg("report already exists")
		return metrics.ResultExists, nil
	} else if !errors.Is(err, os.ErrNotExist) {
		return metrics.ResultError, fmt.Errorf("check report: %w", err)
	}

	aopts := analyzer.Options{
		ReportSize:         cfg.ReportSize,
		AllowedInvalidPart: cfg.AllowedInvalidPart,
	}
	var pb *output.Progress
	if opts.Progress {
		pb = output.NewProgress(opts.Stderr, h.Path)
		aopts.OpenOptions = append(aopts.OpenOptions, parser.WithRawReader(pb.Wrap))
	}

	report, err := analyzer.Analyze(h, aopts)
	if pb != nil {
		pb.Done(err == nil)
	}
	if err != nil {
		return metrics.ResultError, fmt.Errorf("analyze %s: %w", h.Path, err)
	}
	metrics.ObserveReport(report)
	log.Info().
		Int("valid", report.CountValid).
		Int("invalid", report.CountInvalid).
		Int("urls", report.URLs).
		Msg("log analyzed")

	if report.CountValid == 0 {
		log.Info().Str("path", h.Path).Msg("the most recent log file has no valid records")
		return metrics.ResultNoRecords, nil
	}

	if err := output.WriteReport(reportPath, report.Stats); err != nil {
		return metrics.ResultError, err
	}
	log.Debug().Str("report", reportPath).Msg("report has been successfully generated")

	if err := printStats(opts.Stdout, opts.Print, h, report); err != nil {
		return metrics.ResultError, fmt.Errorf("print stats: %w", err)
	}
	return metrics.ResultOK, nil
}

func printStats(w io.Writer, format string, h locator.Handle, report analyzer.Report) error {
	switch strings.ToLower(format) {
	case "table":
		output.WriteTable(w, h, report)
	case "json":
		return output.WriteJSON(w, report.Stats)
	case "csv":
		return output.WriteCSV(w, report.Stats)
	}
	return nil
}
