package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/cast"
	"github.com/spf13/viper"
)

// DefaultPath is the config file read when none is given explicitly.
const DefaultPath = "./config.ini"

// EnvPrefix prefixes environment overrides, e.g. LOGANALYZER_MAIN_REPORT_SIZE.
const EnvPrefix = "LOGANALYZER"

// Keys in the [main] section of the ini file.
const (
	KeyReportSize         = "main.report_size"
	KeyReportDir          = "main.report_dir"
	KeyLogDir             = "main.log_dir"
	KeyAllowedInvalidPart = "main.allowed_invalid_records_part"
	KeyLogging            = "main.logging"
	KeyLogFile            = "main.log_file"
	KeyMetricsFile        = "main.metrics_file"
)

// Config holds the settings of one run.
type Config struct {
	ReportSize         int
	ReportDir          string
	LogDir             string
	AllowedInvalidPart float64
	LogLevel           string
	LogFile            string
	MetricsFile        string
}

// SetDefaults registers the defaults of every key on v.
func SetDefaults(v *viper.Viper) {
	v.SetDefault(KeyReportSize, 1000)
	v.SetDefault(KeyReportDir, "./reports")
	v.SetDefault(KeyLogDir, "./log")
	v.SetDefault(KeyAllowedInvalidPart, 0.2)
	v.SetDefault(KeyLogging, "INFO")
	v.SetDefault(KeyLogFile, "")
	v.SetDefault(KeyMetricsFile, "")
}

// Load reads the ini file at path into v and returns the validated config.
// A missing file is an error only when required is set; otherwise defaults,
// environment and bound flags apply.
func Load(v *viper.Viper, path string, required bool) (Config, error) {
	// A .env file is optional.
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return Config{}, fmt.Errorf("load .env: %w", err)
	}

	SetDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		if _, err := os.Stat(path); err != nil {
			if required || !errors.Is(err, os.ErrNotExist) {
				return Config{}, fmt.Errorf("config %s: %w", path, err)
			}
		} else {
			v.SetConfigFile(path)
			v.SetConfigType("ini")
			if err := v.ReadInConfig(); err != nil {
				return Config{}, fmt.Errorf("read config %s: %w", path, err)
			}
		}
	}

	return fromViper(v)
}

func fromViper(v *viper.Viper) (Config, error) {
	size, err := cast.ToIntE(v.Get(KeyReportSize))
	if err != nil {
		return Config{}, fmt.Errorf("REPORT_SIZE: %w", err)
	}
	if size < 0 {
		return Config{}, fmt.Errorf("REPORT_SIZE: must not be negative, got %d", size)
	}

	part, err := cast.ToFloat64E(v.Get(KeyAllowedInvalidPart))
	if err != nil {
		return Config{}, fmt.Errorf("ALLOWED_INVALID_RECORDS_PART: %w", err)
	}
	if part < 0 || part > 1 {
		return Config{}, fmt.Errorf("ALLOWED_INVALID_RECORDS_PART: must be within [0, 1], got %v", part)
	}

	cfg := Config{
		ReportSize:         size,
		ReportDir:          cast.ToString(v.Get(KeyReportDir)),
		LogDir:             cast.ToString(v.Get(KeyLogDir)),
		AllowedInvalidPart: part,
		LogLevel:           cast.ToString(v.Get(KeyLogging)),
		LogFile:            cast.ToString(v.Get(KeyLogFile)),
		MetricsFile:        cast.ToString(v.Get(KeyMetricsFile)),
	}
	if cfg.LogDir == "" {
		return Config{}, errors.New("LOG_DIR: must not be empty")
	}
	if cfg.ReportDir == "" {
		return Config{}, errors.New("REPORT_DIR: must not be empty")
	}
	return cfg, nil
}
