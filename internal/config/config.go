package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// Global configuration structure.
type Global struct {
	// Profiling
	SampleSize       int     `mapstructure:"sample_size" yaml:"sample_size"`
	NumericThreshold float64 `mapstructure:"numeric_threshold" yaml:"numeric_threshold"`
	DateThreshold    float64 `mapstructure:"date_threshold" yaml:"date_threshold"`

	// Output
	OutputFormat string `mapstructure:"output_format" yaml:"output_format"`
	PreviewRows  int    `mapstructure:"preview_rows" yaml:"preview_rows"`
	BatchJobs    int    `mapstructure:"batch_jobs" yaml:"batch_jobs"`

	// HTTP server
	ServerAddr     string  `mapstructure:"server_addr" yaml:"server_addr"`
	MaxUploadBytes int64   `mapstructure:"max_upload_bytes" yaml:"max_upload_bytes"`
	RateLimitRPS   float64 `mapstructure:"rate_limit_rps" yaml:"rate_limit_rps"`
	RateLimitBurst int     `mapstructure:"rate_limit_burst" yaml:"rate_limit_burst"`

	// Logging
	LogLevel  string `mapstructure:"log_level" yaml:"log_level"`
	LogFormat string `mapstructure:"log_format" yaml:"log_format"`
}

// Keys lists the settable configuration keys in display order.
var Keys = []string{
	"sample_size", "numeric_threshold", "date_threshold",
	"output_format", "preview_rows", "batch_jobs",
	"server_addr", "max_upload_bytes", "rate_limit_rps", "rate_limit_burst",
	"log_level", "log_format",
}

// OutputFormats are the accepted values of output_format.
var OutputFormats = []string{"json", "yaml", "markdown"}

func setDefaults(v *viper.Viper) {
	v.SetDefault("sample_size", 100)
	v.SetDefault("numeric_threshold", 0.7)
	v.SetDefault("date_threshold", 0.7)
	v.SetDefault("output_format", "json")
	v.SetDefault("preview_rows", 5)
	v.SetDefault("batch_jobs", 4)
	v.SetDefault("server_addr", "127.0.0.1:8080")
	v.SetDefault("max_upload_bytes", 10<<20)
	v.SetDefault("rate_limit_rps", 5.0)
	v.SetDefault("rate_limit_burst", 10)
	v.SetDefault("log_level", "info")
	v.SetDefault("log_format", "text")
}

// Defaults returns the built-in configuration.
func Defaults() *Global {
	v := viper.New()
	setDefaults(v)
	var c Global
	_ = v.Unmarshal(&c)
	return &c
}

// Dir returns ~/.datalens.
func Dir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve home dir: %w", err)
	}
	return filepath.Join(home, ".datalens"), nil
}

// Save writes the given configuration to the cfgFile path. If cfgFile is empty,
// it writes to ~/.datalens/config.yaml, creating the directory if necessary.
func Save(c *Global, cfgFile string) error {
	path := cfgFile
	if path == "" {
		dir, err := Dir()
		if err != nil {
			return err
		}
		path = filepath.Join(dir, "config.yaml")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("mkdir config dir: %w", err)
	}
	b, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal yaml: %w", err)
	}
	if err := os.WriteFile(path, b, 0o644); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}

// Load loads configuration from file, env, and defaults.
// Precedence: flags (applied by callers) > env > config file > defaults.
func Load(cfgFile string) (*Global, error) {
	v := viper.New()
	v.SetEnvPrefix("DATALENS")
	v.AutomaticEnv()
	setDefaults(v)

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		dir, err := Dir()
		if err != nil {
			return nil, err
		}
		v.AddConfigPath(dir)
		v.SetConfigName("config")
		v.SetConfigType("yaml")
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var c Global
	if err := v.Unmarshal(&c); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

// Validate rejects values the profiler cannot use.
func (c *Global) Validate() error {
	if c.SampleSize <= 0 {
		return fmt.Errorf("sample_size must be positive, got %d", c.SampleSize)
	}
	if c.NumericThreshold <= 0 || c.NumericThreshold > 1 {
		return fmt.Errorf("numeric_threshold must be in (0,1], got %g", c.NumericThreshold)
	}
	if c.DateThreshold <= 0 || c.DateThreshold > 1 {
		return fmt.Errorf("date_threshold must be in (0,1], got %g", c.DateThreshold)
	}
	if !validFormat(c.OutputFormat) {
		return fmt.Errorf("invalid output_format: %s (use %s)", c.OutputFormat, strings.Join(OutputFormats, ", "))
	}
	if c.PreviewRows < 0 {
		return fmt.Errorf("preview_rows must not be negative")
	}
	if c.BatchJobs <= 0 {
		return fmt.Errorf("batch_jobs must be positive, got %d", c.BatchJobs)
	}
	return nil
}

func validFormat(f string) bool {
	for _, o := range OutputFormats {
		if f == o {
			return true
		}
	}
	return false
}

// Get returns the display form of key.
func (c *Global) Get(key string) (string, error) {
	switch key {
	case "sample_size":
		return strconv.Itoa(c.SampleSize), nil
	case "numeric_threshold":
		return strconv.FormatFloat(c.NumericThreshold, 'f', -1, 64), nil
	case "date_threshold":
		return strconv.FormatFloat(c.DateThreshold, 'f', -1, 64), nil
	case "output_format":
		return c.OutputFormat, nil
	case "preview_rows":
		return strconv.Itoa(c.PreviewRows), nil
	case "batch_jobs":
		return strconv.Itoa(c.BatchJobs), nil
	case "server_addr":
		return c.ServerAddr, nil
	case "max_upload_bytes":
		return strconv.FormatInt(c.MaxUploadBytes, 10), nil
	case "rate_limit_rps":
		return strconv.FormatFloat(c.RateLimitRPS, 'f', -1, 64), nil
	case "rate_limit_burst":
		return strconv.Itoa(c.RateLimitBurst), nil
	case "log_level":
		return c.LogLevel, nil
	case "log_format":
		return c.LogFormat, nil
	}
	return "", fmt.Errorf("unknown key: %s", key)
}

// Set parses val into key and validates the result.
func (c *Global) Set(key, val string) error {
	next := *c
	switch key {
	case "sample_size":
		i, err := strconv.Atoi(val)
		if err != nil {
			return fmt.Errorf("invalid int for sample_size: %w", err)
		}
		next.SampleSize = i
	case "numeric_threshold", "date_threshold":
		f, err := strconv.ParseFloat(val, 64)
		if err != nil {
			return fmt.Errorf("invalid float for %s: %w", key, err)
		}
		if key == "numeric_threshold" {
			next.NumericThreshold = f
		} else {
			next.DateThreshold = f
		}
	case "output_format":
		next.OutputFormat = strings.ToLower(val)
	case "preview_rows":
		i, err := strconv.Atoi(val)
		if err != nil {
			return fmt.Errorf("invalid int for preview_rows: %w", err)
		}
		next.PreviewRows = i
	case "batch_jobs":
		i, err := strconv.Atoi(val)
		if err != nil {
			return fmt.Errorf("invalid int for batch_jobs: %w", err)
		}
		next.BatchJobs = i
	case "server_addr":
		next.ServerAddr = val
	case "max_upload_bytes":
		i, err := strconv.ParseInt(val, 10, 64)
		if err != nil || i < 0 {
			return fmt.Errorf("invalid int for max_upload_bytes: %v", val)
		}
		next.MaxUploadBytes = i
	case "rate_limit_rps":
		f, err := strconv.ParseFloat(val, 64)
		if err != nil || f < 0 {
			return fmt.Errorf("invalid float for rate_limit_rps: %v", val)
		}
		next.RateLimitRPS = f
	case "rate_limit_burst":
		i, err := strconv.Atoi(val)
		if err != nil || i < 0 {
			return fmt.Errorf("invalid int for rate_limit_burst: %v", val)
		}
		next.RateLimitBurst = i
	case "log_level":
		switch strings.ToLower(val) {
		case "debug", "info", "warn", "error":
			next.LogLevel = strings.ToLower(val)
		default:
			return fmt.Errorf("invalid log_level: %s (use debug, info, warn or error)", val)
		}
	case "log_format":
		switch strings.ToLower(val) {
		case "json", "text":
			next.LogFormat = strings.ToLower(val)
		default:
			return fmt.Errorf("invalid log_format: %s (use json or text)", val)
		}
	default:
		return fmt.Errorf("unknown key: %s", key)
	}
	if err := next.Validate(); err != nil {
		return err
	}
	*c = next
	return nil
}
