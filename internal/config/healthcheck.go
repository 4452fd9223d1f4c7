package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/pflag"
)

type HealthCheckConfig struct {
	APIURL       string
	DashboardURL string
	TargetsFile  string
	Interval     time.Duration
	Timeout      time.Duration
	Once         bool
	Logger       LoggerConfig
}

// LoadHealthCheck reads the health-check client configuration. Command-line
// flags take precedence over environment variables.
func LoadHealthCheck(args []string) (*HealthCheckConfig, error) {
	v, err := newViper()
	if err != nil {
		return nil, err
	}

	v.SetDefault("HEALTHCHECK_API_URL", "http://127.0.0.1:8000")
	v.SetDefault("HEALTHCHECK_DASHBOARD_URL", "")
	v.SetDefault("HEALTHCHECK_TARGETS_FILE", "")
	v.SetDefault("HEALTHCHECK_INTERVAL", "30s")
	v.SetDefault("HEALTHCHECK_TIMEOUT", "5s")
	v.SetDefault("HEALTHCHECK_ONCE", false)
	setLoggerDefaults(v)
	v.SetDefault("LOGGER_FORMAT", "text")

	fs := pflag.NewFlagSet("healthcheck", pflag.ContinueOnError)
	fs.String("api-url", "", "prediction API base URL")
	fs.String("dashboard-url", "", "dashboard URL to probe (optional)")
	fs.String("targets", "", "YAML file listing targets")
	fs.Duration("interval", 0, "delay between rounds")
	fs.Duration("timeout", 0, "per-request timeout")
	fs.Bool("once", false, "run one round and exit non-zero on failure")
	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	bind := map[string]string{
		"HEALTHCHECK_API_URL":       "api-url",
		"HEALTHCHECK_DASHBOARD_URL": "dashboard-url",
		"HEALTHCHECK_TARGETS_FILE":  "targets",
		"HEALTHCHECK_INTERVAL":      "interval",
		"HEALTHCHECK_TIMEOUT":       "timeout",
		"HEALTHCHECK_ONCE":          "once",
	}
	for key, flag := range bind {
		if f := fs.Lookup(flag); f != nil && f.Changed {
			if err := v.BindPFlag(key, f); err != nil {
				return nil, fmt.Errorf("bind flag %s: %w", flag, err)
			}
		}
	}

	cfg := &HealthCheckConfig{
		APIURL:       strings.TrimRight(v.GetString("HEALTHCHECK_API_URL"), "/"),
		DashboardURL: v.GetString("HEALTHCHECK_DASHBOARD_URL"),
		TargetsFile:  v.GetString("HEALTHCHECK_TARGETS_FILE"),
		Interval:     v.GetDuration("HEALTHCHECK_INTERVAL"),
		Timeout:      v.GetDuration("HEALTHCHECK_TIMEOUT"),
		Once:         v.GetBool("HEALTHCHECK_ONCE"),
		Logger:       loggerConfig(v),
	}

	if cfg.APIURL == "" && cfg.TargetsFile == "" {
		return nil, fmt.Errorf("either HEALTHCHECK_API_URL or HEALTHCHECK_TARGETS_FILE is required")
	}
	if cfg.Timeout <= 0 {
		return nil, fmt.Errorf("HEALTHCHECK_TIMEOUT must be > 0")
	}
	if !cfg.Once && cfg.Interval <= 0 {
		return nil, fmt.Errorf("HEALTHCHECK_INTERVAL must be > 0")
	}
	return cfg, nil
}
