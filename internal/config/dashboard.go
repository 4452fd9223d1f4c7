package config

import (
	"fmt"
	"strings"
	"time"
)

type DashboardConfig struct {
	Host            string
	Port            int
	APIURL          string
	APITimeout      time.Duration
	RefreshInterval time.Duration
	HistorySize     int
	SampleMode      bool
	Logger          LoggerConfig
}

// Addr is host:port for net/http.
func (d DashboardConfig) Addr() string {
	return fmt.Sprintf("%s:%d", d.Host, d.Port)
}

// LoadDashboard reads the dashboard configuration.
func LoadDashboard() (*DashboardConfig, error) {
	v, err := newViper()
	if err != nil {
		return nil, err
	}

	v.SetDefault("DASHBOARD_HOST", "0.0.0.0")
	v.SetDefault("DASHBOARD_PORT", 8501)
	v.SetDefault("DASHBOARD_API_URL", "http://127.0.0.1:8000")
	v.SetDefault("DASHBOARD_API_TIMEOUT", "10s")
	v.SetDefault("DASHBOARD_REFRESH_INTERVAL", "30s")
	v.SetDefault("DASHBOARD_HISTORY_SIZE", 50)
	v.SetDefault("DASHBOARD_SAMPLE_MODE", false)
	setLoggerDefaults(v)

	cfg := &DashboardConfig{
		Host:            v.GetString("DASHBOARD_HOST"),
		Port:            v.GetInt("DASHBOARD_PORT"),
		APIURL:          strings.TrimRight(v.GetString("DASHBOARD_API_URL"), "/"),
		APITimeout:      v.GetDuration("DASHBOARD_API_TIMEOUT"),
		RefreshInterval: v.GetDuration("DASHBOARD_REFRESH_INTERVAL"),
		HistorySize:     v.GetInt("DASHBOARD_HISTORY_SIZE"),
		SampleMode:      v.GetBool("DASHBOARD_SAMPLE_MODE"),
		Logger:          loggerConfig(v),
	}

	if cfg.Port <= 0 || cfg.Port > 65535 {
		return nil, fmt.Errorf("DASHBOARD_PORT %d out of range", cfg.Port)
	}
	if cfg.APIURL == "" {
		return nil, fmt.Errorf("DASHBOARD_API_URL is required")
	}
	if cfg.RefreshInterval < 10*time.Second || cfg.RefreshInterval > 60*time.Second {
		return nil, fmt.Errorf("DASHBOARD_REFRESH_INTERVAL %s must be between 10s and 60s", cfg.RefreshInterval)
	}
	if cfg.HistorySize <= 0 {
		cfg.HistorySize = 50
	}
	return cfg, nil
}
