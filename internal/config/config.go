package config

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Server  ServerConfig
	Model   ModelConfig
	Live    LiveConfig
	Cache   CacheConfig
	Metrics MetricsConfig
	CORS    CORSConfig
	Logger  LoggerConfig
}

type ServerConfig struct {
	Host            string
	Port            int
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	ShutdownTimeout time.Duration
}

// Addr is host:port for net/http.
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

type ModelConfig struct {
	Path string
}

// LiveConfig configures the upstream air-quality source. Variables maps
// feature names to upstream hourly variable names.
type LiveConfig struct {
	Enabled      bool
	URL          string
	Timeout      time.Duration
	Latitude     float64
	Longitude    float64
	LocationName string
	Variables    map[string]string
}

type CacheConfig struct {
	Backend       string
	TTL           time.Duration
	Size          int
	RedisAddr     string
	RedisPassword string
	RedisDB       int
}

type MetricsConfig struct {
	Enabled bool
	Path    string
}

type CORSConfig struct {
	AllowedOrigins []string
}

type LoggerConfig struct {
	Level      string
	Format     string
	File       string
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
}

const (
	CacheBackendMemory = "memory"
	CacheBackendRedis  = "redis"
	CacheBackendNone   = "none"
)

const defaultLiveVariables = "pm2_5=pm2_5,pm10=pm10,no2=nitrogen_dioxide,so2=sulphur_dioxide,co=carbon_monoxide,o3=ozone"

// Load reads the prediction service configuration from the environment,
// optionally layered over a YAML file named by CONFIG_FILE.
func Load() (*Config, error) {
	v, err := newViper()
	if err != nil {
		return nil, err
	}

	// Defaults
	v.SetDefault("SERVER_HOST", "0.0.0.0")
	v.SetDefault("SERVER_PORT", 8000)
	v.SetDefault("SERVER_READ_TIMEOUT", "10s")
	v.SetDefault("SERVER_WRITE_TIMEOUT", "30s")
	v.SetDefault("SERVER_IDLE_TIMEOUT", "60s")
	v.SetDefault("SERVER_SHUTDOWN_TIMEOUT", "10s")
	v.SetDefault("MODEL_PATH", "model.json")
	v.SetDefault("LIVE_ENABLED", true)
	v.SetDefault("LIVE_URL", "https://air-quality-api.open-meteo.com")
	v.SetDefault("LIVE_TIMEOUT", "10s")
	v.SetDefault("LIVE_LATITUDE", 28.6139)
	v.SetDefault("LIVE_LONGITUDE", 77.2090)
	v.SetDefault("LIVE_LOCATION_NAME", "Delhi, India")
	v.SetDefault("LIVE_VARIABLES", defaultLiveVariables)
	v.SetDefault("CACHE_BACKEND", CacheBackendMemory)
	v.SetDefault("CACHE_TTL", "5m")
	v.SetDefault("CACHE_SIZE", 256)
	v.SetDefault("CACHE_REDIS_ADDR", "localhost:6379")
	v.SetDefault("CACHE_REDIS_PASSWORD", "")
	v.SetDefault("CACHE_REDIS_DB", 0)
	v.SetDefault("METRICS_ENABLED", true)
	v.SetDefault("METRICS_PATH", "/metrics")
	v.SetDefault("CORS_ALLOWED_ORIGINS", "*")
	setLoggerDefaults(v)

	variables, err := parsePairs(v.GetString("LIVE_VARIABLES"))
	if err != nil {
		return nil, fmt.Errorf("LIVE_VARIABLES: %w", err)
	}

	cfg := &Config{
		Server: ServerConfig{
			Host:            v.GetString("SERVER_HOST"),
			Port:            v.GetInt("SERVER_PORT"),
			ReadTimeout:     v.GetDuration("SERVER_READ_TIMEOUT"),
			WriteTimeout:    v.GetDuration("SERVER_WRITE_TIMEOUT"),
			IdleTimeout:     v.GetDuration("SERVER_IDLE_TIMEOUT"),
			ShutdownTimeout: v.GetDuration("SERVER_SHUTDOWN_TIMEOUT"),
		},
		Model: ModelConfig{
			Path: v.GetString("MODEL_PATH"),
		},
		Live: LiveConfig{
			Enabled:      v.GetBool("LIVE_ENABLED"),
			URL:          strings.TrimRight(v.GetString("LIVE_URL"), "/"),
			Timeout:      v.GetDuration("LIVE_TIMEOUT"),
			Latitude:     v.GetFloat64("LIVE_LATITUDE"),
			Longitude:    v.GetFloat64("LIVE_LONGITUDE"),
			LocationName: v.GetString("LIVE_LOCATION_NAME"),
			Variables:    toMap(variables),
		},
		Cache: CacheConfig{
			Backend:       strings.ToLower(v.GetString("CACHE_BACKEND")),
			TTL:           v.GetDuration("CACHE_TTL"),
			Size:          v.GetInt("CACHE_SIZE"),
			RedisAddr:     v.GetString("CACHE_REDIS_ADDR"),
			RedisPassword: v.GetString("CACHE_REDIS_PASSWORD"),
			RedisDB:       v.GetInt("CACHE_REDIS_DB"),
		},
		Metrics: MetricsConfig{
			Enabled: v.GetBool("METRICS_ENABLED"),
			Path:    v.GetString("METRICS_PATH"),
		},
		CORS: CORSConfig{
			AllowedOrigins: splitList(v.GetString("CORS_ALLOWED_ORIGINS")),
		},
		Logger: loggerConfig(v),
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("SERVER_PORT %d out of range", c.Server.Port)
	}
	if c.Model.Path == "" {
		return fmt.Errorf("MODEL_PATH is required")
	}
	switch c.Cache.Backend {
	case CacheBackendMemory, CacheBackendRedis, CacheBackendNone:
	default:
		return fmt.Errorf("CACHE_BACKEND %q must be memory, redis or none", c.Cache.Backend)
	}
	if c.Cache.Backend == CacheBackendMemory && c.Cache.Size <= 0 {
		return fmt.Errorf("CACHE_SIZE must be > 0")
	}
	if c.Live.Enabled && c.Live.URL == "" {
		return fmt.Errorf("LIVE_URL is required when LIVE_ENABLED")
	}
	if c.Metrics.Enabled && !strings.HasPrefix(c.Metrics.Path, "/") {
		return fmt.Errorf("METRICS_PATH must start with /")
	}
	return nil
}

func newViper() (*viper.Viper, error) {
	v := viper.New()
	v.AutomaticEnv()

	if file := v.GetString("CONFIG_FILE"); file != "" {
		v.SetConfigFile(file)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config file %s: %w", file, err)
		}
	}
	return v, nil
}

func setLoggerDefaults(v *viper.Viper) {
	v.SetDefault("LOGGER_LEVEL", "info")
	v.SetDefault("LOGGER_FORMAT", "json")
	v.SetDefault("LOGGER_FILE", "")
	v.SetDefault("LOGGER_MAX_SIZE_MB", 100)
	v.SetDefault("LOGGER_MAX_BACKUPS", 3)
	v.SetDefault("LOGGER_MAX_AGE_DAYS", 28)
}

func loggerConfig(v *viper.Viper) LoggerConfig {
	return LoggerConfig{
		Level:      v.GetString("LOGGER_LEVEL"),
		Format:     v.GetString("LOGGER_FORMAT"),
		File:       v.GetString("LOGGER_FILE"),
		MaxSizeMB:  v.GetInt("LOGGER_MAX_SIZE_MB"),
		MaxBackups: v.GetInt("LOGGER_MAX_BACKUPS"),
		MaxAgeDays: v.GetInt("LOGGER_MAX_AGE_DAYS"),
	}
}

// Pair is one key=value entry of a list setting, order preserved.
type Pair struct {
	Key   string
	Value string
}

// parsePairs parses "a=b,c=d". A bare "a" means "a=a".
func parsePairs(s string) ([]Pair, error) {
	var out []Pair
	seen := make(map[string]struct{})
	for _, item := range splitList(s) {
		key, value, found := strings.Cut(item, "=")
		key = strings.TrimSpace(key)
		value = strings.TrimSpace(value)
		if !found {
			value = key
		}
		if key == "" || value == "" {
			return nil, fmt.Errorf("malformed entry %q", item)
		}
		if _, dup := seen[key]; dup {
			return nil, fmt.Errorf("duplicate key %q", key)
		}
		seen[key] = struct{}{}
		out = append(out, Pair{Key: key, Value: value})
	}
	return out, nil
}

func parseFloatPairs(s string) (map[string]float64, error) {
	pairs, err := parsePairs(s)
	if err != nil {
		return nil, err
	}
	out := make(map[string]float64, len(pairs))
	for _, p := range pairs {
		f, err := strconv.ParseFloat(p.Value, 64)
		if err != nil {
			return nil, fmt.Errorf("value for %q is not a number", p.Key)
		}
		out[p.Key] = f
	}
	return out, nil
}

func toMap(pairs []Pair) map[string]string {
	out := make(map[string]string, len(pairs))
	for _, p := range pairs {
		out[p.Key] = p.Value
	}
	return out
}

func splitList(s string) []string {
	var out []string
	for _, item := range strings.Split(s, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}
