package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v2"
)

// EnvPrefix namespaces every environment variable
const EnvPrefix = "INSIGHT"

// EnvConfigFile names the variable holding the YAML config path
const EnvConfigFile = "INSIGHT_CONFIG"

// Config represents the complete application configuration
type Config struct {
	Server    ServerConfig    `yaml:"server" envconfig:"SERVER"`
	Logging   LoggingConfig   `yaml:"logging" envconfig:"LOGGING"`
	Analytics AnalyticsConfig `yaml:"analytics" envconfig:"ANALYTICS"`
	Insights  InsightsConfig  `yaml:"insights" envconfig:"INSIGHTS"`
	Store     StoreConfig     `yaml:"store" envconfig:"STORE"`
	Session   SessionConfig   `yaml:"session" envconfig:"SESSION"`
	Security  SecurityConfig  `yaml:"security" envconfig:"SECURITY"`
	Telemetry TelemetryConfig `yaml:"telemetry" envconfig:"TELEMETRY"`
	WebSocket WebSocketConfig `yaml:"websocket" envconfig:"WEBSOCKET"`
}

// ServerConfig contains HTTP server configuration
type ServerConfig struct {
	Host            string        `yaml:"host" envconfig:"HOST"`
	Port            int           `yaml:"port" envconfig:"PORT"`
	ReadTimeout     time.Duration `yaml:"read_timeout" envconfig:"READ_TIMEOUT"`
	WriteTimeout    time.Duration `yaml:"write_timeout" envconfig:"WRITE_TIMEOUT"`
	IdleTimeout     time.Duration `yaml:"idle_timeout" envconfig:"IDLE_TIMEOUT"`
	MaxHeaderBytes  int           `yaml:"max_header_bytes" envconfig:"MAX_HEADER_BYTES"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" envconfig:"SHUTDOWN_TIMEOUT"`
	MaxUploadBytes  int64         `yaml:"max_upload_bytes" envconfig:"MAX_UPLOAD_BYTES"`
	PublicBaseURL   string        `yaml:"public_base_url" envconfig:"PUBLIC_BASE_URL"`
}

// Address returns the listen address
func (s ServerConfig) Address() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Level       string `yaml:"level" envconfig:"LEVEL"`
	Format      string `yaml:"format" envconfig:"FORMAT"`
	Output      string `yaml:"output" envconfig:"OUTPUT"`
	FilePath    string `yaml:"file_path" envconfig:"FILE_PATH"`
	Development bool   `yaml:"development" envconfig:"DEVELOPMENT"`
}

// AnalyticsConfig tunes dashboard aggregation
type AnalyticsConfig struct {
	DefaultCPM          float64 `yaml:"default_cpm" envconfig:"DEFAULT_CPM"`
	SuitabilityBaseline float64 `yaml:"suitability_baseline" envconfig:"SUITABILITY_BASELINE"`
	TopCategories       int     `yaml:"top_categories" envconfig:"TOP_CATEGORIES"`
	TrendWindow         int     `yaml:"trend_window" envconfig:"TREND_WINDOW"`
	IVTBenchmark        float64 `yaml:"ivt_benchmark" envconfig:"IVT_BENCHMARK"`
	BenchmarkLabel      string  `yaml:"benchmark_label" envconfig:"BENCHMARK_LABEL"`
	HeaderScanLimit     int     `yaml:"header_scan_limit" envconfig:"HEADER_SCAN_LIMIT"`
	FilenameHints       bool    `yaml:"filename_hints" envconfig:"FILENAME_HINTS"`
}

// InsightsConfig selects the insight language
type InsightsConfig struct {
	Language string `yaml:"language" envconfig:"LOCALE"`
}

// StoreConfig selects and configures the snapshot store
type StoreConfig struct {
	Driver        string        `yaml:"driver" envconfig:"DRIVER"`
	DSN           string        `yaml:"dsn" envconfig:"DSN"`
	MaxChartRows  int           `yaml:"max_chart_rows" envconfig:"MAX_CHART_ROWS"`
	DefaultExpiry time.Duration `yaml:"default_expiry" envconfig:"DEFAULT_EXPIRY"`
	Redis         RedisConfig   `yaml:"redis" envconfig:"REDIS"`
}

// RedisConfig contains Redis connection settings
type RedisConfig struct {
	URL          string        `yaml:"url" envconfig:"URL"`
	Address      string        `yaml:"address" envconfig:"ADDRESS"`
	Password     string        `yaml:"password" envconfig:"PASSWORD"`
	DB           int           `yaml:"db" envconfig:"DB"`
	PoolSize     int           `yaml:"pool_size" envconfig:"POOL_SIZE"`
	DialTimeout  time.Duration `yaml:"dial_timeout" envconfig:"DIAL_TIMEOUT"`
	ReadTimeout  time.Duration `yaml:"read_timeout" envconfig:"READ_TIMEOUT"`
	WriteTimeout time.Duration `yaml:"write_timeout" envconfig:"WRITE_TIMEOUT"`
	KeyPrefix    string        `yaml:"key_prefix" envconfig:"KEY_PREFIX"`
}

// SessionConfig bounds upload sessions
type SessionConfig struct {
	MaxConcurrentDecodes int           `yaml:"max_concurrent_decodes" envconfig:"MAX_CONCURRENT_DECODES"`
	MaxFiles             int           `yaml:"max_files" envconfig:"MAX_FILES"`
	Timeout              time.Duration `yaml:"timeout" envconfig:"TIMEOUT"`
	// MaxRetained and RetainFor bound the dashboards kept for sharing
	MaxRetained          int           `yaml:"max_retained" envconfig:"MAX_RETAINED"`
	RetainFor            time.Duration `yaml:"retain_for" envconfig:"RETAIN_FOR"`
}

// SecurityConfig contains security-related configuration
type SecurityConfig struct {
	AllowedOrigins []string        `yaml:"allowed_origins" envconfig:"ALLOWED_ORIGINS"`
	EnableCORS     bool            `yaml:"enable_cors" envconfig:"ENABLE_CORS"`
	BcryptCost     int             `yaml:"bcrypt_cost" envconfig:"BCRYPT_COST"`
	RateLimit      RateLimitConfig `yaml:"rate_limit" envconfig:"RATE_LIMIT"`
}

// RateLimitConfig contains rate limiting configuration
type RateLimitConfig struct {
	Enabled bool    `yaml:"enabled" envconfig:"ENABLED"`
	RPS     float64 `yaml:"rps" envconfig:"RPS"`
	Burst   int     `yaml:"burst" envconfig:"BURST"`
}

// TelemetryConfig controls metrics and tracing
type TelemetryConfig struct {
	Enabled     bool   `yaml:"enabled" envconfig:"ENABLED"`
	ServiceName string `yaml:"service_name" envconfig:"SERVICE_NAME"`
	Environment string `yaml:"environment" envconfig:"ENVIRONMENT"`
	TraceStdout bool   `yaml:"trace_stdout" envconfig:"TRACE_STDOUT"`
	MetricsPath string `yaml:"metrics_path" envconfig:"METRICS_PATH"`
}

// WebSocketConfig contains WebSocket configuration
type WebSocketConfig struct {
	ReadBufferSize  int           `yaml:"read_buffer_size" envconfig:"READ_BUFFER_SIZE"`
	WriteBufferSize int           `yaml:"write_buffer_size" envconfig:"WRITE_BUFFER_SIZE"`
	PingPeriod      time.Duration `yaml:"ping_period" envconfig:"PING_PERIOD"`
	PongWait        time.Duration `yaml:"pong_wait" envconfig:"PONG_WAIT"`
}

// Load builds the configuration from defaults, the optional YAML file named
// by INSIGHT_CONFIG and INSIGHT_* environment variables, in that order.
func Load() (*Config, error) {
	return LoadFile(os.Getenv(EnvConfigFile))
}

// LoadFile is Load with an explicit YAML path; an empty path skips the file.
func LoadFile(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		if err := loadFromFile(path, cfg); err != nil {
			return nil, fmt.Errorf("failed to load config from file: %w", err)
		}
	}

	if err := envconfig.Process(EnvPrefix, cfg); err != nil {
		return nil, fmt.Errorf("failed to load config from env: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// loadFromFile overlays the YAML file onto cfg; keys absent from the file
// keep their current values.
func loadFromFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return yaml.Unmarshal(data, cfg)
}

// Validate checks ranges and normalizes enumerations
func (c *Config) Validate() error {
	var errs []error

	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Errorf("invalid server port: %d", c.Server.Port))
	}
	if c.Server.ReadTimeout <= 0 {
		errs = append(errs, errors.New("server read timeout must be positive"))
	}
	if c.Server.WriteTimeout <= 0 {
		errs = append(errs, errors.New("server write timeout must be positive"))
	}
	if c.Server.MaxUploadBytes <= 0 {
		errs = append(errs, errors.New("server max upload bytes must be positive"))
	}
	c.Server.PublicBaseURL = strings.TrimRight(c.Server.PublicBaseURL, "/")

	c.Logging.Level = strings.ToLower(c.Logging.Level)
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		errs = append(errs, fmt.Errorf("invalid logging level: %q", c.Logging.Level))
	}
	c.Logging.Format = strings.ToLower(c.Logging.Format)
	if c.Logging.Format != "json" && c.Logging.Format != "text" {
		errs = append(errs, fmt.Errorf("invalid logging format: %q", c.Logging.Format))
	}
	switch c.Logging.Output {
	case "console", "file", "both":
	default:
		errs = append(errs, fmt.Errorf("invalid logging output: %q", c.Logging.Output))
	}
	if c.Logging.Output != "console" && c.Logging.FilePath == "" {
		errs = append(errs, errors.New("logging file path is required for file output"))
	}

	if c.Analytics.DefaultCPM < 0 {
		errs = append(errs, errors.New("analytics default cpm must not be negative"))
	}
	if c.Analytics.TopCategories <= 0 {
		errs = append(errs, errors.New("analytics top categories must be positive"))
	}
	if c.Analytics.TrendWindow <= 0 {
		errs = append(errs, errors.New("analytics trend window must be positive"))
	}
	if c.Analytics.HeaderScanLimit <= 0 || c.Analytics.HeaderScanLimit > MaxHeaderScanLimit {
		errs = append(errs, fmt.Errorf("analytics header scan limit must be in 1..%d", MaxHeaderScanLimit))
	}

	c.Store.Driver = strings.ToLower(c.Store.Driver)
	switch c.Store.Driver {
	case StoreMemory:
	case StoreSQLite, StorePostgres:
		if c.Store.DSN == "" {
			errs = append(errs, fmt.Errorf("store dsn is required for driver %s", c.Store.Driver))
		}
	case StoreRedis:
		if c.Store.Redis.URL == "" && c.Store.Redis.Address == "" {
			errs = append(errs, errors.New("redis url or address is required"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown store driver: %q", c.Store.Driver))
	}
	if c.Store.MaxChartRows <= 0 {
		errs = append(errs, errors.New("store max chart rows must be positive"))
	}
	if c.Store.DefaultExpiry < 0 {
		errs = append(errs, errors.New("store default expiry must not be negative"))
	}

	if c.Session.MaxConcurrentDecodes <= 0 {
		errs = append(errs, errors.New("session max concurrent decodes must be positive"))
	}
	if c.Session.MaxFiles <= 0 {
		errs = append(errs, errors.New("session max files must be positive"))
	}
	if c.Session.MaxRetained <= 0 {
		errs = append(errs, errors.New("session max retained must be positive"))
	}
	if c.Session.RetainFor < 0 {
		errs = append(errs, errors.New("session retain for must not be negative"))
	}

	if c.Security.EnableCORS && len(c.Security.AllowedOrigins) == 0 {
		errs = append(errs, errors.New("at least one allowed origin must be specified"))
	}
	if c.Security.BcryptCost < MinBcryptCost || c.Security.BcryptCost > MaxBcryptCost {
		errs = append(errs, fmt.Errorf("security bcrypt cost must be in %d..%d", MinBcryptCost, MaxBcryptCost))
	}
	if c.Security.RateLimit.Enabled && (c.Security.RateLimit.RPS <= 0 || c.Security.RateLimit.Burst <= 0) {
		errs = append(errs, errors.New("rate limit rps and burst must be positive"))
	}

	if c.WebSocket.PongWait <= 0 || c.WebSocket.PingPeriod <= 0 || c.WebSocket.PingPeriod >= c.WebSocket.PongWait {
		errs = append(errs, errors.New("websocket ping period must be positive and shorter than pong wait"))
	}

	return errors.Join(errs...)
}

// Default returns default configuration
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Port:            8080,
			ReadTimeout:     30 * time.Second,
			WriteTimeout:    60 * time.Second,
			IdleTimeout:     60 * time.Second,
			MaxHeaderBytes:  1 << 20, // 1MB
			ShutdownTimeout: 30 * time.Second,
			MaxUploadBytes:  DefaultMaxUploadBytes,
			PublicBaseURL:   "http://localhost:8080",
		},
		Logging: LoggingConfig{
			Level:    "info",
			Format:   "json",
			Output:   "console",
			FilePath: "logs/insight.log",
		},
		Analytics: AnalyticsConfig{
			DefaultCPM:          DefaultCPM,
			SuitabilityBaseline: 86.4,
			TopCategories:       8,
			TrendWindow:         14,
			IVTBenchmark:        1.0,
			BenchmarkLabel:      "Benchmark",
			HeaderScanLimit:     30,
			FilenameHints:       true,
		},
		Insights: InsightsConfig{
			Language: "en",
		},
		Store: StoreConfig{
			Driver:       StoreMemory,
			MaxChartRows: DefaultMaxChartRows,
			Redis: RedisConfig{
				PoolSize:     10,
				DialTimeout:  5 * time.Second,
				ReadTimeout:  3 * time.Second,
				WriteTimeout: 3 * time.Second,
				KeyPrefix:    "insight",
			},
		},
		Session: SessionConfig{
			MaxConcurrentDecodes: 4,
			MaxFiles:             20,
			Timeout:              2 * time.Minute,
			MaxRetained:          256,
			RetainFor:            time.Hour,
		},
		Security: SecurityConfig{
			AllowedOrigins: []string{"http://localhost:8080"},
			EnableCORS:     true,
			BcryptCost:     DefaultBcryptCost,
			RateLimit: RateLimitConfig{
				Enabled: true,
				RPS:     100,
				Burst:   50,
			},
		},
		Telemetry: TelemetryConfig{
			Enabled:     true,
			ServiceName: AppName,
			Environment: "development",
			MetricsPath: "/metrics",
		},
		WebSocket: WebSocketConfig{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			PingPeriod:      54 * time.Second,
			PongWait:        60 * time.Second,
		},
	}
}
