package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfigFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestDefault(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, int64(32<<20), cfg.Server.MaxUploadBytes)
	assert.Equal(t, 1500.0, cfg.Analytics.DefaultCPM)
	assert.Equal(t, 86.4, cfg.Analytics.SuitabilityBaseline)
	assert.Equal(t, 8, cfg.Analytics.TopCategories)
	assert.Equal(t, 14, cfg.Analytics.TrendWindow)
	assert.Equal(t, 30, cfg.Analytics.HeaderScanLimit)
	assert.True(t, cfg.Analytics.FilenameHints)
	assert.Equal(t, "en", cfg.Insights.Language)
	assert.Equal(t, StoreMemory, cfg.Store.Driver)
	assert.Equal(t, 500, cfg.Store.MaxChartRows)
	assert.Equal(t, 4, cfg.Session.MaxConcurrentDecodes)
	assert.Equal(t, DefaultBcryptCost, cfg.Security.BcryptCost)
	assert.Equal(t, "/metrics", cfg.Telemetry.MetricsPath)
	assert.Less(t, cfg.WebSocket.PingPeriod, cfg.WebSocket.PongWait)
}

func TestLoadFile(t *testing.T) {
	tests := []struct {
		name        string
		fileContent string
		env         map[string]string
		wantErr     string
		validateCfg func(*testing.T, *Config)
	}{
		{
			name: "no file keeps defaults",
			validateCfg: func(t *testing.T, cfg *Config) {
				assert.Equal(t, Default().Analytics, cfg.Analytics)
				assert.Equal(t, Default().Session, cfg.Session)
			},
		},
		{
			name: "partial file overlays defaults",
			fileContent: `
server:
  port: 9000
  read_timeout: 25s
analytics:
  default_cpm: 2000
insights:
  language: ja
`,
			validateCfg: func(t *testing.T, cfg *Config) {
				assert.Equal(t, 9000, cfg.Server.Port)
				assert.Equal(t, 25*time.Second, cfg.Server.ReadTimeout)
				assert.Equal(t, 60*time.Second, cfg.Server.WriteTimeout, "untouched key keeps default")
				assert.Equal(t, 2000.0, cfg.Analytics.DefaultCPM)
				assert.Equal(t, 14, cfg.Analytics.TrendWindow)
				assert.Equal(t, "ja", cfg.Insights.Language)
			},
		},
		{
			name: "environment overrides file",
			fileContent: `
server:
  port: 9000
store:
  driver: sqlite
  dsn: file:from-file.db
`,
			env: map[string]string{
				"INSIGHT_SERVER_PORT":                "9100",
				"INSIGHT_STORE_DSN":                  "file:from-env.db",
				"INSIGHT_SECURITY_ALLOWED_ORIGINS":   "http://a.test,http://b.test",
				"INSIGHT_SESSION_MAX_FILES":          "5",
				"INSIGHT_STORE_REDIS_KEY_PREFIX":     "tenant",
				"INSIGHT_ANALYTICS_FILENAME_HINTS":   "false",
				"INSIGHT_TELEMETRY_TRACE_STDOUT":     "true",
				"INSIGHT_WEBSOCKET_READ_BUFFER_SIZE": "4096",
			},
			validateCfg: func(t *testing.T, cfg *Config) {
				assert.Equal(t, 9100, cfg.Server.Port)
				assert.Equal(t, StoreSQLite, cfg.Store.Driver)
				assert.Equal(t, "file:from-env.db", cfg.Store.DSN)
				assert.Equal(t, []string{"http://a.test", "http://b.test"}, cfg.Security.AllowedOrigins)
				assert.Equal(t, 5, cfg.Session.MaxFiles)
				assert.Equal(t, "tenant", cfg.Store.Redis.KeyPrefix)
				assert.False(t, cfg.Analytics.FilenameHints)
				assert.True(t, cfg.Telemetry.TraceStdout)
				assert.Equal(t, 4096, cfg.WebSocket.ReadBufferSize)
			},
		},
		{
			name:        "invalid YAML syntax",
			fileContent: "invalid: yaml: content: [unclosed",
			wantErr:     "failed to load config from file",
		},
		{
			name: "unknown store driver fails validation",
			fileContent: `
store:
  driver: mongo
`,
			wantErr: "unknown store driver",
		},
		{
			name:    "bad env value",
			env:     map[string]string{"INSIGHT_SERVER_PORT": "eighty"},
			wantErr: "failed to load config from env",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			path := ""
			if tt.fileContent != "" {
				path = writeConfigFile(t, tt.fileContent)
			}

			cfg, err := LoadFile(path)
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
				return
			}
			require.NoError(t, err)
			tt.validateCfg(t, cfg)
		})
	}

	t.Run("missing file", func(t *testing.T) {
		_, err := LoadFile(filepath.Join(t.TempDir(), "absent.yaml"))
		assert.Error(t, err)
	})
}

func TestLoad_UsesConfigEnvVar(t *testing.T) {
	path := writeConfigFile(t, "server:\n  port: 7070\n")
	t.Setenv(EnvConfigFile, path)

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 7070, cfg.Server.Port)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{name: "defaults are valid", mutate: func(*Config) {}},
		{name: "zero port", mutate: func(c *Config) { c.Server.Port = 0 }, wantErr: "invalid server port: 0"},
		{name: "port too high", mutate: func(c *Config) { c.Server.Port = 99999 }, wantErr: "invalid server port: 99999"},
		{name: "read timeout", mutate: func(c *Config) { c.Server.ReadTimeout = -time.Second }, wantErr: "server read timeout must be positive"},
		{name: "upload limit", mutate: func(c *Config) { c.Server.MaxUploadBytes = 0 }, wantErr: "max upload bytes"},
		{name: "log level", mutate: func(c *Config) { c.Logging.Level = "verbose" }, wantErr: "invalid logging level"},
		{name: "log format", mutate: func(c *Config) { c.Logging.Format = "xml" }, wantErr: "invalid logging format"},
		{name: "file output without path", mutate: func(c *Config) {
			c.Logging.Output = "file"
			c.Logging.FilePath = ""
		}, wantErr: "logging file path is required"},
		{name: "negative cpm", mutate: func(c *Config) { c.Analytics.DefaultCPM = -1 }, wantErr: "default cpm"},
		{name: "header scan limit", mutate: func(c *Config) { c.Analytics.HeaderScanLimit = 51 }, wantErr: "header scan limit"},
		{name: "sqlite without dsn", mutate: func(c *Config) { c.Store.Driver = StoreSQLite }, wantErr: "store dsn is required"},
		{name: "redis without address", mutate: func(c *Config) { c.Store.Driver = StoreRedis }, wantErr: "redis url or address is required"},
		{name: "redis with address", mutate: func(c *Config) {
			c.Store.Driver = "REDIS"
			c.Store.Redis.Address = "localhost:6379"
		}},
		{name: "chart rows", mutate: func(c *Config) { c.Store.MaxChartRows = 0 }, wantErr: "max chart rows"},
		{name: "decodes", mutate: func(c *Config) { c.Session.MaxConcurrentDecodes = 0 }, wantErr: "max concurrent decodes"},
		{name: "retained", mutate: func(c *Config) { c.Session.MaxRetained = 0 }, wantErr: "max retained"},
		{name: "retain for", mutate: func(c *Config) { c.Session.RetainFor = -time.Second }, wantErr: "retain for"},
		{name: "cors without origins", mutate: func(c *Config) { c.Security.AllowedOrigins = nil }, wantErr: "at least one allowed origin"},
		{name: "no cors no origins", mutate: func(c *Config) {
			c.Security.EnableCORS = false
			c.Security.AllowedOrigins = nil
		}},
		{name: "bcrypt cost", mutate: func(c *Config) { c.Security.BcryptCost = 2 }, wantErr: "bcrypt cost"},
		{name: "rate limit", mutate: func(c *Config) { c.Security.RateLimit.RPS = 0 }, wantErr: "rate limit"},
		{name: "disabled rate limit", mutate: func(c *Config) {
			c.Security.RateLimit.Enabled = false
			c.Security.RateLimit.RPS = 0
		}},
		{name: "ping period", mutate: func(c *Config) { c.WebSocket.PingPeriod = c.WebSocket.PongWait }, wantErr: "websocket ping period"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestValidate_ReportsAllProblems(t *testing.T) {
	cfg := Default()
	cfg.Server.Port = 0
	cfg.Store.MaxChartRows = 0

	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid server port")
	assert.Contains(t, err.Error(), "max chart rows")
}

func TestValidate_Normalizes(t *testing.T) {
	cfg := Default()
	cfg.Logging.Level = "DEBUG"
	cfg.Store.Driver = "Memory"
	cfg.Server.PublicBaseURL = "https://reports.example.com/"

	require.NoError(t, cfg.Validate())
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, StoreMemory, cfg.Store.Driver)
	assert.Equal(t, "https://reports.example.com", cfg.Server.PublicBaseURL)
}

func TestServerConfig_Address(t *testing.T) {
	assert.Equal(t, ":8080", ServerConfig{Port: 8080}.Address())
	assert.Equal(t, "127.0.0.1:9000", ServerConfig{Host: "127.0.0.1", Port: 9000}.Address())
}
