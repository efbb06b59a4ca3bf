package config

import (
	"log/slog"
	"os"
	"strconv"
	"strings"
	"sync"

	"gopkg.in/yaml.v2"
)

// =============================================================================
// RMOS Configuration, YAML + environment overrides + defaults
// =============================================================================

type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Registry RegistryConfig `yaml:"registry"`
	Store    StoreConfig    `yaml:"store"`
	Workflow WorkflowConfig `yaml:"workflow"`
	Postproc PostprocConfig `yaml:"postproc"`
	Security SecurityConfig `yaml:"security"`
	Redis    RedisConfig    `yaml:"redis"`
	Metrics  MetricsConfig  `yaml:"metrics"`
}

type ServerConfig struct {
	Port             string   `yaml:"port"`
	Env              string   `yaml:"env"`
	ReadTimeoutSec   int      `yaml:"read_timeout_sec"`
	WriteTimeoutSec  int      `yaml:"write_timeout_sec"`
	IdleTimeoutSec   int      `yaml:"idle_timeout_sec"`
	ShutdownTimeout  int      `yaml:"shutdown_timeout_sec"`
	CORSAllowOrigins []string `yaml:"cors_allow_origins"`
	StrictStartup    bool     `yaml:"strict_startup"`
}

// RegistryConfig points at the seed catalog for the tool/material/machine lookup.
type RegistryConfig struct {
	CatalogPath string `yaml:"catalog_path"`
}

// StoreConfig controls where run artifacts are written.
type StoreConfig struct {
	ArtifactsRoot string `yaml:"artifacts_root"`
}

// WorkflowConfig holds the Postgres DSN and session-machine timings.
type WorkflowConfig struct {
	DatabaseDSN         string `yaml:"database_dsn"`
	OverrideTokenTTLSec int    `yaml:"override_token_ttl_sec"`
}

// PostprocConfig points at the post-processor dialect config directory.
type PostprocConfig struct {
	ConfigDir     string `yaml:"config_dir"`
	DefaultPostID string `yaml:"default_post_id"`
}

// SecurityConfig holds the HMAC secret used to sign mentor override tokens.
type SecurityConfig struct {
	OverrideHMACSecret string `yaml:"override_hmac_secret"`
}

// RedisConfig is optional, when Enabled is false, run events stay in-process.
type RedisConfig struct {
	Enabled            bool   `yaml:"enabled"`
	Addr               string `yaml:"addr"`
	Password           string `yaml:"password"`
	DB                 int    `yaml:"db"`
	EventChannelPrefix string `yaml:"event_channel_prefix"`
}

type MetricsConfig struct {
	Enabled bool `yaml:"enabled"`
}

var (
	instance *Config
	once     sync.Once
)

// Get returns the singleton config instance, loading config.yaml (or
// RMOS_CONFIG_PATH) once and applying environment overrides on top.
func Get() *Config {
	once.Do(func() {
		cfg, err := LoadConfig(getEnv("RMOS_CONFIG_PATH", "config.yaml"))
		if err != nil {
			slog.Warn("config: failed to load config file, using defaults", "error", err)
		}
		if cfg == nil {
			cfg = &Config{}
		}
		cfg.applyEnvOverrides()
		instance = cfg
	})
	return instance
}

func LoadConfig(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var cfg Config
	if err := yaml.NewDecoder(f).Decode(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) applyEnvOverrides() {
	c.Server.Port = getEnv("PORT", c.Server.Port)
	c.Server.Env = getEnv("RMOS_ENV", c.Server.Env)
	c.Server.StrictStartup = getEnvBool("RMOS_STRICT_STARTUP", c.Server.StrictStartup)
	if origins := getEnv("RMOS_CORS_ALLOW_ORIGINS", ""); origins != "" {
		c.Server.CORSAllowOrigins = splitCSV(origins)
	}

	c.Registry.CatalogPath = getEnv("RMOS_CATALOG_PATH", c.Registry.CatalogPath)

	c.Store.ArtifactsRoot = getEnv("RMOS_ARTIFACTS_ROOT", c.Store.ArtifactsRoot)

	c.Workflow.DatabaseDSN = getEnv("RMOS_DATABASE_DSN", c.Workflow.DatabaseDSN)
	if v := getEnvInt("RMOS_OVERRIDE_TOKEN_TTL_SEC", 0); v > 0 {
		c.Workflow.OverrideTokenTTLSec = v
	}

	c.Postproc.ConfigDir = getEnv("RMOS_POSTPROC_CONFIG_DIR", c.Postproc.ConfigDir)
	c.Postproc.DefaultPostID = getEnv("RMOS_DEFAULT_POST_ID", c.Postproc.DefaultPostID)

	c.Security.OverrideHMACSecret = getEnv("RMOS_OVERRIDE_HMAC_SECRET", c.Security.OverrideHMACSecret)

	c.Redis.Enabled = getEnvBool("RMOS_REDIS_ENABLED", c.Redis.Enabled)
	c.Redis.Addr = getEnv("RMOS_REDIS_ADDR", c.Redis.Addr)
	c.Redis.Password = getEnv("RMOS_REDIS_PASSWORD", c.Redis.Password)
	if v := getEnvInt("RMOS_REDIS_DB", -1); v >= 0 {
		c.Redis.DB = v
	}
	c.Redis.EventChannelPrefix = getEnv("RMOS_REDIS_EVENT_PREFIX", c.Redis.EventChannelPrefix)

	c.Metrics.Enabled = getEnvBool("RMOS_METRICS_ENABLED", c.Metrics.Enabled)

	c.applyDefaults()
}

func (c *Config) applyDefaults() {
	if c.Server.Port == "" {
		c.Server.Port = "8080"
	}
	if c.Server.ReadTimeoutSec == 0 {
		c.Server.ReadTimeoutSec = 15
	}
	if c.Server.WriteTimeoutSec == 0 {
		c.Server.WriteTimeoutSec = 15
	}
	if c.Server.IdleTimeoutSec == 0 {
		c.Server.IdleTimeoutSec = 60
	}
	if c.Server.ShutdownTimeout == 0 {
		c.Server.ShutdownTimeout = 10
	}
	if len(c.Server.CORSAllowOrigins) == 0 {
		c.Server.CORSAllowOrigins = []string{"*"}
	}
	if c.Registry.CatalogPath == "" {
		c.Registry.CatalogPath = "registry/catalog.yaml"
	}
	if c.Store.ArtifactsRoot == "" {
		c.Store.ArtifactsRoot = "artifacts"
	}
	if c.Workflow.OverrideTokenTTLSec == 0 {
		c.Workflow.OverrideTokenTTLSec = 900 // 15 minutes
	}
	if c.Postproc.DefaultPostID == "" {
		c.Postproc.DefaultPostID = "GRBL"
	}
	if c.Redis.EventChannelPrefix == "" {
		c.Redis.EventChannelPrefix = "rmos:events:"
	}
}

func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func getEnvBool(key string, defaultVal bool) bool {
	if val := os.Getenv(key); val != "" {
		return val == "true" || val == "1"
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) int {
	if val := os.Getenv(key); val != "" {
		if i, err := strconv.Atoi(val); err == nil {
			return i
		}
	}
	return defaultVal
}

func splitCSV(s string) []string {
	parts := make([]string, 0)
	for _, p := range strings.Split(s, ",") {
		trimmed := strings.TrimSpace(p)
		if trimmed != "" {
			parts = append(parts, trimmed)
		}
	}
	return parts
}

func (c *Config) IsProduction() bool {
	return c.Server.Env == "production"
}

func (c *Config) GetPort() string {
	if c.Server.Port == "" {
		return "8080"
	}
	return c.Server.Port
}
