// Package config provides configuration loading for the spec-compare tools.
// Supports YAML files, a .env file, and environment variables.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/spherical-ai/spherical/libs/spec-compare/internal/domain"
	"github.com/spherical-ai/spherical/libs/spec-compare/internal/extractor"
	"github.com/spherical-ai/spherical/libs/spec-compare/internal/observability"
)

// Config holds all configuration for the spec-compare tools.
type Config struct {
	Server        ServerConfig        `yaml:"server"`
	Database      DatabaseConfig      `yaml:"database"`
	Cache         CacheConfig         `yaml:"cache"`
	Extraction    ExtractionConfig    `yaml:"extraction"`
	Observability ObservabilityConfig `yaml:"observability"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host             string        `yaml:"host"`
	Port             int           `yaml:"port"`
	ReadTimeout      time.Duration `yaml:"read_timeout"`
	WriteTimeout     time.Duration `yaml:"write_timeout"`
	IdleTimeout      time.Duration `yaml:"idle_timeout"`
	GracefulShutdown time.Duration `yaml:"graceful_shutdown"`
}

// DatabaseConfig holds database connection settings.
type DatabaseConfig struct {
	Driver   string         `yaml:"driver"` // sqlite or postgres
	SQLite   SQLiteConfig   `yaml:"sqlite"`
	Postgres PostgresConfig `yaml:"postgres"`
}

// SQLiteConfig holds SQLite-specific settings.
type SQLiteConfig struct {
	Path string `yaml:"path"`
}

// PostgresConfig holds Postgres-specific settings.
type PostgresConfig struct {
	DSN             string        `yaml:"dsn"`
	MaxOpenConns    int           `yaml:"max_open_conns"`
	MaxIdleConns    int           `yaml:"max_idle_conns"`
	ConnMaxLifetime time.Duration `yaml:"conn_max_lifetime"`
}

// CacheConfig holds built-document cache settings.
type CacheConfig struct {
	Driver     string        `yaml:"driver"` // memory or redis
	TTL        time.Duration `yaml:"ttl"`
	MaxEntries int           `yaml:"max_entries"`
	Redis      RedisConfig   `yaml:"redis"`
}

// RedisConfig holds Redis-specific settings.
type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
	PoolSize int    `yaml:"pool_size"`
	Prefix   string `yaml:"prefix"`
}

// ExtractionConfig holds datasheet extraction settings. Regions are
// [x0, top, x1, bottom] in PDF points from the top-left corner of page 1.
type ExtractionConfig struct {
	MaxConcurrent    int        `yaml:"max_concurrent_extractions"`
	SourceDir        string     `yaml:"source_dir"`
	DiagramDir       string     `yaml:"diagram_dir"`
	FeaturesRegion   [4]float64 `yaml:"features_region"`
	AdvantagesRegion [4]float64 `yaml:"advantages_region"`
	DiagramRegion    [4]float64 `yaml:"diagram_region"`
	TableTop         float64    `yaml:"table_top"`
}

// ObservabilityConfig holds logging and metrics settings.
type ObservabilityConfig struct {
	LogLevel       string `yaml:"log_level"`
	LogFormat      string `yaml:"log_format"`
	MetricsEnabled bool   `yaml:"metrics_enabled"`
	ServiceName    string `yaml:"service_name"`
}

// Load builds the configuration: defaults, then the .env file next to the
// working directory (if any), then the YAML file at path (if given), then
// environment overrides.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, domain.ConfigError("load .env file", err)
	}

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, domain.ConfigError("read config file", err)
		}

		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, domain.ConfigError("parse config file", err)
		}
		cfg.Extraction.SourceDir = ResolveRelativePath(path, cfg.Extraction.SourceDir)
		cfg.Extraction.DiagramDir = ResolveRelativePath(path, cfg.Extraction.DiagramDir)
	}

	if err := applyEnvOverrides(cfg); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// DefaultConfig returns a configuration with sensible defaults for development.
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Host:             "0.0.0.0",
			Port:             8086,
			ReadTimeout:      30 * time.Second,
			WriteTimeout:     60 * time.Second,
			IdleTimeout:      120 * time.Second,
			GracefulShutdown: 10 * time.Second,
		},
		Database: DatabaseConfig{
			Driver: "sqlite",
			SQLite: SQLiteConfig{
				Path: "/tmp/spec-compare.db",
			},
			Postgres: PostgresConfig{
				MaxOpenConns:    25,
				MaxIdleConns:    5,
				ConnMaxLifetime: 5 * time.Minute,
			},
		},
		Cache: CacheConfig{
			Driver:     "memory",
			TTL:        time.Hour,
			MaxEntries: 500,
			Redis: RedisConfig{
				Addr:     "localhost:6380",
				DB:       0,
				PoolSize: 10,
				Prefix:   "sc:",
			},
		},
		Extraction: ExtractionConfig{
			MaxConcurrent:    4,
			SourceDir:        ".",
			DiagramDir:       "diagrams",
			FeaturesRegion:   [4]float64{0, 130, 295, 210},
			AdvantagesRegion: [4]float64{300, 130, 610, 210},
			DiagramRegion:    [4]float64{300, 0, 600, 120},
			TableTop:         210,
		},
		Observability: ObservabilityConfig{
			LogLevel:       "info",
			LogFormat:      "json",
			MetricsEnabled: true,
			ServiceName:    "spec-compare",
		},
	}
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return domain.ConfigError(fmt.Sprintf("invalid server port: %d", c.Server.Port), nil)
	}

	if c.Database.Driver != "sqlite" && c.Database.Driver != "postgres" {
		return domain.ConfigError(fmt.Sprintf("invalid database driver: %s", c.Database.Driver), nil)
	}

	if c.Database.Driver == "postgres" && c.Database.Postgres.DSN == "" {
		return domain.ConfigError("postgres driver requires a dsn", nil)
	}

	if c.Cache.Driver != "memory" && c.Cache.Driver != "redis" {
		return domain.ConfigError(fmt.Sprintf("invalid cache driver: %s", c.Cache.Driver), nil)
	}

	if c.Extraction.MaxConcurrent < 1 {
		return domain.ConfigError("max_concurrent_extractions must be at least 1", nil)
	}

	for name, r := range map[string][4]float64{
		"features_region":   c.Extraction.FeaturesRegion,
		"advantages_region": c.Extraction.AdvantagesRegion,
		"diagram_region":    c.Extraction.DiagramRegion,
	} {
		if r[2] < r[0] || r[3] < r[1] {
			return domain.ConfigError(fmt.Sprintf("%s is inverted: %v", name, r), nil)
		}
	}

	return nil
}

// DatabaseDSN returns the appropriate database connection string.
func (c *Config) DatabaseDSN() string {
	if c.Database.Driver == "sqlite" {
		return c.Database.SQLite.Path
	}
	return c.Database.Postgres.DSN
}

// PDF returns the PDF extractor layout.
func (c ExtractionConfig) PDF() extractor.PDFConfig {
	region := func(r [4]float64) extractor.Region {
		return extractor.Region{X0: r[0], Top: r[1], X1: r[2], Bottom: r[3]}
	}
	return extractor.PDFConfig{
		FeaturesRegion:   region(c.FeaturesRegion),
		AdvantagesRegion: region(c.AdvantagesRegion),
		DiagramRegion:    region(c.DiagramRegion),
		TableTop:         c.TableTop,
		DiagramDir:       c.DiagramDir,
	}
}

// LogConfig returns the logger settings.
func (c ObservabilityConfig) LogConfig() observability.LogConfig {
	return observability.LogConfig{
		Level:       c.LogLevel,
		Format:      c.LogFormat,
		ServiceName: c.ServiceName,
	}
}

// applyEnvOverrides applies environment variable overrides to config.
func applyEnvOverrides(cfg *Config) error {
	if v := os.Getenv("SERVER_PORT"); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return domain.ConfigError("SERVER_PORT is not a number", err)
		}
		cfg.Server.Port = port
	}

	if v := os.Getenv("SERVER_HOST"); v != "" {
		cfg.Server.Host = v
	}

	if v := os.Getenv("DATABASE_URL"); v != "" {
		if strings.HasPrefix(v, "sqlite:") {
			cfg.Database.Driver = "sqlite"
			cfg.Database.SQLite.Path = strings.TrimPrefix(v, "sqlite:")
		} else if strings.HasPrefix(v, "postgres") {
			cfg.Database.Driver = "postgres"
			cfg.Database.Postgres.DSN = v
		} else {
			return domain.ConfigError("DATABASE_URL must start with sqlite: or postgres", nil)
		}
	}

	if v := os.Getenv("REDIS_URL"); v != "" {
		cfg.Cache.Driver = "redis"
		cfg.Cache.Redis.Addr = strings.TrimPrefix(v, "redis://")
	}

	if v := os.Getenv("SOURCE_DIR"); v != "" {
		cfg.Extraction.SourceDir = v
	}

	if v := os.Getenv("DIAGRAM_DIR"); v != "" {
		cfg.Extraction.DiagramDir = v
	}

	if v := os.Getenv("MAX_CONCURRENT_EXTRACTIONS"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return domain.ConfigError("MAX_CONCURRENT_EXTRACTIONS is not a number", err)
		}
		cfg.Extraction.MaxConcurrent = n
	}

	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.Observability.LogLevel = v
	}

	if v := os.Getenv("LOG_FORMAT"); v != "" {
		cfg.Observability.LogFormat = v
	}

	return nil
}

// ResolveRelativePath resolves a path relative to the config file location.
func ResolveRelativePath(configPath, targetPath string) string {
	if targetPath == "" || filepath.IsAbs(targetPath) {
		return targetPath
	}
	configDir := filepath.Dir(configPath)
	return filepath.Join(configDir, targetPath)
}
