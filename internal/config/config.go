// Package config loads the service configuration.
//
// Sources, lowest to highest precedence: built-in defaults, a YAML file,
// a .env file, FLOWCHART_* environment variables. Command line flags are
// applied on top by the CLI.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	"github.com/aretw0/flowcharts/internal/logging"
	sqlstore "github.com/aretw0/flowcharts/pkg/adapters/sql"
	"github.com/joho/godotenv"
	"github.com/mitchellh/mapstructure"
	"gopkg.in/yaml.v3"
)

// EnvPrefix prefixes every environment variable read by Load.
const EnvPrefix = "FLOWCHART_"

// Store backends.
const (
	BackendMemory = "memory"
	BackendRedis  = "redis"
	BackendSQL    = "sql"
	BackendFile   = "file"
)

// Config is the complete service configuration.
type Config struct {
	Addr      string        `mapstructure:"addr" yaml:"addr"`
	LogLevel  string        `mapstructure:"log_level" yaml:"log_level"`
	LogFormat string        `mapstructure:"log_format" yaml:"log_format"`
	Store     StoreConfig   `mapstructure:"store" yaml:"store"`
	Lock      LockConfig    `mapstructure:"lock" yaml:"lock"`
	CORS      CORSConfig    `mapstructure:"cors" yaml:"cors"`
	Metrics   MetricsConfig `mapstructure:"metrics" yaml:"metrics"`
}

// StoreConfig selects and configures the flowchart store.
type StoreConfig struct {
	Backend string      `mapstructure:"backend" yaml:"backend"`
	Redis   RedisConfig `mapstructure:"redis" yaml:"redis"`
	SQL     SQLConfig   `mapstructure:"sql" yaml:"sql"`
	File    FileConfig  `mapstructure:"file" yaml:"file"`
}

type RedisConfig struct {
	Addr     string        `mapstructure:"addr" yaml:"addr"`
	Password string        `mapstructure:"password" yaml:"password"`
	DB       int           `mapstructure:"db" yaml:"db"`
	Prefix   string        `mapstructure:"prefix" yaml:"prefix"`
	TTL      time.Duration `mapstructure:"ttl" yaml:"ttl"`
}

type SQLConfig struct {
	Driver string `mapstructure:"driver" yaml:"driver"`
	DSN    string `mapstructure:"dsn" yaml:"dsn"`
}

type FileConfig struct {
	Dir string `mapstructure:"dir" yaml:"dir"`
}

// LockConfig enables Redis-backed locking across replicas.
type LockConfig struct {
	Enabled bool          `mapstructure:"enabled" yaml:"enabled"`
	TTL     time.Duration `mapstructure:"ttl" yaml:"ttl"`
}

// CORSConfig lists the origins allowed to call the HTTP API. Empty allows any.
type CORSConfig struct {
	AllowedOrigins []string `mapstructure:"allowed_origins" yaml:"allowed_origins"`
}

type MetricsConfig struct {
	Enabled bool `mapstructure:"enabled" yaml:"enabled"`
}

// Default returns the configuration used when nothing else is set.
func Default() *Config {
	return &Config{
		Addr:      ":8080",
		LogLevel:  "info",
		LogFormat: logging.FormatText,
		Store: StoreConfig{
			Backend: BackendMemory,
			Redis: RedisConfig{
				Addr:   "localhost:6379",
				Prefix: "flowcharts:flowchart:",
			},
			SQL: SQLConfig{
				Driver: "sqlite",
				DSN:    "flowcharts.db",
			},
			File: FileConfig{
				Dir: ".flowcharts/store",
			},
		},
		Lock: LockConfig{
			TTL: 30 * time.Second,
		},
		Metrics: MetricsConfig{
			Enabled: true,
		},
	}
}

// envKeys maps each environment variable (without EnvPrefix) to its config path.
var envKeys = map[string][]string{
	"ADDR":            {"addr"},
	"LOG_LEVEL":       {"log_level"},
	"LOG_FORMAT":      {"log_format"},
	"STORE_BACKEND":   {"store", "backend"},
	"REDIS_ADDR":      {"store", "redis", "addr"},
	"REDIS_PASSWORD":  {"store", "redis", "password"},
	"REDIS_DB":        {"store", "redis", "db"},
	"REDIS_PREFIX":    {"store", "redis", "prefix"},
	"REDIS_TTL":       {"store", "redis", "ttl"},
	"SQL_DRIVER":      {"store", "sql", "driver"},
	"SQL_DSN":         {"store", "sql", "dsn"},
	"FILE_DIR":        {"store", "file", "dir"},
	"LOCK_ENABLED":    {"lock", "enabled"},
	"LOCK_TTL":        {"lock", "ttl"},
	"CORS_ORIGINS":    {"cors", "allowed_origins"},
	"METRICS_ENABLED": {"metrics", "enabled"},
}

// Load builds the configuration from defaults, the YAML file at path and the
// environment. envFile names a dotenv file whose variables are exported
// before the environment is read; variables already set win over it.
// Empty paths and missing default files are skipped.
func Load(path, envFile string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		raw := map[string]any{}
		if err := yaml.Unmarshal(data, &raw); err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", path, err)
		}
		if err := decode(raw, cfg); err != nil {
			return nil, fmt.Errorf("invalid config file %s: %w", path, err)
		}
	}

	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("failed to load %s: %w", envFile, err)
		}
	}

	if err := decode(fromEnv(os.LookupEnv), cfg); err != nil {
		return nil, fmt.Errorf("invalid environment: %w", err)
	}

	return cfg, nil
}

// fromEnv collects the FLOWCHART_* variables into the nested shape of a config file.
func fromEnv(lookup func(string) (string, bool)) map[string]any {
	raw := map[string]any{}
	for name, keys := range envKeys {
		v, ok := lookup(EnvPrefix + name)
		if !ok {
			continue
		}
		m := raw
		for _, k := range keys[:len(keys)-1] {
			next, ok := m[k].(map[string]any)
			if !ok {
				next = map[string]any{}
				m[k] = next
			}
			m = next
		}
		m[keys[len(keys)-1]] = v
	}
	return raw
}

// decode merges raw into cfg; fields absent from raw keep their value.
func decode(raw map[string]any, cfg *Config) error {
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		DecodeHook: mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToTimeDurationHookFunc(),
			mapstructure.StringToSliceHookFunc(","),
		),
		WeaklyTypedInput: true,
		ErrorUnused:      true,
		Result:           cfg,
	})
	if err != nil {
		return err
	}
	return dec.Decode(raw)
}

// Validate rejects unknown backends, drivers, log levels and formats.
func (c *Config) Validate() error {
	var errs []error

	if _, err := logging.ParseLevel(c.LogLevel); err != nil {
		errs = append(errs, err)
	}
	switch c.LogFormat {
	case logging.FormatText, logging.FormatJSON:
	default:
		errs = append(errs, fmt.Errorf("unknown log format %q (want %s or %s)", c.LogFormat, logging.FormatText, logging.FormatJSON))
	}

	switch c.Store.Backend {
	case BackendMemory:
	case BackendRedis:
		if c.Store.Redis.Addr == "" {
			errs = append(errs, errors.New("store.redis.addr is required for the redis backend"))
		}
		if c.Store.Redis.TTL < 0 {
			errs = append(errs, errors.New("store.redis.ttl must not be negative"))
		}
	case BackendSQL:
		switch c.Store.SQL.Driver {
		case sqlstore.DriverSQLite, sqlstore.DriverPostgres:
		default:
			errs = append(errs, fmt.Errorf("unknown sql driver %q (want %s or %s)", c.Store.SQL.Driver, sqlstore.DriverSQLite, sqlstore.DriverPostgres))
		}
		if c.Store.SQL.DSN == "" {
			errs = append(errs, errors.New("store.sql.dsn is required for the sql backend"))
		}
	case BackendFile:
		if c.Store.File.Dir == "" {
			errs = append(errs, errors.New("store.file.dir is required for the file backend"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown store backend %q", c.Store.Backend))
	}

	if c.Lock.Enabled {
		if c.Store.Redis.Addr == "" {
			errs = append(errs, errors.New("lock.enabled requires store.redis.addr"))
		}
		if c.Lock.TTL <= 0 {
			errs = append(errs, errors.New("lock.ttl must be positive"))
		}
	}

	return errors.Join(errs...)
}
