// Package config loads nestflow settings from a YAML or TOML file, an optional
// .env file and NESTFLOW_* environment variables, in increasing precedence.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

// Store backends.
const (
	StoreMemory = "memory"
	StoreFile   = "file"
	StoreRedis  = "redis"
	StoreLoam   = "loam"
	StoreSQLite = "sqlite"
)

// EnvPrefix prefixes every environment override.
const EnvPrefix = "NESTFLOW_"

type HTTPConfig struct {
	Host string `yaml:"host" toml:"host"`
	Port int    `yaml:"port" toml:"port"`
}

// Addr returns host:port.
func (h HTTPConfig) Addr() string {
	return fmt.Sprintf("%s:%d", h.Host, h.Port)
}

type StoreConfig struct {
	// Backend is one of memory, file, redis, loam or sqlite.
	Backend string `yaml:"backend" toml:"backend"`
	// Dir is the root directory of the file backend.
	Dir string `yaml:"dir" toml:"dir"`
}

type RedisConfig struct {
	Addr     string        `yaml:"addr" toml:"addr"`
	Password string        `yaml:"password" toml:"password"`
	DB       int           `yaml:"db" toml:"db"`
	TTL      time.Duration `yaml:"ttl" toml:"ttl"`
	// Lock enables distributed locking of sessions and saves.
	Lock bool `yaml:"lock" toml:"lock"`
}

type LoamConfig struct {
	Path string `yaml:"path" toml:"path"`
}

type SQLiteConfig struct {
	Path string `yaml:"path" toml:"path"`
}

type MediaConfig struct {
	BaseURL string `yaml:"base_url" toml:"base_url"`
	Bucket  string `yaml:"bucket" toml:"bucket"`
}

type AutosaveConfig struct {
	Debounce   time.Duration `yaml:"debounce" toml:"debounce"`
	SavedReset time.Duration `yaml:"saved_reset" toml:"saved_reset"`
	ErrorReset time.Duration `yaml:"error_reset" toml:"error_reset"`
}

type LogConfig struct {
	Level string `yaml:"level" toml:"level"`
	// Format is text or json.
	Format string `yaml:"format" toml:"format"`
}

// SessionConfig configures playback session storage.
type SessionConfig struct {
	// EncryptionKey is a base64 AES-256 key; empty disables encryption.
	EncryptionKey string `yaml:"encryption_key" toml:"encryption_key"`
	// Redact lists patterns masked out of free-text answers before storage.
	Redact []string `yaml:"redact" toml:"redact"`
}

// Config is the full application configuration.
type Config struct {
	HTTP     HTTPConfig     `yaml:"http" toml:"http"`
	Store    StoreConfig    `yaml:"store" toml:"store"`
	Redis    RedisConfig    `yaml:"redis" toml:"redis"`
	Loam     LoamConfig     `yaml:"loam" toml:"loam"`
	SQLite   SQLiteConfig   `yaml:"sqlite" toml:"sqlite"`
	Media    MediaConfig    `yaml:"media" toml:"media"`
	Autosave AutosaveConfig `yaml:"autosave" toml:"autosave"`
	Session  SessionConfig  `yaml:"session" toml:"session"`
	Log      LogConfig      `yaml:"log" toml:"log"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		HTTP:  HTTPConfig{Host: "127.0.0.1", Port: 8080},
		Store: StoreConfig{Backend: StoreMemory, Dir: ".nestflow"},
		Redis: RedisConfig{Addr: "localhost:6379"},
		Loam:  LoamConfig{Path: "modules"},
		SQLite: SQLiteConfig{
			Path: ".nestflow/nestflow.db",
		},
		Media: MediaConfig{Bucket: "module-thumbnails"},
		Autosave: AutosaveConfig{
			Debounce:   time.Second,
			SavedReset: 2 * time.Second,
			ErrorReset: 3 * time.Second,
		},
		Log: LogConfig{Level: "info", Format: "text"},
	}
}

// Load builds the configuration. path may be empty, in which case only defaults,
// .env and the environment apply. A missing .env is not an error.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		if err := cfg.readFile(path); err != nil {
			return nil, err
		}
	}

	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}

	if err := cfg.applyEnv(os.LookupEnv); err != nil {
		return nil, err
	}
	return cfg, cfg.Validate()
}

func (c *Config) readFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file '%s': %w", path, err)
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		if err := toml.Unmarshal(data, c); err != nil {
			return fmt.Errorf("failed to parse TOML: %w", err)
		}
	case ".yaml", ".yml", "":
		if err := yaml.Unmarshal(data, c); err != nil {
			return fmt.Errorf("failed to parse YAML: %w", err)
		}
	default:
		return fmt.Errorf("unsupported config format %q", filepath.Ext(path))
	}
	return nil
}

// applyEnv overlays NESTFLOW_* variables.
func (c *Config) applyEnv(lookup func(string) (string, bool)) error {
	str := func(key string, dst *string) {
		if v, ok := lookup(EnvPrefix + key); ok {
			*dst = v
		}
	}
	var errs []error
	num := func(key string, dst *int) {
		if v, ok := lookup(EnvPrefix + key); ok {
			n, err := strconv.Atoi(v)
			if err != nil {
				errs = append(errs, fmt.Errorf("%s%s: %w", EnvPrefix, key, err))
				return
			}
			*dst = n
		}
	}
	dur := func(key string, dst *time.Duration) {
		if v, ok := lookup(EnvPrefix + key); ok {
			d, err := time.ParseDuration(v)
			if err != nil {
				errs = append(errs, fmt.Errorf("%s%s: %w", EnvPrefix, key, err))
				return
			}
			*dst = d
		}
	}
	flag := func(key string, dst *bool) {
		if v, ok := lookup(EnvPrefix + key); ok {
			b, err := strconv.ParseBool(v)
			if err != nil {
				errs = append(errs, fmt.Errorf("%s%s: %w", EnvPrefix, key, err))
				return
			}
			*dst = b
		}
	}

	str("HTTP_HOST", &c.HTTP.Host)
	num("HTTP_PORT", &c.HTTP.Port)
	str("STORE", &c.Store.Backend)
	str("STORE_DIR", &c.Store.Dir)
	str("REDIS_ADDR", &c.Redis.Addr)
	str("REDIS_PASSWORD", &c.Redis.Password)
	num("REDIS_DB", &c.Redis.DB)
	dur("REDIS_TTL", &c.Redis.TTL)
	flag("REDIS_LOCK", &c.Redis.Lock)
	str("LOAM_PATH", &c.Loam.Path)
	str("SQLITE_PATH", &c.SQLite.Path)
	str("MEDIA_BASE_URL", &c.Media.BaseURL)
	str("MEDIA_BUCKET", &c.Media.Bucket)
	dur("AUTOSAVE_DEBOUNCE", &c.Autosave.Debounce)
	str("SESSION_ENCRYPTION_KEY", &c.Session.EncryptionKey)
	str("LOG_LEVEL", &c.Log.Level)
	str("LOG_FORMAT", &c.Log.Format)

	return errors.Join(errs...)
}

// Validate checks the values that cannot be defaulted.
func (c *Config) Validate() error {
	switch c.Store.Backend {
	case StoreMemory, StoreFile, StoreRedis, StoreLoam, StoreSQLite:
	default:
		return fmt.Errorf("unknown store backend %q", c.Store.Backend)
	}
	if c.HTTP.Port <= 0 || c.HTTP.Port > 65535 {
		return fmt.Errorf("invalid http port %d", c.HTTP.Port)
	}
	if c.Autosave.Debounce <= 0 {
		return fmt.Errorf("autosave debounce must be positive, got %s", c.Autosave.Debounce)
	}
	if _, err := c.LogLevel(); err != nil {
		return err
	}
	if c.Log.Format != "text" && c.Log.Format != "json" {
		return fmt.Errorf("invalid log format %q", c.Log.Format)
	}
	return nil
}

// LogLevel parses Log.Level.
func (c *Config) LogLevel() (slog.Level, error) {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(c.Log.Level)); err != nil {
		return lvl, fmt.Errorf("invalid log level %q: %w", c.Log.Level, err)
	}
	return lvl, nil
}
