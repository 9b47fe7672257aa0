// Package config loads kino-draws settings from defaults, an optional YAML
// file, KINO_* environment variables and command-line flags, in increasing
// order of precedence.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/pfrederiksen/kino-draws/internal/scraper"
	"github.com/pfrederiksen/kino-draws/internal/storage"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// EnvPrefix is the prefix of every environment variable, e.g. KINO_SOURCE_URL
const EnvPrefix = "KINO"

// Config holds all application configuration
type Config struct {
	Source SourceConfig `mapstructure:"source"`
	DB     DBConfig     `mapstructure:"db"`
	Log    LogConfig    `mapstructure:"log"`
	Watch  WatchConfig  `mapstructure:"watch"`
}

type SourceConfig struct {
	URL           string        `mapstructure:"url"`
	Timeout       time.Duration `mapstructure:"timeout"`
	Mode          string        `mapstructure:"mode"`
	TableSelector string        `mapstructure:"table_selector"`
	Marker        string        `mapstructure:"marker"`
}

type DBConfig struct {
	URL      string        `mapstructure:"url"`
	MaxConns int           `mapstructure:"max_conns"`
	Timeout  time.Duration `mapstructure:"timeout"`
}

type LogConfig struct {
	Level string `mapstructure:"level"`
}

type WatchConfig struct {
	Schedule string `mapstructure:"schedule"`
}

// Loader reads configuration through viper
type Loader struct {
	v *viper.Viper
}

// NewLoader creates a loader with defaults and environment bindings in place
func NewLoader() *Loader {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("source.url", scraper.ArchiveURL)
	v.SetDefault("source.timeout", scraper.Timeout)
	v.SetDefault("source.mode", "latest")
	v.SetDefault("source.table_selector", scraper.DefaultTableSelector)
	v.SetDefault("source.marker", scraper.DefaultMarker)
	v.SetDefault("db.url", "")
	v.SetDefault("db.max_conns", 2)
	v.SetDefault("db.timeout", storage.DefaultTimeout)
	v.SetDefault("log.level", "info")
	v.SetDefault("watch.schedule", "@every 5m")

	// the connection string is commonly provided as DATABASE_URL
	_ = v.BindEnv("db.url", EnvPrefix+"_DB_URL", "DATABASE_URL")

	return &Loader{v: v}
}

// BindFlag lets a command-line flag override key when the flag is set
func (l *Loader) BindFlag(key string, flag *pflag.Flag) error {
	if flag == nil {
		return fmt.Errorf("binding %s: flag not defined", key)
	}
	return l.v.BindPFlag(key, flag)
}

// Load reads the optional config file at path and returns the merged configuration
func (l *Loader) Load(path string) (Config, error) {
	if path != "" {
		l.v.SetConfigFile(path)
		if err := l.v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("reading config file: %w", err)
		}
	}

	var cfg Config
	if err := l.v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("decoding config: %w", err)
	}
	cfg.Source.Mode = strings.ToLower(strings.TrimSpace(cfg.Source.Mode))
	return cfg, nil
}

// Validate checks the configuration. The database URL is only required when
// requireDB is set, so dry runs work without a database.
func (c Config) Validate(requireDB bool) error {
	var errs []error
	if strings.TrimSpace(c.Source.URL) == "" {
		errs = append(errs, errors.New("source.url is required"))
	}
	if c.Source.Timeout <= 0 {
		errs = append(errs, fmt.Errorf("source.timeout must be positive, got %s", c.Source.Timeout))
	}
	if c.DB.Timeout <= 0 {
		errs = append(errs, fmt.Errorf("db.timeout must be positive, got %s", c.DB.Timeout))
	}
	if requireDB && strings.TrimSpace(c.DB.URL) == "" {
		errs = append(errs, errors.New("database URL is required (set DATABASE_URL, KINO_DB_URL or --database-url)"))
	}
	return errors.Join(errs...)
}
