// Package config loads scopetags settings from defaults, an optional YAML
// file, SCOPETAGS_* environment variables and command-line flags.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// EnvPrefix prefixes every environment variable, e.g. SCOPETAGS_LOG_LEVEL.
const EnvPrefix = "SCOPETAGS"

// Keys shared by flags, environment variables and config files.
const (
	KeyLogLevel    = "log-level"
	KeyLogFormat   = "log-format"
	KeyMaxFileSize = "max-file-size"
)

const defaultMaxFileSize = 1_000_000 // 1 MB

var (
	// ErrInvalidLogLevel indicates an unknown log level name.
	ErrInvalidLogLevel = errors.New("invalid log level")
	// ErrInvalidLogFormat indicates a log format other than text or json.
	ErrInvalidLogFormat = errors.New("invalid log format")
	// ErrInvalidMaxFileSize indicates a negative size limit.
	ErrInvalidMaxFileSize = errors.New("invalid max file size")
)

// Config holds the resolved settings.
type Config struct {
	LogLevel    slog.Level
	LogFormat   string // "text" or "json"
	MaxFileSize int64  // bytes; 0 disables the limit
}

// RegisterFlags adds the configuration flags to fs with their defaults.
func RegisterFlags(fs *pflag.FlagSet) {
	fs.String(KeyLogLevel, "warn", "log level: debug, info, warn or error")
	fs.String(KeyLogFormat, "text", "log format: text or json")
	fs.Int64(KeyMaxFileSize, defaultMaxFileSize, "skip files larger than this many bytes (0 = no limit)")
}

// Load resolves the configuration. Priority, highest first: flags set on the
// command line, environment variables, the config file, defaults. An empty
// configFile skips file loading.
func Load(fs *pflag.FlagSet, configFile string) (*Config, error) {
	v := viper.New()

	v.SetDefault(KeyLogLevel, "warn")
	v.SetDefault(KeyLogFormat, "text")
	v.SetDefault(KeyMaxFileSize, defaultMaxFileSize)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	if fs != nil {
		if err := v.BindPFlags(fs); err != nil {
			return nil, fmt.Errorf("binding flags: %w", err)
		}
	}

	if configFile != "" {
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("reading config file %s: %w", configFile, err)
		}
	}

	cfg := &Config{
		LogFormat:   strings.ToLower(v.GetString(KeyLogFormat)),
		MaxFileSize: v.GetInt64(KeyMaxFileSize),
	}
	if err := cfg.LogLevel.UnmarshalText([]byte(v.GetString(KeyLogLevel))); err != nil {
		return nil, fmt.Errorf("%w %q", ErrInvalidLogLevel, v.GetString(KeyLogLevel))
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the settings that UnmarshalText does not.
func (c *Config) Validate() error {
	switch c.LogFormat {
	case "text", "json":
	default:
		return fmt.Errorf("%w %q", ErrInvalidLogFormat, c.LogFormat)
	}
	if c.MaxFileSize < 0 {
		return fmt.Errorf("%w: %d", ErrInvalidMaxFileSize, c.MaxFileSize)
	}
	return nil
}
