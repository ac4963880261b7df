package main

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/go-gum/bencode"
	"github.com/spf13/viper"
)

// Config is the root configuration of the command line tool.
type Config struct {
	// Codec configures the codec used to read and write documents
	Codec bencode.Config `mapstructure:"codec"`

	// Log holds logging configuration
	Log LogConfig `mapstructure:"log"`
}

// LogConfig defines logger settings.
type LogConfig struct {
	// Level: debug, info, warn, error
	Level string `mapstructure:"level"`

	// Format: console or json
	Format string `mapstructure:"format"`

	// File to write log output to, stderr if empty
	File string `mapstructure:"file"`

	// Rotation controls rotation of the log file
	Rotation RotationConfig `mapstructure:"rotation"`
}

// RotationConfig controls log file rotation.
type RotationConfig struct {
	Enable     bool `mapstructure:"enable"`
	MaxSizeMB  int  `mapstructure:"max_size_mb"`
	MaxBackups int  `mapstructure:"max_backups"`
	MaxAgeDays int  `mapstructure:"max_age_days"`
	Compress   bool `mapstructure:"compress"`
}

// defaultConfig enables all extensions: the tool should be able to read whatever
// the extended codec writes.
func defaultConfig() Config {
	return Config{
		Codec: bencode.Config{
			Text:     true,
			Float:    true,
			None:     true,
			KeyKinds: []string{string(bencode.KindInt), string(bencode.KindBytes), string(bencode.KindText)},
		},
		Log: LogConfig{
			Level:  "warn",
			Format: "console",
			Rotation: RotationConfig{
				MaxSizeMB:  50,
				MaxBackups: 3,
				MaxAgeDays: 28,
			},
		},
	}
}

// loadConfig reads configuration from path (if non-empty) or the BENCODE_CONFIG
// environment variable. Environment variables with prefix BENCODE override single
// values, '.' is replaced by '_', e.g. BENCODE_LOG_LEVEL=debug. Command line flags
// given in overrides win over everything else.
func loadConfig(path string, overrides map[string]any) (Config, error) {
	cfg := defaultConfig()

	v := viper.New()
	v.SetConfigType("yaml")
	v.SetEnvPrefix("BENCODE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	// seed defaults so that env-only configs work
	v.SetDefault("codec.text", cfg.Codec.Text)
	v.SetDefault("codec.float", cfg.Codec.Float)
	v.SetDefault("codec.none", cfg.Codec.None)
	v.SetDefault("codec.decorate", cfg.Codec.Decorate)
	v.SetDefault("codec.key_kinds", cfg.Codec.KeyKinds)
	v.SetDefault("codec.max_depth", cfg.Codec.MaxDepth)
	v.SetDefault("log.level", cfg.Log.Level)
	v.SetDefault("log.format", cfg.Log.Format)
	v.SetDefault("log.file", cfg.Log.File)
	v.SetDefault("log.rotation.enable", cfg.Log.Rotation.Enable)
	v.SetDefault("log.rotation.max_size_mb", cfg.Log.Rotation.MaxSizeMB)
	v.SetDefault("log.rotation.max_backups", cfg.Log.Rotation.MaxBackups)
	v.SetDefault("log.rotation.max_age_days", cfg.Log.Rotation.MaxAgeDays)
	v.SetDefault("log.rotation.compress", cfg.Log.Rotation.Compress)

	if path == "" {
		path = os.Getenv("BENCODE_CONFIG")
	}

	if path != "" {
		v.SetConfigFile(path)

		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return Config{}, fmt.Errorf("read config: %w", err)
			}
		}
	}

	for key, value := range overrides {
		v.Set(key, value)
	}

	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("decode config: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

func (c *Config) validate() error {
	switch strings.ToLower(strings.TrimSpace(c.Log.Level)) {
	case "debug", "info", "warn", "warning", "error":
		// ok
	default:
		return fmt.Errorf("invalid log.level: %q", c.Log.Level)
	}

	switch strings.ToLower(c.Log.Format) {
	case "":
		c.Log.Format = "console"
	case "console", "json":
		// ok
	default:
		return fmt.Errorf("invalid log.format: %q", c.Log.Format)
	}

	if _, err := c.Codec.Options(); err != nil {
		return fmt.Errorf("invalid codec config: %w", err)
	}

	return nil
}
