package config

import (
	"errors"
	"fmt"
	"io/fs"
	"net"
	"os"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap/zapcore"
	"gopkg.in/yaml.v3"

	"github.com/edirooss/zrec-server/pkg/hostutil"
)

// DefaultPath is read when no -config flag is given.
const DefaultPath = "zrec-server.yaml"

// Config is the server configuration. Precedence: defaults < YAML file <
// ZREC_* environment variables.
type Config struct {
	ListenAddr   string        `yaml:"listen_address"` // ZREC_LISTEN_ADDRESS
	Port         string        `yaml:"port"`           // ZREC_PORT
	RedisAddr    string        `yaml:"redis_address"`  // ZREC_REDIS_ADDRESS; empty → in-memory history
	FFmpegPath   string        `yaml:"ffmpeg_path"`    // ZREC_FFMPEG_PATH
	Platform     string        `yaml:"platform"`       // ZREC_PLATFORM: auto | gdigrab | x11grab
	Display      string        `yaml:"display"`        // ZREC_DISPLAY; empty → $DISPLAY or ":0"
	TimeUnit     time.Duration `yaml:"time_unit"`      // ZREC_TIME_UNIT
	HistoryLimit int           `yaml:"history_limit"`  // ZREC_HISTORY_LIMIT
	LogLevel     string        `yaml:"log_level"`      // ZREC_LOG_LEVEL
	Dev          bool          `yaml:"dev"`            // ZREC_DEV (or ENV=dev): CORS for local UIs
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		ListenAddr:   "127.0.0.1",
		Port:         "8787",
		FFmpegPath:   "ffmpeg",
		Platform:     "auto",
		TimeUnit:     time.Second,
		HistoryLimit: 100,
		LogLevel:     "debug",
	}
}

// Load reads path (a missing file is not an error when path is DefaultPath),
// applies environment overrides and validates the result.
func Load(path string) (Config, error) {
	cfg := Default()

	if path == "" {
		path = DefaultPath
	}
	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse %s: %w", path, err)
		}
	case errors.Is(err, fs.ErrNotExist) && path == DefaultPath:
	default:
		return Config{}, fmt.Errorf("read %s: %w", path, err)
	}

	if err := cfg.applyEnv(os.LookupEnv); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c *Config) applyEnv(lookup func(string) (string, bool)) error {
	str := func(key string, dst *string) {
		if v, ok := lookup(key); ok {
			*dst = v
		}
	}
	str("ZREC_LISTEN_ADDRESS", &c.ListenAddr)
	str("ZREC_PORT", &c.Port)
	str("ZREC_REDIS_ADDRESS", &c.RedisAddr)
	str("ZREC_FFMPEG_PATH", &c.FFmpegPath)
	str("ZREC_PLATFORM", &c.Platform)
	str("ZREC_DISPLAY", &c.Display)
	str("ZREC_LOG_LEVEL", &c.LogLevel)

	if v, ok := lookup("ZREC_TIME_UNIT"); ok {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("ZREC_TIME_UNIT: %w", err)
		}
		c.TimeUnit = d
	}
	if v, ok := lookup("ZREC_HISTORY_LIMIT"); ok {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("ZREC_HISTORY_LIMIT: %w", err)
		}
		c.HistoryLimit = n
	}
	if v, ok := lookup("ZREC_DEV"); ok {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("ZREC_DEV: %w", err)
		}
		c.Dev = b
	}
	if v, ok := lookup("ENV"); ok && v == "dev" {
		c.Dev = true
	}
	return nil
}

// Validate checks value ranges.
func (c *Config) Validate() error {
	var errs []error
	if err := hostutil.ValidateHost(c.ListenAddr); err != nil {
		errs = append(errs, fmt.Errorf("listen_address: %w", err))
	}
	if c.RedisAddr != "" {
		if err := hostutil.ValidateHostPort(c.RedisAddr); err != nil {
			errs = append(errs, fmt.Errorf("redis_address: %w", err))
		}
	}
	if c.Port == "" {
		errs = append(errs, errors.New("port is required"))
	} else if n, err := strconv.Atoi(c.Port); err != nil || n < 1 || n > 65535 {
		errs = append(errs, fmt.Errorf("port must be 1-65535, got %q", c.Port))
	}
	if c.TimeUnit <= 0 {
		errs = append(errs, fmt.Errorf("time_unit must be positive, got %s", c.TimeUnit))
	}
	if c.HistoryLimit < 1 {
		errs = append(errs, fmt.Errorf("history_limit must be at least 1, got %d", c.HistoryLimit))
	}
	if strings.TrimSpace(c.FFmpegPath) == "" {
		errs = append(errs, errors.New("ffmpeg_path is required"))
	}
	if _, err := zapcore.ParseLevel(c.LogLevel); err != nil {
		errs = append(errs, fmt.Errorf("log_level: %w", err))
	}
	return errors.Join(errs...)
}

// Level returns the parsed log level (debug if invalid).
func (c *Config) Level() zapcore.Level {
	lvl, err := zapcore.ParseLevel(c.LogLevel)
	if err != nil {
		return zapcore.DebugLevel
	}
	return lvl
}

// Addr is the HTTP listen address.
func (c *Config) Addr() string {
	return net.JoinHostPort(strings.TrimSuffix(strings.TrimPrefix(c.ListenAddr, "["), "]"), c.Port)
}
