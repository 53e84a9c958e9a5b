// Package models defines data structures for configuration, the dam table and resolver output.
package models

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"golang.org/x/net/html/charset"
	"gopkg.in/yaml.v3"
)

const (
	DefaultRiverOrigin      = "https://www1.river.go.jp"
	DefaultAggregateURL     = "https://www.waterworks.metro.tokyo.lg.jp/suigen/suigen"
	DefaultBrowserUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/126.0 Safari/537.36"
	DefaultUserAgent        = "dam-storage/1.0"
	DefaultAggregateLabel   = "ダム以上合計"
	DefaultDataEncoding     = "shift_jis"
	DefaultTimeout          = 30 * time.Second
	DefaultWorkerCount      = 4
)

// Config holds runtime settings. Values come from defaults, an optional YAML file
// and DAMRATE_* environment variables, in that order.
type Config struct {
	RiverOrigin      string        `yaml:"river_origin"`
	AggregateURL     string        `yaml:"aggregate_url"`
	BrowserUserAgent string        `yaml:"browser_user_agent"`
	UserAgent        string        `yaml:"user_agent"`
	AggregateLabel   string        `yaml:"aggregate_label"`
	DataEncoding     string        `yaml:"data_encoding"`
	Timeout          time.Duration `yaml:"timeout"`
	WorkerCount      int           `yaml:"workers"`
	LogLevel         string        `yaml:"log_level"`
}

// DefaultConfig returns the settings used when nothing is overridden.
func DefaultConfig() Config {
	return Config{
		RiverOrigin:      DefaultRiverOrigin,
		AggregateURL:     DefaultAggregateURL,
		BrowserUserAgent: DefaultBrowserUserAgent,
		UserAgent:        DefaultUserAgent,
		AggregateLabel:   DefaultAggregateLabel,
		DataEncoding:     DefaultDataEncoding,
		Timeout:          DefaultTimeout,
		WorkerCount:      DefaultWorkerCount,
		LogLevel:         "info",
	}
}

// LoadConfig builds a Config from defaults, the YAML file at path (skipped when path is empty)
// and the environment. A .env file in the working directory is loaded when present.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return cfg, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("failed to parse config file %s: %w", path, err)
		}
	}

	// Missing .env is the normal case.
	_ = godotenv.Load()

	if err := cfg.applyEnv(); err != nil {
		return cfg, err
	}
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() error {
	setString(&c.RiverOrigin, "DAMRATE_RIVER_ORIGIN")
	setString(&c.AggregateURL, "DAMRATE_AGGREGATE_URL")
	setString(&c.BrowserUserAgent, "DAMRATE_BROWSER_USER_AGENT")
	setString(&c.UserAgent, "DAMRATE_USER_AGENT")
	setString(&c.AggregateLabel, "DAMRATE_AGGREGATE_LABEL")
	setString(&c.DataEncoding, "DAMRATE_DATA_ENCODING")
	setString(&c.LogLevel, "DAMRATE_LOG_LEVEL")

	if v := os.Getenv("DAMRATE_TIMEOUT"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("invalid DAMRATE_TIMEOUT: %w", err)
		}
		c.Timeout = d
	}
	if v := os.Getenv("DAMRATE_WORKERS"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid DAMRATE_WORKERS: %w", err)
		}
		c.WorkerCount = n
	}
	return nil
}

func setString(dst *string, key string) {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		*dst = v
	}
}

// Validate reports the first setting that cannot be used.
func (c Config) Validate() error {
	if err := validateAbsURL("river_origin", c.RiverOrigin); err != nil {
		return err
	}
	if err := validateAbsURL("aggregate_url", c.AggregateURL); err != nil {
		return err
	}
	if c.Timeout <= 0 {
		return errors.New("timeout must be positive")
	}
	if c.WorkerCount <= 0 {
		return errors.New("workers must be positive")
	}
	if strings.TrimSpace(c.AggregateLabel) == "" {
		return errors.New("aggregate_label is required")
	}
	if enc, _ := charset.Lookup(c.DataEncoding); enc == nil {
		return fmt.Errorf("unknown data_encoding %q", c.DataEncoding)
	}
	return nil
}

func validateAbsURL(name, raw string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("invalid %s: %w", name, err)
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("invalid %s %q: must be an absolute http(s) URL", name, raw)
	}
	return nil
}
