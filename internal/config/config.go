// Package config loads validator settings from flags, environment variables
// and an optional YAML file.
package config

import (
	"fmt"
	"runtime"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/sudosantos27/entry-url-validator/internal/annotation"
	"github.com/sudosantos27/entry-url-validator/internal/changeset"
	"github.com/sudosantos27/entry-url-validator/internal/checker"
)

// EnvPrefix prefixes every environment variable, e.g. VALIDATE_URLS_CONCURRENCY.
const EnvPrefix = "VALIDATE_URLS"

// Config represents the validator configuration.
type Config struct {
	Base           string        `mapstructure:"base"`
	Head           string        `mapstructure:"head"`
	Dir            string        `mapstructure:"dir"`
	Concurrency    int           `mapstructure:"concurrency"`
	Timeout        time.Duration `mapstructure:"timeout"`
	ConnectTimeout time.Duration `mapstructure:"connect-timeout"`
	ReadTimeout    time.Duration `mapstructure:"read-timeout"`
	MaxRedirects   int           `mapstructure:"max-redirects"`
	RateLimit      float64       `mapstructure:"rate-limit"`
	Output         string        `mapstructure:"output"`
	UserAgent      string        `mapstructure:"user-agent"`
	From           string        `mapstructure:"from"`
	Debug          bool          `mapstructure:"debug"`
}

// Default returns the configuration of a CI run.
func Default() Config {
	return Config{
		Base:           changeset.DefaultBase,
		Head:           changeset.DefaultHead,
		Dir:            changeset.DefaultDir,
		Concurrency:    runtime.NumCPU(),
		ConnectTimeout: checker.DefaultConnectTimeout,
		ReadTimeout:    checker.DefaultReadTimeout,
		MaxRedirects:   checker.DefaultMaxRedirects,
		Output:         annotation.FormatGitHub,
		UserAgent:      checker.DefaultUserAgent,
		From:           checker.DefaultFrom,
	}
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Base, validation.Required),
		validation.Field(&c.Head, validation.Required),
		validation.Field(&c.Dir, validation.Required),
		validation.Field(&c.Concurrency, validation.Min(1)),
		validation.Field(&c.Timeout, validation.Min(time.Duration(0))),
		validation.Field(&c.ConnectTimeout, validation.Required, validation.Min(time.Millisecond)),
		validation.Field(&c.ReadTimeout, validation.Required, validation.Min(time.Millisecond)),
		validation.Field(&c.MaxRedirects, validation.Min(0)),
		validation.Field(&c.RateLimit, validation.Min(0.0)),
		validation.Field(&c.Output, validation.Required, validation.In(annotation.FormatGitHub, annotation.FormatJSON)),
		validation.Field(&c.UserAgent, validation.Required),
	)
}

// Checker returns the checker configuration.
func (c *Config) Checker() checker.Config {
	headers := map[string]string{"User-Agent": c.UserAgent}
	if c.From != "" {
		headers["From"] = c.From
	}

	return checker.Config{
		Headers:        headers,
		MaxRedirects:   c.MaxRedirects,
		ConnectTimeout: c.ConnectTimeout,
		ReadTimeout:    c.ReadTimeout,
		RateLimit:      c.RateLimit,
	}
}

// SetDefaults registers Default() with v so env and file values have a
// fallback even when no flag is bound for a key.
func SetDefaults(v *viper.Viper) {
	d := Default()
	v.SetDefault("base", d.Base)
	v.SetDefault("head", d.Head)
	v.SetDefault("dir", d.Dir)
	v.SetDefault("concurrency", d.Concurrency)
	v.SetDefault("timeout", d.Timeout)
	v.SetDefault("connect-timeout", d.ConnectTimeout)
	v.SetDefault("read-timeout", d.ReadTimeout)
	v.SetDefault("max-redirects", d.MaxRedirects)
	v.SetDefault("rate-limit", d.RateLimit)
	v.SetDefault("output", d.Output)
	v.SetDefault("user-agent", d.UserAgent)
	v.SetDefault("from", d.From)
	v.SetDefault("debug", d.Debug)
}

// Load merges flags, VALIDATE_URLS_* environment variables and the YAML file
// at path (if not empty), in that order of precedence, over the defaults.
func Load(v *viper.Viper, flags *pflag.FlagSet, path string) (Config, error) {
	SetDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	if flags != nil {
		if err := v.BindPFlags(flags); err != nil {
			return Config{}, fmt.Errorf("failed to bind flags: %w", err)
		}
	}

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("failed to read config file %s: %w", path, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("failed to parse config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}
