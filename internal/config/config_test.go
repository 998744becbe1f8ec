package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sudosantos27/entry-url-validator/internal/checker"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load(viper.New(), nil, "")
	require.NoError(t, err)

	assert.Equal(t, Default(), cfg)
	assert.Equal(t, "origin/master", cfg.Base)
	assert.Equal(t, "HEAD", cfg.Head)
	assert.Equal(t, "entries/", cfg.Dir)
	assert.Equal(t, 5, cfg.MaxRedirects)
	assert.Equal(t, 5*time.Second, cfg.ConnectTimeout)
	assert.Equal(t, 5*time.Second, cfg.ReadTimeout)
	assert.Equal(t, "github", cfg.Output)
}

func TestLoad_Env(t *testing.T) {
	t.Setenv("VALIDATE_URLS_CONCURRENCY", "3")
	t.Setenv("VALIDATE_URLS_READ_TIMEOUT", "750ms")
	t.Setenv("VALIDATE_URLS_OUTPUT", "json")

	cfg, err := Load(viper.New(), nil, "")
	require.NoError(t, err)

	assert.Equal(t, 3, cfg.Concurrency)
	assert.Equal(t, 750*time.Millisecond, cfg.ReadTimeout)
	assert.Equal(t, "json", cfg.Output)
}

func TestLoad_FilePrecedence(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("base: origin/main\nmax-redirects: 2\nrate-limit: 4.5\n"), 0o644))

	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	flags.Int("max-redirects", checker.DefaultMaxRedirects, "")
	require.NoError(t, flags.Parse([]string{"--max-redirects=7"}))

	cfg, err := Load(viper.New(), flags, path)
	require.NoError(t, err)

	assert.Equal(t, "origin/main", cfg.Base)
	assert.Equal(t, 7, cfg.MaxRedirects)
	assert.Equal(t, 4.5, cfg.RateLimit)
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{name: "unknown output", env: map[string]string{"VALIDATE_URLS_OUTPUT": "xml"}},
		{name: "negative concurrency", env: map[string]string{"VALIDATE_URLS_CONCURRENCY": "-1"}},
		{name: "negative redirects", env: map[string]string{"VALIDATE_URLS_MAX_REDIRECTS": "-2"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.env {
				t.Setenv(k, v)
			}

			_, err := Load(viper.New(), nil, "")
			assert.ErrorContains(t, err, "config validation failed")
		})
	}
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(viper.New(), nil, filepath.Join(t.TempDir(), "missing.yaml"))
	assert.ErrorContains(t, err, "failed to read config file")
}

func TestConfig_Checker(t *testing.T) {
	cfg := Default()
	cfg.From = ""
	cfg.RateLimit = 2

	cc := cfg.Checker()

	assert.Equal(t, map[string]string{"User-Agent": checker.DefaultUserAgent}, cc.Headers)
	assert.Equal(t, checker.DefaultMaxRedirects, cc.MaxRedirects)
	assert.Equal(t, 2.0, cc.RateLimit)
	def := Default()
	assert.Equal(t, checker.DefaultConfig().Headers, def.Checker().Headers)
}
