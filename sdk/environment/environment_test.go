package environment

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type nested struct {
	Host string `env:"DB_HOST" default:"localhost"`
}

type testConfig struct {
	Port     string        `env:"PORT" default:":8080"`
	Timeout  time.Duration `env:"TIMEOUT" default:"5s"`
	Workers  int           `env:"WORKERS" default:"4"`
	Ratio    float64       `env:"RATIO" default:"0.5"`
	Debug    bool          `env:"DEBUG"`
	Origins  []string      `env:"ORIGINS" separator:";"`
	DB       nested
	internal string
}

func TestParseEnvTagsDefaults(t *testing.T) {
	var cfg testConfig
	require.NoError(t, ParseEnvTags("CFGTEST", &cfg))

	assert.Equal(t, ":8080", cfg.Port)
	assert.Equal(t, 5*time.Second, cfg.Timeout)
	assert.Equal(t, 4, cfg.Workers)
	assert.InDelta(t, 0.5, cfg.Ratio, 0.0001)
	assert.False(t, cfg.Debug)
	assert.Nil(t, cfg.Origins)
	assert.Equal(t, "localhost", cfg.DB.Host)
	assert.Empty(t, cfg.internal)
}

func TestParseEnvTagsOverrides(t *testing.T) {
	t.Setenv("CFGTEST_PORT", ":9000")
	t.Setenv("CFGTEST_TIMEOUT", "1m")
	t.Setenv("CFGTEST_DEBUG", "true")
	t.Setenv("CFGTEST_ORIGINS", "a.com; b.com;")
	t.Setenv("CFGTEST_DB_HOST", "db.internal")

	var cfg testConfig
	require.NoError(t, ParseEnvTags("CFGTEST", &cfg))

	assert.Equal(t, ":9000", cfg.Port)
	assert.Equal(t, time.Minute, cfg.Timeout)
	assert.True(t, cfg.Debug)
	assert.Equal(t, []string{"a.com", "b.com"}, cfg.Origins)
	assert.Equal(t, "db.internal", cfg.DB.Host)
}

func TestParseEnvTagsErrors(t *testing.T) {
	var required struct {
		DSN string `env:"DSN" required:"true"`
	}
	err := ParseEnvTags("CFGTEST", &required)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "CFGTEST_DSN")

	t.Setenv("CFGTEST_WORKERS", "many")
	var cfg testConfig
	require.Error(t, ParseEnvTags("CFGTEST", &cfg))

	require.Error(t, ParseEnvTags("CFGTEST", cfg))
}

func TestLoadEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ".env")
	require.NoError(t, os.WriteFile(path, []byte("CFGTEST_FROM_FILE=yes\n"), 0o600))
	t.Cleanup(func() { os.Unsetenv("CFGTEST_FROM_FILE") })

	require.NoError(t, LoadEnv(filepath.Join(dir, "missing.env"), path))
	assert.Equal(t, "yes", os.Getenv("CFGTEST_FROM_FILE"))
}

func TestGetEnvKeyPrefix(t *testing.T) {
	assert.Equal(t, "APP_PORT", GetEnvKeyPrefix("APP", "PORT"))
	assert.Equal(t, "PORT", GetEnvKeyPrefix("", "PORT"))
}
