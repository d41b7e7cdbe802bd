package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var envKeys = []string{
	"PRECAST_PORT", "PRECAST_DATA_DIR", "PRECAST_MODEL_PATH", "PRECAST_CACHE_SIZE",
	"PRECAST_TRAINING_SAMPLES", "PRECAST_TRAINING_SEED", "PRECAST_TRAINING_ALPHA",
	"PRECAST_CROSS_VALIDATE", "PRECAST_CORS_ALLOWED_ORIGINS", "LOG_LEVEL", "LOG_FORMAT",
}

// isolate clears overrides and runs the test from an empty directory
func isolate(t *testing.T) string {
	t.Helper()
	for _, k := range envKeys {
		t.Setenv(k, "")
	}
	dir := t.TempDir()
	t.Chdir(dir)
	return dir
}

func TestDefault(t *testing.T) {
	cfg := Default()

	assert.Equal(t, 8080, cfg.Port)
	assert.Equal(t, 4000, cfg.Training.Samples)
	assert.Equal(t, uint64(42), cfg.Training.Seed)
	assert.Equal(t, 50.0, cfg.Training.Alpha)
	assert.Equal(t, 2, cfg.Training.Degree)
	assert.Equal(t, 5, cfg.Training.Folds)
	assert.False(t, cfg.Training.CrossValidate)
	assert.Equal(t, 500, cfg.Search.Resolution)
	assert.Equal(t, 4, cfg.Search.Stride)
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.NoError(t, cfg.Validate())
}

func TestLoadDefaults(t *testing.T) {
	isolate(t)

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join("data", "models", "precast.gob"), cfg.ModelPath)

	opts := cfg.SimulatorOptions()
	assert.Equal(t, 50.0, opts.Pipeline.Alpha)
	assert.Equal(t, 500, opts.Grid.Resolution)
	assert.Equal(t, 256, opts.CacheSize)

	train := cfg.TrainOptions()
	assert.Equal(t, 4000, train.Samples)
	assert.Equal(t, uint64(42), train.Seed)
}

func TestLoadFromFile(t *testing.T) {
	dir := isolate(t)
	path := filepath.Join(dir, "precast.yaml")
	content := `
port: 9090
data_dir: /var/lib/precast
training:
  samples: 1500
  alpha: 10
  cross_validate: true
search:
  stride: 2
logging:
  format: json
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 9090, cfg.Port)
	assert.Equal(t, 1500, cfg.Training.Samples)
	assert.Equal(t, 10.0, cfg.Training.Alpha)
	assert.True(t, cfg.Training.CrossValidate)
	assert.Equal(t, 2, cfg.Search.Stride)
	// unset keys keep their defaults
	assert.Equal(t, 500, cfg.Search.Resolution)
	assert.Equal(t, uint64(42), cfg.Training.Seed)
	assert.Equal(t, "json", cfg.Logging.Format)
	assert.Equal(t, filepath.Join("/var/lib/precast", "models", "precast.gob"), cfg.ModelPath)
}

func TestLoadMissingFile(t *testing.T) {
	dir := isolate(t)
	_, err := Load(filepath.Join(dir, "absent.yaml"))
	assert.Error(t, err)
}

func TestEnvOverrides(t *testing.T) {
	isolate(t)
	t.Setenv("PRECAST_PORT", "7000")
	t.Setenv("PRECAST_TRAINING_SEED", "7")
	t.Setenv("PRECAST_TRAINING_ALPHA", "2.5")
	t.Setenv("PRECAST_MODEL_PATH", "/tmp/model.gob")
	t.Setenv("PRECAST_CORS_ALLOWED_ORIGINS", "https://a.example, https://b.example")
	t.Setenv("LOG_LEVEL", "debug")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, 7000, cfg.Port)
	assert.Equal(t, uint64(7), cfg.Training.Seed)
	assert.Equal(t, 2.5, cfg.Training.Alpha)
	assert.Equal(t, "/tmp/model.gob", cfg.ModelPath)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.CORSAllowedOrigins)
	assert.Equal(t, "debug", cfg.Logging.Level)
}

func TestDotEnv(t *testing.T) {
	dir := isolate(t)
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte("PRECAST_TRAINING_SAMPLES=900\n"), 0644))
	// godotenv only fills unset variables
	require.NoError(t, os.Unsetenv("PRECAST_TRAINING_SAMPLES"))

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, 900, cfg.Training.Samples)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"port", func(c *Config) { c.Port = 0 }},
		{"samples", func(c *Config) { c.Training.Samples = 0 }},
		{"alpha", func(c *Config) { c.Training.Alpha = -1 }},
		{"folds", func(c *Config) { c.Training.Folds = 1 }},
		{"grid", func(c *Config) { c.Search.Stride = 0 }},
		{"level", func(c *Config) { c.Logging.Level = "loud" }},
		{"format", func(c *Config) { c.Logging.Format = "xml" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}
