package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/kartoza/precast-yard/internal/regression"
	"github.com/kartoza/precast-yard/internal/simulator"
)

// Config holds the application configuration
type Config struct {
	Port      int    `yaml:"port"`
	DataDir   string `yaml:"data_dir"`
	ModelPath string `yaml:"model_path"`
	Version   string `yaml:"-"`

	Training  TrainingConfig `yaml:"training"`
	Search    SearchConfig   `yaml:"search"`
	CacheSize int            `yaml:"cache_size"`

	// CORSAllowedOrigins lists browser origins allowed to call the API.
	// "*" allows any origin.
	CORSAllowedOrigins []string `yaml:"cors_allowed_origins"`

	Logging LoggingConfig `yaml:"logging"`
}

// TrainingConfig controls how the simulator is trained
type TrainingConfig struct {
	Samples       int     `yaml:"samples"`
	Seed          uint64  `yaml:"seed"`
	Alpha         float64 `yaml:"alpha"`
	Degree        int     `yaml:"degree"`
	CrossValidate bool    `yaml:"cross_validate"`
	Folds         int     `yaml:"folds"`
}

// SearchConfig sets the inverse-search grid
type SearchConfig struct {
	Resolution int `yaml:"resolution"`
	Stride     int `yaml:"stride"`
}

// LoggingConfig configures slog output
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Default returns the configuration used when nothing is overridden
func Default() *Config {
	return &Config{
		Port:    8080,
		DataDir: "data",
		Training: TrainingConfig{
			Samples: 4000,
			Seed:    42,
			Alpha:   50.0,
			Degree:  2,
			Folds:   5,
		},
		Search: SearchConfig{
			Resolution: 500,
			Stride:     4,
		},
		CacheSize:          256,
		CORSAllowedOrigins: []string{"http://localhost:3000"},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// Load builds the configuration.
// Order: defaults -> YAML file (if path is set) -> .env -> environment variables
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		fileConfig, err := LoadFromFile(path)
		if err != nil {
			return nil, err
		}
		cfg = fileConfig
	}

	// .env never overrides variables already set in the environment
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("loading .env: %w", err)
	}

	applyEnvOverrides(cfg)

	if cfg.ModelPath == "" {
		cfg.ModelPath = DefaultModelPath(cfg.DataDir)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// DefaultModelPath is where the trained model lives inside a data directory
func DefaultModelPath(dataDir string) string {
	return filepath.Join(dataDir, "models", "precast.gob")
}

// LoadFromFile reads a YAML config file on top of the defaults
func LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}
	return cfg, nil
}

// Validate checks that the configuration is usable
func (c *Config) Validate() error {
	if c.Port < 1 || c.Port > 65535 {
		return fmt.Errorf("port must be between 1 and 65535, got %d", c.Port)
	}
	if c.Training.Samples < 1 {
		return fmt.Errorf("training.samples must be positive, got %d", c.Training.Samples)
	}
	if c.Training.Alpha < 0 {
		return fmt.Errorf("training.alpha must be non-negative, got %g", c.Training.Alpha)
	}
	if c.Training.Folds < 2 {
		return fmt.Errorf("training.folds must be at least 2, got %d", c.Training.Folds)
	}
	if c.Search.Resolution < 2 || c.Search.Stride < 1 {
		return fmt.Errorf("search grid needs resolution >= 2 and stride >= 1, got %d/%d", c.Search.Resolution, c.Search.Stride)
	}

	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "warning": true, "error": true}
	if !validLevels[strings.ToLower(c.Logging.Level)] {
		return fmt.Errorf("invalid log level: %s (valid: debug, info, warn, error)", c.Logging.Level)
	}
	if f := strings.ToLower(c.Logging.Format); f != "text" && f != "json" {
		return fmt.Errorf("invalid log format: %s (valid: text, json)", c.Logging.Format)
	}
	return nil
}

// SimulatorOptions maps the config onto simulator construction options
func (c *Config) SimulatorOptions() simulator.Options {
	return simulator.Options{
		Pipeline: regression.PipelineConfig{
			Degree: c.Training.Degree,
			Alpha:  c.Training.Alpha,
		},
		Grid: simulator.Grid{
			Resolution: c.Search.Resolution,
			Stride:     c.Search.Stride,
		},
		CacheSize: c.CacheSize,
		Folds:     c.Training.Folds,
	}
}

// TrainOptions returns the training run settings
func (c *Config) TrainOptions() simulator.TrainOptions {
	return simulator.TrainOptions{
		Samples:       c.Training.Samples,
		Seed:          c.Training.Seed,
		CrossValidate: c.Training.CrossValidate,
	}
}

func applyEnvOverrides(c *Config) {
	c.Port = getEnvInt("PRECAST_PORT", c.Port)
	c.DataDir = getEnv("PRECAST_DATA_DIR", c.DataDir)
	c.ModelPath = getEnv("PRECAST_MODEL_PATH", c.ModelPath)
	c.CacheSize = getEnvInt("PRECAST_CACHE_SIZE", c.CacheSize)

	c.Training.Samples = getEnvInt("PRECAST_TRAINING_SAMPLES", c.Training.Samples)
	if v := os.Getenv("PRECAST_TRAINING_SEED"); v != "" {
		if seed, err := strconv.ParseUint(v, 10, 64); err == nil {
			c.Training.Seed = seed
		}
	}
	if v := os.Getenv("PRECAST_TRAINING_ALPHA"); v != "" {
		if alpha, err := strconv.ParseFloat(v, 64); err == nil {
			c.Training.Alpha = alpha
		}
	}
	c.Training.CrossValidate = getEnvBool("PRECAST_CROSS_VALIDATE", c.Training.CrossValidate)

	if origins := getEnvStringList("PRECAST_CORS_ALLOWED_ORIGINS"); origins != nil {
		c.CORSAllowedOrigins = origins
	}

	c.Logging.Level = getEnv("LOG_LEVEL", c.Logging.Level)
	c.Logging.Format = getEnv("LOG_FORMAT", c.Logging.Format)
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultValue
}

func getEnvStringList(key string) []string {
	value := os.Getenv(key)
	if value == "" {
		return nil
	}
	parts := strings.Split(value, ",")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			result = append(result, trimmed)
		}
	}
	return result
}
