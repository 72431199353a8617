package config

import (
	"fmt"
	"os"
	"runtime"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"gobasket/internal/errors"
)

// Config represents the complete application configuration
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Data     DataConfig     `yaml:"data"`
	Analysis AnalysisConfig `yaml:"analysis"`
	Database DatabaseConfig `yaml:"database"`
	Log      LogConfig      `yaml:"log"`
}

// ServerConfig holds web server settings
type ServerConfig struct {
	Port    string `yaml:"port" validate:"required,numeric"`
	GinMode string `yaml:"gin_mode" validate:"oneof=debug release test"`
}

// DataConfig names the transaction source. File wins over APIURL when both are set.
type DataConfig struct {
	File              string `yaml:"file" validate:"required_without=APIURL"`
	Sheet             string `yaml:"sheet"`
	TransactionColumn string `yaml:"transaction_column"`
	// Columns maps dimensions onto file columns, e.g. "item=sku,brand=Brand"
	Columns string `yaml:"columns"`

	APIURL             string `yaml:"api_url" validate:"omitempty,url"`
	APIToken           string `yaml:"api_token"`
	APIDataPath        string `yaml:"api_data_path"`
	APITransactionPath string `yaml:"api_transaction_path"`
	APILinesPath       string `yaml:"api_lines_path"`
	// APIFields maps dimensions onto gjson paths, e.g. "item=sku,brand=brand.name"
	APIFields string `yaml:"api_fields" validate:"required_with=APIURL"`
}

// AnalysisConfig holds engine defaults applied when a request leaves them out
type AnalysisConfig struct {
	MinSupport     float64       `yaml:"min_support" validate:"gt=0,lte=1"`
	MinConfidence  float64       `yaml:"min_confidence" validate:"gte=0,lte=1"`
	MaxItemsetSize int           `yaml:"max_itemset_size" validate:"gte=0"`
	TopK           int           `yaml:"top_k" validate:"gte=1"`
	SortBy         string        `yaml:"sort_by" validate:"oneof=support confidence lift conviction leverage frequency"`
	Workers        int           `yaml:"workers" validate:"gte=1"`
	MineTimeout    time.Duration `yaml:"mine_timeout" validate:"gt=0"`
}

// DatabaseConfig is optional; without a URL mining runs are not persisted
type DatabaseConfig struct {
	Driver string `yaml:"driver" validate:"omitempty,oneof=postgres sqlite3"`
	URL    string `yaml:"url"`
}

// Enabled reports whether a rule store is configured
func (d DatabaseConfig) Enabled() bool { return d.URL != "" }

// LogConfig holds logging settings
type LogConfig struct {
	Level string `yaml:"level" validate:"oneof=ERROR WARN INFO DEBUG TRACE error warn info debug trace"`
}

// Default returns the configuration used before any file or environment overrides
func Default() *Config {
	return &Config{
		Server: ServerConfig{Port: "8080", GinMode: "release"},
		Data:   DataConfig{Sheet: "Sheet1"},
		Analysis: AnalysisConfig{
			MinSupport:    0.01,
			MinConfidence: 0.2,
			TopK:          10,
			SortBy:        "lift",
			Workers:       runtime.GOMAXPROCS(0),
			MineTimeout:   2 * time.Minute,
		},
		Database: DatabaseConfig{Driver: "postgres"},
		Log:      LogConfig{Level: "INFO"},
	}
}

// Load builds the configuration from defaults, the optional YAML file named by
// BASKET_CONFIG, then environment variables, and validates the result.
func Load() (*Config, error) {
	config := Default()

	if path := os.Getenv("BASKET_CONFIG"); path != "" {
		if err := loadFile(path, config); err != nil {
			return nil, errors.Wrap(err, "failed to load configuration file")
		}
	}

	applyServerEnv(&config.Server)
	applyDataEnv(&config.Data)
	applyAnalysisEnv(&config.Analysis)
	applyDatabaseEnv(&config.Database)
	config.Log.Level = getEnvOrDefault("LOG_LEVEL", config.Log.Level)

	if err := Validate(config); err != nil {
		return nil, errors.Wrap(err, "configuration validation failed")
	}

	return config, nil
}

func loadFile(path string, config *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	if err := yaml.Unmarshal(data, config); err != nil {
		return errors.ConfigInvalid(fmt.Sprintf("%s: %v", path, err))
	}
	return nil
}

func applyServerEnv(s *ServerConfig) {
	s.Port = getEnvOrDefault("PORT", s.Port)
	s.GinMode = getEnvOrDefault("GIN_MODE", s.GinMode)
}

func applyDataEnv(d *DataConfig) {
	d.File = getEnvOrDefault("BASKET_FILE", d.File)
	d.Sheet = getEnvOrDefault("BASKET_SHEET", d.Sheet)
	d.TransactionColumn = getEnvOrDefault("BASKET_TRANSACTION_COLUMN", d.TransactionColumn)
	d.Columns = getEnvOrDefault("BASKET_COLUMNS", d.Columns)
	d.APIURL = getEnvOrDefault("BASKET_API_URL", d.APIURL)
	d.APIToken = getEnvOrDefault("BASKET_API_TOKEN", d.APIToken)
	d.APIDataPath = getEnvOrDefault("BASKET_API_DATA_PATH", d.APIDataPath)
	d.APITransactionPath = getEnvOrDefault("BASKET_API_TRANSACTION_PATH", d.APITransactionPath)
	d.APILinesPath = getEnvOrDefault("BASKET_API_LINES_PATH", d.APILinesPath)
	d.APIFields = getEnvOrDefault("BASKET_API_FIELDS", d.APIFields)
}

func applyAnalysisEnv(a *AnalysisConfig) {
	a.MinSupport = getEnvFloatOrDefault("MIN_SUPPORT", a.MinSupport)
	a.MinConfidence = getEnvFloatOrDefault("MIN_CONFIDENCE", a.MinConfidence)
	a.MaxItemsetSize = getEnvIntOrDefault("MAX_ITEMSET_SIZE", a.MaxItemsetSize)
	a.TopK = getEnvIntOrDefault("TOP_K", a.TopK)
	a.SortBy = strings.ToLower(getEnvOrDefault("SORT_BY", a.SortBy))
	a.Workers = getEnvIntOrDefault("MINING_WORKERS", a.Workers)
	a.MineTimeout = getEnvDurationOrDefault("MINE_TIMEOUT", a.MineTimeout)
}

func applyDatabaseEnv(d *DatabaseConfig) {
	d.URL = getEnvOrDefault("DATABASE_URL", d.URL)
	d.Driver = getEnvOrDefault("DATABASE_DRIVER", d.Driver)
}

var validate = validator.New()

// Validate checks struct constraints and reports every failing field
func Validate(config *Config) error {
	err := validate.Struct(config)
	if err == nil {
		return nil
	}
	validationErrors, ok := err.(validator.ValidationErrors)
	if !ok {
		return err
	}
	messages := make([]string, 0, len(validationErrors))
	for _, e := range validationErrors {
		messages = append(messages, formatFieldError(e))
	}
	return errors.ConfigInvalid(strings.Join(messages, "; "))
}

func formatFieldError(e validator.FieldError) string {
	field := e.Namespace()
	switch e.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", field)
	case "required_without":
		return fmt.Sprintf("%s is required when %s is not set", field, e.Param())
	case "required_with":
		return fmt.Sprintf("%s is required when %s is set", field, e.Param())
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", field, e.Param())
	case "gt":
		return fmt.Sprintf("%s must be greater than %s", field, e.Param())
	case "gte":
		return fmt.Sprintf("%s must be at least %s", field, e.Param())
	case "lte":
		return fmt.Sprintf("%s must be at most %s", field, e.Param())
	default:
		return fmt.Sprintf("%s is invalid (%s)", field, e.Tag())
	}
}

// Helper functions for environment variable parsing
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvIntOrDefault(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvFloatOrDefault(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatValue, err := strconv.ParseFloat(value, 64); err == nil {
			return floatValue
		}
	}
	return defaultValue
}

func getEnvDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}
