package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v2"
)

// Config represents the complete application configuration
type Config struct {
	Server   ServerConfig   `yaml:"server" envconfig:"SERVER"`
	Security SecurityConfig `yaml:"security" envconfig:"SECURITY"`
	Logging  LoggingConfig  `yaml:"logging" envconfig:"LOGGING"`
	Storage  StorageConfig  `yaml:"storage" envconfig:"STORAGE"`
	Voucher  VoucherConfig  `yaml:"voucher" envconfig:"VOUCHER"`
	Sweep    SweepConfig    `yaml:"sweep" envconfig:"SWEEP"`
}

// ServerConfig contains HTTP server configuration
type ServerConfig struct {
	Port            int           `yaml:"port" envconfig:"PORT" default:"8080"`
	ReadTimeout     time.Duration `yaml:"read_timeout" envconfig:"READ_TIMEOUT" default:"15s"`
	WriteTimeout    time.Duration `yaml:"write_timeout" envconfig:"WRITE_TIMEOUT" default:"15s"`
	IdleTimeout     time.Duration `yaml:"idle_timeout" envconfig:"IDLE_TIMEOUT" default:"60s"`
	MaxHeaderBytes  int           `yaml:"max_header_bytes" envconfig:"MAX_HEADER_BYTES" default:"1048576"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" envconfig:"SHUTDOWN_TIMEOUT" default:"30s"`
}

// SecurityConfig contains security-related configuration
type SecurityConfig struct {
	AllowedOrigins []string        `yaml:"allowed_origins" envconfig:"ALLOWED_ORIGINS" default:"http://localhost:8080"`
	EnableCORS     bool            `yaml:"enable_cors" envconfig:"ENABLE_CORS" default:"true"`
	RateLimit      RateLimitConfig `yaml:"rate_limit" envconfig:"RATE_LIMIT"`
}

// RateLimitConfig contains rate limiting configuration
type RateLimitConfig struct {
	Enabled bool    `yaml:"enabled" envconfig:"ENABLED" default:"true"`
	RPS     float64 `yaml:"rps" envconfig:"RPS" default:"100"`
	Burst   int     `yaml:"burst" envconfig:"BURST" default:"50"`
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Level    string `yaml:"level" envconfig:"LEVEL" default:"info"`
	Format   string `yaml:"format" envconfig:"FORMAT" default:"json"`
	Output   string `yaml:"output" envconfig:"OUTPUT" default:"both"`
	FilePath string `yaml:"file_path" envconfig:"FILE_PATH" default:"logs/app.log"`
}

// StorageConfig contains persistence configuration
type StorageConfig struct {
	DatabasePath string `yaml:"database_path" envconfig:"DATABASE_PATH" default:"data/hotspot.db"`
	ExportDir    string `yaml:"export_dir" envconfig:"EXPORT_DIR" default:"exports"`
}

// VoucherConfig bounds voucher generation
type VoucherConfig struct {
	MaxBatchSize   int `yaml:"max_batch_size" envconfig:"MAX_BATCH_SIZE" default:"500"`
	PasswordLength int `yaml:"password_length" envconfig:"PASSWORD_LENGTH" default:"6"`
	// MaxSequence bounds the per-account credential namespace. Usernames embed
	// a zero-padded five digit sequence, so the ceiling is 99999.
	MaxSequence int64 `yaml:"max_sequence" envconfig:"MAX_SEQUENCE" default:"99999"`
}

// SweepConfig controls the background expiry sweep
type SweepConfig struct {
	Enabled  bool          `yaml:"enabled" envconfig:"ENABLED" default:"true"`
	Interval time.Duration `yaml:"interval" envconfig:"INTERVAL" default:"1m"`
}

// Load loads configuration from environment variables and config file
func Load() (*Config, error) {
	var cfg Config

	// Load from environment variables first
	if err := envconfig.Process("HOTSPOT", &cfg); err != nil {
		return nil, fmt.Errorf("failed to load config from env: %w", err)
	}

	// Load from config file if exists
	configFile := getConfigFilePath()
	if configFile != "" {
		fileConfig, err := loadFromFile(configFile)
		if err != nil {
			return nil, fmt.Errorf("failed to load config from file: %w", err)
		}
		cfg = mergeConfigs(*fileConfig, cfg)
	}

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	if err := cfg.ensureDirectories(); err != nil {
		return nil, fmt.Errorf("failed to prepare directories: %w", err)
	}

	return &cfg, nil
}

// loadFromFile loads configuration from YAML file
func loadFromFile(filePath string) (*Config, error) {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// mergeConfigs merges file config with env config (env takes precedence)
func mergeConfigs(fileConfig, envConfig Config) Config {
	if envConfig.Server.Port == 0 {
		envConfig.Server.Port = fileConfig.Server.Port
	}
	if envConfig.Server.ReadTimeout == 0 {
		envConfig.Server.ReadTimeout = fileConfig.Server.ReadTimeout
	}
	if envConfig.Storage.DatabasePath == "" {
		envConfig.Storage.DatabasePath = fileConfig.Storage.DatabasePath
	}
	if envConfig.Storage.ExportDir == "" {
		envConfig.Storage.ExportDir = fileConfig.Storage.ExportDir
	}
	if envConfig.Voucher.MaxBatchSize == 0 {
		envConfig.Voucher.MaxBatchSize = fileConfig.Voucher.MaxBatchSize
	}
	if envConfig.Voucher.PasswordLength == 0 {
		envConfig.Voucher.PasswordLength = fileConfig.Voucher.PasswordLength
	}
	if envConfig.Sweep.Interval == 0 {
		envConfig.Sweep.Interval = fileConfig.Sweep.Interval
	}

	return envConfig
}

// ensureDirectories creates the directories the service writes into
func (c *Config) ensureDirectories() error {
	dirs := []string{
		filepath.Dir(c.Storage.DatabasePath),
		c.Storage.ExportDir,
		filepath.Dir(c.Logging.FilePath),
	}
	for _, dir := range dirs {
		if dir == "" || dir == "." {
			continue
		}
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create %s: %w", dir, err)
		}
	}
	return nil
}

// validate validates the configuration
func (c *Config) validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}

	if c.Server.ReadTimeout <= 0 {
		return fmt.Errorf("server read timeout must be positive")
	}

	if c.Server.WriteTimeout <= 0 {
		return fmt.Errorf("server write timeout must be positive")
	}

	if c.Voucher.MaxBatchSize <= 0 {
		return fmt.Errorf("voucher max batch size must be positive")
	}

	if c.Voucher.PasswordLength < 4 || c.Voucher.PasswordLength > 12 {
		return fmt.Errorf("voucher password length must be between 4 and 12")
	}

	if c.Voucher.MaxSequence <= 0 {
		return fmt.Errorf("voucher max sequence must be positive")
	}

	if c.Sweep.Enabled && c.Sweep.Interval < time.Second {
		return fmt.Errorf("sweep interval must be at least 1s")
	}

	// Always use JSON format
	if c.Logging.Format != "json" {
		c.Logging.Format = "json"
	}

	if c.Logging.Output != "both" && c.Logging.Output != "file" && c.Logging.Output != "stdout" {
		c.Logging.Output = "both"
	}

	if c.Logging.FilePath == "" {
		c.Logging.FilePath = "logs/app.log"
	}

	return nil
}

// getConfigFilePath returns the path to the config file
func getConfigFilePath() string {
	locations := []string{
		"config.yaml",
		"configs/config.yaml",
	}

	for _, location := range locations {
		if _, err := os.Stat(location); err == nil {
			return location
		}
	}

	return "" // No config file found, use env vars only
}

// Default returns default configuration
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Port:            8080,
			ReadTimeout:     15 * time.Second,
			WriteTimeout:    15 * time.Second,
			IdleTimeout:     60 * time.Second,
			MaxHeaderBytes:  1 << 20, // 1MB
			ShutdownTimeout: 30 * time.Second,
		},
		Security: SecurityConfig{
			AllowedOrigins: []string{"http://localhost:8080"},
			EnableCORS:     true,
			RateLimit: RateLimitConfig{
				Enabled: true,
				RPS:     100,
				Burst:   50,
			},
		},
		Logging: LoggingConfig{
			Level:    "info",
			Format:   "json",
			Output:   "both",
			FilePath: "logs/app.log",
		},
		Storage: StorageConfig{
			DatabasePath: "data/hotspot.db",
			ExportDir:    "exports",
		},
		Voucher: VoucherConfig{
			MaxBatchSize:   500,
			PasswordLength: 6,
			MaxSequence:    99999,
		},
		Sweep: SweepConfig{
			Enabled:  true,
			Interval: time.Minute,
		},
	}
}
