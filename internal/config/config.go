package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config structure represents the application configuration
type Config struct {
	Server struct {
		Port string `yaml:"port" env:"SERVER_PORT"`
		Mode string `yaml:"mode" env:"SERVER_MODE"`
	} `yaml:"server"`

	Database struct {
		Host            string `yaml:"host" env:"DB_HOST"`
		Port            string `yaml:"port" env:"DB_PORT"`
		User            string `yaml:"user" env:"DB_USER"`
		Password        string `yaml:"password" env:"DB_PASSWORD"`
		DBName          string `yaml:"dbname" env:"DB_NAME"`
		SSLMode         string `yaml:"sslmode" env:"DB_SSLMODE"`
		MaxOpenConns    int    `yaml:"max_open_conns" env:"DB_MAX_OPEN_CONNS"`
		MaxIdleConns    int    `yaml:"max_idle_conns" env:"DB_MAX_IDLE_CONNS"`
		ConnMaxLifetime string `yaml:"conn_max_lifetime" env:"DB_CONN_MAX_LIFETIME"`
	} `yaml:"database"`

	JWT struct {
		Secret string `yaml:"secret" env:"JWT_SECRET"`
		Issuer string `yaml:"issuer" env:"JWT_ISSUER"`
	} `yaml:"jwt"`

	Storage struct {
		Endpoint  string `yaml:"endpoint" env:"STORAGE_ENDPOINT"`
		AccessKey string `yaml:"access_key" env:"STORAGE_ACCESS_KEY"`
		SecretKey string `yaml:"secret_key" env:"STORAGE_SECRET_KEY"`
		Bucket    string `yaml:"bucket" env:"STORAGE_BUCKET"`
		UseSSL    bool   `yaml:"use_ssl" env:"STORAGE_USE_SSL"`
	} `yaml:"storage"`

	Upload struct {
		MaxFileSize   int64  `yaml:"max_file_size" env:"UPLOAD_MAX_FILE_SIZE"`
		SessionTTL    string `yaml:"session_ttl" env:"UPLOAD_SESSION_TTL"`
		SweepInterval string `yaml:"sweep_interval" env:"UPLOAD_SWEEP_INTERVAL"`
	} `yaml:"upload"`

	Access struct {
		SignedURLTTL    string `yaml:"signed_url_ttl" env:"ACCESS_SIGNED_URL_TTL"`
		MaxSignedURLTTL string `yaml:"max_signed_url_ttl" env:"ACCESS_MAX_SIGNED_URL_TTL"`
		DefaultGrantTTL string `yaml:"default_grant_ttl" env:"ACCESS_DEFAULT_GRANT_TTL"`
	} `yaml:"access"`

	Anomaly struct {
		Window    string `yaml:"window" env:"ANOMALY_WINDOW"`
		Threshold int    `yaml:"threshold" env:"ANOMALY_THRESHOLD"`
		Enforce   bool   `yaml:"enforce" env:"ANOMALY_ENFORCE"`
	} `yaml:"anomaly"`

	Logging struct {
		Level  string `yaml:"level" env:"LOG_LEVEL"`
		Format string `yaml:"format" env:"LOG_FORMAT"`
	} `yaml:"logging"`
}

// LoadConfig loads configuration from a file and environment variables
func LoadConfig(configPath string) (*Config, error) {
	config := &Config{}
	setDefaults(config)

	// Try to read config file if it exists
	if _, err := os.Stat(configPath); err == nil {
		file, err := os.ReadFile(configPath)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}

		err = yaml.Unmarshal(file, config)
		if err != nil {
			return nil, fmt.Errorf("failed to parse config: %w", err)
		}
	}

	// Override with environment variables
	err := loadFromEnv(config)
	if err != nil {
		return nil, fmt.Errorf("failed to load from environment: %w", err)
	}

	if err := validateConfig(config); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return config, nil
}

// setDefaults sets default values for the configuration
func setDefaults(config *Config) {
	// Server defaults
	config.Server.Port = "8080"
	config.Server.Mode = "development"

	// Database defaults
	config.Database.Host = "localhost"
	config.Database.Port = "5432"
	config.Database.User = "postgres"
	config.Database.Password = "postgres"
	config.Database.DBName = "securefiles"
	config.Database.SSLMode = "disable"
	config.Database.MaxOpenConns = 20
	config.Database.MaxIdleConns = 5
	config.Database.ConnMaxLifetime = "1h"

	// JWT defaults
	config.JWT.Issuer = "securefiles"

	// Storage defaults
	config.Storage.Endpoint = "localhost:9000"
	config.Storage.Bucket = "secure-files"
	config.Storage.UseSSL = false

	// Upload defaults: 100 MiB cap, 1 hour window
	config.Upload.MaxFileSize = 100 * 1024 * 1024
	config.Upload.SessionTTL = "1h"
	config.Upload.SweepInterval = "10m"

	// Signed URL defaults: 1 hour, never above 24 hours
	config.Access.SignedURLTTL = "1h"
	config.Access.MaxSignedURLTTL = "24h"
	config.Access.DefaultGrantTTL = "720h"

	// Anomaly detection defaults: 20 accesses over 5 minutes, advisory only
	config.Anomaly.Window = "5m"
	config.Anomaly.Threshold = 20
	config.Anomaly.Enforce = false

	// Logging defaults
	config.Logging.Level = "info"
	config.Logging.Format = "json"
}

// loadFromEnv overrides configuration with environment variables
func loadFromEnv(config *Config) error {
	return processStructFields(config)
}

// validateConfig ensures that the configuration is valid
func validateConfig(config *Config) error {
	if config.Database.Host == "" {
		return fmt.Errorf("database host is required")
	}

	if config.JWT.Secret == "" {
		return fmt.Errorf("JWT secret is required")
	}

	if config.Storage.Bucket == "" {
		return fmt.Errorf("storage bucket is required")
	}

	if config.Upload.MaxFileSize <= 0 {
		return fmt.Errorf("upload max file size must be positive")
	}

	if config.Anomaly.Threshold <= 0 {
		return fmt.Errorf("anomaly threshold must be positive")
	}

	for name, d := range map[string]string{
		"upload session TTL":      config.Upload.SessionTTL,
		"upload sweep interval":   config.Upload.SweepInterval,
		"signed URL TTL":          config.Access.SignedURLTTL,
		"maximum signed URL TTL":  config.Access.MaxSignedURLTTL,
		"default grant TTL":       config.Access.DefaultGrantTTL,
		"anomaly window":          config.Anomaly.Window,
		"database conn lifetime":  config.Database.ConnMaxLifetime,
	} {
		if _, err := time.ParseDuration(d); err != nil {
			return fmt.Errorf("invalid %s format: %w", name, err)
		}
	}

	return nil
}

// GetPostgresConnectionString returns postgres connection string
func (c *Config) GetPostgresConnectionString() string {
	sslMode := c.Database.SSLMode
	if sslMode == "" {
		sslMode = "disable"
	}

	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=%s",
		c.Database.User,
		c.Database.Password,
		c.Database.Host,
		c.Database.Port,
		c.Database.DBName,
		sslMode,
	)
}

// GetEnv gets an environment variable or returns a default value
func GetEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

// GetEnvAsInt gets an environment variable as an integer or returns a default value
func GetEnvAsInt(key string, defaultValue int) int {
	valueStr := GetEnv(key, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return defaultValue
}

// GetEnvAsBool gets an environment variable as a boolean or returns a default value
func GetEnvAsBool(key string, defaultValue bool) bool {
	valueStr := strings.ToLower(GetEnv(key, ""))
	if valueStr == "" {
		return defaultValue
	}

	if valueStr == "true" || valueStr == "1" || valueStr == "yes" {
		return true
	}
	if valueStr == "false" || valueStr == "0" || valueStr == "no" {
		return false
	}

	return defaultValue
}

// GetEnvAsDuration gets an environment variable as a duration or returns a default value
func GetEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := GetEnv(key, "")
	if value, err := time.ParseDuration(valueStr); err == nil {
		return value
	}
	return defaultValue
}
