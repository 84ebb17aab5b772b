// Package config loads the application configuration from the environment
package config

import (
	"fmt"
	"net"
	"os"
	"strconv"
	"strings"
	"time"
)

// Environment is the deployment environment named by ENV
type Environment string

const (
	EnvDevelopment Environment = "dev"
	EnvStaging     Environment = "staging"
	EnvProduction  Environment = "prod"
	EnvTest        Environment = "test"
)

const (
	PricingSimulated = "simulated"
	PricingInventory = "inventory"
)

// Config holds all application configuration
type Config struct {
	Port              string
	Address           string
	Env               Environment
	LogLevel          string
	LogRetentionWeeks int   // Number of weeks to keep log files
	MaxLogFileSize    int64 // Maximum log file size in bytes
	MaxRequestBody    int64 // Maximum request body size in bytes
	MaxHeaderSize     int64 // Maximum header size in bytes
	CatalogPath       string
	CatalogEncoding   string
	CatalogReloadAt   string // HH:MM, daily
	SubstitutePricing string
	AllowedOrigins    []string
}

// Load loads and validates configuration from environment variables
func Load() (*Config, error) {
	cfg := &Config{
		Port:              getEnvWithDefault("PORT", "8000"),
		Address:           getEnvWithDefault("ADDRESS", "127.0.0.1"),
		Env:               Environment(getEnvWithDefault("ENV", "dev")),
		LogLevel:          strings.ToLower(getEnvWithDefault("LOG_LEVEL", "info")),
		LogRetentionWeeks: getIntEnvWithDefault("LOG_RETENTION_WEEKS", 4),
		MaxLogFileSize:    getInt64EnvWithDefault("MAX_LOG_FILE_SIZE", 104857600), // 100MB
		MaxRequestBody:    getInt64EnvWithDefault("MAX_REQUEST_BODY", 1048576),    // 1MB
		MaxHeaderSize:     getInt64EnvWithDefault("MAX_HEADER_SIZE", 1048576),     // 1MB
		CatalogPath:       getEnvWithDefault("CATALOG_PATH", "files/medicine_dataset.csv"),
		CatalogEncoding:   strings.ToLower(getEnvWithDefault("CATALOG_ENCODING", "utf8")),
		CatalogReloadAt:   getEnvWithDefault("CATALOG_RELOAD_AT", "06:00"),
		SubstitutePricing: strings.ToLower(getEnvWithDefault("SUBSTITUTE_PRICING", PricingSimulated)),
		AllowedOrigins:    splitList(getEnvWithDefault("ALLOWED_ORIGINS", "http://localhost:3000")),
	}

	env, err := ParseEnvironment(string(cfg.Env))
	if err != nil {
		return nil, fmt.Errorf("configuration validation failed: invalid ENV: %w", err)
	}
	cfg.Env = env

	if err := validateConfig(cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// ParseEnvironment accepts the short and long names of each environment
func ParseEnvironment(value string) (Environment, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "dev", "development":
		return EnvDevelopment, nil
	case "staging":
		return EnvStaging, nil
	case "prod", "production":
		return EnvProduction, nil
	case "test":
		return EnvTest, nil
	default:
		return EnvDevelopment, fmt.Errorf("ENV must be one of: [dev staging prod test], got: %s", value)
	}
}

func (e Environment) String() string {
	return string(e)
}

// validateConfig validates all configuration values
func validateConfig(cfg *Config) error {
	if err := validatePort(cfg.Port); err != nil {
		return fmt.Errorf("invalid PORT: %w", err)
	}

	if err := validateAddress(cfg.Address); err != nil {
		return fmt.Errorf("invalid ADDRESS: %w", err)
	}

	if err := validateEnv(cfg.Env); err != nil {
		return fmt.Errorf("invalid ENV: %w", err)
	}

	if err := validateLogLevel(cfg.LogLevel); err != nil {
		return fmt.Errorf("invalid LOG_LEVEL: %w", err)
	}

	if err := validateSizeLimit(cfg.MaxRequestBody, "MAX_REQUEST_BODY"); err != nil {
		return fmt.Errorf("invalid MAX_REQUEST_BODY: %w", err)
	}

	if err := validateSizeLimit(cfg.MaxHeaderSize, "MAX_HEADER_SIZE"); err != nil {
		return fmt.Errorf("invalid MAX_HEADER_SIZE: %w", err)
	}

	if err := validateLogRetentionWeeks(cfg.LogRetentionWeeks); err != nil {
		return fmt.Errorf("invalid LOG_RETENTION_WEEKS: %w", err)
	}

	if err := validateMaxLogFileSize(cfg.MaxLogFileSize); err != nil {
		return fmt.Errorf("invalid MAX_LOG_FILE_SIZE: %w", err)
	}

	if err := validateCatalogPath(cfg.CatalogPath); err != nil {
		return fmt.Errorf("invalid CATALOG_PATH: %w", err)
	}

	if err := validateOneOf(cfg.CatalogEncoding, []string{"utf8", "utf-8", "latin1", "iso-8859-1"}); err != nil {
		return fmt.Errorf("invalid CATALOG_ENCODING: %w", err)
	}

	if err := validateClock(cfg.CatalogReloadAt); err != nil {
		return fmt.Errorf("invalid CATALOG_RELOAD_AT: %w", err)
	}

	if err := validateOneOf(cfg.SubstitutePricing, []string{PricingSimulated, PricingInventory}); err != nil {
		return fmt.Errorf("invalid SUBSTITUTE_PRICING: %w", err)
	}

	if len(cfg.AllowedOrigins) == 0 {
		return fmt.Errorf("invalid ALLOWED_ORIGINS: at least one origin is required")
	}

	return nil
}

// validatePort validates the PORT environment variable
func validatePort(port string) error {
	if port == "" {
		return fmt.Errorf("PORT cannot be empty")
	}

	portNum, err := strconv.Atoi(port)
	if err != nil {
		return fmt.Errorf("PORT must be a valid number: %w", err)
	}

	if portNum < 1 || portNum > 65535 {
		return fmt.Errorf("PORT must be between 1 and 65535")
	}

	if portNum < 1024 {
		return fmt.Errorf("PORT %d is privileged (less than 1024), use ports 1024-65535", portNum)
	}

	return nil
}

// validateAddress accepts loopback, localhost, private ranges and 0.0.0.0
func validateAddress(address string) error {
	if address == "" {
		return fmt.Errorf("ADDRESS cannot be empty")
	}

	if address == "localhost" {
		return nil
	}

	ip := net.ParseIP(address)
	if ip == nil {
		return fmt.Errorf("ADDRESS must be a valid IP address or 'localhost', got: %s", address)
	}

	if !ip.IsLoopback() && !ip.IsPrivate() && !ip.IsUnspecified() {
		return fmt.Errorf("ADDRESS %s is a public IP, consider using private network ranges for security", address)
	}

	return nil
}

func validateEnv(env Environment) error {
	switch env {
	case EnvDevelopment, EnvStaging, EnvProduction, EnvTest:
		return nil
	case "":
		return fmt.Errorf("ENV cannot be empty")
	default:
		return fmt.Errorf("ENV must be one of: [dev staging prod test], got: %s", env)
	}
}

func validateLogLevel(logLevel string) error {
	if logLevel == "" {
		return fmt.Errorf("LOG_LEVEL cannot be empty")
	}
	return validateOneOf(logLevel, []string{"debug", "info", "warn", "error"})
}

func validateOneOf(value string, valid []string) error {
	for _, v := range valid {
		if value == v {
			return nil
		}
	}
	return fmt.Errorf("must be one of: %v, got: %s", valid, value)
}

// validateSizeLimit validates size limit configuration values
func validateSizeLimit(size int64, configName string) error {
	if size <= 0 {
		return fmt.Errorf("%s must be positive, got: %d", configName, size)
	}

	if size > 100*1024*1024 { // 100MB
		return fmt.Errorf("%s is too large (max 100MB), got: %d bytes", configName, size)
	}

	return nil
}

func validateLogRetentionWeeks(weeks int) error {
	if weeks <= 0 {
		return fmt.Errorf("LOG_RETENTION_WEEKS must be positive, got: %d", weeks)
	}

	if weeks > 52 {
		return fmt.Errorf("LOG_RETENTION_WEEKS is too large (max 52 weeks), got: %d", weeks)
	}

	return nil
}

// validateMaxLogFileSize keeps MAX_LOG_FILE_SIZE between 1MB and 1GB
func validateMaxLogFileSize(size int64) error {
	if size < 1024*1024 {
		return fmt.Errorf("MAX_LOG_FILE_SIZE is too small (min 1MB), got: %d bytes", size)
	}

	if size > 1024*1024*1024 {
		return fmt.Errorf("MAX_LOG_FILE_SIZE is too large (max 1GB), got: %d bytes", size)
	}

	return nil
}

func validateCatalogPath(path string) error {
	if path == "" {
		return fmt.Errorf("CATALOG_PATH cannot be empty")
	}
	if !strings.HasSuffix(strings.ToLower(path), ".csv") {
		return fmt.Errorf("CATALOG_PATH must point to a .csv file, got: %s", path)
	}
	return nil
}

// validateClock checks the HH:MM format gocron expects for daily jobs
func validateClock(value string) error {
	if _, err := time.Parse("15:04", value); err != nil {
		return fmt.Errorf("must be HH:MM, got: %s", value)
	}
	return nil
}

func splitList(value string) []string {
	var items []string
	for _, item := range strings.Split(value, ",") {
		if item = strings.TrimSpace(item); item != "" {
			items = append(items, item)
		}
	}
	return items
}

// getEnvWithDefault gets an environment variable with a default value
func getEnvWithDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getIntEnvWithDefault(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getInt64EnvWithDefault(key string, defaultValue int64) int64 {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.ParseInt(value, 10, 64); err == nil {
			return intValue
		}
	}
	return defaultValue
}

// GetEnvVars returns a list of all expected environment variables
func GetEnvVars() []string {
	return []string{
		"PORT",
		"ADDRESS",
		"ENV",
		"LOG_LEVEL",
		"LOG_RETENTION_WEEKS",
		"MAX_LOG_FILE_SIZE",
		"MAX_REQUEST_BODY",
		"MAX_HEADER_SIZE",
		"CATALOG_PATH",
		"CATALOG_ENCODING",
		"CATALOG_RELOAD_AT",
		"SUBSTITUTE_PRICING",
		"ALLOWED_ORIGINS",
	}
}
