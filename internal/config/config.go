package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config represents the complete process configuration for the Aegis
// privacy filter, loaded from AEGIS_* environment variables.
type Config struct {
	Server ServerConfig
	Vault  VaultConfig
	Engine EngineConfig
	LogLevel string
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Host string
	Port int
}

// VaultConfig holds the Vault's TTL, capacity, and key material.
type VaultConfig struct {
	TTLSeconds  int
	MaxSessions int
	// RootKey is the raw key material an operator provisions via
	// AEGIS_VAULT_ROOT_KEY. It never leaves the process and is only ever
	// used to derive a per-process data-encryption key via HKDF.
	RootKey []byte
}

// EngineConfig holds the recognizer/language defaults applied when a
// caller's policy is silent.
type EngineConfig struct {
	ModelName string
	Language  string
	// SanitizeTimeout is the wall-clock budget for a single sanitize call
	// before the Failure Gate treats it as a Timeout event.
	SanitizeTimeout time.Duration
}

// Load reads AEGIS_* environment variables, applying a .env file
// best-effort first, then validates the result.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		Server: ServerConfig{
			Host: getEnv("AEGIS_SERVER_HOST", "0.0.0.0"),
			Port: getEnvAsInt("AEGIS_SERVER_PORT", 8080),
		},
		Vault: VaultConfig{
			TTLSeconds:  getEnvAsInt("AEGIS_VAULT_TTL_SECONDS", 900),
			MaxSessions: getEnvAsInt("AEGIS_VAULT_MAX_SESSIONS", 10000),
			RootKey:     []byte(getEnv("AEGIS_VAULT_ROOT_KEY", "")),
		},
		Engine: EngineConfig{
			ModelName:       getEnv("AEGIS_MODEL_NAME", "aegis-builtin-recognizers"),
			Language:        getEnv("AEGIS_LANGUAGE", "en"),
			SanitizeTimeout: getEnvAsDuration("AEGIS_SANITIZE_TIMEOUT", 10*time.Second),
		},
		LogLevel: getEnv("AEGIS_LOG_LEVEL", "info"),
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return cfg, nil
}

// Validate fails closed on any configuration that would let the Vault
// start without real encryption-at-rest.
func (c *Config) Validate() error {
	if len(c.Vault.RootKey) == 0 {
		return fmt.Errorf("AEGIS_VAULT_ROOT_KEY is required")
	}
	if c.Vault.TTLSeconds <= 0 {
		return fmt.Errorf("AEGIS_VAULT_TTL_SECONDS must be positive")
	}
	if c.Vault.MaxSessions <= 0 {
		return fmt.Errorf("AEGIS_VAULT_MAX_SESSIONS must be positive")
	}
	return nil
}

// Address returns the HTTP server's listen address.
func (c *Config) Address() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := time.ParseDuration(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}
