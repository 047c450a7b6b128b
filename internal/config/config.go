// Package config loads configuration from environment variables.
package config

import (
	"fmt"
	"os"
	"reflect"
	"strconv"
	"strings"
	"sync"
	"time"
)

// Config represents the application configuration
type Config struct {
	APIName             string `env:"CA_API_APP_NAME"`
	APIVersion          string `env:"CA_API_APP_VERSION"`
	ServerPort          string `env:"CA_API_SERVER_PORT"`
	ServerLogLevel      string `env:"CA_API_SERVER_LOG_LEVEL"`
	PostgresDsn         string `env:"CA_API_PG_DSN"`
	PostgresLogLevel    string `env:"CA_API_PG_LOG_LEVEL"`
	StorageDir          string `env:"CA_API_STORAGE_DIR"`
	EnginePath          string `env:"CA_API_ENGINE_PATH"`
	SessionTTLMinutes   string `env:"CA_API_SESSION_TTL_MINUTES"`
	TokenUseLimit       string `env:"CA_API_TOKEN_USE_LIMIT"`
	EngineMaxConcurrent string `env:"CA_API_ENGINE_MAX_CONCURRENT"`
}

var (
	SingleLine string = "--------------------------------------------------"
)

var (
	instance *Config
	once     sync.Once
	err      error
)

// Get returns the application configuration
func Get() (*Config, error) {
	once.Do(func() {
		instance, err = loadConfig()
	})
	return instance, err
}

// loadConfig loads configuration from environment variables
func loadConfig() (*Config, error) {
	cfg := &Config{}
	if err := cfg.loadFromEnv(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// loadFromEnv loads configuration from environment variables
func (c *Config) loadFromEnv() error {
	t := reflect.TypeOf(*c)
	v := reflect.ValueOf(c).Elem()

	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		envTag := field.Tag.Get("env")
		if envTag == "" {
			return fmt.Errorf("missing env tag for field %s", field.Name)
		}

		value := os.Getenv(envTag)
		if value == "" {
			return fmt.Errorf("env variable %s is required but not set", envTag)
		}

		v.Field(i).SetString(value)
	}

	return nil
}

// SessionTTL returns the session time-to-live as a duration
func (c *Config) SessionTTL() time.Duration {
	minutes, err := strconv.Atoi(c.SessionTTLMinutes)
	if err != nil || minutes <= 0 {
		minutes = 30
	}
	return time.Duration(minutes) * time.Minute
}

// SessionTokenUseLimit returns the number of token uses before rotation
func (c *Config) SessionTokenUseLimit() int {
	limit, err := strconv.Atoi(c.TokenUseLimit)
	if err != nil || limit <= 0 {
		limit = 10
	}
	return limit
}

// EngineConcurrency returns the maximum number of simultaneous engine runs
func (c *Config) EngineConcurrency() int64 {
	n, err := strconv.ParseInt(c.EngineMaxConcurrent, 10, 64)
	if err != nil || n <= 0 {
		n = 4
	}
	return n
}

// String returns the configuration as a string
func (c *Config) String() string {
	var sb strings.Builder
	sb.WriteString("\n--------------------------------------\n")
	sb.WriteString("Configuration:\n")
	sb.WriteString("--------------------------------------\n")

	t := reflect.TypeOf(*c)
	v := reflect.ValueOf(*c)

	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		value := v.Field(i).String()

		// Mask sensitive fields
		value = maskSensitiveField(field.Name, value)
		sb.WriteString(fmt.Sprintf("  %s:  %s\n", field.Name, value))
	}

	sb.WriteString("--------------------------------------\n")

	return sb.String()
}

func maskSensitiveField(fieldName, value string) string {
	sensitiveFields := []string{"token", "dsn", "secret", "password", "url"}

	fieldNameLower := strings.ToLower(fieldName)
	for _, sensitive := range sensitiveFields {
		if strings.Contains(fieldNameLower, sensitive) {
			return maskValue(value)
		}
	}

	return value
}

func maskValue(value string) string {
	if len(value) <= 3 {
		return strings.Repeat("*", 7)
	}
	return value[:3] + strings.Repeat("*", 7)
}
