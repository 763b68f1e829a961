package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all application configuration.
type Config struct {
	// Server configuration
	ServerAddress string
	Environment   string

	// Persistence: "sqlite" for local single-binary runs, "dynamodb" in AWS.
	StorageDriver string
	SQLitePath    string

	// AWS configuration
	AWSRegion     string
	DynamoDBTable string
	EventBusName  string

	// Collaborator (AI) configuration
	CollaboratorURL     string
	CollaboratorAPIKey  string
	CollaboratorModel   string
	CollaboratorTimeout time.Duration
	CollaboratorRPS     float64

	// Lambda configuration
	IsLambda bool

	// Logging
	LogLevel string

	// Authentication
	JWTSecret string
	JWTIssuer string

	// Feature flags
	EnableMetrics bool
	EnableTracing bool
	EnableCORS    bool
}

// LoadConfig loads configuration from the environment. A .env file in the
// working directory is applied first when present, which keeps local runs
// out of the shell profile.
func LoadConfig() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		ServerAddress: getEnv("SERVER_ADDRESS", ":8080"),
		Environment:   getEnv("ENVIRONMENT", "development"),

		StorageDriver: getEnv("STORAGE_DRIVER", "sqlite"),
		SQLitePath:    getEnv("SQLITE_PATH", "specmap.db"),

		AWSRegion:     getEnv("AWS_REGION", "us-west-2"),
		DynamoDBTable: getEnv("TABLE_NAME", "specmap-sessions"),
		EventBusName:  getEnv("EVENT_BUS_NAME", "specmap-events"),

		CollaboratorURL:     getEnv("COLLABORATOR_URL", "https://api.openai.com/v1/chat/completions"),
		CollaboratorAPIKey:  getEnv("COLLABORATOR_API_KEY", ""),
		CollaboratorModel:   getEnv("COLLABORATOR_MODEL", "gpt-4o-mini"),
		CollaboratorTimeout: getEnvDuration("COLLABORATOR_TIMEOUT", 30*time.Second),
		CollaboratorRPS:     getEnvFloat("COLLABORATOR_RPS", 1),

		IsLambda: getEnvBool("IS_LAMBDA", false) || os.Getenv("AWS_LAMBDA_FUNCTION_NAME") != "",

		JWTSecret: getEnv("JWT_SECRET", ""),
		JWTIssuer: getEnv("JWT_ISSUER", "specmap"),

		LogLevel:      getEnv("LOG_LEVEL", "info"),
		EnableMetrics: getEnvBool("ENABLE_METRICS", false),
		EnableTracing: getEnvBool("ENABLE_TRACING", false),
		EnableCORS:    getEnvBool("ENABLE_CORS", true),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Load is an alias for LoadConfig.
func Load() (*Config, error) {
	return LoadConfig()
}

// Validate checks that required configuration is present.
func (c *Config) Validate() error {
	switch c.StorageDriver {
	case "sqlite", "dynamodb":
	default:
		return fmt.Errorf("unknown STORAGE_DRIVER %q", c.StorageDriver)
	}
	if c.StorageDriver == "dynamodb" && c.DynamoDBTable == "" {
		return fmt.Errorf("TABLE_NAME is required with the dynamodb driver")
	}
	if c.IsProduction() {
		if c.JWTSecret == "" {
			return fmt.Errorf("JWT_SECRET is required in production")
		}
		if c.CollaboratorAPIKey == "" {
			return fmt.Errorf("COLLABORATOR_API_KEY is required in production")
		}
	}
	return nil
}

// IsDevelopment checks if running in development mode.
func (c *Config) IsDevelopment() bool {
	return c.Environment == "development"
}

// IsProduction checks if running in production mode.
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

// getEnv gets an environment variable with a default value.
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvBool gets a boolean environment variable with a default value.
func getEnvBool(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value == "true" || value == "1" || value == "yes"
}

// getEnvDuration gets a duration environment variable with a default value.
func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}

// getEnvFloat gets a float environment variable with a default value.
func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return defaultValue
}
