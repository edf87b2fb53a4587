package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config holds the whole application configuration, populated from
// environment variables.
type Config struct {
	App       AppConfig
	Database  DatabaseConfig
	Redis     RedisConfig
	Auth      AuthConfig
	Inventory InventoryConfig
}

type AppConfig struct {
	Name        string
	Environment string // development, staging, production
	Port        string
	Version     string
}

type DatabaseConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	Database string
	SSLMode  string
	MaxConns int
	MinConns int
}

type RedisConfig struct {
	Host     string
	Password string
	DB       int
}

type AuthConfig struct {
	JWTSecret string
}

// InventoryConfig carries the reservation and posting policies.
type InventoryConfig struct {
	// BackordersEnabled lets reservation create split unfillable demand into
	// a backorder instead of rejecting it.
	BackordersEnabled bool

	// EnforceMovementExternalRef requires external_ref on movement create.
	EnforceMovementExternalRef bool

	// EnforceCanonicalMovementFields requires entered+canonical quantity
	// triplets on movement lines occurring after CanonicalRequiredAfter.
	EnforceCanonicalMovementFields bool
	CanonicalRequiredAfter         time.Time

	// BOMExpansionMaxDepth bounds BOM traversal for work-order consumers.
	BOMExpansionMaxDepth int

	// SerializableRetries is the retry budget for allocate/cancel/fulfill
	// and shipment posting; ReservationCreateRetries for batch create.
	SerializableRetries      int
	ReservationCreateRetries int

	// ReservationExpiryBatchSize bounds one sweep of the expiry job.
	ReservationExpiryBatchSize int

	// ATPCacheTTL bounds staleness of the availability read cache.
	ATPCacheTTL time.Duration
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	cfg := &Config{
		App: AppConfig{
			Name:        getEnv("APP_NAME", "Fulfillment API"),
			Environment: getEnv("APP_ENV", "development"),
			Port:        getEnv("APP_PORT", "8080"),
			Version:     getEnv("APP_VERSION", "1.0.0"),
		},
		Database: DatabaseConfig{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnvInt("DB_PORT", 5432),
			User:     getEnv("DB_USER", "postgres"),
			Password: getEnv("DB_PASSWORD", ""),
			Database: getEnv("DB_NAME", "fulfillment"),
			SSLMode:  getEnv("DB_SSLMODE", "disable"),
			MaxConns: getEnvInt("DB_MAX_CONNS", 25),
			MinConns: getEnvInt("DB_MIN_CONNS", 5),
		},
		Redis: RedisConfig{
			Host:     getEnv("REDIS_HOST", "localhost:6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvInt("REDIS_DB", 0),
		},
		Auth: AuthConfig{
			JWTSecret: getEnv("JWT_SECRET", "change-me-in-production"),
		},
		Inventory: InventoryConfig{
			BackordersEnabled:              getEnvBool("BACKORDERS_ENABLED", true),
			EnforceMovementExternalRef:     getEnvBool("ENFORCE_INVENTORY_MOVEMENT_EXTERNAL_REF", false),
			EnforceCanonicalMovementFields: getEnvBool("ENFORCE_CANONICAL_MOVEMENT_FIELDS", false),
			CanonicalRequiredAfter:         getEnvTime("CANONICAL_MOVEMENT_REQUIRED_AFTER", time.Time{}),
			BOMExpansionMaxDepth:           getEnvInt("BOM_EXPANSION_MAX_DEPTH", 20),
			SerializableRetries:            getEnvInt("ATP_SERIALIZABLE_RETRIES", 2),
			ReservationCreateRetries:       getEnvInt("ATP_RESERVATION_CREATE_RETRIES", 6),
			ReservationExpiryBatchSize:     getEnvInt("ATP_RESERVATION_EXPIRY_BATCH_SIZE", 200),
			ATPCacheTTL:                    getEnvDuration("ATP_CACHE_TTL", 30*time.Second),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// Validate checks configuration consistency.
func (c *Config) Validate() error {
	if c.App.Environment == "production" {
		if c.Auth.JWTSecret == "change-me-in-production" {
			return fmt.Errorf("JWT_SECRET must be set in production")
		}
		if c.Database.Password == "" {
			return fmt.Errorf("DB_PASSWORD must be set in production")
		}
	}

	if c.Inventory.SerializableRetries < 1 {
		return fmt.Errorf("ATP_SERIALIZABLE_RETRIES must be >= 1")
	}
	if c.Inventory.ReservationCreateRetries < 1 {
		return fmt.Errorf("ATP_RESERVATION_CREATE_RETRIES must be >= 1")
	}
	if c.Inventory.EnforceCanonicalMovementFields && c.Inventory.CanonicalRequiredAfter.IsZero() {
		return fmt.Errorf("CANONICAL_MOVEMENT_REQUIRED_AFTER must be set when ENFORCE_CANONICAL_MOVEMENT_FIELDS is true")
	}

	return nil
}

// Helper functions

func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func getEnvInt(key string, defaultValue int) int {
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

func getEnvBool(key string, defaultValue bool) bool {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.ParseBool(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
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

func getEnvTime(key string, defaultValue time.Time) time.Time {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := time.Parse(time.RFC3339, valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}
