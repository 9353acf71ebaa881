package config

import (
	"os"
	"strconv"
)

// Config holds all configuration values
type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Redis    RedisConfig
	Bus      BusConfig
	ZaloPay  ZaloPayConfig
	PayOS    PayOSConfig
	Outbox   OutboxConfig
}

// ServerConfig holds server configuration
type ServerConfig struct {
	Port string
	Env  string
	// WebhookBaseURL is this service's own publicly reachable origin,
	// used to build the per-provider callback URL registered at
	// provider link creation (e.g. WebhookBaseURL+"/webhook/zalopay").
	WebhookBaseURL string
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	DBName   string
	SSLMode  string
	URLRaw   string
}

// URL returns the database connection URL. DATABASE_URL takes precedence
// over the discrete fields when set.
func (c DatabaseConfig) URL() string {
	if c.URLRaw != "" {
		return c.URLRaw
	}
	return "postgres://" + c.User + ":" + c.Password + "@" + c.Host + ":" + strconv.Itoa(c.Port) + "/" + c.DBName + "?sslmode=" + c.SSLMode + "&prepare_threshold=0"
}

// RedisConfig holds Redis configuration
type RedisConfig struct {
	URL      string
	PASSWORD string
}

// BusConfig mirrors internal/infrastructure/bus.Config. Env vars keep the
// KAFKA_ prefix from an earlier broker choice; the transport is NATS
// JetStream.
type BusConfig struct {
	Brokers    string
	SSL        bool
	Username   string
	Password   string
	ClientID   string
	StreamName string
}

// ZaloPayConfig holds ZaloPay gateway credentials.
type ZaloPayConfig struct {
	AppID string
	Key1  string
	Key2  string
}

// PayOSConfig holds PayOS gateway credentials.
type PayOSConfig struct {
	ClientID    string
	APIKey      string
	ChecksumKey string
}

// OutboxConfig tunes the Outbox Publisher.
type OutboxConfig struct {
	BatchSize     int
	MaxRetries    int
	RetentionDays int
}

// Load loads configuration from environment variables
func Load() *Config {
	return &Config{
		Server: ServerConfig{
			Port:           getEnv("SERVER_PORT", "8080"),
			Env:            getEnv("SERVER_ENV", "development"),
			WebhookBaseURL: getEnv("WEBHOOK_BASE_URL", "http://localhost:8080"),
		},
		Database: DatabaseConfig{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnvAsInt("DB_PORT", 5432),
			User:     getEnv("DB_USER", "postgres"),
			Password: getEnv("DB_PASSWORD", "postgres"),
			DBName:   getEnv("DB_NAME", "paychain"),
			SSLMode:  getEnv("DB_SSLMODE", "disable"),
			URLRaw:   getEnv("DATABASE_URL", ""),
		},
		Redis: RedisConfig{
			URL:      getEnv("REDIS_URL", "redis://localhost:6379"),
			PASSWORD: getEnv("REDIS_PASSWORD", ""),
		},
		Bus: BusConfig{
			Brokers:    getEnv("KAFKA_BROKERS", "localhost:4222"),
			SSL:        getEnvAsBool("KAFKA_SSL", false),
			Username:   getEnv("KAFKA_USERNAME", ""),
			Password:   getEnv("KAFKA_PASSWORD", ""),
			ClientID:   getEnv("KAFKA_CLIENT_ID", "payment-service"),
			StreamName: getEnv("KAFKA_STREAM_NAME", "PAYMENTS"),
		},
		ZaloPay: ZaloPayConfig{
			AppID: getEnv("ZALOPAY_APP_ID", ""),
			Key1:  getEnv("ZALOPAY_KEY1", ""),
			Key2:  getEnv("ZALOPAY_KEY2", ""),
		},
		PayOS: PayOSConfig{
			ClientID:    getEnv("PAYOS_CLIENT_ID", ""),
			APIKey:      getEnv("PAYOS_API_KEY", ""),
			ChecksumKey: getEnv("PAYOS_CHECKSUM_KEY", ""),
		},
		Outbox: OutboxConfig{
			BatchSize:     getEnvAsInt("OUTBOX_BATCH_SIZE", 100),
			MaxRetries:    getEnvAsInt("OUTBOX_MAX_RETRIES", 5),
			RetentionDays: getEnvAsInt("OUTBOX_RETENTION_DAYS", 7),
		},
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultValue
}
