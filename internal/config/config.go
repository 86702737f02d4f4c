package config

import (
	"os"
	"strconv"
	"time"
)

// DatabaseConfig holds PostgreSQL database connection settings.
type DatabaseConfig struct {
	Host               string
	Port               string
	User               string
	Password           string
	Name               string
	SSLMode            string
	MaxOpenConns       int
	MaxIdleConns       int
	ConnMaxLifetimeSec int
}

// MinIOConfig holds object storage settings for MinIO.
type MinIOConfig struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	UseSSL    bool
}

// StorageConfig selects the blob storage driver.
// Driver is "minio" (default) or "bolt".
type StorageConfig struct {
	Driver   string
	BoltPath string
	MinIO    MinIOConfig
}

// MongoConfig holds the MongoDB settings used when permission snapshots live in Mongo.
type MongoConfig struct {
	URI        string
	Database   string
	Collection string
}

// PermissionConfig controls where permission-table snapshots are stored and how
// processes learn about new snapshots.
type PermissionConfig struct {
	// Store is "postgres" (default) or "mongo".
	Store string
	// RedisURL enables cross-process cache invalidation when set.
	RedisURL string
	Channel  string
}

// VerifierConfig configures content hash verification.
type VerifierConfig struct {
	// PublicBaseURL is the externally reachable base URL of this service.
	PublicBaseURL string
	TimeoutSec    int
}

// Timeout returns the verifier timeout as a duration.
func (v VerifierConfig) Timeout() time.Duration {
	return time.Duration(v.TimeoutSec) * time.Second
}

// AppConfig is the centralized configuration struct for the application.
// It is populated from environment variables. Sensitive values are not hardcoded.
type AppConfig struct {
	AppHost    string
	Port       string
	LogLevel   string
	TimeZone   string
	Database   DatabaseConfig
	Storage    StorageConfig
	Mongo      MongoConfig
	Permission PermissionConfig
	Verifier   VerifierConfig
}

// Location resolves TimeZone, falling back to UTC.
func (c *AppConfig) Location() *time.Location {
	loc, err := time.LoadLocation(c.TimeZone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// Load reads configuration from environment variables.
// A .env file can be auto-loaded by importing: _ "github.com/joho/godotenv/autoload"
// This function does not require a .env file; real environment variables take precedence.
func Load() *AppConfig {
	port := getEnv("PORT", "8080")
	return &AppConfig{
		AppHost:  getEnv("APP_HOST", "localhost:8080"),
		Port:     port,
		LogLevel: getEnv("LOG_LEVEL", "info"),
		TimeZone: getEnv("TZ", "UTC"),
		Database: DatabaseConfig{
			Host:               getEnv("DB_HOST", ""),
			Port:               getEnv("DB_PORT", "5432"),
			User:               getEnv("DB_USER", ""),
			Password:           getEnv("DB_PASSWORD", ""),
			Name:               getEnv("DB_NAME", ""),
			SSLMode:            getEnv("DB_SSLMODE", "disable"),
			MaxOpenConns:       getEnvInt("DB_MAX_OPEN_CONNS", 10),
			MaxIdleConns:       getEnvInt("DB_MAX_IDLE_CONNS", 5),
			ConnMaxLifetimeSec: getEnvInt("DB_CONN_MAX_LIFETIME_SEC", 300),
		},
		Storage: StorageConfig{
			Driver:   getEnv("STORAGE_DRIVER", "minio"),
			BoltPath: getEnv("STORAGE_BOLT_PATH", "data/blobs.db"),
			MinIO: MinIOConfig{
				Endpoint:  getEnv("MINIO_ENDPOINT", ""),
				AccessKey: getEnv("MINIO_ACCESS_KEY", ""),
				SecretKey: getEnv("MINIO_SECRET_KEY", ""),
				Bucket:    getEnv("MINIO_BUCKET", ""),
				UseSSL:    getEnvBool("MINIO_USE_SSL", false),
			},
		},
		Mongo: MongoConfig{
			URI:        getEnv("MONGO_URI", ""),
			Database:   getEnv("MONGO_DATABASE", "docvault"),
			Collection: getEnv("MONGO_PERMISSION_COLLECTION", "permissionTables"),
		},
		Permission: PermissionConfig{
			Store:    getEnv("PERMISSION_STORE", "postgres"),
			RedisURL: getEnv("REDIS_URL", ""),
			Channel:  getEnv("PERMISSION_CHANNEL", "docvault:permissions"),
		},
		Verifier: VerifierConfig{
			PublicBaseURL: getEnv("PUBLIC_BASE_URL", "http://localhost:"+port),
			TimeoutSec:    getEnvInt("HASH_VERIFY_TIMEOUT_SEC", 10),
		},
	}
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getEnvBool(key string, def bool) bool {
	if v := os.Getenv(key); v != "" {
		b, err := strconv.ParseBool(v)
		if err == nil {
			return b
		}
	}
	return def
}

func getEnvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		i, err := strconv.Atoi(v)
		if err == nil {
			return i
		}
	}
	return def
}
