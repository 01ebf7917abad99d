// Package env contains utilities to manage environemnt variables and the
// process-wide Config assembled from them.
package env

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Simple helper function to read an environment variable or return a default value
func GetEnv(key string, defaultVal string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultVal
}

// Simple helper function to read an environment variable into an integer or return a default value
func GetEnvAsInt(key string, defaultVal int) int {
	valueStr := GetEnv(key, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return defaultVal
}

// Simple helper function to read an environment variable as a boolean,
// defaulting to false on anything other than "true".
func GetEnvAsBool(key string) bool {
	return GetEnv(key, "false") == "true"
}

// Config is the process-wide configuration, assembled once at startup from
// the environment (optionally preloaded from a .env file via Load).
type Config struct {
	SecretKey   string
	Algorithm   string
	Dev         bool

	PostgresDB       string
	PostgresUser     string
	PostgresPassword string
	PostgresHost     string
	PostgresPort     int

	QdrantURL  string
	QdrantPort int

	EmbeddingServiceURL string

	RevisitDelta time.Duration
	FetchTimeout time.Duration
}

// Load reads an optional .env file (missing file is not an error, mirroring
// godotenv's own convention) and returns a Config populated from the
// environment.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		return nil, err
	}
	return &Config{
		SecretKey: GetEnv("SECRET_KEY", ""),
		Algorithm: GetEnv("ALGORITHM", "HS256"),
		Dev:       GetEnvAsBool("DEV"),

		PostgresDB:       GetEnv("POSTGRES_DB", "openengine"),
		PostgresUser:     GetEnv("POSTGRES_USER", "postgres"),
		PostgresPassword: GetEnv("POSTGRES_PASSWORD", ""),
		PostgresHost:     GetEnv("POSTGRES_HOST", "localhost"),
		PostgresPort:     GetEnvAsInt("POSTGRES_PORT", 5432),

		QdrantURL:  GetEnv("QDRANT_URL", "localhost"),
		QdrantPort: GetEnvAsInt("QDRANT_PORT", 6334),

		EmbeddingServiceURL: GetEnv("EMBEDDING_SERVICE_URL", "http://localhost:8088/encode"),

		RevisitDelta: time.Duration(GetEnvAsInt("REVISIT_DELTA_HOURS", 24)) * time.Hour,
		FetchTimeout: time.Duration(GetEnvAsInt("FETCH_TIMEOUT_SECONDS", 7)) * time.Second,
	}, nil
}
