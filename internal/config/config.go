package config

import (
	"os"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the relay.
type Config struct {
	Port string
	Env  string

	DatabaseURL string
	RedisURL    string

	// Blob storage. When S3Bucket is empty the relay falls back to the local
	// uploads directory.
	S3Bucket      string
	S3Region      string
	S3Endpoint    string
	UploadDir     string
	UploadBaseURL string
}

// Load reads configuration from environment variables. In development it
// loads from a .env file if present. In production missing required
// variables panic at startup.
func Load() *Config {
	_ = godotenv.Load()

	cfg := &Config{
		Port:          getEnv("PORT", "3000"),
		Env:           getEnv("ENV", "development"),
		DatabaseURL:   os.Getenv("DB_URL"),
		RedisURL:      os.Getenv("REDIS_URL"),
		S3Bucket:      os.Getenv("S3_BUCKET"),
		S3Region:      getEnv("S3_REGION", "us-east-1"),
		S3Endpoint:    os.Getenv("S3_ENDPOINT"),
		UploadDir:     getEnv("UPLOAD_DIR", "uploads"),
		UploadBaseURL: getEnv("UPLOAD_BASE_URL", "http://localhost:3000/uploads"),
	}

	if cfg.Env == "production" {
		if cfg.DatabaseURL == "" {
			panic("DB_URL is required in production")
		}
	}

	return cfg
}

// IsDevelopment returns true if running in development mode.
func (c *Config) IsDevelopment() bool {
	return c.Env == "development"
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
