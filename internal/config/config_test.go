package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLoad_Defaults(t *testing.T) {
	for _, key := range []string{"PORT", "ENV", "DB_URL", "REDIS_URL", "S3_BUCKET", "S3_REGION", "S3_ENDPOINT", "UPLOAD_DIR", "UPLOAD_BASE_URL"} {
		t.Setenv(key, "")
	}

	cfg := Load()

	assert.Equal(t, "3000", cfg.Port)
	assert.Equal(t, "development", cfg.Env)
	assert.True(t, cfg.IsDevelopment())
	assert.Empty(t, cfg.DatabaseURL)
	assert.Empty(t, cfg.RedisURL)
	assert.Empty(t, cfg.S3Bucket)
	assert.Equal(t, "us-east-1", cfg.S3Region)
	assert.Equal(t, "uploads", cfg.UploadDir)
	assert.Equal(t, "http://localhost:3000/uploads", cfg.UploadBaseURL)
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("PORT", "8080")
	t.Setenv("ENV", "staging")
	t.Setenv("DB_URL", "postgres://localhost:5432/chat")
	t.Setenv("REDIS_URL", "redis://localhost:6379/0")
	t.Setenv("S3_BUCKET", "chat-attachments")
	t.Setenv("S3_REGION", "eu-west-1")

	cfg := Load()

	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, "staging", cfg.Env)
	assert.False(t, cfg.IsDevelopment())
	assert.Equal(t, "postgres://localhost:5432/chat", cfg.DatabaseURL)
	assert.Equal(t, "redis://localhost:6379/0", cfg.RedisURL)
	assert.Equal(t, "chat-attachments", cfg.S3Bucket)
	assert.Equal(t, "eu-west-1", cfg.S3Region)
}

func TestLoad_ProductionRequiresDatabase(t *testing.T) {
	t.Setenv("ENV", "production")
	t.Setenv("DB_URL", "")

	assert.Panics(t, func() { Load() })
}

func TestLoad_ProductionWithDatabase(t *testing.T) {
	t.Setenv("ENV", "production")
	t.Setenv("DB_URL", "postgres://db:5432/chat")

	assert.NotPanics(t, func() {
		cfg := Load()
		assert.False(t, cfg.IsDevelopment())
	})
}
