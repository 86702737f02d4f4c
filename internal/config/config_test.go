package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoad(t *testing.T) {
	t.Setenv("DB_HOST", "test-host")
	t.Setenv("DB_MAX_OPEN_CONNS", "20")
	t.Setenv("MINIO_USE_SSL", "true")
	t.Setenv("STORAGE_DRIVER", "bolt")
	t.Setenv("PERMISSION_STORE", "mongo")
	t.Setenv("HASH_VERIFY_TIMEOUT_SEC", "3")

	cfg := Load()

	assert.Equal(t, "test-host", cfg.Database.Host)
	assert.Equal(t, 20, cfg.Database.MaxOpenConns)
	assert.True(t, cfg.Storage.MinIO.UseSSL)
	assert.Equal(t, "bolt", cfg.Storage.Driver)
	assert.Equal(t, "mongo", cfg.Permission.Store)
	assert.Equal(t, 3*time.Second, cfg.Verifier.Timeout())
}

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("PUBLIC_BASE_URL", "")
	t.Setenv("PERMISSION_STORE", "")
	t.Setenv("STORAGE_DRIVER", "")

	cfg := Load()

	assert.Equal(t, "http://localhost:9090", cfg.Verifier.PublicBaseURL)
	assert.Equal(t, "postgres", cfg.Permission.Store)
	assert.Equal(t, "minio", cfg.Storage.Driver)
	assert.Equal(t, "docvault:permissions", cfg.Permission.Channel)
}

func TestLocation(t *testing.T) {
	cfg := &AppConfig{TimeZone: "UTC"}
	assert.Equal(t, "UTC", cfg.Location().String())

	cfg.TimeZone = "Not/AZone"
	assert.Equal(t, time.UTC, cfg.Location())
}

func TestEnvHelpers(t *testing.T) {
	t.Setenv("DOCVAULT_TEST_STR", "value")
	t.Setenv("DOCVAULT_TEST_BOOL", "false")
	t.Setenv("DOCVAULT_TEST_BAD_BOOL", "maybe")
	t.Setenv("DOCVAULT_TEST_INT", "123")
	t.Setenv("DOCVAULT_TEST_BAD_INT", "12a")

	assert.Equal(t, "value", getEnv("DOCVAULT_TEST_STR", "default"))
	assert.Equal(t, "default", getEnv("DOCVAULT_TEST_UNSET", "default"))

	assert.False(t, getEnvBool("DOCVAULT_TEST_BOOL", true))
	assert.True(t, getEnvBool("DOCVAULT_TEST_BAD_BOOL", true))
	assert.True(t, getEnvBool("DOCVAULT_TEST_UNSET", true))

	assert.Equal(t, 123, getEnvInt("DOCVAULT_TEST_INT", 0))
	assert.Equal(t, 10, getEnvInt("DOCVAULT_TEST_BAD_INT", 10))
	assert.Equal(t, 10, getEnvInt("DOCVAULT_TEST_UNSET", 10))
}
