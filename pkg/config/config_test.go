package config

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLoad_AuthConfig(t *testing.T) {
	// Setup environment variables
	os.Setenv("AUTH_JWT_SECRET", "test-secret")
	os.Setenv("AUTH_ISSUER", "test-issuer")
	defer func() {
		os.Unsetenv("AUTH_JWT_SECRET")
		os.Unsetenv("AUTH_ISSUER")
	}()

	cfg, err := Load()
	assert.NoError(t, err)

	assert.Equal(t, "test-secret", cfg.Auth.JWTSecret)
	assert.Equal(t, "test-issuer", cfg.Auth.Issuer)
}

func TestLoad_Defaults(t *testing.T) {
	// Ensure env vars are cleared
	os.Unsetenv("AUTH_JWT_SECRET")
	os.Unsetenv("AUTH_ISSUER")
	os.Unsetenv("DB_NAME")

	cfg, err := Load()
	assert.NoError(t, err)

	assert.Equal(t, "", cfg.Auth.JWTSecret)
	assert.Equal(t, "medtravel", cfg.Auth.Issuer)
	assert.Equal(t, "medtravel_marketplace", cfg.Database.Database)
	assert.Equal(t, 8080, cfg.Server.Port)
}

func TestDatabaseDSN(t *testing.T) {
	cfg := DatabaseConfig{
		Host:     "db",
		Port:     5433,
		User:     "app",
		Password: "pw",
		Database: "marketplace",
		SSLMode:  "require",
	}

	assert.Equal(t, "host=db port=5433 user=app password=pw dbname=marketplace sslmode=require", cfg.DatabaseDSN())
}
