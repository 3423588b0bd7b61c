package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigDefaults(t *testing.T) {
	cfg, err := LoadConfig("")
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "postgres", cfg.Database.Driver)
	assert.Equal(t, "agrisight_portal", cfg.Database.DBName)
	assert.Equal(t, "0 6 * * *", cfg.Worker.ForecastCron)
	assert.Equal(t, 90, cfg.Worker.ForecastHorizonDays)
}

func TestLoadConfigEnvOverrides(t *testing.T) {
	t.Setenv("SERVER_PORT", "9090")
	t.Setenv("DATABASE_DRIVER", "sqlite")
	t.Setenv("DATABASE_SQLITE_PATH", "/tmp/portal.db")
	t.Setenv("JWT_SECRET", "test-secret")
	t.Setenv("EXPORT_S3_BUCKET", "agrisight-exports")

	cfg, err := LoadConfig("")
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, "sqlite", cfg.Database.Driver)
	assert.Equal(t, "/tmp/portal.db", cfg.Database.SQLitePath)
	assert.Equal(t, "test-secret", cfg.Auth.JWTSecret)
	assert.Equal(t, "agrisight-exports", cfg.AWS.S3Bucket)
}

func TestGetDatabaseURL(t *testing.T) {
	db := DatabaseConfig{
		Host: "db.internal", Port: 5432,
		User: "portal", Password: "pw", DBName: "agrisight_portal", SSLMode: "require",
	}
	assert.Equal(t,
		"postgres://portal:pw@db.internal:5432/agrisight_portal?sslmode=require",
		db.GetDatabaseURL())
}

func TestGetServerAddr(t *testing.T) {
	s := ServerConfig{Host: "127.0.0.1", Port: 8081}
	assert.Equal(t, "127.0.0.1:8081", s.GetServerAddr())
}
