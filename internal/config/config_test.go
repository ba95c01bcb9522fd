package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoad(t *testing.T) {
	path := writeConfig(t, `
server:
  port: 9090
database:
  driver: mysql
  host: db.internal
  port: 3306
  user: review
  password: secret
  name: reviews
ai:
  provider: openai
  apiKey: sk-test
  model: gpt-4o-mini
review:
  perCallTimeoutSeconds: 30
auth:
  apiKeys:
    - key-one
    - key-two
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, "mysql", cfg.Database.Driver)
	assert.Equal(t, "openai", cfg.AI.Provider)
	assert.Equal(t, "gpt-4o-mini", cfg.AI.Model)
	assert.Equal(t, 30, cfg.Review.PerCallTimeoutSeconds)
	assert.Equal(t, []string{"key-one", "key-two"}, cfg.Auth.APIKeys)
}

func TestLoadDefaults(t *testing.T) {
	path := writeConfig(t, `
database:
  host: localhost
  port: 5432
  user: postgres
  password: postgres
  name: reviews
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "postgres", cfg.Database.Driver)
	assert.Equal(t, "require", cfg.Database.SSLMode)
	assert.Equal(t, "gemini", cfg.AI.Provider)
	assert.Equal(t, 60, cfg.Review.PerCallTimeoutSeconds)
	assert.Equal(t, 30, cfg.RateLimit.Capacity)
	assert.Equal(t, 1, cfg.RateLimit.RefillRate)
	assert.Equal(t, []string{"*"}, cfg.CORS.AllowedOrigins)
	assert.Empty(t, cfg.Auth.APIKeys)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestDSNHelpers(t *testing.T) {
	var cfg Config
	cfg.Database.Host = "localhost"
	cfg.Database.Port = 5432
	cfg.Database.User = "review"
	cfg.Database.Password = "s3cret"
	cfg.Database.Name = "reviews"
	cfg.Database.SSLMode = "disable"

	assert.Equal(t,
		"host=localhost port=5432 user=review password=s3cret dbname=reviews sslmode=disable",
		cfg.PostgresDSN())

	cfg.Database.Port = 3306
	assert.Equal(t,
		"review:s3cret@tcp(localhost:3306)/reviews?parseTime=true&charset=utf8mb4&loc=UTC",
		cfg.MySQLDSN())
}
