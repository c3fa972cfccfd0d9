package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoadAppliesDefaults(t *testing.T) {
	path := writeConfig(t, "server:\n  port: 9000\n")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 9000, cfg.Server.Port)
	assert.Equal(t, "postgres", cfg.Database.Driver)
	assert.Equal(t, 5, cfg.Agent.DefaultDelay)
	assert.Equal(t, 50000, cfg.Agent.KeymonMaxCodes)
	assert.Equal(t, "hivectl", cfg.Console.ServerPrompt)
	assert.Equal(t, 720*time.Hour, cfg.Logs.Retention)
	assert.Equal(t, "@hourly", cfg.Logs.CleanupSchedule)
}

func TestLoadReadsSections(t *testing.T) {
	path := writeConfig(t, `
database:
  driver: sqlite
  path: /tmp/fleet.db
agent:
  default_delay: 30
  keymon_max_codes: 10
console:
  server_prompt: HQ
auth:
  admin_api_key: secret
  allowed_origins: ["http://a", "http://b"]
logs:
  retention: 24h
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "sqlite", cfg.Database.Driver)
	assert.Equal(t, "/tmp/fleet.db", cfg.Database.Path)
	assert.Equal(t, 30, cfg.Agent.DefaultDelay)
	assert.Equal(t, 10, cfg.Agent.KeymonMaxCodes)
	assert.Equal(t, "HQ", cfg.Console.ServerPrompt)
	assert.Equal(t, "secret", cfg.Auth.AdminAPIKey)
	assert.Equal(t, []string{"http://a", "http://b"}, cfg.Auth.AllowedOrigins)
	assert.Equal(t, 24*time.Hour, cfg.Logs.Retention)
}

func TestLoadEnvOverride(t *testing.T) {
	path := writeConfig(t, "agent:\n  default_delay: 5\n")
	t.Setenv("HIVECTL_AGENT_DEFAULT_DELAY", "12")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 12, cfg.Agent.DefaultDelay)
}

func TestLoadRejectsNonPositiveDelay(t *testing.T) {
	path := writeConfig(t, "agent:\n  default_delay: 0\n")

	_, err := Load(path)
	require.Error(t, err)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
}

func TestDSN(t *testing.T) {
	d := DatabaseConfig{Host: "db", Port: 5432, User: "u", Password: "p", Name: "n", SSLMode: "disable"}
	assert.Equal(t, "host=db port=5432 user=u password=p dbname=n sslmode=disable", d.DSN())
}
