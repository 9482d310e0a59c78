package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_RequiresJWTSecret(t *testing.T) {
	_, err := Load("", nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "auth.jwt_secret is required")
}

func TestLoad_DefaultsWithEnv(t *testing.T) {
	t.Setenv("SPRINTDESK_AUTH_JWT_SECRET", "s3cret")
	t.Setenv("SPRINTDESK_SCHEDULER_INTERVAL", "1h")

	cfg, err := Load("", nil)
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, "sprintdesk", cfg.Mongo.Database)
	assert.Equal(t, "s3cret", cfg.Auth.JWTSecret)
	assert.Equal(t, 24*time.Hour, cfg.Auth.TokenTTL)
	assert.Equal(t, time.Hour, cfg.Scheduler.Interval)
	assert.Equal(t, "en", cfg.Notify.Language)
}

func TestLoad_FileThenEnvPrecedence(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sprintdesk.yaml")
	content := []byte(`
server:
  port: "9000"
mongo:
  database: fromfile
auth:
  jwt_secret: filesecret
notify:
  language: fr
`)
	require.NoError(t, os.WriteFile(path, content, 0o600))
	t.Setenv("SPRINTDESK_MONGO_DATABASE", "fromenv")

	cfg, err := Load(path, nil)
	require.NoError(t, err)

	assert.Equal(t, "9000", cfg.Server.Port)
	assert.Equal(t, "fromenv", cfg.Mongo.Database)
	assert.Equal(t, "filesecret", cfg.Auth.JWTSecret)
	assert.Equal(t, "fr", cfg.Notify.Language)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"), nil)
	require.Error(t, err)
}

func TestLoad_FlagOverride(t *testing.T) {
	t.Setenv("SPRINTDESK_AUTH_JWT_SECRET", "s3cret")
	t.Setenv("SPRINTDESK_SERVER_PORT", "7000")

	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	flags.String("port", "", "")
	require.NoError(t, flags.Parse([]string{"--port", "7500"}))

	cfg, err := Load("", flags)
	require.NoError(t, err)
	assert.Equal(t, "7500", cfg.Server.Port)
}

func TestValidate(t *testing.T) {
	cfg := &Config{
		Mongo:     MongoConfig{URI: "mongodb://x", Database: "db"},
		Auth:      AuthConfig{JWTSecret: "k", TokenTTL: time.Minute},
		Log:       LogConfig{Output: "syslog"},
		Scheduler: SchedulerConfig{Enabled: true},
	}
	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "log.output")
	assert.Contains(t, err.Error(), "scheduler.interval")
	assert.Equal(t, 32, cfg.Notify.Buffer)
}
