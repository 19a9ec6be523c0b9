package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoad(t *testing.T) {
	path := writeConfig(t, `
app:
  name: pirouette
  environment: test
telegram:
  bot_token: "123456:token"
database:
  path: data/pirouette.db
admins:
  - 111111
studio:
  name: "Let's dance"
`)

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "123456:token", cfg.Telegram.BotToken)
	assert.Equal(t, []int64{111111}, cfg.Admins)
	assert.Equal(t, "Let's dance", cfg.Studio.Name)
}

func TestLoadExpandsEnv(t *testing.T) {
	t.Setenv("TEST_BOT_TOKEN", "123456:secret")
	path := writeConfig(t, `
telegram:
  bot_token: "${TEST_BOT_TOKEN}"
database:
  path: data/pirouette.db
admins:
  - 111111
`)

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "123456:secret", cfg.Telegram.BotToken)
}

func TestLoadDefaults(t *testing.T) {
	path := writeConfig(t, `
telegram:
  bot_token: "123456:token"
database:
  path: data/pirouette.db
admins:
  - 111111
`)

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.Equal(t, 8080, cfg.API.Port)
	assert.Equal(t, 20, cfg.Bot.RateLimitMessages)
	assert.Equal(t, time.Minute, cfg.RateLimitWindow())
	assert.Equal(t, "Анна Карелина", cfg.Teacher.Name)
	assert.Equal(t, "ул. Максима Горького, 17/129", cfg.Studio.Address)
	assert.Equal(t, "Анна Карелина", cfg.Payment.Recipient)
	assert.Equal(t, "ТБанк", cfg.Payment.Bank)
}

func TestValidate(t *testing.T) {
	path := writeConfig(t, `
telegram:
  bot_token: ""
database:
  path: data/pirouette.db
admins:
  - 111111
`)
	_, err := Load(path)
	assert.ErrorContains(t, err, "bot token")

	path = writeConfig(t, `
telegram:
  bot_token: "123456:token"
database:
  path: data/pirouette.db
`)
	_, err = Load(path)
	assert.ErrorContains(t, err, "admin")
}

func TestIsAdmin(t *testing.T) {
	cfg := &Config{Admins: []int64{1, 2}}
	assert.True(t, cfg.IsAdmin(1))
	assert.False(t, cfg.IsAdmin(3))
}
