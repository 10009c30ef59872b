package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoad(t *testing.T) {
	path := writeConfig(t, `
app:
  name: bettersaved
  environment: production

telegram:
  bot_token: "123:abc"

database:
  path: ./data/bot.db

google:
  credentials_file: ./configs/client_secret.json
  rate_limit_rps: 3

bot:
  rate_limit_messages: 30
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "production", cfg.App.Environment)
	assert.Equal(t, "123:abc", cfg.Telegram.BotToken)
	assert.Equal(t, "./data/bot.db", cfg.Database.Path)
	assert.Equal(t, float64(3), cfg.Google.RateLimitRPS)
	assert.Equal(t, 30, cfg.Bot.RateLimitMessages)
}

func TestLoadExpandsEnvironment(t *testing.T) {
	t.Setenv("TELEGRAM_TOKEN", "999:secret")
	t.Setenv("DB_PATH", "/var/lib/bot.db")
	t.Setenv("GOOGLE_DRIVE_FOLDER", "MyArchive")

	path := writeConfig(t, `
telegram:
  bot_token: "${TELEGRAM_TOKEN}"

database:
  path: "${DB_PATH}"

google:
  credentials_file: ./client_secret.json
  root_folder_name: "${GOOGLE_DRIVE_FOLDER}"
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "999:secret", cfg.Telegram.BotToken)
	assert.Equal(t, "/var/lib/bot.db", cfg.Database.Path)
	assert.Equal(t, "MyArchive", cfg.Google.RootFolderName)
}

func TestLoadAppliesDefaults(t *testing.T) {
	path := writeConfig(t, `
telegram:
  bot_token: "123:abc"

database:
  path: ./bot.db

google:
  credentials_file: ./client_secret.json
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "bettersaved", cfg.App.Name)
	assert.Equal(t, "development", cfg.App.Environment)
	assert.Equal(t, "BetterSaved", cfg.Google.RootFolderName)
	assert.Equal(t, float64(5), cfg.Google.RateLimitRPS)
	assert.Equal(t, 10, cfg.Google.RateBurst)
	assert.Equal(t, 20, cfg.Bot.RateLimitMessages)
	assert.Equal(t, 60, cfg.Bot.RateLimitWindow)
	assert.Equal(t, 5, cfg.Bot.StatusMessageTTL)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{
			name:    "MissingToken",
			mutate:  func(c *Config) { c.Telegram.BotToken = "" },
			wantErr: "telegram bot token",
		},
		{
			name:    "PlaceholderToken",
			mutate:  func(c *Config) { c.Telegram.BotToken = "YOUR_BOT_TOKEN_HERE" },
			wantErr: "telegram bot token",
		},
		{
			name:    "MissingDBPath",
			mutate:  func(c *Config) { c.Database.Path = "" },
			wantErr: "database path",
		},
		{
			name:    "MissingCredentials",
			mutate:  func(c *Config) { c.Google.CredentialsFile = "" },
			wantErr: "credentials file",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := &Config{
				Telegram: TelegramConfig{BotToken: "123:abc"},
				Database: DatabaseConfig{Path: "./bot.db"},
				Google:   GoogleConfig{CredentialsFile: "./secret.json"},
			}
			tt.mutate(cfg)

			err := cfg.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}
