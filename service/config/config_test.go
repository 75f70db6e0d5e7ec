package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/brojonat/burnwatch/service/solana"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setRequiredEnv() {
	os.Setenv("HELIUS_API_KEY", "helius-key")
	os.Setenv("WEBHOOK_SECRET", "shh")
}

func TestLoad_Defaults(t *testing.T) {
	cleanupEnv()
	setRequiredEnv()
	defer cleanupEnv()

	cfg, err := Load()
	require.NoError(t, err)
	require.NotNil(t, cfg)

	assert.Equal(t, ":10000", cfg.ServerAddr)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "helius-key", cfg.HeliusAPIKey)
	assert.Equal(t, "https://api.helius.xyz", cfg.HeliusAPIURL)
	assert.Equal(t, solana.DefaultProgramID, cfg.TargetProgramID)
	assert.Equal(t, "X-Webhook-Signature", cfg.WebhookSignatureHeader)
	assert.Equal(t, time.Hour, cfg.TokenCacheTTL)
	assert.Equal(t, int64(100000), cfg.SOLBurnThresholdLamports)
	assert.True(t, cfg.AccountKeyHeuristic)
	assert.False(t, cfg.AllowUnsignedWebhooks)
	assert.False(t, cfg.RegisterWebhook)
	assert.Equal(t, 10*time.Second, cfg.SinkTimeout)
	assert.Equal(t, 10*time.Second, cfg.MetadataTimeout)
	assert.Equal(t, 600, cfg.MetadataRateLimit)
	assert.Equal(t, 10*time.Minute, cfg.DedupWindow)
	assert.Equal(t, "lp-burns", cfg.KafkaTopic)
	assert.Equal(t, TelegramFormatText, cfg.TelegramFormat)
	assert.Equal(t, "https://solscan.io/tx/%s", cfg.ExplorerTxURL)

	assert.False(t, cfg.DiscordEnabled())
	assert.False(t, cfg.TelegramEnabled())
	assert.False(t, cfg.NATSEnabled())
	assert.False(t, cfg.KafkaEnabled())
}

func TestLoad_CustomValues(t *testing.T) {
	cleanupEnv()
	setRequiredEnv()
	os.Setenv("SERVER_ADDR", ":9090")
	os.Setenv("LOG_LEVEL", "DEBUG")
	os.Setenv("TOKEN_CACHE_TTL", "30m")
	os.Setenv("SOL_BURN_THRESHOLD_LAMPORTS", "5000000")
	os.Setenv("ACCOUNT_KEY_HEURISTIC", "false")
	os.Setenv("DISCORD_WEBHOOK_URL", "https://discord.example.com/hook")
	os.Setenv("TELEGRAM_BOT_TOKEN", "bot")
	os.Setenv("TELEGRAM_CHAT_ID", "42")
	os.Setenv("TELEGRAM_FORMAT", "photo")
	os.Setenv("KAFKA_BROKERS", "k1:9092, k2:9092,")
	os.Setenv("NATS_URL", "nats://nats.example.com:4222")
	defer cleanupEnv()

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, ":9090", cfg.ServerAddr)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, 30*time.Minute, cfg.TokenCacheTTL)
	assert.Equal(t, int64(5000000), cfg.SOLBurnThresholdLamports)
	assert.False(t, cfg.AccountKeyHeuristic)
	assert.Equal(t, TelegramFormatPhoto, cfg.TelegramFormat)
	assert.Equal(t, []string{"k1:9092", "k2:9092"}, cfg.KafkaBrokers)

	assert.True(t, cfg.DiscordEnabled())
	assert.True(t, cfg.TelegramEnabled())
	assert.True(t, cfg.NATSEnabled())
	assert.True(t, cfg.KafkaEnabled())
}

func TestLoad_LegacyAliases(t *testing.T) {
	cleanupEnv()
	setRequiredEnv()
	os.Setenv("PORT", "3000")
	os.Setenv("DISCORD_WEBHOOK", "https://discord.example.com/legacy")
	os.Setenv("BOT_TOKEN", "legacy-bot")
	os.Setenv("CHAT_ID", "7")
	os.Setenv("WEBHOOK_URL", "https://burns.example.com/webhook")
	defer cleanupEnv()

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, ":3000", cfg.ServerAddr)
	assert.Equal(t, "https://discord.example.com/legacy", cfg.DiscordWebhookURL)
	assert.Equal(t, "legacy-bot", cfg.TelegramBotToken)
	assert.Equal(t, "7", cfg.TelegramChatID)
	assert.Equal(t, "https://burns.example.com/webhook", cfg.PublicWebhookURL)
}

func TestLoad_PrimaryNameWinsOverAlias(t *testing.T) {
	cleanupEnv()
	setRequiredEnv()
	os.Setenv("SERVER_ADDR", ":8081")
	os.Setenv("PORT", "3000")
	os.Setenv("DISCORD_WEBHOOK_URL", "https://discord.example.com/primary")
	os.Setenv("DISCORD_WEBHOOK", "https://discord.example.com/legacy")
	defer cleanupEnv()

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, ":8081", cfg.ServerAddr)
	assert.Equal(t, "https://discord.example.com/primary", cfg.DiscordWebhookURL)
}

func TestLoad_ConfigFile(t *testing.T) {
	cleanupEnv()
	dir := t.TempDir()
	path := filepath.Join(dir, "burnwatch.yaml")
	require.NoError(t, os.WriteFile(path, []byte(
		"helius_api_key: from-file\n"+
			"allow_unsigned_webhooks: true\n"+
			"token_cache_ttl: 2h\n"+
			"sol_burn_threshold_lamports: 42\n"), 0o600))

	os.Setenv(ConfigFileEnv, path)
	os.Setenv("TOKEN_CACHE_TTL", "5m")
	defer cleanupEnv()

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "from-file", cfg.HeliusAPIKey)
	assert.True(t, cfg.AllowUnsignedWebhooks)
	assert.Equal(t, 5*time.Minute, cfg.TokenCacheTTL, "environment overrides the file")
	assert.Equal(t, int64(42), cfg.SOLBurnThresholdLamports)
}

func TestLoad_MissingConfigFile(t *testing.T) {
	cleanupEnv()
	setRequiredEnv()
	os.Setenv(ConfigFileEnv, filepath.Join(t.TempDir(), "missing.yaml"))
	defer cleanupEnv()

	cfg, err := Load()
	require.Error(t, err)
	assert.Nil(t, cfg)
	assert.Contains(t, err.Error(), ConfigFileEnv)
}

func TestLoad_Errors(t *testing.T) {
	tests := []struct {
		name     string
		env      map[string]string
		expected string
	}{
		{
			name:     "missing api key",
			env:      map[string]string{"WEBHOOK_SECRET": "shh"},
			expected: "HELIUS_API_KEY is required",
		},
		{
			name:     "unsigned without opt in",
			env:      map[string]string{"HELIUS_API_KEY": "k"},
			expected: "WEBHOOK_SECRET or WEBHOOK_AUTH_TOKEN is required unless ALLOW_UNSIGNED_WEBHOOKS=true",
		},
		{
			name:     "invalid program id",
			env:      map[string]string{"HELIUS_API_KEY": "k", "WEBHOOK_SECRET": "s", "TARGET_PROGRAM_ID": "not-base58!"},
			expected: "TARGET_PROGRAM_ID",
		},
		{
			name:     "invalid duration",
			env:      map[string]string{"HELIUS_API_KEY": "k", "WEBHOOK_SECRET": "s", "TOKEN_CACHE_TTL": "soon"},
			expected: "TOKEN_CACHE_TTL: invalid duration",
		},
		{
			name:     "invalid integer",
			env:      map[string]string{"HELIUS_API_KEY": "k", "WEBHOOK_SECRET": "s", "SOL_BURN_THRESHOLD_LAMPORTS": "lots"},
			expected: "SOL_BURN_THRESHOLD_LAMPORTS: invalid integer",
		},
		{
			name:     "invalid boolean",
			env:      map[string]string{"HELIUS_API_KEY": "k", "WEBHOOK_SECRET": "s", "ACCOUNT_KEY_HEURISTIC": "maybe"},
			expected: "ACCOUNT_KEY_HEURISTIC: invalid boolean",
		},
		{
			name:     "register without url",
			env:      map[string]string{"HELIUS_API_KEY": "k", "WEBHOOK_AUTH_TOKEN": "t", "REGISTER_WEBHOOK": "true"},
			expected: "PUBLIC_WEBHOOK_URL is required",
		},
		{
			name: "register with hmac secret",
			env: map[string]string{
				"HELIUS_API_KEY": "k", "WEBHOOK_SECRET": "s", "REGISTER_WEBHOOK": "true",
				"PUBLIC_WEBHOOK_URL": "https://burns.example.com/webhook",
			},
			expected: "set WEBHOOK_AUTH_TOKEN instead",
		},
		{
			name:     "unknown telegram format",
			env:      map[string]string{"HELIUS_API_KEY": "k", "WEBHOOK_SECRET": "s", "TELEGRAM_FORMAT": "markdown"},
			expected: "TELEGRAM_FORMAT",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cleanupEnv()
			for k, v := range tt.env {
				os.Setenv(k, v)
			}
			defer cleanupEnv()

			cfg, err := Load()
			require.Error(t, err)
			assert.Nil(t, cfg)
			assert.Contains(t, err.Error(), "configuration validation failed")
			assert.Contains(t, err.Error(), tt.expected)
		})
	}
}

func TestLoad_AllowUnsigned(t *testing.T) {
	cleanupEnv()
	os.Setenv("HELIUS_API_KEY", "k")
	os.Setenv("ALLOW_UNSIGNED_WEBHOOKS", "true")
	defer cleanupEnv()

	cfg, err := Load()
	require.NoError(t, err)
	assert.Empty(t, cfg.WebhookSecret)
	assert.True(t, cfg.AllowUnsignedWebhooks)
}

func TestLoad_RegisterWithAuthToken(t *testing.T) {
	cleanupEnv()
	os.Setenv("HELIUS_API_KEY", "k")
	os.Setenv("WEBHOOK_AUTH_TOKEN", "tok")
	os.Setenv("REGISTER_WEBHOOK", "true")
	os.Setenv("PUBLIC_WEBHOOK_URL", "https://burns.example.com/webhook")
	defer cleanupEnv()

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "tok", cfg.WebhookAuthToken)
	assert.Empty(t, cfg.WebhookSecret)
	assert.True(t, cfg.RegisterWebhook)
}

func validConfig() *Config {
	return &Config{
		ServerAddr:             ":10000",
		LogLevel:               "info",
		HeliusAPIKey:           "k",
		WebhookSecret:          "s",
		WebhookSignatureHeader: "X-Webhook-Signature",
		TargetProgramID:        solana.DefaultProgramID,
		TokenCacheTTL:          time.Hour,
		SinkTimeout:            10 * time.Second,
		MetadataTimeout:        10 * time.Second,
		TelegramFormat:         TelegramFormatText,
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name     string
		mutate   func(c *Config)
		expected string
	}{
		{name: "valid", mutate: func(c *Config) {}},
		{name: "zero ttl", mutate: func(c *Config) { c.TokenCacheTTL = 0 }, expected: "TOKEN_CACHE_TTL must be positive"},
		{name: "negative threshold", mutate: func(c *Config) { c.SOLBurnThresholdLamports = -1 }, expected: "cannot be negative"},
		{name: "bad log level", mutate: func(c *Config) { c.LogLevel = "trace" }, expected: "LOG_LEVEL"},
		{name: "kafka without topic", mutate: func(c *Config) { c.KafkaBrokers = []string{"k:9092"} }, expected: "KAFKA_TOPIC"},
		{name: "empty header", mutate: func(c *Config) { c.WebhookSignatureHeader = "" }, expected: "WEBHOOK_SIGNATURE_HEADER"},
		{name: "token only", mutate: func(c *Config) { c.WebhookSecret, c.WebhookAuthToken = "", "tok" }},
		{name: "no credentials", mutate: func(c *Config) { c.WebhookSecret = "" }, expected: "WEBHOOK_AUTH_TOKEN is required"},
		{
			name: "register with token",
			mutate: func(c *Config) {
				c.WebhookSecret, c.WebhookAuthToken = "", "tok"
				c.RegisterWebhook, c.PublicWebhookURL = true, "https://burns.example.com/webhook"
			},
		},
		{
			name: "register with secret",
			mutate: func(c *Config) {
				c.RegisterWebhook, c.PublicWebhookURL = true, "https://burns.example.com/webhook"
			},
			expected: "WEBHOOK_SECRET cannot be used with REGISTER_WEBHOOK=true",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.expected == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.expected)
		})
	}
}

func TestTelegramEnabled_RequiresTokenAndChat(t *testing.T) {
	cfg := validConfig()
	cfg.TelegramBotToken = "bot"
	assert.False(t, cfg.TelegramEnabled())
	cfg.TelegramChatID = "42"
	assert.True(t, cfg.TelegramEnabled())
}

func TestMustLoad_Panics(t *testing.T) {
	cleanupEnv()
	defer cleanupEnv()

	assert.Panics(t, func() {
		MustLoad()
	})
}

func TestMustLoad_Success(t *testing.T) {
	cleanupEnv()
	setRequiredEnv()
	defer cleanupEnv()

	assert.NotPanics(t, func() {
		cfg := MustLoad()
		assert.NotNil(t, cfg)
	})
}

// cleanupEnv clears every environment variable Load reads.
func cleanupEnv() {
	os.Unsetenv(ConfigFileEnv)
	for _, b := range bindings {
		for _, env := range b.envs {
			os.Unsetenv(env)
		}
	}
}
