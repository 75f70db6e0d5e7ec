package config

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/brojonat/burnwatch/service/solana"
	"github.com/spf13/viper"
)

// ConfigFileEnv names an optional config file (yaml, json, toml or env).
// Values from the process environment take priority over the file.
const ConfigFileEnv = "BURNWATCH_CONFIG"

// DefaultServerAddr is used when neither SERVER_ADDR nor PORT is set.
const DefaultServerAddr = ":10000"

// Config holds the resolved application configuration. It is populated once
// at startup; nothing downstream reads the environment.
type Config struct {
	// Server configuration
	ServerAddr string
	LogLevel   string

	// Helius configuration
	HeliusAPIKey      string
	HeliusAPIURL      string
	PublicWebhookURL  string
	RegisterWebhook   bool
	MetadataTimeout   time.Duration
	MetadataRateLimit int // requests per minute

	// Webhook authentication. WebhookAuthToken is registered with the
	// provider as the webhook's authHeader and echoed back in Authorization;
	// WebhookSecret is for senders that sign the body themselves.
	WebhookSecret          string
	WebhookAuthToken       string
	AllowUnsignedWebhooks  bool
	WebhookSignatureHeader string

	// Classification
	TargetProgramID          string
	SOLBurnThresholdLamports int64
	AccountKeyHeuristic      bool

	// Token metadata cache
	TokenCacheTTL time.Duration

	// Notification sinks
	DiscordWebhookURL string
	TelegramBotToken  string
	TelegramChatID    string
	TelegramFormat    string
	TelegramAPIURL    string
	NATSURL           string
	KafkaBrokers      []string
	KafkaTopic        string

	// Dispatch behavior
	SinkTimeout   time.Duration
	DedupWindow   time.Duration
	NotifyFilter  string
	ExplorerTxURL string
}

// Telegram message formats.
const (
	TelegramFormatText  = "text"
	TelegramFormatPhoto = "photo"
)

type binding struct {
	key  string
	envs []string
	def  any
}

// Env names are listed in priority order; later names are legacy aliases.
var bindings = []binding{
	{"server_addr", []string{"SERVER_ADDR"}, ""},
	{"port", []string{"PORT"}, ""},
	{"log_level", []string{"LOG_LEVEL"}, "info"},
	{"helius_api_key", []string{"HELIUS_API_KEY"}, ""},
	{"helius_api_url", []string{"HELIUS_API_URL"}, "https://api.helius.xyz"},
	{"public_webhook_url", []string{"PUBLIC_WEBHOOK_URL", "WEBHOOK_URL"}, ""},
	{"register_webhook", []string{"REGISTER_WEBHOOK"}, "false"},
	{"metadata_timeout", []string{"METADATA_TIMEOUT"}, "10s"},
	{"metadata_rate_limit", []string{"METADATA_RATE_LIMIT"}, "600"},
	{"webhook_secret", []string{"WEBHOOK_SECRET"}, ""},
	{"webhook_auth_token", []string{"WEBHOOK_AUTH_TOKEN"}, ""},
	{"allow_unsigned_webhooks", []string{"ALLOW_UNSIGNED_WEBHOOKS"}, "false"},
	{"webhook_signature_header", []string{"WEBHOOK_SIGNATURE_HEADER"}, "X-Webhook-Signature"},
	{"target_program_id", []string{"TARGET_PROGRAM_ID"}, solana.DefaultProgramID},
	{"sol_burn_threshold_lamports", []string{"SOL_BURN_THRESHOLD_LAMPORTS"}, "100000"},
	{"account_key_heuristic", []string{"ACCOUNT_KEY_HEURISTIC"}, "true"},
	{"token_cache_ttl", []string{"TOKEN_CACHE_TTL"}, "1h"},
	{"discord_webhook_url", []string{"DISCORD_WEBHOOK_URL", "DISCORD_WEBHOOK"}, ""},
	{"telegram_bot_token", []string{"TELEGRAM_BOT_TOKEN", "BOT_TOKEN"}, ""},
	{"telegram_chat_id", []string{"TELEGRAM_CHAT_ID", "CHAT_ID"}, ""},
	{"telegram_format", []string{"TELEGRAM_FORMAT"}, TelegramFormatText},
	{"telegram_api_url", []string{"TELEGRAM_API_URL"}, "https://api.telegram.org"},
	{"nats_url", []string{"NATS_URL"}, ""},
	{"kafka_brokers", []string{"KAFKA_BROKERS"}, ""},
	{"kafka_topic", []string{"KAFKA_TOPIC"}, "lp-burns"},
	{"sink_timeout", []string{"SINK_TIMEOUT"}, "10s"},
	{"dedup_window", []string{"DEDUP_WINDOW"}, "10m"},
	{"notify_filter", []string{"NOTIFY_FILTER"}, ""},
	{"explorer_tx_url", []string{"EXPLORER_TX_URL"}, "https://solscan.io/tx/%s"},
}

func newViper() *viper.Viper {
	v := viper.New()
	for _, b := range bindings {
		v.SetDefault(b.key, b.def)
		// BindEnv only fails when called without a key.
		_ = v.BindEnv(append([]string{b.key}, b.envs...)...)
	}
	_ = v.BindEnv("config_file", ConfigFileEnv)
	return v
}

// Load resolves configuration from the environment, the optional config
// file and the defaults, then validates it. Every problem is reported.
func Load() (*Config, error) {
	v := newViper()
	var errs []error

	if path := v.GetString("config_file"); path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			errs = append(errs, fmt.Errorf("%s: read %s: %w", ConfigFileEnv, path, err))
		}
	}

	cfg := &Config{
		ServerAddr:             v.GetString("server_addr"),
		LogLevel:               strings.ToLower(v.GetString("log_level")),
		HeliusAPIKey:           v.GetString("helius_api_key"),
		HeliusAPIURL:           v.GetString("helius_api_url"),
		PublicWebhookURL:       v.GetString("public_webhook_url"),
		WebhookSecret:          v.GetString("webhook_secret"),
		WebhookAuthToken:       v.GetString("webhook_auth_token"),
		WebhookSignatureHeader: v.GetString("webhook_signature_header"),
		TargetProgramID:        v.GetString("target_program_id"),
		DiscordWebhookURL:      v.GetString("discord_webhook_url"),
		TelegramBotToken:       v.GetString("telegram_bot_token"),
		TelegramChatID:         v.GetString("telegram_chat_id"),
		TelegramFormat:         strings.ToLower(v.GetString("telegram_format")),
		TelegramAPIURL:         v.GetString("telegram_api_url"),
		NATSURL:                v.GetString("nats_url"),
		KafkaBrokers:           splitList(v.GetString("kafka_brokers")),
		KafkaTopic:             v.GetString("kafka_topic"),
		NotifyFilter:           v.GetString("notify_filter"),
		ExplorerTxURL:          v.GetString("explorer_tx_url"),
	}

	// PORT is what most hosting platforms inject.
	if cfg.ServerAddr == "" {
		cfg.ServerAddr = DefaultServerAddr
		if port := v.GetString("port"); port != "" {
			cfg.ServerAddr = ":" + strings.TrimPrefix(port, ":")
		}
	}

	p := parser{v: v}
	cfg.RegisterWebhook = p.boolean("register_webhook", "REGISTER_WEBHOOK")
	cfg.AllowUnsignedWebhooks = p.boolean("allow_unsigned_webhooks", "ALLOW_UNSIGNED_WEBHOOKS")
	cfg.AccountKeyHeuristic = p.boolean("account_key_heuristic", "ACCOUNT_KEY_HEURISTIC")
	cfg.MetadataTimeout = p.duration("metadata_timeout", "METADATA_TIMEOUT")
	cfg.TokenCacheTTL = p.duration("token_cache_ttl", "TOKEN_CACHE_TTL")
	cfg.SinkTimeout = p.duration("sink_timeout", "SINK_TIMEOUT")
	cfg.DedupWindow = p.duration("dedup_window", "DEDUP_WINDOW")
	cfg.MetadataRateLimit = int(p.integer("metadata_rate_limit", "METADATA_RATE_LIMIT"))
	cfg.SOLBurnThresholdLamports = p.integer("sol_burn_threshold_lamports", "SOL_BURN_THRESHOLD_LAMPORTS")
	errs = append(errs, p.errs...)

	if len(errs) == 0 {
		if err := cfg.Validate(); err != nil {
			return nil, err
		}
		return cfg, nil
	}

	return nil, fmt.Errorf("configuration validation failed: %v", errs)
}

// MustLoad is like Load but panics if configuration is invalid.
// Useful for server initialization where misconfiguration should halt startup.
func MustLoad() *Config {
	cfg, err := Load()
	if err != nil {
		panic(fmt.Sprintf("failed to load configuration: %v", err))
	}
	return cfg
}

// Validate checks if the configuration is valid.
// This is useful for testing configuration without loading from env.
func (c *Config) Validate() error {
	var errs []error

	if c.ServerAddr == "" {
		errs = append(errs, fmt.Errorf("SERVER_ADDR is required"))
	}

	switch c.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		errs = append(errs, fmt.Errorf("LOG_LEVEL must be one of debug, info, warn, error (got %q)", c.LogLevel))
	}

	if c.HeliusAPIKey == "" {
		errs = append(errs, fmt.Errorf("HELIUS_API_KEY is required"))
	}

	if err := solana.ValidateAddress(c.TargetProgramID); err != nil {
		errs = append(errs, fmt.Errorf("TARGET_PROGRAM_ID: %w", err))
	}

	if c.WebhookSecret == "" && c.WebhookAuthToken == "" && !c.AllowUnsignedWebhooks {
		errs = append(errs, fmt.Errorf("WEBHOOK_SECRET or WEBHOOK_AUTH_TOKEN is required unless ALLOW_UNSIGNED_WEBHOOKS=true"))
	}

	if c.WebhookSignatureHeader == "" {
		errs = append(errs, fmt.Errorf("WEBHOOK_SIGNATURE_HEADER cannot be empty"))
	}

	if c.RegisterWebhook && c.PublicWebhookURL == "" {
		errs = append(errs, fmt.Errorf("PUBLIC_WEBHOOK_URL is required when REGISTER_WEBHOOK=true"))
	}

	// The provider echoes its authHeader but never signs the body, so a
	// registered webhook could not pass the HMAC check.
	if c.RegisterWebhook && c.WebhookSecret != "" {
		errs = append(errs, fmt.Errorf("WEBHOOK_SECRET cannot be used with REGISTER_WEBHOOK=true; set WEBHOOK_AUTH_TOKEN instead"))
	}

	if c.TokenCacheTTL <= 0 {
		errs = append(errs, fmt.Errorf("TOKEN_CACHE_TTL must be positive"))
	}

	if c.SOLBurnThresholdLamports < 0 {
		errs = append(errs, fmt.Errorf("SOL_BURN_THRESHOLD_LAMPORTS cannot be negative"))
	}

	if c.SinkTimeout <= 0 {
		errs = append(errs, fmt.Errorf("SINK_TIMEOUT must be positive"))
	}

	if c.MetadataTimeout <= 0 {
		errs = append(errs, fmt.Errorf("METADATA_TIMEOUT must be positive"))
	}

	if c.DedupWindow < 0 {
		errs = append(errs, fmt.Errorf("DEDUP_WINDOW cannot be negative"))
	}

	if c.TelegramFormat != TelegramFormatText && c.TelegramFormat != TelegramFormatPhoto {
		errs = append(errs, fmt.Errorf("TELEGRAM_FORMAT must be %q or %q (got %q)",
			TelegramFormatText, TelegramFormatPhoto, c.TelegramFormat))
	}

	if len(c.KafkaBrokers) > 0 && c.KafkaTopic == "" {
		errs = append(errs, fmt.Errorf("KAFKA_TOPIC is required when KAFKA_BROKERS is set"))
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration validation failed: %v", errs)
	}

	return nil
}

// DiscordEnabled reports whether the embed sink is configured.
func (c *Config) DiscordEnabled() bool { return c.DiscordWebhookURL != "" }

// TelegramEnabled reports whether the chat-bot sink is configured. Both the
// token and the chat are needed.
func (c *Config) TelegramEnabled() bool { return c.TelegramBotToken != "" && c.TelegramChatID != "" }

func (c *Config) NATSEnabled() bool { return c.NATSURL != "" }

func (c *Config) KafkaEnabled() bool { return len(c.KafkaBrokers) > 0 }

// parser collects conversion errors so Load can report all of them at once.
type parser struct {
	v    *viper.Viper
	errs []error
}

func (p *parser) duration(key, env string) time.Duration {
	value := p.v.GetString(key)
	d, err := time.ParseDuration(value)
	if err != nil {
		p.errs = append(p.errs, fmt.Errorf("%s: invalid duration %q: %w", env, value, err))
	}
	return d
}

func (p *parser) integer(key, env string) int64 {
	value := p.v.GetString(key)
	n, err := strconv.ParseInt(value, 10, 64)
	if err != nil {
		p.errs = append(p.errs, fmt.Errorf("%s: invalid integer %q: %w", env, value, err))
	}
	return n
}

func (p *parser) boolean(key, env string) bool {
	value := p.v.GetString(key)
	b, err := strconv.ParseBool(value)
	if err != nil {
		p.errs = append(p.errs, fmt.Errorf("%s: invalid boolean %q: %w", env, value, err))
	}
	return b
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
