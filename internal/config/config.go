package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config holds all configuration for the application
type Config struct {
	Server     ServerConfig     `yaml:"server"`
	Database   DatabaseConfig   `yaml:"database"`
	Redis      RedisConfig      `yaml:"redis"`
	Encryption EncryptionConfig `yaml:"encryption"`
	Google     GoogleAdsConfig  `yaml:"google_ads"`
	Meta       MetaAdsConfig    `yaml:"meta_ads"`
	Sync       SyncConfig       `yaml:"sync"`
	Insights   InsightsConfig   `yaml:"insights"`
	Frontend   FrontendConfig   `yaml:"frontend"`
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Port int    `yaml:"port"`
	Host string `yaml:"host"`
}

// GetHost returns the server host, with container detection
func (c ServerConfig) GetHost() string {
	// In a container, listen on all interfaces
	if os.Getenv("ECS_CONTAINER_METADATA_URI") != "" || os.Getenv("AWS_EXECUTION_ENV") != "" {
		return "0.0.0.0"
	}
	if host := os.Getenv("SERVER_HOST"); host != "" {
		return host
	}
	return c.Host
}

// Addr returns the host:port listen address.
func (c ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.GetHost(), c.Port)
}

// DatabaseConfig holds PostgreSQL configuration
type DatabaseConfig struct {
	URL             string `yaml:"url"`
	MaxOpenConns    int    `yaml:"max_open_conns"`
	MaxIdleConns    int    `yaml:"max_idle_conns"`
	ConnMaxLifetime int    `yaml:"conn_max_lifetime_minutes"`
}

// RedisConfig holds Redis configuration for the sync run-overlap lock.
// Optional: when Addr is empty the scheduler falls back to PG advisory locks.
type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

// EncryptionConfig holds the token-at-rest encryption key.
type EncryptionConfig struct {
	// TokenKey is a 64-char hex or base64 string decoding to 32 bytes.
	TokenKey string `yaml:"token_key"`
}

// GoogleAdsConfig holds Google Ads API and OAuth configuration
type GoogleAdsConfig struct {
	ClientID       string `yaml:"client_id"`
	ClientSecret   string `yaml:"client_secret"`
	DeveloperToken string `yaml:"developer_token"`
	RedirectURI    string `yaml:"redirect_uri"`
	BaseURL        string `yaml:"base_url"`
	TokenURL       string `yaml:"token_url"`
	AuthURL        string `yaml:"auth_url"`
	TimeoutSeconds int    `yaml:"timeout_seconds"`
}

// Timeout returns the configured timeout as a duration
func (c GoogleAdsConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// MetaAdsConfig holds Meta Marketing API and OAuth configuration
type MetaAdsConfig struct {
	AppID          string `yaml:"app_id"`
	AppSecret      string `yaml:"app_secret"`
	RedirectURI    string `yaml:"redirect_uri"`
	BaseURL        string `yaml:"base_url"`
	APIVersion     string `yaml:"api_version"`
	TimeoutSeconds int    `yaml:"timeout_seconds"`
}

// Timeout returns the configured timeout as a duration
func (c MetaAdsConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// GraphURL returns the versioned Graph API base, e.g.
// https://graph.facebook.com/v18.0
func (c MetaAdsConfig) GraphURL() string {
	return strings.TrimRight(c.BaseURL, "/") + "/" + c.APIVersion
}

// SyncConfig holds the periodic sync schedule.
type SyncConfig struct {
	IntervalHours  int  `yaml:"interval_hours"`
	LookbackDays   int  `yaml:"lookback_days"`
	PacingSeconds  int  `yaml:"pacing_seconds"`
	RunImmediately bool `yaml:"run_immediately"`
}

// Interval returns the sync interval as a duration
func (c SyncConfig) Interval() time.Duration {
	return time.Duration(c.IntervalHours) * time.Hour
}

// Pacing returns the inter-integration delay as a duration
func (c SyncConfig) Pacing() time.Duration {
	return time.Duration(c.PacingSeconds) * time.Second
}

// InsightsConfig holds the AI analytics assistant configuration
type InsightsConfig struct {
	// Provider selects the completion backend: "openai" or "bedrock".
	Provider     string `yaml:"provider"`
	OpenAIKey    string `yaml:"openai_api_key"`
	OpenAIModel  string `yaml:"openai_model"`
	BedrockModel string `yaml:"bedrock_model"`
	Enabled      bool   `yaml:"enabled"`
}

// FrontendConfig holds the dashboard URL used for OAuth redirects.
type FrontendConfig struct {
	URL string `yaml:"url"`
}

// Load reads and parses the configuration file
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}

	cfg.applyDefaults()
	return &cfg, nil
}

func (cfg *Config) applyDefaults() {
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 5000
	}
	if cfg.Server.Host == "" {
		cfg.Server.Host = "localhost"
	}
	if cfg.Database.MaxOpenConns == 0 {
		cfg.Database.MaxOpenConns = 25
	}
	if cfg.Database.MaxIdleConns == 0 {
		cfg.Database.MaxIdleConns = 5
	}
	if cfg.Database.ConnMaxLifetime == 0 {
		cfg.Database.ConnMaxLifetime = 5
	}
	if cfg.Google.BaseURL == "" {
		cfg.Google.BaseURL = "https://googleads.googleapis.com/v15"
	}
	if cfg.Google.TokenURL == "" {
		cfg.Google.TokenURL = "https://oauth2.googleapis.com/token"
	}
	if cfg.Google.AuthURL == "" {
		cfg.Google.AuthURL = "https://accounts.google.com/o/oauth2/v2/auth"
	}
	if cfg.Google.TimeoutSeconds == 0 {
		cfg.Google.TimeoutSeconds = 30
	}
	if cfg.Meta.BaseURL == "" {
		cfg.Meta.BaseURL = "https://graph.facebook.com"
	}
	if cfg.Meta.APIVersion == "" {
		cfg.Meta.APIVersion = "v18.0"
	}
	if cfg.Meta.TimeoutSeconds == 0 {
		cfg.Meta.TimeoutSeconds = 30
	}
	if cfg.Sync.IntervalHours == 0 {
		cfg.Sync.IntervalHours = 6
	}
	if cfg.Sync.LookbackDays == 0 {
		cfg.Sync.LookbackDays = 7
	}
	if cfg.Sync.PacingSeconds == 0 {
		cfg.Sync.PacingSeconds = 2
	}
	if cfg.Insights.Provider == "" {
		cfg.Insights.Provider = "openai"
	}
	if cfg.Insights.OpenAIModel == "" {
		cfg.Insights.OpenAIModel = "gpt-4o"
	}
	if cfg.Insights.BedrockModel == "" {
		cfg.Insights.BedrockModel = "anthropic.claude-3-5-sonnet-20241022-v2:0"
	}
	if cfg.Frontend.URL == "" {
		cfg.Frontend.URL = "http://localhost:3000"
	}
}

// LoadFromEnv loads configuration with environment variable overrides.
// A .env file (if present) is loaded first, so secrets can live in .env
// locally and in real env vars in deployment.
func LoadFromEnv(path string) (*Config, error) {
	_ = godotenv.Load()

	cfg, err := Load(path)
	if os.IsNotExist(err) {
		// No config file; run on defaults plus environment.
		cfg = &Config{}
		cfg.applyDefaults()
	} else if err != nil {
		return nil, err
	}

	if v := os.Getenv("DATABASE_URL"); v != "" {
		cfg.Database.URL = v
	}
	if v := os.Getenv("REDIS_ADDR"); v != "" {
		cfg.Redis.Addr = v
	}
	if v := os.Getenv("TOKEN_ENCRYPTION_KEY"); v != "" {
		cfg.Encryption.TokenKey = v
	}
	if v := os.Getenv("GOOGLE_CLIENT_ID"); v != "" {
		cfg.Google.ClientID = v
	}
	if v := os.Getenv("GOOGLE_CLIENT_SECRET"); v != "" {
		cfg.Google.ClientSecret = v
	}
	if v := os.Getenv("GOOGLE_DEVELOPER_TOKEN"); v != "" {
		cfg.Google.DeveloperToken = v
	}
	if v := os.Getenv("GOOGLE_REDIRECT_URI"); v != "" {
		cfg.Google.RedirectURI = v
	}
	if v := os.Getenv("META_APP_ID"); v != "" {
		cfg.Meta.AppID = v
	}
	if v := os.Getenv("META_APP_SECRET"); v != "" {
		cfg.Meta.AppSecret = v
	}
	if v := os.Getenv("META_REDIRECT_URI"); v != "" {
		cfg.Meta.RedirectURI = v
	}
	if v := os.Getenv("OPENAI_API_KEY"); v != "" {
		cfg.Insights.OpenAIKey = v
		cfg.Insights.Enabled = true
	}
	if v := os.Getenv("FRONTEND_URL"); v != "" {
		cfg.Frontend.URL = v
	}

	return cfg, nil
}
