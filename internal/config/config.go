package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// LLM providers supported by the chat and insights features.
const (
	ProviderGemini = "gemini"
	ProviderOllama = "ollama"
)

type Config struct {
	AppPort      int    `mapstructure:"APP_PORT"`
	DatabasePath string `mapstructure:"DATABASE_PATH"`
	LogLevel     string `mapstructure:"LOG_LEVEL"`
	LogFile      string `mapstructure:"LOG_FILE"`
	FrontendDir  string `mapstructure:"FRONTEND_DIR"`
	PublicURL    string `mapstructure:"PUBLIC_URL"`

	// AllowedOrigin restricts WebSocket origins; empty means same host only.
	AllowedOrigin string `mapstructure:"ALLOWED_ORIGIN"`

	JWTSecret       string        `mapstructure:"JWT_SECRET"`
	SessionTTL      time.Duration `mapstructure:"SESSION_TTL"`
	ResetTokenTTL   time.Duration `mapstructure:"RESET_TOKEN_TTL"`
	AuthRatePerMin  int           `mapstructure:"AUTH_RATE_PER_MIN"`
	AuthRateBurst   int           `mapstructure:"AUTH_RATE_BURST"`
	DefaultTimezone string        `mapstructure:"DEFAULT_TIMEZONE"`

	LLMProvider  string `mapstructure:"LLM_PROVIDER"`
	GeminiAPIKey string `mapstructure:"GEMINI_API_KEY"`
	GeminiModel  string `mapstructure:"GEMINI_MODEL"`
	OllamaURL    string `mapstructure:"OLLAMA_URL"`
	OllamaModel  string `mapstructure:"OLLAMA_MODEL"`

	RedisAddr    string `mapstructure:"REDIS_ADDR"`
	RedisChannel string `mapstructure:"REDIS_CHANNEL"`

	MinIOEndpoint  string `mapstructure:"MINIO_ENDPOINT"`
	MinIOAccessKey string `mapstructure:"MINIO_ACCESS_KEY"`
	MinIOSecretKey string `mapstructure:"MINIO_SECRET_KEY"`
	MinIOBucket    string `mapstructure:"MINIO_BUCKET"`
	MinIOUseSSL    bool   `mapstructure:"MINIO_USE_SSL"`
	AvatarBaseURL  string `mapstructure:"AVATAR_BASE_URL"`
}

func LoadConfig() (*Config, error) {
	viper.SetDefault("APP_PORT", 8000)
	viper.SetDefault("DATABASE_PATH", "/data/velym.db")
	viper.SetDefault("LOG_LEVEL", "INFO")
	viper.SetDefault("LOG_FILE", "")
	viper.SetDefault("FRONTEND_DIR", "./frontend/dist")
	viper.SetDefault("PUBLIC_URL", "http://localhost:8000")
	viper.SetDefault("ALLOWED_ORIGIN", "")

	viper.SetDefault("JWT_SECRET", "")
	viper.SetDefault("SESSION_TTL", "720h")
	viper.SetDefault("RESET_TOKEN_TTL", "1h")
	viper.SetDefault("AUTH_RATE_PER_MIN", 10)
	viper.SetDefault("AUTH_RATE_BURST", 5)
	viper.SetDefault("DEFAULT_TIMEZONE", "UTC")

	viper.SetDefault("LLM_PROVIDER", ProviderGemini)
	viper.SetDefault("GEMINI_API_KEY", "")
	viper.SetDefault("GEMINI_MODEL", "gemini-2.5-flash")
	viper.SetDefault("OLLAMA_URL", "http://ollama:11434")
	viper.SetDefault("OLLAMA_MODEL", "llama3.2")

	viper.SetDefault("REDIS_ADDR", "")
	viper.SetDefault("REDIS_CHANNEL", "velym:changes")

	viper.SetDefault("MINIO_ENDPOINT", "")
	viper.SetDefault("MINIO_ACCESS_KEY", "")
	viper.SetDefault("MINIO_SECRET_KEY", "")
	viper.SetDefault("MINIO_BUCKET", "avatars")
	viper.SetDefault("MINIO_USE_SSL", false)
	viper.SetDefault("AVATAR_BASE_URL", "")

	viper.SetConfigName(".env")
	viper.SetConfigType("env")
	viper.AddConfigPath(".")
	viper.AddConfigPath("./backend")

	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate checks settings that have no usable default.
func (c *Config) Validate() error {
	if c.JWTSecret == "" {
		return fmt.Errorf("JWT_SECRET must be set")
	}
	switch c.LLMProvider {
	case ProviderGemini:
		if c.GeminiAPIKey == "" {
			return fmt.Errorf("GEMINI_API_KEY must be set when LLM_PROVIDER is %q", ProviderGemini)
		}
	case ProviderOllama:
		if c.OllamaURL == "" {
			return fmt.Errorf("OLLAMA_URL must be set when LLM_PROVIDER is %q", ProviderOllama)
		}
	default:
		return fmt.Errorf("unknown LLM_PROVIDER %q", c.LLMProvider)
	}
	if _, err := time.LoadLocation(c.DefaultTimezone); err != nil {
		return fmt.Errorf("invalid DEFAULT_TIMEZONE: %w", err)
	}
	return nil
}

// AvatarStorageEnabled reports whether MinIO settings are present.
func (c *Config) AvatarStorageEnabled() bool {
	return c.MinIOEndpoint != "" && c.MinIOAccessKey != "" && c.MinIOSecretKey != ""
}
