package config

import (
	"errors"
	"io/fs"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
)

type Config struct {
	Env       string
	Port      int
	APIPrefix string

	Database     DatabaseConfig
	Redis        RedisConfig
	JWT          JWTConfig
	CORS         CORSConfig
	Log          LogConfig
	Catalog      CatalogConfig
	Mail         MailConfig
	Payments     PaymentsConfig
	Notify       NotifyConfig
	Chat         ChatConfig
	RateLimit    RateLimitConfig
	Storage      StorageConfig
	Localization LocalizationConfig
}

type DatabaseConfig struct {
	Host         string
	Port         int
	User         string
	Password     string
	Name         string
	SSLMode      string
	MaxOpenConns int
	MaxIdleConns int
}

type RedisConfig struct {
	Enabled  bool
	Host     string
	Port     int
	Password string
	DB       int
}

type JWTConfig struct {
	Secret     string
	Expiration time.Duration
	Issuer     string
}

type CORSConfig struct {
	AllowedOrigins []string
}

type LogConfig struct {
	Level  string
	Format string
}

// CatalogConfig tunes caching of the public course catalog.
type CatalogConfig struct {
	CacheEnabled bool
	CacheTTL     time.Duration
}

// MailConfig selects the outgoing mail provider.
type MailConfig struct {
	Provider       string
	SendgridAPIKey string
	FromAddress    string
	FromName       string
	AdminAddress   string
}

// PaymentsConfig configures the hosted checkout provider.
type PaymentsConfig struct {
	MidtransServerKey string
	Production        bool
	FinishURL         string
}

// NotifyConfig sizes the notification worker pool.
type NotifyConfig struct {
	Workers int
	Retries int
}

// ChatConfig tunes the chat widget.
type ChatConfig struct {
	HistoryLimit int
}

// RateLimitConfig throttles public form posts per client IP.
type RateLimitConfig struct {
	PublicPerMinute int
}

// StorageConfig locates uploaded lesson files and signs their download links.
type StorageConfig struct {
	Dir            string
	MaxUploadBytes int64
	SigningSecret  string
	LinkTTL        time.Duration
}

// LocalizationConfig selects the locale used for validation messages.
type LocalizationConfig struct {
	DefaultLocale string
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetConfigFile(".env")
	v.SetConfigType("env")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !errors.Is(err, fs.ErrNotExist) {
			return nil, err
		}
	}

	return fromViper(v), nil
}

func fromViper(v *viper.Viper) *Config {
	cfg := &Config{}

	cfg.Env = v.GetString("ENV")
	cfg.Port = v.GetInt("PORT")
	cfg.APIPrefix = v.GetString("API_PREFIX")

	cfg.Database = DatabaseConfig{
		Host:         v.GetString("DB_HOST"),
		Port:         v.GetInt("DB_PORT"),
		User:         v.GetString("DB_USER"),
		Password:     v.GetString("DB_PASSWORD"),
		Name:         v.GetString("DB_NAME"),
		SSLMode:      v.GetString("DB_SSL_MODE"),
		MaxOpenConns: v.GetInt("DB_MAX_OPEN_CONNS"),
		MaxIdleConns: v.GetInt("DB_MAX_IDLE_CONNS"),
	}

	cfg.Redis = RedisConfig{
		Enabled:  v.GetBool("REDIS_ENABLED"),
		Host:     v.GetString("REDIS_HOST"),
		Port:     v.GetInt("REDIS_PORT"),
		Password: v.GetString("REDIS_PASSWORD"),
		DB:       v.GetInt("REDIS_DB"),
	}

	cfg.JWT = JWTConfig{
		Secret:     v.GetString("JWT_SECRET"),
		Expiration: parseDuration(v.GetString("JWT_EXPIRATION"), 24*time.Hour),
		Issuer:     v.GetString("JWT_ISSUER"),
	}

	cfg.CORS = CORSConfig{AllowedOrigins: splitAndTrim(v.GetString("ALLOWED_ORIGINS"))}

	cfg.Log = LogConfig{
		Level:  v.GetString("LOG_LEVEL"),
		Format: v.GetString("LOG_FORMAT"),
	}

	cfg.Catalog = CatalogConfig{
		CacheEnabled: v.GetBool("ENABLE_CATALOG_CACHE"),
		CacheTTL:     parseDuration(v.GetString("CATALOG_CACHE_TTL"), 5*time.Minute),
	}

	cfg.Mail = MailConfig{
		Provider:       strings.ToLower(v.GetString("MAIL_PROVIDER")),
		SendgridAPIKey: v.GetString("SENDGRID_API_KEY"),
		FromAddress:    v.GetString("MAIL_FROM_ADDRESS"),
		FromName:       v.GetString("MAIL_FROM_NAME"),
		AdminAddress:   v.GetString("MAIL_ADMIN_ADDRESS"),
	}

	cfg.Payments = PaymentsConfig{
		MidtransServerKey: v.GetString("MIDTRANS_SERVER_KEY"),
		Production:        v.GetBool("MIDTRANS_PRODUCTION"),
		FinishURL:         v.GetString("CHECKOUT_FINISH_URL"),
	}

	cfg.Notify = NotifyConfig{
		Workers: v.GetInt("NOTIFY_WORKERS"),
		Retries: v.GetInt("NOTIFY_RETRIES"),
	}

	cfg.Chat = ChatConfig{HistoryLimit: v.GetInt("CHAT_HISTORY_LIMIT")}

	cfg.RateLimit = RateLimitConfig{PublicPerMinute: v.GetInt("PUBLIC_RATE_LIMIT_PER_MINUTE")}

	cfg.Storage = StorageConfig{
		Dir:            v.GetString("STORAGE_DIR"),
		MaxUploadBytes: v.GetInt64("MATERIAL_MAX_BYTES"),
		SigningSecret:  v.GetString("DOWNLOAD_SIGNING_SECRET"),
		LinkTTL:        parseDuration(v.GetString("DOWNLOAD_LINK_TTL"), time.Hour),
	}
	if cfg.Storage.SigningSecret == "" {
		cfg.Storage.SigningSecret = cfg.JWT.Secret
	}

	cfg.Localization = LocalizationConfig{DefaultLocale: v.GetString("DEFAULT_LOCALE")}

	return cfg
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("ENV", EnvDevelopment)
	v.SetDefault("PORT", 8080)
	v.SetDefault("API_PREFIX", "/api/v1")

	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", 5432)
	v.SetDefault("DB_USER", "postgres")
	v.SetDefault("DB_PASSWORD", "postgres")
	v.SetDefault("DB_NAME", "kodkids_site")
	v.SetDefault("DB_SSL_MODE", "disable")
	v.SetDefault("DB_MAX_OPEN_CONNS", 10)
	v.SetDefault("DB_MAX_IDLE_CONNS", 5)

	v.SetDefault("REDIS_ENABLED", true)
	v.SetDefault("REDIS_HOST", "localhost")
	v.SetDefault("REDIS_PORT", 6379)
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)

	v.SetDefault("JWT_SECRET", "dev_secret")
	v.SetDefault("JWT_EXPIRATION", "24h")
	v.SetDefault("JWT_ISSUER", "kodkids-site")

	v.SetDefault("ALLOWED_ORIGINS", "")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")

	v.SetDefault("ENABLE_CATALOG_CACHE", true)
	v.SetDefault("CATALOG_CACHE_TTL", "5m")

	v.SetDefault("MAIL_PROVIDER", "console")
	v.SetDefault("SENDGRID_API_KEY", "")
	v.SetDefault("MAIL_FROM_ADDRESS", "no-reply@kodkids.local")
	v.SetDefault("MAIL_FROM_NAME", "KodKids")
	v.SetDefault("MAIL_ADMIN_ADDRESS", "office@kodkids.local")

	v.SetDefault("MIDTRANS_SERVER_KEY", "")
	v.SetDefault("MIDTRANS_PRODUCTION", false)
	v.SetDefault("CHECKOUT_FINISH_URL", "http://localhost:3000/checkout/finish")

	v.SetDefault("NOTIFY_WORKERS", 2)
	v.SetDefault("NOTIFY_RETRIES", 3)
	v.SetDefault("CHAT_HISTORY_LIMIT", 100)
	v.SetDefault("PUBLIC_RATE_LIMIT_PER_MINUTE", 20)
	v.SetDefault("DEFAULT_LOCALE", "en")

	v.SetDefault("STORAGE_DIR", "./storage")
	v.SetDefault("MATERIAL_MAX_BYTES", 10<<20)
	v.SetDefault("DOWNLOAD_SIGNING_SECRET", "")
	v.SetDefault("DOWNLOAD_LINK_TTL", "1h")
}

func parseDuration(raw string, fallback time.Duration) time.Duration {
	if raw == "" {
		return fallback
	}

	d, err := time.ParseDuration(raw)
	if err != nil {
		return fallback
	}

	return d
}

func splitAndTrim(raw string) []string {
	if raw == "" {
		return nil
	}

	parts := strings.Split(raw, ",")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}

	return result
}
