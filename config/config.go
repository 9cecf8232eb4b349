package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"
	_ "time/tzdata"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the application
type Config struct {
	Environment string
	Port        string
	DBUrl       string
	RedisURL    string

	TelegramToken  string
	HandlerTimeout time.Duration
	SessionTTL     time.Duration

	YooKassa YooKassaConfig
	Donation DonationConfig

	JWTSecret         string
	DashboardTokenTTL time.Duration
	DashboardURL      string
	// AllowedOrigins are the browser origins allowed to call the HTTP API.
	AllowedOrigins []string

	// Location is used to print talk times in chat.
	Location *time.Location

	Email EmailConfig
}

// YooKassaConfig holds the payment provider credentials.
type YooKassaConfig struct {
	ShopID    string
	SecretKey string
	ReturnURL string
	APIURL    string
}

// DonationConfig holds donation limits.
type DonationConfig struct {
	// MinAmount is expressed in minor currency units (kopecks for RUB).
	MinAmount int64
	Currency  string
}

// EmailConfig holds the organizer mailbox and mail transport settings.
type EmailConfig struct {
	Provider        string
	FromAddress     string
	FromName        string
	OrganizerEmail  string
	AWSRegion       string
	AWSAccessKeyID  string
	AWSSecretKey    string
	InsecureSkipTLS bool
}

// Load loads configuration from environment variables
// It attempts to load from .env file if not in production
func Load() (*Config, error) {
	env := os.Getenv("GO_ENV")
	if env == "" {
		env = "development"
	}

	// In production there is usually no .env file and we rely on system environment variables.
	if env != "production" {
		if err := godotenv.Load(); err != nil {
			log.Printf("Warning: .env file not found or couldn't be loaded: %v", err)
		}
	}

	cfg := &Config{
		Environment:   env,
		Port:          getenv("PORT", "8080"),
		DBUrl:         os.Getenv("DATABASE_URL"),
		RedisURL:      os.Getenv("REDIS_URL"),
		TelegramToken: os.Getenv("TELEGRAM_BOT_TOKEN"),
		YooKassa: YooKassaConfig{
			ShopID:    os.Getenv("YOOKASSA_SHOP_ID"),
			SecretKey: os.Getenv("YOOKASSA_SECRET_KEY"),
			ReturnURL: getenv("YOOKASSA_RETURN_URL", "https://t.me"),
			APIURL:    getenv("YOOKASSA_API_URL", "https://api.yookassa.ru/v3"),
		},
		Donation: DonationConfig{
			MinAmount: getInt64("DONATION_MIN_AMOUNT", 1000),
			Currency:  getenv("DONATION_CURRENCY", "RUB"),
		},
		JWTSecret: os.Getenv("JWT_SECRET"),
		Email: EmailConfig{
			Provider:        getenv("EMAIL_PROVIDER", "noop"),
			FromAddress:     os.Getenv("EMAIL_FROM_ADDRESS"),
			FromName:        os.Getenv("EMAIL_FROM_NAME"),
			OrganizerEmail:  os.Getenv("ORGANIZER_EMAIL"),
			AWSRegion:       getenv("AWS_REGION", "eu-central-1"),
			AWSAccessKeyID:  os.Getenv("AWS_ACCESS_KEY_ID"),
			AWSSecretKey:    os.Getenv("AWS_SECRET_ACCESS_KEY"),
			InsecureSkipTLS: os.Getenv("EMAIL_INSECURE_SKIP_VERIFY") == "true",
		},
		HandlerTimeout:    getDuration("HANDLER_TIMEOUT", 15*time.Second),
		SessionTTL:        getDuration("SESSION_TTL", 24*time.Hour),
		DashboardTokenTTL: getDuration("DASHBOARD_TOKEN_TTL", 12*time.Hour),
		DashboardURL:      os.Getenv("DASHBOARD_URL"),
		AllowedOrigins:    getList("CORS_ALLOWED_ORIGINS"),
	}

	loc, err := time.LoadLocation(getenv("TIMEZONE", "UTC"))
	if err != nil {
		return nil, fmt.Errorf("invalid TIMEZONE: %w", err)
	}
	cfg.Location = loc

	if cfg.JWTSecret == "" && env != "production" {
		cfg.JWTSecret = "dev-secret-change-me"
	}

	return cfg, nil
}

// PaymentsEnabled reports whether both YooKassa credentials are set.
func (c *Config) PaymentsEnabled() bool {
	return c.YooKassa.ShopID != "" && c.YooKassa.SecretKey != ""
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getList(key string) []string {
	var out []string
	for _, v := range strings.Split(os.Getenv(key), ",") {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}

func getInt64(key string, fallback int64) int64 {
	s := os.Getenv(key)
	if s == "" {
		return fallback
	}
	v, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		log.Printf("Warning: invalid %s=%q, using %d", key, s, fallback)
		return fallback
	}
	return v
}

func getDuration(key string, fallback time.Duration) time.Duration {
	s := os.Getenv(key)
	if s == "" {
		return fallback
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		log.Printf("Warning: invalid %s=%q, using %s", key, s, fallback)
		return fallback
	}
	return d
}
