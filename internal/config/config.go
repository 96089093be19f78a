package config

import (
	"log"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	StoreMongo    = "mongo"
	StorePostgres = "postgres"

	PaymentProviderStripe   = "stripe"
	PaymentProviderRazorpay = "razorpay"
)

type Config struct {
	Server    ServerConfig
	Store     string
	Mongo     MongoConfig
	Database  DatabaseConfig
	Redis     RedisConfig
	RateLimit RateLimitConfig
	JWT       JWTConfig
	Payment   PaymentConfig
	SMTP      SMTPConfig
	Temporal  TemporalConfig
	Google    GoogleConfig
}

type ServerConfig struct {
	Port           string
	Env            string
	LogLevel       string
	FrontendURL    string
	AllowedOrigins []string
}

// IsDevelopment reports whether the server runs outside production
func (s ServerConfig) IsDevelopment() bool {
	return s.Env != "production"
}

type MongoConfig struct {
	URI      string
	Database string
}

type DatabaseConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	Database string
	Schema   string
}

type RedisConfig struct {
	Host            string
	Port            string
	Password        string
	DB              int
	ProductCacheTTL time.Duration
}

// Enabled reports whether a Redis host is configured
func (r RedisConfig) Enabled() bool {
	return r.Host != ""
}

type RateLimitConfig struct {
	Requests int
	Window   time.Duration
}

type JWTConfig struct {
	Secret        string
	AccessExpiry  int // in minutes
	RefreshExpiry int // in days
}

type PaymentConfig struct {
	Provider          string
	Currency          string
	StripeSecretKey   string
	RazorpayKeyID     string
	RazorpayKeySecret string
}

type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
}

type TemporalConfig struct {
	HostPort  string
	Namespace string
	TaskQueue string
}

type GoogleConfig struct {
	ClientID     string
	ClientSecret string
	RedirectURL  string
}

func Load() *Config {
	// .env values are exported first so that both viper and libraries reading os env see them
	if err := godotenv.Load(); err != nil {
		log.Printf("Warning: Could not load .env file: %v", err)
	}

	viper.SetConfigName(".env")
	viper.SetConfigType("env")
	viper.AddConfigPath(".")
	viper.AutomaticEnv()

	// Set defaults
	viper.SetDefault("SERVER_PORT", "5000")
	viper.SetDefault("SERVER_ENV", "development")
	viper.SetDefault("FRONTEND_URL", "http://localhost:3000")
	viper.SetDefault("CORS_ALLOWED_ORIGINS", "http://localhost:3000")
	viper.SetDefault("STORE_DRIVER", StoreMongo)
	viper.SetDefault("MONGO_URI", "mongodb://localhost:27017")
	viper.SetDefault("MONGO_DATABASE", "shoppy")
	viper.SetDefault("DB_HOST", "localhost")
	viper.SetDefault("DB_PORT", "5432")
	viper.SetDefault("DB_SCHEMA", "public")
	viper.SetDefault("REDIS_PORT", "6379")
	viper.SetDefault("REDIS_DB", 0)
	viper.SetDefault("PRODUCT_CACHE_TTL", "5m")
	viper.SetDefault("RATE_LIMIT_REQUESTS", 20)
	viper.SetDefault("RATE_LIMIT_WINDOW", "1m")
	viper.SetDefault("JWT_ACCESS_EXPIRY", 15)
	viper.SetDefault("JWT_REFRESH_EXPIRY", 7)
	viper.SetDefault("PAYMENT_PROVIDER", PaymentProviderStripe)
	viper.SetDefault("PAYMENT_CURRENCY", "inr")
	viper.SetDefault("SMTP_PORT", 587)
	viper.SetDefault("TEMPORAL_NAMESPACE", "default")
	viper.SetDefault("TEMPORAL_TASK_QUEUE", "notification-queue")
	viper.SetDefault("GOOGLE_REDIRECT_URL", "http://localhost:5000/auth/google/callback")

	if err := viper.ReadInConfig(); err != nil {
		log.Printf("Warning: Could not read config file: %v", err)
	}

	return &Config{
		Server: ServerConfig{
			Port:           viper.GetString("SERVER_PORT"),
			Env:            viper.GetString("SERVER_ENV"),
			LogLevel:       viper.GetString("LOG_LEVEL"),
			FrontendURL:    strings.TrimRight(viper.GetString("FRONTEND_URL"), "/"),
			AllowedOrigins: splitList(viper.GetString("CORS_ALLOWED_ORIGINS")),
		},
		Store: strings.ToLower(viper.GetString("STORE_DRIVER")),
		Mongo: MongoConfig{
			URI:      viper.GetString("MONGO_URI"),
			Database: viper.GetString("MONGO_DATABASE"),
		},
		Database: DatabaseConfig{
			Host:     viper.GetString("DB_HOST"),
			Port:     viper.GetString("DB_PORT"),
			User:     viper.GetString("DB_USER"),
			Password: viper.GetString("DB_PASSWORD"),
			Database: viper.GetString("DB_DATABASE"),
			Schema:   viper.GetString("DB_SCHEMA"),
		},
		Redis: RedisConfig{
			Host:            viper.GetString("REDIS_HOST"),
			Port:            viper.GetString("REDIS_PORT"),
			Password:        viper.GetString("REDIS_PASSWORD"),
			DB:              viper.GetInt("REDIS_DB"),
			ProductCacheTTL: viper.GetDuration("PRODUCT_CACHE_TTL"),
		},
		RateLimit: RateLimitConfig{
			Requests: viper.GetInt("RATE_LIMIT_REQUESTS"),
			Window:   viper.GetDuration("RATE_LIMIT_WINDOW"),
		},
		JWT: JWTConfig{
			Secret:        viper.GetString("JWT_SECRET"),
			AccessExpiry:  viper.GetInt("JWT_ACCESS_EXPIRY"),
			RefreshExpiry: viper.GetInt("JWT_REFRESH_EXPIRY"),
		},
		Payment: PaymentConfig{
			Provider:          strings.ToLower(viper.GetString("PAYMENT_PROVIDER")),
			Currency:          strings.ToLower(viper.GetString("PAYMENT_CURRENCY")),
			StripeSecretKey:   viper.GetString("STRIPE_SECRET_KEY"),
			RazorpayKeyID:     viper.GetString("RAZORPAY_KEY_ID"),
			RazorpayKeySecret: viper.GetString("RAZORPAY_KEY_SECRET"),
		},
		SMTP: SMTPConfig{
			Host:     viper.GetString("SMTP_HOST"),
			Port:     viper.GetInt("SMTP_PORT"),
			Username: viper.GetString("SMTP_USERNAME"),
			Password: viper.GetString("SMTP_PASSWORD"),
			From:     viper.GetString("SMTP_FROM"),
		},
		Temporal: TemporalConfig{
			HostPort:  viper.GetString("TEMPORAL_HOST"),
			Namespace: viper.GetString("TEMPORAL_NAMESPACE"),
			TaskQueue: viper.GetString("TEMPORAL_TASK_QUEUE"),
		},
		Google: GoogleConfig{
			ClientID:     viper.GetString("GOOGLE_CLIENT_ID"),
			ClientSecret: viper.GetString("GOOGLE_CLIENT_SECRET"),
			RedirectURL:  viper.GetString("GOOGLE_REDIRECT_URL"),
		},
	}
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
