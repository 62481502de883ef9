package config

import (
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Server     ServerConfig
	Database   DatabaseConfig
	JWT        JWTConfig
	OAuth      OAuthConfig
	Cloudinary CloudinaryConfig
	PayOS      PayOSConfig
	GHN        GHNConfig
	Checkout   CheckoutConfig
}

type ServerConfig struct {
	Port         string
	Env          string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

type DatabaseConfig struct {
	DSN             string
	MaxIdleConns    int
	MaxOpenConns    int
	ConnMaxLifetime time.Duration
}

type JWTConfig struct {
	AccessSecret  string
	RefreshSecret string
	AccessExpiry  time.Duration
	RefreshExpiry time.Duration
	Issuer        string
}

type OAuthConfig struct {
	GoogleClientID     string
	GoogleClientSecret string
	GoogleRedirectURL  string
}

type CloudinaryConfig struct {
	CloudName string
	APIKey    string
	APISecret string
}

// PayOSConfig holds the gateway credentials. ChecksumKey signs outbound
// requests and verifies inbound webhooks; with no ClientID set the server
// falls back to the stub provider.
type PayOSConfig struct {
	BaseURL     string
	ClientID    string
	APIKey      string
	ChecksumKey string
}

// GHNConfig for the shipping-fee quote service. With no token the server
// quotes a flat development fee.
type GHNConfig struct {
	BaseURL string
	Token   string
	ShopID  int
	FlatFee int64
}

type CheckoutConfig struct {
	ReturnURL string
	CancelURL string
	// DevUserID substitutes for an authenticated user in development when
	// no bearer token is supplied; 0 disables the override.
	DevUserID uint
	// CallTimeout bounds each external call (gateway, shipping quote) so a
	// hung provider cannot hang a checkout.
	CallTimeout time.Duration
}

func Load() *Config {
	// .env is optional; real deployments set the environment directly.
	_ = godotenv.Load()

	cfg := &Config{
		Server: ServerConfig{
			Port:         envStr("PORT", "8080"),
			Env:          envStr("APP_ENV", "development"),
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 15 * time.Second,
		},
		Database: DatabaseConfig{
			DSN:             envStr("DB_DSN", "shoprent:shoprent@tcp(localhost:3306)/shoprent?charset=utf8mb4&parseTime=True&loc=Local"),
			MaxIdleConns:    10,
			MaxOpenConns:    100,
			ConnMaxLifetime: time.Hour,
		},
		JWT: JWTConfig{
			AccessSecret:  envStr("JWT_ACCESS_SECRET", "change-me-in-production"),
			RefreshSecret: envStr("JWT_REFRESH_SECRET", "change-me-refresh"),
			AccessExpiry:  15 * time.Minute,
			RefreshExpiry: 168 * time.Hour,
			Issuer:        "shoprent",
		},
		OAuth: OAuthConfig{
			GoogleClientID:     os.Getenv("GOOGLE_CLIENT_ID"),
			GoogleClientSecret: os.Getenv("GOOGLE_CLIENT_SECRET"),
			GoogleRedirectURL:  os.Getenv("GOOGLE_REDIRECT_URL"),
		},
		Cloudinary: CloudinaryConfig{
			CloudName: os.Getenv("CLOUDINARY_CLOUD_NAME"),
			APIKey:    os.Getenv("CLOUDINARY_API_KEY"),
			APISecret: os.Getenv("CLOUDINARY_API_SECRET"),
		},
		PayOS: PayOSConfig{
			BaseURL:     envStr("PAYOS_BASE_URL", "https://api-merchant.payos.vn"),
			ClientID:    os.Getenv("PAYOS_CLIENT_ID"),
			APIKey:      os.Getenv("PAYOS_API_KEY"),
			ChecksumKey: os.Getenv("PAYOS_CHECKSUM_KEY"),
		},
		GHN: GHNConfig{
			BaseURL: envStr("GHN_BASE_URL", "https://online-gateway.ghn.vn"),
			Token:   os.Getenv("GHN_TOKEN"),
			ShopID:  envInt("GHN_SHOP_ID", 0),
			FlatFee: 35000,
		},
		Checkout: CheckoutConfig{
			ReturnURL:   envStr("CHECKOUT_RETURN_URL", "http://localhost:3000/payment/return"),
			CancelURL:   envStr("CHECKOUT_CANCEL_URL", "http://localhost:3000/payment/cancel"),
			DevUserID:   uint(envInt("CHECKOUT_DEV_USER_ID", 0)),
			CallTimeout: 20 * time.Second,
		},
	}
	if cfg.Server.Env == "production" && cfg.Checkout.DevUserID != 0 {
		log.Printf("[Config] CHECKOUT_DEV_USER_ID ignored in production")
		cfg.Checkout.DevUserID = 0
	}
	return cfg
}

func envStr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func envInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}
