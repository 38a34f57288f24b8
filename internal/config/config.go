package config

import (
	"errors"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration for the application
type Config struct {
	Server       ServerConfig
	MongoDB      MongoDBConfig
	JWT          JWTConfig
	OTP          OTPConfig
	Razorpay     RazorpayConfig
	SMTP         SMTPConfig
	Storage      StorageConfig
	Redis        RedisConfig
	NATS         NATSConfig
	Tax          TaxConfig
	Subscription SubscriptionConfig
	Currency     string
	LogLevel     string
	LogFormat    string
}

// ServerConfig holds server-specific configuration
type ServerConfig struct {
	Port           string
	BaseURL        string
	Environment    string
	AllowedOrigins []string
	RequestTimeout time.Duration
}

// MongoDBConfig holds MongoDB-specific configuration
type MongoDBConfig struct {
	URI      string
	Database string
}

// JWTConfig holds JWT-specific configuration. ExpiresIn is in seconds.
type JWTConfig struct {
	Secret     string
	ExpiresIn  int
	CookieName string
}

// OTPConfig controls login passcodes
type OTPConfig struct {
	TTL         time.Duration
	MaxAttempts int
}

// RazorpayConfig holds payment gateway configuration
type RazorpayConfig struct {
	BaseURL       string
	KeyID         string
	KeySecret     string
	WebhookSecret string
	MockAPI       bool
}

// SMTPConfig holds outgoing mail configuration
type SMTPConfig struct {
	Host       string
	Port       int
	Username   string
	Password   string
	From       string
	SenderName string
	MockMailer bool
}

// StorageConfig holds object storage (MinIO/S3) configuration
type StorageConfig struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	UseSSL    bool
	URLExpiry time.Duration
}

// RedisConfig holds Redis configuration. An empty Addr disables rate limiting.
type RedisConfig struct {
	Addr       string
	Password   string
	DB         int
	RateLimit  int
	RateWindow time.Duration
}

// NATSConfig holds NATS configuration. An empty URL disables event publishing.
type NATSConfig struct {
	URL string
}

// TaxConfig holds the tax rate applied at order creation (0.18 = 18%)
type TaxConfig struct {
	Rate float64
}

// SubscriptionConfig lists the purchasable plans
type SubscriptionConfig struct {
	Plans []PlanConfig
}

// PlanConfig describes one subscription plan
type PlanConfig struct {
	Name         string
	Amount       float64
	DurationDays int
}

// IsProduction reports whether the server runs in production mode
func (c *Config) IsProduction() bool {
	return strings.EqualFold(c.Server.Environment, "production")
}

// Load loads configuration from environment variables and config files
func Load(paths ...string) (*Config, error) {
	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	if len(paths) == 0 {
		paths = []string{".", "./config"}
	}
	for _, p := range paths {
		v.AddConfigPath(p)
	}
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		// It's okay if config file is not found, we'll use environment variables
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, err
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}
	if origins := GetEnvAsSlice("SERVER_ALLOWEDORIGINS", ",", nil); origins != nil {
		cfg.Server.AllowedOrigins = origins
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	if c.JWT.Secret == "" {
		return errors.New("JWT secret is required (JWT_SECRET)")
	}
	if c.MongoDB.URI == "" {
		return errors.New("MongoDB URI is required (MONGODB_URI)")
	}
	if !c.Razorpay.MockAPI && (c.Razorpay.KeyID == "" || c.Razorpay.KeySecret == "") {
		return errors.New("razorpay key id and secret are required unless RAZORPAY_MOCKAPI is set")
	}
	if c.Tax.Rate < 0 {
		return errors.New("tax rate cannot be negative")
	}
	return nil
}

// setDefaults sets default values for configuration
func setDefaults(v *viper.Viper) {
	v.SetDefault("Server.Port", "4000")
	v.SetDefault("Server.BaseURL", "http://localhost:4000")
	v.SetDefault("Server.Environment", "development")
	v.SetDefault("Server.AllowedOrigins", []string{"http://localhost:3000"})
	v.SetDefault("Server.RequestTimeout", 30*time.Second)
	// Keys without a default are invisible to AutomaticEnv during Unmarshal.
	for _, key := range []string{
		"JWT.Secret",
		"Razorpay.KeyID", "Razorpay.KeySecret", "Razorpay.WebhookSecret",
		"SMTP.Host", "SMTP.Username", "SMTP.Password",
		"Storage.AccessKey", "Storage.SecretKey",
		"Redis.Addr", "Redis.Password",
		"NATS.URL",
	} {
		v.SetDefault(key, "")
	}
	v.SetDefault("Storage.UseSSL", false)
	v.SetDefault("Redis.DB", 0)
	v.SetDefault("MongoDB.URI", "mongodb://localhost:27017")
	v.SetDefault("MongoDB.Database", "printhub")
	v.SetDefault("JWT.ExpiresIn", 7*24*60*60) // 7 days
	v.SetDefault("JWT.CookieName", "token")
	v.SetDefault("OTP.TTL", 10*time.Minute)
	v.SetDefault("OTP.MaxAttempts", 5)
	v.SetDefault("Razorpay.BaseURL", "https://api.razorpay.com/v1")
	v.SetDefault("Razorpay.MockAPI", true)
	v.SetDefault("SMTP.Port", 587)
	v.SetDefault("SMTP.From", "no-reply@printhub.local")
	v.SetDefault("SMTP.SenderName", "PrintHub")
	v.SetDefault("SMTP.MockMailer", true)
	v.SetDefault("Storage.Endpoint", "localhost:9000")
	v.SetDefault("Storage.Bucket", "visiting-cards")
	v.SetDefault("Storage.URLExpiry", 15*time.Minute)
	v.SetDefault("Redis.RateLimit", 20)
	v.SetDefault("Redis.RateWindow", time.Minute)
	v.SetDefault("Tax.Rate", 0.18)
	v.SetDefault("Currency", "INR")
	v.SetDefault("Subscription.Plans", []map[string]interface{}{
		{"name": "annual", "amount": 4999.0, "durationDays": 365},
	})
	v.SetDefault("LogLevel", "info")
	v.SetDefault("LogFormat", "json")
}
