package config

import (
	"os"
	"strconv"
	"time"
)

type Config struct {
	// Server configuration
	Environment string
	PublicURL   string

	// Redis configuration
	RedisURL      string
	RedisPassword string
	RedisDB       int

	// Payment gateway configuration
	PaymentProvider     string
	StripeBaseURL       string
	StripeSecretKey     string
	StripeWebhookSecret string
	MockpaySubKey       string
	MockpayChannel      string
	MockpayUUID         string

	// PubNub configuration (realtime order status push)
	PubNubPublishKey   string
	PubNubSubscribeKey string
	PubNubSecretKey    string

	// Auth configuration
	AuthProviderURL string
	SessionTTL      time.Duration

	// Marketplace configuration
	CommissionRate string

	// Timeout configuration
	GatewayTimeout time.Duration
	ReservationTTL time.Duration
	SweepInterval  time.Duration

	// Rate limiting
	CheckoutRateLimit int

	// Monitoring
	EnableMetrics bool
	MetricsPort   string
}

func LoadConfig() *Config {
	return &Config{
		// Server
		Environment: getEnv("ENVIRONMENT", "development"),
		PublicURL:   getEnv("PUBLIC_URL", "http://localhost:8090"),

		// Redis
		RedisURL:      getEnv("REDIS_URL", "localhost:6379"),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisDB:       getEnvAsInt("REDIS_DB", 0),

		// Payment gateway
		PaymentProvider:     getEnv("PAYMENT_PROVIDER", "stripe"),
		StripeBaseURL:       getEnv("STRIPE_BASE_URL", "https://api.stripe.com"),
		StripeSecretKey:     getEnv("STRIPE_SECRET_KEY", ""),
		StripeWebhookSecret: getEnv("STRIPE_WEBHOOK_SECRET", ""),
		MockpaySubKey:       getEnv("MOCKPAY_SUBSCRIBE_KEY", ""),
		MockpayChannel:      getEnv("MOCKPAY_CHANNEL", "mockpay-payment-notifications"),
		MockpayUUID:         getEnv("MOCKPAY_UUID", "fanpass-server"),

		// PubNub
		PubNubPublishKey:   getEnv("PUBNUB_PUBLISH_KEY", ""),
		PubNubSubscribeKey: getEnv("PUBNUB_SUBSCRIBE_KEY", ""),
		PubNubSecretKey:    getEnv("PUBNUB_SECRET_KEY", ""),

		// Auth
		AuthProviderURL: getEnv("AUTH_PROVIDER_URL", "https://demobackend.emergentagent.com/auth/v1/env/oauth/session-data"),
		SessionTTL:      getEnvAsDuration("SESSION_TTL", "168h"),

		// Marketplace
		CommissionRate: getEnv("COMMISSION_RATE", "0.10"),

		// Timeouts
		GatewayTimeout: getEnvAsDuration("GATEWAY_TIMEOUT", "15s"),
		ReservationTTL: getEnvAsDuration("RESERVATION_TTL", "30m"),
		SweepInterval:  getEnvAsDuration("SWEEP_INTERVAL", "5m"),

		// Rate limiting
		CheckoutRateLimit: getEnvAsInt("CHECKOUT_RATE_LIMIT", 10),

		// Monitoring
		EnableMetrics: getEnvAsBool("ENABLE_METRICS", true),
		MetricsPort:   getEnv("METRICS_PORT", "9090"),
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseBool(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue string) time.Duration {
	valueStr := getEnv(key, defaultValue)
	if duration, err := time.ParseDuration(valueStr); err == nil {
		return duration
	}
	// If parsing fails, fall back to the default value
	duration, _ := time.ParseDuration(defaultValue)
	return duration
}
