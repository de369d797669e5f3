package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config carries every runtime setting. It is loaded once in main and
// passed down explicitly; nothing reads the environment after startup.
type Config struct {
	Addr        string
	DatabaseURL string

	JWTSecret string
	JWTTTL    time.Duration

	// ServiceFeePercent is the platform commission added on top of the
	// DJ's rate at payment time (10 means 10%).
	ServiceFeePercent float64

	PaymentAPIBase       string
	PaymentAPIKey        string
	PaymentWebhookSecret string

	StreamingAPIBase string
	StreamingAPIKey  string

	RateLimitRequests int
	RateLimitWindow   time.Duration

	CORSAllowedOrigins string
}

func Load() (*Config, error) {
	cfg := &Config{
		Addr:        envOrDefault("ADDR", ":8080"),
		DatabaseURL: os.Getenv("DATABASE_URL"),

		JWTSecret: os.Getenv("JWT_SECRET"),

		PaymentAPIBase:       envOrDefault("PAYMENT_API_BASE", "https://api.stripe.com"),
		PaymentAPIKey:        os.Getenv("PAYMENT_API_KEY"),
		PaymentWebhookSecret: os.Getenv("PAYMENT_WEBHOOK_SECRET"),

		StreamingAPIBase: envOrDefault("STREAMING_API_BASE", "https://api.live.example.com"),
		StreamingAPIKey:  os.Getenv("STREAMING_API_KEY"),

		CORSAllowedOrigins: os.Getenv("CORS_ALLOWED_ORIGINS"),
	}

	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is empty")
	}
	if cfg.JWTSecret == "" {
		return nil, fmt.Errorf("JWT_SECRET is empty")
	}

	var err error
	if cfg.JWTTTL, err = durationEnv("JWT_TTL", 24*time.Hour); err != nil {
		return nil, err
	}
	if cfg.ServiceFeePercent, err = floatEnv("SERVICE_FEE_PERCENT", 10); err != nil {
		return nil, err
	}
	if cfg.ServiceFeePercent < 0 || cfg.ServiceFeePercent > 100 {
		return nil, fmt.Errorf("SERVICE_FEE_PERCENT out of range: %v", cfg.ServiceFeePercent)
	}
	if cfg.RateLimitRequests, err = intEnv("RATE_LIMIT_REQUESTS", 60); err != nil {
		return nil, err
	}
	if cfg.RateLimitWindow, err = durationEnv("RATE_LIMIT_WINDOW", time.Minute); err != nil {
		return nil, err
	}

	return cfg, nil
}

func envOrDefault(name, def string) string {
	if v := os.Getenv(name); v != "" {
		return v
	}
	return def
}

func durationEnv(name string, def time.Duration) (time.Duration, error) {
	v := os.Getenv(name)
	if v == "" {
		return def, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", name, err)
	}
	return d, nil
}

func floatEnv(name string, def float64) (float64, error) {
	v := os.Getenv(name)
	if v == "" {
		return def, nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", name, err)
	}
	return f, nil
}

func intEnv(name string, def int) (int, error) {
	v := os.Getenv(name)
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", name, err)
	}
	return n, nil
}
