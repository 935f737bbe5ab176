package config

import (
	"log"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
)

type Config struct {
	DBHost     string
	DBUser     string
	DBPassword string
	DBName     string
	DBPort     string
	AppPort    string
	AppEnv     string
	JWTSecret  string
	CORSOrigin string

	// Flat fee added to every order total.
	DeliveryFee decimal.Decimal

	// Notification dispatch. Empty brokers means notifications are only logged.
	KafkaBrokers           []string
	KafkaNotificationTopic string

	// Cross-instance broadcast relay. Empty URL keeps the hub process-local.
	RedisURL   string
	HubChannel string
}

func LoadConfig() *Config {
	_ = godotenv.Load()

	cfg := &Config{
		DBHost:                 os.Getenv("DB_HOST"),
		DBUser:                 os.Getenv("DB_USER"),
		DBPassword:             os.Getenv("DB_PASSWORD"),
		DBName:                 os.Getenv("DB_NAME"),
		DBPort:                 os.Getenv("DB_PORT"),
		AppPort:                getEnv("APP_PORT", "8080"),
		AppEnv:                 os.Getenv("APP_ENV"),
		JWTSecret:              os.Getenv("JWT_SECRET"),
		CORSOrigin:             getEnv("CORS_ORIGIN", "http://localhost:3000"),
		DeliveryFee:            parseDecimal(os.Getenv("DELIVERY_FEE")),
		KafkaBrokers:           splitList(os.Getenv("KAFKA_BROKERS")),
		KafkaNotificationTopic: getEnv("KAFKA_NOTIFICATION_TOPIC", "notifications"),
		RedisURL:               os.Getenv("REDIS_URL"),
		HubChannel:             getEnv("HUB_CHANNEL", "dms:broadcast"),
	}

	if cfg.DBHost == "" {
		log.Fatal("Environment variables not loaded properly")
	}

	return cfg
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func splitList(raw string) []string {
	if strings.TrimSpace(raw) == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func parseDecimal(raw string) decimal.Decimal {
	if raw == "" {
		return decimal.Zero
	}
	d, err := decimal.NewFromString(raw)
	if err != nil {
		log.Printf("invalid DELIVERY_FEE %q, using 0", raw)
		return decimal.Zero
	}
	return d
}
