package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
	_ "time/tzdata" // zone database for images without one

	"github.com/joho/godotenv"

	"salonbook-backend/utils"
)

type Config struct {
	Server    ServerConfig
	Database  DatabaseConfig
	Logging   LoggingConfig
	Booking   BookingConfig
	Kafka     KafkaConfig
	Redis     RedisConfig
	RateLimit RateLimitConfig
	Twilio    TwilioConfig
	Telemetry TelemetryConfig
}

type ServerConfig struct {
	Port            string
	GinMode         string
	CORSOrigins     []string
	ShutdownTimeout time.Duration
}

// DatabaseConfig.URL empty means the in-memory store.
type DatabaseConfig struct {
	URL string
}

type LoggingConfig struct {
	Level string
}

type BookingConfig struct {
	Timezone    *time.Location
	Open        string
	Close       string
	SlotStep    time.Duration
	ClosedDay   time.Weekday
	SeedCatalog bool
}

type KafkaConfig struct {
	Brokers     []string
	TopicPrefix string
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

type RateLimitConfig struct {
	Limit    int
	Window   time.Duration
	FailOpen bool
}

type TwilioConfig struct {
	AccountSID   string
	AuthToken    string
	PhoneNumber  string
	ReminderCron string
}

func (t TwilioConfig) Enabled() bool {
	return t.AccountSID != "" && t.AuthToken != "" && t.PhoneNumber != ""
}

type TelemetryConfig struct {
	Enabled      bool
	ServiceName  string
	OTLPEndpoint string
	SampleRatio  float64
}

// Load reads .env when present, then the process environment.
func Load() (*Config, error) {
	_ = godotenv.Load()

	loc, err := time.LoadLocation(getEnv("SALON_TIMEZONE", "Local"))
	if err != nil {
		return nil, fmt.Errorf("SALON_TIMEZONE: %w", err)
	}
	closed, err := utils.ParseWeekday(getEnv("CLOSED_WEEKDAY", "sunday"))
	if err != nil {
		return nil, fmt.Errorf("CLOSED_WEEKDAY: %w", err)
	}
	ratio := getEnvAsFloat("OTEL_SAMPLING_RATIO", 1)
	if ratio < 0 || ratio > 1 {
		return nil, fmt.Errorf("OTEL_SAMPLING_RATIO must be within [0, 1], got %v", ratio)
	}
	origins := getEnvAsList("CORS_ORIGINS", []string{"http://localhost:3000"})
	if err := CORSConfig(origins).Validate(); err != nil {
		return nil, fmt.Errorf("CORS_ORIGINS: %w", err)
	}
	rateLimit := getEnvAsInt("BOOKING_RATE_LIMIT", 20)
	if rateLimit <= 0 {
		return nil, fmt.Errorf("BOOKING_RATE_LIMIT must be positive, got %d", rateLimit)
	}
	rateWindow := getEnvAsInt("BOOKING_RATE_WINDOW_SECONDS", 60)
	if rateWindow <= 0 {
		return nil, fmt.Errorf("BOOKING_RATE_WINDOW_SECONDS must be positive, got %d", rateWindow)
	}

	cfg := &Config{
		Server: ServerConfig{
			Port:            getEnv("PORT", "8080"),
			GinMode:         getEnv("GIN_MODE", "release"),
			CORSOrigins:     origins,
			ShutdownTimeout: time.Duration(getEnvAsInt("SERVER_SHUTDOWN_TIMEOUT", 15)) * time.Second,
		},
		Database: DatabaseConfig{
			URL: getEnv("DB_URL", ""),
		},
		Logging: LoggingConfig{
			Level: getEnv("LOG_LEVEL", "info"),
		},
		Booking: BookingConfig{
			Timezone:    loc,
			Open:        getEnv("BOOKING_OPEN", "09:00"),
			Close:       getEnv("BOOKING_CLOSE", "18:00"),
			SlotStep:    time.Duration(getEnvAsInt("SLOT_MINUTES", 30)) * time.Minute,
			ClosedDay:   closed,
			SeedCatalog: getEnvAsBool("SEED_CATALOG", true),
		},
		Kafka: KafkaConfig{
			Brokers:     getEnvAsList("KAFKA_BROKERS", nil),
			TopicPrefix: getEnv("KAFKA_TOPIC_PREFIX", "salon"),
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", ""),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvAsInt("REDIS_DB", 0),
		},
		RateLimit: RateLimitConfig{
			Limit:    rateLimit,
			Window:   time.Duration(rateWindow) * time.Second,
			FailOpen: getEnvAsBool("BOOKING_RATE_FAIL_OPEN", true),
		},
		Twilio: TwilioConfig{
			AccountSID:   getEnv("TWILIO_ACCOUNT_SID", ""),
			AuthToken:    getEnv("TWILIO_AUTH_TOKEN", ""),
			PhoneNumber:  getEnv("TWILIO_PHONE_NUMBER", ""),
			ReminderCron: getEnv("REMINDER_CRON", "0 9 * * *"),
		},
		Telemetry: TelemetryConfig{
			Enabled:      getEnvAsBool("OTEL_ENABLED", false),
			ServiceName:  getEnv("OTEL_SERVICE_NAME", "salonbook-backend"),
			OTLPEndpoint: getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", "localhost:4317"),
			SampleRatio:  ratio,
		},
	}
	return cfg, nil
}

func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists && strings.TrimSpace(value) != "" {
		return strings.TrimSpace(value)
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value, exists := os.LookupEnv(key); exists {
		if intValue, err := strconv.Atoi(strings.TrimSpace(value)); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	if value, exists := os.LookupEnv(key); exists {
		if f, err := strconv.ParseFloat(strings.TrimSpace(value), 64); err == nil {
			return f
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value, exists := os.LookupEnv(key); exists {
		if boolValue, err := strconv.ParseBool(strings.TrimSpace(value)); err == nil {
			return boolValue
		}
	}
	return defaultValue
}

func getEnvAsList(key string, defaultValue []string) []string {
	value, exists := os.LookupEnv(key)
	if !exists {
		return defaultValue
	}
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	if len(out) == 0 {
		return defaultValue
	}
	return out
}
