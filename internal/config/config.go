package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the application.
type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Redis    RedisConfig
	NewRelic NewRelicConfig
	Log      LogConfig
	Wallet   WalletConfig
	Parking  ParkingConfig
	TopUp    TopUpConfig
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Port         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// DatabaseConfig holds PostgreSQL configuration.
type DatabaseConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
	SSLMode  string
}

// RedisConfig holds Redis configuration.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// NewRelicConfig holds New Relic configuration.
type NewRelicConfig struct {
	AppName    string
	LicenseKey string
	Enabled    bool
}

// LogConfig holds logger configuration.
type LogConfig struct {
	Level  string
	Format string // "json" or "text"
}

// WalletConfig holds the remote wallet service configuration.
type WalletConfig struct {
	BaseURL       string
	Timeout       time.Duration
	UserID        int
	PaymentMethod string
}

// ParkingConfig holds session and fare configuration.
type ParkingConfig struct {
	RatePerMinute  float64
	DefaultMinutes int
	AddTimeMinutes int
	TickPeriod     time.Duration
}

// TopUpConfig holds credit purchase configuration.
type TopUpConfig struct {
	CardApprovalRate float64
	CardDelay        time.Duration
	PixDelay         time.Duration
	QuickAmounts     []float64
}

// Load loads configuration from environment variables.
// Values from envFile (if non-empty and present) are loaded first and never
// override variables already set in the environment.
func Load(envFile string) *Config {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !os.IsNotExist(err) {
			log.Printf("failed to load env file %s: %v", envFile, err)
		}
	}

	return &Config{
		Server: ServerConfig{
			Port:         getEnv("SERVER_PORT", "8080"),
			ReadTimeout:  getDurationEnv("SERVER_READ_TIMEOUT", 10*time.Second),
			WriteTimeout: getDurationEnv("SERVER_WRITE_TIMEOUT", 10*time.Second),
		},
		Database: DatabaseConfig{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnv("DB_PORT", "5432"),
			User:     getEnv("DB_USER", "postgres"),
			Password: getEnv("DB_PASSWORD", "postgres"),
			DBName:   getEnv("DB_NAME", "campus_parking"),
			SSLMode:  getEnv("DB_SSLMODE", "disable"),
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", "localhost:6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getIntEnv("REDIS_DB", 0),
		},
		NewRelic: NewRelicConfig{
			AppName:    getEnv("NEW_RELIC_APP_NAME", "campus-parking"),
			LicenseKey: getEnv("NEW_RELIC_LICENSE_KEY", ""),
			Enabled:    getBoolEnv("NEW_RELIC_ENABLED", false),
		},
		Log: LogConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Format: getEnv("LOG_FORMAT", "text"),
		},
		Wallet: WalletConfig{
			BaseURL:       getEnv("WALLET_BASE_URL", "http://localhost:3000"),
			Timeout:       getDurationEnv("WALLET_TIMEOUT", 10*time.Second),
			UserID:        getIntEnv("WALLET_USER_ID", 1),
			PaymentMethod: getEnv("WALLET_PAYMENT_METHOD", "balance"),
		},
		Parking: ParkingConfig{
			RatePerMinute:  getFloatEnv("PARKING_RATE_PER_MINUTE", 0.10),
			DefaultMinutes: getIntEnv("PARKING_DEFAULT_MINUTES", 30),
			AddTimeMinutes: getIntEnv("PARKING_ADD_TIME_MINUTES", 10),
			TickPeriod:     getDurationEnv("PARKING_TICK_PERIOD", time.Second),
		},
		TopUp: TopUpConfig{
			CardApprovalRate: getFloatEnv("TOPUP_CARD_APPROVAL_RATE", 0.9),
			CardDelay:        getDurationEnv("TOPUP_CARD_DELAY", 1500*time.Millisecond),
			PixDelay:         getDurationEnv("TOPUP_PIX_DELAY", time.Second),
			QuickAmounts:     getFloatListEnv("TOPUP_QUICK_AMOUNTS", []float64{5, 10, 20, 50}),
		},
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getIntEnv(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getFloatEnv(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatVal, err := strconv.ParseFloat(value, 64); err == nil {
			return floatVal
		}
	}
	return defaultValue
}

func getFloatListEnv(key string, defaultValue []float64) []float64 {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	var result []float64
	for _, part := range strings.Split(value, ",") {
		f, err := strconv.ParseFloat(strings.TrimSpace(part), 64)
		if err != nil {
			return defaultValue
		}
		result = append(result, f)
	}
	return result
}

func getBoolEnv(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultValue
}

func getDurationEnv(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}
