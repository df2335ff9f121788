package config

import (
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Config holds application configuration.
type Config struct {
	AppName          string
	AppVersion       string
	Environment      string
	HTTPAddr         string
	AuthCookieSecure bool

	OTLPEndpoint string

	DBType            string
	DBHost            string
	DBPort            string
	DBName            string
	DBUser            string
	DBPassword        string
	DBSSLMode         string
	DBMaxIdleConn     int
	DBMaxOpenConn     int
	DBConnMaxLifetime int
	DBConnMaxIdleTime int

	Email     EmailConfig
	RateLimit RateLimitConfig

	Bootstrap BootstrapConfig
}

type EmailConfig struct {
	Enabled      bool
	SMTPHost     string
	SMTPPort     int
	SMTPUsername string
	SMTPPassword string
	SMTPFrom     string
}

type RateLimitConfig struct {
	Enabled       bool
	RedisAddr     string
	RedisPassword string
	RedisDB       int

	ReadingIngestUserRate       float64
	ReadingIngestUserBurst      int
	ReadingIngestHouseholdRate  float64
	ReadingIngestHouseholdBurst int
}

type BootstrapConfig struct {
	EnsureDefaultAdmin bool
	SeedDemoHousehold  bool
}

// Load loads configuration from environment variables and .env file.
func Load() Config {
	_ = godotenv.Load()

	environment := getenv("ENVIRONMENT", "development")
	authCookieSecure := environment == "production"
	if !authCookieSecure {
		authCookieSecure = getenvBool("AUTH_COOKIE_SECURE", false)
	}

	return Config{
		AppName:          getenv("APP_SERVICE", "homewatt"),
		AppVersion:       getenv("APP_VERSION", "0.1.0"),
		Environment:      environment,
		HTTPAddr:         getenv("HTTP_ADDR", ":8080"),
		AuthCookieSecure: authCookieSecure,
		OTLPEndpoint:     getenv("OTLP_ENDPOINT", "localhost:4317"),

		DBType:            getenv("DATABASE_TYPE", "postgres"),
		DBHost:            getenv("DATABASE_HOST", "localhost"),
		DBPort:            getenv("DATABASE_PORT", "5432"),
		DBName:            getenv("DATABASE_NAME", "homewatt"),
		DBUser:            getenv("DATABASE_USER", "postgres"),
		DBPassword:        getenv("DATABASE_PASSWORD", "postgres"),
		DBSSLMode:         getenv("DATABASE_SSLMODE", "disable"),
		DBMaxIdleConn:     getenvInt("DATABASE_MAX_IDLE_CONN", 5),
		DBMaxOpenConn:     getenvInt("DATABASE_MAX_OPEN_CONN", 25),
		DBConnMaxLifetime: getenvInt("DATABASE_CONN_MAX_LIFETIME", 3600),
		DBConnMaxIdleTime: getenvInt("DATABASE_CONN_MAX_IDLE_TIME", 600),

		Email: EmailConfig{
			Enabled:      getenvBool("SMTP_ENABLED", false),
			SMTPHost:     getenv("SMTP_HOST", "localhost"),
			SMTPPort:     getenvInt("SMTP_PORT", 587),
			SMTPUsername: getenv("SMTP_USERNAME", ""),
			SMTPPassword: getenv("SMTP_PASSWORD", ""),
			SMTPFrom:     getenv("SMTP_FROM", "alerts@homewatt.local"),
		},
		RateLimit: RateLimitConfig{
			Enabled:                     getenvBool("RATE_LIMIT_ENABLED", false),
			RedisAddr:                   getenv("RATE_LIMIT_REDIS_ADDR", ""),
			RedisPassword:               getenv("RATE_LIMIT_REDIS_PASSWORD", ""),
			RedisDB:                     getenvInt("RATE_LIMIT_REDIS_DB", 0),
			ReadingIngestUserRate:       getenvFloat("RATE_LIMIT_READING_USER_RATE", 5),
			ReadingIngestUserBurst:      getenvInt("RATE_LIMIT_READING_USER_BURST", 10),
			ReadingIngestHouseholdRate:  getenvFloat("RATE_LIMIT_READING_HOUSEHOLD_RATE", 20),
			ReadingIngestHouseholdBurst: getenvInt("RATE_LIMIT_READING_HOUSEHOLD_BURST", 40),
		},
		Bootstrap: BootstrapConfig{
			EnsureDefaultAdmin: getenvBool("BOOTSTRAP_DEFAULT_ADMIN", true),
			SeedDemoHousehold:  getenvBool("BOOTSTRAP_SEED_DEMO", false),
		},
	}
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getenvBool(key string, def bool) bool {
	value := strings.ToLower(strings.TrimSpace(os.Getenv(key)))
	if value == "" {
		return def
	}
	switch value {
	case "1", "true", "yes", "y", "on":
		return true
	case "0", "false", "no", "n", "off":
		return false
	default:
		return def
	}
}

func getenvInt(key string, def int) int {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return def
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return def
	}
	return parsed
}

func getenvFloat(key string, def float64) float64 {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return def
	}
	parsed, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return def
	}
	return parsed
}
