package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Session store backends.
const (
	SessionStoreRedis  = "redis"
	SessionStoreMemory = "memory"
)

// Config holds application level configuration loaded from environment variables.
type Config struct {
	ServerPort string

	MySQLDSN       string
	DBMaxOpenConns int
	ResetDB        bool

	RedisAddr string
	RedisDB   int
	RedisPass string

	SessionSecret    string
	SessionTTL       time.Duration
	SessionStore     string
	CookieSecure     bool
	TrustSessionRole bool

	BcryptCost      int
	AdminEmail      string
	AdminPassword   string
	LoginRatePerMin int

	LogLevel    string
	LogDev      bool
	SwaggerHost string
}

// Load builds Config from environment with sensible defaults.
// A .env file in the working directory is applied first when present.
func Load() *Config {
	_ = godotenv.Load()

	return &Config{
		ServerPort:       getEnv("SERVER_PORT", "3000"),
		MySQLDSN:         getEnv("MYSQL_DSN", "user:password@tcp(localhost:3306)/admin_console?charset=utf8mb4&parseTime=True&loc=Local"),
		DBMaxOpenConns:   getEnvInt("DB_MAX_OPEN_CONNS", 10),
		ResetDB:          getEnvBool("RESET_DB", false),
		RedisAddr:        getEnv("REDIS_ADDR", "localhost:6379"),
		RedisDB:          getEnvInt("REDIS_DB", 0),
		RedisPass:        os.Getenv("REDIS_PASSWORD"),
		SessionSecret:    getEnv("SESSION_SECRET", "fallback-secret-key-change-this"),
		SessionTTL:       getEnvDuration("SESSION_TTL", 24*time.Hour),
		SessionStore:     strings.ToLower(getEnv("SESSION_STORE", SessionStoreRedis)),
		CookieSecure:     getEnvBool("COOKIE_SECURE", false),
		TrustSessionRole: getEnvBool("TRUST_SESSION_ROLE", false),
		BcryptCost:       getEnvInt("BCRYPT_COST", 12),
		AdminEmail:       getEnv("ADMIN_EMAIL", "admin@dashboard.com"),
		AdminPassword:    getEnv("ADMIN_PASSWORD", "Admin@123"),
		LoginRatePerMin:  getEnvInt("LOGIN_RATE_PER_MIN", 20),
		LogLevel:         os.Getenv("LOG_LEVEL"),
		LogDev:           getEnvBool("LOG_DEV", false),
		SwaggerHost:      os.Getenv("SWAGGER_HOST"),
	}
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getEnvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			return parsed
		}
	}
	return def
}

func getEnvBool(key string, def bool) bool {
	if v := os.Getenv(key); v != "" {
		if parsed, err := strconv.ParseBool(v); err == nil {
			return parsed
		}
	}
	return def
}

func getEnvDuration(key string, def time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if parsed, err := time.ParseDuration(v); err == nil && parsed > 0 {
			return parsed
		}
	}
	return def
}
