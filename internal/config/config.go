package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

var AppEnv Config

type Config struct {
	Port     string
	Env      string
	MongoURI string
	DBName   string

	JWTSecret string
	TokenTTL  time.Duration

	DeliveryFee     float64
	PendingOrderTTL time.Duration
	OrderSweepEvery time.Duration
	MediaBackend    string
	UploadDir       string
	MediaPublicBase string
	S3Bucket        string
	S3Region        string
	MaxImageBytes   int64
	CORSOrigins     []string

	AdminPhone    string
	AdminPassword string
	AdminName     string

	LogLevel      string
	LogFile       string
	LogMaxSizeMB  int
	LogMaxBackups int
	LogMaxAgeDays int
}

func Load() {
	if err := godotenv.Load(); err != nil {
		log.Println(".env not loaded:", err)
	}
	AppEnv = FromEnv()
}

// FromEnv reads the configuration from the process environment without
// touching .env files.
func FromEnv() Config {
	return Config{
		Port:     getEnvOrDefault("PORT", "8080"),
		Env:      strings.ToLower(getEnvOrDefault("APP_ENV", "production")),
		MongoURI: getEnvOrDefault("MONGO_URI", ""),
		DBName:   getEnvOrDefault("DB_NAME", "marketplace"),

		JWTSecret: getEnvOrDefault("JWT_SECRET", ""),
		TokenTTL:  getDurationEnv("TOKEN_TTL_DAYS", 7, 24*time.Hour),

		DeliveryFee:     getFloatEnv("DELIVERY_FEE", 150),
		PendingOrderTTL: getDurationEnv("PENDING_ORDER_TTL_MINUTES", 30, time.Minute),
		OrderSweepEvery: getDurationEnv("ORDER_SWEEP_INTERVAL_SECONDS", 60, time.Second),
		MediaBackend:    strings.ToLower(getEnvOrDefault("MEDIA_BACKEND", "local")),
		UploadDir:       getEnvOrDefault("UPLOAD_DIR", "./public"),
		MediaPublicBase: getEnvOrDefault("MEDIA_PUBLIC_BASE_URL", ""),
		S3Bucket:        getEnvOrDefault("S3_BUCKET", ""),
		S3Region:        getEnvOrDefault("S3_REGION", ""),
		MaxImageBytes:   int64(getIntEnv("MAX_IMAGE_MB", 5)) << 20,
		CORSOrigins:     splitList(getEnvOrDefault("CORS_ORIGINS", "*")),

		AdminPhone:    getEnvOrDefault("ADMIN_PHONE", ""),
		AdminPassword: getEnvOrDefault("ADMIN_PASSWORD", ""),
		AdminName:     getEnvOrDefault("ADMIN_NAME", "Administrator"),

		LogLevel:      getEnvOrDefault("LOG_LEVEL", "info"),
		LogFile:       getEnvOrDefault("LOG_FILE", ""),
		LogMaxSizeMB:  getIntEnv("LOG_MAX_SIZE_MB", 100),
		LogMaxBackups: getIntEnv("LOG_MAX_BACKUPS", 7),
		LogMaxAgeDays: getIntEnv("LOG_MAX_AGE_DAYS", 7),
	}
}

func (c Config) IsProduction() bool {
	return c.Env == "production"
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return defaultValue
}

func getDurationEnv(key string, defaultValue int, unit time.Duration) time.Duration {
	return time.Duration(getIntEnv(key, defaultValue)) * unit
}

func getIntEnv(key string, defaultValue int) int {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil && parsed > 0 {
			return parsed
		}
	}
	return defaultValue
}

func getFloatEnv(key string, defaultValue float64) float64 {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		if parsed, err := strconv.ParseFloat(value, 64); err == nil && parsed >= 0 {
			return parsed
		}
	}
	return defaultValue
}

func splitList(raw string) []string {
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
