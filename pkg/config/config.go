package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// AppConfig holds the application configuration.
type AppConfig struct {
	Host           string
	Port           string
	Environment    string // "development", "production"
	LogLevel       string
	DatabaseURL    string
	JWTSecret      string
	JWTLifespan    time.Duration
	SaltRounds     int
	AllowedOrigins []string
	FrontendURL    string

	CookieSecure   bool
	CookieSameSite string // "lax", "strict", "none"

	SMTPHost      string
	SMTPPort      int
	SMTPUser      string
	SMTPPass      string
	EmailFrom     string
	EmailProvider string // "smtp", "ses", "log"
	AWSRegion     string

	StorageProvider  string // "s3" or "gcs"
	StorageBucket    string
	StorageRegion    string
	StorageEndpoint  string
	StorageAccessKey string
	StorageSecretKey string
	StoragePublicURL string
	GCSProjectID     string

	AuthRateLimit   string
	CleanupInterval time.Duration
	CleanupMinAge   time.Duration

	AppVersion string
}

// DefaultAuthRateLimit applies to the auth and password routes, per client IP.
const DefaultAuthRateLimit = "20-M"

// Cfg is the process-wide configuration, populated by LoadConfig.
var Cfg AppConfig

// Variables that must be present for the API server to start.
var serverRequired = []string{
	"DATABASE_URL",
	"JWT_SECRET",
	"SMTP_HOST",
	"SMTP_PORT",
	"SMTP_USER",
	"SMTP_PASS",
	"STORAGE_BUCKET",
	"STORAGE_ACCESS_KEY",
	"STORAGE_SECRET_KEY",
	"SALT_ROUNDS",
	"HOST",
	"PORT",
	"ALLOWED_ORIGIN",
}

// Variables the cleanup job needs; it never talks to SMTP or issues tokens.
var cleanupRequired = []string{
	"DATABASE_URL",
	"STORAGE_BUCKET",
	"STORAGE_ACCESS_KEY",
	"STORAGE_SECRET_KEY",
}

// LoadConfig reads a .env file if present and fills Cfg from the environment.
func LoadConfig() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file loaded:", err)
	}

	Cfg.Host = getEnv("HOST", "0.0.0.0")
	Cfg.Port = getEnv("PORT", "8080")
	Cfg.Environment = getEnv("APP_ENV", "development")
	Cfg.LogLevel = getEnv("LOG_LEVEL", "info")
	Cfg.DatabaseURL = getEnv("DATABASE_URL", "")
	Cfg.JWTSecret = getEnv("JWT_SECRET", "")
	Cfg.JWTLifespan = getEnvAsDuration("JWT_LIFESPAN", 7*24*time.Hour)
	Cfg.SaltRounds = getEnvAsInt("SALT_ROUNDS", 10)
	Cfg.AllowedOrigins = parseOrigins(getEnv("ALLOWED_ORIGIN", ""), getEnv("ALLOWED_ORIGINS", ""))
	Cfg.FrontendURL = strings.TrimSuffix(getEnv("FRONTEND_URL", "http://localhost:3000"), "/")

	Cfg.CookieSecure = getEnvAsBool("COOKIE_SECURE", Cfg.Environment == "production")
	Cfg.CookieSameSite = strings.ToLower(getEnv("COOKIE_SAMESITE", "lax"))

	Cfg.SMTPHost = getEnv("SMTP_HOST", "")
	Cfg.SMTPPort = getEnvAsInt("SMTP_PORT", 587)
	Cfg.SMTPUser = getEnv("SMTP_USER", "")
	Cfg.SMTPPass = getEnv("SMTP_PASS", "")
	Cfg.EmailFrom = getEnv("EMAIL_FROM", Cfg.SMTPUser)
	Cfg.EmailProvider = strings.ToLower(getEnv("EMAIL_PROVIDER", "smtp"))
	Cfg.AWSRegion = getEnv("AWS_REGION", "")

	Cfg.StorageProvider = strings.ToLower(getEnv("STORAGE_PROVIDER", "s3"))
	Cfg.StorageBucket = getEnv("STORAGE_BUCKET", "")
	Cfg.StorageRegion = getEnv("STORAGE_REGION", "us-east-1")
	Cfg.StorageEndpoint = getEnv("STORAGE_ENDPOINT", "")
	Cfg.StorageAccessKey = getEnv("STORAGE_ACCESS_KEY", "")
	Cfg.StorageSecretKey = getEnv("STORAGE_SECRET_KEY", "")
	Cfg.StoragePublicURL = strings.TrimSuffix(getEnv("STORAGE_PUBLIC_URL", ""), "/")
	Cfg.GCSProjectID = getEnv("GCS_PROJECT_ID", "")

	Cfg.AuthRateLimit = getEnv("AUTH_RATE_LIMIT", DefaultAuthRateLimit)
	Cfg.CleanupInterval = getEnvAsDuration("CLEANUP_INTERVAL", 12*time.Hour)
	Cfg.CleanupMinAge = getEnvAsDuration("CLEANUP_MIN_AGE", 24*time.Hour)

	Cfg.AppVersion = getEnv("APP_VERSION", "dev")
}

// ValidateServer reports every missing server variable and checks SALT_ROUNDS bounds.
func ValidateServer() error {
	if err := requireEnv(serverRequired); err != nil {
		return err
	}
	rounds, err := strconv.Atoi(os.Getenv("SALT_ROUNDS"))
	if err != nil {
		return fmt.Errorf("SALT_ROUNDS must be an integer: %w", err)
	}
	return checkSaltRounds(rounds)
}

// ValidateCleanup reports every missing variable needed by the cleanup job.
func ValidateCleanup() error {
	return requireEnv(cleanupRequired)
}

func checkSaltRounds(rounds int) error {
	if rounds < 1 || rounds > 31 {
		return fmt.Errorf("SALT_ROUNDS must be between 1 and 31, got %d", rounds)
	}
	return nil
}

func requireEnv(keys []string) error {
	var missing []string
	for _, key := range keys {
		if strings.TrimSpace(os.Getenv(key)) == "" {
			missing = append(missing, key)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing required environment variables: %s", strings.Join(missing, ", "))
	}
	return nil
}

// IsAllowedOrigin reports whether origin exactly matches a configured origin.
func (c *AppConfig) IsAllowedOrigin(origin string) bool {
	if origin == "" {
		return false
	}
	for _, o := range c.AllowedOrigins {
		if o == origin {
			return true
		}
	}
	return false
}

func parseOrigins(primary, extra string) []string {
	var origins []string
	seen := make(map[string]bool)
	for _, raw := range append([]string{primary}, strings.Split(extra, ",")...) {
		o := strings.TrimSuffix(strings.TrimSpace(raw), "/")
		if o == "" || seen[o] {
			continue
		}
		seen[o] = true
		origins = append(origins, o)
	}
	return origins
}

// getEnv returns the value of an environment variable or a default.
func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valStr := getEnv(key, "")
	if valStr == "" {
		return defaultValue
	}
	val, err := strconv.Atoi(valStr)
	if err != nil {
		log.Printf("Invalid integer for %s=%q, using default %d: %v", key, valStr, defaultValue, err)
		return defaultValue
	}
	return val
}

// getEnvAsBool returns the boolean value of an environment variable or a default.
func getEnvAsBool(key string, defaultValue bool) bool {
	valStr := getEnv(key, "")
	if valStr == "" {
		return defaultValue
	}
	valBool, err := strconv.ParseBool(valStr)
	if err != nil {
		log.Printf("Invalid boolean for %s=%q, using default %t: %v", key, valStr, defaultValue, err)
		return defaultValue
	}
	return valBool
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valStr := getEnv(key, "")
	if valStr == "" {
		return defaultValue
	}
	d, err := time.ParseDuration(valStr)
	if err != nil || d <= 0 {
		log.Printf("Invalid duration for %s=%q, using default %s", key, valStr, defaultValue)
		return defaultValue
	}
	return d
}
